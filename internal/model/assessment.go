// Package model defines the compliance assessment, scoring and gap types.
package model

import "time"

// Template is a questionnaire definition made of weighted sections.
type Template struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// SectionWeights returns the section weights in template order.
func (t *Template) SectionWeights() []float64 {
	weights := make([]float64, len(t.Sections))
	for i, s := range t.Sections {
		weights[i] = s.Weight
	}
	return weights
}

// Section is a weighted group of questions within a template.
type Section struct {
	ID         string     `json:"id" yaml:"id"`
	TemplateID string     `json:"template_id" yaml:"-"`
	Name       string     `json:"name" yaml:"name"`
	Weight     float64    `json:"weight" yaml:"weight"`
	Position   int        `json:"position" yaml:"-"`
	Questions  []Question `json:"questions" yaml:"questions"`
}

// QuestionWeights returns the question weights in section order.
func (s *Section) QuestionWeights() []float64 {
	weights := make([]float64, len(s.Questions))
	for i, q := range s.Questions {
		weights[i] = q.Weight
	}
	return weights
}

// QuestionIDs returns the question IDs in section order.
func (s *Section) QuestionIDs() []string {
	ids := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Question is a single weighted questionnaire item.
type Question struct {
	ID             string  `json:"id" yaml:"id"`
	SectionID      string  `json:"section_id" yaml:"-"`
	Text           string  `json:"text" yaml:"text"`
	Weight         float64 `json:"weight" yaml:"weight"`
	IsFoundational bool    `json:"is_foundational" yaml:"foundational"`
	Position       int     `json:"position" yaml:"-"`
}

// Assessment is one organization's run through a template.
type Assessment struct {
	ID             string    `json:"id" yaml:"id"`
	TemplateID     string    `json:"template_id" yaml:"template_id"`
	OrganizationID string    `json:"organization_id" yaml:"organization_id"`
	CreatedAt      time.Time `json:"created_at" yaml:"-"`
	Answers        []Answer  `json:"answers,omitempty" yaml:"answers"`
}

// Answer is an organization's response to one question within an assessment.
type Answer struct {
	ID           string `json:"id" yaml:"id"`
	AssessmentID string `json:"assessment_id" yaml:"-"`
	QuestionID   string `json:"question_id" yaml:"question_id"`
	// RawQualityScore is produced upstream on a 0-5 scale; nil means not yet scored.
	RawQualityScore *float64           `json:"raw_quality_score" yaml:"raw_quality_score"`
	Documents       []EvidenceDocument `json:"documents,omitempty" yaml:"documents"`
}

// Quality returns the raw quality score, treating an unscored answer as 0.
func (a *Answer) Quality() float64 {
	if a == nil || a.RawQualityScore == nil {
		return 0
	}
	return *a.RawQualityScore
}

// Tiers returns the evidence tiers of all linked documents, skipping
// documents without a tier.
func (a *Answer) Tiers() []EvidenceTier {
	if a == nil {
		return nil
	}
	var tiers []EvidenceTier
	for _, d := range a.Documents {
		if d.EvidenceTier != nil {
			tiers = append(tiers, *d.EvidenceTier)
		}
	}
	return tiers
}

// EvidenceDocument is a supporting document linked to an answer.
type EvidenceDocument struct {
	ID           string        `json:"id" yaml:"id"`
	Name         string        `json:"name" yaml:"name"`
	EvidenceTier *EvidenceTier `json:"evidence_tier" yaml:"evidence_tier"`
}
