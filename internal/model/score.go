package model

import "time"

// RiskBand is the qualitative label derived from an overall 0-100 score.
type RiskBand string

// Risk bands, safest first.
const (
	RiskLow      RiskBand = "Low"
	RiskMedium   RiskBand = "Medium"
	RiskHigh     RiskBand = "High"
	RiskCritical RiskBand = "Critical"
)

// QuestionScore is the tier-adjusted score of one question.
// FinalScore is always RawQualityScore * TierMultiplier.
type QuestionScore struct {
	AnswerID        string       `json:"answer_id,omitempty"`
	QuestionID      string       `json:"question_id"`
	RawQualityScore float64      `json:"raw_quality_score"`
	EvidenceTier    EvidenceTier `json:"evidence_tier"`
	TierMultiplier  float64      `json:"tier_multiplier"`
	FinalScore      float64      `json:"final_score"`
	Weight          float64      `json:"weight"`
	IsFoundational  bool         `json:"is_foundational"`
}

// Answered reports whether the score was computed from an existing answer.
func (q QuestionScore) Answered() bool {
	return q.AnswerID != ""
}

// SectionScore aggregates the question scores of one section.
type SectionScore struct {
	SectionID      string          `json:"section_id"`
	Score          float64         `json:"score"`
	ScaledScore    float64         `json:"scaled_score"`
	QuestionScores []QuestionScore `json:"question_scores"`
	TotalWeight    float64         `json:"total_weight"`
	SectionWeight  float64         `json:"section_weight"`
	Position       int             `json:"position"`
}

// OverallScore aggregates section scores into one assessment-level result.
type OverallScore struct {
	AssessmentID  string         `json:"assessment_id"`
	OverallScore  float64        `json:"overall_score"`
	RiskBand      RiskBand       `json:"risk_band"`
	SectionScores []SectionScore `json:"section_scores"`
	CalculatedAt  time.Time      `json:"calculated_at"`
}
