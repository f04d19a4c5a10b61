package store

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-cli/internal/model"
)

// scannable is satisfied by pgx.Row, pgx.Rows, *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanSectionRow scans id, template_id, name, weight, position.
func scanSectionRow(row scannable) (model.Section, error) {
	var sec model.Section
	err := row.Scan(&sec.ID, &sec.TemplateID, &sec.Name, &sec.Weight, &sec.Position)
	return sec, err
}

// scanQuestionRow scans id, section_id, text, weight, is_foundational,
// position.
func scanQuestionRow(row scannable) (model.Question, error) {
	var q model.Question
	err := row.Scan(&q.ID, &q.SectionID, &q.Text, &q.Weight, &q.IsFoundational, &q.Position)
	return q, err
}

// scanAnswerRow scans id, assessment_id, question_id, a has-score flag and
// the score with NULL coalesced to zero.
func scanAnswerRow(row scannable) (*model.Answer, error) {
	var a model.Answer
	var scored bool
	var raw float64
	if err := row.Scan(&a.ID, &a.AssessmentID, &a.QuestionID, &scored, &raw); err != nil {
		return nil, err
	}
	if scored {
		a.RawQualityScore = &raw
	}
	return &a, nil
}

// scanDocumentRow scans id, answer_id, name and the tier with NULL
// coalesced to the empty string.
func scanDocumentRow(row scannable) (model.EvidenceDocument, string, error) {
	var d model.EvidenceDocument
	var answerID, tier string
	if err := row.Scan(&d.ID, &answerID, &d.Name, &tier); err != nil {
		return d, "", err
	}
	t, err := parseTier(tier)
	if err != nil {
		return d, "", eris.Wrapf(err, "document %s", d.ID)
	}
	d.EvidenceTier = t
	return d, answerID, nil
}

// attachQuestions distributes position-ordered questions to their sections.
func attachQuestions(sections []model.Section, questions []model.Question) []model.Section {
	idx := make(map[string]int, len(sections))
	for i := range sections {
		idx[sections[i].ID] = i
	}
	for _, q := range questions {
		if i, ok := idx[q.SectionID]; ok {
			sections[i].Questions = append(sections[i].Questions, q)
		}
	}
	return sections
}
