package scoring

import "github.com/sells-group/compliance-cli/internal/model"

func ptrFloat64(v float64) *float64 { return &v }

func ptrTier(t model.EvidenceTier) *model.EvidenceTier { return &t }

func answer(id, questionID string, raw *float64, tiers ...*model.EvidenceTier) *model.Answer {
	a := &model.Answer{ID: id, QuestionID: questionID, RawQualityScore: raw}
	for i, t := range tiers {
		a.Documents = append(a.Documents, model.EvidenceDocument{
			ID:           id + "-doc-" + string(rune('a'+i)),
			EvidenceTier: t,
		})
	}
	return a
}

// twoQuestionTemplate is a single-section template with two equally weighted,
// non-foundational questions.
func twoQuestionTemplate() *model.Template {
	return &model.Template{
		ID:   "tmpl-1",
		Name: "Baseline",
		Sections: []model.Section{{
			ID:         "sec-1",
			TemplateID: "tmpl-1",
			Name:       "Access Control",
			Weight:     1.0,
			Questions: []model.Question{
				{ID: "q-a", SectionID: "sec-1", Weight: 0.5},
				{ID: "q-b", SectionID: "sec-1", Weight: 0.5, Position: 1},
			},
		}},
	}
}
