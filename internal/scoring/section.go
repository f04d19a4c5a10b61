package scoring

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-cli/internal/model"
)

// ScoreSection validates the question weights of section and aggregates its
// question scores. answers is keyed by question ID; missing entries count as
// unanswered. A section without questions scores 0 and is not an error.
func ScoreSection(section *model.Section, answers map[string]*model.Answer, tiers TierTable, tolerance float64) (model.SectionScore, error) {
	if len(section.Questions) > 0 {
		if err := ValidateWeights(section.QuestionWeights(), "section "+section.ID, tolerance); err != nil {
			return model.SectionScore{}, err
		}
	}
	return scoreValidatedSection(section, answers, tiers)
}

// scoreValidatedSection aggregates a section whose weights were already
// validated.
func scoreValidatedSection(section *model.Section, answers map[string]*model.Answer, tiers TierTable) (model.SectionScore, error) {
	out := model.SectionScore{
		SectionID:      section.ID,
		SectionWeight:  section.Weight,
		Position:       section.Position,
		QuestionScores: []model.QuestionScore{},
	}
	if len(section.Questions) == 0 {
		return out, nil
	}

	finals := make([]float64, len(section.Questions))
	weights := section.QuestionWeights()
	for i, q := range section.Questions {
		qs := ScoreQuestion(q, answers[q.ID], tiers)
		out.QuestionScores = append(out.QuestionScores, qs)
		finals[i] = qs.FinalScore
	}

	score, err := WeightedSum(finals, weights)
	if err != nil {
		return model.SectionScore{}, eris.Wrapf(err, "scoring: section %s", section.ID)
	}
	out.Score = score
	out.ScaledScore = toPercent(score)
	out.TotalWeight = SumWeights(weights)
	return out, nil
}
