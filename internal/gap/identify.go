package gap

import (
	"sort"

	"github.com/sells-group/compliance-cli/internal/model"
)

// Identify returns a classified gap for every question whose final score
// is strictly below threshold, most urgent first. Ties keep severity order,
// then template order.
func Identify(overall *model.OverallScore, threshold float64) []model.Gap {
	if overall == nil {
		return nil
	}

	var gaps []model.Gap
	for _, s := range overall.SectionScores {
		for _, qs := range s.QuestionScores {
			if qs.FinalScore >= threshold {
				continue
			}
			in := Input{
				Score:          qs.FinalScore,
				IsFoundational: qs.IsFoundational,
				SectionWeight:  s.SectionWeight,
			}
			gaps = append(gaps, model.Gap{
				AssessmentID:      overall.AssessmentID,
				SectionID:         s.SectionID,
				QuestionID:        qs.QuestionID,
				AnswerID:          qs.AnswerID,
				Score:             qs.FinalScore,
				IsFoundational:    qs.IsFoundational,
				SectionWeight:     s.SectionWeight,
				GapClassification: Classify(in),
			})
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].PriorityScore != gaps[j].PriorityScore {
			return gaps[i].PriorityScore > gaps[j].PriorityScore
		}
		return gaps[i].Severity.Rank() < gaps[j].Severity.Rank()
	})
	return gaps
}

// Summary counts gaps per severity and priority bucket.
type Summary struct {
	Total      int                    `json:"total"`
	BySeverity map[model.Severity]int `json:"by_severity"`
	ByPriority map[model.Priority]int `json:"by_priority"`
}

// Summarize tallies gaps.
func Summarize(gaps []model.Gap) Summary {
	s := Summary{
		Total:      len(gaps),
		BySeverity: map[model.Severity]int{},
		ByPriority: map[model.Priority]int{},
	}
	for _, g := range gaps {
		s.BySeverity[g.Severity]++
		s.ByPriority[g.Priority]++
	}
	return s
}
