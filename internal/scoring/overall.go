package scoring

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-cli/internal/model"
)

// Risk band lower bounds on the 0-100 overall score. Each bound is inclusive.
const (
	LowRiskFloor    = 80.0
	MediumRiskFloor = 60.0
	HighRiskFloor   = 40.0
)

// RiskBandFor maps a 0-100 overall score to its risk band.
func RiskBandFor(score float64) model.RiskBand {
	switch {
	case score >= LowRiskFloor:
		return model.RiskLow
	case score >= MediumRiskFloor:
		return model.RiskMedium
	case score >= HighRiskFloor:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}

// Aggregate combines section scores, given in template order, into the
// overall assessment score. A template without sections scores 0 with a
// Critical band. Section weights must already be validated.
func Aggregate(assessmentID string, tmpl *model.Template, sections []model.SectionScore) (model.OverallScore, error) {
	out := model.OverallScore{
		AssessmentID:  assessmentID,
		RiskBand:      model.RiskCritical,
		SectionScores: sections,
	}
	if len(tmpl.Sections) == 0 {
		out.SectionScores = []model.SectionScore{}
		return out, nil
	}
	if len(sections) != len(tmpl.Sections) {
		return model.OverallScore{}, eris.Errorf("scoring: template %s has %d sections but %d section scores",
			tmpl.ID, len(tmpl.Sections), len(sections))
	}

	values := make([]float64, len(sections))
	for i, s := range sections {
		values[i] = s.Score
	}
	weighted, err := WeightedSum(values, tmpl.SectionWeights())
	if err != nil {
		return model.OverallScore{}, eris.Wrapf(err, "scoring: template %s", tmpl.ID)
	}

	out.OverallScore = round2(toPercent(weighted))
	out.RiskBand = RiskBandFor(out.OverallScore)
	return out, nil
}

// ScoreAssessment runs the full scoring pipeline over already-fetched data.
// answers is keyed by question ID across all sections of tmpl.
func ScoreAssessment(assessmentID string, tmpl *model.Template, answers map[string]*model.Answer, tiers TierTable, tolerance float64) (model.OverallScore, error) {
	if len(tmpl.Sections) == 0 {
		return Aggregate(assessmentID, tmpl, nil)
	}
	if err := ValidateWeights(tmpl.SectionWeights(), "template "+tmpl.ID, tolerance); err != nil {
		return model.OverallScore{}, err
	}

	sections := make([]model.SectionScore, len(tmpl.Sections))
	for i := range tmpl.Sections {
		s, err := ScoreSection(&tmpl.Sections[i], answers, tiers, tolerance)
		if err != nil {
			return model.OverallScore{}, err
		}
		sections[i] = s
	}
	return Aggregate(assessmentID, tmpl, sections)
}
