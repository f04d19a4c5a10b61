package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/compliance-cli/internal/model"
)

func TestRiskBandFor(t *testing.T) {
	tests := []struct {
		score float64
		want  model.RiskBand
	}{
		{100, model.RiskLow},
		{80, model.RiskLow},
		{79.99, model.RiskMedium},
		{60, model.RiskMedium},
		{59.99, model.RiskHigh},
		{40, model.RiskHigh},
		{39.99, model.RiskCritical},
		{0, model.RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskBandFor(tt.score), "score %v", tt.score)
	}
}

func TestScoreAssessment_EndToEnd(t *testing.T) {
	tmpl := twoQuestionTemplate()
	answers := map[string]*model.Answer{
		"q-a": answer("ans-a", "q-a", ptrFloat64(4), ptrTier(model.Tier2)),
	}

	got, err := ScoreAssessment("asmt-1", tmpl, answers, DefaultTierTable(), DefaultWeightTolerance)
	require.NoError(t, err)

	assert.Equal(t, "asmt-1", got.AssessmentID)
	require.Len(t, got.SectionScores, 1)
	assert.InDelta(t, 2.0, got.SectionScores[0].Score, 1e-9)
	assert.InDelta(t, 40.0, got.SectionScores[0].ScaledScore, 1e-9)
	assert.Equal(t, 40.0, got.OverallScore)
	assert.Equal(t, model.RiskHigh, got.RiskBand)
}

func TestScoreAssessment_EmptyTemplate(t *testing.T) {
	got, err := ScoreAssessment("asmt-1", &model.Template{ID: "empty"}, nil, DefaultTierTable(), DefaultWeightTolerance)
	require.NoError(t, err)
	assert.Zero(t, got.OverallScore)
	assert.Equal(t, model.RiskCritical, got.RiskBand)
	assert.Empty(t, got.SectionScores)
}

func TestScoreAssessment_InvalidSectionWeights(t *testing.T) {
	tmpl := twoQuestionTemplate()
	tmpl.Sections[0].Weight = 0.8

	_, err := ScoreAssessment("asmt-1", tmpl, nil, DefaultTierTable(), DefaultWeightTolerance)
	require.Error(t, err)
	assert.True(t, IsInvalidWeights(err))
	assert.Contains(t, err.Error(), "template tmpl-1")
}

func TestScoreAssessment_NaNSectionWeight(t *testing.T) {
	tmpl := twoQuestionTemplate()
	tmpl.Sections[0].Weight = math.NaN()
	answers := map[string]*model.Answer{
		"q-a": answer("ans-a", "q-a", ptrFloat64(4), ptrTier(model.Tier2)),
	}

	got, err := ScoreAssessment("asmt-1", tmpl, answers, DefaultTierTable(), DefaultWeightTolerance)
	require.Error(t, err)
	assert.True(t, IsInvalidWeights(err))
	assert.Zero(t, got.OverallScore)
}

func TestScoreAssessment_RoundsToTwoDecimals(t *testing.T) {
	tmpl := &model.Template{
		ID: "t",
		Sections: []model.Section{
			{ID: "s1", Weight: 1.0 / 3, Questions: []model.Question{{ID: "q1", Weight: 1}}},
			{ID: "s2", Weight: 2.0 / 3, Questions: []model.Question{{ID: "q2", Weight: 1}}},
		},
	}
	answers := map[string]*model.Answer{
		"q1": answer("a1", "q1", ptrFloat64(1), ptrTier(model.Tier2)),
	}
	got, err := ScoreAssessment("a", tmpl, answers, DefaultTierTable(), DefaultWeightTolerance)
	require.NoError(t, err)
	// (1/3 * 1.0) / 5 * 100 = 6.666... -> 6.67
	assert.Equal(t, 6.67, got.OverallScore)
	assert.Equal(t, model.RiskCritical, got.RiskBand)
}

func TestAggregate_SectionCountMismatch(t *testing.T) {
	tmpl := twoQuestionTemplate()
	_, err := Aggregate("a", tmpl, []model.SectionScore{{}, {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 sections but 2 section scores")
}

func TestScoreAssessment_PerfectScore(t *testing.T) {
	tmpl := twoQuestionTemplate()
	answers := map[string]*model.Answer{
		"q-a": answer("ans-a", "q-a", ptrFloat64(5), ptrTier(model.Tier2)),
		"q-b": answer("ans-b", "q-b", ptrFloat64(5), ptrTier(model.Tier2)),
	}
	got, err := ScoreAssessment("a", tmpl, answers, DefaultTierTable(), DefaultWeightTolerance)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.OverallScore)
	assert.Equal(t, model.RiskLow, got.RiskBand)
}
