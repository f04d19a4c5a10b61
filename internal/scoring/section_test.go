package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/compliance-cli/internal/model"
)

func TestScoreSection_Empty(t *testing.T) {
	s := &model.Section{ID: "empty", Weight: 0.4, Position: 2}
	got, err := ScoreSection(s, nil, DefaultTierTable(), DefaultWeightTolerance)
	require.NoError(t, err)

	assert.Equal(t, "empty", got.SectionID)
	assert.Zero(t, got.Score)
	assert.Zero(t, got.ScaledScore)
	assert.Zero(t, got.TotalWeight)
	assert.NotNil(t, got.QuestionScores)
	assert.Empty(t, got.QuestionScores)
	assert.InDelta(t, 0.4, got.SectionWeight, 1e-9)
	assert.Equal(t, 2, got.Position)
}

func TestScoreSection_UnansweredContributesZero(t *testing.T) {
	tmpl := twoQuestionTemplate()
	answers := map[string]*model.Answer{
		"q-a": answer("ans-a", "q-a", ptrFloat64(4), ptrTier(model.Tier2)),
	}

	got, err := ScoreSection(&tmpl.Sections[0], answers, DefaultTierTable(), DefaultWeightTolerance)
	require.NoError(t, err)

	require.Len(t, got.QuestionScores, 2)
	assert.InDelta(t, 2.0, got.Score, 1e-9)
	assert.InDelta(t, 40.0, got.ScaledScore, 1e-9)
	assert.InDelta(t, 1.0, got.TotalWeight, 1e-9)

	unanswered := got.QuestionScores[1]
	assert.Equal(t, "q-b", unanswered.QuestionID)
	assert.False(t, unanswered.Answered())
	assert.Equal(t, model.Tier0, unanswered.EvidenceTier)
	assert.InDelta(t, 0.6, unanswered.TierMultiplier, 1e-9)
	assert.Zero(t, unanswered.FinalScore)
}

func TestScoreSection_KeepsQuestionOrder(t *testing.T) {
	s := &model.Section{
		ID: "sec",
		Questions: []model.Question{
			{ID: "q3", Weight: 0.2},
			{ID: "q1", Weight: 0.3},
			{ID: "q2", Weight: 0.5},
		},
	}
	got, err := ScoreSection(s, nil, DefaultTierTable(), DefaultWeightTolerance)
	require.NoError(t, err)
	ids := []string{}
	for _, qs := range got.QuestionScores {
		ids = append(ids, qs.QuestionID)
	}
	assert.Equal(t, []string{"q3", "q1", "q2"}, ids)
}

func TestScoreSection_WeightedMix(t *testing.T) {
	s := &model.Section{
		ID: "sec",
		Questions: []model.Question{
			{ID: "q1", Weight: 0.2},
			{ID: "q2", Weight: 0.3},
			{ID: "q3", Weight: 0.5},
		},
	}
	answers := map[string]*model.Answer{
		"q1": answer("a1", "q1", ptrFloat64(5), ptrTier(model.Tier2)), // 5.0
		"q2": answer("a2", "q2", ptrFloat64(5), ptrTier(model.Tier1)), // 4.0
		"q3": answer("a3", "q3", ptrFloat64(5)),                       // 3.0
	}
	got, err := ScoreSection(s, answers, DefaultTierTable(), DefaultWeightTolerance)
	require.NoError(t, err)
	// 0.2*5 + 0.3*4 + 0.5*3 = 3.7
	assert.InDelta(t, 3.7, got.Score, 1e-9)
	assert.InDelta(t, 74.0, got.ScaledScore, 1e-9)
}

func TestScoreSection_InvalidWeights(t *testing.T) {
	s := &model.Section{
		ID: "bad",
		Questions: []model.Question{
			{ID: "q1", Weight: 0.5},
			{ID: "q2", Weight: 0.4},
		},
	}
	_, err := ScoreSection(s, nil, DefaultTierTable(), DefaultWeightTolerance)
	require.Error(t, err)
	assert.True(t, IsInvalidWeights(err))
	assert.Contains(t, err.Error(), "section bad")
	assert.Contains(t, err.Error(), "0.900000")
}
