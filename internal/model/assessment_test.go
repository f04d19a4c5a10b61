package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswer_Quality(t *testing.T) {
	var nilAnswer *Answer
	assert.Zero(t, nilAnswer.Quality())
	assert.Zero(t, (&Answer{}).Quality())

	score := 3.25
	assert.InDelta(t, 3.25, (&Answer{RawQualityScore: &score}).Quality(), 1e-9)
}

func TestAnswer_Tiers(t *testing.T) {
	var nilAnswer *Answer
	assert.Nil(t, nilAnswer.Tiers())

	t0, t2 := Tier0, Tier2
	a := &Answer{Documents: []EvidenceDocument{
		{ID: "d1", EvidenceTier: &t2},
		{ID: "d2"},
		{ID: "d3", EvidenceTier: &t0},
	}}
	assert.Equal(t, []EvidenceTier{Tier2, Tier0}, a.Tiers())
	assert.Empty(t, (&Answer{}).Tiers())
}

func TestTemplate_Accessors(t *testing.T) {
	tmpl := Template{
		ID: "tmpl-1",
		Sections: []Section{
			{ID: "s1", Weight: 0.4, Questions: []Question{
				{ID: "q1", Weight: 0.25},
				{ID: "q2", Weight: 0.75},
			}},
			{ID: "s2", Weight: 0.6},
		},
	}

	assert.Equal(t, []float64{0.4, 0.6}, tmpl.SectionWeights())
	assert.Equal(t, []float64{0.25, 0.75}, tmpl.Sections[0].QuestionWeights())
	assert.Equal(t, []string{"q1", "q2"}, tmpl.Sections[0].QuestionIDs())
	assert.Empty(t, tmpl.Sections[1].QuestionIDs())
}

func TestSeverity_Rank(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Equal(t, 4, Severity("UNKNOWN").Rank())
}

func TestQuestionScore_Answered(t *testing.T) {
	assert.True(t, QuestionScore{AnswerID: "a1"}.Answered())
	assert.False(t, QuestionScore{QuestionID: "q1"}.Answered())
}
