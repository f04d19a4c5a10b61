package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseEvidenceTier(t *testing.T) {
	tests := []struct {
		in      string
		want    EvidenceTier
		wantErr bool
	}{
		{"TIER_0", Tier0, false},
		{"TIER_1", Tier1, false},
		{"tier_2", Tier2, false},
		{"tier1", Tier1, false},
		{" 2 ", Tier2, false},
		{"0", Tier0, false},
		{"TIER_3", Tier0, true},
		{"gold", Tier0, true},
		{"", Tier0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEvidenceTier(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown evidence tier")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvidenceTier_String(t *testing.T) {
	assert.Equal(t, "TIER_0", Tier0.String())
	assert.Equal(t, "TIER_2", Tier2.String())
	assert.Equal(t, "TIER_UNKNOWN", EvidenceTier(7).String())
	assert.False(t, EvidenceTier(-1).Valid())
	assert.True(t, Tier1.Valid())
}

func TestEvidenceTier_JSON(t *testing.T) {
	tier := Tier1
	doc := EvidenceDocument{ID: "d1", Name: "policy.pdf", EvidenceTier: &tier}

	b, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"d1","name":"policy.pdf","evidence_tier":"TIER_1"}`, string(b))

	var back EvidenceDocument
	require.NoError(t, json.Unmarshal(b, &back))
	require.NotNil(t, back.EvidenceTier)
	assert.Equal(t, Tier1, *back.EvidenceTier)

	_, err = json.Marshal(EvidenceTier(9))
	assert.Error(t, err)
}

func TestEvidenceTier_YAML(t *testing.T) {
	src := `
id: a1
question_id: q1
raw_quality_score: 4.5
documents:
  - id: d1
    evidence_tier: TIER_2
  - id: d2
    evidence_tier: 1
  - id: d3
`
	var a Answer
	require.NoError(t, yaml.Unmarshal([]byte(src), &a))
	require.Len(t, a.Documents, 3)
	assert.Equal(t, []EvidenceTier{Tier2, Tier1}, a.Tiers())
	assert.InDelta(t, 4.5, a.Quality(), 1e-9)
}
