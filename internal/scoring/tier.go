// Package scoring computes hierarchical compliance scores from questionnaire
// answers and their linked evidence. The pure functions in this package
// operate on plain model values; Engine adapts them to a Lookup backend.
package scoring

import (
	"github.com/sells-group/compliance-cli/internal/config"
	"github.com/sells-group/compliance-cli/internal/model"
)

// TierTable maps evidence tiers to score multipliers. It is read-only
// after construction and safe for concurrent use.
type TierTable struct {
	multipliers [3]float64
}

// NewTierTable builds a TierTable from configured multipliers.
func NewTierTable(m config.TierMultipliers) TierTable {
	return TierTable{multipliers: [3]float64{m.Tier0, m.Tier1, m.Tier2}}
}

// DefaultTierTable returns the table built from the default scoring config.
func DefaultTierTable() TierTable {
	return NewTierTable(config.DefaultScoringConfig().TierMultipliers)
}

// Multiplier returns the score modifier for tier t. Unknown tiers get the
// Tier0 multiplier.
func (tt TierTable) Multiplier(t model.EvidenceTier) float64 {
	if !t.Valid() {
		return tt.multipliers[model.Tier0]
	}
	return tt.multipliers[t]
}

// BestTier returns the strongest tier in tiers, or Tier0 when tiers is empty.
func BestTier(tiers []model.EvidenceTier) model.EvidenceTier {
	best := model.Tier0
	for _, t := range tiers {
		if t.Valid() && t > best {
			best = t
		}
	}
	return best
}
