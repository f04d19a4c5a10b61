// Package gap classifies compliance gaps by severity, priority, remediation
// effort and cost, and identifies gaps from computed assessment scores.
package gap

import (
	"math"

	"github.com/sells-group/compliance-cli/internal/model"
)

// Input holds the per-gap values the classifier works from.
type Input struct {
	// Score is the gap's 0-5 score.
	Score          float64 `json:"score" validate:"gte=0,lte=5"`
	IsFoundational bool    `json:"is_foundational"`
	// SectionWeight is the 0-1 weight of the gap's section in its template.
	SectionWeight float64 `json:"section_weight" validate:"gte=0,lte=1"`
}

// Priority score bounds and boosts.
const (
	MinPriorityScore  = 1.0
	MaxPriorityScore  = 10.0
	foundationalBoost = 2.0
	sectionWeightMul  = 5.0
)

// Priority bucket floors on the 1-10 priority score. Each floor is inclusive.
const (
	ImmediateFloor  = 8.0
	ShortTermFloor  = 6.0
	MediumTermFloor = 4.0
)

// Severity grades a 0-5 score.
func Severity(score float64) model.Severity {
	switch {
	case score < 1.5:
		return model.SeverityCritical
	case score < 2.5:
		return model.SeverityHigh
	case score < 3.5:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// PriorityScore combines the score deficit, the foundational boost and the
// section weight into a 1-10 priority score.
func PriorityScore(in Input) float64 {
	p := (5 - in.Score) * 2
	if in.IsFoundational {
		p += foundationalBoost
	}
	p += in.SectionWeight * sectionWeightMul
	p = math.Max(MinPriorityScore, math.Min(MaxPriorityScore, p))
	return math.Round(p*100) / 100
}

// Priority buckets the priority score of in.
func Priority(in Input) model.Priority {
	return priorityBucket(PriorityScore(in))
}

func priorityBucket(p float64) model.Priority {
	switch {
	case p >= ImmediateFloor:
		return model.PriorityImmediate
	case p >= ShortTermFloor:
		return model.PriorityShortTerm
	case p >= MediumTermFloor:
		return model.PriorityMediumTerm
	default:
		return model.PriorityLongTerm
	}
}

// EstimateEffort sizes the remediation work. Only foundational gaps in
// heavy sections with very low scores are LARGE.
func EstimateEffort(sectionWeight float64, isFoundational bool, score float64) model.Effort {
	if isFoundational && sectionWeight > 0.25 && score < 2.0 {
		return model.EffortLarge
	}
	if isFoundational || (sectionWeight >= 0.15 && sectionWeight <= 0.25) {
		return model.EffortMedium
	}
	return model.EffortSmall
}

// EstimateCost buckets the remediation cost from effort, escalating for
// foundational gaps and for critical large efforts.
func EstimateCost(effort model.Effort, severity model.Severity, sectionWeight float64, isFoundational bool) model.CostRange {
	switch effort {
	case model.EffortLarge:
		if severity == model.SeverityCritical {
			if sectionWeight > 0.20 {
				return model.CostOver250K
			}
			return model.Cost100KTo250K
		}
		return model.Cost50KTo100K
	case model.EffortMedium:
		if isFoundational {
			return model.Cost50KTo100K
		}
		return model.Cost10KTo50K
	default:
		if isFoundational {
			return model.Cost10KTo50K
		}
		return model.CostUnder10K
	}
}

// Classify runs every classifier over in.
func Classify(in Input) model.GapClassification {
	severity := Severity(in.Score)
	priorityScore := PriorityScore(in)
	effort := EstimateEffort(in.SectionWeight, in.IsFoundational, in.Score)

	return model.GapClassification{
		Severity:      severity,
		PriorityScore: priorityScore,
		Priority:      priorityBucket(priorityScore),
		Effort:        effort,
		Cost:          EstimateCost(effort, severity, in.SectionWeight, in.IsFoundational),
	}
}
