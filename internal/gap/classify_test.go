package gap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/compliance-cli/internal/model"
)

func TestSeverity(t *testing.T) {
	tests := []struct {
		score float64
		want  model.Severity
	}{
		{0, model.SeverityCritical},
		{1.4, model.SeverityCritical},
		{1.5, model.SeverityHigh},
		{2.4, model.SeverityHigh},
		{2.5, model.SeverityMedium},
		{3.4, model.SeverityMedium},
		{3.5, model.SeverityLow},
		{5, model.SeverityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Severity(tt.score), "score %v", tt.score)
	}
}

func TestPriorityScore(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want float64
	}{
		{"zero score", Input{Score: 0}, 10},
		{"midpoint", Input{Score: 2.5}, 5},
		{"perfect floors to 1", Input{Score: 5.0}, 1},
		{"foundational boost", Input{Score: 2.0, IsFoundational: true}, 8},
		{"section weight boost", Input{Score: 2.0, SectionWeight: 0.20}, 7},
		{"ceiling clamp", Input{Score: 0, IsFoundational: true, SectionWeight: 0.30}, 10},
		{"near perfect", Input{Score: 4.8}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PriorityScore(tt.in), 1e-9)
		})
	}
}

func TestPriorityScore_AlwaysInRange(t *testing.T) {
	for score := 0.0; score <= 5.0; score += 0.25 {
		for _, found := range []bool{false, true} {
			for w := 0.0; w <= 1.0; w += 0.1 {
				p := PriorityScore(Input{Score: score, IsFoundational: found, SectionWeight: w})
				assert.GreaterOrEqual(t, p, MinPriorityScore)
				assert.LessOrEqual(t, p, MaxPriorityScore)
			}
		}
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want model.Priority
	}{
		{"max priority", Input{Score: 0}, model.PriorityImmediate},
		{"foundational 8", Input{Score: 2.0, IsFoundational: true}, model.PriorityImmediate},
		{"weighted 7", Input{Score: 2.0, SectionWeight: 0.20}, model.PriorityShortTerm},
		{"exactly 6", Input{Score: 2.0}, model.PriorityShortTerm},
		{"midpoint 5", Input{Score: 2.5}, model.PriorityMediumTerm},
		{"exactly 4", Input{Score: 3.0}, model.PriorityMediumTerm},
		{"low 3", Input{Score: 3.5}, model.PriorityLongTerm},
		{"floored 1", Input{Score: 5.0}, model.PriorityLongTerm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Priority(tt.in))
		})
	}
}

func TestEstimateEffort(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		found  bool
		score  float64
		want   model.Effort
	}{
		{"large", 0.30, true, 1.5, model.EffortLarge},
		{"score boundary excludes large", 0.30, true, 2.0, model.EffortMedium},
		{"non-foundational never large", 0.30, false, 1.5, model.EffortSmall},
		{"weight boundary excludes large", 0.25, true, 1.0, model.EffortMedium},
		{"mid weight lower bound", 0.15, false, 1.0, model.EffortMedium},
		{"mid weight upper bound", 0.25, false, 1.0, model.EffortMedium},
		{"light section", 0.10, false, 0.5, model.EffortSmall},
		{"foundational light section", 0.05, true, 4.0, model.EffortMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateEffort(tt.weight, tt.found, tt.score))
		})
	}
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name     string
		effort   model.Effort
		severity model.Severity
		weight   float64
		found    bool
		want     model.CostRange
	}{
		{"large critical heavy", model.EffortLarge, model.SeverityCritical, 0.25, true, model.CostOver250K},
		{"large critical weight boundary", model.EffortLarge, model.SeverityCritical, 0.20, true, model.Cost100KTo250K},
		{"large high", model.EffortLarge, model.SeverityHigh, 0.40, true, model.Cost50KTo100K},
		{"medium foundational", model.EffortMedium, model.SeverityHigh, 0.1, true, model.Cost50KTo100K},
		{"medium", model.EffortMedium, model.SeverityCritical, 0.2, false, model.Cost10KTo50K},
		{"small foundational", model.EffortSmall, model.SeverityLow, 0.1, true, model.Cost10KTo50K},
		{"small", model.EffortSmall, model.SeverityCritical, 0.5, false, model.CostUnder10K},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateCost(tt.effort, tt.severity, tt.weight, tt.found))
		})
	}
}

func TestClassify(t *testing.T) {
	got := Classify(Input{Score: 1.0, IsFoundational: true, SectionWeight: 0.30})

	assert.Equal(t, model.SeverityCritical, got.Severity)
	assert.InDelta(t, 10.0, got.PriorityScore, 1e-9) // 8 + 2 + 1.5 clamped
	assert.Equal(t, model.PriorityImmediate, got.Priority)
	assert.Equal(t, model.EffortLarge, got.Effort)
	assert.Equal(t, model.CostOver250K, got.Cost)
}

func TestClassify_LowGap(t *testing.T) {
	got := Classify(Input{Score: 3.6, SectionWeight: 0.05})

	assert.Equal(t, model.SeverityLow, got.Severity)
	assert.InDelta(t, 3.05, got.PriorityScore, 1e-9)
	assert.Equal(t, model.PriorityLongTerm, got.Priority)
	assert.Equal(t, model.EffortSmall, got.Effort)
	assert.Equal(t, model.CostUnder10K, got.Cost)
}

func TestClassify_Deterministic(t *testing.T) {
	in := Input{Score: 2.2, IsFoundational: true, SectionWeight: 0.18}
	assert.Equal(t, Classify(in), Classify(in))
}
