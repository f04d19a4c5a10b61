package scoring

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

// Internal and reported score ranges.
const (
	MinScore  = 0.0
	MaxScore  = 5.0
	MinScaled = 0.0
	MaxScaled = 100.0
)

// WeightedSum returns Σ values[i]*weights[i]. The result stays in the scale
// of values.
func WeightedSum(values, weights []float64) (float64, error) {
	if len(values) != len(weights) {
		return 0, eris.Errorf("scoring: weighted sum: %d values but %d weights", len(values), len(weights))
	}
	var sum float64
	for i, v := range values {
		sum += v * weights[i]
	}
	return sum, nil
}

// ScaleScore linearly maps value from [fromMin, fromMax] to [toMin, toMax].
// It panics on a degenerate source range.
func ScaleScore(value, fromMin, fromMax, toMin, toMax float64) float64 {
	if fromMax == fromMin {
		panic(fmt.Sprintf("scoring: scale score: empty source range [%g, %g]", fromMin, fromMax))
	}
	return toMin + (value-fromMin)/(fromMax-fromMin)*(toMax-toMin)
}

// toPercent rescales a 0-5 score to 0-100.
func toPercent(score float64) float64 {
	return ScaleScore(score, MinScore, MaxScore, MinScaled, MaxScaled)
}

// round2 rounds v to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
