package scoring

import (
	"math"

	"github.com/rotisserie/eris"
)

// DefaultWeightTolerance is the allowed deviation of a sibling weight sum
// from 1.0.
const DefaultWeightTolerance = 1e-4

// SumWeights returns the sum of weights without validating it.
func SumWeights(weights []float64) float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum
}

// ValidateWeights checks that every weight is a finite non-negative number
// and that the weights sum to 1.0 within tolerance. The returned error wraps
// ErrInvalidWeights and names label. A non-positive tolerance falls back to
// DefaultWeightTolerance.
func ValidateWeights(weights []float64, label string, tolerance float64) error {
	if tolerance <= 0 {
		tolerance = DefaultWeightTolerance
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return eris.Wrapf(ErrInvalidWeights, "%s: weight %d is %g, want a finite value >= 0", label, i, w)
		}
	}
	sum := SumWeights(weights)
	if math.IsNaN(sum) || math.IsInf(sum, 0) || math.Abs(sum-1.0) > tolerance {
		return eris.Wrapf(ErrInvalidWeights, "%s: weights sum to %.6f, want 1.0 (±%g)", label, sum, tolerance)
	}
	return nil
}
