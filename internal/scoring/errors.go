package scoring

import (
	"github.com/rotisserie/eris"
)

// Sentinel errors for the scoring error taxonomy. Callers classify with
// IsNotFound and IsInvalidWeights; both survive eris wrapping.
var (
	// ErrNotFound is returned when a referenced assessment, template,
	// section or answer does not exist.
	ErrNotFound = eris.New("scoring: not found")

	// ErrInvalidWeights is returned when sibling weights do not sum to 1.0.
	ErrInvalidWeights = eris.New("scoring: invalid weights")
)

// NotFound wraps ErrNotFound with the missing entity kind and ID.
func NotFound(kind, id string) error {
	return eris.Wrapf(ErrNotFound, "%s %q", kind, id)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

// IsInvalidWeights reports whether err is (or wraps) ErrInvalidWeights.
func IsInvalidWeights(err error) bool {
	return eris.Is(err, ErrInvalidWeights)
}
