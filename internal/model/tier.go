package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// EvidenceTier classifies how strong the documentation behind an answer is.
// Tiers are ordered; Tier2 is the strongest.
type EvidenceTier int

// Evidence tiers, weakest first.
const (
	Tier0 EvidenceTier = iota
	Tier1
	Tier2
)

var tierNames = map[EvidenceTier]string{
	Tier0: "TIER_0",
	Tier1: "TIER_1",
	Tier2: "TIER_2",
}

// String returns the canonical tier name (e.g. "TIER_1").
func (t EvidenceTier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "TIER_UNKNOWN"
}

// Valid reports whether t is one of the defined tiers.
func (t EvidenceTier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

// ParseEvidenceTier parses a tier name. Matching is case-insensitive and
// accepts "TIER_1", "tier1" and "1".
func ParseEvidenceTier(s string) (EvidenceTier, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.TrimPrefix(norm, "TIER")
	norm = strings.TrimPrefix(norm, "_")
	switch norm {
	case "0":
		return Tier0, nil
	case "1":
		return Tier1, nil
	case "2":
		return Tier2, nil
	}
	return Tier0, eris.Errorf("model: unknown evidence tier %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t EvidenceTier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, eris.Errorf("model: invalid evidence tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *EvidenceTier) UnmarshalText(b []byte) error {
	v, err := ParseEvidenceTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
