package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleBundleYAML has one template with two sections and one assessment.
// Expected overall score: governance 0.5*(4*1.0)+0.5*(3*0.6) = 2.9 -> 58,
// vendors 1.0*(2*0.8) = 1.6 -> 32; 0.6*58 + 0.4*32 = 47.6 (High).
const sampleBundleYAML = `
templates:
  - id: soc2
    name: SOC 2 Readiness
    sections:
      - id: governance
        name: Governance
        weight: 0.6
        questions:
          - id: gov-policy
            text: Is there a written security policy?
            weight: 0.5
            foundational: true
          - id: gov-review
            text: Is the policy reviewed annually?
            weight: 0.5
      - id: vendors
        name: Vendor Management
        weight: 0.4
        questions:
          - id: ven-inventory
            text: Is there a vendor inventory?
            weight: 1.0
assessments:
  - id: acme-2026
    template_id: soc2
    organization_id: acme
    answers:
      - id: ans-policy
        question_id: gov-policy
        raw_quality_score: 4
        documents:
          - id: doc-policy
            name: policy.pdf
            evidence_tier: TIER_2
          - id: doc-email
            name: approval.eml
            evidence_tier: TIER_0
      - id: ans-review
        question_id: gov-review
        raw_quality_score: 3
      - id: ans-inventory
        question_id: ven-inventory
        raw_quality_score: 2
        documents:
          - id: doc-sheet
            name: vendors.xlsx
            evidence_tier: tier1
`

func sampleBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := LoadBundle(strings.NewReader(sampleBundleYAML))
	require.NoError(t, err)
	return b
}
