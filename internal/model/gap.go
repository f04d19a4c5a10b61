package model

// Severity grades how far below par a gap's score is.
type Severity string

// Gap severities, worst first.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// severityRank maps severities to sort ranks. Lower rank is more severe.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the sort rank of s; unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Priority is the remediation time bucket of a gap.
type Priority string

// Priority buckets, most urgent first.
const (
	PriorityImmediate  Priority = "IMMEDIATE"
	PriorityShortTerm  Priority = "SHORT_TERM"
	PriorityMediumTerm Priority = "MEDIUM_TERM"
	PriorityLongTerm   Priority = "LONG_TERM"
)

// Effort estimates the amount of work needed to close a gap.
type Effort string

// Effort sizes.
const (
	EffortSmall  Effort = "SMALL"
	EffortMedium Effort = "MEDIUM"
	EffortLarge  Effort = "LARGE"
)

// CostRange is a bucketed remediation cost estimate in USD.
type CostRange string

// Cost buckets, cheapest first.
const (
	CostUnder10K   CostRange = "UNDER_10K"
	Cost10KTo50K   CostRange = "RANGE_10K_50K"
	Cost50KTo100K  CostRange = "RANGE_50K_100K"
	Cost100KTo250K CostRange = "RANGE_100K_250K"
	CostOver250K   CostRange = "OVER_250K"
)

// GapClassification is the prioritization annotation attached to a gap.
type GapClassification struct {
	Severity      Severity  `json:"severity"`
	PriorityScore float64   `json:"priority_score"`
	Priority      Priority  `json:"priority"`
	Effort        Effort    `json:"effort"`
	Cost          CostRange `json:"cost"`
}

// Gap is a question whose score falls below the remediation threshold.
type Gap struct {
	AssessmentID   string  `json:"assessment_id"`
	SectionID      string  `json:"section_id"`
	QuestionID     string  `json:"question_id"`
	AnswerID       string  `json:"answer_id,omitempty"`
	Score          float64 `json:"score"`
	IsFoundational bool    `json:"is_foundational"`
	SectionWeight  float64 `json:"section_weight"`
	GapClassification
}
