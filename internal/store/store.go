// Package store persists templates, assessments, answers and computed
// scores, and serves them to the scoring engine.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-cli/internal/config"
	"github.com/sells-group/compliance-cli/internal/db"
	"github.com/sells-group/compliance-cli/internal/model"
	"github.com/sells-group/compliance-cli/internal/resilience"
	"github.com/sells-group/compliance-cli/internal/scoring"
)

// Store defines the persistence interface for compliance scoring.
type Store interface {
	scoring.Lookup
	scoring.Sink

	// GetOverallScore returns the last persisted overall score of an
	// assessment.
	GetOverallScore(ctx context.Context, assessmentID string) (*model.OverallScore, error)

	// Import upserts every entity of a fixture bundle in one transaction.
	// Rows absent from the bundle are kept, including evidence documents
	// dropped from an answer, which still count toward its best tier.
	Import(ctx context.Context, b *Bundle) (*ImportResult, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// ImportResult counts the rows written by Import.
type ImportResult struct {
	Templates   int `json:"templates"`
	Sections    int `json:"sections"`
	Questions   int `json:"questions"`
	Assessments int `json:"assessments"`
	Answers     int `json:"answers"`
	Documents   int `json:"documents"`
}

// Open connects to the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	retry := resilience.FromStoreConfig(cfg.RetryAttempts, cfg.RetryBackoff)
	switch cfg.Driver {
	case "sqlite":
		s, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.retry = retry
		return s, nil
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
			Retry:    retry,
		})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// overallScoreUpsert caches one computed overall score per assessment.
var overallScoreUpsert = db.UpsertConfig{
	Table:        "assessment_scores",
	Columns:      []string{"assessment_id", "overall_score", "risk_band", "detail", "calculated_at"},
	ConflictKeys: []string{"assessment_id"},
}

// parseTier decodes a stored evidence tier. An empty value means the
// document has no tier.
func parseTier(s string) (*model.EvidenceTier, error) {
	if s == "" {
		return nil, nil
	}
	t, err := model.ParseEvidenceTier(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// tierValue encodes an optional evidence tier for storage.
func tierValue(t *model.EvidenceTier) any {
	if t == nil {
		return nil
	}
	return t.String()
}
