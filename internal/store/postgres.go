package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/compliance-cli/internal/db"
	"github.com/sells-group/compliance-cli/internal/model"
	"github.com/sells-group/compliance-cli/internal/resilience"
	"github.com/sells-group/compliance-cli/internal/scoring"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool  db.Pool
	retry resilience.RetryConfig
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
	// Retry applies to the startup ping and imports. Zero uses defaults.
	Retry resilience.RetryConfig `yaml:"-" mapstructure:"-"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	retry := resilience.DefaultRetryConfig()
	if poolCfg != nil {
		if poolCfg.Retry.MaxAttempts > 0 {
			retry = poolCfg.Retry
		}
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	ping := retry
	ping.OnRetry = resilience.RetryLogger("postgres", "ping")
	if err := resilience.Do(ctx, ping, pool.Ping); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, retry: retry}, nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, retry: resilience.DefaultRetryConfig()}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS templates (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sections (
	id          TEXT PRIMARY KEY,
	template_id TEXT NOT NULL REFERENCES templates(id),
	name        TEXT NOT NULL DEFAULT '',
	weight      DOUBLE PRECISION NOT NULL,
	position    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS questions (
	id              TEXT PRIMARY KEY,
	section_id      TEXT NOT NULL REFERENCES sections(id),
	text            TEXT NOT NULL DEFAULT '',
	weight          DOUBLE PRECISION NOT NULL,
	is_foundational BOOLEAN NOT NULL DEFAULT false,
	position        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS assessments (
	id              TEXT PRIMARY KEY,
	template_id     TEXT NOT NULL REFERENCES templates(id),
	organization_id TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS answers (
	id                TEXT PRIMARY KEY,
	assessment_id     TEXT NOT NULL REFERENCES assessments(id),
	question_id       TEXT NOT NULL REFERENCES questions(id),
	raw_quality_score DOUBLE PRECISION,
	evidence_tier     TEXT,
	tier_multiplier   DOUBLE PRECISION,
	final_score       DOUBLE PRECISION,
	scored_at         TIMESTAMPTZ,
	UNIQUE (assessment_id, question_id)
);

CREATE TABLE IF NOT EXISTS evidence_documents (
	id            TEXT PRIMARY KEY,
	answer_id     TEXT NOT NULL REFERENCES answers(id),
	name          TEXT NOT NULL DEFAULT '',
	evidence_tier TEXT
);

CREATE TABLE IF NOT EXISTS assessment_scores (
	assessment_id TEXT PRIMARY KEY REFERENCES assessments(id),
	overall_score DOUBLE PRECISION NOT NULL,
	risk_band     TEXT NOT NULL,
	detail        JSONB NOT NULL,
	calculated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sections_template ON sections(template_id, position);
CREATE INDEX IF NOT EXISTS idx_questions_section ON questions(section_id, position);
CREATE INDEX IF NOT EXISTS idx_answers_assessment ON answers(assessment_id);
CREATE INDEX IF NOT EXISTS idx_evidence_documents_answer ON evidence_documents(answer_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	var a model.Assessment
	err := s.pool.QueryRow(ctx,
		`SELECT id, template_id, organization_id, created_at FROM assessments WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.TemplateID, &a.OrganizationID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scoring.NotFound("assessment", id)
		}
		return nil, eris.Wrapf(err, "postgres: get assessment %s", id)
	}
	return &a, nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	var t model.Template
	err := s.pool.QueryRow(ctx,
		`SELECT id, name FROM templates WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scoring.NotFound("template", id)
		}
		return nil, eris.Wrapf(err, "postgres: get template %s", id)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, template_id, name, weight, position FROM sections
		 WHERE template_id = $1 ORDER BY position, id`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list sections of template %s", id)
	}
	sections, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Section, error) {
		return scanSectionRow(row)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: scan sections of template %s", id)
	}

	questions, err := s.questions(ctx,
		`SELECT q.id, q.section_id, q.text, q.weight, q.is_foundational, q.position
		 FROM questions q JOIN sections s ON s.id = q.section_id
		 WHERE s.template_id = $1 ORDER BY q.position, q.id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	t.Sections = attachQuestions(sections, questions)
	return &t, nil
}

func (s *PostgresStore) GetSection(ctx context.Context, id string) (*model.Section, error) {
	sec, err := scanSectionRow(s.pool.QueryRow(ctx,
		`SELECT id, template_id, name, weight, position FROM sections WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scoring.NotFound("section", id)
		}
		return nil, eris.Wrapf(err, "postgres: get section %s", id)
	}

	questions, err := s.questions(ctx,
		`SELECT id, section_id, text, weight, is_foundational, position
		 FROM questions WHERE section_id = $1 ORDER BY position, id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	sec.Questions = questions
	return &sec, nil
}

func (s *PostgresStore) questions(ctx context.Context, query string, args ...any) ([]model.Question, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list questions")
	}
	qs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Question, error) {
		return scanQuestionRow(row)
	})
	return qs, eris.Wrap(err, "postgres: scan questions")
}

func (s *PostgresStore) GetAnswer(ctx context.Context, id string) (*model.Answer, error) {
	a, err := scanAnswerRow(s.pool.QueryRow(ctx,
		`SELECT id, assessment_id, question_id, raw_quality_score IS NOT NULL, COALESCE(raw_quality_score, 0)
		 FROM answers WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scoring.NotFound("answer", id)
		}
		return nil, eris.Wrapf(err, "postgres: get answer %s", id)
	}

	docs, err := s.documents(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	a.Documents = docs[id]
	return a, nil
}

func (s *PostgresStore) ListAnswers(ctx context.Context, assessmentID string, questionIDs []string) (map[string]*model.Answer, error) {
	out := make(map[string]*model.Answer, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, assessment_id, question_id, raw_quality_score IS NOT NULL, COALESCE(raw_quality_score, 0)
		 FROM answers WHERE assessment_id = $1 AND question_id = ANY($2)`,
		assessmentID, questionIDs,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list answers of assessment %s", assessmentID)
	}
	answers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Answer, error) {
		return scanAnswerRow(row)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: scan answers of assessment %s", assessmentID)
	}
	if len(answers) == 0 {
		return out, nil
	}

	ids := make([]string, len(answers))
	for i, a := range answers {
		ids[i] = a.ID
	}
	docs, err := s.documents(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		a.Documents = docs[a.ID]
		out[a.QuestionID] = a
	}
	return out, nil
}

// documents returns the evidence documents of the given answers, keyed by
// answer ID.
func (s *PostgresStore) documents(ctx context.Context, answerIDs []string) (map[string][]model.EvidenceDocument, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, answer_id, name, COALESCE(evidence_tier, '')
		 FROM evidence_documents WHERE answer_id = ANY($1) ORDER BY id`,
		answerIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list evidence documents")
	}
	defer rows.Close()

	out := map[string][]model.EvidenceDocument{}
	for rows.Next() {
		d, answerID, err := scanDocumentRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan evidence document")
		}
		out[answerID] = append(out[answerID], d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list evidence documents iterate")
}

func (s *PostgresStore) SaveQuestionScores(ctx context.Context, scores []model.QuestionScore) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: save question scores: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	for _, qs := range scores {
		tag, err := tx.Exec(ctx,
			`UPDATE answers SET evidence_tier = $1, tier_multiplier = $2, final_score = $3, scored_at = $4
			 WHERE id = $5`,
			qs.EvidenceTier.String(), qs.TierMultiplier, qs.FinalScore, now, qs.AnswerID,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: save question score for answer %s", qs.AnswerID)
		}
		if tag.RowsAffected() == 0 {
			return scoring.NotFound("answer", qs.AnswerID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: save question scores: commit tx")
}

func (s *PostgresStore) SaveOverallScore(ctx context.Context, score *model.OverallScore) error {
	detail, err := json.Marshal(score.SectionScores)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal section scores")
	}
	_, err = db.BulkUpsert(ctx, s.pool, overallScoreUpsert, [][]any{{
		score.AssessmentID, score.OverallScore, string(score.RiskBand), detail, score.CalculatedAt,
	}})
	return eris.Wrapf(err, "postgres: save overall score for assessment %s", score.AssessmentID)
}

func (s *PostgresStore) GetOverallScore(ctx context.Context, assessmentID string) (*model.OverallScore, error) {
	var o model.OverallScore
	var band string
	var detail []byte
	err := s.pool.QueryRow(ctx,
		`SELECT assessment_id, overall_score, risk_band, detail, calculated_at
		 FROM assessment_scores WHERE assessment_id = $1`,
		assessmentID,
	).Scan(&o.AssessmentID, &o.OverallScore, &band, &detail, &o.CalculatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scoring.NotFound("assessment score", assessmentID)
		}
		return nil, eris.Wrapf(err, "postgres: get overall score %s", assessmentID)
	}
	o.RiskBand = model.RiskBand(band)
	if err := json.Unmarshal(detail, &o.SectionScores); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal section scores")
	}
	return &o, nil
}

// Import retries the whole transaction on serialization failures and
// dropped connections.
func (s *PostgresStore) Import(ctx context.Context, b *Bundle) (*ImportResult, error) {
	retry := s.retry
	retry.OnRetry = resilience.RetryLogger("postgres", "import")
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*ImportResult, error) {
		return s.importTx(ctx, b)
	})
}

func (s *PostgresStore) importTx(ctx context.Context, b *Bundle) (*ImportResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: import: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	res := &ImportResult{}
	for _, t := range b.importTables() {
		if _, err := db.BulkUpsert(ctx, tx, t.cfg, t.rows); err != nil {
			return nil, eris.Wrapf(err, "postgres: import %s", t.cfg.Table)
		}
		res.record(t.cfg.Table, len(t.rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: import: commit tx")
	}
	return res, nil
}
