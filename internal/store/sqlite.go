package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/compliance-cli/internal/db"
	"github.com/sells-group/compliance-cli/internal/model"
	"github.com/sells-group/compliance-cli/internal/resilience"
	"github.com/sells-group/compliance-cli/internal/scoring"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	retry resilience.RetryConfig
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn, retry: resilience.DefaultRetryConfig()}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS templates (
	id   TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sections (
	id          TEXT PRIMARY KEY,
	template_id TEXT NOT NULL REFERENCES templates(id),
	name        TEXT NOT NULL DEFAULT '',
	weight      REAL NOT NULL,
	position    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS questions (
	id              TEXT PRIMARY KEY,
	section_id      TEXT NOT NULL REFERENCES sections(id),
	text            TEXT NOT NULL DEFAULT '',
	weight          REAL NOT NULL,
	is_foundational BOOLEAN NOT NULL DEFAULT 0,
	position        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS assessments (
	id              TEXT PRIMARY KEY,
	template_id     TEXT NOT NULL REFERENCES templates(id),
	organization_id TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS answers (
	id                TEXT PRIMARY KEY,
	assessment_id     TEXT NOT NULL REFERENCES assessments(id),
	question_id       TEXT NOT NULL REFERENCES questions(id),
	raw_quality_score REAL,
	evidence_tier     TEXT,
	tier_multiplier   REAL,
	final_score       REAL,
	scored_at         DATETIME,
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
	overall_score REAL NOT NULL,
	risk_band     TEXT NOT NULL,
	detail        TEXT NOT NULL,
	calculated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sections_template ON sections(template_id, position);
CREATE INDEX IF NOT EXISTS idx_questions_section ON questions(section_id, position);
CREATE INDEX IF NOT EXISTS idx_answers_assessment ON answers(assessment_id);
CREATE INDEX IF NOT EXISTS idx_evidence_documents_answer ON evidence_documents(answer_id);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	var a model.Assessment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, template_id, organization_id, created_at FROM assessments WHERE id = ?`,
		id,
	).Scan(&a.ID, &a.TemplateID, &a.OrganizationID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, scoring.NotFound("assessment", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get assessment %s", id)
	}
	return &a, nil
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	var t model.Template
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM templates WHERE id = ?`,
		id,
	).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, scoring.NotFound("template", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get template %s", id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, template_id, name, weight, position FROM sections
		 WHERE template_id = ? ORDER BY position, id`,
		id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list sections of template %s", id)
	}
	defer rows.Close() //nolint:errcheck

	var sections []model.Section
	for rows.Next() {
		sec, err := scanSectionRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan section")
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list sections iterate")
	}

	questions, err := s.questions(ctx,
		`SELECT q.id, q.section_id, q.text, q.weight, q.is_foundational, q.position
		 FROM questions q JOIN sections s ON s.id = q.section_id
		 WHERE s.template_id = ? ORDER BY q.position, q.id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	t.Sections = attachQuestions(sections, questions)
	return &t, nil
}

func (s *SQLiteStore) GetSection(ctx context.Context, id string) (*model.Section, error) {
	sec, err := scanSectionRow(s.db.QueryRowContext(ctx,
		`SELECT id, template_id, name, weight, position FROM sections WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, scoring.NotFound("section", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get section %s", id)
	}

	questions, err := s.questions(ctx,
		`SELECT id, section_id, text, weight, is_foundational, position
		 FROM questions WHERE section_id = ? ORDER BY position, id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	sec.Questions = questions
	return &sec, nil
}

func (s *SQLiteStore) questions(ctx context.Context, query string, args ...any) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list questions")
	}
	defer rows.Close() //nolint:errcheck

	var qs []model.Question
	for rows.Next() {
		q, err := scanQuestionRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan question")
		}
		qs = append(qs, q)
	}
	return qs, eris.Wrap(rows.Err(), "sqlite: list questions iterate")
}

func (s *SQLiteStore) GetAnswer(ctx context.Context, id string) (*model.Answer, error) {
	a, err := scanAnswerRow(s.db.QueryRowContext(ctx,
		`SELECT id, assessment_id, question_id, raw_quality_score IS NOT NULL, COALESCE(raw_quality_score, 0)
		 FROM answers WHERE id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, scoring.NotFound("answer", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get answer %s", id)
	}

	docs, err := s.documents(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	a.Documents = docs[id]
	return a, nil
}

func (s *SQLiteStore) ListAnswers(ctx context.Context, assessmentID string, questionIDs []string) (map[string]*model.Answer, error) {
	out := make(map[string]*model.Answer, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}

	args := make([]any, 0, len(questionIDs)+1)
	args = append(args, assessmentID)
	for _, id := range questionIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, assessment_id, question_id, raw_quality_score IS NOT NULL, COALESCE(raw_quality_score, 0)
		 FROM answers WHERE assessment_id = ? AND question_id IN (`+placeholders(len(questionIDs))+`)`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list answers of assessment %s", assessmentID)
	}
	defer rows.Close() //nolint:errcheck

	var answers []*model.Answer
	for rows.Next() {
		a, err := scanAnswerRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan answer")
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: list answers iterate")
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

func (s *SQLiteStore) documents(ctx context.Context, answerIDs []string) (map[string][]model.EvidenceDocument, error) {
	args := make([]any, len(answerIDs))
	for i, id := range answerIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, answer_id, name, COALESCE(evidence_tier, '')
		 FROM evidence_documents WHERE answer_id IN (`+placeholders(len(answerIDs))+`) ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list evidence documents")
	}
	defer rows.Close() //nolint:errcheck

	out := map[string][]model.EvidenceDocument{}
	for rows.Next() {
		d, answerID, err := scanDocumentRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evidence document")
		}
		out[answerID] = append(out[answerID], d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list evidence documents iterate")
}

func (s *SQLiteStore) SaveQuestionScores(ctx context.Context, scores []model.QuestionScore) error {
	if len(scores) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: save question scores: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, qs := range scores {
		res, err := tx.ExecContext(ctx,
			`UPDATE answers SET evidence_tier = ?, tier_multiplier = ?, final_score = ?, scored_at = ?
			 WHERE id = ?`,
			qs.EvidenceTier.String(), qs.TierMultiplier, qs.FinalScore, now, qs.AnswerID,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: save question score for answer %s", qs.AnswerID)
		}
		if err := checkRowsAffected(res, "answer", qs.AnswerID); err != nil {
			return err
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: save question scores: commit tx")
}

func (s *SQLiteStore) SaveOverallScore(ctx context.Context, score *model.OverallScore) error {
	detail, err := json.Marshal(score.SectionScores)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal section scores")
	}
	stmt, err := overallScoreUpsert.SQL(db.Question)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, stmt,
		score.AssessmentID, score.OverallScore, string(score.RiskBand), string(detail), score.CalculatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save overall score for assessment %s", score.AssessmentID)
}

func (s *SQLiteStore) GetOverallScore(ctx context.Context, assessmentID string) (*model.OverallScore, error) {
	var o model.OverallScore
	var band, detail string
	err := s.db.QueryRowContext(ctx,
		`SELECT assessment_id, overall_score, risk_band, detail, calculated_at
		 FROM assessment_scores WHERE assessment_id = ?`,
		assessmentID,
	).Scan(&o.AssessmentID, &o.OverallScore, &band, &detail, &o.CalculatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, scoring.NotFound("assessment score", assessmentID)
		}
		return nil, eris.Wrapf(err, "sqlite: get overall score %s", assessmentID)
	}
	o.RiskBand = model.RiskBand(band)
	if err := json.Unmarshal([]byte(detail), &o.SectionScores); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal section scores")
	}
	return &o, nil
}

// Import retries the whole transaction while the database is locked by
// another writer.
func (s *SQLiteStore) Import(ctx context.Context, b *Bundle) (*ImportResult, error) {
	retry := s.retry
	retry.OnRetry = resilience.RetryLogger("sqlite", "import")
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*ImportResult, error) {
		return s.importTx(ctx, b)
	})
}

func (s *SQLiteStore) importTx(ctx context.Context, b *Bundle) (*ImportResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: import: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	res := &ImportResult{}
	for _, t := range b.importTables() {
		if len(t.rows) == 0 {
			continue
		}
		stmt, err := t.cfg.SQL(db.Question)
		if err != nil {
			return nil, err
		}
		for _, row := range t.rows {
			if _, err := tx.ExecContext(ctx, stmt, row...); err != nil {
				return nil, eris.Wrapf(err, "sqlite: import %s", t.cfg.Table)
			}
		}
		res.record(t.cfg.Table, len(t.rows))
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: import: commit tx")
	}
	return res, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return scoring.NotFound(entity, id)
	}
	return nil
}

// placeholders returns n comma-separated "?" bind parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
