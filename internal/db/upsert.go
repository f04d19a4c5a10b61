package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig defines the parameters for an INSERT ... ON CONFLICT statement.
type UpsertConfig struct {
	Table        string   // target table (e.g., "answers")
	Columns      []string // all columns being inserted
	ConflictKeys []string // columns forming the unique constraint
	UpdateCols   []string // columns to update on conflict; nil = all non-conflict columns
}

// Placeholder renders the bind parameter for the 1-based column index i.
type Placeholder func(i int) string

// Dollar renders Postgres-style placeholders ($1, $2, ...).
func Dollar(i int) string { return fmt.Sprintf("$%d", i) }

// Question renders SQLite-style placeholders (?).
func Question(int) string { return "?" }

// SQL builds a single-row upsert statement. When every column is a conflict
// key the statement degrades to DO NOTHING.
func (c UpsertConfig) SQL(ph Placeholder) (string, error) {
	if c.Table == "" {
		return "", eris.New("db: upsert: no table specified")
	}
	if len(c.Columns) == 0 {
		return "", eris.New("db: upsert: no columns specified")
	}
	if len(c.ConflictKeys) == 0 {
		return "", eris.New("db: upsert: no conflict keys specified")
	}
	if ph == nil {
		ph = Dollar
	}

	params := make([]string, len(c.Columns))
	for i := range c.Columns {
		params[i] = ph(i + 1)
	}

	var setClauses []string
	for _, col := range c.updateCols() {
		quoted := pgx.Identifier{col}.Sanitize()
		setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", quoted, quoted))
	}

	action := "DO NOTHING"
	if len(setClauses) > 0 {
		action = "DO UPDATE SET " + strings.Join(setClauses, ", ")
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		sanitizeTable(c.Table),
		quoteAndJoin(c.Columns),
		strings.Join(params, ", "),
		quoteAndJoin(c.ConflictKeys),
		action,
	), nil
}

func (c UpsertConfig) updateCols() []string {
	if c.UpdateCols != nil {
		return c.UpdateCols
	}
	conflictSet := make(map[string]bool, len(c.ConflictKeys))
	for _, k := range c.ConflictKeys {
		conflictSet[k] = true
	}
	var cols []string
	for _, col := range c.Columns {
		if !conflictSet[col] {
			cols = append(cols, col)
		}
	}
	return cols
}

// BulkUpsert executes the upsert once per row. Pass a pgx.Tx to make the
// batch atomic.
func BulkUpsert(ctx context.Context, ex Execer, cfg UpsertConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	stmt, err := cfg.SQL(Dollar)
	if err != nil {
		return 0, err
	}

	var total int64
	for i, row := range rows {
		if len(row) != len(cfg.Columns) {
			return total, eris.Errorf("db: upsert: row %d has %d values, want %d", i, len(row), len(cfg.Columns))
		}
		tag, err := ex.Exec(ctx, stmt, row...)
		if err != nil {
			return total, eris.Wrapf(err, "db: upsert: INSERT ON CONFLICT for %s", cfg.Table)
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

// sanitizeTable handles schema-qualified table names like "public.answers".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
