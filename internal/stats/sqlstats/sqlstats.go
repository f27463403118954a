// Package sqlstats computes field summaries from a table in a SQL database.
// Queries use SQLite's typeof() to tell numeric columns from text.
package sqlstats

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/matthewbaird/vegalite/internal/stats"
)

// Store reads field summaries from a database.
type Store struct {
	db *sql.DB
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database at dsn through the named database/sql
// driver and summarizes every column of table.
func Open(ctx context.Context, driver, dsn, table string) (stats.Static, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening stats database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	return NewStore(db).Load(ctx, table)
}

// Load summarizes fields of table. With no fields, every column of the
// table is summarized.
func (s *Store) Load(ctx context.Context, table string, fields ...string) (stats.Static, error) {
	if len(fields) == 0 {
		cols, err := s.columns(ctx, table)
		if err != nil {
			return nil, err
		}
		fields = cols
	}

	out := make(stats.Static, len(fields))
	for _, field := range fields {
		f, err := s.field(ctx, table, field)
		if err != nil {
			return nil, err
		}
		out[field] = f
	}
	return out, nil
}

func (s *Store) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	defer rows.Close()
	return rows.Columns()
}

func (s *Store) field(ctx context.Context, table, field string) (stats.Field, error) {
	col, tab := quote(field), quote(table)

	var f stats.Field
	var present, nonNumeric int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*), COUNT(%[1]s), COUNT(DISTINCT %[1]s),
			COALESCE(SUM(CASE WHEN %[1]s IS NOT NULL AND typeof(%[1]s) NOT IN ('integer', 'real') THEN 1 ELSE 0 END), 0)
		FROM %[2]s`, col, tab),
	).Scan(&f.Count, &present, &f.Distinct, &nonNumeric)
	if err != nil {
		return stats.Field{}, fmt.Errorf("summarizing %s.%s: %w", table, field, err)
	}
	f.Missing = f.Count - present
	f.Numeric = present > 0 && nonNumeric == 0

	if present > nonNumeric {
		var min, max sql.NullFloat64
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT MIN(%[1]s), MAX(%[1]s) FROM %[2]s WHERE typeof(%[1]s) IN ('integer', 'real')`, col, tab),
		).Scan(&min, &max)
		if err != nil {
			return stats.Field{}, fmt.Errorf("reading extent of %s.%s: %w", table, field, err)
		}
		f.Min, f.Max = min.Float64, max.Float64
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s IS NOT NULL ORDER BY %[1]s LIMIT %[3]d`,
		col, tab, stats.SampleSize))
	if err != nil {
		return stats.Field{}, fmt.Errorf("sampling %s.%s: %w", table, field, err)
	}
	defer rows.Close()
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return stats.Field{}, fmt.Errorf("scanning sample of %s.%s: %w", table, field, err)
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		f.Sample = append(f.Sample, v)
	}
	return f, rows.Err()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
