// Package db provides shared pgx helpers for the Postgres warehouse.
package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of *pgxpool.Pool the warehouse needs.
// pgxmock.PgxPoolIface satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// RowError is one failed statement from ExecEach.
type RowError struct {
	Index int
	Err   error
}

// ExecEach runs stmt once per argument row. A failing row is recorded and
// the loop continues; only a done ctx stops it early.
func ExecEach(ctx context.Context, pool Pool, stmt string, rows [][]any) (int, []RowError, error) {
	var ok int
	var failed []RowError
	for i, args := range rows {
		if err := ctx.Err(); err != nil {
			return ok, failed, eris.Wrapf(err, "db: exec row %d", i)
		}
		if _, err := pool.Exec(ctx, stmt, args...); err != nil {
			failed = append(failed, RowError{Index: i, Err: err})
			continue
		}
		ok++
	}
	return ok, failed, nil
}

// SanitizeTable quotes table names, including schema-qualified ones like
// "gbif.occurrences".
func SanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// QuoteAndJoin quotes each column name and joins with commas.
func QuoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}

// Placeholders returns "$1, $2, ..., $n".
func Placeholders(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}
