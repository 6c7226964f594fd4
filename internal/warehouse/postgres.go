package warehouse

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadprox-cli/internal/db"
	"github.com/sells-group/roadprox-cli/internal/model"
)

// Postgres is a Warehouse backed by a pgx connection pool.
type Postgres struct {
	pool   db.Pool
	tables Tables
}

// NewPostgres connects to the database at connString.
func NewPostgres(ctx context.Context, connString string, tables Tables) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return NewPostgresWithPool(pool, tables), nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool, tables Tables) *Postgres {
	return &Postgres{pool: pool, tables: tables}
}

// FetchOccurrences implements Reader.
func (p *Postgres) FetchOccurrences(ctx context.Context) ([]model.Occurrence, error) {
	q, err := BuildFetchQuery(DialectANSI, p.tables)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: fetch occurrences")
	}
	defer rows.Close()

	var out []model.Occurrence
	for rows.Next() {
		var o model.Occurrence
		var species pgtype.Text
		if err := rows.Scan(&o.ID, &o.Latitude, &o.Longitude, &species); err != nil {
			return nil, eris.Wrap(err, "postgres: scan occurrence")
		}
		o.Species = species.String
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate occurrences")
	}
	return out, nil
}

// InsertEnriched implements Writer. Rows are inserted one statement at a
// time so a rejected row does not abort the rest.
func (p *Postgres) InsertEnriched(ctx context.Context, rows []model.Enriched) (*InsertReport, error) {
	if p.tables.Dest == "" {
		return nil, eris.New("postgres: destination table is required")
	}
	stmt := buildInsert(p.tables.Dest)

	args := make([][]any, len(rows))
	for i, e := range rows {
		args[i] = rowValues(e)
	}

	ok, failed, err := db.ExecEach(ctx, p.pool, stmt, args)
	report := &InsertReport{Inserted: ok}
	for _, f := range failed {
		zap.L().Debug("postgres: row rejected", zap.Int64("gbifid", rows[f.Index].ID), zap.Error(f.Err))
		report.reject(f.Index, rows[f.Index].ID, f.Err.Error())
	}
	if err != nil {
		return report, eris.Wrap(err, "postgres: insert enriched")
	}
	return report, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
