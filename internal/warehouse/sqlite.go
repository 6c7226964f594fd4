package warehouse

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/roadprox-cli/internal/model"
)

// SQLite is a Warehouse backed by a local SQLite file, for local runs.
type SQLite struct {
	db     *sql.DB
	tables Tables
}

// NewSQLite opens the SQLite database at dsn.
func NewSQLite(dsn string, tables Tables) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: exec pragma")
	}
	return &SQLite{db: db, tables: tables}, nil
}

// FetchOccurrences implements Reader.
func (s *SQLite) FetchOccurrences(ctx context.Context) ([]model.Occurrence, error) {
	q, err := BuildFetchQuery(DialectANSI, s.tables)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch occurrences")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Occurrence
	for rows.Next() {
		var o model.Occurrence
		var species sql.NullString
		if err := rows.Scan(&o.ID, &o.Latitude, &o.Longitude, &species); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan occurrence")
		}
		o.Species = species.String
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate occurrences")
	}
	return out, nil
}

// InsertEnriched implements Writer with one statement per row.
func (s *SQLite) InsertEnriched(ctx context.Context, rows []model.Enriched) (*InsertReport, error) {
	if s.tables.Dest == "" {
		return nil, eris.New("sqlite: destination table is required")
	}
	stmt := strings.NewReplacer("$1", "?", "$2", "?", "$3", "?", "$4", "?", "$5", "?").
		Replace(buildInsert(s.tables.Dest))

	report := &InsertReport{}
	for i, e := range rows {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "sqlite: insert enriched")
		}
		if _, err := s.db.ExecContext(ctx, stmt, rowValues(e)...); err != nil {
			zap.L().Debug("sqlite: row rejected", zap.Int64("gbifid", e.ID), zap.Error(err))
			report.reject(i, e.ID, err.Error())
			continue
		}
		report.Inserted++
	}
	return report, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
