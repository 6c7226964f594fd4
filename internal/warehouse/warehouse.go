// Package warehouse reads occurrence records from, and writes enriched
// records back to, the data warehouse.
package warehouse

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roadprox-cli/internal/db"
	"github.com/sells-group/roadprox-cli/internal/model"
)

// DefaultFetchLimit is the fetch size when none is configured.
const DefaultFetchLimit = 1000

// MaxFetchLimit caps the rows returned by a single fetch.
const MaxFetchLimit = 1000

// Reader fetches occurrence records.
type Reader interface {
	FetchOccurrences(ctx context.Context) ([]model.Occurrence, error)
}

// Writer inserts enriched records. Row-level failures are reported in the
// InsertReport; only request-level failures are returned as errors.
type Writer interface {
	InsertEnriched(ctx context.Context, rows []model.Enriched) (*InsertReport, error)
}

// Warehouse is a Reader and Writer sharing one client.
type Warehouse interface {
	Reader
	Writer
	Close() error
}

// RowError describes one rejected row.
type RowError struct {
	Index   int    `json:"index"`
	ID      int64  `json:"gbifid"`
	Message string `json:"message"`
}

// InsertReport summarises an insert request.
type InsertReport struct {
	Inserted  int        `json:"inserted"`
	RowErrors []RowError `json:"row_errors,omitempty"`
}

// Failed returns the number of rejected rows.
func (r *InsertReport) Failed() int {
	if r == nil {
		return 0
	}
	return len(r.RowErrors)
}

func (r *InsertReport) reject(i int, id int64, msg string) {
	r.RowErrors = append(r.RowErrors, RowError{Index: i, ID: id, Message: msg})
}

// Tables names the source and destination tables and the fetch bounds.
type Tables struct {
	Source          string
	Dest            string
	Limit           int
	UnprocessedOnly bool
	ProcessedColumn string
}

// Dialect selects identifier quoting for generated SQL.
type Dialect int

const (
	// DialectANSI quotes identifiers with double quotes (Postgres, SQLite).
	DialectANSI Dialect = iota
	// DialectBigQuery quotes table paths with backticks.
	DialectBigQuery
)

// Columns written to the destination table, in FormatRow order.
var Columns = []string{"gbifid", "latitude", "longitude", "species", "distance"}

// BuildFetchQuery returns the single SELECT run by FetchOccurrences. The
// limit is clamped to MaxFetchLimit.
func BuildFetchQuery(d Dialect, t Tables) (string, error) {
	if t.Source == "" {
		return "", eris.New("warehouse: source table is required")
	}
	limit := t.Limit
	if limit <= 0 {
		limit = DefaultFetchLimit
	}
	if limit > MaxFetchLimit {
		limit = MaxFetchLimit
	}

	var b strings.Builder
	b.WriteString("SELECT gbifid, decimallatitude, decimallongitude, species FROM ")
	b.WriteString(quoteTable(d, t.Source))
	if t.UnprocessedOnly {
		if t.ProcessedColumn == "" {
			return "", eris.New("warehouse: processed column is required for unprocessed fetch")
		}
		b.WriteString(" WHERE ")
		b.WriteString(quoteColumn(d, t.ProcessedColumn))
		b.WriteString(" = FALSE")
	}
	b.WriteString(" LIMIT ")
	b.WriteString(strconv.Itoa(limit))
	return b.String(), nil
}

// buildInsert returns a single-row INSERT with $n placeholders.
func buildInsert(table string) string {
	return "INSERT INTO " + quoteTable(DialectANSI, table) +
		" (" + db.QuoteAndJoin(Columns) + ") VALUES (" + db.Placeholders(len(Columns)) + ")"
}

func quoteTable(d Dialect, table string) string {
	if d == DialectBigQuery {
		return "`" + strings.ReplaceAll(table, "`", "") + "`"
	}
	return db.SanitizeTable(table)
}

func quoteColumn(d Dialect, col string) string {
	if d == DialectBigQuery {
		return "`" + strings.ReplaceAll(col, "`", "") + "`"
	}
	return db.QuoteAndJoin([]string{col})
}

// FormatRow maps an enriched record to the destination row. A missing
// distance is written as NULL.
func FormatRow(e model.Enriched) map[string]any {
	var distance any
	if e.Distance != nil {
		distance = *e.Distance
	}
	return map[string]any{
		"gbifid":    e.ID,
		"latitude":  e.Latitude,
		"longitude": e.Longitude,
		"species":   e.Species,
		"distance":  distance,
	}
}

// rowValues returns FormatRow's values in Columns order.
func rowValues(e model.Enriched) []any {
	row := FormatRow(e)
	vals := make([]any, len(Columns))
	for i, c := range Columns {
		vals[i] = row[c]
	}
	return vals
}
