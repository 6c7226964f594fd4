package warehouse

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/rotisserie/eris"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/sells-group/roadprox-cli/internal/model"
)

// BigQuery is a Warehouse backed by Google BigQuery.
type BigQuery struct {
	client  *bigquery.Client
	project string
	tables  Tables
}

// NewBigQuery creates a client authenticated with the service account JSON
// at credentialsFile. The file must exist before the client is created.
func NewBigQuery(ctx context.Context, project, credentialsFile string, tables Tables) (*BigQuery, error) {
	if err := CheckCredentials(credentialsFile); err != nil {
		return nil, err
	}
	if project == "" {
		project = bigquery.DetectProjectID
	}

	client, err := bigquery.NewClient(ctx, project, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, eris.Wrap(err, "bigquery: new client")
	}
	return &BigQuery{client: client, project: client.Project(), tables: tables}, nil
}

type bqOccurrence struct {
	GBIFID    int64               `bigquery:"gbifid"`
	Latitude  float64             `bigquery:"decimallatitude"`
	Longitude float64             `bigquery:"decimallongitude"`
	Species   bigquery.NullString `bigquery:"species"`
}

// FetchOccurrences implements Reader.
func (b *BigQuery) FetchOccurrences(ctx context.Context) ([]model.Occurrence, error) {
	q, err := BuildFetchQuery(DialectBigQuery, b.tables)
	if err != nil {
		return nil, err
	}

	it, err := b.client.Query(q).Read(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "bigquery: fetch occurrences")
	}

	var out []model.Occurrence
	for {
		var row bqOccurrence
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "bigquery: read occurrence")
		}
		out = append(out, model.Occurrence{
			ID:        row.GBIFID,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			Species:   row.Species.StringVal,
		})
	}
	return out, nil
}

// enrichedSaver adapts an enriched record to bigquery.ValueSaver.
type enrichedSaver struct {
	e model.Enriched
}

// Save implements bigquery.ValueSaver. An empty insert ID makes the client
// library generate one for best-effort deduplication.
func (s enrichedSaver) Save() (map[string]bigquery.Value, string, error) {
	row := FormatRow(s.e)
	out := make(map[string]bigquery.Value, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, "", nil
}

// InsertEnriched implements Writer using streaming inserts.
func (b *BigQuery) InsertEnriched(ctx context.Context, rows []model.Enriched) (*InsertReport, error) {
	if len(rows) == 0 {
		return &InsertReport{}, nil
	}
	project, dataset, table, err := parseTableID(b.tables.Dest, b.project)
	if err != nil {
		return nil, err
	}

	savers := make([]bigquery.ValueSaver, len(rows))
	for i, e := range rows {
		savers[i] = enrichedSaver{e: e}
	}

	inserter := b.client.DatasetInProject(project, dataset).Table(table).Inserter()
	return putReport(inserter.Put(ctx, savers), rows)
}

// putReport converts the result of Inserter.Put into an InsertReport. Row
// failures become RowErrors; anything else is a request failure.
func putReport(err error, rows []model.Enriched) (*InsertReport, error) {
	report := &InsertReport{Inserted: len(rows)}
	if err == nil {
		return report, nil
	}

	var multi bigquery.PutMultiError
	if !errors.As(err, &multi) {
		return nil, eris.Wrap(err, "bigquery: insert enriched")
	}
	for _, rowErr := range multi {
		var id int64
		if rowErr.RowIndex >= 0 && rowErr.RowIndex < len(rows) {
			id = rows[rowErr.RowIndex].ID
		}
		report.reject(rowErr.RowIndex, id, rowErr.Errors.Error())
	}
	report.Inserted = len(rows) - len(report.RowErrors)
	if report.Inserted < 0 {
		report.Inserted = 0
	}
	return report, nil
}

// parseTableID splits "project.dataset.table" or "dataset.table".
func parseTableID(id, defaultProject string) (project, dataset, table string, err error) {
	parts := strings.Split(strings.Trim(id, "`"), ".")
	for _, p := range parts {
		if p == "" {
			return "", "", "", eris.Errorf("bigquery: invalid table id %q", id)
		}
	}
	switch len(parts) {
	case 2:
		return defaultProject, parts[0], parts[1], nil
	case 3:
		return parts[0], parts[1], parts[2], nil
	default:
		return "", "", "", eris.Errorf("bigquery: invalid table id %q", id)
	}
}

// Close closes the client.
func (b *BigQuery) Close() error {
	return b.client.Close()
}
