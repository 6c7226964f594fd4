package warehouse

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadprox-cli/internal/model"
)

func TestNewBigQuery_MissingCredentials(t *testing.T) {
	_, err := NewBigQuery(context.Background(), "proj", filepath.Join(t.TempDir(), "credentials.json"), Tables{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredentials))
}

func TestParseTableID(t *testing.T) {
	p, d, tb, err := parseTableID("gbif.distances", "default-proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"default-proj", "gbif", "distances"}, []string{p, d, tb})

	p, d, tb, err = parseTableID("`other.gbif.distances`", "default-proj")
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "gbif", "distances"}, []string{p, d, tb})

	for _, bad := range []string{"", "distances", "a..b", "a.b.c.d"} {
		_, _, _, err := parseTableID(bad, "p")
		assert.Error(t, err, bad)
	}
}

func TestEnrichedSaver_Save(t *testing.T) {
	row, insertID, err := enrichedSaver{e: model.Enriched{
		Occurrence: model.Occurrence{ID: 1, Species: "Canis lupus"},
		Distance:   model.Float64(5),
	}}.Save()
	require.NoError(t, err)
	assert.Empty(t, insertID)
	assert.NotEqual(t, bigquery.NoDedupeID, insertID)
	assert.Equal(t, map[string]bigquery.Value{
		"gbifid":    int64(1),
		"latitude":  0.0,
		"longitude": 0.0,
		"species":   "Canis lupus",
		"distance":  5.0,
	}, row)
}

func TestPutReport(t *testing.T) {
	rows := []model.Enriched{
		{Occurrence: model.Occurrence{ID: 10}},
		{Occurrence: model.Occurrence{ID: 11}},
		{Occurrence: model.Occurrence{ID: 12}},
	}

	report, err := putReport(nil, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)
	assert.Empty(t, report.RowErrors)

	multi := bigquery.PutMultiError{
		{RowIndex: 1, Errors: bigquery.MultiError{errors.New("no such field: distance")}},
	}
	report, err = putReport(multi, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	require.Len(t, report.RowErrors, 1)
	assert.Equal(t, RowError{Index: 1, ID: 11, Message: "no such field: distance"}, report.RowErrors[0])

	_, err = putReport(errors.New("googleapi: Error 404: Not found"), rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bigquery: insert enriched")
}
