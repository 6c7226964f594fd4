package warehouse

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadprox-cli/internal/model"
)

func newMockPostgres(t *testing.T, tables Tables) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock, tables), mock
}

func TestPostgres_FetchOccurrences(t *testing.T) {
	pg, mock := newMockPostgres(t, Tables{Source: "occurrences", Limit: 2})

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "occurrences" LIMIT 2`)).
		WillReturnRows(pgxmock.NewRows([]string{"gbifid", "decimallatitude", "decimallongitude", "species"}).
			AddRow(int64(1), 0.0, 0.0, "Canis lupus").
			AddRow(int64(2), 51.5, -0.12, nil))

	got, err := pg.FetchOccurrences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Occurrence{
		{ID: 1, Latitude: 0, Longitude: 0, Species: "Canis lupus"},
		{ID: 2, Latitude: 51.5, Longitude: -0.12},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FetchOccurrences_QueryError(t *testing.T) {
	pg, mock := newMockPostgres(t, Tables{Source: "occurrences"})

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))

	_, err := pg.FetchOccurrences(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: fetch occurrences")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertEnriched_CollectsRowErrors(t *testing.T) {
	pg, mock := newMockPostgres(t, Tables{Dest: "distances"})
	insert := regexp.QuoteMeta(`INSERT INTO "distances"`)

	mock.ExpectExec(insert).
		WithArgs(int64(1), 0.0, 0.0, "Canis lupus", 5.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(insert).
		WithArgs(int64(2), 1.0, 1.0, "Vulpes vulpes", nil).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectExec(insert).
		WithArgs(int64(3), 2.0, 2.0, "Ursus arctos", 7.5).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rows := []model.Enriched{
		{Occurrence: model.Occurrence{ID: 1, Species: "Canis lupus"}, Distance: model.Float64(5)},
		{Occurrence: model.Occurrence{ID: 2, Latitude: 1, Longitude: 1, Species: "Vulpes vulpes"}},
		{Occurrence: model.Occurrence{ID: 3, Latitude: 2, Longitude: 2, Species: "Ursus arctos"}, Distance: model.Float64(7.5)},
	}
	report, err := pg.InsertEnriched(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	require.Len(t, report.RowErrors, 1)
	assert.Equal(t, 1, report.RowErrors[0].Index)
	assert.Equal(t, int64(2), report.RowErrors[0].ID)
	assert.Contains(t, report.RowErrors[0].Message, "duplicate key")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertEnriched_CanceledContext(t *testing.T) {
	pg, mock := newMockPostgres(t, Tables{Dest: "distances"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pg.InsertEnriched(ctx, []model.Enriched{{Occurrence: model.Occurrence{ID: 1}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertEnriched_NoDest(t *testing.T) {
	pg, _ := newMockPostgres(t, Tables{})
	_, err := pg.InsertEnriched(context.Background(), nil)
	assert.Error(t, err)
}
