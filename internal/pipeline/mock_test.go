package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/roadprox-cli/internal/model"
	"github.com/sells-group/roadprox-cli/internal/roads"
	"github.com/sells-group/roadprox-cli/internal/warehouse"
	"github.com/sells-group/roadprox-cli/pkg/geo"
)

// --- Warehouse Mocks ---

type mockReader struct {
	mock.Mock
}

func (m *mockReader) FetchOccurrences(ctx context.Context) ([]model.Occurrence, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Occurrence), args.Error(1)
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) InsertEnriched(ctx context.Context, rows []model.Enriched) (*warehouse.InsertReport, error) {
	args := m.Called(ctx, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*warehouse.InsertReport), args.Error(1)
}

// --- Archive Mock ---

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Archive(ctx context.Context, runID string, startedAt time.Time, rows []model.Enriched) (string, error) {
	args := m.Called(ctx, runID, startedAt, rows)
	return args.String(0), args.Error(1)
}

// --- Resolver Stub ---

type stubResolver struct {
	roads map[int64]*roads.Road
	byLat map[float64]int64
}

func (s *stubResolver) NearestRoad(_ context.Context, p geo.Point) (*roads.Road, error) {
	if r, ok := s.roads[s.byLat[p.Lat]]; ok {
		return r, nil
	}
	return nil, roads.ErrNoRoad
}
