package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/roadprox-cli/internal/config"
	"github.com/sells-group/roadprox-cli/internal/model"
	"github.com/sells-group/roadprox-cli/internal/roads"
	"github.com/sells-group/roadprox-cli/pkg/geo"
)

func TestWriteRunResult(t *testing.T) {
	var buf bytes.Buffer
	result := &model.RunResult{
		RunID:     "run-1",
		Status:    model.RunStatusComplete,
		StartedAt: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		Fetched:   3,
		Resolved:  2,
		Inserted:  3,
		Phases:    []model.PhaseResult{{Name: "fetch", Status: model.PhaseStatusComplete}},
	}

	require.NoError(t, writeRunResult(&buf, result))

	var decoded model.RunResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 3, decoded.Fetched)
	assert.Len(t, decoded.Phases, 1)
	assert.Contains(t, buf.String(), "\n  \"run_id\"")
}

func TestWriteNearest(t *testing.T) {
	var buf bytes.Buffer
	road := &roads.Road{DistanceMeters: 4.5, WayID: 12, Name: "Main St", Highway: "residential"}
	require.NoError(t, writeNearest(&buf, geo.Point{Lat: 1, Lon: 2}, 10, road))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, 4.5, out["distance"])
	assert.Equal(t, 10.0, out["radius_m"])

	buf.Reset()
	require.NoError(t, writeNearest(&buf, geo.Point{}, 10, nil))
	out = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "no_road", out["status"])
	assert.Nil(t, out["distance"])
	assert.NotContains(t, out, "road")
}

func TestWriteConfig_Redacts(t *testing.T) {
	c := &config.Config{
		Warehouse: config.WarehouseConfig{Driver: "postgres", DatabaseURL: "postgres://u:secret@db/gbif"},
		Archive:   config.ArchiveConfig{Endpoint: "minio:9000", SecretKey: "s3cr3t"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, c))
	assert.NotContains(t, buf.String(), "secret@db")
	assert.NotContains(t, buf.String(), "s3cr3t")

	var decoded config.Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "postgres", decoded.Warehouse.Driver)
	assert.Equal(t, "minio:9000", decoded.Archive.Endpoint)
	assert.Equal(t, "********", decoded.Warehouse.DatabaseURL)
}
