package archive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roadprox-cli/internal/config"
	"github.com/sells-group/roadprox-cli/internal/model"
)

type fakeStore struct {
	exists    bool
	existsErr error
	made      []string
	putErr    error
	bucket    string
	key       string
	body      []byte
	size      int64
	opts      minio.PutObjectOptions
}

func (f *fakeStore) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	f.exists = true
	return nil
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket, f.key, f.body, f.size, f.opts = bucket, key, b, size, opts
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

var started = time.Date(2026, 3, 14, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))

func sampleRows() []model.Enriched {
	return []model.Enriched{
		{
			Occurrence: model.Occurrence{ID: 1, Species: "Canis lupus"},
			Distance:   model.Float64(5),
			Status:     model.StatusOK,
			RoadID:     77,
			RoadName:   "Ring Road",
		},
		{
			Occurrence: model.Occurrence{ID: 2, Latitude: 1, Longitude: 1, Species: "Vulpes vulpes"},
			Status:     model.StatusUnavailable,
		},
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "runs/2026-03-15/abc.ndjson", ObjectKey("/runs/", "abc", started))
	assert.Equal(t, "2026-03-15/abc.ndjson", ObjectKey("", "abc", started))
}

func TestEncodeNDJSON(t *testing.T) {
	data, err := EncodeNDJSON(sampleRows())
	require.NoError(t, err)

	sc := bufio.NewScanner(bytes.NewReader(data))
	var lines []map[string]any
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, 1.0, lines[0]["gbifid"])
	assert.Equal(t, 5.0, lines[0]["distance"])
	assert.Equal(t, "Ring Road", lines[0]["road_name"])
	assert.Nil(t, lines[1]["distance"])
	assert.Equal(t, "unavailable", lines[1]["status"])
}

func TestMinio_Archive(t *testing.T) {
	store := &fakeStore{}
	m := newMinio(store, "roadprox", "runs")

	key, err := m.Archive(context.Background(), "run-1", started, sampleRows())
	require.NoError(t, err)
	assert.Equal(t, "runs/2026-03-15/run-1.ndjson", key)
	assert.Equal(t, []string{"roadprox"}, store.made)
	assert.Equal(t, "roadprox", store.bucket)
	assert.Equal(t, key, store.key)
	assert.Equal(t, int64(len(store.body)), store.size)
	assert.Equal(t, "application/x-ndjson", store.opts.ContentType)
	assert.Equal(t, 2, bytes.Count(store.body, []byte("\n")))
}

func TestMinio_Archive_ExistingBucket(t *testing.T) {
	store := &fakeStore{exists: true}
	_, err := newMinio(store, "roadprox", "runs").Archive(context.Background(), "r", started, nil)
	require.NoError(t, err)
	assert.Empty(t, store.made)
}

func TestMinio_Archive_Errors(t *testing.T) {
	store := &fakeStore{existsErr: errors.New("access denied")}
	_, err := newMinio(store, "b", "").Archive(context.Background(), "r", started, sampleRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive: check bucket b")

	store = &fakeStore{exists: true, putErr: errors.New("timeout")}
	_, err = newMinio(store, "b", "p").Archive(context.Background(), "r", started, sampleRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive: put p/2026-03-15/r.ndjson")
}

func TestNewMinio_RequiresBucket(t *testing.T) {
	_, err := NewMinio(config.ArchiveConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	m, err := NewMinio(config.ArchiveConfig{Endpoint: "localhost:9000", Bucket: "b", Prefix: "runs/", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "runs", m.prefix)
}
