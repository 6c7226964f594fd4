// Package archive uploads a copy of each run's enriched records to
// S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadprox-cli/internal/config"
	"github.com/sells-group/roadprox-cli/internal/model"
)

// Archiver stores the records of one run and returns the object key.
type Archiver interface {
	Archive(ctx context.Context, runID string, startedAt time.Time, rows []model.Enriched) (string, error)
}

// objectStore is the subset of *minio.Client used here.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Minio writes NDJSON archives to a bucket.
type Minio struct {
	store  objectStore
	bucket string
	prefix string
}

// NewMinio connects to the endpoint in cfg.
func NewMinio(cfg config.ArchiveConfig) (*Minio, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, eris.New("archive: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, eris.Wrap(err, "archive: new minio client")
	}
	return newMinio(client, cfg.Bucket, cfg.Prefix), nil
}

func newMinio(store objectStore, bucket, prefix string) *Minio {
	return &Minio{store: store, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// ObjectKey returns "<prefix>/<yyyy-mm-dd>/<run-id>.ndjson" using the UTC date.
func ObjectKey(prefix, runID string, startedAt time.Time) string {
	return path.Join(strings.Trim(prefix, "/"), startedAt.UTC().Format("2006-01-02"), runID+".ndjson")
}

// EncodeNDJSON writes one JSON object per record.
func EncodeNDJSON(rows []model.Enriched) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, r := range rows {
		if err := enc.Encode(r); err != nil {
			return nil, eris.Wrapf(err, "archive: encode record %d", i)
		}
	}
	return buf.Bytes(), nil
}

// EnsureBucket creates the bucket when it does not exist.
func (m *Minio) EnsureBucket(ctx context.Context) error {
	exists, err := m.store.BucketExists(ctx, m.bucket)
	if err != nil {
		return eris.Wrapf(err, "archive: check bucket %s", m.bucket)
	}
	if exists {
		return nil
	}
	if err := m.store.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return eris.Wrapf(err, "archive: make bucket %s", m.bucket)
	}
	zap.L().Info("archive bucket created", zap.String("bucket", m.bucket))
	return nil
}

// Archive implements Archiver.
func (m *Minio) Archive(ctx context.Context, runID string, startedAt time.Time, rows []model.Enriched) (string, error) {
	data, err := EncodeNDJSON(rows)
	if err != nil {
		return "", err
	}
	if err := m.EnsureBucket(ctx); err != nil {
		return "", err
	}

	key := ObjectKey(m.prefix, runID, startedAt)
	_, err = m.store.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/x-ndjson"})
	if err != nil {
		return "", eris.Wrapf(err, "archive: put %s", key)
	}

	zap.L().Info("run archived",
		zap.String("bucket", m.bucket),
		zap.String("key", key),
		zap.Int("records", len(rows)),
	)
	return key, nil
}
