package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// MinioOptions describes the bucket the archive writes to.
type MinioOptions struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Prefix    string
	// LogPath, if set, is uploaded next to the record on every archive.
	LogPath string
}

// Archive mirrors the latest record (and optionally the log) into a bucket.
// Keys are fixed, so the bucket only ever holds the newest copy.
type Archive struct {
	client  *minio.Client
	bucket  string
	prefix  string
	logPath string
}

// NewArchive buat koneksi MinIO dan pastikan bucket ada
func NewArchive(ctx context.Context, o MinioOptions) (*Archive, error) {
	if o.Endpoint == "" || o.Bucket == "" {
		return nil, errors.New("minio: endpoint and bucket are required")
	}
	cli, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
		Region: o.Region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{Region: o.Region}); err != nil {
			return nil, err
		}
	}

	return &Archive{client: cli, bucket: o.Bucket, prefix: o.Prefix, logPath: o.LogPath}, nil
}

// RecordKey is the object key of the archived record.
func RecordKey(prefix string) string { return objectKey(prefix, "latest.json") }

// LogKey is the object key of the archived log.
func LogKey(prefix string) string { return objectKey(prefix, "latest.log") }

func objectKey(prefix, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Upload implementasi domain.Archive
func (a *Archive) Upload(ctx context.Context, r *domain.ScanRecord) (string, error) {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "", fmt.Errorf("%w: encode record: %w", domain.ErrPersistence, err)
	}
	key := RecordKey(a.prefix)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload %s: %w", domain.ErrPersistence, key, err)
	}

	if a.logPath != "" {
		if err := a.uploadLog(ctx); err != nil {
			return "", err
		}
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	return a.objectURL(key), nil
}

func (a *Archive) uploadLog(ctx context.Context) error {
	if _, err := os.Stat(a.logPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	key := LogKey(a.prefix)
	_, err := a.client.FPutObject(ctx, a.bucket, key, a.logPath, minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("%w: upload %s: %w", domain.ErrPersistence, key, err)
	}
	return nil
}

func (a *Archive) objectURL(key string) string {
	u := a.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, a.bucket, key)
}

var _ domain.Archive = (*Archive)(nil)
