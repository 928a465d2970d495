// Package voicestore persists voice consent recordings as opaque blobs. The
// evidence payload only ever carries the returned reference path.
package voicestore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinio(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*MinioStore, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &MinioStore{client: cli, bucket: bucket}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", &domain.StorageError{Op: "put voice blob", Err: err}
	}
	return fmt.Sprintf("%s/%s", s.bucket, key), nil
}

// DirStore is the local-filesystem fallback used when MinIO is not
// configured (the dev default).
type DirStore struct{ Dir string }

func NewDir(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.StorageError{Op: "create voice dir", Err: err}
	}
	return &DirStore{Dir: dir}, nil
}

func (s *DirStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path := filepath.Join(s.Dir, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &domain.StorageError{Op: "create voice subdir", Err: err}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", &domain.StorageError{Op: "write voice blob", Err: err}
	}
	return path, nil
}
