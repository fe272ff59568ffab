// Package minio provides a ContentStorage backed by any S3-compatible object
// store via the MinIO client.
package minio

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const markdownContentType = "text/markdown; charset=utf-8"

// Config captures the parameters required to connect to the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// Store writes Markdown blobs to a bucket on an S3-compatible store.
type Store struct {
	client *minio.Client
	bucket string
}

// New creates a MinIO-backed content store and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// SaveMarkdown uploads the content under the key.
func (s *Store) SaveMarkdown(ctx context.Context, key, content string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key is required")
	}
	reader := strings.NewReader(content)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: markdownContentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// DeleteMarkdown removes the object. RemoveObject succeeds for missing keys,
// so deletes stay idempotent.
func (s *Store) DeleteMarkdown(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("key is required")
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
