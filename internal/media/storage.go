// Package media stores uploaded assets in S3-compatible object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object describes one stored asset.
type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage wraps a single bucket of S3-compatible object storage.
type Storage struct {
	client *minio.Client
	bucket string
}

// StorageConfig holds object storage connection settings.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// NewStorage connects to the object store and ensures the bucket exists.
func NewStorage(ctx context.Context, cfg StorageConfig) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("media: connect object store: %w", err)
	}
	s := &Storage{client: client, bucket: cfg.Bucket}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("media: check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("media: create bucket: %w", err)
	}
	return nil
}

// Upload stores one object under the given key.
func (s *Storage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("media: upload %q: %w", key, err)
	}
	return nil
}

// List returns every object in the bucket, newest first.
func (s *Storage) List(ctx context.Context) ([]Object, error) {
	var objects []Object
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("media: list objects: %w", info.Err)
		}
		objects = append(objects, Object{
			Key:          info.Key,
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
		})
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, nil
}

// Remove deletes one object.
func (s *Storage) Remove(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("media: remove %q: %w", key, err)
	}
	return nil
}

// Count returns the number of stored objects.
func (s *Storage) Count(ctx context.Context) (int, error) {
	objects, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(objects), nil
}
