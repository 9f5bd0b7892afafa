package fsx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ObjectStore reads from a MinIO/S3 bucket. Paths are object keys.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

func NewObjectStore(client *minio.Client, bucket string) (*ObjectStore, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &ObjectStore{client: client, bucket: bucket}, nil
}

func (s *ObjectStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("object store not initialized")
	}
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", s.bucket, name, err)
	}
	// GetObject is lazy; stat now so missing keys surface here rather
	// than on first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("stat %s/%s: %w", s.bucket, name, err)
	}
	return obj, nil
}

func (s *ObjectStore) List(ctx context.Context, dir string) ([]string, error) {
	return s.list(ctx, dir, false)
}

func (s *ObjectStore) Walk(ctx context.Context, root string) ([]string, error) {
	return s.list(ctx, root, true)
}

func (s *ObjectStore) list(ctx context.Context, prefix string, recursive bool) ([]string, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("object store not initialized")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	var out []string
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", s.bucket, prefix, info.Err)
		}
		if strings.HasSuffix(info.Key, "/") {
			continue // folder marker
		}
		out = append(out, info.Key)
	}
	return out, nil
}

func (s *ObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	if s == nil || s.client == nil {
		return false, fmt.Errorf("object store not initialized")
	}
	_, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
		return false, nil
	}
	return false, fmt.Errorf("stat %s/%s: %w", s.bucket, name, err)
}
