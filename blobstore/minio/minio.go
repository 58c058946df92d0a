// Package minio implements blobstore.Store against MinIO or another
// S3-compatible endpoint, for on-prem object storage in lab networks that
// can't reach AWS.
package minio

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"qecd/blobstore"
)

// Store implements blobstore.Store for one bucket/prefix pair.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New returns a Store. rootPrefix is prepended to every key.
func New(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: rootPrefix}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Get fetches key from the bucket.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, translateErr(err)
	}
	// GetObject doesn't fail until the first read for a missing key.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, translateErr(err)
	}
	return obj, nil
}

// Put uploads r to key. Size is unknown ahead of time, so this streams
// with minio's unknown-size upload path (-1 length).
func (s *Store) Put(ctx context.Context, key string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(key), r, -1, minio.PutObjectOptions{})
	return err
}

func translateErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
		return blobstore.ErrNotFound
	}
	return err
}
