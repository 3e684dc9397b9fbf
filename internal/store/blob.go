package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobStore keeps each document as "<name>.json" in an S3-compatible bucket.
type BlobStore struct {
	codec
	blob *blobBackend
}

type blobBackend struct {
	client *minio.Client
	bucket string
}

// BlobOptions configures the object storage connection.
type BlobOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// NewBlobStore creates a MinIO/S3 client for opts.Bucket.
func NewBlobStore(opts BlobOptions) (*BlobStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	backend := &blobBackend{client: client, bucket: opts.Bucket}
	return &BlobStore{codec: codec{backend: backend}, blob: backend}, nil
}

// EnsureBucket creates the bucket if it doesn't exist.
func (s *BlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.blob.client.BucketExists(ctx, s.blob.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.blob.client.MakeBucket(ctx, s.blob.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.blob.bucket, err)
	}
	return nil
}

func objectKey(name string) string {
	return path.Join("documents", name+".json")
}

func (b *blobBackend) get(ctx context.Context, name string) ([]byte, bool, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, objectKey(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (b *blobBackend) put(ctx context.Context, name string, data []byte) error {
	_, err := b.client.PutObject(ctx, b.bucket, objectKey(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (b *blobBackend) ping(ctx context.Context) error {
	_, err := b.client.BucketExists(ctx, b.bucket)
	return err
}

func (b *blobBackend) close() error { return nil }
