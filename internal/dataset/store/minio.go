package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shandysiswandi/tabmerge/internal/dataset/entity"
	"github.com/shandysiswandi/tabmerge/internal/pkg/pkgerror"
)

const (
	minioCodeNoSuchKey    = "NoSuchKey"
	minioCodeBucketExists = "BucketAlreadyOwnedByYou"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool

	// Transport overrides the HTTP transport, for custom TLS roots.
	Transport http.RoundTripper
}

// MinioObjectStore keeps dataset bytes as objects of a single bucket.
type MinioObjectStore struct {
	client *minio.Client
	bucket string
	region string
}

func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("no storage bucket configured")
	}

	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: cfg.Transport,
	})
}

func NewMinioObjectStore(client *minio.Client, bucket, region string) *MinioObjectStore {
	return &MinioObjectStore{client: client, bucket: bucket, region: region}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.BucketExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	if err != nil && minio.ToErrorResponse(err).Code != minioCodeBucketExists {
		return fmt.Errorf("make bucket %q: %w", s.bucket, err)
	}

	slog.InfoContext(ctx, "object store bucket created", "bucket", s.bucket)
	return nil
}

func (s *MinioObjectStore) BucketExists(ctx context.Context) (bool, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return false, fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	return exists, nil
}

// Get returns the whole object. A missing key reports pkgerror.ErrNotFound.
func (s *MinioObjectStore) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(err)
	}
	//nolint:errcheck // read-only object handle
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapErr(err)
	}

	return data, nil
}

func (s *MinioObjectStore) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", name, err)
	}
	return nil
}

// Delete removes name. S3 semantics make deleting an absent key a success.
func (s *MinioObjectStore) Delete(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return s.mapErr(err)
	}
	return nil
}

func (s *MinioObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if err = s.mapErr(err); errors.Is(err, pkgerror.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *MinioObjectStore) mapErr(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == minioCodeNoSuchKey {
		return pkgerror.ErrNotFound
	}
	return err
}

func contentType(name string) string {
	format, _ := entity.ParseFormat(path.Ext(name))
	switch format {
	case entity.FormatCSV:
		return "text/csv"
	case entity.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
