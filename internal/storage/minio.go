package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

// MinioConfig encapsulates the connection info for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Region         string
	UseSSL         bool
	ForcePathStyle bool
}

// MinioClient implements ObjectStore on top of minio-go's Core API, which
// exposes single-page ListObjectsV2 calls.
type MinioClient struct {
	core *minio.Core
}

// NewMinioClient builds a client for cfg. No network call is made.
func NewMinioClient(cfg MinioConfig) (*MinioClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials must be provided")
	}

	endpoint := cfg.Endpoint
	secure := cfg.UseSSL
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, secure = strings.TrimPrefix(endpoint, "http://"), false
	}
	endpoint = strings.TrimSuffix(strings.TrimPrefix(endpoint, "//"), "/")

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	lookup := minio.BucketLookupAuto
	if cfg.ForcePathStyle {
		lookup = minio.BucketLookupPath
	}

	core, err := minio.NewCore(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, errors.Wrap(err, "minio new client")
	}

	return &MinioClient{core: core}, nil
}

// ListPage issues one ListObjectsV2 request and returns the first page only.
func (c *MinioClient) ListPage(ctx context.Context, in ListInput) (*ListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := c.core.ListObjectsV2(in.Bucket, in.Prefix, "", "", in.Delimiter, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "list objects in %q with prefix %q", in.Bucket, in.Prefix)
	}

	page := &ListPage{
		Objects:   make([]ObjectInfo, 0, len(res.Contents)),
		Truncated: res.IsTruncated,
	}
	for _, object := range res.Contents {
		page.Objects = append(page.Objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}
	for _, cp := range res.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, cp.Prefix)
	}
	return page, nil
}

// PresignGet returns a GET URL for bucket/key valid for expiry.
func (c *MinioClient) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	u, err := c.core.PresignedGetObject(ctx, bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrapf(err, "presign get %q", key)
	}
	return u.String(), nil
}

// PresignPut returns a PUT URL for bucket/key valid for expiry.
func (c *MinioClient) PresignPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	u, err := c.core.PresignedPutObject(ctx, bucket, key, expiry)
	if err != nil {
		return "", errors.Wrapf(err, "presign put %q", key)
	}
	return u.String(), nil
}

var _ ObjectStore = (*MinioClient)(nil)
