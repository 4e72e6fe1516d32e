package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

// Delimiter groups keys into folders.
const Delimiter = "/"

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListInput describes a single-page list request.
type ListInput struct {
	Bucket    string
	Prefix    string
	Delimiter string
}

// ListPage is one page of a list call. CommonPrefixes is only populated when
// the request carried a delimiter.
type ListPage struct {
	Objects        []ObjectInfo
	CommonPrefixes []string
	Truncated      bool
}

// ObjectStore captures the S3-compatible operations the functions need.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	ListPage(ctx context.Context, in ListInput) (*ListPage, error)
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	PresignPut(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

const codeNoSuchKey = "NoSuchKey"

// IsNotFound reports whether err carries the storage "NoSuchKey" code, from
// either the minio or the aws client.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == codeNoSuchKey
	}
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return minioErr.Code == codeNoSuchKey
	}
	return false
}
