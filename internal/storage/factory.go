package storage

import (
	"context"
	"fmt"

	"github.com/andresuchdata/bucket-gateway/internal/config"
)

const (
	DriverMinio = "minio"
	DriverAWS   = "aws"
)

// New builds the ObjectStore selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "", DriverMinio:
		return NewMinioClient(MinioConfig{
			Endpoint:       cfg.Endpoint,
			AccessKey:      cfg.AccessKey,
			SecretKey:      cfg.SecretKey,
			Region:         cfg.Region,
			UseSSL:         cfg.UseSSL,
			ForcePathStyle: cfg.ForcePathStyle,
		})
	case DriverAWS:
		return NewAWSClient(ctx, AWSConfig{
			Endpoint:       cfg.Endpoint,
			AccessKey:      cfg.AccessKey,
			SecretKey:      cfg.SecretKey,
			Region:         cfg.Region,
			UseSSL:         cfg.UseSSL,
			ForcePathStyle: cfg.ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
