package function

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/bucket-gateway/internal/domain"
	"github.com/andresuchdata/bucket-gateway/internal/storage"
)

var expiresInSeconds = int(domain.PresignExpiry.Seconds())

// GenerateDownloadURL presigns a GET for the "file_key" path parameter.
//
// Presigning does not contact the object, so the NoSuchKey branch only fires
// if a storage client reports it; it is not an existence check.
func (f *Functions) GenerateDownloadURL(ctx context.Context, req Request) Response {
	return f.run(ctx, NameDownloadURL, req, f.downloadURL)
}

func (f *Functions) downloadURL(ctx context.Context, log zerolog.Logger, bucket string, req Request) (any, error) {
	key := req.PathParam(paramFileKey)
	if key == "" {
		return nil, &ValidationError{Message: downloadUsageMsg}
	}
	log.Info().Str("key", key).Msg("presigning download")

	url, err := f.store.PresignGet(ctx, bucket, key, domain.PresignExpiry)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, &NotFoundError{Key: key}
		}
		return nil, err
	}

	return domain.DownloadURL{
		FileKey:          key,
		PresignedURL:     url,
		ExpiresInSeconds: expiresInSeconds,
	}, nil
}

// GenerateUploadURL presigns a PUT for the "file_key" path parameter.
func (f *Functions) GenerateUploadURL(ctx context.Context, req Request) Response {
	return f.run(ctx, NameUploadURL, req, f.uploadURL)
}

func (f *Functions) uploadURL(ctx context.Context, log zerolog.Logger, bucket string, req Request) (any, error) {
	key := req.PathParam(paramFileKey)
	if key == "" {
		return nil, &ValidationError{Message: uploadUsageMsg}
	}
	log.Info().Str("key", key).Msg("presigning upload")

	url, err := f.store.PresignPut(ctx, bucket, key, domain.PresignExpiry)
	if err != nil {
		return nil, err
	}

	return domain.UploadURL{
		FileKey:            key,
		PresignedUploadURL: url,
		ExpiresInSeconds:   expiresInSeconds,
	}, nil
}
