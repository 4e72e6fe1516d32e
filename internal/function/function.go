package function

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/bucket-gateway/internal/config"
	"github.com/andresuchdata/bucket-gateway/internal/storage"
)

// Function names, as used by the invoke CLI and in metrics labels.
const (
	NameListObjects  = "list-objects"
	NameListFolders  = "list-folders"
	NameDownloadURL  = "download-url"
	NameUploadURL    = "upload-url"
	paramFolder      = "folder"
	paramPrefix      = "prefix"
	paramFileKey     = "file_key"
	downloadUsageMsg = "Missing file_key in path. Usage: /download/{file_key}"
	uploadUsageMsg   = "Missing file_key in path. Usage: /upload/{folder_path}/{file_name}"
)

// Observer receives one record per invocation.
type Observer interface {
	RecordInvocation(name string, status int, duration time.Duration)
}

// Functions holds the collaborators shared by the bucket functions. It keeps
// no per-request state and is safe for concurrent use.
type Functions struct {
	store    storage.ObjectStore
	bucket   config.BucketResolver
	log      zerolog.Logger
	observer Observer
}

type Option func(*Functions)

// WithObserver attaches an invocation observer.
func WithObserver(o Observer) Option {
	return func(f *Functions) { f.observer = o }
}

func New(store storage.ObjectStore, bucket config.BucketResolver, log zerolog.Logger, opts ...Option) *Functions {
	f := &Functions{
		store:  store,
		bucket: bucket,
		log:    log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Handlers returns every function keyed by name.
func (f *Functions) Handlers() map[string]Handler {
	return map[string]Handler{
		NameListObjects: f.ListObjects,
		NameListFolders: f.ListFolders,
		NameDownloadURL: f.GenerateDownloadURL,
		NameUploadURL:   f.GenerateUploadURL,
	}
}

type body func(ctx context.Context, log zerolog.Logger, bucket string, req Request) (any, error)

// run resolves the bucket, executes fn and converts its outcome into a
// response. Errors and panics never escape.
func (f *Functions) run(ctx context.Context, name string, req Request, fn body) (resp Response) {
	start := time.Now()
	log := f.log.With().Str("function", name).Logger()

	defer func() {
		if r := recover(); r != nil {
			resp = f.fail(log, &panicError{value: r})
		}
		if f.observer != nil {
			f.observer.RecordInvocation(name, resp.StatusCode, time.Since(start))
		}
	}()

	bucket := ""
	if f.bucket != nil {
		bucket = f.bucket()
	}
	if bucket == "" {
		return f.fail(log, ErrBucketNotSet)
	}

	out, err := fn(ctx, log.With().Str("bucket", bucket).Logger(), bucket, req)
	if err != nil {
		return f.fail(log, err)
	}
	return newResponse(http.StatusOK, out)
}

func (f *Functions) fail(log zerolog.Logger, err error) Response {
	status, message := classify(err)
	log.Error().Stack().Err(err).Int("status", status).Msg("invocation failed")
	return errorResponse(status, message)
}
