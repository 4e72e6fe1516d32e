package function

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/andresuchdata/bucket-gateway/internal/domain"
	"github.com/andresuchdata/bucket-gateway/internal/storage"
)

// ListObjects lists the objects under the optional "folder" path parameter.
// Only the first page returned by the storage service is used.
func (f *Functions) ListObjects(ctx context.Context, req Request) Response {
	return f.run(ctx, NameListObjects, req, f.listObjects)
}

func (f *Functions) listObjects(ctx context.Context, log zerolog.Logger, bucket string, req Request) (any, error) {
	prefix := NormalizePrefix(req.PathParam(paramFolder))
	log.Info().Str("prefix", prefix).Msg("listing objects")

	page, err := f.store.ListPage(ctx, storage.ListInput{Bucket: bucket, Prefix: prefix})
	if err != nil {
		return nil, err
	}
	if page.Truncated {
		log.Warn().Str("prefix", prefix).Msg("list result truncated, returning first page only")
	}

	return domain.FileList{Files: ObjectSummaries(page.Objects, prefix)}, nil
}

// ListFolders lists the common prefixes one level below the optional
// "prefix" query parameter.
func (f *Functions) ListFolders(ctx context.Context, req Request) Response {
	return f.run(ctx, NameListFolders, req, f.listFolders)
}

func (f *Functions) listFolders(ctx context.Context, log zerolog.Logger, bucket string, req Request) (any, error) {
	raw, _ := req.QueryParam(paramPrefix)
	prefix := NormalizePrefix(raw)
	log.Info().Str("prefix", prefix).Msg("listing folders")

	page, err := f.store.ListPage(ctx, storage.ListInput{
		Bucket:    bucket,
		Prefix:    prefix,
		Delimiter: storage.Delimiter,
	})
	if err != nil {
		return nil, err
	}
	if page.Truncated {
		log.Warn().Str("prefix", prefix).Msg("list result truncated, returning first page only")
	}

	return domain.FolderList{Folders: FolderNames(page.CommonPrefixes, prefix)}, nil
}
