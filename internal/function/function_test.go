package function

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/bucket-gateway/internal/config"
	"github.com/andresuchdata/bucket-gateway/internal/domain"
	"github.com/andresuchdata/bucket-gateway/internal/storage"
)

const testBucket = "test-bucket"

// memStore is an in-memory ObjectStore that follows S3 prefix/delimiter rules.
type memStore struct {
	objects []storage.ObjectInfo
	err     error
	lists   []storage.ListInput
	presign []string
}

func newMemStore(keys ...string) *memStore {
	s := &memStore{}
	for i, key := range keys {
		s.objects = append(s.objects, storage.ObjectInfo{
			Key:          key,
			Size:         int64(10 * (i + 1)),
			LastModified: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		})
	}
	return s
}

func (s *memStore) ListPage(_ context.Context, in storage.ListInput) (*storage.ListPage, error) {
	s.lists = append(s.lists, in)
	if s.err != nil {
		return nil, s.err
	}
	page := &storage.ListPage{}
	seen := map[string]bool{}
	for _, object := range s.objects {
		if !strings.HasPrefix(object.Key, in.Prefix) {
			continue
		}
		rest := object.Key[len(in.Prefix):]
		if in.Delimiter != "" {
			if i := strings.Index(rest, in.Delimiter); i >= 0 {
				cp := in.Prefix + rest[:i+len(in.Delimiter)]
				if !seen[cp] {
					seen[cp] = true
					page.CommonPrefixes = append(page.CommonPrefixes, cp)
				}
				continue
			}
		}
		page.Objects = append(page.Objects, object)
	}
	return page, nil
}

func (s *memStore) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return s.sign("GET", bucket, key, expiry)
}

func (s *memStore) PresignPut(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return s.sign("PUT", bucket, key, expiry)
}

func (s *memStore) sign(method, bucket, key string, expiry time.Duration) (string, error) {
	s.presign = append(s.presign, method+" "+key)
	if s.err != nil {
		return "", s.err
	}
	return "http://localstack:4566/" + bucket + "/" + key + "?X-Amz-Expires=" + expiry.String() + "&method=" + method, nil
}

type recordingObserver struct {
	mu       sync.Mutex
	statuses map[string][]int
}

func (o *recordingObserver) RecordInvocation(name string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.statuses == nil {
		o.statuses = map[string][]int{}
	}
	o.statuses[name] = append(o.statuses[name], status)
}

func newTestFunctions(store storage.ObjectStore, bucket string, opts ...Option) *Functions {
	return New(store, config.StaticBucket(bucket), zerolog.Nop(), opts...)
}

func decode[T any](t *testing.T, resp Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out), resp.Body)
	return out
}

func TestMissingBucketIsUniformAcrossFunctions(t *testing.T) {
	store := newMemStore("docs/a.txt")
	fns := newTestFunctions(store, "")

	req := Request{PathParameters: map[string]string{"folder": "docs", "file_key": "docs/a.txt"}}
	for name, handler := range fns.Handlers() {
		resp := handler(context.Background(), req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, name)
		assert.Equal(t, "application/json", resp.Headers["Content-Type"], name)
		assert.JSONEq(t, `{"error":"BUCKET_NAME environment variable not set"}`, resp.Body, name)
	}
	assert.Empty(t, store.lists, "no storage call before the bucket check")
	assert.Empty(t, store.presign)
}

func TestListObjectsScenario(t *testing.T) {
	store := newMemStore("docs/", "docs/a.txt", "docs/b.txt", "images/c.png")
	fns := newTestFunctions(store, testBucket)

	resp := fns.ListObjects(context.Background(), Request{PathParameters: map[string]string{"folder": "docs"}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[domain.FileList](t, resp)
	keys := make([]string, 0, len(list.Files))
	for _, f := range list.Files {
		keys = append(keys, f.Key)
	}
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, keys)
	assert.Equal(t, storage.ListInput{Bucket: testBucket, Prefix: "docs/"}, store.lists[0])
}

func TestListObjectsWithoutFolderReturnsEveryKey(t *testing.T) {
	store := newMemStore("docs/a.txt", "docs/b.txt", "images/c.png", "root.txt")
	fns := newTestFunctions(store, testBucket)

	resp := fns.ListObjects(context.Background(), Request{})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[domain.FileList](t, resp)
	keys := make([]string, 0, len(list.Files))
	for _, f := range list.Files {
		keys = append(keys, f.Key)
	}
	assert.ElementsMatch(t, []string{"docs/a.txt", "docs/b.txt", "images/c.png", "root.txt"}, keys)
	assert.Equal(t, "", store.lists[0].Prefix)
}

func TestListObjectsIsRepeatable(t *testing.T) {
	store := newMemStore("docs/a.txt", "docs/b.txt")
	fns := newTestFunctions(store, testBucket)
	req := Request{PathParameters: map[string]string{"folder": "docs/"}}

	first := decode[domain.FileList](t, fns.ListObjects(context.Background(), req))
	second := decode[domain.FileList](t, fns.ListObjects(context.Background(), req))

	assert.ElementsMatch(t, first.Files, second.Files)
}

func TestListObjectsEmptyFolderEncodesEmptyArray(t *testing.T) {
	fns := newTestFunctions(newMemStore(), testBucket)

	resp := fns.ListObjects(context.Background(), Request{PathParameters: map[string]string{"folder": "nothing"}})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"files":[]}`, resp.Body)
}

func TestListObjectsStorageFailure(t *testing.T) {
	store := newMemStore()
	store.err = errors.Wrap(errors.New("The specified bucket does not exist"), "list objects")
	fns := newTestFunctions(store, testBucket)

	resp := fns.ListObjects(context.Background(), Request{})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"The specified bucket does not exist"}`, resp.Body)
}

func TestListFoldersScenario(t *testing.T) {
	store := newMemStore("docs/a.txt", "docs/b.txt", "images/c.png", "root.txt")
	fns := newTestFunctions(store, testBucket)

	resp := fns.ListFolders(context.Background(), Request{})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[domain.FolderList](t, resp)
	assert.ElementsMatch(t, []string{"docs", "images"}, list.Folders)
	assert.Equal(t, storage.Delimiter, store.lists[0].Delimiter)
}

func TestListFoldersNamesRebuildCommonPrefixes(t *testing.T) {
	keys := []string{"docs/2023/a.txt", "docs/2024/q1/b.txt", "docs/2024/c.txt", "docs/readme.md", "images/c.png"}
	store := newMemStore(keys...)
	fns := newTestFunctions(store, testBucket)

	for _, prefix := range []string{"", "docs", "docs/2024/"} {
		resp := fns.ListFolders(context.Background(), Request{QueryStringParameters: map[string]string{"prefix": prefix}})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		p := NormalizePrefix(prefix)
		for _, name := range decode[domain.FolderList](t, resp).Folders {
			rebuilt := p + name + "/"
			found := false
			for _, key := range keys {
				if strings.HasPrefix(key, rebuilt) {
					found = true
					break
				}
			}
			assert.True(t, found, "%q is not a prefix of any key", rebuilt)
		}
	}

	resp := fns.ListFolders(context.Background(), Request{QueryStringParameters: map[string]string{"prefix": "docs"}})
	folders := decode[domain.FolderList](t, resp).Folders
	sort.Strings(folders)
	assert.Equal(t, []string{"2023", "2024"}, folders)
}

func TestListFoldersStorageFailure(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("connection refused")
	fns := newTestFunctions(store, testBucket)

	resp := fns.ListFolders(context.Background(), Request{})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"connection refused"}`, resp.Body)
}

func TestGenerateDownloadURL(t *testing.T) {
	store := newMemStore()
	fns := newTestFunctions(store, testBucket)

	resp := fns.GenerateDownloadURL(context.Background(), Request{PathParameters: map[string]string{"file_key": "docs/2024/a.txt"}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[domain.DownloadURL](t, resp)
	assert.Equal(t, "docs/2024/a.txt", out.FileKey)
	assert.Equal(t, 300, out.ExpiresInSeconds)
	assert.Contains(t, out.PresignedURL, "/test-bucket/docs/2024/a.txt")
	assert.Contains(t, out.PresignedURL, "X-Amz-Expires=5m0s")
	assert.Equal(t, []string{"GET docs/2024/a.txt"}, store.presign)
}

func TestGenerateDownloadURLMissingKey(t *testing.T) {
	store := newMemStore()
	fns := newTestFunctions(store, testBucket)

	for _, req := range []Request{{}, {PathParameters: map[string]string{"file_key": ""}}} {
		resp := fns.GenerateDownloadURL(context.Background(), req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Missing file_key in path. Usage: /download/{file_key}"}`, resp.Body)
	}
	assert.Empty(t, store.presign)
}

func TestGenerateDownloadURLNoSuchKey(t *testing.T) {
	store := newMemStore()
	store.err = errors.Wrap(minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}, "presign get")
	fns := newTestFunctions(store, testBucket)

	resp := fns.GenerateDownloadURL(context.Background(), Request{PathParameters: map[string]string{"file_key": "gone.txt"}})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"File not found: gone.txt"}`, resp.Body)
}

func TestGenerateDownloadURLOtherStorageError(t *testing.T) {
	store := newMemStore()
	store.err = minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied."}
	fns := newTestFunctions(store, testBucket)

	resp := fns.GenerateDownloadURL(context.Background(), Request{PathParameters: map[string]string{"file_key": "a.txt"}})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Access Denied."}`, resp.Body)
}

func TestGenerateUploadURL(t *testing.T) {
	store := newMemStore()
	fns := newTestFunctions(store, testBucket)

	resp := fns.GenerateUploadURL(context.Background(), Request{PathParameters: map[string]string{"file_key": "uploads/new/report.pdf"}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[domain.UploadURL](t, resp)
	assert.Equal(t, "uploads/new/report.pdf", out.FileKey)
	assert.Equal(t, 300, out.ExpiresInSeconds)
	assert.Contains(t, out.PresignedUploadURL, "method=PUT")
	assert.Equal(t, []string{"PUT uploads/new/report.pdf"}, store.presign)
}

func TestGenerateUploadURLMissingKey(t *testing.T) {
	fns := newTestFunctions(newMemStore(), testBucket)

	resp := fns.GenerateUploadURL(context.Background(), Request{})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Missing file_key in path. Usage: /upload/{folder_path}/{file_name}"}`, resp.Body)
}

func TestGenerateUploadURLNoSuchKeyIsNotSpecial(t *testing.T) {
	store := newMemStore()
	store.err = minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	fns := newTestFunctions(store, testBucket)

	resp := fns.GenerateUploadURL(context.Background(), Request{PathParameters: map[string]string{"file_key": "a.txt"}})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

type panicStore struct{ memStore }

func (panicStore) PresignPut(context.Context, string, string, time.Duration) (string, error) {
	panic("signer exploded")
}

func TestPanicBecomesErrorEnvelope(t *testing.T) {
	fns := newTestFunctions(&panicStore{}, testBucket)

	resp := fns.GenerateUploadURL(context.Background(), Request{PathParameters: map[string]string{"file_key": "a.txt"}})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"signer exploded"}`, resp.Body)
}

func TestObserverSeesEveryInvocation(t *testing.T) {
	observer := &recordingObserver{}
	fns := newTestFunctions(newMemStore("docs/a.txt"), testBucket, WithObserver(observer))

	fns.ListObjects(context.Background(), Request{})
	fns.GenerateDownloadURL(context.Background(), Request{})

	assert.Equal(t, []int{http.StatusOK}, observer.statuses[NameListObjects])
	assert.Equal(t, []int{http.StatusBadRequest}, observer.statuses[NameDownloadURL])
}

func TestBucketIsResolvedPerInvocation(t *testing.T) {
	bucket := ""
	fns := New(newMemStore("a.txt"), func() string { return bucket }, zerolog.Nop())

	assert.Equal(t, http.StatusInternalServerError, fns.ListObjects(context.Background(), Request{}).StatusCode)

	bucket = testBucket
	assert.Equal(t, http.StatusOK, fns.ListObjects(context.Background(), Request{}).StatusCode)
}

func TestPresignedURLIsNotHTMLEscaped(t *testing.T) {
	fns := newTestFunctions(newMemStore(), testBucket)

	resp := fns.GenerateDownloadURL(context.Background(), Request{PathParameters: map[string]string{"file_key": "a.txt"}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, "&method=GET")
	assert.NotContains(t, resp.Body, `\u0026`)
	assert.False(t, strings.HasSuffix(resp.Body, "\n"))
}

func TestListFoldersEmptyPrefixListsRoot(t *testing.T) {
	store := newMemStore("docs/a.txt", "images/c.png")
	fns := newTestFunctions(store, testBucket)

	resp := fns.ListFolders(context.Background(), Request{QueryStringParameters: map[string]string{"prefix": ""}})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, storage.ListInput{Bucket: testBucket, Prefix: "", Delimiter: storage.Delimiter}, store.lists[0])
	assert.ElementsMatch(t, []string{"docs", "images"}, decode[domain.FolderList](t, resp).Folders)
}
