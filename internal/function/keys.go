package function

import (
	"strings"

	"github.com/andresuchdata/bucket-gateway/internal/domain"
	"github.com/andresuchdata/bucket-gateway/internal/storage"
)

// timestampLayout is RFC 3339 with fixed millisecond precision, the
// resolution S3 reports LastModified with.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NormalizePrefix appends the delimiter to a non-empty prefix that lacks it.
func NormalizePrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, storage.Delimiter) {
		return prefix + storage.Delimiter
	}
	return prefix
}

// RelativeKey strips prefix from key when key starts with it.
func RelativeKey(key, prefix string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, prefix)
}

// FolderName turns a common prefix into a bare folder name relative to prefix.
// The second result is false when nothing is left after stripping.
func FolderName(commonPrefix, prefix string) (string, bool) {
	name := strings.TrimSuffix(RelativeKey(commonPrefix, prefix), storage.Delimiter)
	return name, name != ""
}

// ObjectSummaries converts a list page into summaries relative to prefix,
// dropping the folder marker object whose relative key is empty.
func ObjectSummaries(objects []storage.ObjectInfo, prefix string) []domain.ObjectSummary {
	files := make([]domain.ObjectSummary, 0, len(objects))
	for _, object := range objects {
		key := RelativeKey(object.Key, prefix)
		if key == "" {
			continue
		}
		files = append(files, domain.ObjectSummary{
			Key:          key,
			Size:         object.Size,
			LastModified: object.LastModified.UTC().Format(timestampLayout),
		})
	}
	return files
}

// FolderNames converts common prefixes into folder names relative to prefix.
func FolderNames(commonPrefixes []string, prefix string) []string {
	folders := make([]string, 0, len(commonPrefixes))
	for _, cp := range commonPrefixes {
		if name, ok := FolderName(cp, prefix); ok {
			folders = append(folders, name)
		}
	}
	return folders
}
