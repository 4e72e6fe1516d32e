package domain

import "time"

// PresignExpiry is the validity window of every presigned URL.
const PresignExpiry = 300 * time.Second

// ObjectSummary is one entry of a ListObjects response. Key is relative to
// the requested folder.
type ObjectSummary struct {
	Key          string `json:"Key"`
	Size         int64  `json:"Size"`
	LastModified string `json:"LastModified"`
}

type FileList struct {
	Files []ObjectSummary `json:"files"`
}

type FolderList struct {
	Folders []string `json:"folders"`
}

type DownloadURL struct {
	FileKey          string `json:"file_key"`
	PresignedURL     string `json:"presigned_url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type UploadURL struct {
	FileKey            string `json:"file_key"`
	PresignedUploadURL string `json:"presigned_upload_url"`
	ExpiresInSeconds   int    `json:"expires_in_seconds"`
}

// ErrorBody is the envelope of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}
