package function

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrBucketNotSet is returned before any storage call when BUCKET_NAME is empty.
var ErrBucketNotSet = errors.New("BUCKET_NAME environment variable not set")

// ValidationError reports a missing or malformed request input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError reports that the storage service answered NoSuchKey.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string { return "File not found: " + e.Key }

// panicError carries a recovered panic value.
type panicError struct {
	value any
}

func (e *panicError) Error() string { return fmt.Sprint(e.value) }

// classify maps err to a status code and the message placed in the body.
// Storage failures expose the root cause, without the wrapping context.
func classify(err error) (int, string) {
	var (
		validation *ValidationError
		notFound   *NotFoundError
	)
	switch {
	case errors.Is(err, ErrBucketNotSet):
		return http.StatusInternalServerError, ErrBucketNotSet.Error()
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Error()
	default:
		return http.StatusInternalServerError, errors.Cause(err).Error()
	}
}
