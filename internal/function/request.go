package function

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/andresuchdata/bucket-gateway/internal/domain"
)

// Request is the gateway-agnostic invocation event.
type Request struct {
	PathParameters        map[string]string `json:"pathParameters,omitempty"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
}

// PathParam returns the named path parameter or "".
func (r Request) PathParam(name string) string {
	return r.PathParameters[name]
}

// QueryParam returns the named query string parameter and whether it was sent.
func (r Request) QueryParam(name string) (string, bool) {
	v, ok := r.QueryStringParameters[name]
	return v, ok
}

// Response is the result of one invocation. Body always holds a JSON object.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

// Handler is the signature shared by every function.
type Handler func(ctx context.Context, req Request) Response

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// newResponse marshals body into a JSON response with the given status.
func newResponse(status int, body any) Response {
	raw, err := marshal(body)
	if err != nil {
		raw, _ = marshal(domain.ErrorBody{Error: err.Error()})
		status = http.StatusInternalServerError
	}
	return Response{
		StatusCode: status,
		Headers:    jsonHeaders(),
		Body:       raw,
	}
}

// marshal encodes v without HTML escaping, so presigned query strings keep
// their literal '&'.
func marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

func errorResponse(status int, message string) Response {
	return newResponse(status, domain.ErrorBody{Error: message})
}
