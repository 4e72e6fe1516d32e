package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/bucket-gateway/internal/api/middleware"
	"github.com/andresuchdata/bucket-gateway/internal/function"
)

// NewMuxRouter exposes the same routes as NewRouter on a gorilla/mux router.
// Path cleaning is off: object keys may legitimately contain "//".
func NewMuxRouter(fns *function.Functions, opts Options) *mux.Router {
	r := mux.NewRouter().SkipClean(true)

	origins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
	if allowAll {
		origins = nil
	}
	r.Use(
		middleware.AccessLog(opts.Log),
		middleware.RecoverHTTP(opts.Log),
		middleware.CORS(origins),
	)
	r.NotFoundHandler = middleware.AccessLog(opts.Log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "route not found")
	}))
	r.MethodNotAllowedHandler = middleware.AccessLog(opts.Log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	r.HandleFunc("/files", muxInvoke(fns.ListObjects)).Methods("GET", "OPTIONS")
	r.HandleFunc("/files/", muxInvoke(fns.ListObjects)).Methods("GET", "OPTIONS")
	r.HandleFunc("/files/{folder:.+}", muxInvoke(fns.ListObjects)).Methods("GET", "OPTIONS")
	r.HandleFunc("/folders", muxInvoke(fns.ListFolders)).Methods("GET", "OPTIONS")
	r.HandleFunc("/download/{file_key:.*}", muxInvoke(fns.GenerateDownloadURL)).Methods("GET", "OPTIONS")
	r.HandleFunc("/upload/{file_key:.*}", muxInvoke(fns.GenerateUploadURL)).Methods("GET", "OPTIONS")

	return r
}

func muxInvoke(handler function.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := function.Request{
			PathParameters:        mux.Vars(r),
			QueryStringParameters: make(map[string]string),
		}
		for name, values := range r.URL.Query() {
			if len(values) > 0 {
				req.QueryStringParameters[name] = values[0]
			}
		}

		writeResponse(w, handler(r.Context(), req))
	}
}
