// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/andresuchdata/bucket-gateway/internal/api/middleware"
	"github.com/andresuchdata/bucket-gateway/internal/domain"
	"github.com/andresuchdata/bucket-gateway/internal/function"
)

type Options struct {
	AllowedOrigins []string
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Log      zerolog.Logger
}

func NewRouter(fns *function.Functions, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(opts.Log),
		middleware.Recovery(opts.Log),
		cors.New(corsConfig(opts.AllowedOrigins)),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	router.GET("/files/*folder", invoke(fns.ListObjects))
	router.GET("/folders", invoke(fns.ListFolders))
	router.GET("/download/*file_key", invoke(fns.GenerateDownloadURL))
	router.GET("/upload/*file_key", invoke(fns.GenerateUploadURL))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, domain.ErrorBody{Error: "route not found"})
	})

	return router
}

// invoke adapts a function to gin. Catch-all parameters arrive with a leading
// slash, which is not part of the key.
func invoke(handler function.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := function.Request{
			PathParameters:        make(map[string]string, len(c.Params)),
			QueryStringParameters: make(map[string]string),
		}
		for _, p := range c.Params {
			req.PathParameters[p.Key] = strings.TrimPrefix(p.Value, "/")
		}
		for name, values := range c.Request.URL.Query() {
			if len(values) > 0 {
				req.QueryStringParameters[name] = values[0]
			}
		}

		writeResponse(c.Writer, handler(c.Request.Context(), req))
	}
}

func writeResponse(w http.ResponseWriter, resp function.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write([]byte(resp.Body))
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	return corsConfig
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
