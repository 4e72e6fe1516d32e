package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/andresuchdata/bucket-gateway/internal/api"
	"github.com/andresuchdata/bucket-gateway/internal/config"
	"github.com/andresuchdata/bucket-gateway/internal/function"
	"github.com/andresuchdata/bucket-gateway/internal/metrics"
	"github.com/andresuchdata/bucket-gateway/internal/storage"
	"github.com/andresuchdata/bucket-gateway/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.SetFormat(cfg.Log.Format)
	logger.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize storage client")
	}

	observer, err := metrics.NewInvocationObserver("", nil)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	fns := function.New(store, config.BucketFrom(viper.GetViper()), logger.Log, function.WithObserver(observer))
	r := api.NewMuxRouter(fns, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Gatherer:       prometheus.DefaultGatherer,
		Log:            logger.Log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	if err := api.Serve(ctx, srv, logger.Log); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server stopped")
	}
}
