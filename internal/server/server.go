// Package server wires the analysis pipeline behind an HTTP surface. It is
// one of the external collaborators around the core: all parsing and I/O
// happens here, and the core only ever sees materialized immutable values.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/coastal-risk/internal/analysis"
	"github.com/mohammed-shakir/coastal-risk/internal/config"
	"github.com/mohammed-shakir/coastal-risk/internal/featurecache"
	"github.com/mohammed-shakir/coastal-risk/internal/health"
	"github.com/mohammed-shakir/coastal-risk/internal/invalidation/kafkaconsumer"
	imw "github.com/mohammed-shakir/coastal-risk/internal/middleware"
	"github.com/mohammed-shakir/coastal-risk/internal/observability"
	"github.com/mohammed-shakir/coastal-risk/internal/osm"
	"github.com/mohammed-shakir/coastal-risk/internal/reportstore"
)

type Server struct {
	cfg    config.Config
	log    zerolog.Logger
	runner *analysis.Runner
	infra  *osm.Client
	store  *reportstore.Store
}

func Run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	cache, err := buildCache(ctx, cfg)
	if err != nil {
		return err
	}

	infra := osm.New(cfg.OverpassURL, cfg.OverpassTimeout,
		osm.WithCache(cache, cfg.CacheTTL),
		osm.WithTileRes(cfg.TileRes),
		osm.WithLogger(log),
	)

	srv := &Server{
		cfg:    cfg,
		log:    log,
		runner: analysis.NewRunner(log),
		infra:  infra,
	}

	if cfg.PostgresDSN != "" {
		store, err := reportstore.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Init(ctx); err != nil {
			return err
		}
		srv.store = store
	}

	if cfg.Invalidation.Enabled {
		consumer := kafkaconsumer.New(
			kafkaconsumer.DefaultConfig(cfg.Invalidation.Brokers, cfg.Invalidation.Topic, cfg.Invalidation.GroupID),
			log, cache, infra, infra.Filter(),
		)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("invalidation consumer stopped")
			}
		}()
	}

	r := chi.NewRouter()
	r.Use(imw.Recover(log))
	r.Use(imw.RequestID())
	r.Use(imw.Logging(log))

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness())
	r.Method(http.MethodGet, "/metrics", observability.Handler())
	r.Post("/analyze", srv.handleAnalyze)
	r.Get("/reports", srv.handleReports)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http listen")
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func buildCache(ctx context.Context, cfg config.Config) (featurecache.Cache, error) {
	switch cfg.CacheDriver {
	case "redis":
		return featurecache.NewRedis(ctx, cfg.RedisAddr, cfg.CacheTTL)
	default:
		return featurecache.NewLRU(cfg.CacheLRUSize, cfg.CacheTTL), nil
	}
}
