package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	server "sightseeing_ms/internal/adapters/http_server"
	"sightseeing_ms/internal/adapters/observability"
	"sightseeing_ms/internal/adapters/onnx"
	"sightseeing_ms/internal/app"
	"sightseeing_ms/internal/bootstrap"
	"sightseeing_ms/internal/shared"
)

func main() {
	shared.LoadDotEnv()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := shared.SignalContext(context.Background())
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	recognition, clf, err := bootstrap.Recognition(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("recognition pipeline setup failed")
	}
	defer onnx.Shutdown()
	defer clf.Close()

	cache, closeCache, err := bootstrap.TranslationCache(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("translation cache setup failed")
	}
	defer closeCache()

	ui := app.NewUIService(bootstrap.Translation(cfg, cache))
	go ui.Warm(ctx)

	// http
	srv := server.New(cfg.HTTPTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{R: recognition, UI: ui})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown")
		}
	}
	log.Info().Msg("API stopped")
}
