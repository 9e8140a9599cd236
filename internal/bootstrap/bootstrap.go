// Package bootstrap builds the shared object graph for cmd/api and cmd/sightctl.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"sightseeing_ms/internal/adapters/dataportal"
	"sightseeing_ms/internal/adapters/memory"
	"sightseeing_ms/internal/adapters/mymemory"
	"sightseeing_ms/internal/adapters/onnx"
	redisad "sightseeing_ms/internal/adapters/redis"
	"sightseeing_ms/internal/app"
	"sightseeing_ms/internal/catalog"
	"sightseeing_ms/internal/domain"
	"sightseeing_ms/internal/shared"
	"sightseeing_ms/internal/vision"
)

// Catalog loads the label legend and sight ids.
func Catalog(cfg shared.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.LabelsPath, cfg.SightIDsPath)
	if err != nil {
		return nil, err
	}
	log.Info().Int("labels", cat.Labels.Len()).Int("sights", cat.Sights.Len()).Msg("catalog loaded")
	return cat, nil
}

// Classifier opens the ONNX model and checks its class dictionary against cat.
// The returned classifier owns the session; Close it on shutdown.
func Classifier(cfg shared.Config, cat *catalog.Catalog) (*vision.Classifier, error) {
	engine, err := onnx.New(onnx.Config{
		ModelPath:    cfg.ModelPath,
		MetadataPath: cfg.ModelMetadataPath,
		LibraryPath:  cfg.ORTLibraryPath,
		UseGPU:       cfg.UseGPU,
	})
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*vision.Classifier, error) {
		engine.Close()
		return nil, err
	}
	if n := engine.Metadata.InputLen(); n != vision.TensorLen {
		return fail(fmt.Errorf("model input has %d values, preprocessing produces %d", n, vision.TensorLen))
	}
	classes, err := engine.Metadata.Classes()
	if err != nil {
		return fail(err)
	}
	if err := cat.CheckModelLabels(classes); err != nil {
		return fail(err)
	}
	clf, err := vision.NewClassifier(engine, classes)
	if err != nil {
		return fail(err)
	}
	log.Info().
		Str("architecture", engine.Metadata.Architecture).
		Str("device", engine.Device).
		Int("classes", classes.Len()).
		Msg("classifier ready")
	return clf, nil
}

// InfoClients builds one Datenportal client per supported language.
func InfoClients(cfg shared.Config) (map[domain.Language]domain.InfoClient, error) {
	out := make(map[domain.Language]domain.InfoClient, len(domain.Languages))
	for _, lang := range domain.Languages {
		cl, err := dataportal.New(dataportal.Options{
			BaseURL:  cfg.DataportalURL,
			Token:    cfg.APIToken,
			Language: lang,
			RPS:      cfg.DataportalRPS,
		})
		if err != nil {
			return nil, err
		}
		out[lang] = cl
	}
	log.Info().Str("base", cfg.DataportalURL).Str("user", cfg.APIUsername).Msg("dataportal clients ready")
	return out, nil
}

// TranslationCache returns the configured backend and a close func.
// The redis backend must answer a ping before it is used.
func TranslationCache(ctx context.Context, cfg shared.Config) (domain.Cache, func(), error) {
	if cfg.TranslationCache != "redis" {
		return memory.New(), func() {}, nil
	}
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("redis translation cache ok")
	closeFn := func() {
		if err := rc.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	return rc, closeFn, nil
}

// Translation wires MyMemory behind the cache.
func Translation(cfg shared.Config, cache domain.Cache) *app.TranslationService {
	provider := mymemory.New(mymemory.Options{
		BaseURL: cfg.TranslateURL,
		Email:   cfg.TranslateEmail,
		RPS:     cfg.TranslateRPS,
	})
	return app.NewTranslationService(provider, cache).WithTTL(cfg.TranslationTTL)
}

// Recognition assembles the full pipeline. The caller closes the classifier.
func Recognition(cfg shared.Config) (*app.RecognitionService, *vision.Classifier, error) {
	cat, err := Catalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	clf, err := Classifier(cfg, cat)
	if err != nil {
		return nil, nil, err
	}
	clients, err := InfoClients(cfg)
	if err != nil {
		clf.Close()
		return nil, nil, err
	}
	svc, err := app.NewRecognitionService(clf, cat, clients)
	if err != nil {
		clf.Close()
		return nil, nil, err
	}
	return svc, clf, nil
}
