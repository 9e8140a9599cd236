package app

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"sightseeing_ms/internal/domain"
)

// TranslationService translates static strings out of the source language.
// Results are cached per (text, language); without a TTL they never expire.
type TranslationService struct {
	provider domain.TranslationProvider
	cache    domain.Cache
	group    singleflight.Group
	parallel int
	ttlSec   int
}

// flightTimeout bounds one shared provider call.
const flightTimeout = 30 * time.Second

func NewTranslationService(p domain.TranslationProvider, c domain.Cache) *TranslationService {
	return &TranslationService{provider: p, cache: c, parallel: 4}
}

// WithTTL bounds the lifetime of cached translations. Zero disables expiry.
func (s *TranslationService) WithTTL(d time.Duration) *TranslationService {
	s.ttlSec = int(d / time.Second)
	return s
}

func cacheKey(text string, lang domain.Language) string {
	sum := sha1.Sum([]byte(text))
	return fmt.Sprintf("translation:%s:%s", lang, hex.EncodeToString(sum[:]))
}

// Translate returns text unchanged for the source language and fails with
// ErrUnsupportedLanguage outside the supported set. Provider errors are
// returned as-is and never cached.
func (s *TranslationService) Translate(ctx context.Context, text string, lang domain.Language) (string, error) {
	if !lang.Supported() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, lang)
	}
	if lang.IsSource() {
		return text, nil
	}

	key := cacheKey(text, lang)
	var cached string
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("translation cache read failed")
	} else if ok {
		return cached, nil
	}

	// Concurrent misses for the same key share one provider call. The flight
	// outlives any single caller, so a canceled caller only stops waiting.
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		out, err := s.provider.Translate(fctx, text, lang)
		if err != nil {
			return "", err
		}
		if err := s.cache.Set(fctx, key, out, s.ttlSec); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("translation cache write failed")
		}
		return out, nil
	})
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("translate to %s: %w", lang, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("translate to %s: %w", lang, res.Err)
		}
		return res.Val.(string), nil
	}
}

// TranslateAll translates texts with bounded parallelism, preserving order.
func (s *TranslationService) TranslateAll(ctx context.Context, texts []string, lang domain.Language) ([]string, error) {
	out := make([]string, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			tr, err := s.Translate(gctx, text, lang)
			if err != nil {
				return err
			}
			out[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
