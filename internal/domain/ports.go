package domain

import "context"

// InfoClient fetches tourist information in one fixed language.
type InfoClient interface {
	GetTouristInformation(ctx context.Context, sightID int64) (TouristInformation, error)
}

// TranslationProvider is an external machine-translation backend.
// Source is always SourceLanguage.
type TranslationProvider interface {
	Translate(ctx context.Context, text string, target Language) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
