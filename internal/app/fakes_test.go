package app_test

import (
	"context"
	"errors"
	"sync"

	"sightseeing_ms/internal/domain"
)

// ---- fakes ----

type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int
	fail  error
}

func (f *fakeProvider) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[string(target)+"|"+text]++
	if f.fail != nil {
		return "", f.fail
	}
	return "[" + string(target) + "] " + text, nil
}

func (f *fakeProvider) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	return false, errCacheDown
}
func (brokenCache) Set(ctx context.Context, key string, v any, ttlSec int) error { return errCacheDown }
func (brokenCache) Del(ctx context.Context, key string) error                    { return errCacheDown }

type fakeInfoClient struct {
	lang  domain.Language
	infos map[int64]domain.TouristInformation
	err   error
	ids   []int64
}

func (f *fakeInfoClient) GetTouristInformation(ctx context.Context, sightID int64) (domain.TouristInformation, error) {
	f.ids = append(f.ids, sightID)
	if f.err != nil {
		return domain.TouristInformation{}, f.err
	}
	info, ok := f.infos[sightID]
	if !ok {
		return domain.TouristInformation{}, domain.ErrNotFound
	}
	info.Language = string(f.lang)
	return info, nil
}

type fakePredictor struct {
	pred  domain.Prediction
	err   error
	calls int
}

func (f *fakePredictor) Predict(tensor []float32) (domain.Prediction, error) {
	f.calls++
	return f.pred, f.err
}
