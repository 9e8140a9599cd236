package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"sightseeing_ms/internal/catalog"
	"sightseeing_ms/internal/domain"
	"sightseeing_ms/internal/vision"
)

// Predictor is satisfied by *vision.Classifier.
type Predictor interface {
	Predict(tensor []float32) (domain.Prediction, error)
}

// RecognitionService runs photo -> label -> tourist information.
type RecognitionService struct {
	predictor Predictor
	catalog   *catalog.Catalog
	clients   map[domain.Language]domain.InfoClient
}

// NewRecognitionService needs one InfoClient per supported language.
func NewRecognitionService(p Predictor, c *catalog.Catalog, clients map[domain.Language]domain.InfoClient) (*RecognitionService, error) {
	if p == nil || c == nil {
		return nil, fmt.Errorf("recognition service needs a predictor and a catalog")
	}
	for _, lang := range domain.Languages {
		if clients[lang] == nil {
			return nil, fmt.Errorf("no tourist information client for %q", lang)
		}
	}
	return &RecognitionService{predictor: p, catalog: c, clients: clients}, nil
}

func (s *RecognitionService) client(lang domain.Language) (domain.InfoClient, error) {
	cl, ok := s.clients[lang]
	if !ok || !lang.Supported() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, lang)
	}
	return cl, nil
}

// Sights lists the recognizable landmarks in class index order.
func (s *RecognitionService) Sights() []string { return s.catalog.Labels.Names() }

// Recognize classifies the photo in r and fetches information about the predicted sight.
// An empty or nil reader yields ErrNoInput.
func (s *RecognitionService) Recognize(ctx context.Context, r io.Reader, lang domain.Language) (domain.RecognitionResult, error) {
	cl, err := s.client(lang)
	if err != nil {
		return domain.RecognitionResult{}, err
	}
	if r == nil {
		return domain.RecognitionResult{}, domain.ErrNoInput
	}
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.RecognitionResult{}, domain.ErrNoInput
		}
		return domain.RecognitionResult{}, fmt.Errorf("read image: %w", err)
	}

	tensor, err := vision.DecodeAndPreprocess(br)
	if err != nil {
		return domain.RecognitionResult{}, err
	}
	pred, err := s.predictor.Predict(tensor)
	if err != nil {
		return domain.RecognitionResult{}, err
	}

	id, info, err := s.lookup(ctx, cl, pred.Label)
	if err != nil {
		return domain.RecognitionResult{}, err
	}
	log.Info().
		Str("label", pred.Label).
		Float32("confidence", pred.Confidence).
		Int64("sight_id", id).
		Str("lang", lang.String()).
		Msg("sight recognized")
	return domain.RecognitionResult{Prediction: pred, SightID: id, Information: info}, nil
}

// Information fetches tourist information for a known label without an image.
func (s *RecognitionService) Information(ctx context.Context, label string, lang domain.Language) (int64, domain.TouristInformation, error) {
	cl, err := s.client(lang)
	if err != nil {
		return 0, domain.TouristInformation{}, err
	}
	return s.lookup(ctx, cl, label)
}

func (s *RecognitionService) lookup(ctx context.Context, cl domain.InfoClient, label string) (int64, domain.TouristInformation, error) {
	id, ok := s.catalog.Sights.ID(label)
	if !ok {
		return 0, domain.TouristInformation{}, fmt.Errorf("%w: %q", domain.ErrUnknownSight, label)
	}
	info, err := cl.GetTouristInformation(ctx, id)
	if err != nil {
		return 0, domain.TouristInformation{}, err
	}
	return id, info, nil
}
