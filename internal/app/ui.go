package app

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"sightseeing_ms/internal/domain"
)

// UIStrings are the static page texts, authored in the source language.
var UIStrings = map[string]string{
	"title":              "Willkommen zur Sightseeing Münster App!",
	"subtitle":           "Finde Informationen zu Münsteraner Sehenswürdigkeiten mit nur einem Foto!",
	"instructions":       "Du kannst entweder ein vorhandenes Bild hochladen, oder selbst ein Foto mit der Kamera aufnehmen. Ein neuronales Netz erkennt das von dir hochgeladene Foto und gibt dir passende Informationen zu der Sehenswürdigkeit auf dem Foto.",
	"upload_question":    "Wie möchtest du ein Foto hochladen?",
	"upload_file":        "Bild hochladen",
	"upload_camera":      "Foto aufnehmen",
	"file_prompt":        "Lade ein Bild hoch",
	"camera_prompt":      "Nehme ein Foto mit deiner Kamera auf.",
	"uploaded_title":     "Hier ist das Bild, das du hochgeladen hast:",
	"camera_title":       "Hier ist das Foto, das du aufgenommen hast:",
	"recognizing":        "Erkenne Sehenswürdigkeit",
	"loading":            "Lade Informationen",
	"prediction_heading": "Du stehst wahrscheinlich vor dem:",
	"info_heading":       "Hier sind einige Informationen zu der Sehenswürdigkeit:",
	"description":        "Beschreibung",
	"address":            "Adresse",
	"contact":            "Kontakt",
	"phone":              "Telefonnummer",
	"email":              "E-Mail",
	"website":            "Website",
	"more_information":   "Weitere Informationen",
}

type UIService struct {
	tr   *TranslationService
	keys []string
}

func NewUIService(tr *TranslationService) *UIService {
	keys := make([]string, 0, len(UIStrings))
	for k := range UIStrings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &UIService{tr: tr, keys: keys}
}

// Strings returns every UI string in lang, keyed by id.
func (s *UIService) Strings(ctx context.Context, lang domain.Language) (map[string]string, error) {
	texts := make([]string, len(s.keys))
	for i, k := range s.keys {
		texts[i] = UIStrings[k]
	}
	translated, err := s.tr.TranslateAll(ctx, texts, lang)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(s.keys))
	for i, k := range s.keys {
		out[k] = translated[i]
	}
	return out, nil
}

// Warm pre-translates the UI strings for every non-source language.
// Failures are logged; the strings are translated lazily on the next request.
func (s *UIService) Warm(ctx context.Context) {
	for _, lang := range domain.Languages {
		if lang.IsSource() {
			continue
		}
		start := time.Now()
		if _, err := s.Strings(ctx, lang); err != nil {
			log.Warn().Err(err).Str("lang", lang.String()).Msg("warming ui translations failed")
			continue
		}
		log.Info().Str("lang", lang.String()).Dur("took", time.Since(start)).Msg("ui translations warm")
	}
}
