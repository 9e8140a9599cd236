// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"sightseeing_ms/internal/adapters/dataportal"
	"sightseeing_ms/internal/adapters/mymemory"
	"sightseeing_ms/internal/domain"
	"sightseeing_ms/internal/vision"
)

// MaxUploadBytes bounds the multipart body of POST /v1/recognize.
const MaxUploadBytes = 10 << 20

// Recognizer is satisfied by *app.RecognitionService.
type Recognizer interface {
	Recognize(ctx context.Context, r io.Reader, lang domain.Language) (domain.RecognitionResult, error)
	Information(ctx context.Context, label string, lang domain.Language) (int64, domain.TouristInformation, error)
	Sights() []string
}

// UITranslator is satisfied by *app.UIService.
type UITranslator interface {
	Strings(ctx context.Context, lang domain.Language) (map[string]string, error)
}

type Handlers struct {
	R  Recognizer
	UI UITranslator
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type languagesResponse struct {
	Source    domain.Language   `json:"source"`
	Supported []domain.Language `json:"supported"`
}

type sightsResponse struct {
	Sights []string `json:"sights"`
}

type sightResponse struct {
	Label       string                    `json:"label"`
	SightID     int64                     `json:"sight_id"`
	Information domain.TouristInformation `json:"information"`
}

type uiResponse struct {
	Language domain.Language   `json:"language"`
	Strings  map[string]string `json:"strings"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/languages", h.languages)
		r.Get("/sights", h.listSights)
		r.Get("/sights/{label}", h.getSight)
		r.Post("/recognize", h.recognize)
		r.Get("/ui", h.uiStrings)
	})
}

// selectLang takes ?lang= strictly; otherwise the first supported
// Accept-Language entry, otherwise the source language.
func selectLang(r *http.Request) (domain.Language, error) {
	if q := r.URL.Query().Get("lang"); q != "" {
		return domain.ParseLanguage(q)
	}
	for _, part := range strings.Split(r.Header.Get("Accept-Language"), ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		primary, _, _ := strings.Cut(tag, "-")
		if lang, err := domain.ParseLanguage(primary); err == nil {
			return lang, nil
		}
	}
	return domain.SourceLanguage, nil
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain and adapter errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		title  string
		detail = err.Error()
		se     *dataportal.StatusError
		mbe    *http.MaxBytesError
	)
	switch {
	case errors.Is(err, domain.ErrUnsupportedLanguage):
		status, title = http.StatusBadRequest, "Unsupported language"
	case errors.Is(err, domain.ErrNoInput):
		status, title = http.StatusBadRequest, "No image"
		detail = `upload a photo in the multipart field "image"`
	case errors.As(err, &mbe):
		status, title = http.StatusRequestEntityTooLarge, "Image too large"
	case errors.Is(err, vision.ErrInvalidImage):
		status, title = http.StatusUnprocessableEntity, "Invalid image"
	case errors.Is(err, domain.ErrUnknownSight), errors.Is(err, domain.ErrNotFound):
		status, title = http.StatusNotFound, "Not Found"
	case errors.Is(err, context.DeadlineExceeded):
		status, title = http.StatusGatewayTimeout, "Upstream timeout"
	case errors.As(err, &se),
		errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrInvalidResponse),
		errors.Is(err, domain.ErrUpstream),
		errors.Is(err, mymemory.ErrTranslationFailed):
		status, title = http.StatusBadGateway, "Bad Gateway"
	default:
		status, title = http.StatusInternalServerError, "Internal Server Error"
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	writeProblem(w, status, title, detail)
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// etagMatches applies the weak comparison of If-None-Match: a list of tags or "*".
func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == want {
			return true
		}
	}
	return false
}

// writeCacheable writes v as JSON with an ETag and answers If-None-Match with 304.
func writeCacheable(w http.ResponseWriter, r *http.Request, lang domain.Language, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "encoding failed")
		return
	}
	w.Header().Set("ETag", etag)
	if lang != "" {
		w.Header().Set("Content-Language", lang.String())
	}
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) languages(w http.ResponseWriter, r *http.Request) {
	writeCacheable(w, r, "", languagesResponse{Source: domain.SourceLanguage, Supported: domain.Languages})
}

func (h *Handlers) listSights(w http.ResponseWriter, r *http.Request) {
	writeCacheable(w, r, "", sightsResponse{Sights: h.R.Sights()})
}

func (h *Handlers) getSight(w http.ResponseWriter, r *http.Request) {
	lang, err := selectLang(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	label := chi.URLParam(r, "label")
	id, info, err := h.R.Information(r.Context(), label, lang)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, lang, sightResponse{Label: label, SightID: id, Information: info})
}

func (h *Handlers) recognize(w http.ResponseWriter, r *http.Request) {
	lang, err := selectLang(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	file, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		writeError(w, r, domain.ErrNoInput)
		return
	case err != nil:
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, err)
			return
		}
		writeProblem(w, http.StatusBadRequest, "Invalid upload", err.Error())
		return
	}
	defer file.Close()

	res, err := h.R.Recognize(r.Context(), file, lang)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Language", lang.String())
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.Error().Err(err).Msg("failed to write recognize body")
	}
}

func (h *Handlers) uiStrings(w http.ResponseWriter, r *http.Request) {
	lang, err := selectLang(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	strs, err := h.UI.Strings(r.Context(), lang)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, lang, uiResponse{Language: lang, Strings: strs})
}
