// Package mymemory calls the MyMemory machine-translation API.
package mymemory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"sightseeing_ms/internal/adapters/observability"
	"sightseeing_ms/internal/domain"
)

const (
	DefaultBaseURL = "https://api.mymemory.translated.net"
	DefaultTimeout = 30 * time.Second

	// maxQueryBytes is the free-tier limit per request.
	maxQueryBytes = 500
)

var ErrTranslationFailed = errors.New("mymemory: translation failed")

type Options struct {
	BaseURL string
	Email   string // optional; raises the anonymous daily quota
	RPS     int
	Timeout time.Duration

	HTTPClient *http.Client
}

type Client struct {
	base  string
	email string
	hc    *http.Client
	rl    *rate.Limiter
}

func New(o Options) *Client {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	c := &Client{base: base, email: o.Email, hc: hc}
	if o.RPS > 0 {
		c.rl = rate.NewLimiter(rate.Limit(o.RPS), o.RPS)
	}
	return c
}

type response struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  status `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
	QuotaFinished   bool   `json:"quotaFinished"`
}

// status is sent as a number on success and sometimes as a string on errors.
type status int

func (s *status) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("responseStatus %s: %w", b, err)
	}
	*s = status(n)
	return nil
}

// Translate translates text from the source language into target.
func (c *Client) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if len(text) > maxQueryBytes {
		return "", fmt.Errorf("%w: text is %d bytes, limit is %d", ErrTranslationFailed, len(text), maxQueryBytes)
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", domain.SourceLanguage.String()+"|"+target.String())
	if c.email != "" {
		q.Set("de", c.email)
	}
	u := c.base + "/get?" + q.Encode()

	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return "", err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sightseeing-ms/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("mymemory", "get", 0, time.Since(start))
		log.Error().Err(err).Str("target", target.String()).Msg("translation request failed")
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("mymemory", "get", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error().
			Int("status", resp.StatusCode).
			Str("reason", http.StatusText(resp.StatusCode)).
			Str("body", strings.TrimSpace(string(b))).
			Msg("translation service returned non-success status")
		return "", fmt.Errorf("%w: status %d", ErrTranslationFailed, resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrTranslationFailed, err)
	}
	if out.ResponseStatus != http.StatusOK || out.QuotaFinished {
		log.Error().
			Int("status", int(out.ResponseStatus)).
			Str("details", out.ResponseDetails).
			Bool("quota_finished", out.QuotaFinished).
			Msg("translation rejected")
		return "", fmt.Errorf("%w: %d %s", ErrTranslationFailed, out.ResponseStatus, out.ResponseDetails)
	}
	translated := html.UnescapeString(out.ResponseData.TranslatedText)
	if strings.TrimSpace(translated) == "" {
		return "", fmt.Errorf("%w: empty translation", ErrTranslationFailed)
	}
	return translated, nil
}
