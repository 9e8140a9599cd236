// internal/adapters/dataportal/client.go
package dataportal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	DefaultBaseURL = "https://www.datenportal-muensterland.de/api/v1"
	DefaultTimeout = 60 * time.Second

	appendTranslations = "all_translations_grouped"
)

type Options struct {
	BaseURL  string
	Token    string
	Language domain.Language
	RPS      int           // client-side limit; <= 0 disables it
	Timeout  time.Duration // defaults to DefaultTimeout

	HTTPClient *http.Client // optional, mainly for tests
}

// Client reads POIs from the Datenportal Münsterland in one fixed language.
// Each call is a single attempt; failures are returned, never retried.
type Client struct {
	base  string
	hc    *http.Client
	token string
	lang  domain.Language
	rl    *rate.Limiter
}

func New(o Options) (*Client, error) {
	if !o.Language.Supported() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, o.Language)
	}
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
	c := &Client{base: base, hc: hc, token: o.Token, lang: o.Language}
	if o.RPS > 0 {
		c.rl = rate.NewLimiter(rate.Limit(o.RPS), o.RPS)
	}
	return c, nil
}

func (c *Client) Language() domain.Language { return c.lang }

// GetTouristInformation fetches POI sightID and maps it into the validated value object.
func (c *Client) GetTouristInformation(ctx context.Context, sightID int64) (domain.TouristInformation, error) {
	u := fmt.Sprintf("%s/pois/%d", c.base, sightID)
	if !c.lang.IsSource() {
		u += "?" + url.Values{"append": {appendTranslations}}.Encode()
	}

	var resp poiResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return domain.TouristInformation{}, err
	}
	if resp.Data == nil {
		return domain.TouristInformation{}, fmt.Errorf("%w: %s has no data object", domain.ErrInvalidResponse, u)
	}
	info, err := mapTouristInformation(resp.Data, c.lang)
	if err != nil {
		return domain.TouristInformation{}, fmt.Errorf("poi %d: %w", sightID, err)
	}
	return info, nil
}

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	URL        string
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dataportal: GET %s: %d %s", e.URL, e.StatusCode, e.Reason)
}

// Unwrap maps well-known statuses onto the domain sentinels.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	}
	return nil
}

// ---- Internals ----

func (c *Client) get(ctx context.Context, u string, out any) error {
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Basic "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "sightseeing-ms/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("dataportal", "pois", 0, time.Since(start))
		log.Error().Err(err).Str("url", u).Msg("dataportal request failed")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: GET %s: %w", domain.ErrUpstream, u, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("dataportal", "pois", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		se := &StatusError{URL: u, StatusCode: resp.StatusCode, Reason: reason(resp)}
		log.Error().
			Str("url", u).
			Int("status", se.StatusCode).
			Str("reason", se.Reason).
			Str("body", strings.TrimSpace(string(b))).
			Msg("dataportal returned non-success status")
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body from %s", domain.ErrInvalidResponse, u)
		}
		return fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidResponse, u, err)
	}
	return nil
}

// reason extracts the reason phrase from "404 Not Found".
func reason(resp *http.Response) string {
	if r := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); r != "" {
		return r
	}
	return http.StatusText(resp.StatusCode)
}
