package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sightseeing_ms/internal/adapters/dataportal"
	httpserver "sightseeing_ms/internal/adapters/http_server"
	"sightseeing_ms/internal/domain"
	"sightseeing_ms/internal/vision"
)

// ---- fakes ----

type fakeRecognizer struct {
	recognizeErr error
	infoErr      error
	gotLang      domain.Language
	gotBody      []byte
}

func (f *fakeRecognizer) Recognize(ctx context.Context, r io.Reader, lang domain.Language) (domain.RecognitionResult, error) {
	f.gotLang = lang
	b, _ := io.ReadAll(r)
	f.gotBody = b
	if f.recognizeErr != nil {
		return domain.RecognitionResult{}, f.recognizeErr
	}
	if len(b) == 0 {
		return domain.RecognitionResult{}, domain.ErrNoInput
	}
	return domain.RecognitionResult{
		Prediction:  domain.Prediction{Label: "St. Paulus Dom", Index: 1, Confidence: 0.97},
		SightID:     4711,
		Information: domain.TouristInformation{Name: "St.-Paulus-Dom", Language: lang.String()},
	}, nil
}

func (f *fakeRecognizer) Information(ctx context.Context, label string, lang domain.Language) (int64, domain.TouristInformation, error) {
	f.gotLang = lang
	if f.infoErr != nil {
		return 0, domain.TouristInformation{}, f.infoErr
	}
	if label != "St. Paulus Dom" {
		return 0, domain.TouristInformation{}, fmt.Errorf("%w: %q", domain.ErrUnknownSight, label)
	}
	return 4711, domain.TouristInformation{Name: "St.-Paulus-Dom", Language: lang.String()}, nil
}

func (f *fakeRecognizer) Sights() []string { return []string{"Aasee", "St. Paulus Dom"} }

type fakeUI struct{}

func (fakeUI) Strings(ctx context.Context, lang domain.Language) (map[string]string, error) {
	if !lang.Supported() {
		return nil, domain.ErrUnsupportedLanguage
	}
	return map[string]string{"address": "[" + lang.String() + "] Adresse"}, nil
}

func newTestServer(t *testing.T, rec *fakeRecognizer) *httptest.Server {
	t.Helper()
	srv := httpserver.New(0)
	srv.MountHandlers(&httpserver.Handlers{R: rec, UI: fakeUI{}})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string, header map[string]string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func upload(t *testing.T, url, field string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "photo.jpg")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeProblem(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json, got %q", ct)
	}
	var p map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return p
}

func TestHealthzAndLanguages(t *testing.T) {
	ts := newTestServer(t, &fakeRecognizer{})

	if resp := get(t, ts.URL+"/healthz", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	resp := get(t, ts.URL+"/v1/languages", nil)
	var body struct {
		Source    string   `json:"source"`
		Supported []string `json:"supported"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Source != "de" || strings.Join(body.Supported, ",") != "de,en,nl" {
		t.Fatalf("unexpected languages %+v", body)
	}
}

func TestGetSight_ETagAndNotModified(t *testing.T) {
	ts := newTestServer(t, &fakeRecognizer{})
	url := ts.URL + "/v1/sights/St.%20Paulus%20Dom?lang=en"

	first := get(t, url, nil)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("status %d", first.StatusCode)
	}
	etag := first.Header.Get("ETag")
	if etag == "" || first.Header.Get("Content-Language") != "en" {
		t.Fatalf("missing headers: %v", first.Header)
	}
	var body struct {
		Label       string `json:"label"`
		SightID     int64  `json:"sight_id"`
		Information struct {
			Name     string `json:"name"`
			Language string `json:"language"`
		} `json:"information"`
	}
	if err := json.NewDecoder(first.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Label != "St. Paulus Dom" || body.SightID != 4711 || body.Information.Language != "en" {
		t.Fatalf("unexpected body %+v", body)
	}

	for _, inm := range []string{
		etag,
		`W/"stale", ` + etag,
		strings.TrimPrefix(etag, "W/"),
		"*",
	} {
		resp := get(t, url, map[string]string{"If-None-Match": inm})
		if resp.StatusCode != http.StatusNotModified {
			t.Fatalf("If-None-Match %q: expected 304, got %d", inm, resp.StatusCode)
		}
	}
	if resp := get(t, url, map[string]string{"If-None-Match": `W/"stale", W/"older"`}); resp.StatusCode != http.StatusOK {
		t.Fatalf("non-matching list: expected 200, got %d", resp.StatusCode)
	}
}

func TestSelectLanguage(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		accept string
		want   domain.Language
		status int
	}{
		{"default", "", "", domain.German, http.StatusOK},
		{"query wins", "?lang=nl", "en-US", domain.Dutch, http.StatusOK},
		{"query upper case", "?lang=EN", "", domain.English, http.StatusOK},
		{"accept prefix", "", "en-GB,en;q=0.9", domain.English, http.StatusOK},
		{"accept skips unsupported", "", "fr-FR,nl;q=0.8", domain.Dutch, http.StatusOK},
		{"accept none supported", "", "fr, es", domain.German, http.StatusOK},
		{"query unsupported", "?lang=fr", "", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecognizer{}
			ts := newTestServer(t, rec)
			h := map[string]string{}
			if tc.accept != "" {
				h["Accept-Language"] = tc.accept
			}
			resp := get(t, ts.URL+"/v1/sights/St.%20Paulus%20Dom"+tc.query, h)
			if resp.StatusCode != tc.status {
				t.Fatalf("status %d, want %d", resp.StatusCode, tc.status)
			}
			if tc.status == http.StatusOK && rec.gotLang != tc.want {
				t.Fatalf("lang %q, want %q", rec.gotLang, tc.want)
			}
		})
	}
}

func TestGetSight_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		label  string
		err    error
		status int
	}{
		{"unknown label", "Prinzipalmarkt", nil, http.StatusNotFound},
		{"poi missing upstream", "St.%20Paulus%20Dom", &dataportal.StatusError{StatusCode: 404, Reason: "Not Found"}, http.StatusNotFound},
		{"upstream 500", "St.%20Paulus%20Dom", &dataportal.StatusError{StatusCode: 500, Reason: "Internal Server Error"}, http.StatusBadGateway},
		{"bad token", "St.%20Paulus%20Dom", domain.ErrUnauthorized, http.StatusBadGateway},
		{"garbage payload", "St.%20Paulus%20Dom", domain.ErrInvalidResponse, http.StatusBadGateway},
		{"portal unreachable", "St.%20Paulus%20Dom", fmt.Errorf("%w: GET http://127.0.0.1:1/pois/4711: %w", domain.ErrUpstream, errors.New("connect: connection refused")), http.StatusBadGateway},
		{"unexpected", "St.%20Paulus%20Dom", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeRecognizer{infoErr: tc.err})
			resp := get(t, ts.URL+"/v1/sights/"+tc.label, nil)
			if resp.StatusCode != tc.status {
				t.Fatalf("status %d, want %d", resp.StatusCode, tc.status)
			}
			if p := decodeProblem(t, resp); int(p["status"].(float64)) != tc.status {
				t.Fatalf("problem status %v", p["status"])
			}
		})
	}
}

func TestRecognize(t *testing.T) {
	rec := &fakeRecognizer{}
	ts := newTestServer(t, rec)

	resp := upload(t, ts.URL+"/v1/recognize?lang=nl", "image", []byte("jpeg bytes"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var res domain.RecognitionResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Prediction.Label != "St. Paulus Dom" || res.SightID != 4711 || res.Information.Language != "nl" {
		t.Fatalf("unexpected result %+v", res)
	}
	if string(rec.gotBody) != "jpeg bytes" {
		t.Fatalf("recognizer saw %q", rec.gotBody)
	}
}

func TestRecognize_Errors(t *testing.T) {
	t.Run("missing field", func(t *testing.T) {
		ts := newTestServer(t, &fakeRecognizer{})
		resp := upload(t, ts.URL+"/v1/recognize", "photo", []byte("x"))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status %d", resp.StatusCode)
		}
		if p := decodeProblem(t, resp); p["title"] != "No image" {
			t.Fatalf("problem %v", p)
		}
	})
	t.Run("not multipart", func(t *testing.T) {
		ts := newTestServer(t, &fakeRecognizer{})
		resp, err := http.Post(ts.URL+"/v1/recognize", "text/plain", strings.NewReader("hi"))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status %d", resp.StatusCode)
		}
	})
	t.Run("empty file", func(t *testing.T) {
		ts := newTestServer(t, &fakeRecognizer{})
		if resp := upload(t, ts.URL+"/v1/recognize", "image", nil); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status %d", resp.StatusCode)
		}
	})
	t.Run("invalid image", func(t *testing.T) {
		ts := newTestServer(t, &fakeRecognizer{recognizeErr: fmt.Errorf("%w: unknown format", vision.ErrInvalidImage)})
		if resp := upload(t, ts.URL+"/v1/recognize", "image", []byte("x")); resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("status %d", resp.StatusCode)
		}
	})
	t.Run("unsupported language", func(t *testing.T) {
		rec := &fakeRecognizer{}
		ts := newTestServer(t, rec)
		if resp := upload(t, ts.URL+"/v1/recognize?lang=fr", "image", []byte("x")); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status %d", resp.StatusCode)
		}
		if rec.gotBody != nil {
			t.Fatalf("recognizer must not run")
		}
	})
}

func TestUIStrings(t *testing.T) {
	ts := newTestServer(t, &fakeRecognizer{})
	resp := get(t, ts.URL+"/v1/ui", map[string]string{"Accept-Language": "en"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body struct {
		Language string            `json:"language"`
		Strings  map[string]string `json:"strings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Language != "en" || body.Strings["address"] != "[en] Adresse" {
		t.Fatalf("unexpected body %+v", body)
	}
}
