package mymemory_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sightseeing_ms/internal/adapters/mymemory"
	"sightseeing_ms/internal/domain"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "success",
			status: 200,
			body:   `{"responseData":{"translatedText":"Welcome to the Sightseeing M&#252;nster app!"},"responseStatus":200}`,
			want:   "Welcome to the Sightseeing Münster app!",
		},
		{
			name:    "rejected with string status",
			status:  200,
			body:    `{"responseData":{"translatedText":"INVALID LANGUAGE PAIR"},"responseStatus":"403","responseDetails":"INVALID LANGUAGE PAIR"}`,
			wantErr: true,
		},
		{
			name:    "quota finished",
			status:  200,
			body:    `{"responseData":{"translatedText":"MYMEMORY WARNING"},"responseStatus":200,"quotaFinished":true}`,
			wantErr: true,
		},
		{name: "http error", status: 503, body: `oops`, wantErr: true},
		{name: "not json", status: 200, body: `<html>`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs := make(chan *http.Request, 1)
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reqs <- r
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			cl := mymemory.New(mymemory.Options{BaseURL: ts.URL, Email: "ops@example.org", RPS: 100})
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			got, err := cl.Translate(ctx, "Willkommen zur Sightseeing Münster App!", domain.English)
			r := <-reqs
			if r.URL.Path != "/get" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("langpair") != "de|en" || q.Get("q") != "Willkommen zur Sightseeing Münster App!" || q.Get("de") != "ops@example.org" {
				t.Fatalf("unexpected query %v", q)
			}
			if tt.wantErr {
				if !errors.Is(err, mymemory.ErrTranslationFailed) {
					t.Fatalf("expected ErrTranslationFailed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestTranslate_BlankAndOversized(t *testing.T) {
	cl := mymemory.New(mymemory.Options{BaseURL: "http://127.0.0.1:1"})
	if got, err := cl.Translate(context.Background(), "  ", domain.Dutch); err != nil || got != "  " {
		t.Fatalf("blank text must pass through without a call: %q, %v", got, err)
	}
	if _, err := cl.Translate(context.Background(), strings.Repeat("a", 501), domain.Dutch); !errors.Is(err, mymemory.ErrTranslationFailed) {
		t.Fatalf("expected size error, got %v", err)
	}
}
