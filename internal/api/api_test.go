package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGETSendsDefaultHeaders(t *testing.T) {
	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithHeaders(YahooFinanceHeaders()), WithHeader("Referer", "https://example.com/"))
	resp, err := c.GET(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var body struct{ OK bool }
	if err := resp.ParseJSON(&body); err != nil || !body.OK {
		t.Errorf("Expected ok body, got %+v (%v)", body, err)
	}
	if gotUA == "" {
		t.Error("Expected User-Agent header")
	}
	if gotReferer != "https://example.com/" {
		t.Errorf("Expected WithHeader to override preset, got %q", gotReferer)
	}
}

func TestPOSTEncodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %q", ct)
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["text"]})
	}))
	defer srv.Close()

	resp, err := NewClient().POST(context.Background(), srv.URL, map[string]string{"text": "hi"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var out map[string]string
	if err := resp.ParseJSON(&out); err != nil || out["echo"] != "hi" {
		t.Errorf("Expected echo hi, got %v (%v)", out, err)
	}
}

func TestStatusError(t *testing.T) {
	cases := []struct {
		code      int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusNotFound, false},
		{http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.code)
			w.Write([]byte("nope"))
		}))

		_, err := NewClient(WithSource("test")).GET(context.Background(), srv.URL)
		srv.Close()

		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("Expected StatusError for %d, got %v", tc.code, err)
		}
		if se.Code != tc.code || se.Source != "test" || se.Body != "nope" {
			t.Errorf("Unexpected error fields %+v", se)
		}
		if se.Retryable() != tc.retryable {
			t.Errorf("Expected retryable=%v for %d", tc.retryable, tc.code)
		}
	}
}

func TestRateLimitRespectsContext(t *testing.T) {
	c := NewClient(WithRateLimit(0.001))
	c.limiter.Allow() // drain the single token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GET(ctx, "http://127.0.0.1:0"); err == nil {
		t.Error("Expected error from canceled context")
	}
}
