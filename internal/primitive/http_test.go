package primitive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPConfigFromMap_TimeoutSHonored(t *testing.T) {
	c, err := HTTPConfigFromMap(map[string]interface{}{
		"url":       "https://example.com",
		"timeout_s": float64(5),
	})
	if err != nil {
		t.Fatalf("HTTPConfigFromMap() error: %v", err)
	}
	if c.TimeoutS != 5 {
		t.Errorf("TimeoutS = %d, want 5", c.TimeoutS)
	}
}

func TestHTTPConfigFromMap_TimeoutSDefault(t *testing.T) {
	c, err := HTTPConfigFromMap(map[string]interface{}{"url": "https://example.com"})
	if err != nil {
		t.Fatalf("HTTPConfigFromMap() error: %v", err)
	}
	if c.TimeoutS != 30 {
		t.Errorf("TimeoutS = %d, want default 30", c.TimeoutS)
	}
}

func TestHTTPConfigFromMap_MissingURL(t *testing.T) {
	if _, err := HTTPConfigFromMap(map[string]interface{}{}); err == nil {
		t.Error("HTTPConfigFromMap() with no url expected error, got nil")
	}
}

func TestHTTPClientPrimitive_ExecuteSync_TemplatesBody(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	config := &HTTPConfig{
		Method:   "POST",
		URL:      srv.URL,
		Body:     map[string]interface{}{"count": "{n}"},
		TimeoutS: 5,
		Retry:    RetryConfig{MaxAttempts: 1, Backoff: "fixed"},
	}
	p := NewHTTPClientPrimitive()
	result := p.Execute(context.Background(), config, map[string]interface{}{"mode": "sync", "n": float64(5)})

	if !result.Success {
		t.Fatalf("Success = false, want true (error: %s)", result.Error)
	}
	if gotBody["count"] != float64(5) {
		t.Errorf("request body count = %v (%T), want templated value 5", gotBody["count"], gotBody["count"])
	}
}

func TestHTTPClientPrimitive_ExecuteSync_MissingTemplateParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached when templating fails")
	}))
	defer srv.Close()

	config := &HTTPConfig{
		Method:   "POST",
		URL:      srv.URL,
		Body:     map[string]interface{}{"count": "{n}"},
		TimeoutS: 5,
		Retry:    RetryConfig{MaxAttempts: 1, Backoff: "fixed"},
	}
	p := NewHTTPClientPrimitive()
	result := p.Execute(context.Background(), config, map[string]interface{}{"mode": "sync"})

	if result.Success {
		t.Error("Success = true, want false when a template param is missing")
	}
}

func TestHTTPClientPrimitive_ExecuteSync_GETNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	config := &HTTPConfig{Method: "GET", URL: srv.URL, TimeoutS: 5, Retry: RetryConfig{MaxAttempts: 1, Backoff: "fixed"}}
	p := NewHTTPClientPrimitive()
	result := p.Execute(context.Background(), config, map[string]interface{}{"mode": "sync"})

	if !result.Success {
		t.Fatalf("Success = false, want true (error: %s)", result.Error)
	}
	if result.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", result.StatusCode)
	}
}
