package debugserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/config"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

func TestHealthzReportsDownWhenBrowserNotStarted(t *testing.T) {
	reg := tool.NewRegistry()
	launcher := browser.NewLauncher(config.BrowserConfig{})
	s := New(reg, launcher)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before Start(), got %d", rec.Code)
	}
	var body healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.OK {
		t.Fatal("expected ok=false")
	}
}

func TestMetricsEndpointServesPrometheusText(t *testing.T) {
	reg := tool.NewRegistry()
	launcher := browser.NewLauncher(config.BrowserConfig{})
	s := New(reg, launcher)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestShutdownWithoutListenIsNoop(t *testing.T) {
	reg := tool.NewRegistry()
	launcher := browser.NewLauncher(config.BrowserConfig{})
	s := New(reg, launcher)

	if err := s.Shutdown(0); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
