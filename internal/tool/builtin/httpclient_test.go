package builtin

import (
	"testing"
	"time"

	"github.com/AmirTlinov/browser-mcp/internal/config"
)

// ── httpGate unit tests ──────────────────────────────────────────────────

func TestHTTPGateAllowsUnrestrictedWhenEmpty(t *testing.T) {
	g := newHTTPGate(config.BrowserConfig{})
	if err := g.allow("anything.example.test"); err != nil {
		t.Fatalf("expected no allowlist to permit any host, got %v", err)
	}
}

func TestHTTPGateRejectsNonAllowedHost(t *testing.T) {
	g := newHTTPGate(config.BrowserConfig{AllowHosts: []string{"example.test"}})
	if err := g.allow("evil.test"); err == nil {
		t.Fatal("expected host not in allowlist to be rejected")
	}
}

func TestHTTPGateAllowsCaseInsensitiveMatch(t *testing.T) {
	g := newHTTPGate(config.BrowserConfig{AllowHosts: []string{"Example.Test"}})
	if err := g.allow("example.test"); err != nil {
		t.Fatalf("expected case-insensitive allowlist match, got %v", err)
	}
}

func TestHTTPGateLimiterForReusesSameHostLimiter(t *testing.T) {
	g := newHTTPGate(config.BrowserConfig{})
	a := g.limiterFor("example.test")
	b := g.limiterFor("example.test")
	if a != b {
		t.Fatal("expected the same *rate.Limiter instance for repeated calls with the same host")
	}
}

func TestHTTPGateLimiterForIsolatesHosts(t *testing.T) {
	g := newHTTPGate(config.BrowserConfig{})
	a := g.limiterFor("a.test")
	b := g.limiterFor("b.test")
	if a == b {
		t.Fatal("expected distinct limiters per host")
	}
}

func TestNewHTTPGateUsesConfiguredTimeout(t *testing.T) {
	g := newHTTPGate(config.BrowserConfig{HTTPTimeout: 5 * time.Second})
	if g.client.Timeout != 5*time.Second {
		t.Fatalf("client timeout = %v, want 5s", g.client.Timeout)
	}
}
