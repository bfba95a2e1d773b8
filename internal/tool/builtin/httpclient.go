package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AmirTlinov/browser-mcp/internal/config"
)

// httpGate enforces the outbound-HTTP allowlist and per-host rate limit
// shared by the fetch and http tools (SPEC_FULL §2 "Outbound HTTP / rate
// limiting"). Grounded on the same golang.org/x/time/rate usage the pack's
// nevindra-oasis manifest pulls in for outbound throttling.
type httpGate struct {
	cfg      config.BrowserConfig
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	client   *http.Client
}

func newHTTPGate(cfg config.BrowserConfig) *httpGate {
	return &httpGate{
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

func (g *httpGate) allow(host string) error {
	if len(g.cfg.AllowHosts) == 0 {
		return nil
	}
	for _, h := range g.cfg.AllowHosts {
		if strings.EqualFold(h, host) {
			return g.limiterFor(host).Wait(context.Background())
		}
	}
	return fmt.Errorf("host %q is not in MCP_ALLOW_HOSTS", host)
}

func (g *httpGate) limiterFor(host string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Second), 5) // 5 requests/sec/host, burst 5
		g.limiters[host] = l
	}
	return l
}

// do executes an HTTP request, enforcing the allowlist/rate-limit gate and
// the MCP_HTTP_MAX_BYTES response cap.
func (g *httpGate) do(ctx context.Context, method, rawURL string, headers map[string]string, body string) (int, map[string]string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, "", fmt.Errorf("invalid url: %w", err)
	}
	if err := g.allow(u.Hostname()); err != nil {
		return 0, nil, "", err
	}

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return 0, nil, "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, "", err
	}
	defer resp.Body.Close()

	maxBytes := g.cfg.HTTPMaxBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
	if err != nil {
		return 0, nil, "", err
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, respHeaders, string(data), nil
}
