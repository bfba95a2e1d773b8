package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/AmirTlinov/browser-mcp/internal/config"
)

// Launcher owns at most one child Chromium process (in launch mode) and
// knows how to start/stop/recover it, matching spec.md §3 Launcher.
//
// Grounded on other_examples' muqo16-vg-hitbot browser pool (a chromedp
// ExecAllocator wrapped with start/stop lifecycle methods) and browserNerd's
// launch-browser/shutdown-browser tool contracts.
type Launcher struct {
	cfg config.BrowserConfig

	allocCtx    context.Context
	allocCancel context.CancelFunc
	session     *Session
}

// NewLauncher creates an unstarted Launcher for cfg.
func NewLauncher(cfg config.BrowserConfig) *Launcher {
	return &Launcher{cfg: cfg}
}

// Start launches (or attaches to) Chromium per cfg.Mode and returns the
// shared Session. Idempotent: calling Start when already running returns the
// existing session.
func (l *Launcher) Start(ctx context.Context) (*Session, error) {
	if l.session != nil {
		return l.session, nil
	}

	switch l.cfg.Mode {
	case config.ModeAttach:
		return l.attach(ctx)
	case config.ModeExtension:
		return nil, fmt.Errorf("browser: extension-mode transport is out of scope for this engine (spec.md §1)")
	default:
		return l.launch(ctx)
	}
}

func (l *Launcher) launch(ctx context.Context) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.WindowSize(l.cfg.WindowW, l.cfg.WindowH),
	)
	if l.cfg.Binary != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.Binary))
	}
	if l.cfg.Profile != "" {
		opts = append(opts, chromedp.UserDataDir(l.cfg.Profile))
	}
	for _, f := range l.cfg.Flags {
		opts = append(opts, chromedp.Flag(f, true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("browser: launch chromium: %w", err)
	}

	l.allocCtx, l.allocCancel = allocCtx, allocCancel
	l.session = NewSession(browserCtx, func() { cancel(); allocCancel() })
	return l.session, nil
}

func (l *Launcher) attach(ctx context.Context) (*Session, error) {
	if err := l.probeReachable(ctx); err != nil {
		return nil, fmt.Errorf("browser: attach mode: %w", err)
	}
	wsURL, err := l.debuggerWSURL(ctx)
	if err != nil {
		return nil, err
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, wsURL)
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("browser: attach chromium: %w", err)
	}
	l.allocCtx, l.allocCancel = allocCtx, allocCancel
	l.session = NewSession(browserCtx, func() { cancel(); allocCancel() })
	return l.session, nil
}

// probeReachable checks CDP reachability within a small timeout, matching
// the tool registry's pre-dispatch check (spec.md §4.5).
func (l *Launcher) probeReachable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	url := fmt.Sprintf("http://127.0.0.1:%d/json/version", l.cfg.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("CDP endpoint not reachable at %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("CDP endpoint %s returned %s", url, resp.Status)
	}
	return nil
}

func (l *Launcher) debuggerWSURL(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	url := fmt.Sprintf("http://127.0.0.1:%d/json/version", l.cfg.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var payload struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("browser: decode /json/version: %w", err)
	}
	if payload.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("browser: empty webSocketDebuggerUrl from %s", url)
	}
	return payload.WebSocketDebuggerURL, nil
}

// Stop terminates the owned Chromium process (launch mode) or disconnects
// (attach mode). Safe to call multiple times.
func (l *Launcher) Stop() {
	if l.session != nil {
		l.session.Close()
		l.session = nil
	}
}

// Recover either soft-resets (closes the active tab so the next EnsureTab
// opens a fresh one; domains are not re-enabled here) or, when hard is
// true, tears down and relaunches the owned Chromium process entirely,
// bounded by recoverTimeout (spec.md §4.4 "Recovery").
func (l *Launcher) Recover(ctx context.Context, hard bool, recoverTimeout time.Duration) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, recoverTimeout)
	defer cancel()

	if !hard {
		if l.session == nil {
			return l.Start(ctx)
		}
		// Soft reset: drop the active tab and let the next EnsureTab create
		// a fresh one; the browser process and allocator are left intact.
		if tabID := l.session.ActiveTab(); tabID != "" {
			l.session.CloseTab(tabID)
		}
		return l.session, nil
	}

	l.Stop()
	return l.Start(ctx)
}

// IsRunning reports whether a session is currently live.
func (l *Launcher) IsRunning() bool {
	return l.session != nil
}
