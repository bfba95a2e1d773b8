// Package browser owns the Chromium process lifecycle and the single shared
// CDP session a batched run borrows for its duration (spec.md §3 Session,
// §4.4 "Shared session").
//
// Concrete per-tool DOM algorithms (element finding, AX queries, form
// filling) are deliberately thin here — spec.md §1 treats them as specified
// only by contract, not by their internal JavaScript, so Session exposes the
// small set of CDP primitives the run engine and tool catalog need and lets
// callers compose selectors/JS snippets on top.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// TargetInfo is a CDP target (tab) row, matching spec.md §3.
type TargetInfo struct {
	ID       string
	URL      string
	Title    string
	WSURL    string
	IsActive bool
}

// Session owns one active CDP page/tab connection for the duration of a
// batched run. At most one caller may hold it at a time (invariant 2).
type Session struct {
	mu        sync.Mutex
	browserCtx context.Context
	cancel     context.CancelFunc
	tabs       map[string]context.Context
	tabCancel  map[string]context.CancelFunc
	activeTab  string
	held       bool
}

// NewSession wraps an already-allocated chromedp browser context.
func NewSession(browserCtx context.Context, cancel context.CancelFunc) *Session {
	return &Session{
		browserCtx: browserCtx,
		cancel:     cancel,
		tabs:       make(map[string]context.Context),
		tabCancel:  make(map[string]context.CancelFunc),
	}
}

// Acquire implements the RAII-style "shared session as a borrow" pattern
// from spec.md §9: only one caller may hold the session at a time; Release
// is unconditional via the returned func.
func (s *Session) Acquire() (func(), error) {
	s.mu.Lock()
	if s.held {
		s.mu.Unlock()
		return nil, fmt.Errorf("browser: session already held by another run (nested run/flow rejected)")
	}
	s.held = true
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.held = false
		s.mu.Unlock()
	}, nil
}

// EnsureTab returns a tab context for tabID, creating a new chromedp tab if
// this is the first reference to it. If tabID is "", the active tab is used
// (or a fresh one is created and made active).
func (s *Session) EnsureTab(tabID string) (context.Context, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tabID == "" {
		tabID = s.activeTab
	}
	if ctx, ok := s.tabs[tabID]; ok && tabID != "" {
		return ctx, tabID, nil
	}

	tctx, cancel := chromedp.NewContext(s.browserCtx)
	if err := chromedp.Run(tctx); err != nil {
		cancel()
		return nil, "", fmt.Errorf("browser: create tab: %w", err)
	}
	newID := string(chromedp.FromContext(tctx).Target.TargetID)
	s.tabs[newID] = tctx
	s.tabCancel[newID] = cancel
	s.activeTab = newID
	return tctx, newID, nil
}

// ActiveTab returns the id of the currently active tab ("" if none yet).
func (s *Session) ActiveTab() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab
}

// SwitchTab makes tabID the active tab (used by auto-tab switching, §4.1).
func (s *Session) SwitchTab(tabID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[tabID]; !ok {
		return fmt.Errorf("browser: unknown tab %q", tabID)
	}
	s.activeTab = tabID
	return nil
}

// ListTargets lists every CDP target (tab) currently open.
func (s *Session) ListTargets(ctx context.Context) ([]TargetInfo, error) {
	infos, err := chromedp.Targets(ctx)
	if err != nil {
		return nil, fmt.Errorf("browser: list targets: %w", err)
	}
	out := make([]TargetInfo, 0, len(infos))
	for _, ti := range infos {
		if ti.Type != "page" {
			continue
		}
		out = append(out, TargetInfo{
			ID:       string(ti.TargetID),
			URL:      ti.URL,
			Title:    ti.Title,
			WSURL:    "",
			IsActive: ti.Attached,
		})
	}
	return out, nil
}

// Navigate drives the tab to url, or performs back/forward/reload when
// action is set (navigate tool contract, spec.md §6).
func (s *Session) Navigate(ctx context.Context, tabCtx context.Context, url, action string, wait string) error {
	var act chromedp.Action
	switch action {
	case "back":
		act = chromedp.NavigateBack()
	case "forward":
		act = chromedp.NavigateForward()
	case "reload":
		act = chromedp.Reload()
	default:
		act = chromedp.Navigate(url)
	}
	if err := chromedp.Run(tabCtx, act); err != nil {
		return fmt.Errorf("browser: navigate: %w", err)
	}
	return waitFor(tabCtx, wait)
}

func waitFor(tabCtx context.Context, wait string) error {
	switch wait {
	case "", "none":
		return nil
	case "domcontentloaded", "load", "navigation":
		return chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			return nil // chromedp.Navigate already blocks for page.EventLoadEventFired
		}))
	case "networkidle":
		return chromedp.Run(tabCtx, chromedp.Sleep(500*time.Millisecond))
	default:
		return nil
	}
}

// Eval runs expr as JavaScript and unmarshals the result into out.
func (s *Session) Eval(ctx context.Context, tabCtx context.Context, expr string, out interface{}) error {
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("browser: eval: %w", err)
	}
	return nil
}

// CurrentURL and CurrentTitle back the cheap "after" proof state (§4.1).
func (s *Session) CurrentURL(tabCtx context.Context) (string, error) {
	var url string
	if err := chromedp.Run(tabCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("browser: location: %w", err)
	}
	return url, nil
}

func (s *Session) CurrentTitle(tabCtx context.Context) (string, error) {
	var title string
	if err := chromedp.Run(tabCtx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("browser: title: %w", err)
	}
	return title, nil
}

// ClickSelector clicks the first element matching sel.
func (s *Session) ClickSelector(tabCtx context.Context, sel string, double bool) error {
	clicks := []chromedp.Action{chromedp.Click(sel, chromedp.NodeVisible)}
	if double {
		clicks = append(clicks, chromedp.Click(sel, chromedp.NodeVisible))
	}
	if err := chromedp.Run(tabCtx, clicks...); err != nil {
		return fmt.Errorf("browser: click %q: %w", sel, err)
	}
	return nil
}

// ClickPoint dispatches a synthetic mouse click at (x, y), used when the act
// step resolves to coordinates rather than a selector.
func (s *Session) ClickPoint(tabCtx context.Context, x, y float64) error {
	if err := chromedp.Run(tabCtx,
		input.DispatchMouseEvent(input.MousePressed, x, y).WithButton(input.Left).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseReleased, x, y).WithButton(input.Left).WithClickCount(1),
	); err != nil {
		return fmt.Errorf("browser: click point (%v,%v): %w", x, y, err)
	}
	return nil
}

// TypeText focuses sel (if non-empty) and sends text as keystrokes.
func (s *Session) TypeText(tabCtx context.Context, sel, text string, clear bool) error {
	var actions []chromedp.Action
	if sel != "" {
		actions = append(actions, chromedp.WaitVisible(sel))
		if clear {
			actions = append(actions, chromedp.Clear(sel))
		}
		actions = append(actions, chromedp.SendKeys(sel, text))
	} else {
		actions = append(actions, chromedp.KeyEvent(text))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return fmt.Errorf("browser: type: %w", err)
	}
	return nil
}

// Scroll scrolls the page by (dx, dy) pixels via window.scrollBy.
func (s *Session) Scroll(tabCtx context.Context, dx, dy int) error {
	expr := fmt.Sprintf("window.scrollBy(%d, %d)", dx, dy)
	return chromedp.Run(tabCtx, chromedp.Evaluate(expr, nil))
}

// Screenshot captures a PNG of the full viewport.
func (s *Session) Screenshot(tabCtx context.Context) ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(tabCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return buf, nil
}

// Resize sets the emulated viewport size.
func (s *Session) Resize(tabCtx context.Context, w, h int64) error {
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(w, h)); err != nil {
		return fmt.Errorf("browser: resize: %w", err)
	}
	return nil
}

// EnableDomains turns on the CDP domains the run engine depends on for
// Tier-0 telemetry (Page, Runtime, Network, Log, DOM — spec.md §4.4).
func (s *Session) EnableDomains(tabCtx context.Context) error {
	return chromedp.Run(tabCtx,
		page.Enable(),
		runtime.Enable(),
		network.Enable(),
		log.Enable(),
		dom.Enable(),
	)
}

// HandleDialog accepts or dismisses the currently open JS dialog, optionally
// supplying promptText, over the SAME connection the engine already holds.
// No out-of-band handler (browser/oob.go) runs alongside it, so a connection
// blocked by the dialog also blocks this call.
func (s *Session) HandleDialog(tabCtx context.Context, accept bool, promptText string) error {
	act := page.HandleJavaScriptDialog(accept)
	if promptText != "" {
		act = act.WithPromptText(promptText)
	}
	if err := chromedp.Run(tabCtx, act); err != nil {
		return fmt.Errorf("browser: handle dialog: %w", err)
	}
	return nil
}

// Abort is the watchdog's deterministic escape hatch (spec.md §9): it cancels
// the tab's context, which chromedp translates into closing the underlying
// websocket, unblocking any in-flight Run() call in that tab.
func (s *Session) Abort(tabID string) {
	s.mu.Lock()
	cancel, ok := s.tabCancel[tabID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// CloseTab releases resources for one tab.
func (s *Session) CloseTab(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.tabCancel[tabID]; ok {
		cancel()
		delete(s.tabCancel, tabID)
		delete(s.tabs, tabID)
	}
	if s.activeTab == tabID {
		s.activeTab = ""
	}
}

// Close releases the whole browser context.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.tabCancel {
		cancel()
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// targetIDOf extracts the CDP target id chromedp associated with tabCtx.
func targetIDOf(tabCtx context.Context) target.ID {
	return chromedp.FromContext(tabCtx).Target.TargetID
}
