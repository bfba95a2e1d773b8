// Additional CDP primitives the tool catalog needs beyond the core
// navigate/click/type/scroll surface in session.go: synthetic mouse
// sequences, cookie get/set, and file-input upload.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// WaitVisible blocks until sel is visible in the DOM or timeout elapses —
// the `wait` tool's selector mode (spec.md §6).
func (s *Session) WaitVisible(tabCtx context.Context, sel string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.WaitVisible(sel)); err != nil {
		return fmt.Errorf("browser: wait visible %q: %w", sel, err)
	}
	return nil
}

// WaitJS polls expr (a boolean-returning JS expression) until it evaluates
// truthy or timeout elapses — the `wait` tool's js mode.
func (s *Session) WaitJS(tabCtx context.Context, expr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		var ok bool
		if err := s.Eval(tabCtx, tabCtx, expr, &ok); err == nil && ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("browser: wait js condition not satisfied within %s", timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// WaitReady polls document.readyState for the `wait` tool's
// for=navigation|load|domcontentloaded|networkidle mode; networkidle uses
// the same readyState === 'complete' check as load (network activity is not
// tracked).
func (s *Session) WaitReady(tabCtx context.Context, for_ string, timeout time.Duration) error {
	var expr string
	switch for_ {
	case "domcontentloaded":
		expr = `document.readyState !== 'loading'`
	case "networkidle":
		expr = `document.readyState === 'complete'`
	default: // navigation, load
		expr = `document.readyState === 'complete'`
	}
	return s.WaitJS(tabCtx, expr, timeout)
}

// EnableDownloads points the tab's downloads at dir, backing the download
// tool and the engine's auto-download capture (spec.md §4.6).
func (s *Session) EnableDownloads(tabCtx context.Context, dir string) error {
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(dir).WithEventsEnabled(true).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("browser: enable downloads to %s: %w", dir, err)
	}
	return nil
}

// MouseMove dispatches a synthetic mouse-move event to (x, y).
func (s *Session) MouseMove(tabCtx context.Context, x, y float64) error {
	if err := chromedp.Run(tabCtx, input.DispatchMouseEvent(input.MouseMoved, x, y)); err != nil {
		return fmt.Errorf("browser: mouse move (%v,%v): %w", x, y, err)
	}
	return nil
}

// MouseDown presses the given button at (x, y).
func (s *Session) MouseDown(tabCtx context.Context, x, y float64, button string) error {
	btn := mouseButton(button)
	if err := chromedp.Run(tabCtx, input.DispatchMouseEvent(input.MousePressed, x, y).WithButton(btn).WithClickCount(1)); err != nil {
		return fmt.Errorf("browser: mouse down (%v,%v): %w", x, y, err)
	}
	return nil
}

// MouseUp releases the given button at (x, y).
func (s *Session) MouseUp(tabCtx context.Context, x, y float64, button string) error {
	btn := mouseButton(button)
	if err := chromedp.Run(tabCtx, input.DispatchMouseEvent(input.MouseReleased, x, y).WithButton(btn).WithClickCount(1)); err != nil {
		return fmt.Errorf("browser: mouse up (%v,%v): %w", x, y, err)
	}
	return nil
}

// MouseDrag presses at (x0,y0), moves to (x1,y1), and releases — the
// drag-and-drop primitive the mouse tool's "drag" operation composes.
func (s *Session) MouseDrag(tabCtx context.Context, x0, y0, x1, y1 float64, button string) error {
	btn := mouseButton(button)
	actions := []chromedp.Action{
		input.DispatchMouseEvent(input.MousePressed, x0, y0).WithButton(btn).WithClickCount(1),
		input.DispatchMouseEvent(input.MouseMoved, x1, y1).WithButton(btn),
		input.DispatchMouseEvent(input.MouseReleased, x1, y1).WithButton(btn).WithClickCount(1),
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		return fmt.Errorf("browser: mouse drag (%v,%v)->(%v,%v): %w", x0, y0, x1, y1, err)
	}
	return nil
}

func mouseButton(button string) input.MouseButton {
	switch button {
	case "right":
		return input.Right
	case "middle":
		return input.Middle
	default:
		return input.Left
	}
}

// UploadFiles sets the file list on the first file input matching sel
// (dom.SetFileInputFiles), backing the upload tool.
func (s *Session) UploadFiles(tabCtx context.Context, sel string, paths []string) error {
	var nodeIDs []dom.NodeID
	if err := chromedp.Run(tabCtx,
		chromedp.WaitVisible(sel),
		chromedp.NodeIDs(sel, &nodeIDs, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("browser: upload: find input %q: %w", sel, err)
	}
	if len(nodeIDs) == 0 {
		return fmt.Errorf("browser: upload: no element matches %q", sel)
	}
	if err := chromedp.Run(tabCtx, dom.SetFileInputFiles(paths).WithNodeID(nodeIDs[0])); err != nil {
		return fmt.Errorf("browser: upload: set files on %q: %w", sel, err)
	}
	return nil
}

// locateRect is the bounding-box center a JS locator expression resolves to.
type locateRect struct {
	X, Y  float64
	Found bool
}

// Locate evaluates js — an expression returning the matched element (or
// null) — and resolves its viewport-relative center point via
// getBoundingClientRect. Click/mouse tools compose the locator expression
// (by selector, text, role+index, …); the DOM-query algorithm itself is
// deliberately left to the caller, matching spec.md §1's "specified by
// contract, not by internal JavaScript".
func (s *Session) Locate(tabCtx context.Context, js string) (float64, float64, bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = (%s);
		if (!el) return {found:false};
		el.scrollIntoView({block:"center", inline:"center"});
		const r = el.getBoundingClientRect();
		return {found:true, x: r.left + r.width/2, y: r.top + r.height/2};
	})()`, js)
	var rect locateRect
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(expr, &rect)); err != nil {
		return 0, 0, false, fmt.Errorf("browser: locate: %w", err)
	}
	return rect.X, rect.Y, rect.Found, nil
}

// ClickBackendNodeID clicks the element identified by a CDP backend node
// id (the `backendDOMNodeId` click filter, spec.md §6), resolving its
// center point via DOM.getBoxModel rather than a JS round-trip.
func (s *Session) ClickBackendNodeID(tabCtx context.Context, backendID int64) error {
	var x, y float64
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		box, err := dom.GetBoxModel().WithBackendNodeID(dom.BackendNodeID(backendID)).Do(ctx)
		if err != nil {
			return err
		}
		if len(box.Content) < 8 {
			return fmt.Errorf("empty box model for backend node %d", backendID)
		}
		x = (box.Content[0] + box.Content[4]) / 2
		y = (box.Content[1] + box.Content[5]) / 2
		return nil
	}))
	if err != nil {
		return fmt.Errorf("browser: resolve backend node %d: %w", backendID, err)
	}
	return s.ClickPoint(tabCtx, x, y)
}

// Cookie mirrors the subset of a CDP cookie the cookies tool exposes.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite string
	ExpiresUnix float64
}

// GetCookies returns every cookie visible to the current page.
func (s *Session) GetCookies(tabCtx context.Context) ([]Cookie, error) {
	var cdpCookies []*network.Cookie
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		cdpCookies = cookies
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("browser: get cookies: %w", err)
	}
	out := make([]Cookie, 0, len(cdpCookies))
	for _, c := range cdpCookies {
		out = append(out, Cookie{
			Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path,
			Secure: c.Secure, HTTPOnly: c.HTTPOnly, SameSite: string(c.SameSite),
			ExpiresUnix: c.Expires,
		})
	}
	return out, nil
}

// SetCookie installs or overwrites one cookie, scoped to url.
func (s *Session) SetCookie(tabCtx context.Context, url string, c Cookie) error {
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := network.SetCookie(c.Name, c.Value).
			WithURL(url).WithSecure(c.Secure).WithHTTPOnly(c.HTTPOnly)
		if c.Domain != "" {
			params = params.WithDomain(c.Domain)
		}
		if c.Path != "" {
			params = params.WithPath(c.Path)
		}
		_, err := params.Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("browser: set cookie %q: %w", c.Name, err)
	}
	return nil
}

// ClearCookies removes every cookie for the current browser context.
func (s *Session) ClearCookies(tabCtx context.Context) error {
	if err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.ClearBrowserCookies().Do(ctx)
	})); err != nil {
		return fmt.Errorf("browser: clear cookies: %w", err)
	}
	return nil
}
