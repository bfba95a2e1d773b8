package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── captcha ──

// knownCaptchaSelectors maps a CSS selector to the CAPTCHA vendor it
// identifies. detection-only, per the captcha tool contract adopted in
// SPEC_FULL.md: report {present, kind, selector}, never attempt a solve.
var knownCaptchaSelectors = []struct {
	selector string
	kind     string
}{
	{`iframe[src*="recaptcha"]`, "recaptcha_v2"},
	{`div.g-recaptcha`, "recaptcha_v2"},
	{`iframe[src*="hcaptcha"]`, "hcaptcha"},
	{`div.h-captcha`, "hcaptcha"},
	{`iframe[src*="turnstile"]`, "cloudflare_turnstile"},
	{`div.cf-turnstile`, "cloudflare_turnstile"},
	{`div#captcha`, "generic"},
	{`form[action*="captcha"]`, "generic"},
}

type CaptchaTool struct {
	session *browser.Session
}

func NewCaptchaTool(d Deps) *CaptchaTool { return &CaptchaTool{session: d.Session} }

func (t *CaptchaTool) Name() string { return "captcha" }
func (t *CaptchaTool) Description() string {
	return "Detects whether a CAPTCHA challenge is present on the page and reports its kind. Never attempts to solve it."
}

func (t *CaptchaTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *CaptchaTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *CaptchaTool) Close() error                    { return noClose() }

type captchaArgs struct {
	TabID string `json:"tab_id"`
}

func (t *CaptchaTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a captchaArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	tabCtx, _, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	for _, c := range knownCaptchaSelectors {
		expr := "document.querySelector(" + quoteJS(c.selector) + ") !== null"
		var present bool
		if err := t.session.Eval(tabCtx, tabCtx, expr, &present); err != nil {
			return tool.Errorf("captcha: %v", err), nil
		}
		if present {
			return tool.JSONResult(map[string]any{
				"ok": true, "present": true, "kind": c.kind, "selector": c.selector,
			}), nil
		}
	}
	return tool.JSONResult(map[string]any{"ok": true, "present": false}), nil
}
