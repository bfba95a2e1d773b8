package builtin

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── wait ──

type WaitTool struct {
	session *browser.Session
}

func NewWaitTool(d Deps) *WaitTool { return &WaitTool{session: d.Session} }

func (t *WaitTool) Name() string { return "wait" }
func (t *WaitTool) Description() string {
	return "Waits for navigation to settle, a selector to appear, or a JS condition to become true."
}

func (t *WaitTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "for", Type: "string", Description: "navigation|load|domcontentloaded|networkidle", Enum: []string{"navigation", "load", "domcontentloaded", "networkidle", "none"}},
		tool.SchemaParam{Name: "selector", Type: "string", Description: "wait for this CSS selector to become visible"},
		tool.SchemaParam{Name: "js", Type: "string", Description: "poll this boolean JS expression"},
		tool.SchemaParam{Name: "timeout", Type: "number", Description: "timeout in seconds, default 5"},
		tool.SchemaParam{Name: "timeout_s", Type: "number", Description: "alias for timeout"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *WaitTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *WaitTool) Close() error                    { return noClose() }

type waitArgs struct {
	For      string  `json:"for"`
	Selector string  `json:"selector"`
	JS       string  `json:"js"`
	Timeout  float64 `json:"timeout"`
	TimeoutS float64 `json:"timeout_s"`
	TabID    string  `json:"tab_id"`
}

func (t *WaitTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a waitArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	seconds := orDefaultFloat(a.Timeout, orDefaultFloat(a.TimeoutS, 5))
	if seconds > 60 {
		seconds = 60
	}
	timeout := time.Duration(seconds * float64(time.Second))

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	var waitErr error
	switch {
	case a.Selector != "":
		waitErr = t.session.WaitVisible(tabCtx, a.Selector, timeout)
	case a.JS != "":
		waitErr = t.session.WaitJS(tabCtx, a.JS, timeout)
	case a.For != "" && a.For != "none":
		waitErr = t.session.WaitReady(tabCtx, a.For, timeout)
	default:
		time.Sleep(timeout)
	}
	if waitErr != nil {
		return tool.Errorf("wait: %v", waitErr), nil
	}
	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID}), nil
}
