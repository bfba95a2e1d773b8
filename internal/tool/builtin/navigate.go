package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── navigate ──

type NavigateTool struct {
	session *browser.Session
}

func NewNavigateTool(d Deps) *NavigateTool { return &NavigateTool{session: d.Session} }

func (t *NavigateTool) Name() string { return "navigate" }
func (t *NavigateTool) Description() string {
	return "Navigates the active tab to a URL, or drives history (back/forward/reload)."
}

func (t *NavigateTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "url", Type: "string", Description: "destination URL"},
		tool.SchemaParam{Name: "action", Type: "string", Description: "back|forward|reload instead of a URL", Enum: []string{"back", "forward", "reload"}},
		tool.SchemaParam{Name: "wait", Type: "string", Description: "condition to wait for before returning", Enum: []string{"navigation", "load", "domcontentloaded", "networkidle", "none"}},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *NavigateTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *NavigateTool) Close() error                    { return noClose() }

type navigateArgs struct {
	URL    string `json:"url"`
	Action string `json:"action"`
	Wait   string `json:"wait"`
	TabID  string `json:"tab_id"`
}

func (t *NavigateTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a navigateArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if a.URL == "" && a.Action == "" {
		return tool.Errorf("navigate: one of url or action is required"), nil
	}

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}
	if err := t.session.Navigate(tabCtx, tabCtx, a.URL, a.Action, a.Wait); err != nil {
		return errResult(err)
	}
	url, _ := t.session.CurrentURL(tabCtx)
	title, _ := t.session.CurrentTitle(tabCtx)
	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "url": url, "title": title}), nil
}
