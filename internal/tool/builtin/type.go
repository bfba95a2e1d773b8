package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/affordance"
	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── type ──

type TypeTool struct {
	session     *browser.Session
	affordances *affordance.Registry
}

func NewTypeTool(d Deps) *TypeTool {
	return &TypeTool{session: d.Session, affordances: d.Affordances}
}

func (t *TypeTool) Name() string        { return "type" }
func (t *TypeTool) Description() string { return "Types text into a field, or sends a bare key event." }

func (t *TypeTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "text", Type: "string", Description: "text to type", Required: true},
		tool.SchemaParam{Name: "selector", Type: "string", Description: "CSS selector of the target field"},
		tool.SchemaParam{Name: "ref", Type: "string", Description: "affordance ref (aff:<hash>)"},
		tool.SchemaParam{Name: "key", Type: "string", Description: "named key to send instead of focusing a field"},
		tool.SchemaParam{Name: "clear", Type: "boolean", Description: "clear the field before typing"},
		tool.SchemaParam{Name: "submit", Type: "boolean", Description: "press Enter after typing"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *TypeTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *TypeTool) Close() error                    { return noClose() }

type typeArgs struct {
	Text     string `json:"text"`
	Selector string `json:"selector"`
	Ref      string `json:"ref"`
	Key      string `json:"key"`
	Clear    bool   `json:"clear"`
	Submit   bool   `json:"submit"`
	TabID    string `json:"tab_id"`
}

func (t *TypeTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a typeArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if a.Text == "" && a.Key == "" {
		return tool.Errorf("type: one of text or key is required"), nil
	}

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	sel := a.Selector
	if a.Ref != "" {
		url, _ := t.session.CurrentURL(tabCtx)
		item, state := t.affordances.Resolve(tabID, a.Ref, url)
		if state.Missing {
			return tool.Errorf("type: no affordance %q in the stored map", a.Ref), nil
		}
		if s, ok := item.Args["selector"].(string); ok {
			sel = s
		}
	}

	payload := a.Text
	if payload == "" {
		payload = a.Key
	}
	if err := t.session.TypeText(tabCtx, sel, payload, a.Clear); err != nil {
		return errResult(err)
	}
	if a.Submit {
		if err := t.session.TypeText(tabCtx, "", "\r", false); err != nil {
			return errResult(err)
		}
	}
	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID}), nil
}
