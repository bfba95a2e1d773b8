package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── tabs ──

type TabsTool struct {
	session *browser.Session
}

func NewTabsTool(d Deps) *TabsTool { return &TabsTool{session: d.Session} }

func (t *TabsTool) Name() string        { return "tabs" }
func (t *TabsTool) Description() string { return "Lists, switches to, or closes browser tabs/targets." }

func (t *TabsTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "action", Type: "string", Description: "list|switch|close", Required: true, Enum: []string{"list", "switch", "close"}},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab for switch/close"},
	)
}

func (t *TabsTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *TabsTool) Close() error                    { return noClose() }

type tabsArgs struct {
	Action string `json:"action"`
	TabID  string `json:"tab_id"`
}

func (t *TabsTool) Execute(ctx context.Context, raw json.RawMessage) (tool.Result, error) {
	var a tabsArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	switch a.Action {
	case "list":
		targets, err := t.session.ListTargets(ctx)
		if err != nil {
			return tool.Errorf("tabs: %v", err), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "tabs": targets}), nil

	case "switch":
		if a.TabID == "" {
			return tool.Errorf("tabs: tab_id is required for switch"), nil
		}
		if err := t.session.SwitchTab(a.TabID); err != nil {
			return tool.Errorf("tabs: %v", err), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "tab_id": a.TabID}), nil

	case "close":
		if a.TabID == "" {
			return tool.Errorf("tabs: tab_id is required for close"), nil
		}
		t.session.CloseTab(a.TabID)
		return tool.JSONResult(map[string]any{"ok": true, "tab_id": a.TabID}), nil

	default:
		return tool.Errorf("tabs: action must be list, switch, or close"), nil
	}
}
