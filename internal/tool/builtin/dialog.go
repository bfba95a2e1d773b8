package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/telemetry"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── dialog ──

type DialogTool struct {
	session   *browser.Session
	telemetry *telemetry.Manager
}

func NewDialogTool(d Deps) *DialogTool {
	return &DialogTool{session: d.Session, telemetry: d.Telemetry}
}

func (t *DialogTool) Name() string        { return "dialog" }
func (t *DialogTool) Description() string { return "Accepts or dismisses the currently open JS dialog." }

func (t *DialogTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "action", Type: "string", Description: "accept|dismiss", Required: true, Enum: []string{"accept", "dismiss"}},
		tool.SchemaParam{Name: "prompt_text", Type: "string", Description: "text to submit for a prompt() dialog"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *DialogTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *DialogTool) Close() error                    { return noClose() }

type dialogArgs struct {
	Action     string `json:"action"`
	PromptText string `json:"prompt_text"`
	TabID      string `json:"tab_id"`
}

func (t *DialogTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a dialogArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if a.Action != "accept" && a.Action != "dismiss" {
		return tool.Errorf("dialog: action must be accept or dismiss"), nil
	}

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}
	if err := t.session.HandleDialog(tabCtx, a.Action == "accept", a.PromptText); err != nil {
		return errResult(err)
	}
	t.telemetry.SetDialogOpen(tabID, false, "", "", "")
	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "action": a.Action}), nil
}
