package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── mouse ──

type MouseTool struct {
	session *browser.Session
}

func NewMouseTool(d Deps) *MouseTool { return &MouseTool{session: d.Session} }

func (t *MouseTool) Name() string { return "mouse" }
func (t *MouseTool) Description() string {
	return "Low-level mouse control: move, press, release, or drag between two points."
}

func (t *MouseTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "action", Type: "string", Description: "move|down|up|drag", Required: true, Enum: []string{"move", "down", "up", "drag"}},
		tool.SchemaParam{Name: "x", Type: "number", Description: "x coordinate (or start x for drag)"},
		tool.SchemaParam{Name: "y", Type: "number", Description: "y coordinate (or start y for drag)"},
		tool.SchemaParam{Name: "x2", Type: "number", Description: "end x for drag"},
		tool.SchemaParam{Name: "y2", Type: "number", Description: "end y for drag"},
		tool.SchemaParam{Name: "button", Type: "string", Description: "left|right|middle", Enum: []string{"left", "right", "middle"}},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *MouseTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *MouseTool) Close() error                    { return noClose() }

type mouseArgs struct {
	Action string  `json:"action"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Button string  `json:"button"`
	TabID  string  `json:"tab_id"`
}

func (t *MouseTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a mouseArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	btn := orDefault(a.Button, defaultMouseButton)

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	var execErr error
	switch a.Action {
	case "move":
		execErr = t.session.MouseMove(tabCtx, a.X, a.Y)
	case "down":
		execErr = t.session.MouseDown(tabCtx, a.X, a.Y, btn)
	case "up":
		execErr = t.session.MouseUp(tabCtx, a.X, a.Y, btn)
	case "drag":
		execErr = t.session.MouseDrag(tabCtx, a.X, a.Y, a.X2, a.Y2, btn)
	default:
		return tool.Errorf("mouse: unknown action %q", a.Action), nil
	}
	if execErr != nil {
		return errResult(execErr)
	}
	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "action": a.Action}), nil
}
