package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── resize ──

type ResizeTool struct {
	session *browser.Session
}

func NewResizeTool(d Deps) *ResizeTool { return &ResizeTool{session: d.Session} }

func (t *ResizeTool) Name() string        { return "resize" }
func (t *ResizeTool) Description() string { return "Sets the emulated viewport size of the active tab." }

func (t *ResizeTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "width", Type: "integer", Description: "viewport width in pixels", Required: true},
		tool.SchemaParam{Name: "height", Type: "integer", Description: "viewport height in pixels", Required: true},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *ResizeTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *ResizeTool) Close() error                    { return noClose() }

type resizeArgs struct {
	Width  int64  `json:"width"`
	Height int64  `json:"height"`
	TabID  string `json:"tab_id"`
}

func (t *ResizeTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a resizeArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if a.Width <= 0 || a.Height <= 0 {
		return tool.Errorf("resize: width and height must be positive"), nil
	}

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}
	if err := t.session.Resize(tabCtx, a.Width, a.Height); err != nil {
		return errResult(err)
	}
	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "width": a.Width, "height": a.Height}), nil
}
