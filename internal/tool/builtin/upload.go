package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── upload ──

type UploadTool struct {
	session *browser.Session
}

func NewUploadTool(d Deps) *UploadTool { return &UploadTool{session: d.Session} }

func (t *UploadTool) Name() string        { return "upload" }
func (t *UploadTool) Description() string { return "Sets the file list on a file input element." }

func (t *UploadTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "selector", Type: "string", Description: "CSS selector of the file input", Required: true},
		tool.SchemaParam{Name: "paths", Type: "array", Description: "absolute local file paths to upload", Required: true, Items: rawArrayItems("string")},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *UploadTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *UploadTool) Close() error                    { return noClose() }

type uploadArgs struct {
	Selector string   `json:"selector"`
	Paths    []string `json:"paths"`
	TabID    string   `json:"tab_id"`
}

func (t *UploadTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a uploadArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if a.Selector == "" || len(a.Paths) == 0 {
		return tool.Errorf("upload: selector and at least one path are required"), nil
	}

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}
	if err := t.session.UploadFiles(tabCtx, a.Selector, a.Paths); err != nil {
		return errResult(err)
	}
	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "files": len(a.Paths)}), nil
}
