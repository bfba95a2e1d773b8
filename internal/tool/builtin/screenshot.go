package builtin

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/artifact"
	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── screenshot ──

type ScreenshotTool struct {
	session   *browser.Session
	artifacts *artifact.Store
}

func NewScreenshotTool(d Deps) *ScreenshotTool {
	return &ScreenshotTool{session: d.Session, artifacts: d.Artifacts}
}

func (t *ScreenshotTool) Name() string { return "screenshot" }
func (t *ScreenshotTool) Description() string {
	return "Captures a PNG screenshot of the active tab's viewport."
}

func (t *ScreenshotTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "store_artifact", Type: "boolean", Description: "store the image in the artifact store and return a pointer instead of inline image data"},
		tool.SchemaParam{Name: "label", Type: "string", Description: "artifact label, used only with store_artifact"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *ScreenshotTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *ScreenshotTool) Close() error                    { return noClose() }

type screenshotArgs struct {
	StoreArtifact bool   `json:"store_artifact"`
	Label         string `json:"label"`
	TabID         string `json:"tab_id"`
}

func (t *ScreenshotTool) Execute(ctx context.Context, raw json.RawMessage) (tool.Result, error) {
	var a screenshotArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	tabCtx, _, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}
	png, err := t.session.Screenshot(tabCtx)
	if err != nil {
		return errResult(err)
	}
	b64 := base64.StdEncoding.EncodeToString(png)

	if !a.StoreArtifact {
		return tool.Image(b64, "image/png"), nil
	}
	if t.artifacts == nil {
		return tool.Errorf("screenshot: artifact store unavailable"), nil
	}
	meta, err := t.artifacts.PutImageB64(ctx, b64, a.Label)
	if err != nil {
		return errResult(err)
	}
	return tool.JSONResult(map[string]any{"ok": true, "artifact_id": meta.ID, "size_bytes": meta.SizeBytes}), nil
}
