package builtin

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/artifact"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── artifact ──

// ArtifactTool exposes the off-context payload store (spec.md §4.4) to the
// agent: get/list/delete/export against whatever screenshot/download/page
// tools already stored there.
type ArtifactTool struct {
	store *artifact.Store
}

func NewArtifactTool(d Deps) *ArtifactTool { return &ArtifactTool{store: d.Artifacts} }

func (t *ArtifactTool) Name() string        { return "artifact" }
func (t *ArtifactTool) Description() string { return "Gets, lists, deletes, or exports artifacts from the off-context payload store." }

func (t *ArtifactTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "action", Type: "string", Description: "get|list|delete|export", Required: true, Enum: []string{"get", "list", "delete", "export"}},
		tool.SchemaParam{Name: "artifact_id", Type: "string", Description: "target artifact, required for get/delete/export"},
		tool.SchemaParam{Name: "dest_path", Type: "string", Description: "destination file path, required for export"},
	)
}

func (t *ArtifactTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *ArtifactTool) Close() error                    { return noClose() }

type artifactArgs struct {
	Action     string `json:"action"`
	ArtifactID string `json:"artifact_id"`
	DestPath   string `json:"dest_path"`
}

func (t *ArtifactTool) Execute(ctx context.Context, raw json.RawMessage) (tool.Result, error) {
	if t.store == nil {
		return tool.Errorf("artifact: store not configured"), nil
	}
	var a artifactArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	switch a.Action {
	case "get":
		if a.ArtifactID == "" {
			return tool.Errorf("artifact: artifact_id is required for get"), nil
		}
		data, meta, err := t.store.Get(ctx, a.ArtifactID)
		if err != nil {
			return tool.Errorf("artifact: %v", err), nil
		}
		if meta.Kind == artifact.KindImage {
			return tool.Image(base64.StdEncoding.EncodeToString(data), "image/png"), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "meta": meta, "data": string(data)}), nil

	case "list":
		metas, err := t.store.List(ctx)
		if err != nil {
			return tool.Errorf("artifact: %v", err), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "artifacts": metas}), nil

	case "delete":
		if a.ArtifactID == "" {
			return tool.Errorf("artifact: artifact_id is required for delete"), nil
		}
		if err := t.store.Delete(ctx, a.ArtifactID); err != nil {
			return tool.Errorf("artifact: %v", err), nil
		}
		return tool.JSONResult(map[string]any{"ok": true}), nil

	case "export":
		if a.ArtifactID == "" || a.DestPath == "" {
			return tool.Errorf("artifact: artifact_id and dest_path are required for export"), nil
		}
		if err := t.store.Export(ctx, a.ArtifactID, a.DestPath); err != nil {
			return tool.Errorf("artifact: %v", err), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "dest_path": a.DestPath}), nil

	default:
		return tool.Errorf("artifact: action must be get, list, delete, or export"), nil
	}
}
