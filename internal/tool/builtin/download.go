package builtin

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/AmirTlinov/browser-mcp/internal/artifact"
	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/config"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── download ──

// DownloadTool watches the configured download directory for a new,
// size-stabilized file, backing both a direct agent call and the engine's
// auto-download capture (spec.md §4.1 "Auto-download capture", §4.6).
type DownloadTool struct {
	session   *browser.Session
	artifacts *artifact.Store
	dir       string
}

func NewDownloadTool(d Deps) *DownloadTool {
	return &DownloadTool{session: d.Session, artifacts: d.Artifacts, dir: d.Config.DownloadDir}
}

func (t *DownloadTool) Name() string { return "download" }
func (t *DownloadTool) Description() string {
	return "Waits for a file to appear in the download directory and reports its metadata."
}

func (t *DownloadTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "wait_for", Type: "boolean", Description: "block until a new file stabilizes"},
		tool.SchemaParam{Name: "timeout_ms", Type: "integer", Description: "max wait in milliseconds, default 10000"},
		tool.SchemaParam{Name: "store_artifact", Type: "boolean", Description: "also store the file bytes as an artifact"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *DownloadTool) Init(ctx context.Context) error {
	if t.dir == "" {
		return nil
	}
	return os.MkdirAll(t.dir, 0o700)
}
func (t *DownloadTool) Close() error { return noClose() }

type downloadArgs struct {
	WaitFor       bool   `json:"wait_for"`
	TimeoutMS     int    `json:"timeout_ms"`
	StoreArtifact bool   `json:"store_artifact"`
	TabID         string `json:"tab_id"`
}

func (t *DownloadTool) Execute(ctx context.Context, raw json.RawMessage) (tool.Result, error) {
	var a downloadArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if t.dir == "" {
		return tool.Errorf("download: no download directory configured"), nil
	}

	tabCtx, _, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}
	if err := t.session.EnableDownloads(tabCtx, t.dir); err != nil {
		return errResult(err)
	}

	timeout := time.Duration(orDefaultInt(a.TimeoutMS, 10000)) * time.Millisecond
	before := snapshotDir(t.dir)

	path, ok := waitForNewStableFile(t.dir, before, timeout, a.WaitFor)
	if !ok {
		return tool.Errorf("download: no new file stabilized within %s", timeout), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errResult(err)
	}
	sum := sha256.Sum256(data)
	info := map[string]any{
		"ok":        true,
		"file_name": filepath.Base(path),
		"bytes":     int64(len(data)),
		"mime_type": mime.TypeByExtension(filepath.Ext(path)),
		"sha256":    hex.EncodeToString(sum[:]),
	}
	if a.StoreArtifact && t.artifacts != nil {
		meta, err := t.artifacts.PutJSON(ctx, data, filepath.Base(path))
		if err == nil {
			info["artifact_id"] = meta.ID
		}
	}
	return tool.JSONResult(info), nil
}

func snapshotDir(dir string) map[string]int64 {
	out := map[string]int64{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if info, err := e.Info(); err == nil {
			out[e.Name()] = info.Size()
		}
	}
	return out
}

// waitForNewStableFile polls dir until a file absent from before appears
// and its size is unchanged across two consecutive polls (the download is
// no longer being written to), or timeout elapses.
func waitForNewStableFile(dir string, before map[string]int64, timeout time.Duration, wait bool) (string, bool) {
	deadline := time.Now().Add(timeout)
	poll := 150 * time.Millisecond
	var candidate string
	var lastSize int64 = -1

	for {
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			if _, existed := before[e.Name()]; existed {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			name := e.Name()
			if name == candidate && info.Size() == lastSize && lastSize >= 0 {
				return filepath.Join(dir, name), true
			}
			candidate, lastSize = name, info.Size()
		}
		if !wait || time.Now().After(deadline) {
			break
		}
		time.Sleep(poll)
	}
	if candidate != "" && lastSize >= 0 && !wait {
		return filepath.Join(dir, candidate), true
	}
	return "", false
}

