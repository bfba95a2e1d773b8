package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/memory"
	"github.com/AmirTlinov/browser-mcp/internal/policy"
	"github.com/AmirTlinov/browser-mcp/internal/telemetry"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── browser ──

// BrowserTool is the process-lifecycle and agent-memory meta-tool
// (spec.md §9 "Global mutable state"): memory_* actions against the
// process-wide memory.Store, runbook save/run against the same store,
// recover_reset for test isolation, and shutdown to close the owned
// Chromium session. There is no separate "runbook" entry
// in the mandatory tool catalog (§6 lists exactly 22 names ending in
// `browser`), so runbook save/run are folded into this tool's action enum
// — a decision recorded in DESIGN.md.
type BrowserTool struct {
	session   *browser.Session
	memory    *memory.Store
	policy    policy.Policy
	telemetry *telemetry.Manager
}

func NewBrowserTool(d Deps) *BrowserTool {
	return &BrowserTool{session: d.Session, memory: d.Memory, policy: d.Policy, telemetry: d.Telemetry}
}

func (t *BrowserTool) Name() string { return "browser" }
func (t *BrowserTool) Description() string {
	return "Process-lifecycle and agent-memory actions: memory get/set/list/delete, runbook save/run, recover_reset, shutdown."
}

func (t *BrowserTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{
			Name: "action", Type: "string", Required: true,
			Description: "memory_set|memory_get|memory_list|memory_delete|runbook_save|runbook_run|recover_reset|shutdown",
			Enum: []string{
				"memory_set", "memory_get", "memory_list", "memory_delete",
				"runbook_save", "runbook_run", "recover_reset", "shutdown",
			},
		},
		tool.SchemaParam{Name: "key", Type: "string", Description: "memory/runbook key"},
		tool.SchemaParam{Name: "value", Type: "object", Description: "value for memory_set"},
		tool.SchemaParam{Name: "sensitive", Type: "boolean", Description: "force-mark the value sensitive"},
		tool.SchemaParam{Name: "steps", Type: "array", Description: "step list for runbook_save", Items: rawArrayItems("object")},
		tool.SchemaParam{Name: "allow_sensitive", Type: "boolean", Description: "permit a sensitive-keyed runbook save/run"},
	)
}

func (t *BrowserTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *BrowserTool) Close() error                    { return noClose() }

type browserArgs struct {
	Action         string          `json:"action"`
	Key            string          `json:"key"`
	Value          json.RawMessage `json:"value"`
	Sensitive      bool            `json:"sensitive"`
	Steps          []map[string]any `json:"steps"`
	AllowSensitive bool            `json:"allow_sensitive"`
}

func (t *BrowserTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a browserArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	switch a.Action {
	case "memory_set":
		if t.policy.Mode == policy.ModeStrict {
			return tool.Errorf("browser: strict policy blocks memory_set"), nil
		}
		if a.Key == "" {
			return tool.Errorf("browser: key is required for memory_set"), nil
		}
		var v any
		if len(a.Value) > 0 {
			if err := json.Unmarshal(a.Value, &v); err != nil {
				return tool.Errorf("browser: invalid value: %v", err), nil
			}
		}
		t.memory.Set(a.Key, v, a.Sensitive)
		return tool.JSONResult(map[string]any{"ok": true, "key": a.Key}), nil

	case "memory_get":
		if a.Key == "" {
			return tool.Errorf("browser: key is required for memory_get"), nil
		}
		v, ok := t.memory.Redacted(a.Key)
		if !ok {
			return tool.Errorf("browser: memory key %q not found", a.Key), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "key": a.Key, "value": v}), nil

	case "memory_list":
		return tool.JSONResult(map[string]any{"ok": true, "entries": t.memory.List()}), nil

	case "memory_delete":
		if a.Key == "" {
			return tool.Errorf("browser: key is required for memory_delete"), nil
		}
		t.memory.Delete(a.Key)
		return tool.JSONResult(map[string]any{"ok": true, "key": a.Key}), nil

	case "runbook_save":
		if t.policy.Mode == policy.ModeStrict {
			return tool.Errorf("browser: strict policy blocks runbook save"), nil
		}
		if a.Key == "" || len(a.Steps) == 0 {
			return tool.Errorf("browser: key and steps are required for runbook_save"), nil
		}
		if hasSensitiveLiteral(a.Steps) && !a.AllowSensitive {
			return tool.Errorf("browser: runbook contains a sensitive literal; retry with allow_sensitive=true"), nil
		}
		t.memory.Set(a.Key, a.Steps, a.Sensitive)
		return tool.JSONResult(map[string]any{"ok": true, "key": a.Key, "step_count": len(a.Steps)}), nil

	case "runbook_run":
		if a.Key == "" {
			return tool.Errorf("browser: key is required for runbook_run"), nil
		}
		v, ok := t.memory.Get(a.Key)
		if !ok {
			return tool.Errorf("browser: runbook %q not found", a.Key), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "key": a.Key, "steps": v}), nil

	case "recover_reset":
		tabID := t.session.ActiveTab()
		t.telemetry.Reset(tabID)
		if err := t.session.EnableDomains(mustActiveCtx(t.session)); err != nil {
			return tool.Errorf("browser: recover_reset: %v", err), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID}), nil

	case "shutdown":
		if err := t.memory.Save(); err != nil {
			return tool.Errorf("browser: shutdown: saving memory: %v", err), nil
		}
		t.session.Close()
		return tool.JSONResult(map[string]any{"ok": true}), nil

	default:
		return tool.Errorf("browser: unknown action %q", a.Action), nil
	}
}

// hasSensitiveLiteral reports whether any step in a prospective runbook save
// contains a literal value under a sensitive-sounding key (spec.md §6/§7
// policy refusal S5), as opposed to an interpolation placeholder.
func hasSensitiveLiteral(steps []map[string]any) bool {
	for _, step := range steps {
		for k, v := range step {
			if !sensitiveKeyName(k) {
				continue
			}
			if s, ok := v.(string); ok && !isPlaceholder(s) {
				return true
			}
		}
	}
	return false
}

func sensitiveKeyName(k string) bool {
	switch k {
	case "text", "value", "password", "secret", "token":
		return true
	default:
		return false
	}
}

func isPlaceholder(s string) bool {
	return len(s) > 0 && (hasPrefixSuffix(s, "{{", "}}") || hasPrefixSuffix(s, "${", "}"))
}

func hasPrefixSuffix(s, prefix, suffix string) bool {
	return len(s) >= len(prefix)+len(suffix) && s[:len(prefix)] == prefix && s[len(s)-len(suffix):] == suffix
}

func mustActiveCtx(sess *browser.Session) context.Context {
	ctx, _, err := sess.EnsureTab(sess.ActiveTab())
	if err != nil {
		return context.Background()
	}
	return ctx
}
