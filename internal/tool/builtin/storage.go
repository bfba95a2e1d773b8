package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── storage ──

// StorageTool reads and writes window.localStorage/sessionStorage through
// Session.Eval, the same JS-bridge primitive click/scroll/form build their
// own DOM queries on (spec.md §1).
type StorageTool struct {
	session *browser.Session
}

func NewStorageTool(d Deps) *StorageTool { return &StorageTool{session: d.Session} }

func (t *StorageTool) Name() string { return "storage" }
func (t *StorageTool) Description() string {
	return "Gets, sets, removes, or clears a localStorage/sessionStorage key."
}

func (t *StorageTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "action", Type: "string", Description: "get|set|remove|clear|list", Required: true, Enum: []string{"get", "set", "remove", "clear", "list"}},
		tool.SchemaParam{Name: "area", Type: "string", Description: "local|session, default local", Enum: []string{"local", "session"}},
		tool.SchemaParam{Name: "key", Type: "string", Description: "storage key, required for get/set/remove"},
		tool.SchemaParam{Name: "value", Type: "string", Description: "value to store, for set"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *StorageTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *StorageTool) Close() error                    { return noClose() }

type storageArgs struct {
	Action string `json:"action"`
	Area   string `json:"area"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	TabID  string `json:"tab_id"`
}

func (t *StorageTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a storageArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	area := orDefault(a.Area, "local") + "Storage"

	tabCtx, _, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	var expr string
	switch a.Action {
	case "get":
		if a.Key == "" {
			return tool.Errorf("storage: key is required for get"), nil
		}
		expr = "window." + area + ".getItem(" + quoteJS(a.Key) + ")"
	case "set":
		if a.Key == "" {
			return tool.Errorf("storage: key is required for set"), nil
		}
		expr = "(function(){window." + area + ".setItem(" + quoteJS(a.Key) + "," + quoteJS(a.Value) + ");return true;})()"
	case "remove":
		if a.Key == "" {
			return tool.Errorf("storage: key is required for remove"), nil
		}
		expr = "(function(){window." + area + ".removeItem(" + quoteJS(a.Key) + ");return true;})()"
	case "clear":
		expr = "(function(){window." + area + ".clear();return true;})()"
	case "list":
		expr = "(function(){var o={};for(var i=0;i<window." + area + ".length;i++){var k=window." + area + ".key(i);o[k]=window." + area + ".getItem(k);}return o;})()"
	default:
		return tool.Errorf("storage: unknown action %q", a.Action), nil
	}

	var result any
	if err := t.session.Eval(tabCtx, tabCtx, expr, &result); err != nil {
		return tool.Errorf("storage: %v", err), nil
	}
	return tool.JSONResult(map[string]any{"ok": true, "result": result}), nil
}
