package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── js ──

type JSTool struct {
	session *browser.Session
}

func NewJSTool(d Deps) *JSTool { return &JSTool{session: d.Session} }

func (t *JSTool) Name() string        { return "js" }
func (t *JSTool) Description() string { return "Evaluates a JavaScript expression in the page and returns its result." }

func (t *JSTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "expression", Type: "string", Description: "JavaScript expression to evaluate", Required: true},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *JSTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *JSTool) Close() error                    { return noClose() }

type jsArgs struct {
	Expression string `json:"expression"`
	TabID      string `json:"tab_id"`
}

func (t *JSTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a jsArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if a.Expression == "" {
		return tool.Errorf("js: expression is required"), nil
	}

	tabCtx, _, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}
	var result any
	if err := t.session.Eval(tabCtx, tabCtx, a.Expression, &result); err != nil {
		return tool.Errorf("js: %v", err), nil
	}
	return tool.JSONResult(map[string]any{"ok": true, "result": result}), nil
}
