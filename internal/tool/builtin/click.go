package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AmirTlinov/browser-mcp/internal/affordance"
	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── click ──

type ClickTool struct {
	session     *browser.Session
	affordances *affordance.Registry
}

func NewClickTool(d Deps) *ClickTool {
	return &ClickTool{session: d.Session, affordances: d.Affordances}
}

func (t *ClickTool) Name() string { return "click" }
func (t *ClickTool) Description() string {
	return "Clicks an element located by ref, selector, text, role, or coordinates."
}

func (t *ClickTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "ref", Type: "string", Description: "affordance ref (aff:<hash>)"},
		tool.SchemaParam{Name: "selector", Type: "string", Description: "CSS selector"},
		tool.SchemaParam{Name: "text", Type: "string", Description: "visible text to match"},
		tool.SchemaParam{Name: "role", Type: "string", Description: "ARIA role filter used with text"},
		tool.SchemaParam{Name: "strategy", Type: "string", Description: "exact|contains text match strategy", Enum: []string{"exact", "contains"}},
		tool.SchemaParam{Name: "index", Type: "integer", Description: "0-based index among matches"},
		tool.SchemaParam{Name: "x", Type: "number", Description: "viewport x coordinate"},
		tool.SchemaParam{Name: "y", Type: "number", Description: "viewport y coordinate"},
		tool.SchemaParam{Name: "backend_dom_node_id", Type: "integer", Description: "CDP backend node id"},
		tool.SchemaParam{Name: "double", Type: "boolean", Description: "double-click instead of single"},
		tool.SchemaParam{Name: "button", Type: "string", Description: "left|right|middle", Enum: []string{"left", "right", "middle"}},
		tool.SchemaParam{Name: "wait_after", Type: "number", Description: "seconds to sleep after the click"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *ClickTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *ClickTool) Close() error                    { return noClose() }

type clickArgs struct {
	Ref              string  `json:"ref"`
	Selector         string  `json:"selector"`
	Text             string  `json:"text"`
	Role             string  `json:"role"`
	Strategy         string  `json:"strategy"`
	Index            int     `json:"index"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	BackendDOMNodeID int64   `json:"backend_dom_node_id"`
	Double           bool    `json:"double"`
	Button           string  `json:"button"`
	WaitAfter        float64 `json:"wait_after"`
	TabID            string  `json:"tab_id"`
}

func (t *ClickTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a clickArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	switch {
	case a.Ref != "":
		url, _ := t.session.CurrentURL(tabCtx)
		item, state := t.affordances.Resolve(tabID, a.Ref, url)
		if state.Missing {
			return tool.Errorf("click: no affordance %q in the stored map", a.Ref), nil
		}
		if sel, ok := item.Args["selector"].(string); ok && sel != "" {
			a.Selector = sel
		} else if x, ok := item.Args["x"].(float64); ok {
			y, _ := item.Args["y"].(float64)
			a.X, a.Y = x, y
		}
	case a.BackendDOMNodeID != 0:
		if err := t.session.ClickBackendNodeID(tabCtx, a.BackendDOMNodeID); err != nil {
			return errResult(err)
		}
		sleepWaitAfter(a.WaitAfter)
		return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID}), nil
	case a.Selector != "":
		// handled below
	case a.Text != "":
		js := buildTextLocatorJS(a.Text, a.Role, a.Strategy, a.Index)
		x, y, found, err := t.session.Locate(tabCtx, js)
		if err != nil {
			return errResult(err)
		}
		if !found {
			return tool.Errorf("click: no element matches text %q (role=%q)", a.Text, a.Role), nil
		}
		if err := t.session.ClickPoint(tabCtx, x, y); err != nil {
			return errResult(err)
		}
		sleepWaitAfter(a.WaitAfter)
		return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "x": x, "y": y}), nil
	case a.X != 0 || a.Y != 0:
		if err := t.session.ClickPoint(tabCtx, a.X, a.Y); err != nil {
			return errResult(err)
		}
		sleepWaitAfter(a.WaitAfter)
		return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID}), nil
	default:
		return tool.Errorf("click: one of ref, selector, text, (x,y), or backend_dom_node_id is required"), nil
	}

	if err := t.session.ClickSelector(tabCtx, a.Selector, a.Double); err != nil {
		return errResult(err)
	}
	sleepWaitAfter(a.WaitAfter)
	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "selector": a.Selector}), nil
}

func sleepWaitAfter(seconds float64) {
	if seconds <= 0 {
		return
	}
	if seconds > 10 {
		seconds = 10
	}
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}

// buildTextLocatorJS composes a querySelectorAll-based locator expression
// matching spec.md §6 click's text/role/strategy/index filters. Kept as a
// single composable string so Locate stays DOM-algorithm-agnostic.
func buildTextLocatorJS(text, role, strategy string, index int) string {
	sel := "*"
	if role != "" {
		sel = fmt.Sprintf(`[role=%q], %s`, role, role)
	}
	needle := strings.ReplaceAll(text, `"`, `\"`)
	matchExpr := fmt.Sprintf(`(el.innerText||"").trim() === "%s"`, needle)
	if strategy == "contains" {
		matchExpr = fmt.Sprintf(`(el.innerText||"").includes("%s")`, needle)
	}
	return fmt.Sprintf(`(() => {
		const nodes = Array.from(document.querySelectorAll(%q)).filter(el => %s);
		return nodes[%d] || null;
	})()`, sel, matchExpr, index)
}
