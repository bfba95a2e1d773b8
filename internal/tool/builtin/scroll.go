package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── scroll ──

type ScrollTool struct {
	session *browser.Session
}

func NewScrollTool(d Deps) *ScrollTool { return &ScrollTool{session: d.Session} }

func (t *ScrollTool) Name() string        { return "scroll" }
func (t *ScrollTool) Description() string { return "Scrolls the page or a container by a pixel offset." }

func (t *ScrollTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "dx", Type: "integer", Description: "horizontal pixels, positive = right"},
		tool.SchemaParam{Name: "dy", Type: "integer", Description: "vertical pixels, positive = down"},
		tool.SchemaParam{Name: "selector", Type: "string", Description: "scroll this element into view instead of scrolling by offset"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *ScrollTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *ScrollTool) Close() error                    { return noClose() }

type scrollArgs struct {
	DX       int    `json:"dx"`
	DY       int    `json:"dy"`
	Selector string `json:"selector"`
	TabID    string `json:"tab_id"`
}

func (t *ScrollTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a scrollArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	if a.Selector != "" {
		if _, _, found, err := t.session.Locate(tabCtx, "document.querySelector("+quoteJS(a.Selector)+")"); err != nil {
			return errResult(err)
		} else if !found {
			return tool.Errorf("scroll: no element matches %q", a.Selector), nil
		}
		return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "selector": a.Selector}), nil
	}

	if err := t.session.Scroll(tabCtx, a.DX, a.DY); err != nil {
		return errResult(err)
	}
	return tool.JSONResult(map[string]any{"ok": true, "tab_id": tabID, "dx": a.DX, "dy": a.DY}), nil
}

func quoteJS(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
