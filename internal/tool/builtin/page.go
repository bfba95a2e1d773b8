package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/affordance"
	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/telemetry"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── page ──

// PageTool is the page-perception tool the run engine depends on for its
// final report (spec.md §6 "Page perception"): called with {info:true} for
// the cheap "observe" attachment always included in a final report, and
// with {detail:<section>[, since:<baseline>]} for exactly one requested
// section. map/locators additionally populate the affordance registry so
// `act(ref=...)` has something to resolve against.
type PageTool struct {
	session     *browser.Session
	telemetry   *telemetry.Manager
	affordances *affordance.Registry
}

func NewPageTool(d Deps) *PageTool {
	return &PageTool{session: d.Session, telemetry: d.Telemetry, affordances: d.Affordances}
}

func (t *PageTool) Name() string { return "page" }
func (t *PageTool) Description() string {
	return "Returns a bounded page-perception snapshot: cheap info, or one of triage/diagnostics/audit/map/locators/graph."
}

func (t *PageTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "info", Type: "boolean", Description: "return the cheap observe snapshot"},
		tool.SchemaParam{Name: "detail", Type: "string", Description: "triage|diagnostics|audit|map|locators|graph", Enum: []string{"triage", "diagnostics", "audit", "map", "locators", "graph"}},
		tool.SchemaParam{Name: "since", Type: "integer", Description: "baseline cursor; only events at/after this are included"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *PageTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *PageTool) Close() error                    { return noClose() }

type pageArgs struct {
	Info   bool   `json:"info"`
	Detail string `json:"detail"`
	Since  int64  `json:"since"`
	TabID  string `json:"tab_id"`
}

func (t *PageTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a pageArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}

	tabCtx, tabID, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	url, _ := t.session.CurrentURL(tabCtx)
	title, _ := t.session.CurrentTitle(tabCtx)
	snap := t.telemetry.TierZeroSnapshot(tabID, a.Since, 0, 0)

	if a.Info || a.Detail == "" {
		return tool.JSONResult(map[string]any{
			"ok":      true,
			"cursor":  snap.Cursor,
			"summary": snap.Summary,
			"page":    map[string]any{"url": url, "title": title},
			"dialog":  map[string]any{"open": snap.DialogOpen},
		}), nil
	}

	base := map[string]any{"ok": true, "cursor": snap.Cursor, "summary": snap.Summary}

	switch a.Detail {
	case "triage":
		base["page"] = map[string]any{"url": url, "title": title}
		base["last_error"] = snap.Summary.LastError
		base["dialog_open"] = snap.DialogOpen

	case "diagnostics":
		base["page"] = map[string]any{"url": url, "title": title}
		base["events"] = snap.HARLite
		base["dialog"] = snap.Dialog

	case "audit":
		var perf map[string]any
		_ = t.session.Eval(tabCtx, tabCtx, perfVitalsJS, &perf)
		base["page"] = map[string]any{"url": url, "title": title}
		base["perf"] = perf
		base["events"] = snap.HARLite

	case "map", "locators":
		var items []any
		if err := t.session.Eval(tabCtx, tabCtx, actionsJS, &items); err != nil {
			return tool.Errorf("page: %v", err), nil
		}
		actions := buildAffordanceItems(items)
		t.affordances.Set(tabID, affordance.Map{Cursor: snap.Cursor, URL: url, Items: actions})
		base["page"] = map[string]any{"url": url, "title": title}
		base["actions"] = actions

	case "graph":
		var counts map[string]any
		_ = t.session.Eval(tabCtx, tabCtx, domGraphJS, &counts)
		base["page"] = map[string]any{"url": url, "title": title}
		base["graph"] = counts

	default:
		return tool.Errorf("page: unknown detail %q", a.Detail), nil
	}
	return tool.JSONResult(base), nil
}

// buildAffordanceItems converts the raw JS-side candidate list into
// affordance.Item values with stable refs (affordance.Hash), a click or
// type tool suggestion, and a meta block carrying text/kind for
// ResolveByLabel.
func buildAffordanceItems(raw []any) []affordance.Item {
	items := make([]affordance.Item, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := m["kind"].(string)
		text, _ := m["text"].(string)
		selector, _ := m["selector"].(string)
		if selector == "" {
			continue
		}

		toolName := "click"
		args := map[string]any{"selector": selector}
		if kind == "input" {
			toolName = "type"
			args = map[string]any{"selector": selector}
		}

		ref := affordance.Hash(toolName, selector, text+"|"+kind)
		items = append(items, affordance.Item{
			Ref:  ref,
			Tool: toolName,
			Args: args,
			Meta: map[string]any{"text": text, "kind": kind, "selector": selector},
		})
	}
	return items
}

// actionsJS enumerates candidate interactive elements visible in the
// viewport: links, buttons, role=button, inputs/textareas/selects, and
// anything with an onclick handler. Each item carries a best-effort CSS
// selector and its visible text/kind so page(detail=map|locators) can
// build affordance refs without Session baking in the query itself
// (spec.md §1).
const actionsJS = `(function(){
  function cssPath(el){
    if (el.id) return '#' + el.id;
    var parts = [];
    while (el && el.nodeType === 1 && parts.length < 6){
      var part = el.tagName.toLowerCase();
      if (el.classList && el.classList.length) part += '.' + el.classList[0];
      var parent = el.parentNode;
      if (parent){
        var idx = Array.prototype.indexOf.call(parent.children, el) + 1;
        part += ':nth-child(' + idx + ')';
      }
      parts.unshift(part);
      el = el.parentElement;
    }
    return parts.join(' > ');
  }
  function visible(el){
    var r = el.getBoundingClientRect();
    return r.width > 0 && r.height > 0;
  }
  var out = [];
  var nodes = document.querySelectorAll('a, button, [role=button], input, textarea, select, [onclick]');
  for (var i = 0; i < nodes.length && out.length < 200; i++){
    var el = nodes[i];
    if (!visible(el)) continue;
    var tag = el.tagName.toLowerCase();
    var kind = 'button';
    if (tag === 'a') kind = 'link';
    else if (tag === 'input' || tag === 'textarea' || tag === 'select') kind = 'input';
    var text = (el.innerText || el.value || el.placeholder || el.getAttribute('aria-label') || '').trim().slice(0, 80);
    out.push({selector: cssPath(el), text: text, kind: kind});
  }
  return out;
})()`

// perfVitalsJS pulls a minimal navigation-timing summary for the audit
// section; absent in contexts without the Performance API.
const perfVitalsJS = `(function(){
  if (!window.performance || !performance.timing) return {};
  var t = performance.timing;
  return {
    dom_content_loaded_ms: t.domContentLoadedEventEnd - t.navigationStart,
    load_event_ms: t.loadEventEnd - t.navigationStart
  };
})()`

// domGraphJS gives a cheap structural summary (element/tag counts) for the
// graph section, far short of a full accessibility tree.
const domGraphJS = `(function(){
  var counts = {};
  var all = document.getElementsByTagName('*');
  for (var i = 0; i < all.length; i++){
    var tag = all[i].tagName.toLowerCase();
    counts[tag] = (counts[tag] || 0) + 1;
  }
  return {total_elements: all.length, by_tag: counts};
})()`
