package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── extract_content ──

// ExtractContentTool implements the paginated structured-content reader
// (original_source's EXTRACT_TOOL): an overview mode with counts/hints, and
// detail modes (main/table/links/headings/images) with offset/limit
// pagination so a full DOM dump never needs to cross the wire.
type ExtractContentTool struct {
	session *browser.Session
}

func NewExtractContentTool(d Deps) *ExtractContentTool {
	return &ExtractContentTool{session: d.Session}
}

func (t *ExtractContentTool) Name() string { return "extract_content" }
func (t *ExtractContentTool) Description() string {
	return "Extracts structured content (main text, tables, links, headings, images) from the page, paginated."
}

func (t *ExtractContentTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "url", Type: "string", Description: "optional URL to navigate before extraction"},
		tool.SchemaParam{Name: "wait", Type: "string", Description: "navigation wait condition, default load", Enum: []string{"navigation", "load", "domcontentloaded", "networkidle", "none"}},
		tool.SchemaParam{Name: "content_type", Type: "string", Description: "overview|main|table|links|headings|images", Enum: []string{"overview", "main", "table", "links", "headings", "images"}},
		tool.SchemaParam{Name: "selector", Type: "string", Description: "CSS selector to scope extraction"},
		tool.SchemaParam{Name: "offset", Type: "integer", Description: "starting index for paginated results"},
		tool.SchemaParam{Name: "limit", Type: "integer", Description: "max items to return, default 10, max 50"},
		tool.SchemaParam{Name: "table_index", Type: "integer", Description: "specific table index when content_type=table"},
		tool.SchemaParam{Name: "tab_id", Type: "string", Description: "target tab, defaults to the active tab"},
	)
}

func (t *ExtractContentTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *ExtractContentTool) Close() error                    { return noClose() }

type extractArgs struct {
	URL         string `json:"url"`
	Wait        string `json:"wait"`
	ContentType string `json:"content_type"`
	Selector    string `json:"selector"`
	Offset      int    `json:"offset"`
	Limit       int    `json:"limit"`
	TableIndex  int    `json:"table_index"`
	TabID       string `json:"tab_id"`
}

func (t *ExtractContentTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a extractArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	contentType := orDefault(a.ContentType, "overview")
	limit := a.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	tabCtx, _, err := ensureTab(t.session, a.TabID)
	if err != nil {
		return errResult(err)
	}

	if a.URL != "" {
		if err := t.session.Navigate(tabCtx, tabCtx, a.URL, "", orDefault(a.Wait, "load")); err != nil {
			return tool.Errorf("extract_content: %v", err), nil
		}
	}

	scope := "document"
	if a.Selector != "" {
		scope = "(document.querySelector(" + quoteJS(a.Selector) + ") || document)"
	}

	var result any
	var expr string
	switch contentType {
	case "overview":
		expr = extractOverviewJS(scope)
	case "main":
		expr = extractPaginatedJS(scope, extractMainItemsJS, a.Offset, limit)
	case "table":
		if a.TableIndex > 0 || hasTableIndex(raw) {
			expr = extractTableRowsJS(scope, a.TableIndex, a.Offset, limit)
		} else {
			expr = extractTableListJS(scope, a.Offset, limit)
		}
	case "links":
		expr = extractPaginatedJS(scope, extractLinkItemsJS, a.Offset, limit)
	case "headings":
		expr = extractPaginatedJS(scope, extractHeadingItemsJS, a.Offset, limit)
	case "images":
		expr = extractPaginatedJS(scope, extractImageItemsJS, a.Offset, limit)
	default:
		return tool.Errorf("extract_content: unknown content_type %q", contentType), nil
	}

	if err := t.session.Eval(tabCtx, tabCtx, expr, &result); err != nil {
		return tool.Errorf("extract_content: %v", err), nil
	}
	return tool.JSONResult(map[string]any{"ok": true, "content_type": contentType, "offset": a.Offset, "limit": limit, "result": result}), nil
}

// hasTableIndex distinguishes "table_index explicitly set to 0" from "not
// provided at all" by re-scanning the raw arguments, since the zero value
// is ambiguous for an int field.
func hasTableIndex(raw json.RawMessage) bool {
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil {
		return false
	}
	_, ok := m["table_index"]
	return ok
}

func extractOverviewJS(scope string) string {
	return `(function(){
  var root = ` + scope + `;
  var paras = root.querySelectorAll('p');
  var tables = root.querySelectorAll('table');
  var links = root.querySelectorAll('a[href]');
  var headings = root.querySelectorAll('h1,h2,h3,h4,h5,h6');
  var images = root.querySelectorAll('img');
  return {
    paragraph_count: paras.length,
    table_count: tables.length,
    link_count: links.length,
    heading_count: headings.length,
    image_count: images.length,
    title: document.title,
    hint: 'use content_type with offset/limit for paginated detail'
  };
})()`
}

func extractPaginatedJS(scope, itemsExpr string, offset, limit int) string {
	return `(function(){
  var root = ` + scope + `;
  var items = ` + itemsExpr + `;
  var total = items.length;
  var sliced = items.slice(` + itoa(offset) + `, ` + itoa(offset) + ` + ` + itoa(limit) + `);
  return {total: total, items: sliced};
})()`
}

const extractMainItemsJS = `Array.prototype.map.call(root.querySelectorAll('p'), function(p){ return p.innerText.trim(); }).filter(function(s){ return s.length > 0; })`

const extractLinkItemsJS = `Array.prototype.map.call(root.querySelectorAll('a[href]'), function(a){ return {text: a.innerText.trim(), href: a.href}; })`

const extractHeadingItemsJS = `Array.prototype.map.call(root.querySelectorAll('h1,h2,h3,h4,h5,h6'), function(h){ return {level: parseInt(h.tagName.substring(1),10), text: h.innerText.trim()}; })`

const extractImageItemsJS = `Array.prototype.map.call(root.querySelectorAll('img'), function(img){ return {src: img.src, alt: img.alt || ''}; })`

func extractTableListJS(scope string, offset, limit int) string {
	return `(function(){
  var root = ` + scope + `;
  var tables = root.querySelectorAll('table');
  var metas = Array.prototype.map.call(tables, function(tb, i){
    return {index: i, rows: tb.rows.length, columns: tb.rows.length > 0 ? tb.rows[0].cells.length : 0};
  });
  var total = metas.length;
  var sliced = metas.slice(` + itoa(offset) + `, ` + itoa(offset) + ` + ` + itoa(limit) + `);
  return {total: total, tables: sliced};
})()`
}

func extractTableRowsJS(scope string, tableIndex, offset, limit int) string {
	return `(function(){
  var root = ` + scope + `;
  var tables = root.querySelectorAll('table');
  var tb = tables[` + itoa(tableIndex) + `];
  if (!tb) return {error: 'table index out of range', total: 0, rows: []};
  var rows = Array.prototype.map.call(tb.rows, function(r){
    return Array.prototype.map.call(r.cells, function(c){ return c.innerText.trim(); });
  });
  var total = rows.length;
  var sliced = rows.slice(` + itoa(offset) + `, ` + itoa(offset) + ` + ` + itoa(limit) + `);
  return {total: total, rows: sliced};
})()`
}

func itoa(n int) string {
	if n < 0 {
		n = 0
	}
	digits := "0123456789"
	if n == 0 {
		return "0"
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return string(buf)
}
