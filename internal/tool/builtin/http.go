package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/redact"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── http ──

// HTTPTool is the general-purpose outbound request tool: arbitrary method,
// headers, and body, still gated by the same allowlist/rate limiter fetch
// uses.
type HTTPTool struct {
	gate *httpGate
}

func NewHTTPTool(d Deps) *HTTPTool { return &HTTPTool{gate: newHTTPGate(d.Config)} }

func (t *HTTPTool) Name() string        { return "http" }
func (t *HTTPTool) Description() string { return "Performs an arbitrary-method HTTP request against an allow-listed host." }

func (t *HTTPTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "url", Type: "string", Description: "request URL", Required: true},
		tool.SchemaParam{Name: "method", Type: "string", Description: "HTTP method, default GET"},
		tool.SchemaParam{Name: "headers", Type: "object", Description: "request headers"},
		tool.SchemaParam{Name: "body", Type: "string", Description: "request body"},
	)
}

func (t *HTTPTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *HTTPTool) Close() error                    { return noClose() }

type httpArgs struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

func (t *HTTPTool) Execute(ctx context.Context, raw json.RawMessage) (tool.Result, error) {
	var a httpArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if a.URL == "" {
		return tool.Errorf("http: url is required"), nil
	}
	method := orDefault(a.Method, "GET")

	status, headers, body, err := t.gate.do(ctx, method, a.URL, a.Headers, a.Body)
	if err != nil {
		return tool.Errorf("http: %v", err), nil
	}
	return tool.JSONResult(map[string]any{
		"ok": status < 400, "status": status, "url": redact.URL(a.URL), "headers": headers, "body": body,
	}), nil
}
