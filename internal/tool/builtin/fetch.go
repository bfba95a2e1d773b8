package builtin

import (
	"context"
	"encoding/json"

	"github.com/AmirTlinov/browser-mcp/internal/redact"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── fetch ──

// FetchTool is the quick-read counterpart to http: a GET-only, no-frills
// fetch for callers that just need a response body.
type FetchTool struct {
	gate *httpGate
}

func NewFetchTool(d Deps) *FetchTool { return &FetchTool{gate: newHTTPGate(d.Config)} }

func (t *FetchTool) Name() string        { return "fetch" }
func (t *FetchTool) Description() string { return "Performs a simple GET request against an allow-listed host." }

func (t *FetchTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "url", Type: "string", Description: "request URL", Required: true},
		tool.SchemaParam{Name: "headers", Type: "object", Description: "request headers"},
	)
}

func (t *FetchTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *FetchTool) Close() error                    { return noClose() }

type fetchArgs struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

func (t *FetchTool) Execute(ctx context.Context, raw json.RawMessage) (tool.Result, error) {
	var a fetchArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if a.URL == "" {
		return tool.Errorf("fetch: url is required"), nil
	}

	status, headers, body, err := t.gate.do(ctx, "GET", a.URL, a.Headers, "")
	if err != nil {
		return tool.Errorf("fetch: %v", err), nil
	}
	return tool.JSONResult(map[string]any{
		"ok": status < 400, "status": status, "url": redact.URL(a.URL), "headers": headers, "body": body,
	}), nil
}
