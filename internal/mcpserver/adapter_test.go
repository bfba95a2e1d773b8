package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

type fakeTool struct {
	name   string
	result tool.Result
	err    error
	gotRaw json.RawMessage
}

func (f *fakeTool) Name() string                 { return f.name }
func (f *fakeTool) Description() string          { return "fake tool for adapter tests" }
func (f *fakeTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (f *fakeTool) Init(context.Context) error   { return nil }
func (f *fakeTool) Close() error                 { return nil }
func (f *fakeTool) Execute(ctx context.Context, args json.RawMessage) (tool.Result, error) {
	f.gotRaw = args
	return f.result, f.err
}

func newRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestWrapToolPassesArgumentsThrough(t *testing.T) {
	ft := &fakeTool{name: "echo", result: tool.Text("ok")}
	a := &Adapter{}
	handler := a.wrapTool(ft)

	res, err := handler(context.Background(), newRequest(map[string]any{"x": "y"}))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if res.IsError {
		t.Fatal("expected IsError=false")
	}
	var decoded map[string]any
	if jsonErr := json.Unmarshal(ft.gotRaw, &decoded); jsonErr != nil {
		t.Fatalf("tool did not receive valid JSON args: %v", jsonErr)
	}
	if decoded["x"] != "y" {
		t.Fatalf("expected x=y, got %+v", decoded)
	}
}

func TestWrapToolNilArgumentsPassNoRawArgs(t *testing.T) {
	ft := &fakeTool{name: "noargs", result: tool.Text("ok")}
	a := &Adapter{}
	handler := a.wrapTool(ft)

	if _, err := handler(context.Background(), newRequest(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ft.gotRaw) != 0 {
		t.Fatalf("expected no raw args for an empty call, got %q", ft.gotRaw)
	}
}

func TestWrapToolGoErrorSurfacesAsIsError(t *testing.T) {
	ft := &fakeTool{name: "boom", err: errBoom}
	a := &Adapter{}
	handler := a.wrapTool(ft)

	res, err := handler(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("handler must not return a Go error, got %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError=true for a failed Execute")
	}
}

func TestToCallToolResultImageContent(t *testing.T) {
	result := tool.Image("ZmFrZQ==", "image/jpeg")
	out := toCallToolResult(result)
	if len(out.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(out.Content))
	}
}

func TestToCallToolResultEmptyContentStillReturnsOneBlock(t *testing.T) {
	out := toCallToolResult(tool.Result{})
	if len(out.Content) != 1 {
		t.Fatalf("expected a fallback text block, got %d blocks", len(out.Content))
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
