// Package mcpserver bridges the internal tool.Registry to
// mark3labs/mcp-go's server.MCPServer: every registered tool becomes one
// MCP tool, dispatched over stdio JSON-RPC (spec.md §6).
//
// Grounded on the mark3labs/mcp-go server wiring other_examples' browserNerd
// (internal/mcp/mcp-server.go: NewMCPServer + With* options, AddTool,
// ToolHandlerFunc, stdio via NewStdioServer.Listen) and Hoofy
// (internal/server/server.go, same options set) both use from outside the
// pack, generalized from their per-tool-struct registration to a single
// generic wrapper around our tool.Tool interface.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// Adapter owns the mark3labs MCP server instance and the tool.Registry it
// dispatches tools/call requests through.
type Adapter struct {
	reg *tool.Registry
	srv *mcpserver.MCPServer
}

// New builds an Adapter, registering every tool currently in reg. name and
// version surface in the initialize response.
func New(reg *tool.Registry, name, version string) *Adapter {
	srv := mcpserver.NewMCPServer(
		name,
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
		mcpserver.WithPromptCapabilities(false),
		mcpserver.WithRecovery(),
		mcpserver.WithLogging(),
	)

	a := &Adapter{reg: reg, srv: srv}
	for _, t := range reg.List() {
		a.registerTool(t)
	}
	return a
}

func (a *Adapter) registerTool(t tool.Tool) {
	mcpTool := mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.InputSchema())
	a.srv.AddTool(mcpTool, a.wrapTool(t))
}

// wrapTool adapts one tool.Tool into a mark3labs ToolHandlerFunc: arguments
// are re-marshaled to the json.RawMessage Execute expects, and the
// tool.Result is translated into mcp.CallToolResult content blocks. A
// tool-level failure (tool.Result.IsError) and a Go error both surface as
// IsError:true — spec.md §6 makes no distinction between the two at the
// tools/call envelope, only `step_summaries`/flow-level reporting does.
func (a *Adapter) wrapTool(t tool.Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		raw, err := marshalArgs(args)
		if err != nil {
			return errorResult(fmt.Sprintf("%s: invalid arguments: %v", t.Name(), err)), nil
		}

		result, err := t.Execute(ctx, raw)
		if err != nil {
			return errorResult(fmt.Sprintf("%s: %v", t.Name(), err)), nil
		}
		return toCallToolResult(result), nil
	}
}

// Serve runs the stdio JSON-RPC dispatcher until ctx is canceled or stdin
// closes (spec.md §6 "JSON-RPC over stdio").
func (a *Adapter) Serve(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(a.srv)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

func marshalArgs(args map[string]any) ([]byte, error) {
	if len(args) == 0 {
		return nil, nil
	}
	return json.Marshal(args)
}

func toCallToolResult(result tool.Result) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(result.Content))
	for _, c := range result.Content {
		switch c.Kind {
		case tool.ContentImage:
			mime := c.MimeType
			if mime == "" {
				mime = "image/png"
			}
			content = append(content, mcp.NewImageContent(c.ImageBase64, mime))
		case tool.ContentJSON:
			content = append(content, mcp.NewTextContent(jsonContentText(c)))
		default:
			content = append(content, mcp.NewTextContent(c.Text))
		}
	}
	if len(content) == 0 {
		content = append(content, mcp.NewTextContent(""))
	}
	return &mcp.CallToolResult{Content: content, IsError: result.IsError}
}

// jsonContentText prefers a pre-serialized Text block, falling back to
// marshaling JSON when the caller built the Content with JSON set instead
// (tool.JSONResult's shape).
func jsonContentText(c tool.Content) string {
	if c.Text != "" {
		return c.Text
	}
	data, err := json.Marshal(c.JSON)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(data)
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(msg)},
		IsError: true,
	}
}
