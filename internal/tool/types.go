// Package tool defines the Tool interface every built-in browser action
// implements (spec.md §6) and the thread-safe Registry that the MCP
// adapter and the run engine's `act`/`macro` dispatch both resolve tools
// through.
//
// Grounded on the teacher's internal/tool/types.go and registry.go Tool
// interface and Registry view/parent delegation pattern, generalized from a
// plain-text ToolResult to one that also carries JSON content and inline
// image payloads (screenshot, extract_content) per spec.md §6.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is the unified interface every built-in action and MCP-bridged tool
// implements.
type Tool interface {
	// Name returns the tool identifier used in act/macro steps and in the
	// MCP tools/list response.
	Name() string

	// Description returns a natural-language description surfaced via the
	// MCP tools/list response.
	Description() string

	// InputSchema returns a JSON Schema for the tool's parameters.
	InputSchema() json.RawMessage

	// Execute runs the tool with JSON-encoded arguments.
	Execute(ctx context.Context, args json.RawMessage) (Result, error)

	// Init initializes tool resources. Tools with no setup return nil.
	Init(ctx context.Context) error

	// Close releases tool resources.
	Close() error
}

// ContentKind classifies one piece of a Result's content.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentJSON  ContentKind = "json"
	ContentImage ContentKind = "image"
)

// Content is one unit of a tool's output, matching the MCP content-block
// shape (text / image / structured JSON) so the adapter layer can pass it
// through to mark3labs/mcp-go with no re-shaping.
type Content struct {
	Kind ContentKind

	Text string // ContentText, ContentJSON (pre-serialized)
	JSON any    // ContentJSON (used when the caller wants re-serialization)

	ImageBase64 string // ContentImage
	MimeType    string // ContentImage, defaults to image/png
}

// Result is a tool's full execution outcome (spec.md §6 per-tool contract):
// zero or more content blocks, plus an IsError flag distinguishing a
// tool-level failure (which the model should see and can react to) from a
// protocol-level error (which aborts the call).
type Result struct {
	Content []Content
	IsError bool
}

// Text builds a single-block text Result.
func Text(s string) Result {
	return Result{Content: []Content{{Kind: ContentText, Text: s}}}
}

// JSONResult builds a single-block structured Result from v.
func JSONResult(v any) Result {
	return Result{Content: []Content{{Kind: ContentJSON, JSON: v}}}
}

// Image builds a single-block inline image Result (the screenshot tool).
func Image(base64Data, mimeType string) Result {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return Result{Content: []Content{{Kind: ContentImage, ImageBase64: base64Data, MimeType: mimeType}}}
}

// Errorf builds an error Result with a formatted message, matching the
// engine's "step failed, batch continues per policy" contract (spec.md
// §4.1) rather than returning a Go error, which is reserved for conditions
// that abort the whole call (bad arguments, transport failure).
func Errorf(format string, args ...any) Result {
	return Result{IsError: true, Content: []Content{{Kind: ContentText, Text: fmt.Sprintf(format, args...)}}}
}

// SchemaParam describes one JSON-Schema parameter for BuildSchema.
type SchemaParam struct {
	Name        string
	Type        string // "string", "integer", "boolean", "number", "object", "array"
	Description string
	Required    bool
	Enum        []string
	Items       json.RawMessage // for Type == "array"
}

// BuildSchema assembles a JSON Schema object from SchemaParams, the same
// helper shape the teacher's tool package exposes.
func BuildSchema(params ...SchemaParam) json.RawMessage {
	properties := make(map[string]any, len(params))
	var required []string

	for _, p := range params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == "array" && len(p.Items) > 0 {
			var items any
			_ = json.Unmarshal(p.Items, &items)
			prop["items"] = items
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	data, _ := json.Marshal(schema)
	return data
}
