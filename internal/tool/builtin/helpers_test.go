package builtin

import "github.com/AmirTlinov/browser-mcp/internal/tool"

// resultJSON extracts the map[string]any a tool.JSONResult carries, for
// tests that only need to assert on a couple of fields.
func resultJSON(r tool.Result) map[string]any {
	for _, c := range r.Content {
		if m, ok := c.JSON.(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}
