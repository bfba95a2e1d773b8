package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// contractEntry is the JSON shape one catalog tool renders as (spec.md §6
// "Contract artifacts"), kept deliberately small: name, description, and
// the raw input schema a client needs to build a tools/call request.
type contractEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

func snapshotEntries(reg *tool.Registry) []contractEntry {
	tools := reg.List()
	entries := make([]contractEntry, 0, len(tools))
	for _, t := range tools {
		entries = append(entries, contractEntry{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return entries
}

func writeContractJSON(reg *tool.Registry, path string) error {
	data, err := json.MarshalIndent(snapshotEntries(reg), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal contract: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeContractMarkdown(reg *tool.Registry, path string) error {
	var b strings.Builder
	b.WriteString("# Tool catalog\n\n| Tool | Description |\n|---|---|\n")
	for _, e := range snapshotEntries(reg) {
		fmt.Fprintf(&b, "| `%s` | %s |\n", e.Name, e.Description)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
