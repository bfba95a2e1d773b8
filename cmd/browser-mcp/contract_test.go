package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

type stubTool struct{ name string }

func (s *stubTool) Name() string                 { return s.name }
func (s *stubTool) Description() string          { return "stub tool for contract-snapshot tests" }
func (s *stubTool) InputSchema() json.RawMessage { return tool.BuildSchema() }
func (s *stubTool) Init(context.Context) error   { return nil }
func (s *stubTool) Close() error                 { return nil }
func (s *stubTool) Execute(context.Context, json.RawMessage) (tool.Result, error) {
	return tool.Text("stub"), nil
}

func TestSnapshotEntriesSortedByName(t *testing.T) {
	reg := tool.NewRegistry()
	reg.Register(&stubTool{name: "b"})
	reg.Register(&stubTool{name: "a"})

	entries := snapshotEntries(reg)
	if len(entries) != 2 || entries[0].Name != "a" || entries[1].Name != "b" {
		t.Fatalf("expected sorted [a b], got %+v", entries)
	}
}

func TestWriteContractJSONAndMarkdown(t *testing.T) {
	reg := tool.NewRegistry()
	reg.Register(&stubTool{name: "navigate"})

	dir := t.TempDir()
	prefix := filepath.Join(dir, "contract")
	if err := writeContractJSON(reg, prefix+".json"); err != nil {
		t.Fatalf("writeContractJSON: %v", err)
	}
	if err := writeContractMarkdown(reg, prefix+".md"); err != nil {
		t.Fatalf("writeContractMarkdown: %v", err)
	}

	data, err := os.ReadFile(prefix + ".json")
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var entries []contractEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("json contract invalid: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "navigate" {
		t.Fatalf("unexpected contract entries: %+v", entries)
	}

	md, err := os.ReadFile(prefix + ".md")
	if err != nil {
		t.Fatalf("read md: %v", err)
	}
	if len(md) == 0 {
		t.Fatal("expected non-empty markdown contract")
	}
}
