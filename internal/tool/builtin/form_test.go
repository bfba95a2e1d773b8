package builtin

import (
	"encoding/json"
	"testing"
)

// ── rawArrayItems unit tests ─────────────────────────────────────────────

func TestRawArrayItemsBuildsSchemaBlob(t *testing.T) {
	raw := rawArrayItems("string")
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("rawArrayItems produced invalid JSON: %v", err)
	}
	if m["type"] != "string" {
		t.Fatalf("type = %v, want %q", m["type"], "string")
	}
}
