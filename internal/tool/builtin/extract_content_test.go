package builtin

import (
	"encoding/json"
	"strings"
	"testing"
)

// ── itoa/hasTableIndex unit tests ────────────────────────────────────────

func TestItoa(t *testing.T) {
	cases := map[int]string{0: "0", 5: "5", 42: "42", 100: "100", -3: "0"}
	for in, want := range cases {
		if got := itoa(in); got != want {
			t.Errorf("itoa(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestHasTableIndexDetectsPresence(t *testing.T) {
	raw := json.RawMessage(`{"content_type":"table","table_index":0}`)
	if !hasTableIndex(raw) {
		t.Fatal("expected table_index:0 to be detected as present")
	}
}

func TestHasTableIndexAbsent(t *testing.T) {
	raw := json.RawMessage(`{"content_type":"table"}`)
	if hasTableIndex(raw) {
		t.Fatal("expected absent table_index to be reported as not present")
	}
}

func TestExtractPaginatedJSReferencesRoot(t *testing.T) {
	expr := extractPaginatedJS("document", extractMainItemsJS, 0, 10)
	if !strings.Contains(expr, "root.querySelectorAll") {
		t.Fatalf("expected generated JS to reference root.querySelectorAll, got %s", expr)
	}
	if !strings.Contains(expr, "slice(0, 0 + 10)") {
		t.Fatalf("expected offset/limit slice expression, got %s", expr)
	}
}

func TestExtractTableRowsJSEmbedsIndex(t *testing.T) {
	expr := extractTableRowsJS("document", 2, 0, 10)
	if !strings.Contains(expr, "tables[2]") {
		t.Fatalf("expected table index embedded in generated JS, got %s", expr)
	}
}
