package builtin

import "testing"

// ── buildAffordanceItems unit tests ─────────────────────────────────────

func TestBuildAffordanceItemsSkipsMissingSelector(t *testing.T) {
	raw := []any{
		map[string]any{"kind": "button", "text": "Submit"}, // no selector
		map[string]any{"kind": "button", "text": "OK", "selector": "#ok"},
	}
	items := buildAffordanceItems(raw)
	if len(items) != 1 {
		t.Fatalf("expected 1 item after skipping the selector-less entry, got %d", len(items))
	}
}

func TestBuildAffordanceItemsAssignsToolByKind(t *testing.T) {
	raw := []any{
		map[string]any{"kind": "input", "text": "", "selector": "#email"},
		map[string]any{"kind": "button", "text": "Go", "selector": "#go"},
	}
	items := buildAffordanceItems(raw)
	byTool := map[string]int{}
	for _, it := range items {
		byTool[it.Tool]++
	}
	if byTool["type"] != 1 || byTool["click"] != 1 {
		t.Fatalf("expected one type and one click affordance, got %+v", byTool)
	}
}

func TestBuildAffordanceItemsRefsAreStable(t *testing.T) {
	raw := []any{
		map[string]any{"kind": "link", "text": "Home", "selector": "nav a:nth-child(1)"},
	}
	a := buildAffordanceItems(raw)
	b := buildAffordanceItems(raw)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one item in each run")
	}
	if a[0].Ref != b[0].Ref {
		t.Fatalf("expected a deterministic ref for identical input, got %q vs %q", a[0].Ref, b[0].Ref)
	}
}

func TestBuildAffordanceItemsRefsDifferByText(t *testing.T) {
	raw1 := []any{map[string]any{"kind": "link", "text": "Home", "selector": "a"}}
	raw2 := []any{map[string]any{"kind": "link", "text": "About", "selector": "a"}}
	a := buildAffordanceItems(raw1)
	b := buildAffordanceItems(raw2)
	if a[0].Ref == b[0].Ref {
		t.Fatal("expected distinct refs for distinct link text on the same selector")
	}
}
