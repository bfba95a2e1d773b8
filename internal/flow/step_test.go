package flow

import "testing"

func allKnown(string) bool { return true }

func TestNormalizeStepExplicitShape(t *testing.T) {
	raw := map[string]any{
		"tool": "click",
		"args": map[string]any{"selector": "#go"},
		"label": "click go",
		"optional": true,
	}
	s, err := NormalizeStep(raw, allKnown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Tool != "click" || s.Label != "click go" || !s.Optional {
		t.Fatalf("unexpected step: %+v", s)
	}
	if s.Args["selector"] != "#go" {
		t.Fatalf("args not preserved: %+v", s.Args)
	}
}

func TestNormalizeStepShorthandShape(t *testing.T) {
	raw := map[string]any{
		"navigate": map[string]any{"url": "https://example.test"},
		"download": true,
	}
	s, err := NormalizeStep(raw, allKnown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Tool != "navigate" || !s.Download {
		t.Fatalf("unexpected step: %+v", s)
	}
	if s.Args["url"] != "https://example.test" {
		t.Fatalf("args not preserved: %+v", s.Args)
	}
}

func TestNormalizeStepRejectsBothShapes(t *testing.T) {
	raw := map[string]any{
		"tool": "click",
		"args": map[string]any{},
		"navigate": map[string]any{"url": "x"},
	}
	if _, err := NormalizeStep(raw, allKnown); err == nil {
		t.Fatal("expected error for ambiguous step shape")
	}
}

func TestNormalizeStepRejectsEmpty(t *testing.T) {
	if _, err := NormalizeStep(map[string]any{"label": "noop"}, allKnown); err == nil {
		t.Fatal("expected error for empty step")
	}
}

func TestNormalizeStepRejectsUnknownTool(t *testing.T) {
	known := func(name string) bool { return name == "click" }
	raw := map[string]any{"tool": "frobnicate", "args": map[string]any{}}
	if _, err := NormalizeStep(raw, known); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestNormalizeStepParsesExport(t *testing.T) {
	raw := map[string]any{
		"tool": "page",
		"args": map[string]any{},
		"export": map[string]any{"cursor": "cursor", "artId": "artifact.id"},
	}
	s, err := NormalizeStep(raw, allKnown)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Export["cursor"] != "cursor" || s.Export["artId"] != "artifact.id" {
		t.Fatalf("export not parsed: %+v", s.Export)
	}
}

func TestIsInternalAction(t *testing.T) {
	for _, name := range []string{"assert", "when", "repeat", "macro", "act"} {
		if !IsInternalAction(name) {
			t.Errorf("%q should be an internal action", name)
		}
	}
	if IsInternalAction("click") {
		t.Error("click should not be an internal action")
	}
}

func TestStepCloneIsIndependent(t *testing.T) {
	s := Step{Tool: "click", Args: map[string]any{"selector": "#a"}, Export: map[string]string{"x": "y"}}
	clone := s.Clone()
	clone.Args["selector"] = "#b"
	clone.Export["x"] = "z"
	if s.Args["selector"] != "#a" {
		t.Error("cloning mutated original Args")
	}
	if s.Export["x"] != "y" {
		t.Error("cloning mutated original Export")
	}
}
