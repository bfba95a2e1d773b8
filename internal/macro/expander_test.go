package macro

import "testing"

func TestExpandUnknownMacroFails(t *testing.T) {
	if _, err := Expand("nope", nil, nil); err == nil {
		t.Fatal("expected error for unknown macro")
	}
}

func TestExpandTraceThenScreenshot(t *testing.T) {
	plan, err := Expand("trace_then_screenshot", map[string]any{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[1]["tool"] != "screenshot" {
		t.Fatalf("expected second step to be screenshot, got %+v", plan.Steps[1])
	}
}

func TestExpandDismissOverlays(t *testing.T) {
	plan, err := Expand("dismiss_overlays", map[string]any{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 1 || plan.Steps[0]["tool"] != "js" {
		t.Fatalf("unexpected plan: %+v", plan.Steps)
	}
	if plan.Steps[0]["optional"] != true {
		t.Fatal("expected dismiss_overlays step to be optional")
	}
}

func TestExpandLoginBasicRequiresCredentials(t *testing.T) {
	if _, err := Expand("login_basic", map[string]any{"username": "bob"}, nil); err == nil {
		t.Fatal("expected error without password")
	}
}

func TestExpandLoginBasicRedactsPlanNote(t *testing.T) {
	plan, err := Expand("login_basic", map[string]any{"username": "bob", "password": "hunter2"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := plan.Steps[0]["args"].(map[string]any)
	if args["password"] != "hunter2" {
		t.Fatalf("expected step args to carry the real password, got %v", args["password"])
	}
	if containsSubstring(plan.Note, "hunter2") {
		t.Fatalf("plan note leaked the password: %q", plan.Note)
	}
}

func TestExpandScrollUntilVisibleRequiresSelectorOrText(t *testing.T) {
	if _, err := Expand("scroll_until_visible", map[string]any{}, nil); err == nil {
		t.Fatal("expected error without selector or text")
	}
}

func TestExpandScrollUntilVisibleBuildsRepeat(t *testing.T) {
	plan, err := Expand("scroll_until_visible", map[string]any{"selector": "#done"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 1 || plan.Steps[0]["tool"] != "repeat" {
		t.Fatalf("unexpected plan: %+v", plan.Steps)
	}
}

func TestExpandGotoIfNeededBuildsWhen(t *testing.T) {
	plan, err := Expand("goto_if_needed", map[string]any{"url_contains": "/dashboard", "url": "https://example.test/dashboard"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Steps[0]["tool"] != "when" {
		t.Fatalf("expected when step, got %+v", plan.Steps[0])
	}
}

func TestExpandAssertThenPrependsAssert(t *testing.T) {
	plan, err := Expand("assert_then", map[string]any{
		"assert": map[string]any{"url": "/ok"},
		"then":   []any{map[string]any{"tool": "screenshot", "args": map[string]any{}}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 2 || plan.Steps[0]["tool"] != "assert" || plan.Steps[1]["tool"] != "screenshot" {
		t.Fatalf("unexpected plan: %+v", plan.Steps)
	}
}

func TestExpandIncludeMemoryStepsRequiresReader(t *testing.T) {
	if _, err := Expand("include_memory_steps", map[string]any{"memory_key": "runbook1"}, nil); err == nil {
		t.Fatal("expected error with no memory reader configured")
	}
}

func TestExpandIncludeMemoryStepsLoadsFromReader(t *testing.T) {
	reader := func(key string) ([]map[string]any, bool, error) {
		if key != "runbook1" {
			return nil, false, nil
		}
		return []map[string]any{{"tool": "click", "args": map[string]any{"selector": "#a"}}}, true, nil
	}
	plan, err := Expand("include_memory_steps", map[string]any{"memory_key": "runbook1"}, reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 1 || plan.Steps[0]["tool"] != "click" {
		t.Fatalf("unexpected plan: %+v", plan.Steps)
	}
}

func TestExpandIncludeMemoryStepsMissingKeyFails(t *testing.T) {
	reader := func(key string) ([]map[string]any, bool, error) { return nil, false, nil }
	if _, err := Expand("include_memory_steps", map[string]any{"memory_key": "missing"}, reader); err == nil {
		t.Fatal("expected error for missing memory key")
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
