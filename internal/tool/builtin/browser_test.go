package builtin

import (
	"encoding/json"
	"testing"

	"github.com/AmirTlinov/browser-mcp/internal/memory"
	"github.com/AmirTlinov/browser-mcp/internal/policy"
)

// ── sensitive-literal detection unit tests ──────────────────────────────────

func TestIsPlaceholderRecognizesBraces(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"{{mem:token}}", true},
		{"${param:key}", true},
		{"plain literal", false},
		{"", false},
		{"{{incomplete", false},
	}
	for _, c := range cases {
		if got := isPlaceholder(c.in); got != c.want {
			t.Errorf("isPlaceholder(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestHasSensitiveLiteralDetectsLiteralSecret(t *testing.T) {
	steps := []map[string]any{
		{"selector": "#pwd", "text": "hunter2"},
	}
	if !hasSensitiveLiteral(steps) {
		t.Fatal("expected a literal under a sensitive key to be detected")
	}
}

func TestHasSensitiveLiteralAllowsPlaceholder(t *testing.T) {
	steps := []map[string]any{
		{"selector": "#pwd", "text": "{{mem:token}}"},
	}
	if hasSensitiveLiteral(steps) {
		t.Fatal("expected a placeholder value to be allowed")
	}
}

func TestHasSensitiveLiteralIgnoresNonSensitiveKeys(t *testing.T) {
	steps := []map[string]any{
		{"selector": "#search", "text_ignored_key": "some value"},
	}
	if hasSensitiveLiteral(steps) {
		t.Fatal("unrelated keys should not trigger sensitive-literal detection")
	}
}

func TestBrowserToolRunbookSaveRejectsSensitiveLiteral(t *testing.T) {
	mem, err := memory.New(8)
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	pol, err := policy.New(policy.ModePermissive, 1, nil)
	if err != nil {
		t.Fatalf("policy.New: %v", err)
	}
	bt := NewBrowserTool(Deps{Memory: mem, Policy: pol})

	raw, _ := json.Marshal(map[string]any{
		"action": "runbook_save",
		"key":    "rb",
		"steps":  []map[string]any{{"text": "hunter2"}},
	})
	res, err := bt.Execute(nil, raw)
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected runbook_save to refuse a sensitive literal by default")
	}
}

func TestBrowserToolRunbookSaveAllowsWithFlag(t *testing.T) {
	mem, err := memory.New(8)
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	pol, err := policy.New(policy.ModePermissive, 1, nil)
	if err != nil {
		t.Fatalf("policy.New: %v", err)
	}
	bt := NewBrowserTool(Deps{Memory: mem, Policy: pol})

	raw, _ := json.Marshal(map[string]any{
		"action":          "runbook_save",
		"key":             "rb",
		"steps":           []map[string]any{{"text": "hunter2"}},
		"allow_sensitive": true,
	})
	res, err := bt.Execute(nil, raw)
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if res.IsError {
		t.Fatalf("expected allow_sensitive=true to permit the save, got error result")
	}
}

func TestBrowserToolMemorySetBlockedUnderStrictPolicy(t *testing.T) {
	mem, err := memory.New(8)
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	pol, err := policy.New(policy.ModeStrict, 1, nil)
	if err != nil {
		t.Fatalf("policy.New: %v", err)
	}
	bt := NewBrowserTool(Deps{Memory: mem, Policy: pol})

	raw, _ := json.Marshal(map[string]any{"action": "memory_set", "key": "k", "value": "v"})
	res, err := bt.Execute(nil, raw)
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected strict policy to block memory_set")
	}
}

func TestBrowserToolMemorySetGetRoundTrip(t *testing.T) {
	mem, err := memory.New(8)
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	pol, err := policy.New(policy.ModePermissive, 1, nil)
	if err != nil {
		t.Fatalf("policy.New: %v", err)
	}
	bt := NewBrowserTool(Deps{Memory: mem, Policy: pol})

	setRaw, _ := json.Marshal(map[string]any{"action": "memory_set", "key": "greeting", "value": "hello"})
	if res, err := bt.Execute(nil, setRaw); err != nil || res.IsError {
		t.Fatalf("memory_set failed: err=%v res=%+v", err, res)
	}

	getRaw, _ := json.Marshal(map[string]any{"action": "memory_get", "key": "greeting"})
	res, err := bt.Execute(nil, getRaw)
	if err != nil || res.IsError {
		t.Fatalf("memory_get failed: err=%v res=%+v", err, res)
	}
	if got := resultJSON(res)["value"]; got != "hello" {
		t.Fatalf("memory_get value = %v, want %q", got, "hello")
	}
}
