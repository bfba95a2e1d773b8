package flow

import (
	"testing"

	"github.com/AmirTlinov/browser-mcp/internal/memory"
)

func TestInterpolateExactPlaceholderPreservesType(t *testing.T) {
	vars := Vars{"cursor": 123}
	args := map[string]any{"timeout": "{{cursor}}"}
	out, err := InterpolateArgs(args, vars, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := out["timeout"].(int); !ok || v != 123 {
		t.Fatalf("expected int 123, got %#v", out["timeout"])
	}
}

func TestInterpolateInlineStringifies(t *testing.T) {
	vars := Vars{"artId": "art_abc"}
	args := map[string]any{"url": "https://example.test/{{artId}}"}
	out, err := InterpolateArgs(args, vars, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["url"] != "https://example.test/art_abc" {
		t.Fatalf("unexpected url: %v", out["url"])
	}
}

func TestInterpolateDollarBraceSyntax(t *testing.T) {
	vars := Vars{"x": 7}
	args := map[string]any{"n": "${x}"}
	out, err := InterpolateArgs(args, vars, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["n"] != 7 {
		t.Fatalf("expected 7, got %#v", out["n"])
	}
}

func TestInterpolateMissingVarFailsClosed(t *testing.T) {
	args := map[string]any{"x": "{{missing}}"}
	if _, err := InterpolateArgs(args, Vars{}, nil); err == nil {
		t.Fatal("expected missing-ref error")
	} else if _, ok := err.(*MissingRefError); !ok {
		t.Fatalf("expected *MissingRefError, got %T", err)
	}
}

func TestInterpolateMemRef(t *testing.T) {
	mem, err := memory.New(8)
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	mem.Set("api_token", "sekrit", false)
	args := map[string]any{"token": "{{mem:api_token}}"}
	out, err := InterpolateArgs(args, Vars{}, mem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["token"] != "sekrit" {
		t.Fatalf("unexpected token: %v", out["token"])
	}
}

func TestInterpolateDictKeysNeverInterpolated(t *testing.T) {
	vars := Vars{"key": "resolved"}
	args := map[string]any{"{{key}}": "value"}
	out, err := InterpolateArgs(args, vars, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out["{{key}}"]; !ok {
		t.Fatalf("expected literal key preserved, got %#v", out)
	}
}

func TestInterpolateNestedLists(t *testing.T) {
	vars := Vars{"x": "v"}
	args := map[string]any{"items": []any{"{{x}}", map[string]any{"y": "{{x}}"}}}
	out, err := InterpolateArgs(args, vars, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items := out["items"].([]any)
	if items[0] != "v" {
		t.Fatalf("unexpected list item: %v", items[0])
	}
	nested := items[1].(map[string]any)
	if nested["y"] != "v" {
		t.Fatalf("unexpected nested value: %v", nested["y"])
	}
}

func TestExportFromResultDottedPath(t *testing.T) {
	payload := map[string]any{"cursor": 123.0, "artifact": map[string]any{"id": "art_abc"}}
	vars := Vars{}
	ExportFromResult(map[string]string{"cursor": "cursor", "artId": "artifact.id"}, payload, vars)
	if vars["cursor"] != 123.0 {
		t.Fatalf("unexpected cursor: %v", vars["cursor"])
	}
	if vars["artId"] != "art_abc" {
		t.Fatalf("unexpected artId: %v", vars["artId"])
	}
}

func TestExportFromResultSkipsNonScalar(t *testing.T) {
	payload := map[string]any{"obj": map[string]any{"a": 1}}
	vars := Vars{}
	ExportFromResult(map[string]string{"out": "obj"}, payload, vars)
	if _, ok := vars["out"]; ok {
		t.Fatal("non-scalar export should be skipped")
	}
}
