package tool

import (
	"encoding/json"
	"testing"
)

func TestBuildSchema(t *testing.T) {
	schema := BuildSchema(
		SchemaParam{Name: "ref", Type: "string", Description: "Affordance ref", Required: true},
		SchemaParam{Name: "timeout_ms", Type: "integer", Description: "Timeout in milliseconds", Required: false},
	)

	var parsed map[string]interface{}
	if err := json.Unmarshal(schema, &parsed); err != nil {
		t.Fatalf("BuildSchema output is not valid JSON: %v", err)
	}

	if parsed["type"] != "object" {
		t.Errorf("type = %v, want 'object'", parsed["type"])
	}

	props, ok := parsed["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("missing 'properties' field")
	}

	ref, ok := props["ref"].(map[string]interface{})
	if !ok {
		t.Fatal("missing 'ref' property")
	}
	if ref["type"] != "string" {
		t.Errorf("ref.type = %v, want 'string'", ref["type"])
	}
	if ref["description"] != "Affordance ref" {
		t.Errorf("ref.description = %v, want 'Affordance ref'", ref["description"])
	}

	timeout, ok := props["timeout_ms"].(map[string]interface{})
	if !ok {
		t.Fatal("missing 'timeout_ms' property")
	}
	if timeout["type"] != "integer" {
		t.Errorf("timeout_ms.type = %v, want 'integer'", timeout["type"])
	}

	required, ok := parsed["required"].([]interface{})
	if !ok {
		t.Fatal("missing 'required' field")
	}
	if len(required) != 1 || required[0] != "ref" {
		t.Errorf("required = %v, want [ref]", required)
	}
}

func TestBuildSchemaEmpty(t *testing.T) {
	schema := BuildSchema()

	var parsed map[string]interface{}
	if err := json.Unmarshal(schema, &parsed); err != nil {
		t.Fatalf("empty schema is not valid JSON: %v", err)
	}
	if parsed["type"] != "object" {
		t.Errorf("type = %v, want 'object'", parsed["type"])
	}
}

func TestRegistryBasicOps(t *testing.T) {
	reg := NewRegistry()

	if len(reg.List()) != 0 {
		t.Error("new registry should be empty")
	}
	if _, ok := reg.Get("nope"); ok {
		t.Error("Get on empty registry should return false")
	}
}

func TestResultHelpers(t *testing.T) {
	if r := Text("hi"); r.IsError || r.Content[0].Text != "hi" {
		t.Errorf("Text() = %+v", r)
	}
	if r := Errorf("bad %s", "arg"); !r.IsError || r.Content[0].Text != "bad arg" {
		t.Errorf("Errorf() = %+v", r)
	}
	if r := Image("aGk=", ""); r.Content[0].MimeType != "image/png" {
		t.Errorf("Image() default mime type = %q", r.Content[0].MimeType)
	}
}
