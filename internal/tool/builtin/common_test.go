package builtin

import (
	"encoding/json"
	"errors"
	"testing"
)

// ── helper unit tests ────────────────────────────────────────────────────

func TestOrDefaultString(t *testing.T) {
	if got := orDefault("", "fallback"); got != "fallback" {
		t.Fatalf("orDefault empty = %q, want fallback", got)
	}
	if got := orDefault("set", "fallback"); got != "set" {
		t.Fatalf("orDefault non-empty = %q, want set", got)
	}
}

func TestOrDefaultFloat(t *testing.T) {
	if got := orDefaultFloat(0, 5); got != 5 {
		t.Fatalf("orDefaultFloat(0) = %v, want 5", got)
	}
	if got := orDefaultFloat(3, 5); got != 3 {
		t.Fatalf("orDefaultFloat(3) = %v, want 3", got)
	}
}

func TestOrDefaultInt(t *testing.T) {
	if got := orDefaultInt(0, 7); got != 7 {
		t.Fatalf("orDefaultInt(0) = %v, want 7", got)
	}
}

func TestDecodeArgsEmptyRawIsNoop(t *testing.T) {
	var v struct{ X string }
	if err := decodeArgs(nil, &v); err != nil {
		t.Fatalf("decodeArgs(nil) returned error: %v", err)
	}
}

func TestDecodeArgsRejectsInvalidJSON(t *testing.T) {
	var v struct{ X string }
	if err := decodeArgs(json.RawMessage(`{not json`), &v); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestErrResultWrapsAsToolError(t *testing.T) {
	res, err := errResult(errors.New("boom"))
	if err != nil {
		t.Fatalf("errResult should never return a Go error, got %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError=true")
	}
}
