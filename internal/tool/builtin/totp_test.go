package builtin

import (
	"encoding/json"
	"testing"
)

// ── hotp/decodeBase32Secret unit tests ──────────────────────────────────────

func TestHOTPKnownVector(t *testing.T) {
	// RFC 4226 Appendix D test vector: secret "12345678901234567890" (ASCII),
	// counter 0 => "755224".
	key := []byte("12345678901234567890")
	got := hotp(key, 0, 6)
	want := "755224"
	if got != want {
		t.Fatalf("hotp(counter=0) = %q, want %q", got, want)
	}
}

func TestHOTPCountersDiffer(t *testing.T) {
	key := []byte("12345678901234567890")
	a := hotp(key, 0, 6)
	b := hotp(key, 1, 6)
	if a == b {
		t.Fatalf("hotp should differ across counters, both = %q", a)
	}
}

func TestHOTPDigitsPadding(t *testing.T) {
	key := []byte("12345678901234567890")
	code := hotp(key, 0, 8)
	if len(code) != 8 {
		t.Fatalf("hotp(digits=8) len = %d, want 8", len(code))
	}
}

func TestDecodeBase32SecretNormalizesCase(t *testing.T) {
	upper, err := decodeBase32Secret("JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("decode upper: %v", err)
	}
	lower, err := decodeBase32Secret("jbswy3dpehpk3pxp")
	if err != nil {
		t.Fatalf("decode lower: %v", err)
	}
	if string(upper) != string(lower) {
		t.Fatalf("decode should be case-insensitive")
	}
}

func TestDecodeBase32SecretStripsSpaces(t *testing.T) {
	spaced, err := decodeBase32Secret("JBSW Y3DP EHPK 3PXP")
	if err != nil {
		t.Fatalf("decode spaced: %v", err)
	}
	plain, err := decodeBase32Secret("JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("decode plain: %v", err)
	}
	if string(spaced) != string(plain) {
		t.Fatalf("decode should ignore whitespace")
	}
}

func TestDecodeBase32SecretRejectsGarbage(t *testing.T) {
	if _, err := decodeBase32Secret("not-valid-base32!!!"); err == nil {
		t.Fatal("expected an error for invalid base32 input")
	}
}

func TestTOTPToolExecuteMissingSecret(t *testing.T) {
	tool := NewTOTPTool(Deps{})
	raw, _ := json.Marshal(map[string]any{})
	res, err := tool.Execute(nil, raw)
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result for missing secret")
	}
}

func TestTOTPToolExecuteReturnsCode(t *testing.T) {
	tool := NewTOTPTool(Deps{})
	raw, _ := json.Marshal(map[string]any{"secret": "JBSWY3DPEHPK3PXP"})
	res, err := tool.Execute(nil, raw)
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result")
	}
	payload, ok := resultJSON(res)["code"]
	if !ok {
		t.Fatalf("expected result to contain a code field, got %#v", res)
	}
	if payload == "" {
		t.Fatalf("expected a non-empty code")
	}
}
