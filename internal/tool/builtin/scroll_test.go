package builtin

import (
	"encoding/json"
	"testing"
)

// ── quoteJS unit tests ───────────────────────────────────────────────────

func TestQuoteJSRoundTrips(t *testing.T) {
	cases := []string{`hello`, `with "quotes"`, `with\backslash`, `unicode: é`, ``}
	for _, c := range cases {
		quoted := quoteJS(c)
		var back string
		if err := json.Unmarshal([]byte(quoted), &back); err != nil {
			t.Fatalf("quoteJS(%q) produced invalid JSON string literal %q: %v", c, quoted, err)
		}
		if back != c {
			t.Fatalf("quoteJS round-trip mismatch: got %q, want %q", back, c)
		}
	}
}
