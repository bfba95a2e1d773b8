package builtin

import "testing"

func TestKnownCaptchaSelectorsNonEmpty(t *testing.T) {
	if len(knownCaptchaSelectors) == 0 {
		t.Fatal("expected at least one known captcha selector")
	}
	for _, c := range knownCaptchaSelectors {
		if c.selector == "" || c.kind == "" {
			t.Fatalf("captcha selector entry missing fields: %+v", c)
		}
	}
}

func TestKnownCaptchaSelectorsCoverMajorVendors(t *testing.T) {
	want := map[string]bool{"recaptcha_v2": false, "hcaptcha": false, "cloudflare_turnstile": false}
	for _, c := range knownCaptchaSelectors {
		if _, ok := want[c.kind]; ok {
			want[c.kind] = true
		}
	}
	for kind, found := range want {
		if !found {
			t.Errorf("expected a selector for %q", kind)
		}
	}
}
