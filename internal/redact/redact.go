// Package redact implements the output-sanitization contract spec.md §6
// describes: URLs, tool arguments, and exported runbooks are scrubbed of
// credentials before they ever reach a tool result or an exported macro
// file, while leaving the {{mem:...}}/{{param:...}}/{{var}} interpolation
// placeholders themselves intact so an exported runbook stays usable.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

const masked = "***"

// sensitiveQueryKeys lists URL query/fragment parameter names treated as
// secrets (grounded on original_source's utils/sanitize.py).
var sensitiveQueryKeys = map[string]bool{
	"token": true, "access_token": true, "id_token": true, "refresh_token": true,
	"api_key": true, "apikey": true, "key": true, "secret": true,
	"password": true, "passwd": true, "pwd": true, "session": true,
	"auth": true, "authorization": true, "code": true, "otp": true,
}

// sensitiveArgKeys lists tool-argument keys masked regardless of tool
// identity (spec.md §6 "tool-aware argument masking").
var sensitiveArgKeys = regexp.MustCompile(`(?i)^(password|passwd|pwd|secret|token|api[_-]?key|authorization|totp|otp|cookie)$`)

// URL returns u with userinfo stripped and any sensitive query/fragment
// parameter values masked. Malformed input is returned unchanged — a
// tool-result sanitizer must never fail the call it is protecting.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.User != nil {
		u.User = nil
	}
	if u.RawQuery != "" {
		u.RawQuery = redactQueryString(u.RawQuery)
	}
	if u.Fragment != "" && strings.Contains(u.Fragment, "=") {
		u.Fragment = redactQueryString(u.Fragment)
	}
	return u.String()
}

func redactQueryString(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	for k := range values {
		if sensitiveQueryKeys[strings.ToLower(k)] {
			values[k] = []string{masked}
		}
	}
	return values.Encode()
}

// placeholderPattern matches flow-var / memory / macro-param interpolation
// tokens that must survive sanitization verbatim (spec.md §4.3).
var placeholderPattern = regexp.MustCompile(`\{\{(mem|param):[^}]+\}\}|\{\{[^}]+\}\}|\$\{[^}]+\}`)

// Args returns a copy of args with sensitive-keyed values masked. Nested
// maps are walked recursively; string values that are themselves
// interpolation placeholders are left untouched so a sanitized runbook
// still resolves at replay time.
func Args(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if sensitiveArgKeys.MatchString(k) {
			if s, ok := v.(string); ok && isOnlyPlaceholder(s) {
				out[k] = v
			} else {
				out[k] = masked
			}
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Args(t)
	case []any:
		items := make([]any, len(t))
		for i, item := range t {
			items[i] = redactValue(item)
		}
		return items
	case string:
		return t
	default:
		return v
	}
}

func isOnlyPlaceholder(s string) bool {
	trimmed := strings.TrimSpace(s)
	return placeholderPattern.MatchString(trimmed) && placeholderPattern.ReplaceAllString(trimmed, "") == ""
}

// Runbook sanitizes a YAML-exported macro/runbook body line by line (a
// leading "- " list marker is kept): every `url: <value>` whose value holds
// no placeholder gets URL-sanitized, and any bare secret-looking literal
// (not wrapped in a placeholder) is masked, while {{var}}/{{mem:...}}/
// {{param:...}} tokens pass through untouched (spec.md §6).
func Runbook(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
		if rest, ok := strings.CutPrefix(trimmed, "- "); ok {
			indent += "- "
			trimmed = strings.TrimSpace(rest)
		}
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "url:") {
			if v := strings.TrimSpace(trimmed[4:]); v != "" && !placeholderPattern.MatchString(v) {
				u := strings.Trim(v, `"'`)
				lines[i] = indent + trimmed[:4] + " " + strings.Replace(v, u, URL(u), 1)
			}
			continue
		}
		for key := range sensitiveQueryKeys {
			prefix := key + ":"
			if strings.HasPrefix(lower, prefix) {
				val := strings.TrimSpace(trimmed[len(prefix):])
				if !isOnlyPlaceholder(val) {
					lines[i] = indent + trimmed[:len(prefix)] + " " + masked
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}
