// Interpolation: flow-vars, memory refs, and macro params (spec.md §4.7).
//
// Grounded on original_source's run/params.py placeholder resolution,
// reimplemented with Go's regexp/text-scanning idiom.
package flow

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/AmirTlinov/browser-mcp/internal/memory"
)

// exactPlaceholder matches a string that is ENTIRELY one placeholder
// (`{{var}}` or `${var}`), so the resolved value's scalar type is
// preserved instead of being stringified (spec.md §4.7 "exact-placeholder
// preserves scalar type").
var exactPlaceholder = regexp.MustCompile(`^(?:\{\{([a-zA-Z0-9_.:]+)\}\}|\$\{([a-zA-Z0-9_.:]+)\})$`)

// inlinePlaceholder matches any placeholder occurrence for inline (mixed
// text) substitution, which always stringifies.
var inlinePlaceholder = regexp.MustCompile(`\{\{([a-zA-Z0-9_.:]+)\}\}|\$\{([a-zA-Z0-9_.:]+)\}`)

// Vars is the flow-var export table, mutated after each successful step
// with an export spec (spec.md §3 FlowVars).
type Vars map[string]any

// MissingRefError reports a step failing closed on an unresolved
// placeholder, carrying the known-keys hint spec.md §4.1 requires.
type MissingRefError struct {
	Placeholder string
	KnownKeys   []string
}

func (e *MissingRefError) Error() string {
	return fmt.Sprintf("flow: unresolved reference %q (known: %v)", e.Placeholder, e.KnownKeys)
}

// resolveToken resolves one placeholder body (everything inside {{ }} or
// ${ }), dispatching on its dialect: `mem:key` (agent memory, masked in any
// recorded note), `param:key` (macro params, which execMacro folds into
// vars under "param:<key>"), or a bare flow-var name.
func resolveToken(token string, vars Vars, mem *memory.Store) (any, bool, bool) {
	if rest, ok := strings.CutPrefix(token, "mem:"); ok {
		if mem == nil {
			return nil, false, true
		}
		v, found := mem.Get(rest)
		return v, found, true
	}
	if rest, ok := strings.CutPrefix(token, "param:"); ok {
		v, found := vars["param:"+rest]
		return v, found, false
	}
	v, found := vars[token]
	return v, found, false
}

// InterpolateArgs resolves every placeholder in args in-place, returning a
// new map (args itself is never mutated so the original/raw step survives
// for recording, spec.md §4.1 "Recording"). Dict keys are never
// interpolated (spec.md §4.7).
func InterpolateArgs(args map[string]any, vars Vars, mem *memory.Store) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		resolved, err := interpolateValue(v, vars, mem)
		if err != nil {
			return nil, err
		}
		out[k] = resolved
	}
	return out, nil
}

func interpolateValue(v any, vars Vars, mem *memory.Store) (any, error) {
	switch t := v.(type) {
	case string:
		return interpolateString(t, vars, mem)
	case map[string]any:
		return InterpolateArgs(t, vars, mem)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			resolved, err := interpolateValue(item, vars, mem)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func interpolateString(s string, vars Vars, mem *memory.Store) (any, error) {
	if m := exactPlaceholder.FindStringSubmatch(s); m != nil {
		token := m[1]
		if token == "" {
			token = m[2]
		}
		val, found, isMem := resolveToken(token, vars, mem)
		if !found {
			return nil, missingRefError(token, vars, isMem)
		}
		return val, nil
	}

	if !inlinePlaceholder.MatchString(s) {
		return s, nil
	}

	var resolveErr error
	out := inlinePlaceholder.ReplaceAllStringFunc(s, func(match string) string {
		sub := inlinePlaceholder.FindStringSubmatch(match)
		token := sub[1]
		if token == "" {
			token = sub[2]
		}
		val, found, isMem := resolveToken(token, vars, mem)
		if !found {
			if resolveErr == nil {
				resolveErr = missingRefError(token, vars, isMem)
			}
			return match
		}
		return fmt.Sprintf("%v", val)
	})
	if resolveErr != nil {
		return nil, resolveErr
	}
	return out, nil
}

func missingRefError(token string, vars Vars, isMem bool) error {
	if isMem {
		return &MissingRefError{Placeholder: "mem:" + strings.TrimPrefix(token, "mem:"), KnownKeys: nil}
	}
	known := make([]string, 0, len(vars))
	for k := range vars {
		known = append(known, k)
	}
	return &MissingRefError{Placeholder: token, KnownKeys: known}
}

// ExportFromResult reads exportSpec's dotted paths out of a raw tool result
// payload and merges resolved scalars into vars (spec.md §4.1
// "Export → flow vars"). Only scalars (nil, bool, int, float, string)
// propagate; non-scalar values at the given path are silently skipped.
func ExportFromResult(exportSpec map[string]string, payload any, vars Vars) {
	for outKey, path := range exportSpec {
		val, ok := lookupDottedPath(payload, path)
		if !ok {
			continue
		}
		if isScalar(val) {
			vars[outKey] = val
		}
	}
}

func lookupDottedPath(payload any, path string) (any, bool) {
	cur := payload
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := parseIndex(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func parseIndex(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, int, int64, float64, string:
		return true
	default:
		return false
	}
}
