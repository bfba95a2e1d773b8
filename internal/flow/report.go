// Final report assembly and step-list recording (spec.md §4.1 "Final
// report", "Recording").
package flow

import (
	"context"

	"github.com/AmirTlinov/browser-mcp/internal/policy"
	"github.com/AmirTlinov/browser-mcp/internal/redact"
)

// buildFinal assembles the one-snapshot-only final report: observe is
// always attached (cheap), plus exactly the requested section. Each helper
// runs under its own dispatch and a failure there never aborts the
// response — it is recorded as an "error" key instead (spec.md §4.1 "Final
// report... failures never abort the response").
func (e *Engine) buildFinal(tabCtx context.Context, tabID string, final string, baseline int64, delta bool) map[string]any {
	data := map[string]any{}

	observeArgs := map[string]any{"info": true}
	if observe, err := e.Dispatcher.Dispatch(tabCtx, "page", observeArgs); err == nil && !observe.IsError {
		data["observe"] = resultPayload(observe)
	} else {
		data["observe"] = map[string]any{"error": errString(err, observe)}
	}

	if final == "" || final == "none" || final == "observe" {
		return data
	}

	sectionArgs := map[string]any{"detail": final}
	if delta {
		sectionArgs["since"] = baseline
	}
	section, err := e.Dispatcher.Dispatch(tabCtx, "page", sectionArgs)
	if err != nil || section.IsError {
		data[final] = map[string]any{"error": errString(err, section)}
		return data
	}
	data[final] = resultPayload(section)
	return data
}

func errString(err error, res any) string {
	if err != nil {
		return err.Error()
	}
	return "tool reported an error"
}

// record implements spec.md §4.1 "Recording": stash the original step list
// into agent memory under key, either sanitized (default) or raw. Strict
// policy never allows a raw recording; it is silently demoted to
// sanitized rather than failing the run that asked for it.
func (e *Engine) record(key, mode string, rawSteps []map[string]any) *RecordingResult {
	if mode != "raw" {
		mode = "sanitized"
	}
	if mode == "raw" && e.Policy.Mode == policy.ModeStrict {
		mode = "sanitized"
	}

	sensitive := false
	stored := make([]any, len(rawSteps))
	for i, s := range rawSteps {
		if stepLooksSensitive(s) {
			sensitive = true
		}
		if mode == "sanitized" {
			stored[i] = redact.Args(s)
		} else {
			stored[i] = s
		}
	}

	e.Memory.Set(key, stored, sensitive)
	return &RecordingResult{
		OK:        true,
		Key:       key,
		Mode:      mode,
		Steps:     len(stored),
		Redacted:  mode == "sanitized",
		Sensitive: sensitive,
	}
}

func stepLooksSensitive(step map[string]any) bool {
	sanitized := redact.Args(step)
	return !mapsEqualDeep(step, sanitized)
}

func mapsEqualDeep(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !valuesEqualDeep(av, bv) {
			return false
		}
	}
	return true
}

func valuesEqualDeep(av, bv any) bool {
	switch at := av.(type) {
	case map[string]any:
		bt, ok := bv.(map[string]any)
		return ok && mapsEqualDeep(at, bt)
	case []any:
		bt, ok := bv.([]any)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !valuesEqualDeep(at[i], bt[i]) {
				return false
			}
		}
		return true
	default:
		return av == bv
	}
}
