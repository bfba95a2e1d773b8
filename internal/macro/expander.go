// Package macro implements the bounded macro expander (spec.md §4.3): a
// pure function turning a macro name + args into a bounded, deterministic
// step list, with a redacted plan note so dry_run never leaks secrets.
//
// Grounded on original_source's run/macro_cookbook.py and
// run/macro_dismiss_overlays.py, re-expressed as pure Go functions instead
// of Python closures returning step dicts.
package macro

import (
	"fmt"

	"github.com/AmirTlinov/browser-mcp/internal/redact"
)

// maxGeneratedSteps bounds any single macro expansion (spec.md §4.3).
const maxGeneratedSteps = 80

// maxIncludeDepth bounds include_memory_steps recursion (spec.md §4.2).
const maxIncludeDepth = 10

// MemoryReader reads a stored runbook (a step list) by key, used by
// include_memory_steps. The second bool reports whether the key exists.
type MemoryReader func(key string) ([]map[string]any, bool, error)

// Plan is the pure expansion result (spec.md §4.3 "(ok, plan, steps[],
// steps_total)").
type Plan struct {
	Note  string // redacted args_note, safe to surface even on dry_run
	Steps []map[string]any
}

// Expand dispatches name to its generator. mem is used only by
// include_memory_steps.
func Expand(name string, args map[string]any, mem MemoryReader) (Plan, error) {
	return expandDepth(name, args, mem, 0)
}

func expandDepth(name string, args map[string]any, mem MemoryReader, depth int) (Plan, error) {
	gen, ok := generators[name]
	if !ok {
		return Plan{}, fmt.Errorf("macro: unknown macro %q (known: %s)", name, knownNames())
	}
	plan, err := gen(args, mem, depth)
	if err != nil {
		return Plan{}, err
	}
	if len(plan.Steps) > maxGeneratedSteps {
		return Plan{}, fmt.Errorf("macro: %q expanded to %d steps, exceeds cap %d", name, len(plan.Steps), maxGeneratedSteps)
	}
	if plan.Note == "" {
		plan.Note = redactedNote(name, args)
	}
	return plan, nil
}

type generator func(args map[string]any, mem MemoryReader, depth int) (Plan, error)

var generators = map[string]generator{
	"trace_then_screenshot":       genTraceThenScreenshot,
	"dismiss_overlays":            genDismissOverlays,
	"login_basic":                 genLoginBasic,
	"scroll_until_visible":        genScrollUntilVisible,
	"scroll_to_end":                genScrollToEnd,
	"retry_click":                 genRetryClick,
	"paginate_next":               genPaginateNext,
	"auto_expand":                 genAutoExpand,
	"auto_expand_scroll_extract":  genAutoExpandScrollExtract,
	"goto_if_needed":              genGotoIfNeeded,
	"assert_then":                 genAssertThen,
	"include_memory_steps":        genIncludeMemorySteps,
}

func knownNames() string {
	names := make([]string, 0, len(generators))
	for n := range generators {
		names = append(names, n)
	}
	return fmt.Sprintf("%v", names)
}

func redactedNote(name string, args map[string]any) string {
	safe := redact.Args(args)
	return fmt.Sprintf("macro %s(%v)", name, safe)
}

func step(tool string, args map[string]any) map[string]any {
	return map[string]any{"tool": tool, "args": args}
}

func optionalStep(tool string, args map[string]any) map[string]any {
	s := step(tool, args)
	s["optional"] = true
	return s
}
