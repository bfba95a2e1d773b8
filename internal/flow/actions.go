// Internal actions: assert, when, repeat, macro, act (spec.md §4.2).
//
// Grounded on original_source's server/flow/internal_actions.py condition
// evaluation and splice semantics.
package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/AmirTlinov/browser-mcp/internal/affordance"
	"github.com/AmirTlinov/browser-mcp/internal/macro"
)

const (
	maxWhenBranch  = 50
	maxRepeatIters = 50
	maxRepeatBody  = 25
	maxRepeatTotal = 400
	maxRepeatTime  = 300
	maxMacroDepth  = 10
)

// execInternalAction dispatches step.Tool (already known to be one of
// assert/when/repeat/macro/act) and returns any steps to splice into the
// queue immediately after the current index, plus a human-readable note.
func (e *Engine) execInternalAction(ctx context.Context, tabCtx context.Context, tabID string, step Step, vars Vars, opts Options) ([]Step, string, error) {
	switch step.Tool {
	case "assert":
		return nil, "", e.execAssert(ctx, tabCtx, step, vars)
	case "when":
		return e.execWhen(ctx, tabCtx, step, vars)
	case "repeat":
		return e.execRepeat(ctx, tabCtx, step, vars)
	case "macro":
		return e.execMacro(step, vars)
	case "act":
		note, err := e.execAct(ctx, tabCtx, tabID, step, vars, opts)
		return nil, note, err
	default:
		return nil, "", fmt.Errorf("flow: %q is not an internal action", step.Tool)
	}
}

// execAssert implements spec.md §4.2 "assert".
func (e *Engine) execAssert(ctx context.Context, tabCtx context.Context, step Step, vars Vars) error {
	args, err := InterpolateArgs(step.Args, vars, e.Memory)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("flow: assert: empty condition fails closed")
	}

	if wantURL, ok := args["url"].(string); ok {
		cur, err := e.Session.CurrentURL(tabCtx)
		if err != nil {
			return err
		}
		if !strings.Contains(cur, wantURL) {
			return fmt.Errorf("flow: assert url: %q does not contain %q", cur, wantURL)
		}
	}
	if wantTitle, ok := args["title"].(string); ok {
		cur, err := e.Session.CurrentTitle(tabCtx)
		if err != nil {
			return err
		}
		if !strings.Contains(cur, wantTitle) {
			return fmt.Errorf("flow: assert title: %q does not contain %q", cur, wantTitle)
		}
	}
	if js, ok := args["js"].(string); ok {
		var result bool
		if err := e.Session.Eval(ctx, tabCtx, js, &result); err != nil {
			return fmt.Errorf("flow: assert js: %w", err)
		}
		if !result {
			return fmt.Errorf("flow: assert js evaluated false")
		}
	}
	if sel, ok := args["selector"].(string); ok {
		res, err := e.Dispatcher.Dispatch(ctx, "wait", map[string]any{"selector": sel, "timeout_s": clampTimeout(args["timeout_s"])})
		if err != nil || res.IsError {
			return fmt.Errorf("flow: assert selector %q not satisfied", sel)
		}
	}
	return nil
}

func clampTimeout(v any) float64 {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 5
	}
	if f > 60 {
		return 60
	}
	return f
}

// execWhen implements spec.md §4.2 "when": evaluate the condition once,
// splice the chosen branch (bounded) immediately after the current step.
func (e *Engine) execWhen(ctx context.Context, tabCtx context.Context, step Step, vars Vars) ([]Step, string, error) {
	condRaw, _ := step.Args["if"].(map[string]any)
	cond, err := InterpolateArgs(condRaw, vars, e.Memory)
	if err != nil {
		return nil, "", err
	}
	matched := evalCondition(ctx, tabCtx, e, cond)

	branchKey := "else"
	if matched {
		branchKey = "then"
	}
	branchRaw, _ := step.Args[branchKey].([]any)
	if len(branchRaw) > maxWhenBranch {
		return nil, "", fmt.Errorf("flow: when.%s has %d steps, exceeds cap %d", branchKey, len(branchRaw), maxWhenBranch)
	}

	known := func(name string) bool { return IsInternalAction(name) || e.Dispatcher.Known(name) }
	steps := make([]Step, 0, len(branchRaw))
	for _, raw := range branchRaw {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("flow: when.%s entry is not a step object", branchKey)
		}
		s, err := NormalizeStep(m, known)
		if err != nil {
			return nil, "", err
		}
		steps = append(steps, s)
	}
	return steps, fmt.Sprintf("when: matched=%v branch=%s", matched, branchKey), nil
}

func evalCondition(ctx context.Context, tabCtx context.Context, e *Engine, cond map[string]any) bool {
	if wantURL, ok := cond["url"].(string); ok {
		cur, err := e.Session.CurrentURL(tabCtx)
		return err == nil && strings.Contains(cur, wantURL)
	}
	if wantTitle, ok := cond["title"].(string); ok {
		cur, err := e.Session.CurrentTitle(tabCtx)
		return err == nil && strings.Contains(cur, wantTitle)
	}
	if js, ok := cond["js"].(string); ok {
		var result bool
		if err := e.Session.Eval(ctx, tabCtx, js, &result); err != nil {
			return false
		}
		return result
	}
	return false
}

// execRepeat implements spec.md §4.2 "repeat" as a self-injecting
// continuation: the body is spliced once per call, followed by a fresh
// `repeat` step carrying incremented iteration state, up to max_iters.
// Iterations run back to back: backoff_s is not read and nothing sleeps
// between them.
func (e *Engine) execRepeat(ctx context.Context, tabCtx context.Context, step Step, vars Vars) ([]Step, string, error) {
	iter := 0
	if step.iterState != nil {
		if v, ok := step.iterState["__iter"].(int); ok {
			iter = v
		}
	}

	maxIters := intArg(step.Args["max_iters"], maxRepeatIters)
	if maxIters > maxRepeatIters {
		maxIters = maxRepeatIters
	}
	bodyRaw, _ := step.Args["steps"].([]any)
	if len(bodyRaw) > maxRepeatBody {
		return nil, "", fmt.Errorf("flow: repeat.steps has %d entries, exceeds cap %d", len(bodyRaw), maxRepeatBody)
	}
	if maxIters*len(bodyRaw) > maxRepeatTotal {
		return nil, "", fmt.Errorf("flow: repeat would inject %d steps, exceeds cap %d", maxIters*len(bodyRaw), maxRepeatTotal)
	}

	untilRaw, hasUntil := step.Args["until"].(map[string]any)
	if hasUntil {
		cond, err := InterpolateArgs(untilRaw, vars, e.Memory)
		if err == nil && (evalConditionArgs(cond) || evalCondition(ctx, tabCtx, e, cond)) {
			return nil, fmt.Sprintf("repeat: until satisfied at iter=%d", iter), nil
		}
	}
	if iter >= maxIters {
		return nil, "", fmt.Errorf("flow: repeat exhausted max_iters=%d without satisfying until", maxIters)
	}

	known := func(name string) bool { return IsInternalAction(name) || e.Dispatcher.Known(name) }
	body := make([]Step, 0, len(bodyRaw)+1)
	for _, raw := range bodyRaw {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("flow: repeat.steps entry is not a step object")
		}
		s, err := NormalizeStep(m, known)
		if err != nil {
			return nil, "", err
		}
		body = append(body, s)
	}

	next := step.Clone()
	next.iterState = map[string]any{"__iter": iter + 1}
	body = append(body, next)

	return body, fmt.Sprintf("repeat: injected iter=%d", iter), nil
}

// evalConditionArgs evaluates a condition map that has already had its
// scalar fields interpolated but needs no live page access (the `true`
// flag); execRepeat falls back to evalCondition for the page-aware
// url/title/js forms of its `until`.
func evalConditionArgs(cond map[string]any) bool {
	if v, ok := cond["true"].(bool); ok {
		return v
	}
	return false
}

func intArg(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case float64:
		return int(t)
	default:
		return def
	}
}

// execMacro implements spec.md §4.2 "macro": expand via the macro
// expander and splice the bounded result (unless dry_run).
func (e *Engine) execMacro(step Step, vars Vars) ([]Step, string, error) {
	name, _ := step.Args["name"].(string)
	argsRaw, _ := step.Args["args"].(map[string]any)
	dryRun, _ := step.Args["dry_run"].(bool)

	args, err := InterpolateArgs(argsRaw, vars, e.Memory)
	if err != nil {
		return nil, "", err
	}
	if params, ok := args["params"].(map[string]any); ok {
		for k, v := range params {
			vars["param:"+k] = v
		}
	}

	plan, err := macro.Expand(name, args, e.macroMemoryReader())
	if err != nil {
		return nil, "", err
	}
	if dryRun {
		return nil, fmt.Sprintf("macro %q plan: %s (dry_run)", name, plan.Note), nil
	}

	known := func(n string) bool { return IsInternalAction(n) || e.Dispatcher.Known(n) }
	steps := make([]Step, 0, len(plan.Steps))
	for _, raw := range plan.Steps {
		s, err := NormalizeStep(raw, known)
		if err != nil {
			return nil, "", err
		}
		steps = append(steps, s)
	}
	return steps, fmt.Sprintf("macro %q expanded %d steps", name, len(steps)), nil
}

func (e *Engine) macroMemoryReader() macro.MemoryReader {
	return func(key string) ([]map[string]any, bool, error) {
		v, ok := e.Memory.Get(key)
		if !ok {
			return nil, false, nil
		}
		raw, ok := v.([]any)
		if !ok {
			return nil, false, fmt.Errorf("flow: memory key %q is not a step list", key)
		}
		out := make([]map[string]any, 0, len(raw))
		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false, fmt.Errorf("flow: memory key %q contains a non-object step", key)
			}
			out = append(out, m)
		}
		return out, true, nil
	}
}

// resolveAct resolves an act step's target: either a direct "aff:<hash>"
// ref, or a label/kind/index lookup (spec.md §4.2 "act", §4.4).
func (e *Engine) resolveAct(tabID string, args map[string]any, currentURL string, opts Options) (affordance.Item, affordance.State, error) {
	if ref, ok := args["ref"].(string); ok && ref != "" {
		item, state := e.Affordances.Resolve(tabID, ref, currentURL)
		if state.Missing {
			return item, state, fmt.Errorf("flow: act ref %q not found (stale=%v)", ref, state.Stale)
		}
		return item, state, nil
	}

	label, _ := args["label"].(string)
	if label == "" {
		return affordance.Item{}, affordance.State{}, fmt.Errorf("flow: act requires ref or label")
	}
	kind, _ := args["kind"].(string)
	index := -1
	if v, ok := args["index"]; ok {
		index = intArg(v, -1)
	}
	item, state, preview, err := e.Affordances.ResolveByLabel(tabID, label, kind, index, 5, currentURL)
	if err != nil {
		if len(preview) > 0 {
			names := make([]string, 0, len(preview))
			for _, p := range preview {
				if t, _ := p.Meta["text"].(string); t != "" {
					names = append(names, t)
				}
			}
			return item, state, fmt.Errorf("%w (candidates: %s)", err, strings.Join(names, ", "))
		}
		return item, state, err
	}
	return item, state, nil
}

// execAct implements spec.md §4.2 "act": resolve an affordance by ref or
// label, merge any overriding args, and dispatch the resolved tool
// directly (act is itself the dispatch, not a splice).
func (e *Engine) execAct(ctx context.Context, tabCtx context.Context, tabID string, step Step, vars Vars, opts Options) (string, error) {
	args, err := InterpolateArgs(step.Args, vars, e.Memory)
	if err != nil {
		return "", err
	}
	currentURL, _ := e.Session.CurrentURL(tabCtx)

	item, state, err := e.resolveAct(tabID, args, currentURL, opts)
	if err != nil {
		if (state.Stale || state.Missing) && opts.AutoAffordances {
			if open, _ := e.Telemetry.DialogOpen(tabID); !open {
				if _, derr := e.Dispatcher.Dispatch(ctx, "page", map[string]any{"detail": "locators"}); derr == nil {
					item, _, err = e.resolveAct(tabID, args, currentURL, opts)
				}
			}
		}
		if err != nil {
			return "", err
		}
	}

	finalArgs := item.Args
	if override, ok := args["args"].(map[string]any); ok {
		merged := make(map[string]any, len(finalArgs)+len(override))
		for k, v := range finalArgs {
			merged[k] = v
		}
		for k, v := range override {
			merged[k] = v
		}
		finalArgs = merged
	}

	res, err := e.Dispatcher.Dispatch(ctx, item.Tool, finalArgs)
	if err != nil {
		return "", err
	}
	if res.IsError {
		return "", fmt.Errorf("flow: act resolved to %q, which failed: %s", item.Tool, textOf(res))
	}
	return fmt.Sprintf("act resolved to %s", item.Tool), nil
}
