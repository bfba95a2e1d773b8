// Per-step execution: dialog guard, interpolation, watchdog dispatch,
// bounded retries, auto-download/auto-tab, and per-step proof
// (spec.md §4.1).
package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// execStep runs one already-queue-resident step and returns its summary
// plus any steps it spliced in place (when/repeat/macro/act expansions).
func (e *Engine) execStep(ctx context.Context, tabCtx context.Context, tabID string, index int, step Step, vars Vars, opts Options) (StepSummary, []Step, bool, bool, error) {
	summary := StepSummary{Index: index, Tool: step.Tool}
	sinceCursor := e.Telemetry.Cursor(tabID)

	dialogHandled, guardErr := e.dialogPreStepGuard(ctx, tabID, step, opts)
	if guardErr != nil {
		summary.OK = false
		summary.Error = guardErr.Error()
		summary.ErrorClass = "dialog_block"
		summary.Suggestion = `dialog(action="accept") or dialog(action="dismiss")`
		return summary, nil, false, dialogHandled, nil
	}

	// Internal actions keep their nested step lists (when.then/else,
	// repeat.steps) inert at this point (spec.md §9 "Nested step-list
	// wrappers") — execInternalAction interpolates only the
	// condition-bearing fields itself, each spliced step is interpolated
	// when it is later dispatched in its own turn through execStep.
	if IsInternalAction(step.Tool) {
		injected, result, err := e.execInternalAction(ctx, tabCtx, tabID, step, vars, opts)
		if err != nil {
			summary.OK = false
			summary.Error = err.Error()
			summary.ErrorClass = classifyActionError(err)
			summary.Suggestion = suggestionFor(summary.ErrorClass)
			return summary, nil, false, dialogHandled, nil
		}
		summary.OK = true
		summary.Note = result
		return summary, injected, false, dialogHandled, nil
	}

	args, err := InterpolateArgs(step.Args, vars, e.Memory)
	if err != nil {
		summary.OK = false
		summary.Error = err.Error()
		summary.ErrorClass = classifyInterpError(err)
		summary.Suggestion = "check referenced {{var}}/{{mem:...}} keys"
		return summary, nil, false, dialogHandled, nil
	}

	result, recovered, execErr := e.dispatchWithRetry(ctx, tabID, step, args, opts)
	if execErr != nil {
		summary.OK = false
		summary.Error = execErr.Error()
		summary.ErrorClass = classifyDispatchError(execErr)
		summary.Suggestion = suggestionFor(summary.ErrorClass)
		if isBrickError(execErr) {
			return summary, nil, recovered, dialogHandled, errBrick
		}
		return summary, nil, recovered, dialogHandled, nil
	}
	summary.OK = true

	if len(step.Export) > 0 {
		exported := Vars{}
		ExportFromResult(step.Export, result, vars)
		for k := range step.Export {
			if v, ok := vars[k]; ok {
				exported[k] = v
			}
		}
		summary.Export = exported
	}

	if opts.AutoDownload && (isClickLike(step.Tool) || step.Download) {
		summary.Download = e.autoDownloadCapture(ctx, tabID, opts)
	}
	if isClickLike(step.Tool) || step.AutoTab {
		summary.AutoTab = e.autoTabSwitch(ctx, tabID, opts)
	}
	if opts.StepProof {
		summary.Proof = e.buildProof(tabCtx, tabID, sinceCursor, false)
	}

	return summary, nil, recovered, dialogHandled, nil
}

// dialogPreStepGuard implements spec.md §4.1 "Dialog pre-step guard".
func (e *Engine) dialogPreStepGuard(ctx context.Context, tabID string, step Step, opts Options) (bool, error) {
	open, _ := e.Telemetry.DialogOpen(tabID)
	if !open || step.Tool == "dialog" || step.Tool == "browser" {
		return false, nil
	}
	mode := opts.AutoDialog
	if mode == "auto" {
		if e.Policy.Mode == "strict" {
			mode = "off"
		} else {
			mode = "dismiss"
		}
	}
	if mode != "dismiss" && mode != "accept" {
		return false, fmt.Errorf("flow: blocking dialog open, tool %q refused (auto_dialog=%s)", step.Tool, mode)
	}
	if err := e.handleDialogOOB(ctx, tabID, mode == "accept", ""); err != nil {
		return false, fmt.Errorf("flow: blocking dialog open and auto-handle failed: %w", err)
	}
	return true, nil
}

// dispatchWithRetry runs one concrete tool under a watchdog, applying the
// bounded UI-transient retry (spec.md §4.1 "Retries").
func (e *Engine) dispatchWithRetry(ctx context.Context, tabID string, step Step, args map[string]any, opts Options) (any, bool, error) {
	result, err := e.dispatchUnderWatchdog(ctx, tabID, step.Tool, args, opts.ActionTimeout)
	if err == nil {
		return result, false, nil
	}
	if step.Irreversible || !e.Policy.AllowsRetry() {
		return nil, false, err
	}

	if isBrickError(err) {
		if !opts.AutoRecover || !e.Policy.AllowsSoftRecovery() {
			return nil, false, err
		}
		return nil, true, err
	}

	if isUITransient(err) && isClickLike(step.Tool) {
		_ = e.dismissOverlay(ctx, tabID)
		retryResult, retryErr := e.dispatchUnderWatchdog(ctx, tabID, step.Tool, args, opts.ActionTimeout)
		if retryErr == nil {
			return retryResult, false, nil
		}
		return nil, false, retryErr
	}

	return nil, false, err
}

// dispatchUnderWatchdog invokes the registry's tool, aborting the CDP
// transport on timeout so the call returns deterministically (spec.md
// §4.1 "Concrete tool dispatch", §9 "Watchdog needs a real escape hatch").
func (e *Engine) dispatchUnderWatchdog(ctx context.Context, tabID string, toolName string, args map[string]any, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if timeout > 300*time.Second {
		timeout = 300 * time.Second
	}

	watchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res tool.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := e.Dispatcher.Dispatch(watchCtx, toolName, args)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		if o.res.IsError {
			return nil, fmt.Errorf("flow: tool %q reported an error: %s", toolName, textOf(o.res))
		}
		return resultPayload(o.res), nil
	case <-watchCtx.Done():
		e.Session.Abort(tabID)
		return nil, fmt.Errorf("flow: action timed out after %s", timeout)
	}
}

func textOf(r tool.Result) string {
	for _, c := range r.Content {
		if c.Text != "" {
			return c.Text
		}
	}
	return ""
}

func resultPayload(r tool.Result) any {
	for _, c := range r.Content {
		if c.JSON != nil {
			return c.JSON
		}
	}
	if len(r.Content) > 0 {
		return r.Content[0].Text
	}
	return nil
}

func isClickLike(toolName string) bool {
	switch toolName {
	case "click", "act":
		return true
	}
	return false
}

func isUITransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{"not found", "not visible", "intercept", "stale", "no such element"} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
