// Package policy implements the permissive/strict execution modes and the
// reliability heuristic levels spec.md §3/§4.5 describe: how aggressively
// the run engine auto-recovers, auto-confirms dialogs, and gates
// destructive actions behind explicit confirmation.
package policy

import "fmt"

// Mode gates which actions require explicit step-level confirmation.
type Mode string

const (
	// ModePermissive runs steps as given; destructive actions (navigate
	// away with unsaved state, dialog auto-accept, file upload/download)
	// proceed without extra confirmation.
	ModePermissive Mode = "permissive"

	// ModeStrict gates sensitive actions: RequiresConfirmation reports a
	// StrictParams-flagged step as needing confirm:true, the browser tool
	// refuses memory_set and runbook_save, and the run engine treats
	// auto_dialog=auto as off (spec.md §4.5). The run engine does not call
	// RequiresConfirmation.
	ModeStrict Mode = "strict"
)

// ReliabilityLevel controls how much auto-recovery the engine attempts
// after a step fails (spec.md §4.1 "Recovery", invariant 7).
type ReliabilityLevel int

const (
	// ReliabilityOff disables all auto-recovery; a failed step fails the
	// batch immediately.
	ReliabilityOff ReliabilityLevel = 0

	// ReliabilityBasic allows one retry of a click-like step that failed
	// with a UI-transient error, made after an overlay-dismiss attempt.
	ReliabilityBasic ReliabilityLevel = 1

	// ReliabilityStandard additionally allows soft recovery after a
	// CDP-"brick" error (AllowsSoftRecovery).
	ReliabilityStandard ReliabilityLevel = 2

	// ReliabilityAggressive additionally reports AllowsHardRecovery; no
	// run-engine path consults it or relaunches Chromium.
	ReliabilityAggressive ReliabilityLevel = 3
)

// Policy is the resolved, per-run decision surface the engine consults
// before and after each step.
type Policy struct {
	Mode        Mode
	Reliability ReliabilityLevel

	// StrictParams lists (tool, param) pairs that require confirm:true
	// under ModeStrict — e.g. {"navigate", "url"} for cross-origin
	// navigation, {"download", "*"} for any download (spec.md §4.5).
	StrictParams []StrictParam
}

// StrictParam names one confirmation-gated (tool, param) pair. Param == "*"
// matches the tool regardless of arguments.
type StrictParam struct {
	Tool  string
	Param string
}

// New builds a Policy, validating the reliability level is in range.
func New(mode Mode, reliability int, strict []StrictParam) (Policy, error) {
	if reliability < int(ReliabilityOff) || reliability > int(ReliabilityAggressive) {
		return Policy{}, fmt.Errorf("policy: reliability level %d out of range [0,3]", reliability)
	}
	if mode != ModePermissive && mode != ModeStrict {
		return Policy{}, fmt.Errorf("policy: unknown mode %q", mode)
	}
	return Policy{Mode: mode, Reliability: ReliabilityLevel(reliability), StrictParams: strict}, nil
}

// RequiresConfirmation reports whether a step invoking tool with the given
// argument keys must carry confirm:true under this Policy.
func (p Policy) RequiresConfirmation(tool string, argKeys map[string]bool) bool {
	if p.Mode != ModeStrict {
		return false
	}
	for _, sp := range p.StrictParams {
		if sp.Tool != tool {
			continue
		}
		if sp.Param == "*" {
			return true
		}
		if argKeys[sp.Param] {
			return true
		}
	}
	return false
}

// AllowsSoftRecovery reports whether the run engine may open a fresh tab
// (no process relaunch) after a failed step.
func (p Policy) AllowsSoftRecovery() bool {
	return p.Reliability >= ReliabilityStandard
}

// AllowsHardRecovery reports whether the run engine may relaunch Chromium
// entirely after repeated failures (the CDP-"brick" recovery path).
func (p Policy) AllowsHardRecovery() bool {
	return p.Reliability >= ReliabilityAggressive
}

// AllowsRetry reports whether the engine may retry a failed step at all.
func (p Policy) AllowsRetry() bool {
	return p.Reliability >= ReliabilityBasic
}

// DefaultStrictParams is a ready-made confirmation gate list. New does not
// fall back to it: a nil strict list stays nil.
func DefaultStrictParams() []StrictParam {
	return []StrictParam{
		{Tool: "download", Param: "*"},
		{Tool: "dialog", Param: "accept"},
		{Tool: "browser", Param: "shutdown"},
		{Tool: "storage", Param: "clear"},
	}
}
