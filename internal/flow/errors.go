// Closed error taxonomy for StepSummary.ErrorClass (spec.md §7).
package flow

import "strings"

// Error classes (spec.md §7 "Errors are classified, not just strings").
const (
	ClassValidation  = "validation"
	ClassPolicy      = "policy"
	ClassMissingRef  = "missing_ref"
	ClassAmbiguous   = "ambiguous"
	ClassDialogBlock = "dialog_block"
	ClassUITransient = "ui_transient"
	ClassCDPBrick    = "cdp_brick"
	ClassTimeout     = "timeout"
	ClassToolFailure = "tool_failure"
)

// classifyInterpError classifies a failure from InterpolateArgs/ExportFromResult.
func classifyInterpError(err error) string {
	if err == nil {
		return ""
	}
	if _, ok := err.(*MissingRefError); ok {
		return ClassMissingRef
	}
	return ClassValidation
}

// classifyActionError classifies a failure returned by execInternalAction.
func classifyActionError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "ambiguous") || strings.Contains(msg, "out of range"):
		return ClassAmbiguous
	case strings.Contains(msg, "not found") || strings.Contains(msg, "no match") || strings.Contains(msg, "no stored map"):
		return ClassMissingRef
	case strings.Contains(msg, "exceeds cap") || strings.Contains(msg, "recursion") || strings.Contains(msg, "empty condition") || strings.Contains(msg, "requires"):
		return ClassValidation
	case strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline"):
		return ClassTimeout
	default:
		return ClassToolFailure
	}
}

// classifyDispatchError classifies a concrete-tool dispatch failure.
func classifyDispatchError(err error) string {
	if err == nil {
		return ""
	}
	if isBrickError(err) {
		return ClassCDPBrick
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timed out") || strings.Contains(msg, "deadline"):
		return ClassTimeout
	case isUITransient(err):
		return ClassUITransient
	case strings.Contains(msg, "policy") || strings.Contains(msg, "refus"):
		return ClassPolicy
	default:
		return ClassToolFailure
	}
}

// suggestionFor returns a short actionable hint for a given error class
// (spec.md §7 "every classified error carries a next-step suggestion").
func suggestionFor(class string) string {
	switch class {
	case ClassMissingRef:
		return "refresh affordances via page(detail=\"locators\") or check the memory key"
	case ClassAmbiguous:
		return "narrow with index or a more specific label/kind"
	case ClassDialogBlock:
		return `dialog(action="accept") or dialog(action="dismiss")`
	case ClassUITransient:
		return "retry after dismissing any overlay; selector may need updating"
	case ClassCDPBrick:
		return "call browser(action=\"recover_reset\") then retry the run"
	case ClassTimeout:
		return "increase action_timeout_s or check for a stuck network request"
	case ClassPolicy:
		return "relax policy mode or pass confirm_irreversible/allow_sensitive as required"
	case ClassValidation:
		return "check the step's required arguments"
	case ClassToolFailure:
		return "check the tool's error message and arguments, then retry"
	default:
		return ""
	}
}
