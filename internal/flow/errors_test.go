package flow

import (
	"errors"
	"testing"
)

func TestClassifyInterpErrorMissingRef(t *testing.T) {
	err := &MissingRefError{Placeholder: "x"}
	if got := classifyInterpError(err); got != ClassMissingRef {
		t.Fatalf("got %q, want %q", got, ClassMissingRef)
	}
}

func TestClassifyInterpErrorValidation(t *testing.T) {
	if got := classifyInterpError(errors.New("boom")); got != ClassValidation {
		t.Fatalf("got %q, want %q", got, ClassValidation)
	}
}

func TestClassifyActionErrorAmbiguous(t *testing.T) {
	if got := classifyActionError(errors.New("affordance: ambiguous label \"x\": 3 matches")); got != ClassAmbiguous {
		t.Fatalf("got %q, want %q", got, ClassAmbiguous)
	}
}

func TestClassifyActionErrorMissingRef(t *testing.T) {
	if got := classifyActionError(errors.New("affordance: no match for label \"x\"")); got != ClassMissingRef {
		t.Fatalf("got %q, want %q", got, ClassMissingRef)
	}
}

func TestClassifyDispatchErrorBrick(t *testing.T) {
	if got := classifyDispatchError(errors.New("websocket closed")); got != ClassCDPBrick {
		t.Fatalf("got %q, want %q", got, ClassCDPBrick)
	}
}

func TestClassifyDispatchErrorWatchdogTimeoutIsBrick(t *testing.T) {
	// "action timed out" is one of isBrickError's own signatures, so a
	// watchdog timeout routes to cdp_brick (recovery), not a bare retry.
	if got := classifyDispatchError(errors.New("flow: action timed out after 30s")); got != ClassCDPBrick {
		t.Fatalf("got %q, want %q", got, ClassCDPBrick)
	}
}

func TestClassifyDispatchErrorUITransient(t *testing.T) {
	if got := classifyDispatchError(errors.New("element not visible")); got != ClassUITransient {
		t.Fatalf("got %q, want %q", got, ClassUITransient)
	}
}

func TestSuggestionForKnownClasses(t *testing.T) {
	for _, class := range []string{ClassMissingRef, ClassAmbiguous, ClassDialogBlock, ClassUITransient, ClassCDPBrick, ClassTimeout, ClassPolicy, ClassValidation} {
		if suggestionFor(class) == "" {
			t.Errorf("expected a non-empty suggestion for class %q", class)
		}
	}
}

func TestSuggestionForUnknownClassIsEmpty(t *testing.T) {
	if got := suggestionFor("no_such_class"); got != "" {
		t.Fatalf("expected empty suggestion, got %q", got)
	}
}
