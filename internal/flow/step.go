// Package flow implements the batched run engine (spec.md §4.1): it turns a
// list of declarative Steps into one compact report, executed under a
// single shared browser.Session.
//
// Grounded on original_source's server/flow/handler.py step-shape
// acceptance and the teacher's internal/agent/flow.go + internal/core
// Prep→Exec→Post retry machinery, generalized from an LLM decision loop to
// a declarative step queue with splice-insert continuations (spec.md §9
// "Queue mutation as continuation").
package flow

import (
	"encoding/json"
	"fmt"
)

// Step is one action: either the explicit `{tool,args,...meta}` shape or
// the shorthand `{toolName: args, ...meta}` one. Both normalize to this
// struct (spec.md §3 Step, §4.1 "Step normalization").
type Step struct {
	Tool string
	Args map[string]any

	Label       string
	Optional    bool
	Export      map[string]string // outKey -> dotted path into the raw result
	Download    bool
	Irreversible bool
	AutoTab     bool

	// iterState carries repeat's self-injected continuation state: the
	// iteration counter __iter; no time origin is kept — spec.md §9 "Queue
	// mutation as continuation".
	iterState map[string]any
}

// metaKeys are the recognized meta fields alongside either shape (spec.md
// §4.1 "Step normalization").
var metaKeys = map[string]bool{
	"label": true, "optional": true, "export": true, "download": true,
	"irreversible": true, "auto_tab": true,
}

// KnownTool gates the explicit `{tool,...}` shape so unknown tool names
// fail as a validation error at normalization time rather than at dispatch
// (spec.md §9 "unknown tools are a validation error, not a runtime
// surprise"). The run engine supplies a predicate backed by the live tool
// registry plus the five internal-action names; nil accepts anything
// (used directly by tests that don't need the gate).
type KnownTool func(name string) bool

// NormalizeStep accepts a raw step object (already JSON-decoded into
// map[string]any) and returns a Step, or an error if the shape is
// ambiguous, empty, or names an unknown tool.
func NormalizeStep(raw map[string]any, known KnownTool) (Step, error) {
	s := Step{Args: map[string]any{}}

	explicitTool, hasExplicit := raw["tool"].(string)
	explicitArgs, _ := raw["args"].(map[string]any)

	var shorthandTool string
	shorthandCount := 0
	for k := range raw {
		if metaKeys[k] || k == "tool" || k == "args" {
			continue
		}
		shorthandTool = k
		shorthandCount++
	}

	switch {
	case hasExplicit && shorthandCount > 0:
		return Step{}, fmt.Errorf("flow: step has both explicit tool %q and shorthand key %q", explicitTool, shorthandTool)
	case hasExplicit:
		s.Tool = explicitTool
		s.Args = explicitArgs
	case shorthandCount == 1:
		s.Tool = shorthandTool
		if m, ok := raw[shorthandTool].(map[string]any); ok {
			s.Args = m
		} else if raw[shorthandTool] == nil {
			s.Args = map[string]any{}
		} else {
			return Step{}, fmt.Errorf("flow: shorthand step %q value must be an object", shorthandTool)
		}
	case shorthandCount > 1:
		return Step{}, fmt.Errorf("flow: step has multiple shorthand keys, ambiguous tool")
	default:
		return Step{}, fmt.Errorf("flow: empty step: no tool specified")
	}

	if s.Tool == "" {
		return Step{}, fmt.Errorf("flow: empty step: no tool specified")
	}
	if known != nil && !known(s.Tool) {
		return Step{}, fmt.Errorf("flow: unknown tool %q", s.Tool)
	}

	if v, ok := raw["label"].(string); ok {
		s.Label = v
	}
	if v, ok := raw["optional"].(bool); ok {
		s.Optional = v
	}
	if v, ok := raw["download"].(bool); ok {
		s.Download = v
	}
	if v, ok := raw["irreversible"].(bool); ok {
		s.Irreversible = v
	}
	if v, ok := raw["auto_tab"].(bool); ok {
		s.AutoTab = v
	}
	if v, ok := raw["export"].(map[string]any); ok {
		s.Export = make(map[string]string, len(v))
		for k, path := range v {
			if ps, ok := path.(string); ok {
				s.Export[k] = ps
			}
		}
	}
	return s, nil
}

// IsInternalAction reports whether tool is one of the five wrapper actions
// handled by actions.go rather than dispatched through the tool registry.
func IsInternalAction(toolName string) bool {
	switch toolName {
	case "assert", "when", "repeat", "macro", "act":
		return true
	}
	return false
}

// RawArgsJSON marshals s.Args for a Tool.Execute call.
func (s Step) RawArgsJSON() (json.RawMessage, error) {
	data, err := json.Marshal(s.Args)
	if err != nil {
		return nil, fmt.Errorf("flow: marshal step args: %w", err)
	}
	return data, nil
}

// Clone returns a deep-enough copy of s suitable for splicing (repeat body
// copies, when branches): Args map is copied so later interpolation doesn't
// mutate the original template.
func (s Step) Clone() Step {
	clone := s
	clone.Args = make(map[string]any, len(s.Args))
	for k, v := range s.Args {
		clone.Args[k] = v
	}
	if s.Export != nil {
		clone.Export = make(map[string]string, len(s.Export))
		for k, v := range s.Export {
			clone.Export[k] = v
		}
	}
	return clone
}
