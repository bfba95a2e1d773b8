// Package builtin implements the mandatory tool catalog spec.md §6 lists:
// one file per tool family, each a struct satisfying tool.Tool, driving a
// shared browser.Session plus the session-manager collaborators
// (telemetry, affordances, memory, artifacts, policy).
//
// Grounded on the teacher's internal/tool/builtin/file.go layout (struct
// per tool, Name/Description/InputSchema/Init/Close/Execute, args structs
// with json tags, tool.BuildSchema), generalized from file/shell/search
// tools to CDP-backed browser tools over the shared Session a batched run
// also uses (spec.md §9 "Shared session as a borrow").
package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AmirTlinov/browser-mcp/internal/affordance"
	"github.com/AmirTlinov/browser-mcp/internal/artifact"
	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/config"
	"github.com/AmirTlinov/browser-mcp/internal/memory"
	"github.com/AmirTlinov/browser-mcp/internal/policy"
	"github.com/AmirTlinov/browser-mcp/internal/telemetry"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// Deps bundles the session-manager collaborators every built-in tool
// shares; each tool struct holds the subset it actually calls rather than
// the whole bundle, so unit tests can construct a tool without wiring
// everything.
type Deps struct {
	Session     *browser.Session
	Telemetry   *telemetry.Manager
	Affordances *affordance.Registry
	Memory      *memory.Store
	Artifacts   *artifact.Store
	Policy      policy.Policy
	Config      config.BrowserConfig
}

// decodeArgs unmarshals raw into v, tolerating an empty/absent body as a
// zero-value args struct (several tools, e.g. screenshot, take no required
// arguments).
func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// ensureTab resolves tabID ("" => active tab) to a live chromedp context,
// the pattern every tool that touches the DOM starts with.
func ensureTab(sess *browser.Session, tabID string) (context.Context, string, error) {
	tabCtx, id, err := sess.EnsureTab(tabID)
	if err != nil {
		return nil, "", err
	}
	return tabCtx, id, nil
}

// noInit / noClose are the common zero-setup Init/Close bodies the teacher
// uses for tools with no owned resources.
func noInit(context.Context) error { return nil }
func noClose() error               { return nil }

const defaultMouseButton = "left"

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// errResult wraps an error as a tool.Result (IsError=true) rather than a Go
// error, matching the engine's "step failed, batch continues per policy"
// contract (spec.md §4.1) — only malformed-argument/transport conditions
// return a Go error from Execute.
func errResult(err error) (tool.Result, error) {
	return tool.Errorf("%s", err.Error()), nil
}
