// Engine executes a batch of Steps under one shared browser.Session
// (spec.md §4.1). It is the direct generalization of the teacher's
// internal/agent/flow.go + internal/core/node.go Prep→Exec→Post bounded
// retry machinery, from an LLM decision loop to a declarative step queue
// with splice-insert continuations.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AmirTlinov/browser-mcp/internal/affordance"
	"github.com/AmirTlinov/browser-mcp/internal/artifact"
	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/memory"
	"github.com/AmirTlinov/browser-mcp/internal/policy"
	"github.com/AmirTlinov/browser-mcp/internal/telemetry"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// maxExpandedSteps bounds total spliced queue growth (invariant 6).
const maxExpandedSteps = 2000

// Dispatcher resolves and invokes a concrete tool by name, decoupling the
// engine from the concrete tool.Registry type for easier testing.
type Dispatcher interface {
	Dispatch(ctx context.Context, toolName string, args map[string]any) (tool.Result, error)
	Known(toolName string) bool
}

// Engine owns one batched run's execution: the step queue, flow vars, and
// the collaborators Tier-0 telemetry/affordances/memory/artifacts are read
// and written through.
type Engine struct {
	Session     *browser.Session
	Telemetry   *telemetry.Manager
	Affordances *affordance.Registry
	Memory      *memory.Store
	Artifacts   *artifact.Store
	Dispatcher  Dispatcher
	Policy      policy.Policy

	tracer trace.Tracer
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(sess *browser.Session, tel *telemetry.Manager, aff *affordance.Registry, mem *memory.Store, art *artifact.Store, disp Dispatcher, pol policy.Policy) *Engine {
	return &Engine{
		Session: sess, Telemetry: tel, Affordances: aff, Memory: mem, Artifacts: art,
		Dispatcher: disp, Policy: pol,
		tracer: otel.Tracer("browser-mcp/flow"),
	}
}

// Options configures one Run/Flow invocation (spec.md §4.1 "Inputs").
type Options struct {
	TabID string

	StopOnError bool
	ActionTimeout time.Duration

	AutoDialog   string // auto | off | dismiss | accept
	AutoRecover  bool
	MaxRecoveries int
	RecoverHard  bool
	RecoverTimeout time.Duration

	AutoDownload       bool
	AutoDownloadTimeout time.Duration
	AutoTab            bool
	AutoAffordances    bool

	StepProof       bool
	ProofScreenshot bool // true => store as artifact on ambiguity/error

	RecordMemoryKey string
	RecordMode      string // sanitized | raw
	RecordOnFailure bool

	ConfirmIrreversible bool

	Final      string // none|observe|audit|triage|diagnostics|map|graph
	DeltaFinal bool
}

// DefaultOptions matches spec.md §4.1's documented defaults.
func DefaultOptions() Options {
	return Options{
		StopOnError:         true,
		ActionTimeout:       30 * time.Second,
		AutoDialog:          "auto",
		MaxRecoveries:       1,
		RecoverTimeout:      15 * time.Second,
		AutoDownloadTimeout: 10 * time.Second,
		RecordMode:          "sanitized",
		Final:               "observe",
	}
}

// StepSummary is one run report row (spec.md §3 StepSummary).
type StepSummary struct {
	Index      int
	Tool       string
	OK         bool
	Note       string
	Error      string
	ErrorClass string
	Suggestion string
	Proof      *Proof
	Download   *DownloadInfo
	AutoTab    *AutoTabInfo
	Export     map[string]any
}

// DownloadInfo is the auto-download attachment on a StepSummary.
type DownloadInfo struct {
	FileName string
	Bytes    int64
	MimeType string
	SHA256   string
	Artifact string
}

// AutoTabInfo records an auto-tab switch decision.
type AutoTabInfo struct {
	Switched bool
	TabID    string
	Ambiguous bool
}

// Proof is the compact per-step observation (spec.md §4.1 "Per-step
// proof", GLOSSARY "Proof").
type Proof struct {
	Since     int64
	URL       string
	Title     string
	ReadyJS   string
	Delta     telemetry.Summary
	DialogOpen bool
	Top       string
	Ambiguous bool
	ScreenshotArtifact string
}

// Report is the batch's final result (spec.md §4.1 "Outputs").
type Report struct {
	OK bool

	ActionsTotal      int
	ActionsExecuted   int
	Succeeded         int
	Failed            int
	DurationMS        int64
	StoppedOnError    bool
	Recoveries        int
	DialogsAutoHandled int

	Steps []StepSummary

	Cursor int64

	Final   string
	FinalData map[string]any

	Recording *RecordingResult
}

// RecordingResult mirrors spec.md §3's `recording?` output field.
type RecordingResult struct {
	OK        bool
	Key       string
	Mode      string
	Steps     int
	Redacted  bool
	Sensitive bool
}

// Run executes steps under opts and returns the compact report. rawSteps is
// the already-JSON-decoded step list; tool names are validated at
// normalization time against the internal actions and Dispatcher.Known.
func (e *Engine) Run(ctx context.Context, rawSteps []map[string]any, opts Options) (Report, error) {
	start := time.Now()

	release, err := e.Session.Acquire()
	if err != nil {
		return Report{}, err
	}
	defer release()

	tabCtx, tabID, err := e.Session.EnsureTab(opts.TabID)
	if err != nil {
		return Report{}, fmt.Errorf("flow: ensure tab: %w", err)
	}
	if err := e.Session.EnableDomains(tabCtx); err != nil {
		return Report{}, fmt.Errorf("flow: enable telemetry domains: %w", err)
	}

	baseline := e.baselineCursor(tabID)

	steps, err := e.normalizeAll(rawSteps)
	if err != nil {
		return Report{}, err
	}
	if err := e.refuseIrreversibleWithoutConfirm(steps, opts); err != nil {
		return Report{}, err
	}

	vars := Vars{}
	queue := steps
	var summaries []StepSummary
	var firstErr error
	var recoveries, dialogsAutoHandled int

	for i := 0; i < len(queue); i++ {
		if len(queue) > maxExpandedSteps {
			return Report{}, fmt.Errorf("flow: expansion exceeded cap of %d steps", maxExpandedSteps)
		}
		step := queue[i]

		stepCtx, span := e.tracer.Start(ctx, "flow.step", trace.WithAttributes(
			attribute.String("tool", step.Tool), attribute.Int("index", i)))

		summary, injected, recovered, dialogHandled, err := e.execStep(stepCtx, tabCtx, tabID, i, step, vars, opts)
		span.End()

		if dialogHandled {
			dialogsAutoHandled++
		}
		if recovered {
			recoveries++
		}
		if len(injected) > 0 {
			tail := append([]Step{}, queue[i+1:]...)
			queue = append(queue[:i+1], append(injected, tail...)...)
		}

		observeStep(step.Tool, summary.OK)
		summaries = append(summaries, summary)
		if !summary.OK && !step.Optional && firstErr == nil {
			firstErr = errors.New(summary.Error)
			if opts.StopOnError {
				break
			}
		}
		if err != nil && errors.Is(err, errBrick) {
			break
		}
	}

	ok := firstErr == nil
	report := Report{
		OK:                 ok,
		ActionsTotal:       len(steps),
		ActionsExecuted:    len(summaries),
		Succeeded:          countOK(summaries, true),
		Failed:             countOK(summaries, false),
		DurationMS:         time.Since(start).Milliseconds(),
		StoppedOnError:     firstErr != nil && opts.StopOnError,
		Recoveries:         recoveries,
		DialogsAutoHandled: dialogsAutoHandled,
		Steps:              summaries,
		Cursor:             e.Telemetry.Cursor(tabID),
		Final:              opts.Final,
	}

	if opts.Final != "" && opts.Final != "none" {
		report.FinalData = e.buildFinal(tabCtx, tabID, opts.Final, baseline, opts.DeltaFinal)
	}

	if opts.RecordMemoryKey != "" && (ok || opts.RecordOnFailure) {
		report.Recording = e.record(opts.RecordMemoryKey, opts.RecordMode, rawSteps)
	}

	observeRun(ok, time.Since(start).Seconds())
	return report, nil
}

var errBrick = errors.New("flow: cdp brick")

func countOK(summaries []StepSummary, ok bool) int {
	n := 0
	for _, s := range summaries {
		if s.OK == ok {
			n++
		}
	}
	return n
}

func (e *Engine) baselineCursor(tabID string) int64 {
	if open, _ := e.Telemetry.DialogOpen(tabID); open {
		return e.Telemetry.BaselineWallClock()
	}
	return e.Telemetry.Cursor(tabID)
}

func (e *Engine) normalizeAll(raw []map[string]any) ([]Step, error) {
	known := func(name string) bool {
		return IsInternalAction(name) || e.Dispatcher.Known(name)
	}
	steps := make([]Step, 0, len(raw))
	for _, r := range raw {
		s, err := NormalizeStep(r, known)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func (e *Engine) refuseIrreversibleWithoutConfirm(steps []Step, opts Options) error {
	if opts.ConfirmIrreversible {
		return nil
	}
	for _, s := range steps {
		if s.Irreversible {
			return fmt.Errorf("flow: step %q is irreversible; refusing whole run without confirm_irreversible=true", s.Tool)
		}
	}
	return nil
}

// backoffFor builds a bounded exponential backoff with cenkalti/backoff/v4,
// matching the teacher's use of that package for its own outbound retry
// logic. Nothing in this package calls it: the CDP-brick path and repeat
// iterations do not wait between attempts.
func backoffFor(maxRetries int, cap time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = cap
	b.MaxElapsedTime = cap * time.Duration(maxRetries+1)
	return backoff.WithMaxRetries(b, uint64(maxRetries))
}

func isBrickError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range []string{
		"cdp response timed out", "endpoint not reachable", "websocket closed",
		"connection refused", "broken pipe", "action timed out",
	} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}
