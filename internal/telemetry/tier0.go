// Package telemetry implements Tier-0 event ingest: a lightweight,
// per-tab aggregate of console/network/dialog CDP events kept in memory
// (spec.md §3, §4.4).
//
// Grounded on the teacher's internal/session/history.go: a mutex-guarded,
// size-bounded ring with trim-oldest eviction, generalized here from chat
// turns to CDP events and given a monotonic cursor (invariant 3).
package telemetry

import (
	"sync"
	"time"

	"github.com/AmirTlinov/browser-mcp/internal/util"
)

// harLiteCap bounds the per-tab HAR-lite ring buffer (SPEC_FULL §3, adopted
// from original_source/server/types.py).
const harLiteCap = 200

// maxEventMessageRunes bounds a single console/network message before it
// enters the ring, so one verbose stack trace can't dominate a snapshot.
const maxEventMessageRunes = 2000

// EventKind classifies one ingested CDP event.
type EventKind string

const (
	EventConsole    EventKind = "console"
	EventNetwork    EventKind = "network"
	EventDialog     EventKind = "dialog"
	EventLog        EventKind = "log"
	EventPageLoad   EventKind = "page_load"
)

// Event is one ingested, cursor-stamped Tier-0 observation.
type Event struct {
	Cursor  int64 // epoch-ms, monotonic per tab (invariant 3)
	Kind    EventKind
	Level   string // e.g. "error", "warning", "info" for console/log events
	Message string
	URL     string
	Status  int // HTTP status for network events, 0 otherwise
	Failed  bool
}

// DialogState is the last known JS dialog state for a tab.
type DialogState struct {
	Open       bool
	Kind       string // alert | confirm | prompt | beforeunload
	Message    string
	DefaultVal string
}

// Summary is the bounded counters snapshot §3 Telemetry describes.
type Summary struct {
	ConsoleErrors   int
	ConsoleWarnings int
	NetworkFailed   int
	RequestsTotal   int
	LastError       string
}

// Tab holds the Tier-0 aggregate for a single CDP target.
type Tab struct {
	mu      sync.Mutex
	cursor  int64
	summary Summary
	dialog  DialogState
	harLite []Event // ring buffer, oldest evicted first, cap harLiteCap
}

// Manager owns one Tab aggregate per tabID, created lazily.
type Manager struct {
	mu   sync.Mutex
	tabs map[string]*Tab
	now  func() int64 // overridable for deterministic tests
}

// NewManager creates an empty telemetry Manager.
func NewManager() *Manager {
	return &Manager{
		tabs: make(map[string]*Tab),
		now:  func() int64 { return time.Now().UnixMilli() },
	}
}

func (m *Manager) tab(tabID string) *Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tabs[tabID]
	if !ok {
		t = &Tab{}
		m.tabs[tabID] = t
	}
	return t
}

// Ingest appends ev to tabID's ring, stamping it with the current monotonic
// cursor if ev.Cursor is unset, and updates the rolling Summary/DialogState.
func (m *Manager) Ingest(tabID string, ev Event) int64 {
	t := m.tab(tabID)
	t.mu.Lock()
	defer t.mu.Unlock()

	now := m.now()
	if t.cursor >= now {
		now = t.cursor + 1 // strict monotonicity even under clock-resolution collisions
	}
	t.cursor = now
	ev.Cursor = now
	ev.Message = util.TruncateRunes(ev.Message, maxEventMessageRunes)

	switch ev.Kind {
	case EventConsole, EventLog:
		if ev.Level == "error" {
			t.summary.ConsoleErrors++
			t.summary.LastError = ev.Message
		} else if ev.Level == "warning" {
			t.summary.ConsoleWarnings++
		}
	case EventNetwork:
		t.summary.RequestsTotal++
		if ev.Failed {
			t.summary.NetworkFailed++
			if t.summary.LastError == "" {
				t.summary.LastError = ev.Message
			}
		}
	case EventDialog:
		t.dialog.Message = ev.Message
	}

	t.harLite = append(t.harLite, ev)
	if len(t.harLite) > harLiteCap {
		t.harLite = t.harLite[len(t.harLite)-harLiteCap:]
	}
	return now
}

// SetDialogOpen updates the tab's open-dialog state. Its caller is the
// dialog tool, which marks the dialog closed after handling it; no listener
// for Page.javascriptDialogOpening / Closed events feeds it, so a dialog is
// reported open only after an explicit SetDialogOpen(..., true, ...).
func (m *Manager) SetDialogOpen(tabID string, open bool, kind, message, defaultVal string) {
	t := m.tab(tabID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dialog = DialogState{Open: open, Kind: kind, Message: message, DefaultVal: defaultVal}
}

// DialogOpen reports whether tabID currently has a blocking dialog open
// (the dialog pre-step guard, spec.md §4.1).
func (m *Manager) DialogOpen(tabID string) (bool, DialogState) {
	t := m.tab(tabID)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dialog.Open, t.dialog
}

// Cursor returns the current monotonic cursor for tabID.
func (m *Manager) Cursor(tabID string) int64 {
	t := m.tab(tabID)
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

// BaselineWallClock returns a wall-clock cursor for use as a run baseline
// when a dialog is already open at acquisition time — an in-page
// Date.now() probe would hang behind the dialog (spec.md §4.1).
func (m *Manager) BaselineWallClock() int64 {
	return time.Now().UnixMilli()
}

// Snapshot is the bounded structure tier0_snapshot returns (spec.md §4.4).
type Snapshot struct {
	Cursor     int64
	Summary    Summary
	HARLite    []Event
	DialogOpen bool
	Dialog     DialogState
}

// TierZeroSnapshot returns events for tabID with cursor >= since (0 = no
// lower bound), offset/limit-bounded, newest bounded by harLiteCap already.
func (m *Manager) TierZeroSnapshot(tabID string, since int64, offset, limit int) Snapshot {
	t := m.tab(tabID)
	t.mu.Lock()
	defer t.mu.Unlock()

	var filtered []Event
	for _, ev := range t.harLite {
		if ev.Cursor >= since {
			filtered = append(filtered, ev)
		}
	}
	if offset > len(filtered) {
		offset = len(filtered)
	}
	filtered = filtered[offset:]
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}

	return Snapshot{
		Cursor:     t.cursor,
		Summary:    t.summary,
		HARLite:    filtered,
		DialogOpen: t.dialog.Open,
		Dialog:     t.dialog,
	}
}

// Delta filters events to those with cursor >= baseline — the "delta
// report" contract (invariant 10, GLOSSARY).
func Delta(events []Event, baseline int64) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Cursor >= baseline {
			out = append(out, ev)
		}
	}
	return out
}

// Reset wipes per-tab state (used by recover_reset in tests, spec.md §4.4).
func (m *Manager) Reset(tabID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tabs, tabID)
}
