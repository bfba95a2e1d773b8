package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorIsMonotonic(t *testing.T) {
	m := NewManager()
	m.now = func() int64 { return 100 } // force clock-resolution collisions

	c1 := m.Ingest("tab1", Event{Kind: EventConsole, Level: "error", Message: "boom"})
	c2 := m.Ingest("tab1", Event{Kind: EventConsole, Level: "error", Message: "boom again"})
	c3 := m.Ingest("tab1", Event{Kind: EventNetwork})

	assert.Less(t, c1, c2)
	assert.Less(t, c2, c3)
}

func TestSnapshotSinceExcludesOlderEvents(t *testing.T) {
	m := NewManager()
	seq := int64(0)
	m.now = func() int64 { seq++; return seq }

	m.Ingest("tab1", Event{Kind: EventConsole, Level: "error"})
	baseline := m.Cursor("tab1")
	m.Ingest("tab1", Event{Kind: EventNetwork, Failed: true})

	snap := m.TierZeroSnapshot("tab1", baseline+1, 0, 0)
	require.Len(t, snap.HARLite, 1)
	assert.Equal(t, EventNetwork, snap.HARLite[0].Kind)
	for _, ev := range snap.HARLite {
		assert.GreaterOrEqual(t, ev.Cursor, baseline+1)
	}
}

func TestHARLiteRingEvictsOldest(t *testing.T) {
	m := NewManager()
	seq := int64(0)
	m.now = func() int64 { seq++; return seq }

	for i := 0; i < harLiteCap+10; i++ {
		m.Ingest("tab1", Event{Kind: EventConsole})
	}
	snap := m.TierZeroSnapshot("tab1", 0, 0, 0)
	assert.Len(t, snap.HARLite, harLiteCap)
}

func TestIngestTruncatesOverlongMessage(t *testing.T) {
	m := NewManager()
	long := make([]byte, maxEventMessageRunes+500)
	for i := range long {
		long[i] = 'x'
	}

	m.Ingest("tab1", Event{Kind: EventConsole, Level: "error", Message: string(long)})
	snap := m.TierZeroSnapshot("tab1", 0, 0, 0)
	require.Len(t, snap.HARLite, 1)
	assert.LessOrEqual(t, len([]rune(snap.HARLite[0].Message)), maxEventMessageRunes+3) // +3 for the "..." suffix
}

func TestDialogOpenTracksSetDialogOpen(t *testing.T) {
	m := NewManager()
	open, _ := m.DialogOpen("tab1")
	assert.False(t, open)

	m.SetDialogOpen("tab1", true, "alert", "hi", "")
	open, state := m.DialogOpen("tab1")
	assert.True(t, open)
	assert.Equal(t, "alert", state.Kind)

	m.SetDialogOpen("tab1", false, "", "", "")
	open, _ = m.DialogOpen("tab1")
	assert.False(t, open)
}
