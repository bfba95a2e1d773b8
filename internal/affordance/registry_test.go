package affordance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsStableForSameInputs(t *testing.T) {
	h1 := Hash("click", "https://example.com/login", "button#submit")
	h2 := Hash("click", "https://example.com/login", "button#submit")
	assert.Equal(t, h1, h2)
}

func TestHashDiffersOnURLChange(t *testing.T) {
	h1 := Hash("click", "https://example.com/login", "button#submit")
	h2 := Hash("click", "https://example.com/other", "button#submit")
	assert.NotEqual(t, h1, h2)
}

func TestResolveReturnsMissingWhenNoMap(t *testing.T) {
	r := NewRegistry()
	_, state := r.Resolve("tab1", "aff:deadbeef", "https://example.com")
	assert.True(t, state.Missing)
	assert.True(t, state.Stale)
}

func TestResolveFindsStoredRef(t *testing.T) {
	r := NewRegistry()
	ref := Hash("click", "https://example.com", "submit")
	r.Set("tab1", Map{URL: "https://example.com", Items: []Item{
		{Ref: ref, Tool: "click", Meta: map[string]any{"text": "Submit", "kind": "button"}},
	}})

	item, state := r.Resolve("tab1", ref, "https://example.com")
	require.False(t, state.Missing)
	assert.False(t, state.Stale)
	assert.Equal(t, "click", item.Tool)
}

func TestResolveMarksStaleOnURLDrift(t *testing.T) {
	r := NewRegistry()
	ref := Hash("click", "https://example.com", "submit")
	r.Set("tab1", Map{URL: "https://example.com", Items: []Item{
		{Ref: ref, Meta: map[string]any{"text": "Submit", "kind": "button"}},
	}})

	_, state := r.Resolve("tab1", ref, "https://example.com/next")
	assert.True(t, state.Stale)
}

func TestResolveByLabelUniqueMatch(t *testing.T) {
	r := NewRegistry()
	r.Set("tab1", Map{URL: "https://example.com", Items: []Item{
		{Ref: "aff:1", Meta: map[string]any{"text": "Login", "kind": "button"}},
		{Ref: "aff:2", Meta: map[string]any{"text": "Logout", "kind": "button"}},
	}})

	item, _, _, err := r.ResolveByLabel("tab1", "Login", "button", nil_index, 5, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "aff:1", item.Ref)
}

func TestResolveByLabelAmbiguousReturnsPreview(t *testing.T) {
	r := NewRegistry()
	r.Set("tab1", Map{URL: "https://example.com", Items: []Item{
		{Ref: "aff:1", Meta: map[string]any{"text": "Next", "kind": "link"}},
		{Ref: "aff:2", Meta: map[string]any{"text": "Next", "kind": "link"}},
	}})

	_, _, preview, err := r.ResolveByLabel("tab1", "Next", "link", nil_index, 5, "https://example.com")
	require.Error(t, err)
	assert.Len(t, preview, 2)
}

func TestResolveByLabelIndexSelectsMatch(t *testing.T) {
	r := NewRegistry()
	r.Set("tab1", Map{URL: "https://example.com", Items: []Item{
		{Ref: "aff:1", Meta: map[string]any{"text": "Next", "kind": "link"}},
		{Ref: "aff:2", Meta: map[string]any{"text": "Next", "kind": "link"}},
	}})

	item, _, _, err := r.ResolveByLabel("tab1", "Next", "link", 1, 5, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "aff:2", item.Ref)
}
