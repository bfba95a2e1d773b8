// Package affordance implements the stable-ref registry §3/§4.4 describes:
// aff:<hash> handles that resolve to a concrete {tool,args} the engine can
// execute, with label/kind/index fallback resolution for the `act` internal
// action (spec.md §4.2).
package affordance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Item is one resolvable affordance (§3 AffordanceMap.items).
type Item struct {
	Ref  string         // "aff:<hash>"
	Tool string
	Args map[string]any
	Meta map[string]any // includes at least {text, kind}
}

// Map is one tab's affordance snapshot.
type Map struct {
	Cursor int64
	URL    string
	Items  []Item
}

// Registry stores one Map per tab, refreshed by page(detail=locators|map).
type Registry struct {
	mu   sync.RWMutex
	tabs map[string]Map
}

// NewRegistry creates an empty affordance Registry.
func NewRegistry() *Registry {
	return &Registry{tabs: make(map[string]Map)}
}

// Hash computes the stable "aff:<hash>" ref for a semantic action.
//
// Grounded on original_source's handlers/locators_overlay.py /
// tools/dom.py: the hash is over (tool, normalized URL, a stable DOM path
// or accessible name) so two snapshots of the same semantic action on the
// same URL yield the same ref (invariant 4).
func Hash(tool, normalizedURL, stableKey string) string {
	sum := sha256.Sum256([]byte(tool + "\x00" + normalizedURL + "\x00" + stableKey))
	return "aff:" + hex.EncodeToString(sum[:])[:16]
}

// Set stores a fresh affordance Map for tabID (page(detail=map|locators)).
func (r *Registry) Set(tabID string, m Map) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tabs[tabID] = m
}

// State describes whether a tab's stored map is usable as-is.
type State struct {
	Stale    bool // stored URL != current URL, or no map at all
	Missing  bool // ref/label not found in the stored map
	CurrentURL string
}

// Resolve looks up ref in tabID's stored map.
func (r *Registry) Resolve(tabID, ref, currentURL string) (Item, State) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.tabs[tabID]
	if !ok {
		return Item{}, State{Stale: true, Missing: true, CurrentURL: currentURL}
	}
	stale := m.URL != currentURL
	for _, it := range m.Items {
		if it.Ref == ref {
			return it, State{Stale: stale, CurrentURL: currentURL}
		}
	}
	return Item{}, State{Stale: stale, Missing: true, CurrentURL: currentURL}
}

// ResolveByLabel implements resolve_affordance_by_label (spec.md §4.4):
// exact match among stored items of the given kind ("all" matches any
// kind). Returns the matched item (if exactly one), the staleness state,
// and up to maxMatches candidate previews for an ambiguous-match error.
func (r *Registry) ResolveByLabel(tabID, label, kind string, index, maxMatches int, currentURL string) (Item, State, []Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.tabs[tabID]
	state := State{CurrentURL: currentURL}
	if !ok {
		state.Stale = true
		state.Missing = true
		return Item{}, state, nil, fmt.Errorf("affordance: no stored map for tab %q", tabID)
	}
	state.Stale = m.URL != currentURL

	var matches []Item
	for _, it := range m.Items {
		if kind != "" && kind != "all" {
			if k, _ := it.Meta["kind"].(string); k != kind {
				continue
			}
		}
		if text, _ := it.Meta["text"].(string); text == label {
			matches = append(matches, it)
		}
	}

	if len(matches) == 0 {
		state.Missing = true
		return Item{}, state, nil, fmt.Errorf("affordance: no match for label %q (kind=%q)", label, kind)
	}

	if index != nil_index {
		if index < 0 || index >= len(matches) {
			return Item{}, state, previewOf(matches, maxMatches), fmt.Errorf("affordance: index %d out of range (0..%d)", index, len(matches)-1)
		}
		return matches[index], state, nil, nil
	}

	if len(matches) > 1 {
		return Item{}, state, previewOf(matches, maxMatches), fmt.Errorf("affordance: ambiguous label %q: %d matches", label, len(matches))
	}
	return matches[0], state, nil, nil
}

// nil_index is the sentinel meaning "no explicit index was requested";
// callers pass this when the act step omitted `index`.
const nil_index = -1

func previewOf(items []Item, max int) []Item {
	if max <= 0 || max > len(items) {
		max = len(items)
		if max > 5 {
			max = 5
		}
	}
	return items[:max]
}
