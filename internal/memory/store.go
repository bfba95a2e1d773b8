// Package memory implements the agent memory KV store (spec.md §3, §4.4):
// a small, capacity-bounded key/value scratchpad the run engine reads via
// {{mem:key}} interpolation and writes via the memory_* tools, with a
// sensitivity rule that redacts values before they are echoed back in any
// tool result (spec.md §6).
//
// Grounded on the teacher's internal/session/store.go (TTL/maxTurns bounded,
// mutex-guarded store) generalized here to an LRU-bounded KV store using
// hashicorp/golang-lru/v2, the library other_examples' manifests show for
// this exact concern.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the number of keys kept in memory.
const DefaultCapacity = 256

// sensitivePattern flags keys whose values are masked in tool results even
// though the raw value remains available to {{mem:...}} interpolation
// (spec.md §6 redaction contract).
var sensitivePattern = regexp.MustCompile(`(?i)(password|secret|token|otp|totp|apikey|api_key|authorization|cookie)`)

// Entry is one stored value plus bookkeeping used by memory_list.
type Entry struct {
	Value      any       `json:"value"`
	Sensitive  bool      `json:"sensitive"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store is a capacity-bounded, mutex-guarded key/value store.
type Store struct {
	mu   sync.Mutex
	lru  *lru.Cache[string, Entry]
	path string // optional JSON persistence path; empty disables save/load
}

// New creates a Store with the given capacity (<=0 uses DefaultCapacity).
func New(capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("memory: new lru: %w", err)
	}
	return &Store{lru: c}, nil
}

// NewWithPersistence creates a Store that additionally loads path at
// construction (if present) and can Save back to it (spec.md §3: optional
// JSON persistence across process restarts).
func NewWithPersistence(capacity int, path string) (*Store, error) {
	s, err := New(capacity)
	if err != nil {
		return nil, err
	}
	s.path = path
	if path == "" {
		return s, nil
	}
	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// Set stores value under key, classifying it sensitive if the key matches
// sensitivePattern or the caller forces it via explicitSensitive.
func (s *Store) Set(key string, value any, explicitSensitive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Add(key, Entry{
		Value:     value,
		Sensitive: explicitSensitive || sensitivePattern.MatchString(key),
		UpdatedAt: time.Now(),
	})
}

// Get returns the raw value for key, for internal interpolation use only —
// callers that surface results to the model must use Redacted instead.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Remove(key)
}

// Keys lists all currently stored keys (memory_list, spec.md §4.4).
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Keys()
}

// redactedPlaceholder is what a sensitive value is replaced with in any
// result surfaced back to the model.
const redactedPlaceholder = "***redacted***"

// Redacted returns key's value as it should appear in a tool result: the
// real value for non-sensitive keys, redactedPlaceholder otherwise.
func (s *Store) Redacted(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false
	}
	if e.Sensitive {
		return redactedPlaceholder, true
	}
	return e.Value, true
}

// List returns a snapshot of all entries with sensitive values masked,
// matching memory_list's documented contract.
func (s *Store) List() map[string]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Entry, len(s.lru.Keys()))
	for _, k := range s.lru.Keys() {
		e, ok := s.lru.Peek(k)
		if !ok {
			continue
		}
		if e.Sensitive {
			e.Value = redactedPlaceholder
		}
		out[k] = e
	}
	return out
}

// persistedEntry is the on-disk shape: sensitive values are persisted in
// the clear (the file is local agent state, not a tool-facing surface) but
// kept as a distinct type so Save/Load don't silently depend on Entry's
// JSON tags matching List()'s redacted view.
type persistedEntry struct {
	Value     any       `json:"value"`
	Sensitive bool       `json:"sensitive"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Save writes the full (unredacted) store to s.path as JSON. A no-op if no
// path was configured.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]persistedEntry, len(s.lru.Keys()))
	for _, k := range s.lru.Keys() {
		e, ok := s.lru.Peek(k)
		if !ok {
			continue
		}
		out[k] = persistedEntry(e)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("memory: marshal: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Load adds s.path's JSON contents to the store, overwriting keys present in
// the file; keys already in the store but absent from the file are kept.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var in map[string]persistedEntry
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("memory: unmarshal %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range in {
		s.lru.Add(k, Entry(v))
	}
	return nil
}

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}
