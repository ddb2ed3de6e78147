package engine

import "fmt"

// Entry is a single (key, value, provenance) triple inside a Map.
type Entry[T any] struct {
	Key        string
	Value      T
	Provenance Provenance
}

// Map is an ordered mapping from string key to (value, provenance).
//
// Order is the insertion order established by the producing scatter, map,
// or glob task and is stable for a given production: two runs that yield
// the same keys yield them in the same relative order, which the tracking
// protocol (§4.3) depends on for its "ordered prefix" validity checks.
type Map[T any] struct {
	entries []Entry[T]
	index   map[string]int
}

// NewMap builds a Map from entries in the given order, rejecting duplicate
// keys (spec.md §3 invariant: "Map keys within a single production are
// unique").
func NewMap[T any](entries []Entry[T]) (*Map[T], error) {
	m := &Map[T]{
		entries: make([]Entry[T], 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, exists := m.index[e.Key]; exists {
			return nil, fmt.Errorf("engine: duplicate map key %q", e.Key)
		}
		m.index[e.Key] = len(m.entries)
		m.entries = append(m.entries, e)
	}
	return m, nil
}

// Len returns the number of entries.
func (m *Map[T]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Lookup returns the entry for key without recording any access — used
// internally by the tracker and by validity checking, never exposed
// directly to task callbacks (which must go through a Tracker view).
func (m *Map[T]) Lookup(key string) (Entry[T], bool) {
	if m == nil {
		return Entry[T]{}, false
	}
	idx, ok := m.index[key]
	if !ok {
		return Entry[T]{}, false
	}
	return m.entries[idx], true
}

// Ordered returns the entries in canonical insertion order. Callers must
// not mutate the returned slice.
func (m *Map[T]) Ordered() []Entry[T] {
	if m == nil {
		return nil
	}
	return m.entries
}

// ValidateAgainst reports whether a tracker state recorded against a
// previous version of this map is still satisfied by the map's current
// contents. This lets code outside the engine package (the scheduler)
// decide fine-edge validity without knowing T: any *Map[T] satisfies the
// validatable interface scheduler code type-asserts against.
func (m *Map[T]) ValidateAgainst(old *TrackerState) bool {
	return TrackerValid(old, m)
}

// Keys returns the ordered key list.
func (m *Map[T]) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}
