package engine

// IterationState records how far a tracker-wrapped iteration walked a map
// and whether it ran to completion.
//
// From spec.md §4.3: "Tracker counts + exhaustion flag capture 'ordered
// prefix I actually consumed'."
type IterationState struct {
	Count     int
	Exhausted bool
}

// TrackerState is the frozen record of how a task read a single fine
// dependency during one execution. It is computed once, after the task
// returns, from the live Tracker view handed to the task while it ran.
//
// A TrackerState is absent (nil) for coarse handles and for a Map task's
// primary dependency. A fine handle that a task resolved but never read
// still gets a TrackerState, with no accesses recorded.
type TrackerState struct {
	Accessed map[string]Provenance
	Iterated IterationState
	Globs    map[string]IterationState
}

func newTrackerState() *TrackerState {
	return &TrackerState{Accessed: make(map[string]Provenance)}
}

// Tracker is the live wrapper handed to a running task for a fine handle.
// It exposes the three access modes described in spec.md §4.3 and records
// every read into the state that will be frozen into TrackerState once the
// task completes.
type Tracker[T any] struct {
	source *Map[T]
	state  *TrackerState
}

// NewTracker wraps source in a fresh recording tracker.
func NewTracker[T any](source *Map[T]) *Tracker[T] {
	return &Tracker[T]{source: source, state: newTrackerState()}
}

// missingKeyError is returned by Get when the key is absent from the map.
type missingKeyError struct{ key string }

func (e *missingKeyError) Error() string { return "engine: missing map key: " + e.key }

// Get performs a point lookup, recording the key and its provenance.
func (t *Tracker[T]) Get(key string) (T, error) {
	var zero T
	entry, ok := t.source.Lookup(key)
	if !ok {
		return zero, &missingKeyError{key: key}
	}
	t.state.Accessed[key] = entry.Provenance
	return entry.Value, nil
}

// Values iterates the whole map in canonical order, recording each yielded
// key and bumping the iteration counter. The returned sequence is a
// snapshot; callers may break out of the loop early, in which case the
// iteration is not marked exhausted.
func (t *Tracker[T]) Values(yield func(key string, value T) bool) {
	entries := t.source.Ordered()
	for _, e := range entries {
		t.state.Accessed[e.Key] = e.Provenance
		t.state.Iterated.Count++
		if !yield(e.Key, e.Value) {
			return
		}
	}
	t.state.Iterated.Exhausted = true
}

// Glob performs a filtered iteration over keys matching pattern (using
// path.Match semantics), recording accesses under the pattern's own
// iteration counter.
func (t *Tracker[T]) Glob(pattern string, yield func(key string, value T) bool) error {
	entries := t.source.Ordered()
	if t.state.Globs == nil {
		t.state.Globs = make(map[string]IterationState)
	}
	for _, e := range entries {
		matched, err := globMatch(pattern, e.Key)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}
		t.state.Accessed[e.Key] = e.Provenance
		cur := t.state.Globs[pattern]
		cur.Count++
		t.state.Globs[pattern] = cur
		if !yield(e.Key, e.Value) {
			return nil
		}
	}
	cur := t.state.Globs[pattern]
	cur.Exhausted = true
	t.state.Globs[pattern] = cur
	return nil
}

// State returns the tracker state accumulated so far. It must only be
// called by the scheduler after the owning task has returned.
func (t *Tracker[T]) State() *TrackerState {
	return t.state
}
