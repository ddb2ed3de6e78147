package engine

// TrackerValid implements the per-edge validity check of spec.md §4.3.
//
// Given the TrackerState recorded the last time the consumer ran against a
// fine dependency, and the producer's current Map, it reports whether the
// consumer's prior reads are still satisfied:
//
//  1. Every key the consumer point-looked-up must still exist with the
//     same provenance.
//  2. If the consumer iterated the whole map, walking the new map's
//     ordered iterator for the first Count steps must yield only keys in
//     Accessed; if the consumer exhausted the iterator, there must be no
//     key beyond that prefix.
//  3. The same rule applies per-pattern for glob iterations, over the
//     pattern-filtered ordered iterator.
//
// TrackerValid does not itself decide whether the producer re-ran; callers
// combine this with the "producer in updated set" check per §4.3's final
// rule before deciding to skip a node.
func TrackerValid[T any](old *TrackerState, current *Map[T]) bool {
	if old == nil {
		return false
	}

	for key, prov := range old.Accessed {
		entry, ok := current.Lookup(key)
		if !ok || entry.Provenance != prov {
			return false
		}
	}

	if old.Iterated.Count > 0 {
		if !prefixValid(old.Accessed, old.Iterated, current.Ordered()) {
			return false
		}
	}

	for pattern, state := range old.Globs {
		if state.Count == 0 && !state.Exhausted {
			continue
		}
		filtered := make([]Entry[T], 0, len(current.Ordered()))
		for _, e := range current.Ordered() {
			matched, err := globMatch(pattern, e.Key)
			if err != nil || !matched {
				continue
			}
			filtered = append(filtered, e)
		}
		if !prefixValid(old.Accessed, state, filtered) {
			return false
		}
	}

	return true
}

// prefixValid checks that walking entries for state.Count steps touches
// only previously-accessed keys, and that exhaustion implies no further
// entries beyond that prefix.
func prefixValid[T any](accessed map[string]Provenance, state IterationState, entries []Entry[T]) bool {
	if state.Count > len(entries) {
		// Fewer keys now than the consumer actually walked before: the
		// prefix it consumed can no longer be reproduced identically.
		return false
	}
	for i := 0; i < state.Count; i++ {
		if _, ok := accessed[entries[i].Key]; !ok {
			return false
		}
	}
	if state.Exhausted && len(entries) > state.Count {
		return false
	}
	return true
}

// EdgeIsLive reports whether a fine dependency edge must trigger a rerun
// per the invariant in spec.md §3: "if the tracker state for that edge is
// absent and the producer re-ran in the current run, the consumer MUST
// re-run."
func EdgeIsLive(state *TrackerState, producerUpdated bool) bool {
	return state == nil && producerUpdated
}
