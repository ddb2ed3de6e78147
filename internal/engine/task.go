package engine

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/bmatcuk/doublestar/v4"
)

// Pair is the key/value shape a Scatter callback produces before the
// engine wraps it into a Map (spec.md §4.1 "Scatter").
type Pair[R any] struct {
	Key   string
	Value R
}

// trackable is implemented by *Tracker[T]; collectTracker uses it to pull
// the per-edge access record out of a resolved fine dependency without
// the task kinds needing to know T.
type trackable interface{ State() *TrackerState }

func collectTracker(out map[int]*TrackerState, edge int, resolved any) {
	if t, ok := resolved.(trackable); ok {
		out[edge] = t.State()
	}
}

func marshalProvenance(key string, v any) (Provenance, error) {
	enc, err := json.Marshal(v)
	if err != nil {
		return Provenance{}, fmt.Errorf("engine: marshal value for key %q: %w", key, err)
	}
	return ComputeProvenance(enc), nil
}

// --- Gather: zero, one, or two coarse/fine dependencies -> a single value.

type gatherTask0[R any] struct {
	fn func(ctx *ExecContext) (R, error)
}

func (t *gatherTask0[R]) Dependencies() []NodeID    { return nil }
func (t *gatherTask0[R]) OutputType() reflect.Type  { return reflect.TypeOf((*R)(nil)).Elem() }
func (t *gatherTask0[R]) WatchPatterns() []string   { return nil }
func (t *gatherTask0[R]) IsDirty(path string) bool  { return false }
func (t *gatherTask0[R]) Run(ctx *ExecContext, resolved []any) (any, map[int]*TrackerState, error) {
	out, err := t.fn(ctx)
	return out, map[int]*TrackerState{}, err
}

type gatherTask1[A, R any] struct {
	dep Dependency[A]
	fn  func(ctx *ExecContext, a A) (R, error)
}

func (t *gatherTask1[A, R]) Dependencies() []NodeID   { return []NodeID{t.dep.NodeID()} }
func (t *gatherTask1[A, R]) OutputType() reflect.Type { return reflect.TypeOf((*R)(nil)).Elem() }
func (t *gatherTask1[A, R]) WatchPatterns() []string  { return nil }
func (t *gatherTask1[A, R]) IsDirty(path string) bool { return false }
func (t *gatherTask1[A, R]) Run(ctx *ExecContext, resolved []any) (any, map[int]*TrackerState, error) {
	a, err := t.dep.Resolve(resolved[0])
	if err != nil {
		return nil, nil, err
	}
	trackers := map[int]*TrackerState{}
	collectTracker(trackers, 0, a)
	out, err := t.fn(ctx, a)
	return out, trackers, err
}

type gatherTask2[A, B, R any] struct {
	depA Dependency[A]
	depB Dependency[B]
	fn   func(ctx *ExecContext, a A, b B) (R, error)
}

func (t *gatherTask2[A, B, R]) Dependencies() []NodeID {
	return []NodeID{t.depA.NodeID(), t.depB.NodeID()}
}
func (t *gatherTask2[A, B, R]) OutputType() reflect.Type { return reflect.TypeOf((*R)(nil)).Elem() }
func (t *gatherTask2[A, B, R]) WatchPatterns() []string  { return nil }
func (t *gatherTask2[A, B, R]) IsDirty(path string) bool { return false }
func (t *gatherTask2[A, B, R]) Run(ctx *ExecContext, resolved []any) (any, map[int]*TrackerState, error) {
	a, err := t.depA.Resolve(resolved[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := t.depB.Resolve(resolved[1])
	if err != nil {
		return nil, nil, err
	}
	trackers := map[int]*TrackerState{}
	collectTracker(trackers, 0, a)
	collectTracker(trackers, 1, b)
	out, err := t.fn(ctx, a, b)
	return out, trackers, err
}

// --- Scatter: a coarse fan-out producing a fresh keyed Map.

type scatterTask0[R any] struct {
	fn func(ctx *ExecContext) ([]Pair[R], error)
}

func (t *scatterTask0[R]) Dependencies() []NodeID   { return nil }
func (t *scatterTask0[R]) OutputType() reflect.Type { return reflect.TypeOf((*Map[R])(nil)) }
func (t *scatterTask0[R]) WatchPatterns() []string  { return nil }
func (t *scatterTask0[R]) IsDirty(path string) bool { return false }
func (t *scatterTask0[R]) Run(ctx *ExecContext, resolved []any) (any, map[int]*TrackerState, error) {
	pairs, err := t.fn(ctx)
	if err != nil {
		return nil, nil, err
	}
	m, err := buildScatteredMap(pairs)
	return m, map[int]*TrackerState{}, err
}

type scatterTask1[A, R any] struct {
	dep Dependency[A]
	fn  func(ctx *ExecContext, a A) ([]Pair[R], error)
}

func (t *scatterTask1[A, R]) Dependencies() []NodeID   { return []NodeID{t.dep.NodeID()} }
func (t *scatterTask1[A, R]) OutputType() reflect.Type { return reflect.TypeOf((*Map[R])(nil)) }
func (t *scatterTask1[A, R]) WatchPatterns() []string  { return nil }
func (t *scatterTask1[A, R]) IsDirty(path string) bool { return false }
func (t *scatterTask1[A, R]) Run(ctx *ExecContext, resolved []any) (any, map[int]*TrackerState, error) {
	a, err := t.dep.Resolve(resolved[0])
	if err != nil {
		return nil, nil, err
	}
	trackers := map[int]*TrackerState{}
	collectTracker(trackers, 0, a)
	pairs, err := t.fn(ctx, a)
	if err != nil {
		return nil, trackers, err
	}
	m, err := buildScatteredMap(pairs)
	return m, trackers, err
}

func buildScatteredMap[R any](pairs []Pair[R]) (*Map[R], error) {
	entries := make([]Entry[R], 0, len(pairs))
	for _, p := range pairs {
		prov, err := marshalProvenance(p.Key, p.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry[R]{Key: p.Key, Value: p.Value, Provenance: prov})
	}
	return NewMap(entries)
}

// --- Map: a fine primary dependency, each entry transformed independently,
// optionally alongside one coarse or fine secondary dependency. The output
// map keeps the primary's keys and provenance unchanged (spec.md §4.1
// "Map ... produces a map which preserves keys and carries forward
// provenance from the primary"), so a transform that is a pure function of
// the primary's value never needs to be rerun just because the runtime
// happened to revisit it.

type mapTask0[T, R any] struct {
	primary Many[T]
	fn      func(ctx *ExecContext, key string, value T) (R, error)
}

func (t *mapTask0[T, R]) Dependencies() []NodeID   { return []NodeID{t.primary.NodeID()} }
func (t *mapTask0[T, R]) OutputType() reflect.Type { return reflect.TypeOf((*Map[R])(nil)) }
func (t *mapTask0[T, R]) WatchPatterns() []string  { return nil }
func (t *mapTask0[T, R]) IsDirty(path string) bool { return false }
func (t *mapTask0[T, R]) Run(ctx *ExecContext, resolved []any) (any, map[int]*TrackerState, error) {
	src, ok := resolved[0].(*Map[T])
	if !ok {
		return nil, nil, &ResolutionError{Node: t.primary.NodeID(), Expected: reflect.TypeOf((*Map[T])(nil)), Got: reflect.TypeOf(resolved[0])}
	}
	entries := make([]Entry[R], 0, src.Len())
	for _, e := range src.Ordered() {
		v, err := t.fn(ctx, e.Key, e.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("engine: map entry %q: %w", e.Key, err)
		}
		entries = append(entries, Entry[R]{Key: e.Key, Value: v, Provenance: e.Provenance})
	}
	out, err := NewMap(entries)
	return out, map[int]*TrackerState{}, err
}

type mapTask1[T, D, R any] struct {
	primary   Many[T]
	secondary Dependency[D]
	fn        func(ctx *ExecContext, key string, value T, secondary D) (R, error)
}

func (t *mapTask1[T, D, R]) Dependencies() []NodeID {
	return []NodeID{t.primary.NodeID(), t.secondary.NodeID()}
}
func (t *mapTask1[T, D, R]) OutputType() reflect.Type { return reflect.TypeOf((*Map[R])(nil)) }
func (t *mapTask1[T, D, R]) WatchPatterns() []string  { return nil }
func (t *mapTask1[T, D, R]) IsDirty(path string) bool { return false }
func (t *mapTask1[T, D, R]) Run(ctx *ExecContext, resolved []any) (any, map[int]*TrackerState, error) {
	src, ok := resolved[0].(*Map[T])
	if !ok {
		return nil, nil, &ResolutionError{Node: t.primary.NodeID(), Expected: reflect.TypeOf((*Map[T])(nil)), Got: reflect.TypeOf(resolved[0])}
	}
	secondary, err := t.secondary.Resolve(resolved[1])
	if err != nil {
		return nil, nil, err
	}
	trackers := map[int]*TrackerState{}
	collectTracker(trackers, 1, secondary)

	entries := make([]Entry[R], 0, src.Len())
	for _, e := range src.Ordered() {
		v, err := t.fn(ctx, e.Key, e.Value, secondary)
		if err != nil {
			return nil, trackers, fmt.Errorf("engine: map entry %q: %w", e.Key, err)
		}
		entries = append(entries, Entry[R]{Key: e.Key, Value: v, Provenance: e.Provenance})
	}
	out, err := NewMap(entries)
	return out, trackers, err
}

// --- Glob: a leaf task enumerating filesystem paths matching patterns and
// loading each one into a keyed Map, the only task kind that originates
// filesystem dirtiness for the watcher (spec.md §5 "Watch mode").

// GlobSource reads the file set a Glob task scans. internal/store's
// filesystem walker implements this; tests can substitute an in-memory
// fake without touching disk.
type GlobSource interface {
	// Match lists, in deterministic order, every path under the source
	// matching pattern.
	Match(pattern string) ([]string, error)
	// Read returns a path's current contents.
	Read(path string) ([]byte, error)
}

type globTask[R any] struct {
	patterns []string
	source   GlobSource
	fn       func(ctx *ExecContext, path string, data []byte) (R, error)
}

func (t *globTask[R]) Dependencies() []NodeID   { return nil }
func (t *globTask[R]) OutputType() reflect.Type { return reflect.TypeOf((*Map[R])(nil)) }
func (t *globTask[R]) WatchPatterns() []string  { return append([]string(nil), t.patterns...) }
func (t *globTask[R]) IsDirty(path string) bool {
	for _, pattern := range t.patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

func (t *globTask[R]) Run(ctx *ExecContext, resolved []any) (any, map[int]*TrackerState, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range t.patterns {
		matches, err := t.source.Match(pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("engine: glob %q: %w", pattern, err)
		}
		for _, p := range matches {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}

	entries := make([]Entry[R], 0, len(paths))
	for _, p := range paths {
		data, err := t.source.Read(p)
		if err != nil {
			return nil, nil, fmt.Errorf("engine: glob read %q: %w", p, err)
		}
		v, err := t.fn(ctx, p, data)
		if err != nil {
			return nil, nil, fmt.Errorf("engine: glob entry %q: %w", p, err)
		}
		entries = append(entries, Entry[R]{Key: p, Value: v, Provenance: ComputeProvenance(data)})
	}
	out, err := NewMap(entries)
	return out, map[int]*TrackerState{}, err
}
