package engine

import "reflect"

// NodeID indexes a node within a graph.Graph. The engine package never
// constructs a graph itself; blueprint.Blueprint hands out NodeIDs as it
// registers tasks and wraps them in handles.
type NodeID int

// Handle is the type-erased view of a dependency edge shared by every
// handle kind. Callbacks never see this interface directly — they receive
// One[T] or Many[T] — but the graph and scheduler use it to read the
// underlying node index without caring which kind it is.
type Handle interface {
	NodeID() NodeID
	outputType() reflect.Type
}

// Dependency is satisfied by any handle that can resolve a node's opaque
// output into the statically-typed view A a callback expects. One[T]
// implements Dependency[T]; Many[T] implements Dependency[*Tracker[T]].
type Dependency[A any] interface {
	Handle
	Resolve(raw any) (A, error)
}

// One is a coarse handle (spec.md §3 "Handle"): an all-or-nothing
// dependency on a node producing a single value of type T.
type One[T any] struct{ id NodeID }

// NewOne wraps a node index as a coarse handle to T. Called only by
// blueprint during registration.
func NewOne[T any](id NodeID) One[T] { return One[T]{id: id} }

func (h One[T]) NodeID() NodeID { return h.id }

func (h One[T]) outputType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve downcasts a node's opaque output into T. Per spec.md §4.2 a
// failure here indicates the runtime has been corrupted: handle types
// thread through registration, so ordinary user code cannot construct a
// mismatch.
func (h One[T]) Resolve(raw any) (T, error) {
	v, ok := raw.(T)
	if !ok {
		var zero T
		return zero, &ResolutionError{Node: h.id, Expected: h.outputType(), Got: reflect.TypeOf(raw)}
	}
	return v, nil
}

// Many is a fine handle (spec.md §3 "Handle"): a dependency on a node
// producing a keyed collection of T, tracked at the granularity of the
// individual keys a consumer actually reads.
type Many[T any] struct{ id NodeID }

// NewMany wraps a node index as a fine handle to T.
func NewMany[T any](id NodeID) Many[T] { return Many[T]{id: id} }

func (h Many[T]) NodeID() NodeID { return h.id }

func (h Many[T]) outputType() reflect.Type {
	return reflect.TypeOf((*Map[T])(nil))
}

// Resolve downcasts a node's opaque output into a fresh Tracker wrapping
// the producer's Map. Each call returns a new Tracker so that two
// consumers of the same fine dependency never share access state.
func (h Many[T]) Resolve(raw any) (*Tracker[T], error) {
	m, ok := raw.(*Map[T])
	if !ok {
		return nil, &ResolutionError{Node: h.id, Expected: reflect.TypeOf((*Map[T])(nil)), Got: reflect.TypeOf(raw)}
	}
	return NewTracker(m), nil
}
