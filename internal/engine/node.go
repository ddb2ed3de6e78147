package engine

import (
	"context"
	"reflect"
)

// ContentStore is the minimal collaborator a task needs to stage bytes
// into the content-addressed store (spec.md §2 "Content store") and get
// back the URL other tasks can embed. internal/store provides the
// concrete implementation; the engine only depends on this interface so
// that task callbacks never import the store package directly.
type ContentStore interface {
	Put(data []byte, ext string) (url string, err error)
}

// ExecContext is threaded through every running task.
type ExecContext struct {
	Ctx       context.Context
	Env       *Environment
	Store     ContentStore
	ImportMap *ImportMap
}

// TaskKind is the closed, type-erased interface every one of the four
// task variants (Gather, Scatter, Map, Glob) implements. A blueprint
// registers a typed callback and gets back a typed handle; internally the
// registration wraps the callback in one of these implementors so the
// graph and scheduler can treat every node uniformly (spec.md §4.1
// "Dynamic dispatch across four task kinds").
type TaskKind interface {
	// Dependencies lists the node indices this task declares as coarse or
	// fine inputs, in registration order. The graph uses this to add
	// edges; it is fixed at registration time and never changes per run.
	Dependencies() []NodeID

	// OutputType reports the runtime type identity of values this task
	// produces, used defensively by handles resolving this node.
	OutputType() reflect.Type

	// Run executes the task's callback against already-resolved
	// dependency views, producing the node's new opaque output plus the
	// per-edge tracker states recorded against each fine dependency
	// during the run (empty for edges that were never touched).
	Run(ctx *ExecContext, resolved []any) (output any, trackers map[int]*TrackerState, err error)

	// WatchPatterns returns the glob patterns a leaf Glob task watches,
	// or nil for every other kind — only Glob nodes originate
	// filesystem dirtiness (spec.md §5 "Watch mode").
	WatchPatterns() []string

	// IsDirty reports whether a changed filesystem path invalidates this
	// node directly. Only Glob nodes ever return true; dirtiness of every
	// other node is purely a consequence of forward reachability from a
	// dirty leaf (spec.md §3 "is_dirty predicate").
	IsDirty(path string) bool
}

// Node is one registered unit of work in the graph: a name for
// diagnostics, the task kind that runs it, and whether its output
// participates in finalisation (spec.md §3 "is-output marker"). The
// marker is an explicit flag set at registration rather than inferred
// from the output's runtime shape, resolving spec.md's open question in
// favor of the simpler, more predictable rule.
type Node struct {
	ID       NodeID
	Name     string
	Task     TaskKind
	IsOutput bool
}
