// Package blueprint is the registration-time API a site author uses to
// describe the dependency graph: each call appends one node and returns a
// handle future tasks can depend on (spec.md §4 "Blueprint.Gather/Scatter/
// Map/Glob").
//
// Go has no variadic generics, so unlike the free-form dependency tuples
// of the system this module generalizes, arity is spelled out explicitly:
// Gather/Gather1/Gather2 and similar. Two explicit dependencies covers
// every case observed in practice; a node needing more composes two
// Gathers.
package blueprint

import (
	"github.com/loomweave/loom/internal/engine"
)

// Blueprint accumulates nodes during registration. It is not safe for
// concurrent use — a site's topology is defined once, on a single
// goroutine, before Build freezes it.
type Blueprint struct {
	nodes []engine.Node
}

// New returns an empty Blueprint.
func New() *Blueprint { return &Blueprint{} }

func (b *Blueprint) add(name string, task engine.TaskKind) engine.NodeID {
	id := engine.NodeID(len(b.nodes))
	b.nodes = append(b.nodes, engine.Node{ID: id, Name: name, Task: task})
	return id
}

// MarkOutput flags the node behind h so the finaliser drains its value to
// dist/ (spec.md §3 "is-output marker"). A node may be marked output
// whether or not any other node depends on it.
func MarkOutput(b *Blueprint, h engine.Handle) {
	b.nodes[h.NodeID()].IsOutput = true
}

// Nodes returns the nodes registered so far, in registration order.
func (b *Blueprint) Nodes() []engine.Node {
	out := make([]engine.Node, len(b.nodes))
	copy(out, b.nodes)
	return out
}

// Gather registers a dependency-free Gather task: it runs exactly once
// per build and produces a single coarse value.
func Gather[R any](b *Blueprint, name string, fn func(ctx *engine.ExecContext) (R, error)) engine.One[R] {
	id := b.add(name, engine.NewGather0[R](fn))
	return engine.NewOne[R](id)
}

// Gather1 registers a Gather task over one dependency, coarse or fine.
func Gather1[A, R any](b *Blueprint, name string, dep engine.Dependency[A], fn func(ctx *engine.ExecContext, a A) (R, error)) engine.One[R] {
	id := b.add(name, engine.NewGather1[A, R](dep, fn))
	return engine.NewOne[R](id)
}

// Gather2 registers a Gather task over two dependencies.
func Gather2[A, B, R any](b *Blueprint, name string, depA engine.Dependency[A], depB engine.Dependency[B], fn func(ctx *engine.ExecContext, a A, b B) (R, error)) engine.One[R] {
	id := b.add(name, engine.NewGather2[A, B, R](depA, depB, fn))
	return engine.NewOne[R](id)
}

// Scatter registers a dependency-free fan-out task: it runs once and
// produces a fresh keyed Map.
func Scatter[R any](b *Blueprint, name string, fn func(ctx *engine.ExecContext) ([]engine.Pair[R], error)) engine.Many[R] {
	id := b.add(name, engine.NewScatter0[R](fn))
	return engine.NewMany[R](id)
}

// Scatter1 registers a fan-out task over one upstream dependency.
func Scatter1[A, R any](b *Blueprint, name string, dep engine.Dependency[A], fn func(ctx *engine.ExecContext, a A) ([]engine.Pair[R], error)) engine.Many[R] {
	id := b.add(name, engine.NewScatter1[A, R](dep, fn))
	return engine.NewMany[R](id)
}

// Map registers a task that transforms each entry of a fine dependency
// independently. The output map preserves the primary's keys and
// provenance (spec.md §4.1 "Map").
func Map[T, R any](b *Blueprint, name string, primary engine.Many[T], fn func(ctx *engine.ExecContext, key string, value T) (R, error)) engine.Many[R] {
	id := b.add(name, engine.NewMap0[T, R](primary, fn))
	return engine.NewMany[R](id)
}

// MapWith registers a Map task that additionally receives one secondary
// dependency, coarse or fine, resolved once per node run and shared
// across every entry's transform.
func MapWith[T, D, R any](b *Blueprint, name string, primary engine.Many[T], secondary engine.Dependency[D], fn func(ctx *engine.ExecContext, key string, value T, secondary D) (R, error)) engine.Many[R] {
	id := b.add(name, engine.NewMap1[T, D, R](primary, secondary, fn))
	return engine.NewMany[R](id)
}

// Glob registers a leaf task scanning source for paths matching patterns
// and loading each into a keyed Map. Glob tasks are the only ones that
// originate filesystem dirtiness for the watcher.
func Glob[R any](b *Blueprint, name string, source engine.GlobSource, patterns []string, fn func(ctx *engine.ExecContext, path string, data []byte) (R, error)) engine.Many[R] {
	id := b.add(name, engine.NewGlob[R](patterns, source, fn))
	return engine.NewMany[R](id)
}
