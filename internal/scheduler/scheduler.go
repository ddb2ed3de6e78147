// Package scheduler drives a graph.Graph to completion: it dispatches
// nodes stage by stage in ascending logical depth (spec.md §5 "Parallel
// scheduling"), deciding per node whether the cached output from a prior
// run still satisfies every dependency or whether the node must rerun.
//
// The depth-staged coordinator here is adapted from the teacher's
// RunParallel dispatch loop, modernized to use a bounded errgroup per
// stage instead of a hand-rolled worker pool.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/loomweave/loom/internal/engine"
	"github.com/loomweave/loom/internal/graph"
	"github.com/loomweave/loom/internal/trace"
)

// NodeData is the cache entry kept for a node across runs within a single
// process lifetime. Loom does not persist this across process restarts
// (spec.md §9 Non-goals): a fresh `loom build` always starts from an empty
// cache, and cross-run skipping only ever helps within one `loom watch`
// session.
type NodeData struct {
	Output    any
	Trackers  map[int]*engine.TrackerState
	ImportMap *engine.ImportMap
}

// validatable is satisfied by any *engine.Map[T]; it lets the scheduler
// tell fine dependencies (backed by a keyed map) from coarse ones without
// ever naming T.
type validatable interface {
	ValidateAgainst(old *engine.TrackerState) bool
}

// Observer receives node lifecycle events for diagnostics. Both methods
// are optional hooks; a nil Observer disables reporting.
type Observer interface {
	NodeStarted(id engine.NodeID, name string)
	NodeFinished(id engine.NodeID, name string, skipped bool, err error)
}

// TaskError wraps a failure raised by a specific node's callback.
type TaskError struct {
	Node engine.NodeID
	Name string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("node %q: %v", e.Name, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Scheduler owns the live cache of node outputs for a graph and executes
// it, either once (build) or repeatedly with different dirty sets (watch).
type Scheduler struct {
	g           *graph.Graph
	store       engine.ContentStore
	env         *engine.Environment
	concurrency int
	observer    Observer

	mu    sync.Mutex
	cache map[engine.NodeID]*NodeData

	trace trace.Sink
}

// SetTrace attaches a decision sink recording, for every node on every Run,
// which of the canonical outcomes (executed, skipped, invalidated, failed)
// it reached. Unlike Observer, these events carry no timestamps: two builds
// over an unchanged graph and unchanged inputs must replay an identical
// event sequence, so their ExecutionTrace hashes can be compared across
// runs (spec.md §5 "deterministic scheduling").
func (s *Scheduler) SetTrace(sink trace.Sink) { s.trace = sink }

// New returns a Scheduler over g. concurrency <= 0 defaults to
// runtime.NumCPU().
func New(g *graph.Graph, store engine.ContentStore, env *engine.Environment, concurrency int, observer Observer) *Scheduler {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Scheduler{
		g:           g,
		store:       store,
		env:         env,
		concurrency: concurrency,
		observer:    observer,
		cache:       make(map[engine.NodeID]*NodeData, len(g.Nodes())),
	}
}

// Result reports which nodes actually ran (as opposed to being skipped as
// still valid) during a Run call.
type Result struct {
	Updated map[engine.NodeID]bool
}

// Run executes every node whose cached output no longer satisfies its
// dependencies, or whose id appears in forceDirty. On the first call
// against a fresh Scheduler every node reruns, since there is no cache
// entry yet to validate against.
func (s *Scheduler) Run(ctx context.Context, forceDirty map[engine.NodeID]bool) (*Result, error) {
	updated := make(map[engine.NodeID]bool, len(s.g.Nodes()))
	stages := s.g.StagesByDepth()

	for _, stage := range stages {
		grp, gctx := errgroup.WithContext(ctx)
		grp.SetLimit(s.concurrency)

		for _, id := range stage {
			id := id
			node := s.g.Node(id)

			s.mu.Lock()
			cached := s.cache[id]
			s.mu.Unlock()

			if s.canSkip(node, cached, forceDirty[id], updated) {
				trace.SafeRecord(s.trace, trace.TraceEvent{Kind: trace.EventTaskSkipped, TaskID: node.Name})
				if s.observer != nil {
					s.observer.NodeFinished(id, node.Name, true, nil)
				}
				continue
			}

			reason := "InputChanged"
			if cached == nil {
				reason = "NoPriorOutput"
			} else if forceDirty[id] {
				reason = "ForceDirty"
			}
			trace.SafeRecord(s.trace, trace.TraceEvent{Kind: trace.EventTaskInvalidated, TaskID: node.Name, Reason: reason})

			grp.Go(func() error {
				if s.observer != nil {
					s.observer.NodeStarted(id, node.Name)
				}
				data, err := s.runNode(gctx, node)
				if s.observer != nil {
					s.observer.NodeFinished(id, node.Name, false, err)
				}
				if err != nil {
					if errors.Is(err, engine.ErrResolutionFailed) {
						panic(err)
					}
					trace.SafeRecord(s.trace, trace.TraceEvent{Kind: trace.EventTaskFailed, TaskID: node.Name})
					return &TaskError{Node: id, Name: node.Name, Err: err}
				}
				trace.SafeRecord(s.trace, trace.TraceEvent{Kind: trace.EventTaskExecuted, TaskID: node.Name})
				s.mu.Lock()
				s.cache[id] = data
				updated[id] = true
				s.mu.Unlock()
				return nil
			})
		}

		if err := grp.Wait(); err != nil {
			return nil, err
		}
	}

	return &Result{Updated: updated}, nil
}

// Output returns the current cached output for id, if any.
func (s *Scheduler) Output(id engine.NodeID) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.cache[id]
	if !ok {
		return nil, false
	}
	return data.Output, true
}

// Graph exposes the underlying graph, primarily for the finaliser and
// diagnostics to walk node metadata.
func (s *Scheduler) Graph() *graph.Graph { return s.g }

func (s *Scheduler) runNode(ctx context.Context, node engine.Node) (*NodeData, error) {
	deps := node.Task.Dependencies()
	resolved := make([]any, len(deps))
	importMaps := make([]*engine.ImportMap, 0, len(deps))

	s.mu.Lock()
	for i, depID := range deps {
		data := s.cache[depID]
		if data == nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("scheduler: node %q ran before its dependency %d finished", node.Name, depID)
		}
		resolved[i] = data.Output
		if data.ImportMap != nil {
			importMaps = append(importMaps, data.ImportMap)
		}
	}
	s.mu.Unlock()

	execCtx := &engine.ExecContext{
		Ctx:       ctx,
		Env:       s.env,
		Store:     s.store,
		ImportMap: engine.Merge(nil, importMaps...),
	}

	var output any
	var trackers map[int]*engine.TrackerState
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("scheduler: task panicked: %v", r)
			}
		}()
		output, trackers, err = node.Task.Run(execCtx, resolved)
		return err
	}()
	if err != nil {
		return nil, err
	}
	return &NodeData{Output: output, Trackers: trackers, ImportMap: execCtx.ImportMap}, nil
}

// canSkip decides whether node's cached output remains valid against the
// current state of every dependency, per the validity rules of spec.md
// §4.3. A node with no cache entry, or explicitly marked dirty, always
// reruns.
func (s *Scheduler) canSkip(node engine.Node, cached *NodeData, forceDirty bool, updated map[engine.NodeID]bool) bool {
	if forceDirty || cached == nil {
		return false
	}
	for i, depID := range node.Task.Dependencies() {
		s.mu.Lock()
		depData := s.cache[depID]
		depUpdated := updated[depID]
		s.mu.Unlock()
		if depData == nil {
			return false
		}
		if !edgeValid(cached.Trackers[i], depData, depUpdated) {
			return false
		}
	}
	return true
}

// edgeValid implements the per-edge half of spec.md §3's tracker
// invariant: a fine edge is valid if either nothing was tracked against
// it (and the producer is unchanged), or the recorded access pattern
// still replays cleanly against the producer's current map. A coarse
// edge (the producer output does not behave as a keyed map) is
// all-or-nothing: valid only if the producer did not rerun this pass.
func edgeValid(state *engine.TrackerState, depData *NodeData, producerUpdated bool) bool {
	v, ok := depData.Output.(validatable)
	if !ok {
		return !producerUpdated
	}
	if engine.EdgeIsLive(state, producerUpdated) {
		return false
	}
	if state == nil {
		return true
	}
	return v.ValidateAgainst(state)
}
