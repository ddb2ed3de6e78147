package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomweave/loom/internal/blueprint"
	"github.com/loomweave/loom/internal/engine"
	"github.com/loomweave/loom/internal/trace"
)

func TestRun_TrivialGatherRunsOnceThenSkips(t *testing.T) {
	calls := 0
	b := blueprint.New()
	blueprint.Gather(b, "greeting", func(ctx *engine.ExecContext) (string, error) {
		calls++
		return "hi", nil
	})
	g, err := b.Build()
	require.NoError(t, err)

	s := New(g, nil, nil, 0, nil)

	result, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, result.Updated, 1)
	assert.Equal(t, 1, calls)

	result, err = s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Updated, "unchanged coarse dependency-free node must be skipped on the second run")
	assert.Equal(t, 1, calls)
}

func TestRun_DiamondDependency_AllNodesRunOnce(t *testing.T) {
	b := blueprint.New()
	root := blueprint.Gather(b, "root", func(ctx *engine.ExecContext) (int, error) { return 1, nil })
	left := blueprint.Gather1(b, "left", root, func(ctx *engine.ExecContext, v int) (int, error) { return v + 1, nil })
	right := blueprint.Gather1(b, "right", root, func(ctx *engine.ExecContext, v int) (int, error) { return v + 2, nil })
	blueprint.Gather2(b, "join", left, right, func(ctx *engine.ExecContext, l, r int) (int, error) { return l + r, nil })

	g, err := b.Build()
	require.NoError(t, err)
	s := New(g, nil, nil, 0, nil)

	result, err := s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, result.Updated, 4)

	joinOutput, ok := s.Output(engine.NodeID(3))
	require.True(t, ok)
	assert.Equal(t, 5, joinOutput)
}

func TestRun_FineIncrementalSkip_PointLookupUnaffectedByUnrelatedEntry(t *testing.T) {
	source := []engine.Pair[string]{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	b := blueprint.New()
	items := blueprint.Scatter(b, "items", func(ctx *engine.ExecContext) ([]engine.Pair[string], error) {
		return source, nil
	})

	consumerCalls := 0
	blueprint.Gather1(b, "consumer", items, func(ctx *engine.ExecContext, tracker *engine.Tracker[string]) (string, error) {
		consumerCalls++
		v, err := tracker.Get("a")
		return v, err
	})

	g, err := b.Build()
	require.NoError(t, err)
	s := New(g, nil, nil, 0, nil)

	_, err = s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, consumerCalls)

	// Force the scatter to rerun (as if its underlying source changed, but
	// "a" keeps the same value and provenance) by forcing it dirty; "b"
	// gains no new sibling so the consumer's point lookup stays valid.
	result, err := s.Run(context.Background(), map[engine.NodeID]bool{items.NodeID(): true})
	require.NoError(t, err)
	assert.Contains(t, result.Updated, items.NodeID())
	assert.NotContains(t, result.Updated, engine.NodeID(1), "consumer must be skipped: its only accessed key is unchanged")
	assert.Equal(t, 1, consumerCalls)
}

func TestRun_FullIterationInvalidatesOnInsertion(t *testing.T) {
	keys := []string{"a", "b"}
	b := blueprint.New()
	items := blueprint.Scatter(b, "items", func(ctx *engine.ExecContext) ([]engine.Pair[string], error) {
		pairs := make([]engine.Pair[string], len(keys))
		for i, k := range keys {
			pairs[i] = engine.Pair[string]{Key: k, Value: k}
		}
		return pairs, nil
	})

	consumerCalls := 0
	blueprint.Gather1(b, "consumer", items, func(ctx *engine.ExecContext, tracker *engine.Tracker[string]) (int, error) {
		consumerCalls++
		count := 0
		tracker.Values(func(string, string) bool {
			count++
			return true
		})
		return count, nil
	})

	g, err := b.Build()
	require.NoError(t, err)
	s := New(g, nil, nil, 0, nil)

	_, err = s.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, consumerCalls)

	keys = []string{"a", "b", "c"}
	result, err := s.Run(context.Background(), map[engine.NodeID]bool{items.NodeID(): true})
	require.NoError(t, err)
	assert.Contains(t, result.Updated, engine.NodeID(1), "a new key must invalidate a consumer that exhaustively iterated")
	assert.Equal(t, 2, consumerCalls)
}

func TestRun_PropagatesTaskErrorWithNodeContext(t *testing.T) {
	b := blueprint.New()
	blueprint.Gather(b, "failing", func(ctx *engine.ExecContext) (int, error) {
		return 0, assert.AnError
	})
	g, err := b.Build()
	require.NoError(t, err)
	s := New(g, nil, nil, 0, nil)

	_, err = s.Run(context.Background(), nil)
	require.Error(t, err)

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "failing", taskErr.Name)
}

func TestRun_TraceHashIsStableAcrossEquivalentRuns(t *testing.T) {
	build := func() (*Scheduler, *trace.Recorder) {
		b := blueprint.New()
		root := blueprint.Gather(b, "root", func(ctx *engine.ExecContext) (int, error) { return 1, nil })
		blueprint.Gather1(b, "derived", root, func(ctx *engine.ExecContext, v int) (int, error) { return v + 1, nil })
		g, err := b.Build()
		require.NoError(t, err)

		recorder := trace.NewRecorder()
		s := New(g, nil, nil, 0, nil)
		s.SetTrace(recorder)
		return s, recorder
	}

	s1, r1 := build()
	_, err := s1.Run(context.Background(), nil)
	require.NoError(t, err)
	hash1, err := r1.Trace("graph-hash").Hash()
	require.NoError(t, err)

	s2, r2 := build()
	_, err = s2.Run(context.Background(), nil)
	require.NoError(t, err)
	hash2, err := r2.Trace("graph-hash").Hash()
	require.NoError(t, err)

	assert.Equal(t, hash1, hash2, "two fresh builds over an unchanged graph must reach identical decisions")

	// A second run against s1, with nothing forced dirty, skips both nodes
	// instead of executing them: the decision stream - and therefore the
	// hash - must differ from the first run's.
	_, err = s1.Run(context.Background(), nil)
	require.NoError(t, err)
	hash3, err := r1.Trace("graph-hash").Hash()
	require.NoError(t, err)
	assert.NotEqual(t, hash1, hash3)
}
