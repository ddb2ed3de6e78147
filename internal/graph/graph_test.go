package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomweave/loom/internal/engine"
)

// fakeTask is a minimal engine.TaskKind for exercising graph construction
// without going through blueprint.
type fakeTask struct {
	deps []engine.NodeID
}

func (f fakeTask) Dependencies() []engine.NodeID { return f.deps }
func (f fakeTask) OutputType() reflect.Type      { return reflect.TypeOf(0) }
func (f fakeTask) Run(ctx *engine.ExecContext, resolved []any) (any, map[int]*engine.TrackerState, error) {
	return nil, nil, nil
}
func (f fakeTask) WatchPatterns() []string  { return nil }
func (f fakeTask) IsDirty(path string) bool { return false }

func node(id int, name string, deps ...int) engine.Node {
	nodeDeps := make([]engine.NodeID, len(deps))
	for i, d := range deps {
		nodeDeps[i] = engine.NodeID(d)
	}
	return engine.Node{ID: engine.NodeID(id), Name: name, Task: fakeTask{deps: nodeDeps}}
}

func TestBuild_RejectsEmptyGraph(t *testing.T) {
	_, err := Build(nil)
	assert.Error(t, err)
}

func TestBuild_RejectsOutOfRangeDependency(t *testing.T) {
	_, err := Build([]engine.Node{node(0, "a", 5)})
	assert.Error(t, err)
}

func TestBuild_RejectsSelfLoop(t *testing.T) {
	_, err := Build([]engine.Node{node(0, "a", 0)})
	assert.Error(t, err)
}

func TestBuild_RejectsDuplicateEdge(t *testing.T) {
	nodes := []engine.Node{
		node(0, "a"),
		{ID: 1, Name: "b", Task: fakeTask{deps: []engine.NodeID{0, 0}}},
	}
	_, err := Build(nodes)
	assert.Error(t, err)
}

func TestBuild_RejectsCycle(t *testing.T) {
	nodes := []engine.Node{
		node(0, "a", 1),
		node(1, "b", 0),
	}
	_, err := Build(nodes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycleFound))
}

func TestBuild_DiamondDependency(t *testing.T) {
	// a -> b, a -> c, b -> d, c -> d
	nodes := []engine.Node{
		node(0, "a"),
		node(1, "b", 0),
		node(2, "c", 0),
		node(3, "d", 1, 2),
	}
	g, err := Build(nodes)
	require.NoError(t, err)

	assert.Equal(t, 0, g.Depth(0))
	assert.Equal(t, 1, g.Depth(1))
	assert.Equal(t, 1, g.Depth(2))
	assert.Equal(t, 2, g.Depth(3))
	assert.Equal(t, 2, g.MaxDepth())

	stages := g.StagesByDepth()
	require.Len(t, stages, 3)
	assert.ElementsMatch(t, []engine.NodeID{1, 2}, stages[1])
	assert.Equal(t, []engine.NodeID{3}, stages[2])

	assert.ElementsMatch(t, []engine.NodeID{1, 2}, g.Dependents(0))
}

func TestBuild_HashIsDeterministicForEquivalentGraphs(t *testing.T) {
	build := func() *Graph {
		nodes := []engine.Node{node(0, "a"), node(1, "b", 0)}
		g, err := Build(nodes)
		require.NoError(t, err)
		return g
	}

	g1 := build()
	g2 := build()
	assert.Equal(t, g1.Hash(), g2.Hash())
	assert.NotEmpty(t, g1.Hash().String())
}

func TestBuild_HashDiffersWhenEdgesDiffer(t *testing.T) {
	g1, err := Build([]engine.Node{node(0, "a"), node(1, "b", 0)})
	require.NoError(t, err)
	g2, err := Build([]engine.Node{node(0, "a"), node(1, "b")})
	require.NoError(t, err)
	assert.NotEqual(t, g1.Hash(), g2.Hash())
}
