// Package graph holds the immutable, validated dependency graph that a
// blueprint freezes into once registration finishes (spec.md §3 "Node" and
// "Edge", §4 "DAG construction").
package graph

import (
	"container/heap"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/loomweave/loom/internal/engine"
)

// Edge is an unlabelled dependency relation: To depends on From and can
// only run after From has produced a value.
type Edge struct {
	From engine.NodeID
	To   engine.NodeID
}

// Hash is the deterministic identity of a Graph's structure, derived from
// every node's output type and its sorted dependency edges. Two graphs
// built from blueprints that register the same nodes and edges in the
// same order always hash identically.
type Hash string

func (h Hash) String() string { return string(h) }

// Graph is an immutable, validated DAG over engine.Node values. A
// blueprint.Blueprint is the only producer; once built, a Graph never
// changes shape for the life of a build or watch session.
type Graph struct {
	nodes []engine.Node // indexed by engine.NodeID

	edges []Edge // canonical order: sorted (From, To)

	outgoing [][]engine.NodeID // by node index, sorted ascending
	incoming [][]engine.NodeID // by node index, sorted ascending
	indeg    []int
	depth    []int

	hash Hash
}

// Build validates nodes (already assigned sequential NodeIDs by the
// blueprint that produced them) and the edges implied by each node's
// declared dependencies, then freezes an immutable Graph.
//
// Build rejects:
//   - no nodes
//   - an edge referencing an out-of-range node index
//   - a self-loop
//   - a duplicate edge
//   - any cycle, direct or indirect
func Build(nodes []engine.Node) (*Graph, error) {
	if len(nodes) == 0 {
		return nil, invalidf("no nodes")
	}

	type edgeKey struct{ from, to int }
	seen := make(map[edgeKey]struct{})
	var mapped []Edge

	for i, n := range nodes {
		if int(n.ID) != i {
			return nil, invalidf("node %q has ID %d at position %d: nodes must be in NodeID order", n.Name, n.ID, i)
		}
		for _, dep := range n.Task.Dependencies() {
			if int(dep) < 0 || int(dep) >= len(nodes) {
				return nil, invalidf("node %q declares dependency on out-of-range node %d", n.Name, dep)
			}
			if dep == n.ID {
				return nil, invalidf("self-loop at node %q", n.Name)
			}
			key := edgeKey{from: int(dep), to: int(n.ID)}
			if _, dup := seen[key]; dup {
				return nil, invalidf("duplicate edge %d -> %d", dep, n.ID)
			}
			seen[key] = struct{}{}
			mapped = append(mapped, Edge{From: dep, To: n.ID})
		}
	}

	sort.Slice(mapped, func(i, j int) bool {
		if mapped[i].From != mapped[j].From {
			return mapped[i].From < mapped[j].From
		}
		return mapped[i].To < mapped[j].To
	})

	outgoing := make([][]engine.NodeID, len(nodes))
	incoming := make([][]engine.NodeID, len(nodes))
	indeg := make([]int, len(nodes))
	for _, e := range mapped {
		outgoing[e.From] = append(outgoing[e.From], e.To)
		incoming[e.To] = append(incoming[e.To], e.From)
		indeg[e.To]++
	}

	g := &Graph{
		nodes:    nodes,
		edges:    mapped,
		outgoing: outgoing,
		incoming: incoming,
		indeg:    indeg,
	}

	if err := g.validateAcyclic(); err != nil {
		return nil, err
	}
	g.depth = g.computeDepth()
	g.hash = g.computeHash()
	return g, nil
}

// Hash returns the graph's stable structural identity.
func (g *Graph) Hash() Hash { return g.hash }

// Node returns the node at id.
func (g *Graph) Node(id engine.NodeID) engine.Node { return g.nodes[id] }

// Nodes returns every node, indexed by NodeID.
func (g *Graph) Nodes() []engine.Node {
	out := make([]engine.Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns the dependency edges in canonical (From, To) order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Dependents returns the nodes that directly depend on id, sorted ascending.
func (g *Graph) Dependents(id engine.NodeID) []engine.NodeID {
	out := make([]engine.NodeID, len(g.outgoing[id]))
	copy(out, g.outgoing[id])
	return out
}

// Depth returns a node's logical depth: the length of the longest path
// from any root to it. The scheduler dispatches nodes stage by stage in
// ascending depth order (spec.md §5 "Parallel scheduling").
func (g *Graph) Depth(id engine.NodeID) int { return g.depth[id] }

// MaxDepth returns the deepest logical depth present in the graph.
func (g *Graph) MaxDepth() int {
	max := 0
	for _, d := range g.depth {
		if d > max {
			max = d
		}
	}
	return max
}

// StagesByDepth groups every node index by its logical depth, ascending.
func (g *Graph) StagesByDepth() [][]engine.NodeID {
	stages := make([][]engine.NodeID, g.MaxDepth()+1)
	for i := range g.nodes {
		d := g.depth[i]
		stages[d] = append(stages[d], engine.NodeID(i))
	}
	return stages
}

func (g *Graph) computeDepth() []int {
	depth := make([]int, len(g.nodes))
	order := g.topoOrderIndices()
	for _, u := range order {
		max := 0
		for _, p := range g.incoming[u] {
			if cand := depth[p] + 1; cand > max {
				max = cand
			}
		}
		depth[u] = max
	}
	return depth
}

func (g *Graph) computeHash() Hash {
	h := sha256.New()
	writeField := func(data []byte) {
		length := uint64(len(data))
		var lengthBytes [8]byte
		for i := 0; i < 8; i++ {
			lengthBytes[7-i] = byte(length >> (8 * i))
		}
		h.Write(lengthBytes[:])
		h.Write(data)
	}

	writeField([]byte{byte(len(g.nodes))})
	for _, n := range g.nodes {
		writeField([]byte(n.Task.OutputType().String()))
	}
	writeField([]byte{byte(len(g.edges))})
	for _, e := range g.edges {
		writeField([]byte{byte(e.From >> 24), byte(e.From >> 16), byte(e.From >> 8), byte(e.From)})
		writeField([]byte{byte(e.To >> 24), byte(e.To >> 16), byte(e.To >> 8), byte(e.To)})
	}

	return Hash(hex.EncodeToString(h.Sum(nil)))
}

type idMinHeap []int

func (h idMinHeap) Len() int            { return len(h) }
func (h idMinHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h idMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *idMinHeap) Push(x any)         { *h = append(*h, x.(int)) }
func (h *idMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoOrderIndices returns a deterministic topological ordering of node
// indices using Kahn's algorithm over a min-heap ready queue.
func (g *Graph) topoOrderIndices() []int {
	indeg := make([]int, len(g.indeg))
	copy(indeg, g.indeg)

	ready := &idMinHeap{}
	heap.Init(ready)
	for i, d := range indeg {
		if d == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]int, 0, len(indeg))
	for ready.Len() > 0 {
		u := heap.Pop(ready).(int)
		out = append(out, u)
		for _, v := range g.outgoing[u] {
			indeg[v]--
			if indeg[v] == 0 {
				heap.Push(ready, int(v))
			}
		}
	}
	return out
}
