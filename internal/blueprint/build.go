package blueprint

import (
	"github.com/loomweave/loom/internal/graph"
)

// Build validates every registered node and its declared dependency edges
// and freezes them into an immutable graph.Graph. Called exactly once,
// after every task has been registered.
func (b *Blueprint) Build() (*graph.Graph, error) {
	return graph.Build(b.Nodes())
}
