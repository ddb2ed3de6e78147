package diagnostics

import (
	"fmt"
	"strings"
	"time"

	"github.com/loomweave/loom/internal/graph"
)

// Colours for the dependency diagram's green -> yellow -> red runtime
// gradient, plus a distinct colour for nodes skipped from cache and
// for nodes that failed (spec.md §4.8).
const (
	colourCached = "#8a8a8a"
	colourFast   = "#2ecc71"
	colourMedium = "#f1c40f"
	colourSlow   = "#e74c3c"
	colourFailed = "#c0392b"
)

// gradeColour buckets rec.Duration against slowest, the longest duration observed
// in the run, so the gradient is relative to this run rather than an
// arbitrary absolute threshold.
func gradeColour(rec Record, slowest time.Duration) string {
	if rec.Failed {
		return colourFailed
	}
	if rec.Skipped {
		return colourCached
	}
	if slowest <= 0 {
		return colourFast
	}
	ratio := float64(rec.Duration) / float64(slowest)
	switch {
	case ratio < 0.33:
		return colourFast
	case ratio < 0.66:
		return colourMedium
	default:
		return colourSlow
	}
}

// DependencyDiagram renders g as a Graphviz DOT document with every
// node coloured by the timing in records: cached nodes get a distinct
// grey, executed nodes are graded green-to-red by their duration
// relative to the slowest node in the run.
func DependencyDiagram(g *graph.Graph, records []Record) string {
	byNode := ByNode(records)

	var slowest time.Duration
	for _, rec := range records {
		if !rec.Skipped && rec.Duration > slowest {
			slowest = rec.Duration
		}
	}

	var b strings.Builder
	b.WriteString("digraph loom {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [style=filled, fontname=\"monospace\"];\n")

	for _, node := range g.Nodes() {
		rec, ok := byNode[node.ID]
		colour := colourCached
		label := node.Name
		if ok {
			colour = gradeColour(rec, slowest)
			if !rec.Skipped {
				label = fmt.Sprintf("%s\\n%s", node.Name, rec.Duration)
			}
		}
		fmt.Fprintf(&b, "  n%d [label=%q, fillcolor=%q];\n", node.ID, label, colour)
	}

	for _, edge := range g.Edges() {
		fmt.Fprintf(&b, "  n%d -> n%d;\n", edge.From, edge.To)
	}

	b.WriteString("}\n")
	return b.String()
}
