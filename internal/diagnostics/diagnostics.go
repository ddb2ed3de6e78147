// Package diagnostics records per-node execution timing and renders it
// as a colour-graded dependency diagram and a waterfall SVG
// (spec.md §4.8 "Diagnostics").
//
// Unlike the teacher's internal/trace package, which deliberately
// excludes timestamps to keep its canonical trace byte-stable, these
// records exist specifically to carry wall-clock timing for human
// inspection and are never hashed or compared for equality.
package diagnostics

import (
	"sort"
	"sync"
	"time"

	"github.com/loomweave/loom/internal/engine"
)

// Record is one node's execution timing, or its cache-skip status.
type Record struct {
	Node     engine.NodeID
	Name     string
	Start    time.Time
	Duration time.Duration
	Skipped  bool
	Failed   bool
}

// Recorder collects Records as the scheduler runs and implements
// scheduler.Observer.
type Recorder struct {
	mu      sync.Mutex
	starts  map[engine.NodeID]time.Time
	records []Record
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{starts: make(map[engine.NodeID]time.Time)}
}

// NodeStarted implements scheduler.Observer.
func (r *Recorder) NodeStarted(id engine.NodeID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts[id] = time.Now()
}

// NodeFinished implements scheduler.Observer.
func (r *Recorder) NodeFinished(id engine.NodeID, name string, skipped bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start, ok := r.starts[id]
	rec := Record{Node: id, Name: name, Skipped: skipped, Failed: err != nil}
	if ok && !skipped {
		rec.Start = start
		rec.Duration = time.Since(start)
	}
	r.records = append(r.records, rec)
}

// Snapshot returns a point-in-time copy of the recorded Records.
func (r *Recorder) Snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// ByNode indexes a Snapshot by node ID, for renderers that need to
// look a node's timing up while walking the graph in node order.
func ByNode(records []Record) map[engine.NodeID]Record {
	out := make(map[engine.NodeID]Record, len(records))
	for _, rec := range records {
		out[rec.Node] = rec
	}
	return out
}

// sorted returns records ordered by start time, skipped (cached) entries
// last, ties broken by node ID for determinism.
func sorted(records []Record) []Record {
	out := append([]Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Skipped != b.Skipped {
			return !a.Skipped
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Node < b.Node
	})
	return out
}
