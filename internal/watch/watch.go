// Package watch drives repeated incremental rebuilds in response to
// filesystem changes under a content root (spec.md §5 "Watch mode").
//
// The debounced fsnotify loop is adapted from the AleutianLocal file
// watcher's channel-based batching, rewritten around this module's own
// root-collapsing and forward-reachability rules rather than its
// generic FileChange/FileOp model.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loomweave/loom/internal/engine"
	"github.com/loomweave/loom/internal/graph"
	"github.com/loomweave/loom/internal/logging"
	"github.com/loomweave/loom/internal/scheduler"
)

// RebuildFunc is invoked after every debounced rebuild with the set of
// nodes that actually reran, so the caller can drain artifacts and
// broadcast a live-reload notification.
type RebuildFunc func(updated map[engine.NodeID]bool)

// Watcher watches root for changes and incrementally rebuilds g via sched.
type Watcher struct {
	root     string
	g        *graph.Graph
	sched    *scheduler.Scheduler
	log      *logging.Logger
	debounce time.Duration
	onBuild  RebuildFunc

	fsw  *fsnotify.Watcher
	done chan struct{}
	stop sync.Once
}

// New returns a Watcher. The caller is expected to have already run one
// full build via sched before calling Run, so the first change triggers
// an incremental rebuild rather than a redundant full one.
func New(root string, g *graph.Graph, sched *scheduler.Scheduler, log *logging.Logger, onBuild RebuildFunc) *Watcher {
	return &Watcher{
		root:     root,
		g:        g,
		sched:    sched,
		log:      log,
		debounce: 100 * time.Millisecond,
		onBuild:  onBuild,
		done:     make(chan struct{}),
	}
}

// Run blocks, watching for filesystem changes and triggering incremental
// rebuilds, until ctx is cancelled or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	defer fsw.Close()

	for _, dir := range w.watchRoots() {
		if err := addRecursive(fsw, dir); err != nil {
			w.log.Warn("watch: failed to add directory", "dir", dir, "error", err)
		}
	}

	changes := make(chan string, 256)
	go w.debounceLoop(ctx, changes)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := filepathIsDir(event.Name); err == nil && info {
					_ = fsw.Add(event.Name)
				}
			}
			rel, err := filepath.Rel(w.root, event.Name)
			if err != nil {
				continue
			}
			select {
			case changes <- filepath.ToSlash(rel):
			default:
				w.log.Warn("watch: change buffer full, dropping event", "path", rel)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// Stop ends a running Run call.
func (w *Watcher) Stop() {
	w.stop.Do(func() { close(w.done) })
}

func (w *Watcher) debounceLoop(ctx context.Context, changes <-chan string) {
	batch := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) == 0 {
			return
		}
		paths := make([]string, 0, len(batch))
		for p := range batch {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		w.rebuild(ctx, paths)
		batch = make(map[string]struct{})
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case p, ok := <-changes:
			if !ok {
				return
			}
			batch[p] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// rebuild computes the forward-reachability closure from every node made
// dirty by the changed paths (spec.md §5: "to_run is the set of nodes
// reachable from any explicitly dirty leaf"), reruns the graph forcing
// exactly that set, and reports the result.
func (w *Watcher) rebuild(ctx context.Context, changedPaths []string) {
	explicitlyDirty := make(map[engine.NodeID]bool)
	for _, node := range w.g.Nodes() {
		for _, p := range changedPaths {
			if node.Task.IsDirty(p) {
				explicitlyDirty[node.ID] = true
				break
			}
		}
	}
	if len(explicitlyDirty) == 0 {
		return
	}

	toRun := make(map[engine.NodeID]bool, len(explicitlyDirty))
	var visit func(id engine.NodeID)
	visit = func(id engine.NodeID) {
		if toRun[id] {
			return
		}
		toRun[id] = true
		for _, dep := range w.g.Dependents(id) {
			visit(dep)
		}
	}
	for id := range explicitlyDirty {
		visit(id)
	}

	w.log.Info("watch: rebuilding", "changed", len(changedPaths), "affected_nodes", len(toRun))
	result, err := w.sched.Run(ctx, toRun)
	if err != nil {
		w.log.Error("watch: rebuild failed", "error", err)
		return
	}
	if w.onBuild != nil {
		w.onBuild(result.Updated)
	}
}

// watchRoots derives the minimal set of directories fsnotify needs to
// watch from every Glob node's patterns, collapsing a path whose parent
// is already in the set (spec.md §5 "root-set collapsing").
func (w *Watcher) watchRoots() []string {
	var dirs []string
	for _, node := range w.g.Nodes() {
		for _, pattern := range node.Task.WatchPatterns() {
			dirs = append(dirs, globLiteralPrefixDir(pattern))
		}
	}
	return collapseRoots(dirs, w.root)
}

func globLiteralPrefixDir(pattern string) string {
	segments := strings.Split(pattern, "/")
	var literal []string
	for _, seg := range segments {
		if strings.ContainsAny(seg, "*?[{") {
			break
		}
		literal = append(literal, seg)
	}
	if len(literal) == 0 {
		return "."
	}
	return strings.Join(literal, "/")
}

func collapseRoots(relDirs []string, root string) []string {
	sorted := append([]string(nil), relDirs...)
	sort.Strings(sorted)

	var kept []string
	for _, d := range sorted {
		redundant := false
		for _, k := range kept {
			if d == k || strings.HasPrefix(d, k+"/") {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, d)
		}
	}

	out := make([]string, len(kept))
	for i, d := range kept {
		out[i] = filepath.Join(root, filepath.FromSlash(d))
	}
	return out
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func filepathIsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
