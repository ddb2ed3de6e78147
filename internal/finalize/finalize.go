// Package finalize drains the scheduler's cache for every node marked as
// output and writes the artifacts it finds to dist/ (spec.md §2
// "Finaliser").
package finalize

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/loomweave/loom/internal/engine"
	"github.com/loomweave/loom/internal/graph"
	"github.com/loomweave/loom/internal/scheduler"
)

// Source is the subset of Scheduler the finaliser needs, kept narrow so
// tests can supply a fake cache without building a real graph run.
type Source interface {
	Graph() *graph.Graph
	Output(id engine.NodeID) (any, bool)
}

var _ Source = (*scheduler.Scheduler)(nil)

// Drain walks every output-marked node and writes whatever artifacts its
// current cached value holds to distDir, returning the set of paths
// written (relative to distDir, already normalized).
func Drain(src Source, distDir string) ([]string, error) {
	var written []string

	for _, node := range src.Graph().Nodes() {
		if !node.IsOutput {
			continue
		}
		value, ok := src.Output(node.ID)
		if !ok {
			return nil, fmt.Errorf("finalize: output node %q has no cached value", node.Name)
		}

		artifacts, err := extractArtifacts(value)
		if err != nil {
			return nil, fmt.Errorf("finalize: node %q: %w", node.Name, err)
		}
		for _, a := range artifacts {
			rel, err := writeArtifact(distDir, a)
			if err != nil {
				return nil, fmt.Errorf("finalize: node %q: %w", node.Name, err)
			}
			written = append(written, rel)
		}
	}

	return written, nil
}

// extractArtifacts recognizes the two output shapes a task can produce:
// a single engine.Artifact from a Gather node, or a keyed collection of
// them from a Scatter/Map/Glob node.
func extractArtifacts(value any) ([]engine.Artifact, error) {
	switch v := value.(type) {
	case engine.Artifact:
		return []engine.Artifact{v}, nil
	case *engine.Map[engine.Artifact]:
		entries := v.Ordered()
		out := make([]engine.Artifact, len(entries))
		for i, e := range entries {
			out[i] = e.Value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of type %T is not an artifact or a map of artifacts", value)
	}
}

func writeArtifact(distDir string, a engine.Artifact) (string, error) {
	rel := engine.NormalizePath(a.Path)
	dest := filepath.Join(distDir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	if err := writeFileAtomic(dest, a.Body(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	return rel, nil
}

// writeFileAtomic mirrors internal/store's atomic write so a crash
// mid-build never leaves a torn file in dist/.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
