package store

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// FilesystemSource implements engine.GlobSource by walking a root
// directory with doublestar, which (unlike path.Match) understands "**"
// for recursive matching — the form every Glob task pattern in practice
// uses (e.g. "content/**/*.md").
type FilesystemSource struct {
	Root string
}

// NewFilesystemSource returns a source rooted at root. Patterns passed to
// Match are relative to root; the paths it returns are relative as well,
// matching the keys a Glob task's output map uses.
func NewFilesystemSource(root string) *FilesystemSource {
	return &FilesystemSource{Root: root}
}

// Match lists, in deterministic (lexical) order, every path under Root
// matching pattern.
func (s *FilesystemSource) Match(pattern string) ([]string, error) {
	fsys := os.DirFS(s.Root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Read returns the contents of the file at path, relative to Root.
func (s *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Root, path))
}
