package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemSource_MatchAndRead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "posts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts", "a.md"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts", "b.txt"), []byte("world"), 0o644))

	source := NewFilesystemSource(dir)

	matches, err := source.Match("posts/*.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/a.md"}, matches)

	data, err := source.Read("posts/a.md")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFilesystemSource_DoubleStarMatchesNestedDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "b", "c.md"), []byte("x"), 0o644))

	source := NewFilesystemSource(dir)
	matches, err := source.Match("**/*.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c.md"}, matches)
}
