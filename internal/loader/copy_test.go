package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomweave/loom/internal/blueprint"
	"github.com/loomweave/loom/internal/engine"
	"github.com/loomweave/loom/internal/scheduler"
)

type fakeSource struct{ files map[string][]byte }

func (f *fakeSource) Match(pattern string) ([]string, error) {
	var out []string
	for p := range f.files {
		out = append(out, p)
	}
	return out, nil
}
func (f *fakeSource) Read(path string) ([]byte, error) { return f.files[path], nil }

func TestCopy_ReadsFileVerbatimAsBinaryArtifact(t *testing.T) {
	source := &fakeSource{files: map[string][]byte{"img/logo.png": {0x89, 0x50, 0x4e, 0x47}}}
	b := blueprint.New()
	assets := Copy(b, "assets", source, []string{"img/*.png"})

	g, err := b.Build()
	require.NoError(t, err)
	sched := scheduler.New(g, nil, nil, 0, nil)
	_, err = sched.Run(context.Background(), nil)
	require.NoError(t, err)

	raw, ok := sched.Output(assets.NodeID())
	require.True(t, ok)
	m := raw.(*engine.Map[engine.Artifact])
	entry, ok := m.Lookup("img/logo.png")
	require.True(t, ok)
	assert.False(t, entry.Value.IsText)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, entry.Value.Bytes)
	assert.Equal(t, "img/logo.png", entry.Value.Path)
}

func TestMarkdown_RendersToNormalizedHTMLPath(t *testing.T) {
	source := &fakeSource{files: map[string][]byte{
		"posts/hello.md": []byte("# Hi\n\nBody text.\n"),
	}}
	b := blueprint.New()
	pages := Markdown(b, "pages", source, []string{"posts/*.md"})

	g, err := b.Build()
	require.NoError(t, err)
	sched := scheduler.New(g, nil, nil, 0, nil)
	_, err = sched.Run(context.Background(), nil)
	require.NoError(t, err)

	raw, ok := sched.Output(pages.NodeID())
	require.True(t, ok)
	m := raw.(*engine.Map[engine.Artifact])
	entry, ok := m.Lookup("posts/hello.md")
	require.True(t, ok)
	assert.True(t, entry.Value.IsText)
	assert.Equal(t, "posts/hello/index.html", entry.Value.Path)
	assert.Contains(t, entry.Value.Text, "<h1>Hi</h1>")
}

func TestHTMLPath_SwapsMdSuffixForHTML(t *testing.T) {
	assert.Equal(t, "a/b.html", htmlPath("a/b.md"))
	assert.Equal(t, "a/b.html", htmlPath("a/b"), "a path without an .md suffix still gets .html appended")
}
