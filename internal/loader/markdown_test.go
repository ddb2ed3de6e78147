package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarkdown_SplitsFrontmatterAndRendersBody(t *testing.T) {
	src := "---\ntitle: Hello\ntags:\n  - go\n  - loom\n---\n# Heading\n\nA paragraph.\n"

	doc, err := ParseMarkdown([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Frontmatter["title"])
	assert.Equal(t, []any{"go", "loom"}, doc.Frontmatter["tags"])
	assert.Contains(t, doc.Body, "<h1>Heading</h1>")
	assert.Contains(t, doc.Body, "<p>A paragraph.</p>")
}

func TestParseMarkdown_NoFrontmatterYieldsEmptyMap(t *testing.T) {
	doc, err := ParseMarkdown([]byte("just a paragraph\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Frontmatter)
	assert.Contains(t, doc.Body, "<p>just a paragraph</p>")
}

func TestParseMarkdown_UnclosedDelimiterTreatsWholeFileAsBody(t *testing.T) {
	doc, err := ParseMarkdown([]byte("---\ntitle: oops\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Frontmatter)
	assert.Contains(t, doc.Body, "title: oops")
}

func TestRenderMarkdown_FencedCodeBlockIsEscapedAndUnmodified(t *testing.T) {
	out := renderMarkdown("```\nfmt.Println(\"<hi>\")\n```\n")
	assert.Contains(t, out, "<pre><code>")
	assert.Contains(t, out, "&lt;hi&gt;")
}

func TestRenderMarkdown_UnorderedAndOrderedLists(t *testing.T) {
	out := renderMarkdown("- one\n- two\n")
	assert.Contains(t, out, "<ul>")
	assert.Contains(t, out, "<li>one</li>")

	out = renderMarkdown("1. first\n2. second\n")
	assert.Contains(t, out, "<ol>")
	assert.Contains(t, out, "<li>first</li>")
}

func TestRenderInline_AppliesLinkBoldItalicAndCode(t *testing.T) {
	out := renderInline("a **bold** and *italic* and `code` and [link](https://example.com)")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
	assert.Contains(t, out, "<code>code</code>")
	assert.Contains(t, out, `<a href="https://example.com">link</a>`)
}

func TestRenderInline_EscapesHTML(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; c", renderInline("a <b> c"))
}
