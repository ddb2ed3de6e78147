package engine

import (
	"path"
	"strings"
)

// Artifact is the distinguished value shape the finaliser drains to disk.
//
// Path is relative and UTF-8. Exactly one of Text or Bytes is meaningful,
// selected by IsText; this mirrors the spec.md §3 "body (UTF-8 text or
// raw bytes)" shape without needing an interface allocation per artifact.
type Artifact struct {
	Path   string
	IsText bool
	Text   string
	Bytes  []byte
}

// Body returns the artifact's payload as bytes regardless of which field
// is populated.
func (a Artifact) Body() []byte {
	if a.IsText {
		return []byte(a.Text)
	}
	return a.Bytes
}

// NormalizePath applies the artifact path normalisation rule from
// spec.md §3:
//
//   - an HTML-style path "foo/bar.html" becomes "foo/bar/index.html"
//   - "foo/index.html" is preserved as-is
//   - any other path is cleaned of "." / ".." segments and otherwise used
//     as-is (binary paths are not HTML-normalised)
//
// The function is idempotent: normalizing an already-normalized path
// returns it unchanged (spec.md §8 "path normalisation round-trip").
func NormalizePath(p string) string {
	cleaned := path.Clean("/" + p)
	cleaned = strings.TrimPrefix(cleaned, "/")

	if !strings.HasSuffix(cleaned, ".html") {
		return cleaned
	}
	if strings.HasSuffix(cleaned, "/index.html") || cleaned == "index.html" {
		return cleaned
	}

	dir := strings.TrimSuffix(cleaned, ".html")
	return dir + "/index.html"
}
