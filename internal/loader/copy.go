package loader

import (
	"github.com/loomweave/loom/internal/blueprint"
	"github.com/loomweave/loom/internal/engine"
)

// Copy registers a Glob task that turns each matching file into a
// binary Artifact at its source path with its bytes unchanged, for
// passthrough assets (images, fonts, favicons) that need no
// transformation. The content store is not used.
func Copy(b *blueprint.Blueprint, name string, source engine.GlobSource, patterns []string) engine.Many[engine.Artifact] {
	return blueprint.Glob(b, name, source, patterns, func(ctx *engine.ExecContext, path string, data []byte) (engine.Artifact, error) {
		return engine.Artifact{Path: path, IsText: false, Bytes: data}, nil
	})
}

// Markdown registers a Glob task that parses each matching file as
// Markdown with optional YAML frontmatter and renders it to an HTML
// artifact at its normalised path.
func Markdown(b *blueprint.Blueprint, name string, source engine.GlobSource, patterns []string) engine.Many[engine.Artifact] {
	return blueprint.Glob(b, name, source, patterns, func(ctx *engine.ExecContext, path string, data []byte) (engine.Artifact, error) {
		doc, err := ParseMarkdown(data)
		if err != nil {
			return engine.Artifact{}, err
		}
		return engine.Artifact{
			Path:   engine.NormalizePath(htmlPath(path)),
			IsText: true,
			Text:   doc.Body,
		}, nil
	})
}

func htmlPath(sourcePath string) string {
	if len(sourcePath) > 3 && sourcePath[len(sourcePath)-3:] == ".md" {
		return sourcePath[:len(sourcePath)-3] + ".html"
	}
	return sourcePath + ".html"
}
