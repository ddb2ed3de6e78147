package cli

import (
	"github.com/loomweave/loom/internal/blueprint"
	"github.com/loomweave/loom/internal/config"
	"github.com/loomweave/loom/internal/loader"
	"github.com/loomweave/loom/internal/store"
)

// defaultBlueprint wires the reference loaders (internal/loader) over
// cfg.PublicDir into a runnable blueprint, following the
// content/+static/ convention common to static-site generators:
// everything under "content/" is rendered through the
// Markdown+frontmatter loader, everything under "static/" is copied
// through verbatim. Both outputs are marked so the finaliser drains
// them to cfg.DistDir.
//
// A real site would register its own blueprint instead of this one;
// this wiring exists only so `loom build`/`loom watch` are runnable
// without any author-supplied Go code.
func defaultBlueprint(cfg config.Config) *blueprint.Blueprint {
	source := store.NewFilesystemSource(cfg.PublicDir)
	b := blueprint.New()

	pages := loader.Markdown(b, "pages", source, []string{"content/**/*.md"})
	blueprint.MarkOutput(b, pages)

	assets := loader.Copy(b, "assets", source, []string{"static/**/*"})
	blueprint.MarkOutput(b, assets)

	return b
}
