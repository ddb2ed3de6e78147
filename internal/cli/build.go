package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomweave/loom/internal/diagnostics"
	"github.com/loomweave/loom/internal/finalize"
	"github.com/loomweave/loom/internal/scheduler"
	"github.com/loomweave/loom/internal/store"
	"github.com/loomweave/loom/internal/trace"
)

func newBuildCommand(flags *Flags) *cobra.Command {
	var diagramPath, waterfallPath, traceHashPath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run one full, incremental build",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger(flags)
			if err != nil {
				return err
			}

			b := defaultBlueprint(cfg)
			g, err := b.Build()
			if err != nil {
				return fmt.Errorf("loom: building graph: %w", err)
			}

			contentStore := store.New(cfg.CacheDir)
			recorder := diagnostics.NewRecorder()
			sched := scheduler.New(g, contentStore, nil, 0, recorder)

			var traceRecorder *trace.Recorder
			if traceHashPath != "" {
				traceRecorder = trace.NewRecorder()
				sched.SetTrace(traceRecorder)
			}

			log.Info("loom: build starting", "nodes", len(g.Nodes()))
			result, err := sched.Run(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("loom: build failed: %w", err)
			}

			written, err := finalize.Drain(sched, cfg.DistDir)
			if err != nil {
				return fmt.Errorf("loom: draining artifacts: %w", err)
			}
			log.Info("loom: build complete", "updated_nodes", len(result.Updated), "artifacts", len(written))

			if diagramPath != "" {
				if err := writeFile(diagramPath, diagnostics.DependencyDiagram(g, recorder.Snapshot())); err != nil {
					return fmt.Errorf("loom: writing dependency diagram: %w", err)
				}
			}
			if waterfallPath != "" {
				if err := writeFile(waterfallPath, diagnostics.Waterfall(recorder.Snapshot())); err != nil {
					return fmt.Errorf("loom: writing waterfall diagram: %w", err)
				}
			}
			if traceHashPath != "" {
				hash, err := traceRecorder.Trace(g.Hash().String()).Hash()
				if err != nil {
					return fmt.Errorf("loom: hashing execution trace: %w", err)
				}
				if err := writeFile(traceHashPath, hash+"\n"); err != nil {
					return fmt.Errorf("loom: writing trace hash: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&diagramPath, "diagram", "", "write a colour-graded dependency diagram (Graphviz DOT) to this path")
	cmd.Flags().StringVar(&waterfallPath, "waterfall", "", "write a waterfall SVG of this build's timing to this path")
	cmd.Flags().StringVar(&traceHashPath, "trace-hash", "", "write the deterministic execution-decision hash to this path, for comparing across builds")

	return cmd
}
