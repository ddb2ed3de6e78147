package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/loomweave/loom/internal/devserver"
	"github.com/loomweave/loom/internal/diagnostics"
	"github.com/loomweave/loom/internal/engine"
	"github.com/loomweave/loom/internal/finalize"
	"github.com/loomweave/loom/internal/scheduler"
	"github.com/loomweave/loom/internal/store"
	"github.com/loomweave/loom/internal/watch"
)

func newWatchCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build once, then rebuild incrementally and live-reload on every change",
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

			log.Info("loom: initial build starting", "nodes", len(g.Nodes()))
			if _, err := sched.Run(cmd.Context(), nil); err != nil {
				return fmt.Errorf("loom: initial build failed: %w", err)
			}
			if _, err := finalize.Drain(sched, cfg.DistDir); err != nil {
				return fmt.Errorf("loom: draining artifacts: %w", err)
			}

			dev := devserver.New(cfg.DistDir, log)
			httpListener, err := devserver.Listen(cfg.DevServerPort)
			if err != nil {
				return fmt.Errorf("loom: listening for dev server: %w", err)
			}
			log.Info("loom: dev server listening", "addr", httpListener.Addr().String())
			go func() {
				if err := http.Serve(httpListener, dev.Handler()); err != nil {
					log.Error("loom: dev server stopped", "error", err)
				}
			}()

			onBuild := func(updated map[engine.NodeID]bool) {
				if _, err := finalize.Drain(sched, cfg.DistDir); err != nil {
					log.Error("loom: draining artifacts after rebuild", "error", err)
					return
				}
				log.Info("loom: rebuilt", "updated_nodes", len(updated))
				dev.Broadcast()
			}

			watcher := watch.New(cfg.PublicDir, g, sched, log, onBuild)
			log.Info("loom: watching for changes", "root", cfg.PublicDir)
			return watcher.Run(cmd.Context())
		},
	}

	return cmd
}
