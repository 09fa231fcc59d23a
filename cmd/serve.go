package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/forgeide/forge/internal/config"
	"github.com/forgeide/forge/internal/preview"
	"github.com/forgeide/forge/internal/server"
	"github.com/forgeide/forge/internal/watcher"
	"github.com/forgeide/forge/internal/workspace"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the preview server",
	Long: `Serve the workspace preview. The server regenerates the preview
document on a debounced timer as the tree changes, pushes reload
notices over WebSocket, and accepts tool calls on /api/tools.

With --mount, a directory on disk is mirrored into the workspace and
kept in sync while the server runs.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "bind host")
	serveCmd.Flags().IntP("port", "p", 0, "bind port")
	serveCmd.Flags().String("mount", "", "mirror a directory on disk into the workspace")
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("mount.path", serveCmd.Flags().Lookup("mount"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws := workspace.Open(workspace.NewStore(cfg.Storage.Dir), log)

	if cfg.Mount.Path != "" {
		m, err := watcher.NewMounter(cfg.Mount.Path, ws.Tree, cfg.Mount.Ignore, cfg.Preview.Debounce, log)
		if err != nil {
			return err
		}
		if err := m.Start(ctx); err != nil {
			return err
		}
	}

	transformer := preview.NewTransformer(cfg.Preview.Externals, log)
	pipeline := preview.NewPipeline(ws.Tree, transformer, cfg.Preview.Debounce, log)
	pipeline.Start(ctx)

	srv := server.New(cfg, ws, pipeline, log)
	return srv.Start(ctx)
}
