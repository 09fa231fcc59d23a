package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgeide/forge/internal/archive"
	"github.com/forgeide/forge/internal/config"
	"github.com/forgeide/forge/internal/workspace"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [archive.zip]",
	Short: "Write the workspace to a zip archive",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "workspace.zip", "archive path to write")
}

func runExport(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		exportOutput = args[0]
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger()
	ws := workspace.Open(workspace.NewStore(cfg.Storage.Dir), log)

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer f.Close()

	if err := archive.Export(ws.Tree, f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported workspace to %s\n", exportOutput)
	return nil
}
