package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgeide/forge/internal/archive"
	"github.com/forgeide/forge/internal/config"
	"github.com/forgeide/forge/internal/workspace"
)

var importCmd = &cobra.Command{
	Use:   "import <archive.zip>",
	Short: "Replace the workspace with a zip archive's contents",
	Long: `Import a zip archive into the workspace. The current tree is
replaced entirely; open tabs and folder state are reset. macOS
metadata entries and previous export markers in the archive are
ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	tree, err := archive.Import(f, info.Size())
	if err != nil {
		return err
	}

	ws := workspace.Open(workspace.NewStore(cfg.Storage.Dir), log)
	ws.Replace(tree)

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d files from %s\n", len(tree.FilePaths()), args[0])
	return nil
}
