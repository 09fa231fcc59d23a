package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeide/forge/internal/config"
	"github.com/forgeide/forge/internal/workspace"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Write a default .forge.yml and seed the workspace",
	RunE:    runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing .forge.yml")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := ".forge.yml"
	if err := config.WriteDefault(path, initForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)

	cfg := config.Default()
	log := newLogger()
	ws := workspace.Open(workspace.NewStore(cfg.Storage.Dir), log)
	ws.Save()
	fmt.Fprintf(cmd.OutOrStdout(), "Workspace ready with %d files\n", len(ws.Tree.FilePaths()))
	return nil
}
