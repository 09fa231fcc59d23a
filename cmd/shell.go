package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgeide/forge/internal/config"
	"github.com/forgeide/forge/internal/shell"
	"github.com/forgeide/forge/internal/workspace"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive shell over the workspace",
	Long: `Run commands against the virtual file tree. The shell supports a
small POSIX-flavored command set (ls, cd, pwd, cat, touch, mkdir, rm,
echo, clear, help) and persists each mutation to the workspace
snapshot as it happens.`,
	RunE: runShell,
}

func init() {
	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger()

	ws := workspace.Open(workspace.NewStore(cfg.Storage.Dir), log)
	return runREPL(ws, cmd.InOrStdin(), cmd.OutOrStdout())
}

func runREPL(ws *workspace.Workspace, in io.Reader, out io.Writer) error {
	sh := shell.New(ws.Tree)
	scanner := bufio.NewScanner(in)
	changes := ws.Tree.Watch()

	for {
		fmt.Fprintf(out, "%s $ ", sh.Cwd())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "exit" {
			break
		}

		res := sh.Exec(line)
		// Persist each mutating command as it lands, so a killed
		// session keeps its edits.
		select {
		case <-changes:
			ws.Save()
		default:
		}
		if res.Clear {
			// ANSI clear screen plus cursor home.
			fmt.Fprint(out, "\x1b[2J\x1b[H")
			continue
		}
		if res.Output != "" {
			fmt.Fprintln(out, res.Output)
		}
	}

	ws.Save()
	fmt.Fprintln(out)
	return scanner.Err()
}
