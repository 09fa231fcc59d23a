package cmd

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeide/forge/internal/logging"
	"github.com/forgeide/forge/internal/workspace"
)

func TestRootHasSubcommands(t *testing.T) {
	want := []string{"serve", "shell", "export", "import", "init", "version"}
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, names[name], "missing subcommand %s", name)
	}
}

func TestVersionCommandText(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionFormat = "text"
	versionShort = false

	require.NoError(t, runVersion(versionCmd, nil))
	assert.Contains(t, buf.String(), "forge ")
	assert.Contains(t, buf.String(), "Platform: ")
}

func TestVersionCommandBadFormat(t *testing.T) {
	versionFormat = "xml"
	defer func() { versionFormat = "text" }()
	assert.Error(t, runVersion(versionCmd, nil))
}

func TestREPL(t *testing.T) {
	log := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelError, Output: io.Discard})
	ws := workspace.Open(workspace.NewStore(t.TempDir()), log)

	in := strings.NewReader("mkdir demo\ncd demo\npwd\ntouch a.ts\nls\nexit\n")
	var out bytes.Buffer
	require.NoError(t, runREPL(ws, in, &out))

	got := out.String()
	assert.Contains(t, got, "/demo $ ")
	assert.Contains(t, got, "a.ts")

	_, ok := ws.Tree.Resolve("/demo/a.ts")
	assert.True(t, ok)
}

func TestREPLPersistsEachCommand(t *testing.T) {
	dir := t.TempDir()
	log := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelError, Output: io.Discard})
	ws := workspace.Open(workspace.NewStore(dir), log)

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		var out bytes.Buffer
		done <- runREPL(ws, pr, &out)
	}()

	_, err := io.WriteString(pw, "mkdir demo\ntouch demo/a.ts\n")
	require.NoError(t, err)

	// The snapshot reflects the edits while the session is still open.
	reload := workspace.NewStore(dir)
	require.Eventually(t, func() bool {
		snap, ok, err := reload.Load()
		if err != nil || !ok {
			return false
		}
		for _, n := range snap.Files {
			if n.Name == "a.ts" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, pw.Close())
	require.NoError(t, <-done)
}

func TestREPLExitsOnEOF(t *testing.T) {
	log := logging.NewLogger(&logging.LoggerConfig{Level: logging.LevelError, Output: io.Discard})
	ws := workspace.Open(workspace.NewStore(t.TempDir()), log)

	var out bytes.Buffer
	require.NoError(t, runREPL(ws, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "/ $ ")
}
