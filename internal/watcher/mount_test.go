package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeide/forge/internal/vfs"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestMounterInitialSync(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "<html></html>")
	writeFile(t, filepath.Join(dir, "src", "main.tsx"), "export {}")
	writeFile(t, filepath.Join(dir, "node_modules", "react", "index.js"), "ignored")

	tree := vfs.New()
	m, err := NewMounter(dir, tree, []string{"node_modules"}, 20*time.Millisecond, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	node, ok := tree.Resolve("/index.html")
	require.True(t, ok)
	assert.Equal(t, "<html></html>", node.Content)

	_, ok = tree.Resolve("/src/main.tsx")
	assert.True(t, ok)

	_, ok = tree.Resolve("/node_modules/react/index.js")
	assert.False(t, ok)
}

func TestMounterAppliesChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.ts"), "one")

	tree := vfs.New()
	m, err := NewMounter(dir, tree, nil, 20*time.Millisecond, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))

	writeFile(t, filepath.Join(dir, "a.ts"), "two")
	writeFile(t, filepath.Join(dir, "b.ts"), "new")

	require.Eventually(t, func() bool {
		n, ok := tree.Resolve("/a.ts")
		if !ok || n.Content != "two" {
			return false
		}
		_, ok = tree.Resolve("/b.ts")
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(filepath.Join(dir, "b.ts")))
	require.Eventually(t, func() bool {
		_, ok := tree.Resolve("/b.ts")
		return !ok
	}, 5*time.Second, 20*time.Millisecond)
}

func TestMounterApplyBatchDirectly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.ts"), "kept")

	tree := vfs.New()
	m, err := NewMounter(dir, tree, nil, time.Minute, testLogger())
	require.NoError(t, err)

	m.apply([]ChangeEvent{
		{Type: EventCreated, Path: filepath.Join(dir, "keep.ts")},
		{Type: EventDeleted, Path: filepath.Join(dir, "never-existed.ts")},
	})

	node, ok := tree.Resolve("/keep.ts")
	require.True(t, ok)
	assert.Equal(t, "kept", node.Content)
}
