package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFullPath(t *testing.T) {
	tree := New()

	dir, _ := tree.CreateFolder(RootID, "src")
	id, _ := tree.CreateFile(dir, "main.ts")

	p, err := tree.FullPath(RootID)
	require.NoError(t, err)
	assert.Equal(t, "/", p)

	p, err = tree.FullPath(id)
	require.NoError(t, err)
	assert.Equal(t, "/src/main.ts", p)

	_, err = tree.FullPath("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveNormalization(t *testing.T) {
	tree := New()
	dir, _ := tree.CreateFolder(RootID, "src")
	id, _ := tree.CreateFile(dir, "main.ts")

	for _, path := range []string{
		"/src/main.ts",
		"src/main.ts",
		"./src/main.ts",
		"src//main.ts",
		"./src/./main.ts",
	} {
		n, ok := tree.Resolve(path)
		require.True(t, ok, "path %q", path)
		assert.Equal(t, id, n.ID, "path %q", path)
	}

	root, ok := tree.Resolve("/")
	require.True(t, ok)
	assert.Equal(t, RootID, root.ID)

	_, ok = tree.Resolve("/src/missing.ts")
	assert.False(t, ok)
}

func TestResolveFullPathRoundTrip(t *testing.T) {
	tree := NewSeeded()
	extra, _ := tree.CreateFolder(RootID, "deep")
	nested, _ := tree.CreateFolder(extra, "nested")
	tree.CreateFile(nested, "leaf.css")

	for _, n := range tree.All() {
		p, err := tree.FullPath(n.ID)
		require.NoError(t, err)
		resolved, ok := tree.Resolve(p)
		require.True(t, ok, "path %q", p)
		assert.Equal(t, n.ID, resolved.ID, "path %q", p)
	}
}

func TestDeleteByPath(t *testing.T) {
	tree := New()
	dir, _ := tree.CreateFolder(RootID, "src")
	tree.CreateFile(dir, "main.ts")

	require.NoError(t, tree.DeleteByPath("/src"))
	assert.Equal(t, 1, tree.Len())

	assert.ErrorIs(t, tree.DeleteByPath("/src"), ErrNotFound)
}

func TestFilePaths(t *testing.T) {
	tree := New()
	dir, _ := tree.CreateFolder(RootID, "src")
	tree.CreateFile(dir, "main.ts")
	tree.CreateFile(RootID, "index.html")

	paths := tree.FilePaths()
	assert.ElementsMatch(t, []string{"src/main.ts", "index.html"}, paths)
}
