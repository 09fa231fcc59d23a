package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeide/forge/internal/vfs"
)

func newTestShell(t *testing.T) (*Shell, *vfs.Tree) {
	t.Helper()
	tree := vfs.New()
	return New(tree), tree
}

func TestMkdirTouchLs(t *testing.T) {
	sh, tree := newTestShell(t)

	assert.Empty(t, sh.Exec("mkdir src").Output)
	assert.Empty(t, sh.Exec("touch readme.md").Output)

	out := sh.Exec("ls").Output
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "src/")
	assert.Contains(t, lines[0], ansiBlue)
	assert.Equal(t, "readme.md", lines[1])

	_, ok := tree.Resolve("/src")
	assert.True(t, ok)
	_, ok = tree.Resolve("/readme.md")
	assert.True(t, ok)
}

func TestCdPwd(t *testing.T) {
	sh, _ := newTestShell(t)

	sh.Exec("mkdir src")
	sh.Exec("mkdir src/components")

	assert.Empty(t, sh.Exec("cd src/components").Output)
	assert.Equal(t, "/src/components", sh.Exec("pwd").Output)

	assert.Empty(t, sh.Exec("cd ..").Output)
	assert.Equal(t, "/src", sh.Exec("pwd").Output)

	assert.Empty(t, sh.Exec("cd /").Output)
	assert.Equal(t, "/", sh.Exec("pwd").Output)

	sh.Exec("cd src")
	assert.Empty(t, sh.Exec("cd").Output)
	assert.Equal(t, "/", sh.Exec("pwd").Output)
}

func TestCdErrors(t *testing.T) {
	sh, _ := newTestShell(t)
	sh.Exec("touch file.txt")

	assert.Equal(t, "cd: no such file or directory: missing", sh.Exec("cd missing").Output)
	assert.Equal(t, "cd: not a directory: file.txt", sh.Exec("cd file.txt").Output)
}

func TestCat(t *testing.T) {
	sh, tree := newTestShell(t)

	id, err := tree.CreateFile(vfs.RootID, "notes.md")
	require.NoError(t, err)
	require.NoError(t, tree.Write(id, "hello from the tree"))
	sh.Exec("mkdir docs")

	assert.Equal(t, "hello from the tree", sh.Exec("cat notes.md").Output)
	assert.Equal(t, "cat: nope.md: No such file or directory", sh.Exec("cat nope.md").Output)
	assert.Equal(t, "cat: docs: Is a directory", sh.Exec("cat docs").Output)
}

func TestTouchExistingIsNoop(t *testing.T) {
	sh, tree := newTestShell(t)

	sh.Exec("touch a.ts")
	before := tree.Len()
	assert.Empty(t, sh.Exec("touch a.ts").Output)
	assert.Equal(t, before, tree.Len())
}

func TestMkdirExisting(t *testing.T) {
	sh, _ := newTestShell(t)

	sh.Exec("mkdir src")
	assert.Equal(t, "mkdir: cannot create directory 'src': File exists", sh.Exec("mkdir src").Output)
}

func TestRm(t *testing.T) {
	sh, tree := newTestShell(t)

	sh.Exec("mkdir src")
	sh.Exec("touch src/a.ts")
	sh.Exec("touch b.ts")

	assert.Equal(t, "rm: cannot remove 'src': Is a directory", sh.Exec("rm src").Output)
	assert.Empty(t, sh.Exec("rm -r src").Output)
	_, ok := tree.Resolve("/src")
	assert.False(t, ok)

	assert.Empty(t, sh.Exec("rm b.ts").Output)
	_, ok = tree.Resolve("/b.ts")
	assert.False(t, ok)

	assert.Equal(t, "rm: cannot remove '/': Operation not permitted", sh.Exec("rm -r /").Output)
	assert.Equal(t, "rm: cannot remove 'ghost': No such file or directory", sh.Exec("rm ghost").Output)
}

func TestEchoClearHelpUnknown(t *testing.T) {
	sh, _ := newTestShell(t)

	assert.Equal(t, "hello world", sh.Exec("echo hello world").Output)
	assert.True(t, sh.Exec("clear").Clear)
	assert.Contains(t, sh.Exec("help").Output, "mkdir <dir>")
	assert.Equal(t, "forge shell: command not found: yarn", sh.Exec("yarn").Output)
	assert.Empty(t, sh.Exec("   ").Output)
}

func TestCwdHealsAfterDeletion(t *testing.T) {
	sh, tree := newTestShell(t)

	sh.Exec("mkdir doomed")
	sh.Exec("cd doomed")
	require.Equal(t, "/doomed", sh.Exec("pwd").Output)

	node, ok := tree.Resolve("/doomed")
	require.True(t, ok)
	require.NoError(t, tree.Delete(node.ID))

	out := sh.Exec("pwd").Output
	assert.Contains(t, out, "working directory was removed")
	assert.True(t, strings.HasSuffix(out, "/"))
	assert.Equal(t, "/", sh.Exec("pwd").Output)
}

func TestShellMatchesDirectTreeOps(t *testing.T) {
	sh, tree := newTestShell(t)
	direct := vfs.New()

	sh.Exec("mkdir src")
	sh.Exec("touch src/index.ts")
	sh.Exec("touch top.md")
	sh.Exec("rm top.md")

	folder, err := direct.CreateFolder(vfs.RootID, "src")
	require.NoError(t, err)
	_, err = direct.CreateFile(folder, "index.ts")
	require.NoError(t, err)
	id, err := direct.CreateFile(vfs.RootID, "top.md")
	require.NoError(t, err)
	require.NoError(t, direct.Delete(id))

	assert.ElementsMatch(t, direct.FilePaths(), tree.FilePaths())
}
