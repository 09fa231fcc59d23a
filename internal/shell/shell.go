// Package shell implements the workspace terminal: a small POSIX-flavored
// command set evaluated against the virtual file tree, no host process
// involved.
package shell

import (
	"fmt"
	stdpath "path"
	"strings"

	"github.com/forgeide/forge/internal/vfs"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

// Result is the outcome of one executed line. Clear tells the terminal
// to wipe its scrollback instead of printing Output.
type Result struct {
	Output string
	Clear  bool
}

// Shell evaluates commands against a tree, tracking a working directory
// by node id so renames of ancestors do not strand it.
type Shell struct {
	tree *vfs.Tree
	cwd  string
}

// New returns a shell rooted at /.
func New(tree *vfs.Tree) *Shell {
	return &Shell{tree: tree, cwd: vfs.RootID}
}

// Cwd returns the working directory as an absolute path.
func (s *Shell) Cwd() string {
	s.heal()
	p, err := s.tree.FullPath(s.cwd)
	if err != nil {
		return "/"
	}
	return p
}

// heal resets the working directory to the root when the node it
// pointed at has been deleted out from under the shell.
func (s *Shell) heal() bool {
	if s.tree.Exists(s.cwd) {
		return false
	}
	s.cwd = vfs.RootID
	return true
}

// Exec runs one command line and returns its result. Unknown commands
// and argument errors are reported in Output, never as a Go error.
func (s *Shell) Exec(line string) Result {
	var notice string
	if s.heal() {
		notice = "shell: working directory was removed, back at /\n"
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Result{Output: strings.TrimSuffix(notice, "\n")}
	}

	cmd, args := fields[0], fields[1:]
	var res Result
	switch cmd {
	case "ls":
		res = s.ls(args)
	case "cd":
		res = s.cd(args)
	case "pwd":
		res = Result{Output: s.Cwd()}
	case "cat":
		res = s.cat(args)
	case "touch":
		res = s.touch(args)
	case "mkdir":
		res = s.mkdir(args)
	case "rm":
		res = s.rm(args)
	case "echo":
		res = Result{Output: strings.Join(args, " ")}
	case "clear":
		return Result{Clear: true}
	case "help":
		res = Result{Output: helpText}
	default:
		res = Result{Output: fmt.Sprintf("forge shell: command not found: %s", cmd)}
	}

	res.Output = notice + res.Output
	return res
}

const helpText = `Available commands:
  ls [path]        list directory contents
  cd [path]        change the working directory
  pwd              print the working directory
  cat <file>       print file contents
  touch <file>     create an empty file
  mkdir <dir>      create a directory
  rm [-r] <path>   remove a file, or a directory with -r
  echo [args...]   print arguments
  clear            clear the terminal
  help             show this message`

// abs turns a command argument into a cleaned absolute path, resolving
// relative arguments against the working directory. "." and ".." are
// handled here since the tree itself only resolves plain segments.
func (s *Shell) abs(arg string) string {
	if strings.HasPrefix(arg, "/") {
		return stdpath.Clean(arg)
	}
	return stdpath.Clean(stdpath.Join(s.Cwd(), arg))
}

func (s *Shell) resolve(arg string) (vfs.Node, bool) {
	return s.tree.Resolve(s.abs(arg))
}

func (s *Shell) ls(args []string) Result {
	target := s.cwd
	if len(args) > 0 {
		node, ok := s.resolve(args[0])
		if !ok {
			return Result{Output: fmt.Sprintf("ls: %s: No such file or directory", args[0])}
		}
		if !node.IsFolder() {
			return Result{Output: node.Name}
		}
		target = node.ID
	}

	children := s.tree.SortedChildren(target)
	names := make([]string, 0, len(children))
	for _, child := range children {
		if child.IsFolder() {
			names = append(names, ansiBlue+child.Name+"/"+ansiReset)
		} else {
			names = append(names, child.Name)
		}
	}
	return Result{Output: strings.Join(names, "\n")}
}

func (s *Shell) cd(args []string) Result {
	if len(args) == 0 {
		s.cwd = vfs.RootID
		return Result{}
	}
	node, ok := s.resolve(args[0])
	if !ok {
		return Result{Output: fmt.Sprintf("cd: no such file or directory: %s", args[0])}
	}
	if !node.IsFolder() {
		return Result{Output: fmt.Sprintf("cd: not a directory: %s", args[0])}
	}
	s.cwd = node.ID
	return Result{}
}

func (s *Shell) cat(args []string) Result {
	if len(args) == 0 {
		return Result{Output: "cat: missing operand"}
	}
	node, ok := s.resolve(args[0])
	if !ok {
		return Result{Output: fmt.Sprintf("cat: %s: No such file or directory", args[0])}
	}
	if node.IsFolder() {
		return Result{Output: fmt.Sprintf("cat: %s: Is a directory", args[0])}
	}
	return Result{Output: node.Content}
}

func (s *Shell) touch(args []string) Result {
	if len(args) == 0 {
		return Result{Output: "touch: missing file operand"}
	}
	full := s.abs(args[0])
	if _, exists := s.tree.Resolve(full); exists {
		return Result{}
	}
	dir, base := stdpath.Split(full)
	parent, ok := s.tree.Resolve(dir)
	if !ok || !parent.IsFolder() {
		return Result{Output: fmt.Sprintf("touch: cannot touch '%s': No such file or directory", args[0])}
	}
	if _, err := s.tree.CreateFile(parent.ID, base); err != nil {
		return Result{Output: fmt.Sprintf("touch: cannot touch '%s': %v", args[0], err)}
	}
	return Result{}
}

func (s *Shell) mkdir(args []string) Result {
	if len(args) == 0 {
		return Result{Output: "mkdir: missing operand"}
	}
	full := s.abs(args[0])
	if _, exists := s.tree.Resolve(full); exists {
		return Result{Output: fmt.Sprintf("mkdir: cannot create directory '%s': File exists", args[0])}
	}
	dir, base := stdpath.Split(full)
	parent, ok := s.tree.Resolve(dir)
	if !ok || !parent.IsFolder() {
		return Result{Output: fmt.Sprintf("mkdir: cannot create directory '%s': No such file or directory", args[0])}
	}
	if _, err := s.tree.CreateFolder(parent.ID, base); err != nil {
		return Result{Output: fmt.Sprintf("mkdir: cannot create directory '%s': %v", args[0], err)}
	}
	return Result{}
}

func (s *Shell) rm(args []string) Result {
	recursive := false
	if len(args) > 0 && (args[0] == "-r" || args[0] == "-rf") {
		recursive = true
		args = args[1:]
	}
	if len(args) == 0 {
		return Result{Output: "rm: missing operand"}
	}
	node, ok := s.resolve(args[0])
	if !ok {
		return Result{Output: fmt.Sprintf("rm: cannot remove '%s': No such file or directory", args[0])}
	}
	if node.ID == vfs.RootID {
		return Result{Output: "rm: cannot remove '/': Operation not permitted"}
	}
	if node.IsFolder() && !recursive {
		return Result{Output: fmt.Sprintf("rm: cannot remove '%s': Is a directory", args[0])}
	}
	if err := s.tree.Delete(node.ID); err != nil {
		return Result{Output: fmt.Sprintf("rm: cannot remove '%s': %v", args[0], err)}
	}
	return Result{}
}
