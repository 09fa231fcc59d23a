// Package preview implements the build-and-preview pipeline: given a
// snapshot of the virtual file tree it selects an entry point, transforms
// every source into an addressable module map, and emits one
// self-contained document that boots the application inside a sandboxed
// browser context.
package preview

import (
	"strings"

	"github.com/forgeide/forge/internal/vfs"
)

// EntryKind classifies the selected entry artifact.
type EntryKind int

const (
	// EntryDocument is a markup document rendered as-is.
	EntryDocument EntryKind = iota
	// EntryScript is a script entry wrapped in a synthetic document.
	EntryScript
	// EntryPlaceholder means no entry point exists; a deterministic
	// placeholder page is rendered. This is a valid state, not an error.
	EntryPlaceholder
)

// Entry is the artifact chosen to be rendered for a preview pass.
type Entry struct {
	Kind EntryKind
	Node vfs.Node
	// Path is the entry's tree path without a leading slash, e.g.
	// "src/main.tsx". Empty for placeholders.
	Path string
}

// entryCandidates is the fixed ordered list of conventional script entry
// points tried when no markup document exists.
var entryCandidates = []string{
	"src/main.tsx",
	"src/index.tsx",
	"src/main.jsx",
	"src/index.jsx",
	"index.js",
	"main.js",
	"App.tsx",
	"App.jsx",
}

// SelectEntry picks the artifact to render. Precedence: an explicit
// target (document, then script), an index.html directly under root, the
// conventional script candidates in order, and finally the placeholder.
func SelectEntry(tree *vfs.Tree, explicitID string) Entry {
	if explicitID != "" {
		if n, ok := tree.Get(explicitID); ok && n.Kind == vfs.KindFile {
			if isMarkup(n.Name) {
				return makeEntry(tree, n, EntryDocument)
			}
			if isScript(n.Name) {
				return makeEntry(tree, n, EntryScript)
			}
		}
	}

	if n, ok := tree.Resolve("/index.html"); ok && n.Kind == vfs.KindFile {
		return makeEntry(tree, n, EntryDocument)
	}

	for _, candidate := range entryCandidates {
		if n, ok := tree.Resolve(candidate); ok && n.Kind == vfs.KindFile {
			return makeEntry(tree, n, EntryScript)
		}
	}

	return Entry{Kind: EntryPlaceholder}
}

func makeEntry(tree *vfs.Tree, n vfs.Node, kind EntryKind) Entry {
	path, err := tree.FullPath(n.ID)
	if err != nil {
		return Entry{Kind: EntryPlaceholder}
	}
	return Entry{Kind: kind, Node: n, Path: strings.TrimPrefix(path, "/")}
}

func isMarkup(name string) bool {
	return strings.HasSuffix(name, ".html")
}

var scriptExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

func isScript(name string) bool {
	for _, ext := range scriptExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func isStylesheet(name string) bool {
	return strings.HasSuffix(name, ".css")
}
