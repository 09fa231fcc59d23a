// Package vfs implements the virtual file tree backing a Forge workspace.
//
// The tree is an in-memory map of node id to node, anchored at a single
// root folder. It is the single source of truth for file content: the
// editor surface, the preview pipeline, the shell and the agent tools all
// operate against the same tree through this package.
package vfs

import (
	"time"
)

// RootID is the fixed id of the root folder. The root is created at
// initialization and can never be deleted or moved.
const RootID = "root"

// Kind distinguishes files from folders.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Node is a single entry in the virtual file tree.
//
// Invariants maintained by Tree: every non-root node's ParentID refers to
// an existing folder that lists the node exactly once in ChildrenIDs; files
// never have children; folders never have content; no node is its own
// ancestor.
type Node struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	ParentID    string    `json:"parentId,omitempty"`
	ChildrenIDs []string  `json:"childrenIds,omitempty"`
	Content     string    `json:"content,omitempty"`
	Language    string    `json:"language,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// clone returns a deep copy safe to hand out across the Tree lock.
func (n *Node) clone() Node {
	c := *n
	if n.ChildrenIDs != nil {
		c.ChildrenIDs = make([]string, len(n.ChildrenIDs))
		copy(c.ChildrenIDs, n.ChildrenIDs)
	}
	return c
}

func newNode(id, name string, kind Kind, parentID string) *Node {
	n := &Node{
		ID:        id,
		Name:      name,
		Kind:      kind,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}
	if kind == KindFile {
		n.Language = LanguageForFilename(name)
	}
	return n
}
