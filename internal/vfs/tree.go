package vfs

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tree is the mutable virtual file tree. All methods are safe for
// concurrent use; consumers always observe a consistent snapshot.
//
// Content consistency across concurrent writers (editor, shell, agent,
// disk mount) is last-write-wins at the granularity of a single node's
// content field.
type Tree struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	dirty    map[string]struct{}
	watchers []chan struct{}
}

// New creates a tree containing only the root folder.
func New() *Tree {
	t := &Tree{
		nodes: make(map[string]*Node),
		dirty: make(map[string]struct{}),
	}
	root := newNode(RootID, "root", KindFolder, "")
	t.nodes[RootID] = root
	return t
}

// NewSeeded creates a tree pre-populated with the built-in starter files.
func NewSeeded() *Tree {
	t := New()
	readme, _ := t.CreateFile(RootID, "welcome.md")
	t.mustWrite(readme, "# Welcome to Forge\n\nThis is a persistent virtual workspace.\n\n- Create files\n- Edit code\n- Changes are saved automatically.\n")
	index, _ := t.CreateFile(RootID, "index.ts")
	t.mustWrite(index, "console.log(\"Hello Forge!\");\n")
	src, _ := t.CreateFolder(RootID, "src")
	utils, _ := t.CreateFile(src, "utils.js")
	t.mustWrite(utils, "export const add = (a, b) => a + b;\n")
	t.SaveAll()
	return t
}

func (t *Tree) mustWrite(id, content string) {
	// Seeding only; ids come straight from Create.
	_ = t.Write(id, content)
}

// Watch returns a channel that receives a signal after every mutation.
// Sends are non-blocking; a slow consumer coalesces signals.
func (t *Tree) Watch() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan struct{}, 1)
	t.watchers = append(t.watchers, ch)
	return ch
}

func (t *Tree) notifyLocked() {
	for _, ch := range t.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Get returns a copy of the node with the given id.
func (t *Tree) Get(id string) (Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Exists reports whether id resolves to a live node.
func (t *Tree) Exists(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[id]
	return ok
}

// Len returns the number of nodes including the root.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// All returns copies of every node in the tree.
func (t *Tree) All() []Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n.clone())
	}
	return out
}

// CreateFile creates an empty file under parentID and returns its id.
// A parent that does not resolve to a folder falls back to the root: stale
// ids coming from detached UI state create at the top level instead of
// failing the whole action.
func (t *Tree) CreateFile(parentID, name string) (string, error) {
	return t.create(parentID, name, KindFile)
}

// CreateFolder creates an empty folder under parentID and returns its id.
func (t *Tree) CreateFolder(parentID, name string) (string, error) {
	return t.create(parentID, name, KindFolder)
}

func (t *Tree) create(parentID, name string, kind Kind) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.nodes[parentID]
	if !ok || !parent.IsFolder() {
		parent = t.nodes[RootID]
	}
	if t.childByNameLocked(parent, name) != nil {
		return "", ErrDuplicateName
	}

	id := uuid.NewString()
	n := newNode(id, name, kind, parent.ID)
	t.nodes[id] = n
	parent.ChildrenIDs = append(parent.ChildrenIDs, id)
	t.notifyLocked()
	return id, nil
}

// Delete removes id and, for folders, its entire subtree. The parent's
// child list is relinked. Deleting the root is not permitted.
func (t *Tree) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id == RootID {
		return ErrRoot
	}
	n, ok := t.nodes[id]
	if !ok {
		return ErrNotFound
	}
	if parent, ok := t.nodes[n.ParentID]; ok {
		parent.ChildrenIDs = removeID(parent.ChildrenIDs, id)
	}
	t.deleteSubtreeLocked(id)
	t.notifyLocked()
	return nil
}

func (t *Tree) deleteSubtreeLocked(id string) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	for _, child := range n.ChildrenIDs {
		t.deleteSubtreeLocked(child)
	}
	delete(t.nodes, id)
	delete(t.dirty, id)
}

// Rename changes a node's name. For files the language tag is recomputed
// from the new extension. Sibling name collisions are rejected.
func (t *Tree) Rename(id, newName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return ErrNotFound
	}
	if id == RootID {
		return ErrRoot
	}
	if n.Name == newName {
		return nil
	}
	if parent, ok := t.nodes[n.ParentID]; ok {
		if sib := t.childByNameLocked(parent, newName); sib != nil && sib.ID != id {
			return ErrDuplicateName
		}
	}
	n.Name = newName
	if n.Kind == KindFile {
		n.Language = LanguageForFilename(newName)
	}
	t.notifyLocked()
	return nil
}

// Move reparents id under newParentID. Moving a node onto itself or under
// one of its own descendants returns ErrCycle rather than silently
// dropping the request, so callers can surface the rejection.
func (t *Tree) Move(id, newParentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return ErrNotFound
	}
	if id == RootID {
		return ErrRoot
	}
	parent, ok := t.nodes[newParentID]
	if !ok || !parent.IsFolder() {
		return ErrNotAFolder
	}
	if id == newParentID || t.isDescendantLocked(newParentID, id) {
		return ErrCycle
	}
	if n.ParentID == newParentID {
		return nil
	}
	if sib := t.childByNameLocked(parent, n.Name); sib != nil {
		return ErrDuplicateName
	}

	if old, ok := t.nodes[n.ParentID]; ok {
		old.ChildrenIDs = removeID(old.ChildrenIDs, id)
	}
	parent.ChildrenIDs = append(parent.ChildrenIDs, id)
	n.ParentID = newParentID
	t.notifyLocked()
	return nil
}

// isDescendantLocked reports whether candidate sits somewhere below ancestor.
func (t *Tree) isDescendantLocked(candidate, ancestor string) bool {
	cur := t.nodes[candidate]
	for cur != nil && cur.ParentID != "" {
		if cur.ParentID == ancestor {
			return true
		}
		cur = t.nodes[cur.ParentID]
	}
	return false
}

// Write replaces a file's content and marks it dirty until saved.
func (t *Tree) Write(id, content string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return ErrNotFound
	}
	if n.Kind != KindFile {
		return ErrNotAFile
	}
	n.Content = content
	t.dirty[id] = struct{}{}
	t.notifyLocked()
	return nil
}

// IsDirty reports whether id has unsaved content. The flag survives
// rename and move and clears on MarkSaved or SaveAll.
func (t *Tree) IsDirty(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.dirty[id]
	return ok
}

// MarkSaved clears the dirty flag for one file.
func (t *Tree) MarkSaved(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.dirty, id)
}

// SaveAll clears every dirty flag.
func (t *Tree) SaveAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirty = make(map[string]struct{})
}

// EnsurePath creates or overwrites the file at path, creating missing
// parent folders along the way, and returns the file's id. Existing
// folders on the path are reused; an existing file at the leaf is
// overwritten in place, keeping its id.
func (t *Tree) EnsurePath(path, content string) (string, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return "", ErrNotAFile
	}
	name := parts[len(parts)-1]
	folders := parts[:len(parts)-1]

	t.mu.Lock()
	defer t.mu.Unlock()

	parent := t.nodes[RootID]
	for _, seg := range folders {
		child := t.childByNameLocked(parent, seg)
		switch {
		case child == nil:
			id := uuid.NewString()
			folder := newNode(id, seg, KindFolder, parent.ID)
			t.nodes[id] = folder
			parent.ChildrenIDs = append(parent.ChildrenIDs, id)
			parent = folder
		case child.IsFolder():
			parent = child
		default:
			return "", ErrNotAFolder
		}
	}

	if existing := t.childByNameLocked(parent, name); existing != nil {
		if existing.IsFolder() {
			return "", ErrNotAFile
		}
		existing.Content = content
		existing.Language = LanguageForFilename(name)
		t.dirty[existing.ID] = struct{}{}
		t.notifyLocked()
		return existing.ID, nil
	}

	id := uuid.NewString()
	file := newNode(id, name, KindFile, parent.ID)
	file.Content = content
	file.CreatedAt = time.Now()
	t.nodes[id] = file
	parent.ChildrenIDs = append(parent.ChildrenIDs, id)
	t.dirty[id] = struct{}{}
	t.notifyLocked()
	return id, nil
}

func (t *Tree) childByNameLocked(parent *Node, name string) *Node {
	for _, id := range parent.ChildrenIDs {
		if child, ok := t.nodes[id]; ok && child.Name == name {
			return child
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func splitPath(path string) []string {
	var parts []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			continue
		}
		parts = append(parts, seg)
	}
	return parts
}
