package workspace

import (
	"context"
	"sync"

	"github.com/forgeide/forge/internal/logging"
	"github.com/forgeide/forge/internal/vfs"
)

// Workspace owns the tree, the view state, and the autosave policy: a
// snapshot is written after every mutating action. Persistence failure
// is logged and the session continues in memory.
type Workspace struct {
	Tree *vfs.Tree

	mu       sync.Mutex
	openTabs []string
	active   string
	expanded map[string]struct{}

	store *Store
	log   logging.Logger
}

// Open loads the persisted workspace, or seeds the built-in starter
// tree when nothing is stored or the stored snapshot cannot be read.
func Open(store *Store, log logging.Logger) *Workspace {
	w := &Workspace{
		store:    store,
		log:      log.WithComponent("workspace"),
		expanded: map[string]struct{}{vfs.RootID: {}},
	}

	snap, ok, err := store.Load()
	if err != nil {
		w.log.Warn(context.Background(), err, "snapshot load failed, starting from the built-in tree")
	}
	if ok && err == nil {
		w.Tree = vfs.FromNodes(snap.Files)
		for _, id := range snap.OpenTabs {
			if w.Tree.Exists(id) {
				w.openTabs = append(w.openTabs, id)
			}
		}
		if w.Tree.Exists(snap.ActiveTabID) {
			w.active = snap.ActiveTabID
		}
		for _, id := range snap.ExpandedFolders {
			if w.Tree.Exists(id) {
				w.expanded[id] = struct{}{}
			}
		}
		return w
	}

	w.Tree = vfs.NewSeeded()
	return w
}

// snapshotLocked assembles the persisted slice.
func (w *Workspace) snapshotLocked() *Snapshot {
	files := make(map[string]vfs.Node)
	for _, n := range w.Tree.All() {
		files[n.ID] = n
	}
	tabs := make([]string, len(w.openTabs))
	copy(tabs, w.openTabs)
	expanded := make([]string, 0, len(w.expanded))
	for id := range w.expanded {
		expanded = append(expanded, id)
	}
	return &Snapshot{
		Files:           files,
		OpenTabs:        tabs,
		ActiveTabID:     w.active,
		ExpandedFolders: expanded,
	}
}

// Save persists the current snapshot. Failure degrades to memory-only.
func (w *Workspace) Save() {
	w.mu.Lock()
	snap := w.snapshotLocked()
	w.mu.Unlock()
	if err := w.store.Save(snap); err != nil {
		w.log.Warn(context.Background(), err, "snapshot save failed, continuing in memory")
	}
}

// CreateFile creates a file and opens it in a tab.
func (w *Workspace) CreateFile(parentID, name string) (string, error) {
	id, err := w.Tree.CreateFile(parentID, name)
	if err != nil {
		return "", err
	}
	w.OpenFile(id)
	return id, nil
}

// CreateFolder creates a folder and expands it.
func (w *Workspace) CreateFolder(parentID, name string) (string, error) {
	id, err := w.Tree.CreateFolder(parentID, name)
	if err != nil {
		return "", err
	}
	w.mu.Lock()
	w.expanded[id] = struct{}{}
	w.mu.Unlock()
	w.Save()
	return id, nil
}

// Delete removes a node and heals every view that referenced it.
func (w *Workspace) Delete(id string) error {
	if err := w.Tree.Delete(id); err != nil {
		return err
	}
	w.mu.Lock()
	kept := w.openTabs[:0]
	for _, tab := range w.openTabs {
		if w.Tree.Exists(tab) {
			kept = append(kept, tab)
		}
	}
	w.openTabs = kept
	if !w.Tree.Exists(w.active) {
		w.active = ""
		if len(w.openTabs) > 0 {
			w.active = w.openTabs[0]
		}
	}
	for folder := range w.expanded {
		if !w.Tree.Exists(folder) {
			delete(w.expanded, folder)
		}
	}
	w.mu.Unlock()
	w.Save()
	return nil
}

// Rename renames a node.
func (w *Workspace) Rename(id, newName string) error {
	if err := w.Tree.Rename(id, newName); err != nil {
		return err
	}
	w.Save()
	return nil
}

// Move reparents a node.
func (w *Workspace) Move(id, newParentID string) error {
	if err := w.Tree.Move(id, newParentID); err != nil {
		return err
	}
	w.Save()
	return nil
}

// Write updates file content. Content stays dirty until MarkSaved or
// SaveAll; the snapshot is still written so a crash loses nothing.
func (w *Workspace) Write(id, content string) error {
	if err := w.Tree.Write(id, content); err != nil {
		return err
	}
	w.Save()
	return nil
}

// MarkSaved clears one file's dirty flag and persists.
func (w *Workspace) MarkSaved(id string) {
	w.Tree.MarkSaved(id)
	w.Save()
}

// SaveAll clears every dirty flag and persists.
func (w *Workspace) SaveAll() {
	w.Tree.SaveAll()
	w.Save()
}

// OpenFile adds id to the tab list and makes it active.
func (w *Workspace) OpenFile(id string) {
	if !w.Tree.Exists(id) {
		return
	}
	w.mu.Lock()
	found := false
	for _, tab := range w.openTabs {
		if tab == id {
			found = true
			break
		}
	}
	if !found {
		w.openTabs = append(w.openTabs, id)
	}
	w.active = id
	w.mu.Unlock()
	w.Save()
}

// CloseTab removes id from the tab list, shifting the active tab to the
// last remaining one.
func (w *Workspace) CloseTab(id string) {
	w.mu.Lock()
	kept := w.openTabs[:0]
	for _, tab := range w.openTabs {
		if tab != id {
			kept = append(kept, tab)
		}
	}
	w.openTabs = kept
	if w.active == id {
		w.active = ""
		if len(w.openTabs) > 0 {
			w.active = w.openTabs[len(w.openTabs)-1]
		}
	}
	w.mu.Unlock()
	w.Save()
}

// OpenTabs returns the open tab ids in order.
func (w *Workspace) OpenTabs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.openTabs))
	copy(out, w.openTabs)
	return out
}

// ActiveTab returns the active tab id, empty when none.
func (w *Workspace) ActiveTab() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// ToggleFolder flips a folder's expanded state.
func (w *Workspace) ToggleFolder(id string) {
	w.mu.Lock()
	if _, ok := w.expanded[id]; ok {
		delete(w.expanded, id)
	} else {
		w.expanded[id] = struct{}{}
	}
	w.mu.Unlock()
	w.Save()
}

// IsExpanded reports a folder's expanded state.
func (w *Workspace) IsExpanded(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.expanded[id]
	return ok
}

// Replace swaps in a different tree (archive import) and resets views.
func (w *Workspace) Replace(tree *vfs.Tree) {
	w.mu.Lock()
	w.Tree = tree
	w.openTabs = nil
	w.active = ""
	w.expanded = map[string]struct{}{vfs.RootID: {}}
	w.mu.Unlock()
	w.Save()
}
