package vfs

import "strings"

// FullPath derives the absolute path of id by walking the parent chain.
// The root maps to "/". Paths are stable for identical trees because
// sibling names are unique.
func (t *Tree) FullPath(id string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.nodes[id]
	if !ok {
		return "", ErrNotFound
	}
	if n.ID == RootID {
		return "/", nil
	}
	var parts []string
	for n != nil && n.ID != RootID {
		parts = append(parts, n.Name)
		n = t.nodes[n.ParentID]
	}
	if n == nil {
		// Orphaned chain; the tree never produces this by construction.
		return "", ErrNotFound
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return b.String(), nil
}

// Resolve walks path from the root, matching child names segment by
// segment. Empty segments and "." are skipped. Both "/a/b" and "a/b"
// resolve the same node; "/" resolves the root.
func (t *Tree) Resolve(path string) (Node, bool) {
	parts := splitPath(path)

	t.mu.RLock()
	defer t.mu.RUnlock()

	cur := t.nodes[RootID]
	for _, seg := range parts {
		next := t.childByNameLocked(cur, seg)
		if next == nil {
			return Node{}, false
		}
		cur = next
	}
	return cur.clone(), true
}

// DeleteByPath removes the node at path, recursively for folders.
func (t *Tree) DeleteByPath(path string) error {
	n, ok := t.Resolve(path)
	if !ok {
		return ErrNotFound
	}
	return t.Delete(n.ID)
}

// FilePaths returns the full path of every file in the tree, without the
// leading slash, in no particular order.
func (t *Tree) FilePaths() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.nodes))
	for id, n := range t.nodes {
		if n.Kind == KindFile {
			ids = append(ids, id)
		}
	}
	t.mu.RUnlock()

	paths := make([]string, 0, len(ids))
	for _, id := range ids {
		p, err := t.FullPath(id)
		if err != nil {
			continue
		}
		paths = append(paths, strings.TrimPrefix(p, "/"))
	}
	return paths
}
