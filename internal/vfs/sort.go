package vfs

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collator orders names the way a file explorer does. Collation is not
// safe for concurrent use, so access is funneled through SortedChildren's
// tree lock.
var collator = collate.New(language.English, collate.IgnoreCase)

// SortedChildren returns copies of id's children in display order:
// folders first, then files, each group in collated name order. Display
// order is recomputed on every call and never stored.
func (t *Tree) SortedChildren(id string) []Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.nodes[id]
	if !ok || !parent.IsFolder() {
		return nil
	}
	children := make([]*Node, 0, len(parent.ChildrenIDs))
	for _, cid := range parent.ChildrenIDs {
		if child, ok := t.nodes[cid]; ok {
			children = append(children, child)
		}
	}
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.Kind != b.Kind {
			return a.Kind == KindFolder
		}
		return collator.CompareString(a.Name, b.Name) < 0
	})
	out := make([]Node, len(children))
	for i, c := range children {
		out[i] = c.clone()
	}
	return out
}
