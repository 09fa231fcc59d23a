package vfs

// FromNodes rebuilds a tree from a persisted node map. The map is
// validated rather than trusted: a missing root yields a fresh empty
// tree, nodes whose parent chain does not reach the root are dropped,
// a child whose name collides with an already-kept sibling is dropped,
// and child lists are relinked to contain only surviving ids.
func FromNodes(nodes map[string]Node) *Tree {
	t := New()
	src, ok := nodes[RootID]
	if !ok {
		return t
	}
	root := src.clone()
	root.ParentID = ""
	root.Kind = KindFolder
	t.nodes[RootID] = &root

	// Copy reachable nodes top-down so every kept node has a kept parent.
	var walk func(parent *Node)
	walk = func(parent *Node) {
		kept := parent.ChildrenIDs[:0]
		seen := make(map[string]struct{}, len(parent.ChildrenIDs))
		for _, cid := range parent.ChildrenIDs {
			child, ok := nodes[cid]
			if !ok || cid == RootID || child.ParentID != parent.ID {
				continue
			}
			// Sibling names stay unique; a hand-edited snapshot with a
			// duplicate keeps only the first occurrence.
			if _, dup := seen[child.Name]; dup {
				continue
			}
			seen[child.Name] = struct{}{}
			c := child.clone()
			if c.Kind != KindFolder {
				c.Kind = KindFile
				c.ChildrenIDs = nil
			}
			t.nodes[cid] = &c
			kept = append(kept, cid)
			if c.IsFolder() {
				walk(&c)
			}
		}
		parent.ChildrenIDs = kept
	}
	walk(&root)
	return t
}
