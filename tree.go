package filemap

import "context"

// Tree is the hierarchy-shaped, lazily evaluated view of a file map.
// Interior nodes are navigated by tag name and tag value; leaves hold
// the same memoized entries as the flat DataFiles view, so a filename
// loads at most once no matter which view reaches it first.
type Tree struct {
	children map[string]*Tree
	order    []string

	leaves    map[string]*lazyEntry
	leafOrder []string
}

// buildTree mirrors the skeleton structurally, wiring each leaf to the
// shared memoized entry for its relative filename. Nothing is loaded
// here; accessing one leaf never evaluates a sibling.
func buildTree(skel *skelNode, entries map[string]*lazyEntry) *Tree {
	t := &Tree{}

	for _, key := range skel.order {
		if t.children == nil {
			t.children = make(map[string]*Tree)
		}
		t.children[key] = buildTree(skel.children[key], entries)
		t.order = append(t.order, key)
	}

	for _, key := range skel.leafOrder {
		if t.leaves == nil {
			t.leaves = make(map[string]*lazyEntry)
		}
		t.leaves[key] = entries[skel.leaves[key].relpath]
		t.leafOrder = append(t.leafOrder, key)
	}

	return t
}

// Child descends one level, returning nil for an unknown key.
func (t *Tree) Child(key string) *Tree {
	if t == nil {
		return nil
	}
	return t.children[key]
}

// At walks a key path through the tree.
func (t *Tree) At(keys ...string) *Tree {
	node := t
	for _, key := range keys {
		node = node.Child(key)
	}
	return node
}

// Keys lists this node's child keys in declaration order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	return t.order
}

// Leaves lists this node's leaf keys in declaration order.
func (t *Tree) Leaves() []string {
	if t == nil {
		return nil
	}
	return t.leafOrder
}

// Leaf evaluates the named leaf, loading its file on first access.
func (t *Tree) Leaf(ctx context.Context, key string) (any, error) {
	if t == nil || t.leaves == nil {
		return nil, ErrNotDeclared
	}

	entry, ok := t.leaves[key]
	if !ok {
		return nil, ErrNotDeclared
	}

	return entry.Value(ctx)
}
