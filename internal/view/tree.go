package view

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrTargetMissing = errors.New("patch target id not found")
	ErrDuplicateID   = errors.New("duplicate node id")
	ErrEmptyID       = errors.New("node id is empty")
	ErrRemoveRoot    = errors.New("cannot remove the root node")
	ErrBadPatch      = errors.New("malformed patch")
)

// Tree is the live view tree plus an id index, so patch application is a
// map lookup rather than a walk and a missing target id is a clean index
// miss.
type Tree struct {
	root   *Node
	nodes  map[string]*Node
	parent map[string]*Node
}

// NewTree indexes root and its descendants, including background and
// overlay auxiliary nodes. Every id must be non-empty and unique.
func NewTree(root *Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: nil root", ErrBadPatch)
	}
	t := &Tree{
		nodes:  map[string]*Node{},
		parent: map[string]*Node{},
	}
	entries, err := collectSubtree(root, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := t.checkInsertable(entries, nil); err != nil {
		return nil, err
	}
	t.commit(entries)
	t.root = root
	return t, nil
}

func (t *Tree) Root() *Node { return t.root }

func (t *Tree) Lookup(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len is the number of indexed nodes, auxiliary nodes included.
func (t *Tree) Len() int { return len(t.nodes) }

// Apply mutates the tree with patches in strict list order. Later patches
// may target nodes introduced or removed by earlier ones in the same
// batch. The first failing patch aborts the remainder; patches already
// applied stay applied, and the caller re-renders to recover.
func (t *Tree) Apply(patches []Patch) error {
	for i := range patches {
		if err := t.applyOne(&patches[i]); err != nil {
			return fmt.Errorf("patch %d (%s): %w", i, patches[i].Op, err)
		}
	}
	return nil
}

func (t *Tree) applyOne(p *Patch) error {
	switch p.Op {
	case OpReplace:
		return t.applyReplace(p)
	case OpProps:
		return t.applyProps(p)
	case OpModifiers:
		return t.applyModifiers(p)
	case OpInsert:
		return t.applyInsert(p)
	case OpRemove:
		return t.applyRemove(p)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrBadPatch, p.Op)
	}
}

func (t *Tree) applyReplace(p *Patch) error {
	if p.Node == nil {
		return fmt.Errorf("%w: replace requires a node", ErrBadPatch)
	}
	target, ok := t.nodes[p.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTargetMissing, p.ID)
	}
	parent := t.parent[p.ID]

	removed := map[string]struct{}{}
	for _, e := range mustCollect(target) {
		removed[e.node.ID] = struct{}{}
	}
	entries, err := collectSubtree(p.Node, parent, nil)
	if err != nil {
		return err
	}
	// The replacement may reuse any id it is displacing.
	if err := t.checkInsertable(entries, removed); err != nil {
		return err
	}

	for id := range removed {
		delete(t.nodes, id)
		delete(t.parent, id)
	}
	t.commit(entries)
	if target == t.root {
		t.root = p.Node
		return nil
	}
	swapChildPointer(parent, target, p.Node)
	return nil
}

func (t *Tree) applyProps(p *Patch) error {
	node, ok := t.nodes[p.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTargetMissing, p.ID)
	}
	merged, err := MergeProps(node.Kind, node.Props, p.Props)
	if err != nil {
		return err
	}
	node.Props = merged
	return nil
}

func (t *Tree) applyModifiers(p *Patch) error {
	node, ok := t.nodes[p.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTargetMissing, p.ID)
	}
	node.Modifiers = slices.Clone(p.Modifiers)
	return nil
}

func (t *Tree) applyInsert(p *Patch) error {
	if p.Node == nil {
		return fmt.Errorf("%w: insert requires a node", ErrBadPatch)
	}
	parent, ok := t.nodes[p.ParentID]
	if !ok {
		return fmt.Errorf("%w: parent %q", ErrTargetMissing, p.ParentID)
	}
	entries, err := collectSubtree(p.Node, parent, nil)
	if err != nil {
		return err
	}
	if err := t.checkInsertable(entries, nil); err != nil {
		return err
	}
	t.commit(entries)

	idx := len(parent.Children)
	if p.Index != nil {
		idx = min(max(*p.Index, 0), len(parent.Children))
	}
	parent.Children = slices.Insert(parent.Children, idx, p.Node)
	return nil
}

func (t *Tree) applyRemove(p *Patch) error {
	target, ok := t.nodes[p.ID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTargetMissing, p.ID)
	}
	if target == t.root {
		return fmt.Errorf("%w: %q", ErrRemoveRoot, p.ID)
	}
	parent := t.parent[p.ID]
	switch {
	case parent.Background == target:
		parent.Background = nil
	case parent.Overlay == target:
		parent.Overlay = nil
	default:
		for i, c := range parent.Children {
			if c == target {
				parent.Children = slices.Delete(parent.Children, i, i+1)
				break
			}
		}
	}
	for _, e := range mustCollect(target) {
		delete(t.nodes, e.node.ID)
		delete(t.parent, e.node.ID)
	}
	return nil
}

type indexEntry struct {
	node   *Node
	parent *Node
}

func collectSubtree(n, parent *Node, out []indexEntry) ([]indexEntry, error) {
	if n == nil {
		return out, nil
	}
	if n.ID == "" {
		return nil, ErrEmptyID
	}
	out = append(out, indexEntry{node: n, parent: parent})
	var err error
	for _, c := range n.Children {
		if out, err = collectSubtree(c, n, out); err != nil {
			return nil, err
		}
	}
	if out, err = collectSubtree(n.Background, n, out); err != nil {
		return nil, err
	}
	if out, err = collectSubtree(n.Overlay, n, out); err != nil {
		return nil, err
	}
	return out, nil
}

// mustCollect walks an already-indexed subtree, so its ids are known good.
func mustCollect(n *Node) []indexEntry {
	out, err := collectSubtree(n, nil, nil)
	if err != nil {
		panic(err)
	}
	return out
}

// checkInsertable verifies no entry id collides with the current index
// (minus excluded) or with another entry in the same batch.
func (t *Tree) checkInsertable(entries []indexEntry, excluded map[string]struct{}) error {
	seen := map[string]struct{}{}
	for _, e := range entries {
		id := e.node.ID
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		if _, exists := t.nodes[id]; exists {
			if _, ok := excluded[id]; !ok {
				return fmt.Errorf("%w: %q", ErrDuplicateID, id)
			}
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (t *Tree) commit(entries []indexEntry) {
	for _, e := range entries {
		t.nodes[e.node.ID] = e.node
		if e.parent != nil {
			t.parent[e.node.ID] = e.parent
		}
	}
}

func swapChildPointer(parent, old, replacement *Node) {
	if parent == nil {
		return
	}
	switch {
	case parent.Background == old:
		parent.Background = replacement
	case parent.Overlay == old:
		parent.Overlay = replacement
	default:
		for i, c := range parent.Children {
			if c == old {
				parent.Children[i] = replacement
				return
			}
		}
	}
}
