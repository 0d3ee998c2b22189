package view

import "github.com/vmihailenco/msgpack/v5"

// PatchOp enumerates the tree mutations.
type PatchOp string

const (
	// OpReplace discards the subtree rooted at ID and substitutes Node.
	// Replacing the root id swaps the whole tree.
	OpReplace PatchOp = "replace"
	// OpProps merges a partial property map into the node's props.
	OpProps PatchOp = "props"
	// OpModifiers replaces the node's modifier list wholesale.
	OpModifiers PatchOp = "modifiers"
	// OpInsert adds Node as a child of ParentID. A nil Index appends;
	// otherwise the index is clamped to [0, len(children)].
	OpInsert PatchOp = "insert"
	// OpRemove detaches the node and its subtree.
	OpRemove PatchOp = "remove"
)

// Patch is one tree mutation. Which fields are meaningful depends on Op:
// replace uses ID+Node, props uses ID+Props, modifiers uses ID+Modifiers,
// insert uses ParentID+Node+Index, remove uses ID alone.
type Patch struct {
	Op        PatchOp            `msgpack:"op"`
	ID        string             `msgpack:"id,omitempty"`
	Node      *Node              `msgpack:"node,omitempty"`
	Props     msgpack.RawMessage `msgpack:"props,omitempty"`
	Modifiers []Modifier         `msgpack:"modifiers,omitempty"`
	ParentID  string             `msgpack:"parentId,omitempty"`
	Index     *int               `msgpack:"index,omitempty"`
}
