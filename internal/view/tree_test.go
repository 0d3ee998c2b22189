package view

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"viewlink/internal/codec"
)

func textNode(id, content string) *Node {
	return &Node{ID: id, Kind: KindText, Props: &TextProps{Content: content}}
}

func counterTree(t *testing.T) *Tree {
	t.Helper()
	root := &Node{
		ID:   "root",
		Kind: KindVStack,
		Children: []*Node{
			textNode("t1", "0"),
			{ID: "inc", Kind: KindButton, Props: &ButtonProps{Label: "+"}},
		},
	}
	tree, err := NewTree(root)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	return tree
}

func TestNewTree_RejectsDuplicateIDs(t *testing.T) {
	root := &Node{ID: "root", Kind: KindVStack, Children: []*Node{
		textNode("a", "1"),
		textNode("a", "2"),
	}}
	if _, err := NewTree(root); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestNewTree_IndexesAuxiliaryNodes(t *testing.T) {
	root := &Node{
		ID:         "root",
		Kind:       KindZStack,
		Background: textNode("bg", "behind"),
		Overlay:    textNode("ov", "above"),
	}
	tree, err := NewTree(root)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	if _, ok := tree.Lookup("bg"); !ok {
		t.Fatal("background node not indexed")
	}
	if _, ok := tree.Lookup("ov"); !ok {
		t.Fatal("overlay node not indexed")
	}
	if tree.Len() != 3 {
		t.Fatalf("expected 3 indexed nodes, got %d", tree.Len())
	}
}

func TestApply_EmptyBatchIsIdentity(t *testing.T) {
	tree := counterTree(t)
	before, err := codec.Marshal(tree.Root())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := tree.Apply(nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	after, err := codec.Marshal(tree.Root())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("empty patch list changed the encoded tree")
	}
}

func TestApply_PropsMergeKeepsOtherFields(t *testing.T) {
	root := &Node{ID: "f", Kind: KindTextField, Props: &TextFieldProps{
		Value:       "hello",
		Placeholder: "type here",
	}}
	tree, err := NewTree(root)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	err = tree.Apply([]Patch{{
		Op:    OpProps,
		ID:    "f",
		Props: codec.MustRaw(map[string]any{"value": "world"}),
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	got := tree.Root().Props.(*TextFieldProps)
	if got.Value != "world" {
		t.Fatalf("value not patched: %q", got.Value)
	}
	if got.Placeholder != "type here" {
		t.Fatalf("untouched field lost: %q", got.Placeholder)
	}
}

func TestApply_PropsDoesNotTouchChildrenOrModifiers(t *testing.T) {
	tree := counterTree(t)
	node, _ := tree.Lookup("root")
	node.Modifiers = []Modifier{{Kind: ModOpacity, Opacity: f64(0.5)}}

	err := tree.Apply([]Patch{{
		Op:    OpProps,
		ID:    "root",
		Props: codec.MustRaw(map[string]any{"spacing": 8.0}),
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(node.Children) != 2 {
		t.Fatalf("children changed: %d", len(node.Children))
	}
	if len(node.Modifiers) != 1 {
		t.Fatalf("modifiers changed: %d", len(node.Modifiers))
	}
}

func TestApply_PropsRejectsUnknownField(t *testing.T) {
	tree := counterTree(t)
	err := tree.Apply([]Patch{{
		Op:    OpProps,
		ID:    "t1",
		Props: codec.MustRaw(map[string]any{"nonsense": 1}),
	}})
	if err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestApply_ModifiersReplaceWholesale(t *testing.T) {
	tree := counterTree(t)
	node, _ := tree.Lookup("t1")
	node.Modifiers = []Modifier{
		{Kind: ModPadding, Top: f64(4)},
		{Kind: ModOpacity, Opacity: f64(0.9)},
	}
	err := tree.Apply([]Patch{{
		Op:        OpModifiers,
		ID:        "t1",
		Modifiers: []Modifier{{Kind: ModCornerRadius, Radius: f64(6)}},
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(node.Modifiers) != 1 || node.Modifiers[0].Kind != ModCornerRadius {
		t.Fatalf("expected wholesale replacement, got %+v", node.Modifiers)
	}
}

func TestApply_InsertAppendsWithoutIndex(t *testing.T) {
	tree := counterTree(t)
	err := tree.Apply([]Patch{{
		Op:       OpInsert,
		ParentID: "root",
		Node:     textNode("t2", "new"),
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	kids := tree.Root().Children
	if kids[len(kids)-1].ID != "t2" {
		t.Fatalf("expected append, children: %v", ids(kids))
	}
	if _, ok := tree.Lookup("t2"); !ok {
		t.Fatal("inserted node not indexed")
	}
}

func TestApply_InsertClampsIndex(t *testing.T) {
	tree := counterTree(t)
	idx := 99
	err := tree.Apply([]Patch{{
		Op:       OpInsert,
		ParentID: "root",
		Node:     textNode("t2", "x"),
		Index:    &idx,
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	kids := tree.Root().Children
	if kids[len(kids)-1].ID != "t2" {
		t.Fatalf("out-of-range index should clamp to append, children: %v", ids(kids))
	}

	zero := 0
	err = tree.Apply([]Patch{{
		Op:       OpInsert,
		ParentID: "root",
		Node:     textNode("t0", "first"),
		Index:    &zero,
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if tree.Root().Children[0].ID != "t0" {
		t.Fatalf("index 0 should prepend, children: %v", ids(tree.Root().Children))
	}
}

func TestApply_RemoveDetachesSubtreeAndIndex(t *testing.T) {
	tree := counterTree(t)
	if err := tree.Apply([]Patch{{Op: OpRemove, ID: "t1"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, ok := tree.Lookup("t1"); ok {
		t.Fatal("removed node still indexed")
	}
	if len(tree.Root().Children) != 1 {
		t.Fatalf("children: %v", ids(tree.Root().Children))
	}
}

func TestApply_RemoveAuxiliaryClearsReference(t *testing.T) {
	root := &Node{ID: "root", Kind: KindZStack, Overlay: textNode("ov", "x")}
	tree, err := NewTree(root)
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	if err := tree.Apply([]Patch{{Op: OpRemove, ID: "ov"}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if tree.Root().Overlay != nil {
		t.Fatal("overlay reference left dangling")
	}
}

func TestApply_RemoveRootIsError(t *testing.T) {
	tree := counterTree(t)
	if err := tree.Apply([]Patch{{Op: OpRemove, ID: "root"}}); !errors.Is(err, ErrRemoveRoot) {
		t.Fatalf("expected ErrRemoveRoot, got %v", err)
	}
}

func TestApply_OrderSensitivity_RemoveThenReinsertSameID(t *testing.T) {
	tree := counterTree(t)
	err := tree.Apply([]Patch{
		{Op: OpRemove, ID: "t1"},
		{Op: OpInsert, ParentID: "root", Node: textNode("t1", "reborn")},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	node, ok := tree.Lookup("t1")
	if !ok {
		t.Fatal("re-inserted node missing")
	}
	if got := node.Props.(*TextProps).Content; got != "reborn" {
		t.Fatalf("final tree must reflect the re-insert, got %q", got)
	}
}

func TestApply_ReplaceSwapsSubtree(t *testing.T) {
	tree := counterTree(t)
	replacement := &Node{ID: "t1", Kind: KindHStack, Children: []*Node{
		textNode("t1a", "left"),
		textNode("t1b", "right"),
	}}
	if err := tree.Apply([]Patch{{Op: OpReplace, ID: "t1", Node: replacement}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, ok := tree.Lookup("t1")
	if !ok || got.Kind != KindHStack {
		t.Fatalf("replacement not in place: %+v", got)
	}
	if _, ok := tree.Lookup("t1b"); !ok {
		t.Fatal("replacement descendants not indexed")
	}
	if tree.Root().Children[0] != replacement {
		t.Fatal("parent still points at the old subtree")
	}
}

func TestApply_ReplaceRootSwapsWholeTree(t *testing.T) {
	tree := counterTree(t)
	fresh := textNode("root", "only")
	if err := tree.Apply([]Patch{{Op: OpReplace, ID: "root", Node: fresh}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if tree.Root() != fresh {
		t.Fatal("root not swapped")
	}
	if _, ok := tree.Lookup("t1"); ok {
		t.Fatal("old subtree ids still indexed")
	}
	if tree.Len() != 1 {
		t.Fatalf("expected 1 indexed node, got %d", tree.Len())
	}
}

func TestApply_AbortsBatchOnMissingTarget(t *testing.T) {
	tree := counterTree(t)
	err := tree.Apply([]Patch{
		{Op: OpProps, ID: "t1", Props: codec.MustRaw(map[string]any{"content": "applied"})},
		{Op: OpRemove, ID: "ghost"},
		{Op: OpProps, ID: "t1", Props: codec.MustRaw(map[string]any{"content": "never"})},
	})
	if !errors.Is(err, ErrTargetMissing) {
		t.Fatalf("expected ErrTargetMissing, got %v", err)
	}
	// Preceding patches stay applied; the failing patch and everything
	// after it do not.
	node, _ := tree.Lookup("t1")
	if got := node.Props.(*TextProps).Content; got != "applied" {
		t.Fatalf("prefix not applied, content: %q", got)
	}
}

func TestApply_CounterScenario(t *testing.T) {
	tree, err := NewTree(textNode("t1", "0"))
	if err != nil {
		t.Fatalf("new tree: %v", err)
	}
	err = tree.Apply([]Patch{{
		Op:    OpProps,
		ID:    "t1",
		Props: codec.MustRaw(map[string]any{"content": "1"}),
	}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	node, _ := tree.Lookup("t1")
	if node.Kind != KindText {
		t.Fatalf("kind changed: %q", node.Kind)
	}
	if got := node.Props.(*TextProps).Content; got != "1" {
		t.Fatalf("content: %q", got)
	}
}

func TestNode_EncodeDecodeRoundTrip(t *testing.T) {
	root := &Node{
		ID:   "root",
		Kind: KindVStack,
		Props: &StackProps{
			Spacing:   f64(12),
			Alignment: "leading",
		},
		Modifiers: []Modifier{
			{Kind: ModPadding, Top: f64(8), Leading: f64(8)},
			{Kind: ModBackground, Color: "#202020"},
		},
		Background: textNode("bg", "behind"),
		Children: []*Node{
			{
				ID:    "g",
				Kind:  KindGauge,
				Props: &GaugeProps{Value: 0.4, Min: 0, Max: 1},
				Children: []*Node{
					{ID: "gmin", Kind: KindText, Props: &TextProps{Content: "0"}, Slot: "minLabel"},
					{ID: "gmax", Kind: KindText, Props: &TextProps{Content: "1"}, Slot: "maxLabel"},
				},
			},
			{
				ID:        "t",
				Kind:      KindText,
				Props:     &TextProps{Content: ""},
				Animation: &AnimationContext{Curve: CurveSpring, Damping: f64(0.8)},
			},
		},
	}
	b, err := codec.Marshal(root)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got Node
	if err := codec.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(root, &got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeProps_UnknownKindIsError(t *testing.T) {
	_, err := DecodeProps("hologram", codec.MustRaw(map[string]any{}))
	if !errors.Is(err, ErrUnknownNodeKind) {
		t.Fatalf("expected ErrUnknownNodeKind, got %v", err)
	}
}

func f64(v float64) *float64 { return &v }

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
