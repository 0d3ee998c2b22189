package view

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"viewlink/internal/codec"
)

// Kind identifies what category of view a node is. The set is closed;
// props decoding dispatches on it.
type Kind string

const (
	KindText       Kind = "text"
	KindButton     Kind = "button"
	KindVStack     Kind = "vstack"
	KindHStack     Kind = "hstack"
	KindZStack     Kind = "zstack"
	KindTextField  Kind = "textField"
	KindToggle     Kind = "toggle"
	KindSlider     Kind = "slider"
	KindPicker     Kind = "picker"
	KindImage      Kind = "image"
	KindSpacer     Kind = "spacer"
	KindDivider    Kind = "divider"
	KindScrollView Kind = "scrollView"
	KindList       Kind = "list"
	KindGauge      Kind = "gauge"
	KindProgress   Kind = "progress"
	KindWebView    Kind = "webView"
)

var ErrUnknownNodeKind = errors.New("unknown node kind")

// Node is one element of the declarative UI tree. IDs are assigned by the
// producer, unique within a tree, and stable across patches that mutate
// rather than replace the node.
type Node struct {
	ID   string
	Kind Kind

	// Props has the concrete type registered for Kind; nil for kinds
	// without properties (spacer, divider).
	Props Props

	// Children render in order.
	Children []*Node

	// Modifiers compose like a pipeline, applied in list order.
	Modifiers []Modifier

	// Background and Overlay are auxiliary nodes rendered behind and
	// above the node's own content. They are not part of Children.
	Background *Node
	Overlay    *Node

	// Slot names this node as filling a named sub-position in its
	// parent, e.g. a gauge's "minLabel".
	Slot string

	// Animation is sticky per-node animation configuration applied to
	// all future property changes on this node.
	Animation *AnimationContext
}

// AnimationContext configures how property changes animate.
type AnimationContext struct {
	Curve      string   `msgpack:"curve"`
	DurationMS float64  `msgpack:"durationMs,omitempty"`
	Damping    *float64 `msgpack:"damping,omitempty"`
	Stiffness  *float64 `msgpack:"stiffness,omitempty"`
}

const (
	CurveLinear    = "linear"
	CurveEaseIn    = "easeIn"
	CurveEaseOut   = "easeOut"
	CurveEaseInOut = "easeInOut"
	CurveSpring    = "spring"
)

type nodeWire struct {
	ID         string             `msgpack:"id"`
	Kind       Kind               `msgpack:"kind"`
	Props      msgpack.RawMessage `msgpack:"props,omitempty"`
	Children   []*Node            `msgpack:"children,omitempty"`
	Modifiers  []Modifier         `msgpack:"modifiers,omitempty"`
	Background *Node              `msgpack:"background,omitempty"`
	Overlay    *Node              `msgpack:"overlay,omitempty"`
	Slot       string             `msgpack:"slot,omitempty"`
	Animation  *AnimationContext  `msgpack:"animation,omitempty"`
}

var (
	_ msgpack.CustomEncoder = (*Node)(nil)
	_ msgpack.CustomDecoder = (*Node)(nil)
)

func (n *Node) EncodeMsgpack(enc *msgpack.Encoder) error {
	w := nodeWire{
		ID:         n.ID,
		Kind:       n.Kind,
		Children:   n.Children,
		Modifiers:  n.Modifiers,
		Background: n.Background,
		Overlay:    n.Overlay,
		Slot:       n.Slot,
		Animation:  n.Animation,
	}
	if n.Props != nil {
		raw, err := codec.Marshal(n.Props)
		if err != nil {
			return fmt.Errorf("encode props of %q: %w", n.ID, err)
		}
		w.Props = raw
	}
	return enc.Encode(w)
}

func (n *Node) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w nodeWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	props, err := DecodeProps(w.Kind, w.Props)
	if err != nil {
		return fmt.Errorf("node %q: %w", w.ID, err)
	}
	*n = Node{
		ID:         w.ID,
		Kind:       w.Kind,
		Props:      props,
		Children:   w.Children,
		Modifiers:  w.Modifiers,
		Background: w.Background,
		Overlay:    w.Overlay,
		Slot:       w.Slot,
		Animation:  w.Animation,
	}
	return nil
}
