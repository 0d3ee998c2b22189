package view

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"viewlink/internal/codec"
)

// Props is a kind-scoped property bag. Concrete types are the *Props
// structs below; which one a node carries is determined by its kind,
// never by trial decode.
type Props interface {
	isProps()
}

type TextProps struct {
	Content  string   `msgpack:"content"`
	FontSize *float64 `msgpack:"fontSize,omitempty"`
	Weight   string   `msgpack:"weight,omitempty"`
	Color    string   `msgpack:"color,omitempty"`
}

type ButtonProps struct {
	Label    string `msgpack:"label"`
	Role     string `msgpack:"role,omitempty"`
	Disabled bool   `msgpack:"disabled,omitempty"`
}

// StackProps is shared by vstack, hstack, and zstack.
type StackProps struct {
	Spacing   *float64 `msgpack:"spacing,omitempty"`
	Alignment string   `msgpack:"alignment,omitempty"`
}

type TextFieldProps struct {
	Value       string `msgpack:"value"`
	Placeholder string `msgpack:"placeholder,omitempty"`
	Secure      bool   `msgpack:"secure,omitempty"`
}

type ToggleProps struct {
	Label string `msgpack:"label,omitempty"`
	On    bool   `msgpack:"on"`
}

type SliderProps struct {
	Value float64  `msgpack:"value"`
	Min   float64  `msgpack:"min"`
	Max   float64  `msgpack:"max"`
	Step  *float64 `msgpack:"step,omitempty"`
}

type PickerProps struct {
	Label    string   `msgpack:"label,omitempty"`
	Selected string   `msgpack:"selected,omitempty"`
	Options  []string `msgpack:"options,omitempty"`
}

type ImageProps struct {
	Source     string   `msgpack:"source"`
	Width      *float64 `msgpack:"width,omitempty"`
	Height     *float64 `msgpack:"height,omitempty"`
	ResizeMode string   `msgpack:"resizeMode,omitempty"`
}

type SpacerProps struct {
	MinLength *float64 `msgpack:"minLength,omitempty"`
}

type DividerProps struct{}

type ScrollViewProps struct {
	Axis            string `msgpack:"axis,omitempty"`
	ShowsIndicators *bool  `msgpack:"showsIndicators,omitempty"`
}

type ListProps struct {
	Style string `msgpack:"style,omitempty"`
}

// GaugeProps describes the value range; min/max labels arrive as
// slot-tagged children ("minLabel", "maxLabel").
type GaugeProps struct {
	Value float64 `msgpack:"value"`
	Min   float64 `msgpack:"min"`
	Max   float64 `msgpack:"max"`
	Label string  `msgpack:"label,omitempty"`
}

// ProgressProps with a nil Value renders indeterminate.
type ProgressProps struct {
	Value *float64 `msgpack:"value,omitempty"`
	Label string   `msgpack:"label,omitempty"`
}

type WebViewProps struct {
	URL string `msgpack:"url"`
}

func (*TextProps) isProps()       {}
func (*ButtonProps) isProps()     {}
func (*StackProps) isProps()      {}
func (*TextFieldProps) isProps()  {}
func (*ToggleProps) isProps()     {}
func (*SliderProps) isProps()     {}
func (*PickerProps) isProps()     {}
func (*ImageProps) isProps()      {}
func (*SpacerProps) isProps()     {}
func (*DividerProps) isProps()    {}
func (*ScrollViewProps) isProps() {}
func (*ListProps) isProps()       {}
func (*GaugeProps) isProps()      {}
func (*ProgressProps) isProps()   {}
func (*WebViewProps) isProps()    {}

var propsFactory = map[Kind]func() Props{
	KindText:       func() Props { return &TextProps{} },
	KindButton:     func() Props { return &ButtonProps{} },
	KindVStack:     func() Props { return &StackProps{} },
	KindHStack:     func() Props { return &StackProps{} },
	KindZStack:     func() Props { return &StackProps{} },
	KindTextField:  func() Props { return &TextFieldProps{} },
	KindToggle:     func() Props { return &ToggleProps{} },
	KindSlider:     func() Props { return &SliderProps{} },
	KindPicker:     func() Props { return &PickerProps{} },
	KindImage:      func() Props { return &ImageProps{} },
	KindSpacer:     func() Props { return &SpacerProps{} },
	KindDivider:    func() Props { return &DividerProps{} },
	KindScrollView: func() Props { return &ScrollViewProps{} },
	KindList:       func() Props { return &ListProps{} },
	KindGauge:      func() Props { return &GaugeProps{} },
	KindProgress:   func() Props { return &ProgressProps{} },
	KindWebView:    func() Props { return &WebViewProps{} },
}

// PropsForKind returns a fresh, zero-valued props struct for kind.
func PropsForKind(kind Kind) (Props, bool) {
	factory, ok := propsFactory[kind]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// DecodeProps decodes raw into the props type registered for kind. An
// empty raw yields nil props. Unknown map keys are decode errors so a
// mis-shaped bag fails loudly instead of partially applying.
func DecodeProps(kind Kind, raw msgpack.RawMessage) (Props, error) {
	if _, ok := propsFactory[kind]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeKind, kind)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	p, _ := PropsForKind(kind)
	if err := codec.UnmarshalStrict(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s props: %w", kind, err)
	}
	return p, nil
}

// MergeProps folds a partial property map into existing props for kind.
// Fields absent from delta keep their current value; fields present
// overwrite. The merged map is re-decoded through the kind's typed
// schema, so a field the kind does not declare is an error.
func MergeProps(kind Kind, existing Props, delta msgpack.RawMessage) (Props, error) {
	if len(delta) == 0 {
		return existing, nil
	}
	current := map[string]msgpack.RawMessage{}
	if existing != nil {
		b, err := codec.Marshal(existing)
		if err != nil {
			return nil, fmt.Errorf("encode existing props: %w", err)
		}
		if err := codec.Unmarshal(b, &current); err != nil {
			return nil, fmt.Errorf("explode existing props: %w", err)
		}
	}
	var patch map[string]msgpack.RawMessage
	if err := codec.Unmarshal(delta, &patch); err != nil {
		return nil, fmt.Errorf("decode props delta: %w", err)
	}
	for k, v := range patch {
		current[k] = v
	}
	merged, err := codec.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encode merged props: %w", err)
	}
	return DecodeProps(kind, merged)
}
