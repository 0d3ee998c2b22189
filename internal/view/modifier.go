package view

// Modifier is one visual or behavioral transform attached to a node.
// Modifiers compose like a pipeline: the list is applied in order, and a
// patch replaces the whole list, never merges it.
type Modifier struct {
	Kind string `msgpack:"kind"`

	// frame
	Width  *float64 `msgpack:"width,omitempty"`
	Height *float64 `msgpack:"height,omitempty"`

	// padding
	Top      *float64 `msgpack:"top,omitempty"`
	Leading  *float64 `msgpack:"leading,omitempty"`
	Bottom   *float64 `msgpack:"bottom,omitempty"`
	Trailing *float64 `msgpack:"trailing,omitempty"`

	// foreground / background / shadow
	Color string `msgpack:"color,omitempty"`

	// cornerRadius, shadow
	Radius *float64 `msgpack:"radius,omitempty"`
	X      *float64 `msgpack:"x,omitempty"`
	Y      *float64 `msgpack:"y,omitempty"`

	Opacity   *float64 `msgpack:"opacity,omitempty"`
	BlendMode string   `msgpack:"blendMode,omitempty"`

	ScaleX *float64 `msgpack:"scaleX,omitempty"`
	ScaleY *float64 `msgpack:"scaleY,omitempty"`

	OffsetX *float64 `msgpack:"offsetX,omitempty"`
	OffsetY *float64 `msgpack:"offsetY,omitempty"`

	Animation  *AnimationContext `msgpack:"animation,omitempty"`
	Transition string            `msgpack:"transition,omitempty"`
}

const (
	ModFrame        = "frame"
	ModPadding      = "padding"
	ModForeground   = "foreground"
	ModBackground   = "background"
	ModCornerRadius = "cornerRadius"
	ModShadow       = "shadow"
	ModOpacity      = "opacity"
	ModBlendMode    = "blendMode"
	ModScale        = "scale"
	ModOffset       = "offset"
	ModAnimation    = "animation"
	ModTransition   = "transition"
)
