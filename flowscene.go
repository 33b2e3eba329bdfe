package flowscene

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite and ColorBlack are convenience constants.
var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// IsZero reports whether c is the zero value (unresolved color).
func (c Color) IsZero() bool {
	return c == Color{}
}

// RGBA converts c to a non-premultiplied color.NRGBA.
func (c Color) RGBA() color.NRGBA {
	return color.NRGBA{
		R: unit8(c.R),
		G: unit8(c.G),
		B: unit8(c.B),
		A: unit8(c.A),
	}
}

// ColorScale returns an ebiten.ColorScale tinting by c (premultiplied).
func (c Color) ColorScale() ebiten.ColorScale {
	var cs ebiten.ColorScale
	cs.Scale(float32(c.R*c.A), float32(c.G*c.A), float32(c.B*c.A), float32(c.A))
	return cs
}

func unit8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Vec2 is a 2D vector used for positions, offsets, and sizes.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Union returns the smallest rectangle containing both r and other.
// An empty (zero) rectangle is treated as absent.
func (r Rect) Union(other Rect) Rect {
	if r == (Rect{}) {
		return other
	}
	if other == (Rect{}) {
		return r
	}
	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{r.X + r.Width/2, r.Y + r.Height/2}
}

// Range is a general-purpose min/max range.
// Used by the particle system for speed sampling.
type Range struct {
	Min, Max float64
}

// BlendMode selects a compositing operation. Each maps to a specific ebiten.Blend value.
type BlendMode uint8

const (
	BlendNormal   BlendMode = iota // source-over (standard alpha blending)
	BlendAdd                       // additive / lighter
	BlendMultiply                  // multiply (source * destination; only darkens)
	BlendScreen                    // screen (1 - (1-src)*(1-dst); only brightens)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendNormal:
		return ebiten.BlendSourceOver
	case BlendAdd:
		return ebiten.BlendLighter
	case BlendMultiply:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendScreen:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorOne,
			BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
			BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceColor,
			BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	default:
		return ebiten.BlendSourceOver
	}
}

// NodeKind is the role a diagram node plays in the scene.
type NodeKind uint8

const (
	KindStandalone NodeKind = iota // ordinary flowchart/state node
	KindContainer                  // subgraph/cluster region drawn beneath everything
	KindActor                      // sequence-diagram participant box
	KindAnnotation                 // note, drawn last in the node layer
)

// String returns the lowercase name of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindStandalone:
		return "standalone"
	case KindContainer:
		return "container"
	case KindActor:
		return "actor"
	case KindAnnotation:
		return "annotation"
	default:
		return "unknown"
	}
}

// ShapeKind selects how a node outline is constructed at draw time.
type ShapeKind uint8

const (
	ShapeRectangle ShapeKind = iota
	ShapeRoundedRectangle
	ShapeCircle
	ShapeDiamond
	ShapeFoldedNote
)

// String returns the camelCase name of the shape.
func (s ShapeKind) String() string {
	switch s {
	case ShapeRectangle:
		return "rectangle"
	case ShapeRoundedRectangle:
		return "roundedRectangle"
	case ShapeCircle:
		return "circle"
	case ShapeDiamond:
		return "diamond"
	case ShapeFoldedNote:
		return "foldedNote"
	default:
		return "unknown"
	}
}

// EdgeKind distinguishes animated connectors from static ones.
type EdgeKind uint8

const (
	EdgeMessage    EdgeKind = iota // animated; carries particles
	EdgeStructural                 // static, e.g. a lifeline
)

// String returns the lowercase name of the edge kind.
func (k EdgeKind) String() string {
	if k == EdgeStructural {
		return "structural"
	}
	return "message"
}

// StyleTier is the visual preset: draft is flat and cheap, premium adds the
// grid, particles and shadows.
type StyleTier uint8

const (
	TierDraft StyleTier = iota
	TierPremium
)

// String returns "draft" or "premium".
func (t StyleTier) String() string {
	if t == TierPremium {
		return "premium"
	}
	return "draft"
}

// ParseStyleTier parses "draft" or "premium" (case-sensitive).
func ParseStyleTier(s string) (StyleTier, bool) {
	switch s {
	case "draft":
		return TierDraft, true
	case "premium":
		return TierPremium, true
	}
	return TierDraft, false
}

// EventType identifies a kind of pointer event fed to the hit tester.
type EventType uint8

const (
	EventPointerMove  EventType = iota // pointer moved over the surface
	EventPointerLeave                  // pointer left the surface
	EventHoverEnter                    // a node became the hover target
	EventHoverExit                     // the previous hover target was cleared
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventPointerMove:
		return "move"
	case EventPointerLeave:
		return "leave"
	case EventHoverEnter:
		return "hoverEnter"
	case EventHoverExit:
		return "hoverExit"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k NodeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (s ShapeKind) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (k EdgeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// MarshalText implements encoding.TextMarshaler.
func (t StyleTier) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Settings files use it.
func (t *StyleTier) UnmarshalText(b []byte) error {
	v, ok := ParseStyleTier(string(b))
	if !ok {
		return fmt.Errorf("flowscene: unknown style tier %q", b)
	}
	*t = v
	return nil
}

// MarshalText formats the color as #rrggbb, or #rrggbbaa when translucent.
func (c Color) MarshalText() ([]byte, error) {
	if c.A >= 1 {
		return []byte(c.Hex()), nil
	}
	return []byte(fmt.Sprintf("%s%02x", c.Hex(), unit8(c.A))), nil
}

// UnmarshalText parses any syntax ParseColor accepts.
func (c *Color) UnmarshalText(b []byte) error {
	v, ok := ParseColor(string(b))
	if !ok {
		return fmt.Errorf("flowscene: invalid color %q", b)
	}
	*c = v
	return nil
}
