package flowscene

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Shape construction constants, in scene units.
const (
	// FoldSize is the corner cut of a folded-note outline.
	FoldSize = 10
	// ContainerCornerRadius and NodeCornerRadius round rectangle corners.
	ContainerCornerRadius = 10
	NodeCornerRadius      = 6
)

// cornerRadius returns the rounded-rectangle radius for a node kind.
func cornerRadius(k NodeKind) float64 {
	if k == KindContainer {
		return ContainerCornerRadius
	}
	return NodeCornerRadius
}

// diamondPoints returns the top, right, bottom and left edge midpoints of b.
func diamondPoints(b Rect) []Vec2 {
	cx, cy := b.X+b.Width/2, b.Y+b.Height/2
	return []Vec2{
		{cx, b.Y},
		{b.X + b.Width, cy},
		{cx, b.Y + b.Height},
		{b.X, cy},
	}
}

// foldedNotePoints returns a 5-point outline of b with the top-right corner
// cut by fold (clamped to the box).
func foldedNotePoints(b Rect, fold float64) []Vec2 {
	fold = math.Min(fold, math.Min(b.Width, b.Height))
	return []Vec2{
		{b.X, b.Y},
		{b.X + b.Width - fold, b.Y},
		{b.X + b.Width, b.Y + fold},
		{b.X + b.Width, b.Y + b.Height},
		{b.X, b.Y + b.Height},
	}
}

// shapePath builds n's outline as a closed vector path, shifted by offset.
func shapePath(n DiagramNode, offset Vec2) *vector.Path {
	b := n.Bounds()
	b.X += offset.X
	b.Y += offset.Y
	var p vector.Path
	switch n.Shape {
	case ShapeCircle:
		c := b.Center()
		r := math.Min(b.Width, b.Height) / 2
		p.Arc(float32(c.X), float32(c.Y), float32(r), 0, 2*math.Pi, vector.Clockwise)
		p.Close()
	case ShapeDiamond:
		polygonPath(&p, diamondPoints(b))
	case ShapeFoldedNote:
		polygonPath(&p, foldedNotePoints(b, FoldSize))
	case ShapeRectangle:
		roundedRectPath(&p, b, 0)
	default:
		roundedRectPath(&p, b, cornerRadius(n.Kind))
	}
	return &p
}

func polygonPath(p *vector.Path, pts []Vec2) {
	for i, pt := range pts {
		if i == 0 {
			p.MoveTo(float32(pt.X), float32(pt.Y))
		} else {
			p.LineTo(float32(pt.X), float32(pt.Y))
		}
	}
	p.Close()
}

func roundedRectPath(p *vector.Path, b Rect, r float64) {
	r = math.Min(r, math.Min(b.Width, b.Height)/2)
	if r <= 0 {
		polygonPath(p, []Vec2{
			{b.X, b.Y}, {b.X + b.Width, b.Y},
			{b.X + b.Width, b.Y + b.Height}, {b.X, b.Y + b.Height},
		})
		return
	}
	x0, y0 := float32(b.X), float32(b.Y)
	x1, y1 := float32(b.X+b.Width), float32(b.Y+b.Height)
	rr := float32(r)
	p.MoveTo(x0+rr, y0)
	p.LineTo(x1-rr, y0)
	p.ArcTo(x1, y0, x1, y0+rr, rr)
	p.LineTo(x1, y1-rr)
	p.ArcTo(x1, y1, x1-rr, y1, rr)
	p.LineTo(x0+rr, y1)
	p.ArcTo(x0, y1, x0, y1-rr, rr)
	p.LineTo(x0, y0+rr)
	p.ArcTo(x0, y0, x0+rr, y0, rr)
	p.Close()
}

// polylinePath builds an open path through pts, shifted by offset.
func polylinePath(pts []Vec2, offset Vec2) *vector.Path {
	var p vector.Path
	for i, pt := range pts {
		x, y := float32(pt.X+offset.X), float32(pt.Y+offset.Y)
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	return &p
}

// circlePath builds a full circle.
func circlePath(c Vec2, r float64) *vector.Path {
	var p vector.Path
	p.Arc(float32(c.X), float32(c.Y), float32(r), 0, 2*math.Pi, vector.Clockwise)
	p.Close()
	return &p
}

// fillPath fills p with c using the given blend mode.
func fillPath(dst *ebiten.Image, p *vector.Path, c Color, blend BlendMode) {
	op := &vector.DrawPathOptions{AntiAlias: true, Blend: blend.EbitenBlend()}
	op.ColorScale = c.ColorScale()
	vector.FillPath(dst, p, &vector.FillOptions{}, op)
}

// strokePath strokes p with c at width w.
func strokePath(dst *ebiten.Image, p *vector.Path, c Color, w float64) {
	op := &vector.DrawPathOptions{AntiAlias: true, Blend: ebiten.BlendSourceOver}
	op.ColorScale = c.ColorScale()
	vector.StrokePath(dst, p, &vector.StrokeOptions{
		Width:    float32(w),
		LineJoin: vector.LineJoinRound,
		LineCap:  vector.LineCapRound,
	}, op)
}
