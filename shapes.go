package flowscene

import "strconv"

// ContainerFillAlpha is the opacity forced onto container fills so nested
// regions stay legible whatever opacity the source reported.
const ContainerFillAlpha = 0.08

// Fixed styling for annotation nodes.
var (
	AnnotationFill   = Color{1, 0.96, 0.76, 1}    // #fff5c2
	AnnotationStroke = Color{0.85, 0.62, 0.16, 1} // #d99e29

	containerFallbackFill = Color{0.58, 0.64, 0.72, 1}
	defaultNodeFill       = Color{0.96, 0.97, 0.98, 1}
	defaultNodeStroke     = Color{0.2, 0.25, 0.33, 1}
)

// DiagramNode is one extracted node in scene coordinates.
type DiagramNode struct {
	ID     string    `json:"id" yaml:"id"`
	Label  string    `json:"label" yaml:"label"`
	Kind   NodeKind  `json:"kind" yaml:"kind"`
	Shape  ShapeKind `json:"shape" yaml:"shape"`
	Center Vec2      `json:"center" yaml:"center"`
	Size   Vec2      `json:"size" yaml:"size"`
	Fill   Color     `json:"fill" yaml:"fill"`
	Stroke Color     `json:"stroke" yaml:"stroke"`
}

// Bounds returns the node's axis-aligned bounding box.
func (n DiagramNode) Bounds() Rect {
	return Rect{
		X:      n.Center.X - n.Size.X/2,
		Y:      n.Center.Y - n.Size.Y/2,
		Width:  n.Size.X,
		Height: n.Size.Y,
	}
}

// idSeq hands out deterministic identifiers scoped to one extraction pass.
type idSeq struct {
	prefix string
	n      int
}

func (s *idSeq) next() string {
	s.n++
	return s.prefix + "-" + strconv.Itoa(s.n)
}

// ExtractNodes walks the vector tree and returns every classified group that
// has a drawable shape with positive area, in document order. geom measures
// path-shaped nodes; nil uses FlatGeometry.
func ExtractNodes(root *Element, geom GeometryProvider) []DiagramNode {
	if root == nil {
		return nil
	}
	if geom == nil {
		geom = FlatGeometry{}
	}
	ids := idSeq{prefix: "node"}
	var nodes []DiagramNode
	root.Walk(func(e *Element) bool {
		if e.Primitive != PrimGroup || e.Role == RoleNone {
			return true
		}
		if n, ok := extractNode(root, e, geom); ok {
			n.ID = ids.next()
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

func extractNode(root, g *Element, geom GeometryProvider) (DiagramNode, bool) {
	shape := g.FirstDescendant(func(e *Element) bool { return e.Primitive.Drawable() })
	if shape == nil {
		return DiagramNode{}, false
	}
	box, ok := localBounds(shape, geom)
	if !ok || box.Width <= 0 || box.Height <= 0 {
		return DiagramNode{}, false
	}

	// Shape-agnostic: translation + local bbox origin + half the local size.
	t := CumulativeTranslation(shape, root)
	n := DiagramNode{
		Label:  extractLabel(g),
		Kind:   g.Role.NodeKind(),
		Center: Vec2{t.X + box.X + box.Width/2, t.Y + box.Y + box.Height/2},
		Size:   Vec2{box.Width, box.Height},
	}

	switch shape.Primitive {
	case PrimCircle, PrimEllipse:
		n.Shape = ShapeCircle
	case PrimPolygon:
		n.Shape = ShapeDiamond
	default:
		// Paths (cylinders and other complex shapes) degrade to rounded rectangles.
		n.Shape = ShapeRoundedRectangle
	}

	fill, hasFill := ParseColor(shape.Style("fill"))
	stroke, hasStroke := ParseColor(shape.Style("stroke"))
	if hasFill {
		if op, err := strconv.ParseFloat(shape.Style("fill-opacity"), 64); err == nil {
			fill.A *= clamp01(op)
		}
	} else {
		fill = defaultNodeFill
	}
	if !hasStroke {
		stroke = defaultNodeStroke
	}

	switch n.Kind {
	case KindContainer:
		if !hasFill {
			fill = containerFallbackFill
		}
		fill = fill.WithAlpha(ContainerFillAlpha)
	case KindAnnotation:
		n.Shape = ShapeFoldedNote
		fill, stroke = AnnotationFill, AnnotationStroke
	}
	n.Fill, n.Stroke = fill, stroke
	return n, true
}

// localBounds returns a drawable's bounding box in its own coordinate space.
func localBounds(e *Element, geom GeometryProvider) (Rect, bool) {
	switch e.Primitive {
	case PrimRect:
		return Rect{X: e.Float("x"), Y: e.Float("y"), Width: e.Float("width"), Height: e.Float("height")}, true
	case PrimCircle:
		r := e.Float("r")
		return Rect{X: e.Float("cx") - r, Y: e.Float("cy") - r, Width: 2 * r, Height: 2 * r}, true
	case PrimEllipse:
		rx, ry := e.Float("rx"), e.Float("ry")
		return Rect{X: e.Float("cx") - rx, Y: e.Float("cy") - ry, Width: 2 * rx, Height: 2 * ry}, true
	case PrimPolygon:
		nums := parseNumberList(e.Attrs["points"])
		if len(nums) < 4 {
			return Rect{}, false
		}
		pts := make([]Vec2, 0, len(nums)/2)
		for i := 0; i+1 < len(nums); i += 2 {
			pts = append(pts, Vec2{nums[i], nums[i+1]})
		}
		return NewPolyline(pts).BoundingBox(), true
	case PrimPath:
		d := e.Attrs["d"]
		if d == "" {
			return Rect{}, false
		}
		return geom.Geometry(d).BoundingBox(), true
	}
	return Rect{}, false
}
