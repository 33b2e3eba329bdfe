package flowscene

import (
	"math"
	"strconv"
	"strings"
)

const (
	// MinPathDescriptionLen is the length a path description must exceed to
	// be kept as an edge. Anything up to it is extraction noise (arrowhead
	// stubs, empty paths).
	MinPathDescriptionLen = 10

	// MinLifelineLength is the vertical extent a bare line needs before the
	// heuristic pass treats it as a lifeline.
	MinLifelineLength = 50

	// lifelineAspect is how many times taller than wide a bare line must be.
	lifelineAspect = 3
)

// DiagramEdge is one extracted connector in scene coordinates.
type DiagramEdge struct {
	ID          string        `json:"id" yaml:"id"`
	Kind        EdgeKind      `json:"kind" yaml:"kind"`
	Description string        `json:"d" yaml:"d"`
	Path        []PathCommand `json:"-" yaml:"-"`
	Stroke      Color         `json:"stroke" yaml:"stroke"`
	HasStroke   bool          `json:"-" yaml:"-"`
	Dash        []float64     `json:"dash,omitempty" yaml:"dash,omitempty"`
}

// ExtractEdges returns connectors found by marker classes, followed by bare
// near-vertical lines recovered as structural lifelines.
func ExtractEdges(root *Element) []DiagramEdge {
	if root == nil {
		return nil
	}
	ids := idSeq{prefix: "edge"}
	var edges []DiagramEdge
	captured := make(map[*Element]bool)

	root.Walk(func(e *Element) bool {
		if e.Connector == ConnectorNone {
			return true
		}
		captured[e] = true
		kind := EdgeMessage
		if e.Connector == ConnectorStructural {
			kind = EdgeStructural
		}
		if edge, ok := extractEdge(root, e, kind); ok {
			edge.ID = ids.next()
			edges = append(edges, edge)
		}
		return true
	})

	// Heuristic pass: renderers do not always mark lifelines.
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		seen[e.Description] = true
	}
	root.Walk(func(e *Element) bool {
		if e.Primitive != PrimLine || captured[e] || !IsLifelineShaped(lineEndpoints(root, e)) {
			return true
		}
		edge, ok := extractEdge(root, e, EdgeStructural)
		if !ok || seen[edge.Description] {
			return true
		}
		seen[edge.Description] = true
		edge.ID = ids.next()
		edges = append(edges, edge)
		return true
	})
	return edges
}

// IsLifelineShaped reports whether a straight line from a to b is tall and
// narrow enough to be a sequence-diagram lifeline.
func IsLifelineShaped(a, b Vec2) bool {
	dx := math.Abs(b.X - a.X)
	dy := math.Abs(b.Y - a.Y)
	return dy > lifelineAspect*dx && dy > MinLifelineLength
}

func lineEndpoints(root, e *Element) (Vec2, Vec2) {
	t := CumulativeTranslation(e, root)
	return Vec2{e.Float("x1"), e.Float("y1")}.Add(t), Vec2{e.Float("x2"), e.Float("y2")}.Add(t)
}

func extractEdge(root, e *Element, kind EdgeKind) (DiagramEdge, bool) {
	var desc string
	var cmds []PathCommand
	switch e.Primitive {
	case PrimPath:
		desc = strings.TrimSpace(e.Attrs["d"])
		parsed, _ := ParsePathData(desc)
		cmds = TranslatePath(parsed, CumulativeTranslation(e, root))
	case PrimLine:
		a, b := lineEndpoints(root, e)
		cmds = []PathCommand{
			{Op: OpMoveTo, Points: [3]Vec2{a}},
			{Op: OpLineTo, Points: [3]Vec2{b}},
		}
		desc = FormatPath(cmds)
	default:
		return DiagramEdge{}, false
	}
	if len(desc) <= MinPathDescriptionLen || len(cmds) == 0 {
		return DiagramEdge{}, false
	}
	stroke, hasStroke := ParseColor(e.Style("stroke"))
	return DiagramEdge{
		Kind:        kind,
		Description: desc,
		Path:        cmds,
		Stroke:      stroke,
		HasStroke:   hasStroke,
		Dash:        parseDashArray(e.Style("stroke-dasharray")),
	}, true
}

// parseDashArray parses stroke-dasharray. "none", malformed, negative or
// all-zero lists yield nil (solid).
func parseDashArray(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return nil
	}
	var out []float64
	var total float64
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, "px"), 64)
		if err != nil || v < 0 {
			return nil
		}
		out = append(out, v)
		total += v
	}
	if total == 0 {
		return nil
	}
	return out
}
