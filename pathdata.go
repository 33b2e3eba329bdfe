package flowscene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// PathOp is a normalized path command. All coordinates are absolute.
type PathOp uint8

const (
	OpMoveTo  PathOp = iota // Points[0]
	OpLineTo                // Points[0]
	OpCubicTo               // Points[0], Points[1] controls, Points[2] end
	OpClose
)

// PathCommand is one normalized segment of a path.
type PathCommand struct {
	Op     PathOp
	Points [3]Vec2
}

// End returns the command's end point. Close has no end point of its own.
func (c PathCommand) End() Vec2 {
	switch c.Op {
	case OpCubicTo:
		return c.Points[2]
	default:
		return c.Points[0]
	}
}

// TranslatePath returns a copy of cmds shifted by d.
func TranslatePath(cmds []PathCommand, d Vec2) []PathCommand {
	out := make([]PathCommand, len(cmds))
	for i, c := range cmds {
		out[i] = c
		for j := range c.Points {
			out[i].Points[j] = c.Points[j].Add(d)
		}
	}
	return out
}

// FormatPath serializes normalized commands back to SVG path syntax.
func FormatPath(cmds []PathCommand) string {
	var b strings.Builder
	for i, c := range cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch c.Op {
		case OpMoveTo:
			fmt.Fprintf(&b, "M %s %s", fnum(c.Points[0].X), fnum(c.Points[0].Y))
		case OpLineTo:
			fmt.Fprintf(&b, "L %s %s", fnum(c.Points[0].X), fnum(c.Points[0].Y))
		case OpCubicTo:
			fmt.Fprintf(&b, "C %s %s %s %s %s %s",
				fnum(c.Points[0].X), fnum(c.Points[0].Y),
				fnum(c.Points[1].X), fnum(c.Points[1].Y),
				fnum(c.Points[2].X), fnum(c.Points[2].Y))
		case OpClose:
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParsePathData parses SVG path data into absolute move/line/cubic/close
// commands. Quadratic curves are raised to cubics, H/V become lines and
// elliptical arcs are approximated with cubics. Parsing stops at the first
// malformed segment; whatever was parsed up to that point is returned along
// with the error. Coordinates are quantized to 1/64 of a unit.
func ParsePathData(d string) ([]PathCommand, error) {
	var c oksvg.PathCursor
	err := c.CompilePath(d)
	var b pathBuilder
	c.Path.AddTo(&b)
	if err != nil {
		return b.cmds, fmt.Errorf("flowscene: path data %q: %w", d, err)
	}
	return b.cmds, nil
}

// pathBuilder receives a compiled rasterx path and emits normalized commands.
type pathBuilder struct {
	cmds       []PathCommand
	cur, start Vec2
}

var _ rasterx.Adder = (*pathBuilder)(nil)

func fixedVec(p fixed.Point26_6) Vec2 {
	return Vec2{float64(p.X) / 64, float64(p.Y) / 64}
}

func (b *pathBuilder) Start(a fixed.Point26_6) {
	b.cur = fixedVec(a)
	b.start = b.cur
	b.cmds = append(b.cmds, PathCommand{Op: OpMoveTo, Points: [3]Vec2{b.cur}})
}

func (b *pathBuilder) Line(p fixed.Point26_6) {
	b.cur = fixedVec(p)
	b.cmds = append(b.cmds, PathCommand{Op: OpLineTo, Points: [3]Vec2{b.cur}})
}

// QuadBezier raises the quadratic to the equivalent cubic.
func (b *pathBuilder) QuadBezier(ctrl, end fixed.Point26_6) {
	q, e := fixedVec(ctrl), fixedVec(end)
	c1 := Vec2{b.cur.X + 2.0/3.0*(q.X-b.cur.X), b.cur.Y + 2.0/3.0*(q.Y-b.cur.Y)}
	c2 := Vec2{e.X + 2.0/3.0*(q.X-e.X), e.Y + 2.0/3.0*(q.Y-e.Y)}
	b.cur = e
	b.cmds = append(b.cmds, PathCommand{Op: OpCubicTo, Points: [3]Vec2{c1, c2, e}})
}

func (b *pathBuilder) CubeBezier(c1, c2, end fixed.Point26_6) {
	b.cur = fixedVec(end)
	b.cmds = append(b.cmds, PathCommand{Op: OpCubicTo, Points: [3]Vec2{fixedVec(c1), fixedVec(c2), b.cur}})
}

func (b *pathBuilder) Stop(closeLoop bool) {
	if closeLoop {
		b.cur = b.start
		b.cmds = append(b.cmds, PathCommand{Op: OpClose})
	}
}
