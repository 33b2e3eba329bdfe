package flowscene

import (
	"math"
	"sort"

	"github.com/srwiley/rasterx"
)

// PathGeometry is the measurement capability the extractors and the particle
// system need from a path. Implementations: FlattenPath (pure geometry) and
// BrowserGeometry (DOM-native, via a headless browser).
type PathGeometry interface {
	// BoundingBox returns the path's axis-aligned bounds in its own space.
	BoundingBox() Rect
	// Length returns the total arc length. Zero means unmeasurable or degenerate.
	Length() float64
	// PointAt returns the point at fraction*Length along the path. ok is false
	// when the path has no measurable length.
	PointAt(fraction float64) (pt Vec2, ok bool)
}

// GeometryProvider builds a PathGeometry for raw path data. Extraction uses it
// for bounding boxes of path-shaped nodes.
type GeometryProvider interface {
	Geometry(d string) PathGeometry
}

// FlatGeometry is the default GeometryProvider backed by FlattenPath.
type FlatGeometry struct{}

// Geometry parses d and flattens it. Malformed data yields whatever prefix
// parsed; completely invalid data yields an empty (unmeasurable) geometry.
func (FlatGeometry) Geometry(d string) PathGeometry {
	cmds, _ := ParsePathData(d)
	return FlattenPath(cmds)
}

// flattenScale magnifies curves before rasterx flattens them. rasterx picks
// its segment count for device pixels; scene units need finer chords.
const flattenScale = 4

// Polyline is a flattened path with cumulative arc lengths for
// arc-length parameterized sampling.
type Polyline struct {
	points []Vec2
	cumLen []float64 // cumLen[i] = length from points[0] to points[i]
	breaks []bool    // breaks[i]: segment ending at points[i] is a pen-up move
	bounds Rect
}

// FlattenPath converts normalized commands into a Polyline. Curves are
// flattened by rasterx. Moves inside a path start a new subpath and
// contribute no length.
func FlattenPath(cmds []PathCommand) *Polyline {
	pl := &Polyline{}
	var cur, start Vec2
	started := false
	for _, c := range cmds {
		switch c.Op {
		case OpMoveTo:
			cur, start = c.Points[0], c.Points[0]
			pl.add(cur, started)
			started = true
		case OpLineTo:
			if !started {
				pl.add(cur, false)
				started = true
			}
			cur = c.Points[0]
			pl.add(cur, false)
		case OpCubicTo:
			if !started {
				pl.add(cur, false)
				started = true
			}
			p1, p2, p3 := c.Points[0], c.Points[1], c.Points[2]
			var flat []Vec2
			rasterx.CubeTo(
				float32(cur.X*flattenScale), float32(cur.Y*flattenScale),
				float32(p1.X*flattenScale), float32(p1.Y*flattenScale),
				float32(p2.X*flattenScale), float32(p2.Y*flattenScale),
				float32(p3.X*flattenScale), float32(p3.Y*flattenScale),
				func(x, y float32) {
					flat = append(flat, Vec2{float64(x) / flattenScale, float64(y) / flattenScale})
				})
			// The final point is the curve end; keep it exact.
			if n := len(flat); n > 0 {
				flat = flat[:n-1]
			}
			for _, p := range flat {
				pl.add(p, false)
			}
			pl.add(p3, false)
			cur = p3
		case OpClose:
			if started && cur != start {
				cur = start
				pl.add(cur, false)
			}
		}
	}
	pl.computeBounds()
	return pl
}

// NewPolyline builds a Polyline directly from sampled points.
func NewPolyline(points []Vec2) *Polyline {
	pl := &Polyline{}
	for _, p := range points {
		pl.add(p, false)
	}
	pl.computeBounds()
	return pl
}

func (pl *Polyline) add(p Vec2, penUp bool) {
	l := 0.0
	if n := len(pl.points); n > 0 {
		l = pl.cumLen[n-1]
		if !penUp {
			l += math.Hypot(p.X-pl.points[n-1].X, p.Y-pl.points[n-1].Y)
		}
	}
	pl.points = append(pl.points, p)
	pl.cumLen = append(pl.cumLen, l)
	pl.breaks = append(pl.breaks, penUp)
}

func (pl *Polyline) computeBounds() {
	if len(pl.points) == 0 {
		return
	}
	minX, minY := pl.points[0].X, pl.points[0].Y
	maxX, maxY := minX, minY
	for _, p := range pl.points[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	pl.bounds = Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// BoundingBox implements PathGeometry.
func (pl *Polyline) BoundingBox() Rect {
	return pl.bounds
}

// Length implements PathGeometry.
func (pl *Polyline) Length() float64 {
	if len(pl.cumLen) == 0 {
		return 0
	}
	l := pl.cumLen[len(pl.cumLen)-1]
	if math.IsNaN(l) || math.IsInf(l, 0) {
		return 0
	}
	return l
}

// Points returns the flattened vertices. The returned slice MUST NOT be mutated.
func (pl *Polyline) Points() []Vec2 {
	return pl.points
}

// PointAt implements PathGeometry using arc-length parameterization: the
// result lies at fraction*Length() along the path regardless of how the
// underlying curves are parameterized.
func (pl *Polyline) PointAt(fraction float64) (Vec2, bool) {
	total := pl.Length()
	if total <= 0 {
		return Vec2{}, false
	}
	fraction = math.Max(0, math.Min(1, fraction))
	target := fraction * total
	i := sort.SearchFloat64s(pl.cumLen, target)
	if i <= 0 {
		return pl.points[0], true
	}
	if i >= len(pl.points) {
		return pl.points[len(pl.points)-1], true
	}
	segLen := pl.cumLen[i] - pl.cumLen[i-1]
	if segLen <= 0 || pl.breaks[i] {
		return pl.points[i], true
	}
	t := (target - pl.cumLen[i-1]) / segLen
	a, b := pl.points[i-1], pl.points[i]
	return Vec2{lerp(a.X, b.X, t), lerp(a.Y, b.Y, t)}, true
}

// Dashes splits the polyline into visible runs following an on/off pattern
// (in scene units). An empty or all-zero pattern returns the whole path as
// one run per subpath.
func (pl *Polyline) Dashes(pattern []float64) [][]Vec2 {
	var total float64
	for _, v := range pattern {
		total += math.Max(v, 0)
	}
	if len(pattern) == 0 || total <= 0 {
		return pl.subpaths()
	}
	if len(pattern)%2 == 1 {
		pattern = append(append([]float64(nil), pattern...), pattern...)
	}

	var runs [][]Vec2
	var run []Vec2
	idx := 0
	remaining := pattern[0]
	on := true
	flush := func() {
		if len(run) >= 2 {
			runs = append(runs, run)
		}
		run = nil
	}
	for i := 1; i < len(pl.points); i++ {
		if pl.breaks[i] {
			flush()
			continue
		}
		a, b := pl.points[i-1], pl.points[i]
		segLen := math.Hypot(b.X-a.X, b.Y-a.Y)
		pos := 0.0
		for pos < segLen {
			step := math.Min(remaining, segLen-pos)
			p0 := pointOnSegment(a, b, pos/segLen)
			p1 := pointOnSegment(a, b, (pos+step)/segLen)
			if on {
				if len(run) == 0 {
					run = append(run, p0)
				}
				run = append(run, p1)
			}
			pos += step
			remaining -= step
			if remaining <= 1e-9 {
				if on {
					flush()
				}
				on = !on
				idx = (idx + 1) % len(pattern)
				remaining = math.Max(pattern[idx], 0)
			}
		}
	}
	if on {
		flush()
	}
	return runs
}

func (pl *Polyline) subpaths() [][]Vec2 {
	var runs [][]Vec2
	var run []Vec2
	for i, p := range pl.points {
		if pl.breaks[i] && len(run) > 0 {
			if len(run) >= 2 {
				runs = append(runs, run)
			}
			run = nil
		}
		run = append(run, p)
	}
	if len(run) >= 2 {
		runs = append(runs, run)
	}
	return runs
}

func pointOnSegment(a, b Vec2, t float64) Vec2 {
	return Vec2{lerp(a.X, b.X, t), lerp(a.Y, b.Y, t)}
}

// lerp linearly interpolates between a and b by t.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
