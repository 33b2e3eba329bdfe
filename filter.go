package flowscene

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Filter is the interface for effects applied to an offscreen image.
type Filter interface {
	// Apply renders src into dst with the filter effect.
	Apply(src, dst *ebiten.Image)
	// Padding returns the extra pixels needed around the source to hold the
	// effect. Zero means no padding.
	Padding() int
}

// BlurFilter applies a Kawase iterative blur using downscale/upscale passes.
// Bilinear filtering during DrawImage does the work.
type BlurFilter struct {
	Radius int
	temps  []*ebiten.Image
	imgOp  ebiten.DrawImageOptions
}

// NewBlurFilter creates a blur filter with the given radius (in pixels).
func NewBlurFilter(radius int) *BlurFilter {
	if radius < 0 {
		radius = 0
	}
	return &BlurFilter{Radius: radius}
}

// blurPasses returns the number of halvings for a radius: ceil(log2(r)),
// minimum 1. Zero for no blur.
func blurPasses(radius int) int {
	if radius <= 0 {
		return 0
	}
	return max(1, int(math.Ceil(math.Log2(float64(radius)))))
}

// Apply renders a Kawase blur from src into dst.
func (f *BlurFilter) Apply(src, dst *ebiten.Image) {
	op := &f.imgOp
	passes := blurPasses(f.Radius)
	if passes == 0 {
		op.GeoM.Reset()
		op.ColorScale.Reset()
		op.Filter = ebiten.FilterNearest
		dst.DrawImage(src, op)
		return
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	for len(f.temps) < passes {
		f.temps = append(f.temps, nil)
	}
	for i := passes; i < len(f.temps); i++ {
		if f.temps[i] != nil {
			f.temps[i].Deallocate()
			f.temps[i] = nil
		}
	}
	f.temps = f.temps[:passes]

	// Downscale: each pass halves.
	current := src
	for i := 0; i < passes; i++ {
		w, h = max(w/2, 1), max(h/2, 1)
		if t := f.temps[i]; t == nil || t.Bounds().Dx() != w || t.Bounds().Dy() != h {
			if t != nil {
				t.Deallocate()
			}
			f.temps[i] = ebiten.NewImage(w, h)
		} else {
			t.Clear()
		}
		f.scaleInto(f.temps[i], current)
		current = f.temps[i]
	}
	// Upscale back through the chain, then into dst.
	for i := passes - 2; i >= 0; i-- {
		f.temps[i].Clear()
		f.scaleInto(f.temps[i], current)
		current = f.temps[i]
	}
	f.scaleInto(dst, current)
}

func (f *BlurFilter) scaleInto(dst, src *ebiten.Image) {
	op := &f.imgOp
	op.GeoM.Reset()
	op.ColorScale.Reset()
	op.GeoM.Scale(
		float64(dst.Bounds().Dx())/float64(src.Bounds().Dx()),
		float64(dst.Bounds().Dy())/float64(src.Bounds().Dy()),
	)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(src, op)
}

// Padding returns twice the blur radius; the soft edge spreads that far.
func (f *BlurFilter) Padding() int { return 2 * f.Radius }

// GlowEffect draws a blurred, tinted copy of a node's silhouette beneath
// the node: the hover glow and the premium drop shadow.
type GlowEffect struct {
	Radius int
	Color  Color
	// Offset shifts the effect relative to the node (shadows drop down).
	Offset Vec2
}

// Padding returns the margin the blurred silhouette needs.
func (g GlowEffect) Padding() int {
	return NewBlurFilter(g.Radius).Padding()
}
