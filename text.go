package flowscene

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// Label layout constants, in scene units.
const (
	// LabelLineHeight is the fixed distance between label baselines.
	LabelLineHeight = 16
	// DefaultLabelSize is the label font size.
	DefaultLabelSize = 13
	// containerLabelInset is the gap between a container's top edge and its
	// first label line.
	containerLabelInset = 6
)

// LabelFont wraps Ebitengine's text/v2 face used for node labels.
type LabelFont struct {
	face *text.GoTextFace
}

// LoadLabelFont loads a TrueType/OpenType font at the given size.
func LoadLabelFont(ttfData []byte, size float64) (*LabelFont, error) {
	source, err := text.NewGoTextFaceSource(bytes.NewReader(ttfData))
	if err != nil {
		return nil, fmt.Errorf("flowscene: failed to parse font data: %w", err)
	}
	return &LabelFont{face: &text.GoTextFace{Source: source, Size: size}}, nil
}

// DefaultLabelFont returns Go Regular at DefaultLabelSize.
func DefaultLabelFont() (*LabelFont, error) {
	return LoadLabelFont(goregular.TTF, DefaultLabelSize)
}

// MeasureString returns the width and height of s laid out at the fixed
// label line height.
func (f *LabelFont) MeasureString(s string) (width, height float64) {
	return text.Measure(s, f.face, LabelLineHeight)
}

// LabelLine is one laid-out label line: its text and the scene-space point
// its box is centered on.
type LabelLine struct {
	Text   string
	Center Vec2
}

// LayoutLabel positions a node's label lines. Containers anchor the first
// line just inside their top edge; every other kind centers the block
// vertically and horizontally in its box.
func LayoutLabel(n DiagramNode) []LabelLine {
	if n.Label == "" {
		return nil
	}
	lines := strings.Split(n.Label, "\n")
	b := n.Bounds()
	var top float64
	if n.Kind == KindContainer {
		top = b.Y + containerLabelInset
	} else {
		top = n.Center.Y - float64(len(lines))*LabelLineHeight/2
	}
	out := make([]LabelLine, len(lines))
	for i, l := range lines {
		out[i] = LabelLine{
			Text:   l,
			Center: Vec2{n.Center.X, top + (float64(i)+0.5)*LabelLineHeight},
		}
	}
	return out
}

// drawLabel renders n's label lines onto dst, shifted by offset.
func (f *LabelFont) drawLabel(dst *ebiten.Image, n DiagramNode, offset Vec2, c Color) {
	op := &text.DrawOptions{}
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	for _, l := range LayoutLabel(n) {
		op.GeoM.Reset()
		op.GeoM.Translate(l.Center.X+offset.X, l.Center.Y+offset.Y)
		op.ColorScale = c.ColorScale()
		text.Draw(dst, l.Text, f.face, op)
	}
}

// drawText renders a single string with its top-left at (x, y).
func (f *LabelFont) drawText(dst *ebiten.Image, s string, x, y float64, c Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale = c.ColorScale()
	op.LineSpacing = LabelLineHeight
	text.Draw(dst, s, f.face, op)
}
