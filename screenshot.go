package flowscene

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// DefaultScreenshotDir is where Screenshot writes when no directory is set.
const DefaultScreenshotDir = "screenshots"

// Screenshot queues a labeled screenshot to be captured at the end of the
// current frame's Draw call. The PNG is written to ScreenshotDir with a
// timestamped, sequence-numbered filename. Safe to call from Update or Draw.
func (p *Player) Screenshot(label string) {
	p.screenshotQueue = append(p.screenshotQueue, label)
}

// flushScreenshots captures the rendered frame once for every queued label.
func (p *Player) flushScreenshots(screen *ebiten.Image) {
	if len(p.screenshotQueue) == 0 {
		return
	}
	defer func() { p.screenshotQueue = p.screenshotQueue[:0] }()

	dir := p.ScreenshotDir
	if dir == "" {
		dir = DefaultScreenshotDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.logger().Error("flowscene: screenshot", "dir", dir, "error", err)
		return
	}

	p.writeScreenshots(dir, CaptureImage(screen), time.Now().Format("20060102_150405"))
}

// writeScreenshots writes img once per queued label. The player-wide
// sequence number keeps same-second captures with equal labels apart.
func (p *Player) writeScreenshots(dir string, img image.Image, stamp string) {
	for _, label := range p.screenshotQueue {
		p.screenshotSeq++
		path := filepath.Join(dir, screenshotName(stamp, p.screenshotSeq, label))
		if err := writePNG(path, img); err != nil {
			p.logger().Error("flowscene: screenshot", "error", err)
			continue
		}
		p.logger().Info("flowscene: screenshot saved", "path", path)
	}
}

func screenshotName(stamp string, seq int, label string) string {
	return fmt.Sprintf("%s_%03d_%s.png", stamp, seq, sanitizeLabel(label))
}

// CaptureImage reads an ebiten image back into a straight-alpha NRGBA.
func CaptureImage(src *ebiten.Image) *image.NRGBA {
	b := src.Bounds()
	pixels := make([]byte, 4*b.Dx()*b.Dy())
	src.ReadPixels(pixels)
	return unpremultiply(pixels, b.Dx(), b.Dy())
}

// unpremultiply converts premultiplied RGBA bytes to an NRGBA image. The
// pixel slice is reused as the image buffer.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	for i := 0; i+3 < len(pixels); i += 4 {
		a := int(pixels[i+3])
		if a == 0 || a == 255 {
			continue
		}
		pixels[i] = uint8(min(int(pixels[i])*255/a, 255))
		pixels[i+1] = uint8(min(int(pixels[i+1])*255/a, 255))
		pixels[i+2] = uint8(min(int(pixels[i+2])*255/a, 255))
	}
	return &image.NRGBA{Pix: pixels, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
