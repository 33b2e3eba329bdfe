package flowscene

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// ErrRecording is returned by Recorder.Start while a recording is running or
// its frames are still being encoded.
var ErrRecording = errors.New("flowscene: recording already in progress")

// DefaultMaxRecordFrames caps one recording's frame buffer.
const DefaultMaxRecordFrames = 1800

// FrameEncoder turns captured frames into an output artifact. Encoding
// (video codecs, GIF, ...) is the implementation's concern.
type FrameEncoder interface {
	Encode(ctx context.Context, frames []*image.NRGBA) error
}

// FrameEncoderFunc adapts a function to FrameEncoder.
type FrameEncoderFunc func(ctx context.Context, frames []*image.NRGBA) error

// Encode calls f.
func (f FrameEncoderFunc) Encode(ctx context.Context, frames []*image.NRGBA) error {
	return f(ctx, frames)
}

// PNGSequenceEncoder writes frames as Dir/frame_00001.png, frame_00002.png...
// ready for an external tool such as ffmpeg.
type PNGSequenceEncoder struct {
	Dir string
	// Prefix defaults to "frame".
	Prefix string
}

// Encode writes every frame, stopping early if ctx is cancelled.
func (e PNGSequenceEncoder) Encode(ctx context.Context, frames []*image.NRGBA) error {
	prefix := e.Prefix
	if prefix == "" {
		prefix = "frame"
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("flowscene: encode frames: %w", err)
	}
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(e.Dir, fmt.Sprintf("%s_%05d.png", prefix, i+1))
		if err := writePNG(path, f); err != nil {
			return fmt.Errorf("flowscene: encode frames: %w", err)
		}
	}
	return nil
}

// Recorder captures rendered frames for a bounded wall-clock window and
// hands them to an encoder when the window closes. Frames keep rendering
// normally while recording. Start may be called from any goroutine;
// capture runs on the render goroutine.
type Recorder struct {
	Encoder FrameEncoder
	// MaxFrames caps the buffer; frames past it are dropped. Default
	// DefaultMaxRecordFrames.
	MaxFrames int
	// Logger overrides the default slog logger.
	Logger *slog.Logger

	now func() time.Time

	mu       sync.Mutex
	active   bool
	encoding bool
	start    time.Time
	duration time.Duration
	frames   []*image.NRGBA
	dropped  int
	lastErr  error
	idle     *sync.Cond
}

// NewRecorder creates a recorder that hands frames to enc.
func NewRecorder(enc FrameEncoder) *Recorder {
	return &Recorder{Encoder: enc}
}

func (r *Recorder) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// cond returns the idle condition. r.mu must be held.
func (r *Recorder) cond() *sync.Cond {
	if r.idle == nil {
		r.idle = sync.NewCond(&r.mu)
	}
	return r.idle
}

func (r *Recorder) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Start begins a recording window of duration d.
func (r *Recorder) Start(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("flowscene: record: non-positive duration %v", d)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active || r.encoding {
		return ErrRecording
	}
	r.active = true
	r.start = r.clock()
	r.duration = d
	r.frames = nil
	r.dropped = 0
	r.lastErr = nil
	r.logger().Info("flowscene: recording started", "duration", d)
	return nil
}

// Active reports whether the capture window is open.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Status fills the recording fields of a FrameStatus.
func (r *Recorder) Status() FrameStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return FrameStatus{}
	}
	return FrameStatus{
		Recording:      true,
		RecordElapsed:  min(r.clock().Sub(r.start), r.duration),
		RecordDuration: r.duration,
	}
}

// capture records screen if the window is open, and closes the window once
// the duration has elapsed.
func (r *Recorder) capture(screen *ebiten.Image) {
	if !r.Active() {
		return
	}
	r.addFrame(func() *image.NRGBA { return CaptureImage(screen) })
}

// addFrame appends a frame produced by grab, or finishes the recording when
// the window has closed. grab is only called when the frame is kept.
func (r *Recorder) addFrame(grab func() *image.NRGBA) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	if r.clock().Sub(r.start) >= r.duration {
		r.finishLocked()
		return
	}
	maxFrames := r.MaxFrames
	if maxFrames <= 0 {
		maxFrames = DefaultMaxRecordFrames
	}
	if len(r.frames) >= maxFrames {
		r.dropped++
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	img := grab()

	r.mu.Lock()
	if r.active {
		r.frames = append(r.frames, img)
	}
	r.mu.Unlock()
}

// Stop closes an open capture window early and encodes what was captured.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.finishLocked()
}

// finishLocked closes the window and starts encoding. It is called with
// r.mu held and releases it.
func (r *Recorder) finishLocked() {
	frames := r.frames
	r.frames = nil
	r.active = false
	r.encoding = true
	r.mu.Unlock()
	go r.encode(frames)
}

func (r *Recorder) encode(frames []*image.NRGBA) {
	var err error
	if r.Encoder != nil {
		err = r.Encoder.Encode(context.Background(), frames)
	}
	r.mu.Lock()
	r.encoding = false
	r.lastErr = err
	dropped := r.dropped
	r.cond().Broadcast()
	r.mu.Unlock()

	if err != nil {
		r.logger().Error("flowscene: recording failed", "frames", len(frames), "error", err)
		return
	}
	r.logger().Info("flowscene: recording finished", "frames", len(frames), "dropped", dropped)
}

// Wait blocks until no encode is in flight and returns the last encode
// error. It does not wait for an open capture window to close.
func (r *Recorder) Wait() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.encoding {
		r.cond().Wait()
	}
	return r.lastErr
}
