package flowscene

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeClock drives a Recorder's window without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRecorder(enc FrameEncoder) (*Recorder, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	r := NewRecorder(enc)
	r.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	r.now = clk.now
	return r, clk
}

func testFrame() *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, 2, 2))
}

// --- Recorder ---

func TestRecorderWindow(t *testing.T) {
	var encoded int
	r, clk := newTestRecorder(FrameEncoderFunc(func(_ context.Context, frames []*image.NRGBA) error {
		encoded = len(frames)
		return nil
	}))

	if err := r.Start(time.Second); err != nil {
		t.Fatal(err)
	}
	if !r.Active() {
		t.Fatal("not active after Start")
	}
	for i := 0; i < 3; i++ {
		r.addFrame(testFrame)
		clk.advance(200 * time.Millisecond)
	}
	st := r.Status()
	if !st.Recording || st.RecordElapsed != 600*time.Millisecond || st.RecordDuration != time.Second {
		t.Errorf("status = %+v", st)
	}

	clk.advance(time.Second)
	grabbed := false
	r.addFrame(func() *image.NRGBA { grabbed = true; return testFrame() })
	if grabbed {
		t.Error("frame grabbed after the window closed")
	}
	if err := r.Wait(); err != nil {
		t.Fatal(err)
	}
	if encoded != 3 {
		t.Errorf("encoded %d frames, want 3", encoded)
	}
	if r.Active() || r.Status().Recording {
		t.Error("still recording after the window closed")
	}
}

func TestRecorderStartErrors(t *testing.T) {
	r, _ := newTestRecorder(nil)
	if err := r.Start(0); err == nil {
		t.Error("Start(0) should fail")
	}
	if err := r.Start(time.Second); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(time.Second); !errors.Is(err, ErrRecording) {
		t.Errorf("second Start = %v, want ErrRecording", err)
	}
	r.Stop()
	if err := r.Wait(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(time.Second); err != nil {
		t.Errorf("Start after finish = %v", err)
	}
	r.Stop()
	r.Wait()
}

func TestRecorderBusyWhileEncoding(t *testing.T) {
	release := make(chan struct{})
	r, _ := newTestRecorder(FrameEncoderFunc(func(context.Context, []*image.NRGBA) error {
		<-release
		return nil
	}))
	if err := r.Start(time.Second); err != nil {
		t.Fatal(err)
	}
	r.Stop()
	if err := r.Start(time.Second); !errors.Is(err, ErrRecording) {
		t.Errorf("Start during encode = %v, want ErrRecording", err)
	}
	close(release)
	if err := r.Wait(); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(time.Second); err != nil {
		t.Errorf("Start after encode = %v", err)
	}
	r.Stop()
	r.Wait()
}

func TestRecorderMaxFrames(t *testing.T) {
	var encoded int
	r, _ := newTestRecorder(FrameEncoderFunc(func(_ context.Context, frames []*image.NRGBA) error {
		encoded = len(frames)
		return nil
	}))
	r.MaxFrames = 2
	r.Start(time.Minute)
	for i := 0; i < 5; i++ {
		r.addFrame(testFrame)
	}
	r.Stop()
	r.Wait()
	if encoded != 2 {
		t.Errorf("encoded %d frames, want 2", encoded)
	}
}

func TestRecorderEncodeError(t *testing.T) {
	boom := errors.New("disk full")
	r, _ := newTestRecorder(FrameEncoderFunc(func(context.Context, []*image.NRGBA) error {
		return boom
	}))
	r.Start(time.Second)
	r.addFrame(testFrame)
	r.Stop()
	if err := r.Wait(); !errors.Is(err, boom) {
		t.Errorf("Wait = %v, want %v", err, boom)
	}
}

func TestRecorderIdle(t *testing.T) {
	r, _ := newTestRecorder(nil)
	r.addFrame(func() *image.NRGBA {
		t.Error("grab called while idle")
		return nil
	})
	r.Stop()
	if err := r.Wait(); err != nil {
		t.Errorf("Wait on idle recorder = %v", err)
	}
	if r.Status() != (FrameStatus{}) {
		t.Errorf("idle status = %+v", r.Status())
	}
}

// --- PNGSequenceEncoder ---

func TestPNGSequenceEncoder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	enc := PNGSequenceEncoder{Dir: dir}
	if err := enc.Encode(context.Background(), []*image.NRGBA{testFrame(), testFrame()}); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"frame_00001.png", "frame_00002.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	enc.Prefix = "take"
	if err := enc.Encode(context.Background(), []*image.NRGBA{testFrame()}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "take_00001.png")); err != nil {
		t.Error(err)
	}
}

func TestPNGSequenceEncoderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc := PNGSequenceEncoder{Dir: t.TempDir()}
	if err := enc.Encode(ctx, []*image.NRGBA{testFrame()}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
