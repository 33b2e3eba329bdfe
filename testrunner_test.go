package flowscene

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newRunnerPlayer(t *testing.T) *Player {
	t.Helper()
	p := &Player{
		Store:    NewSceneStore(),
		Settings: NewSettingsStore(DefaultSettings()),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	p.Store.Publish(hoverScene())
	return p
}

// runFrames steps r the way Player.Update does, without a window: the
// runner first, then one injected pointer event.
func runFrames(t *testing.T, r *TestRunner, p *Player, limit int) int {
	t.Helper()
	for frame := 1; frame <= limit; frame++ {
		r.step(p)
		p.interaction.processInjected(p.Store.Load())
		if r.Done() {
			return frame
		}
	}
	t.Fatalf("runner not done after %d frames", limit)
	return 0
}

// --- LoadTestScript ---

func TestLoadTestScript(t *testing.T) {
	r, err := LoadTestScript([]byte(`{"steps": [
		{"action": "move", "x": 10, "y": 20},
		{"action": "path", "fromX": 0, "fromY": 0, "toX": 5, "toY": 5, "frames": 3},
		{"action": "tier", "value": "draft"},
		{"action": "color", "value": "#ff0000"},
		{"action": "speed", "value": "1.5"},
		{"action": "record", "seconds": 2},
		{"action": "screenshot", "label": "done"},
		{"action": "expect_hover", "node": "node-1"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.steps) != 8 || r.Done() {
		t.Errorf("steps = %d, done = %v", len(r.steps), r.Done())
	}
}

func TestLoadTestScriptErrors(t *testing.T) {
	tests := []struct {
		name, json, want string
	}{
		{"invalid json", `{"steps": [`, "parse test script"},
		{"no steps", `{"steps": []}`, "no steps"},
		{"unknown action", `{"steps": [{"action": "click"}]}`, `unknown action "click"`},
		{"bad tier", `{"steps": [{"action": "tier", "value": "gold"}]}`, "invalid tier"},
		{"bad color", `{"steps": [{"action": "color", "value": "nope"}]}`, "invalid color"},
		{"bad speed", `{"steps": [{"action": "speed", "value": "fast"}]}`, "invalid speed"},
		{"negative record", `{"steps": [{"action": "record", "seconds": -1}]}`, "negative record duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTestScript([]byte(tt.json))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

// --- Stepping ---

func TestRunnerSettingsAndHover(t *testing.T) {
	r, err := LoadTestScript([]byte(`{"steps": [
		{"action": "move", "x": 60, "y": 50},
		{"action": "expect_hover", "node": "node-a"},
		{"action": "tier", "value": "draft"},
		{"action": "speed", "value": "2"},
		{"action": "color", "value": "#ff0000"},
		{"action": "leave"},
		{"action": "expect_hover"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	p := newRunnerPlayer(t)
	runFrames(t, r, p, 20)

	if f := r.Failures(); len(f) != 0 {
		t.Errorf("failures = %v", f)
	}
	s := p.Settings.Load()
	if s.Tier != TierDraft || s.SpeedMultiplier != 2 || s.ParticleColor.Hex() != "#ff0000" {
		t.Errorf("settings = %+v", s)
	}
}

func TestRunnerExpectHoverFailure(t *testing.T) {
	r, err := LoadTestScript([]byte(`{"steps": [
		{"action": "move", "x": 110, "y": 50},
		{"action": "expect_hover", "node": "node-a"},
		{"action": "leave"},
		{"action": "expect_hover", "node": "node-b"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	runFrames(t, r, newRunnerPlayer(t), 20)
	f := r.Failures()
	if len(f) != 2 {
		t.Fatalf("failures = %v, want 2", f)
	}
	if !strings.Contains(f[0], `hover = "node-b", want "node-a"`) {
		t.Errorf("failure = %q", f[0])
	}
}

func TestRunnerPathWaitsForDrain(t *testing.T) {
	r, err := LoadTestScript([]byte(`{"steps": [
		{"action": "path", "fromX": 0, "fromY": 50, "toX": 110, "toY": 50, "frames": 5},
		{"action": "expect_hover", "node": "node-b"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	p := newRunnerPlayer(t)
	// One frame queues the path, five drain it, one checks, one finishes.
	frames := runFrames(t, r, p, 20)
	if frames < 6 {
		t.Errorf("finished after %d frames, before the path drained", frames)
	}
	if f := r.Failures(); len(f) != 0 {
		t.Errorf("failures = %v", f)
	}
}

func TestRunnerWait(t *testing.T) {
	r, err := LoadTestScript([]byte(`{"steps": [{"action": "wait", "frames": 3}]}`))
	if err != nil {
		t.Fatal(err)
	}
	p := newRunnerPlayer(t)
	for i := 0; i < 3; i++ {
		r.step(p)
		if r.Done() {
			t.Fatalf("done after %d frames, want the wait to hold", i+1)
		}
	}
	r.step(p)
	if !r.Done() {
		t.Error("not done after the wait elapsed")
	}
	r.step(p)
}

func TestRunnerScreenshotAndRecord(t *testing.T) {
	r, err := LoadTestScript([]byte(`{"steps": [
		{"action": "screenshot", "label": "before"},
		{"action": "record", "seconds": 2}
	]}`))
	if err != nil {
		t.Fatal(err)
	}
	p := newRunnerPlayer(t)
	p.Recorder, _ = newTestRecorder(nil)
	runFrames(t, r, p, 10)

	if len(p.screenshotQueue) != 1 || p.screenshotQueue[0] != "before" {
		t.Errorf("queue = %v", p.screenshotQueue)
	}
	st := p.Recorder.Status()
	if !st.Recording || st.RecordDuration != 2*time.Second {
		t.Errorf("recorder status = %+v", st)
	}
	p.Recorder.Stop()
	p.Recorder.Wait()
}

func TestRunnerRecordDefaultDuration(t *testing.T) {
	r, err := LoadTestScript([]byte(`{"steps": [{"action": "record"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	p := newRunnerPlayer(t)
	p.Recorder, _ = newTestRecorder(nil)
	runFrames(t, r, p, 5)
	if got := p.Recorder.Status().RecordDuration; got != DefaultSettings().RecordDuration {
		t.Errorf("duration = %v, want the settings default", got)
	}
	p.Recorder.Stop()
	p.Recorder.Wait()

	// Without a recorder the step only logs.
	r, _ = LoadTestScript([]byte(`{"steps": [{"action": "record"}]}`))
	runFrames(t, r, newRunnerPlayer(t), 5)
}
