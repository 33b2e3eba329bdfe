package flowscene

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// testStep is one action in a test script.
type testStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	// Value is the argument of tier, color and speed steps.
	Value string `json:"value,omitempty"`
	// Seconds is the record duration; zero uses Settings.RecordDuration.
	Seconds float64 `json:"seconds,omitempty"`
	// Node is the expected hover target of expect_hover; empty means none.
	Node string `json:"node,omitempty"`
}

// testScript is the top-level JSON structure for a test script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

var knownActions = map[string]bool{
	"move": true, "leave": true, "path": true, "wait": true,
	"screenshot": true, "tier": true, "speed": true, "color": true,
	"record": true, "expect_hover": true,
}

// TestRunner sequences injected pointer events, setting changes,
// screenshots and recordings across frames for automated visual testing.
// Attach to a Player via SetTestRunner.
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
	failures  []string
}

// LoadTestScript parses a JSON test script. Unknown actions and malformed
// values are rejected here rather than mid-run.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		if !knownActions[st.Action] {
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
		if err := validateStep(st); err != nil {
			return nil, fmt.Errorf("parse test script: step %d: %w", i, err)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

func validateStep(st testStep) error {
	switch st.Action {
	case "tier":
		if _, ok := ParseStyleTier(st.Value); !ok {
			return fmt.Errorf("invalid tier %q", st.Value)
		}
	case "color":
		if _, ok := ParseColor(st.Value); !ok {
			return fmt.Errorf("invalid color %q", st.Value)
		}
	case "speed":
		if _, err := strconv.ParseFloat(st.Value, 64); err != nil {
			return fmt.Errorf("invalid speed %q", st.Value)
		}
	case "record":
		if st.Seconds < 0 {
			return fmt.Errorf("negative record duration %v", st.Seconds)
		}
	}
	return nil
}

// Done reports whether all steps in the test script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// Failures returns the messages of expect_hover steps that did not hold.
func (r *TestRunner) Failures() []string {
	return r.failures
}

// step advances the runner by one frame. Called from Player.Update.
func (r *TestRunner) step(p *Player) {
	if r.done {
		return
	}
	in := &p.interaction
	// Wait for pending injections to drain before advancing.
	if in.Pending() > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		p.Screenshot(st.Label)
	case "move":
		in.InjectMove(st.X, st.Y)
	case "leave":
		in.InjectLeave()
	case "path":
		frames := max(st.Frames, 2)
		in.InjectPath(st.FromX, st.FromY, st.ToX, st.ToY, frames)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	case "tier":
		if t, ok := ParseStyleTier(st.Value); ok {
			p.Settings.SetTier(t)
		}
	case "color":
		if c, ok := ParseColor(st.Value); ok {
			p.Settings.SetParticleColor(c)
		}
	case "speed":
		if v, err := strconv.ParseFloat(st.Value, 64); err == nil {
			p.Settings.SetSpeed(v)
		}
	case "record":
		if st.Seconds > 0 && p.Recorder != nil {
			if err := p.Recorder.Start(time.Duration(st.Seconds * float64(time.Second))); err != nil {
				p.logger().Warn("flowscene: test script record", "error", err)
			}
		} else {
			p.StartRecording()
		}
	case "expect_hover":
		got := in.State()
		if got.Hovered != st.Node || got.HasHover != (st.Node != "") {
			msg := fmt.Sprintf("step %d: hover = %q, want %q", r.cursor-1, got.Hovered, st.Node)
			r.failures = append(r.failures, msg)
			p.logger().Warn("flowscene: test script expectation failed", "detail", msg)
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && in.Pending() == 0 {
		r.done = true
	}
}
