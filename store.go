package flowscene

import (
	"sync"
	"sync/atomic"
	"time"
)

// DebounceDelay is the quiet period after a source change before extraction
// runs. Changes arriving inside the window restart it.
const DebounceDelay = 300 * time.Millisecond

// SceneStore publishes scenes from the extraction goroutine to the render
// loop. Scenes are replaced wholesale, never mutated in place after
// publication, so readers always see a complete snapshot. It is safe for
// concurrent use.
type SceneStore struct {
	scene   atomic.Pointer[Scene]
	lastErr atomic.Pointer[string]
	pass    atomic.Uint64
}

// NewSceneStore returns a store holding an empty scene.
func NewSceneStore() *SceneStore {
	s := &SceneStore{}
	s.scene.Store(EmptyScene())
	return s
}

// Load returns the current scene. Never nil.
func (s *SceneStore) Load() *Scene {
	return s.scene.Load()
}

// Publish replaces the current scene and clears the last error. A nil
// scene is ignored.
func (s *SceneStore) Publish(sc *Scene) {
	if sc == nil {
		return
	}
	s.scene.Store(sc)
	s.lastErr.Store(nil)
}

// NextPass returns a fresh, strictly increasing extraction pass number.
func (s *SceneStore) NextPass() uint64 {
	return s.pass.Add(1)
}

// SetError records a one-line message for the most recent failed
// extraction. The current scene is left untouched.
func (s *SceneStore) SetError(msg string) {
	s.lastErr.Store(&msg)
}

// LastError returns the message recorded by SetError, or "" if the most
// recent extraction succeeded.
func (s *SceneStore) LastError() string {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return ""
}

// Scheduler debounces a function: each Schedule restarts the delay and only
// the last schedule inside a burst runs. Runs never overlap. It is safe for
// concurrent use.
type Scheduler struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool

	runMu sync.Mutex
	runs  atomic.Int64
}

// NewScheduler creates a scheduler. A non-positive delay uses DebounceDelay.
func NewScheduler(delay time.Duration, fn func()) *Scheduler {
	if delay <= 0 {
		delay = DebounceDelay
	}
	return &Scheduler{delay: delay, fn: fn}
}

// Schedule (re)starts the debounce window.
func (s *Scheduler) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	latest := gen == s.gen && !s.stopped
	s.mu.Unlock()
	if !latest {
		return
	}
	s.run()
}

func (s *Scheduler) run() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.runs.Add(1)
	s.fn()
}

// Flush cancels any pending window and runs the function now, on the
// calling goroutine.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	stopped := s.stopped
	s.mu.Unlock()
	if !stopped {
		s.run()
	}
}

// Runs returns how many times the function has run.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Stop cancels any pending run. Schedule is a no-op afterwards. A run
// already in progress completes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
