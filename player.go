package flowscene

import (
	"log/slog"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Minimum surface size, so an empty scene still opens a usable window.
const (
	minSurfaceWidth  = 320
	minSurfaceHeight = 240
)

// speedStep is the multiplier change per key press.
const speedStep = 0.25

// Player is the render loop. It implements ebiten.Game: every tick it
// loads the latest scene snapshot and live settings, advances particles,
// resolves hover and draws a frame.
type Player struct {
	Store    *SceneStore
	Settings *SettingsStore
	// Recorder captures frames while a recording window is open. Nil
	// disables recording.
	Recorder *Recorder
	// ScreenshotDir is where Screenshot writes. Default DefaultScreenshotDir.
	ScreenshotDir string
	// ExitWhenDone ends the loop once an attached test runner finishes and
	// no recording is active.
	ExitWhenDone bool
	// Logger overrides the default slog logger.
	Logger *slog.Logger

	compositor  *Compositor
	interaction Interaction
	runner      *TestRunner

	screenshotQueue []string
	screenshotSeq   int
}

// NewPlayer creates a player reading from store and settings. A nil font
// uses DefaultLabelFont. Passing a nil store panics.
func NewPlayer(store *SceneStore, settings *SettingsStore, font *LabelFont) (*Player, error) {
	if store == nil {
		panic("flowscene: NewPlayer requires a scene store")
	}
	if settings == nil {
		settings = NewSettingsStore(DefaultSettings())
	}
	c, err := NewCompositor(font)
	if err != nil {
		return nil, err
	}
	p := &Player{Store: store, Settings: settings, compositor: c}
	c.sceneDrawn = p.sceneDrawn
	return p, nil
}

func (p *Player) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// SetLogger sets the logger used by the player and its compositor.
func (p *Player) SetLogger(l *slog.Logger) {
	p.Logger = l
	p.compositor.Logger = l
}

// Interaction returns the player's pointer state machine, for injecting
// events and registering hover callbacks.
func (p *Player) Interaction() *Interaction {
	return &p.interaction
}

// SetEntityStore forwards hover changes to an ECS bridge.
func (p *Player) SetEntityStore(store EntityStore) {
	p.interaction.SetEntityStore(store)
}

// SetTestRunner attaches a TestRunner. Its step runs at the start of every
// Update, before pointer input is processed.
func (p *Player) SetTestRunner(r *TestRunner) {
	p.runner = r
}

// Failures returns how many frames were skipped after a draw panic.
func (p *Player) Failures() uint64 {
	return p.compositor.Failures()
}

// Update implements ebiten.Game.
func (p *Player) Update() error {
	dt := 1 / float64(ebiten.TPS())
	if math.IsInf(dt, 0) || dt <= 0 {
		dt = 1.0 / ReferenceTPS
	}

	if p.runner != nil {
		p.runner.step(p)
	}
	p.handleKeys()

	sc := p.Store.Load()
	st := p.Settings.Load()

	p.interaction.update(sc, p.surfaceSize(sc))
	if sc.Particles != nil {
		sc.Particles.Tick(dt, st.SpeedMultiplier)
	}
	p.compositor.Update(dt, p.interaction.State(), st)

	if p.ExitWhenDone && p.runner != nil && p.runner.Done() && len(p.screenshotQueue) == 0 &&
		(p.Recorder == nil || !p.Recorder.Active()) {
		return ebiten.Termination
	}
	return nil
}

// handleKeys applies the keyboard shortcuts: T toggles the tier, +/- change
// speed, R starts a recording, S queues a screenshot.
func (p *Player) handleKeys() {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		p.Settings.Update(func(s *Settings) {
			if s.Tier == TierPremium {
				s.Tier = TierDraft
			} else {
				s.Tier = TierPremium
			}
		})
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		p.Settings.SetSpeed(p.Settings.Load().SpeedMultiplier + speedStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		p.Settings.SetSpeed(p.Settings.Load().SpeedMultiplier - speedStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		p.StartRecording()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		p.Screenshot("manual")
	}
}

// StartRecording opens a recording window of Settings.RecordDuration.
// Failures (no recorder, already recording) are logged.
func (p *Player) StartRecording() {
	if p.Recorder == nil {
		p.logger().Warn("flowscene: recording unavailable: no recorder configured")
		return
	}
	if err := p.Recorder.Start(p.Settings.Load().RecordDuration); err != nil {
		p.logger().Warn("flowscene: recording not started", "error", err)
	}
}

// Draw implements ebiten.Game.
func (p *Player) Draw(screen *ebiten.Image) {
	var status FrameStatus
	if p.Recorder != nil {
		status = p.Recorder.Status()
	}
	status.Message = p.Store.LastError()

	sc := p.Store.Load()
	st := p.Settings.Load()
	// Draw errors are logged by the compositor; the next frame starts clean.
	_ = p.compositor.Draw(screen, sc, st, p.interaction.State(), status)
}

// sceneDrawn runs between the scene layers and the overlay.
func (p *Player) sceneDrawn(screen *ebiten.Image) {
	if p.Recorder != nil {
		p.Recorder.capture(screen)
	}
	p.flushScreenshots(screen)
}

// Layout implements ebiten.Game. The logical surface is the scene's size so
// one surface pixel is one scene unit.
func (p *Player) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := p.surfaceSize(p.Store.Load())
	return int(s.X), int(s.Y)
}

func (p *Player) surfaceSize(sc *Scene) Vec2 {
	w := math.Max(math.Ceil(sc.Width), minSurfaceWidth)
	h := math.Max(math.Ceil(sc.Height), minSurfaceHeight)
	return Vec2{w, h}
}

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title string
	// Width and Height override the initial window size. Zero uses the
	// current scene's size.
	Width, Height int
	Resizable     bool
}

// Run opens a window and blocks until it is closed or the player ends the
// loop. A recording in progress is stopped and its encode awaited.
func Run(p *Player, cfg RunConfig) error {
	title := cfg.Title
	if title == "" {
		title = "flowscene"
	}
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		s := p.surfaceSize(p.Store.Load())
		w, h = int(s.X), int(s.Y)
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w, h)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	err := ebiten.RunGame(p)
	p.compositor.Close()
	if p.Recorder != nil {
		p.Recorder.Stop()
		if werr := p.Recorder.Wait(); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
