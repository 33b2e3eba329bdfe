package flowscene

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserConfig configures a BrowserMeasurer.
type BrowserConfig struct {
	// RemoteURL is the DevTools WebSocket URL of an existing Chrome.
	// Empty launches a local headless Chrome.
	RemoteURL string

	// Samples is the number of points sampled along each path with
	// getPointAtLength. Default: 64.
	Samples int

	Logger *slog.Logger
}

func (c *BrowserConfig) defaults() {
	if c.Samples < 2 {
		c.Samples = 64
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// BrowserMeasurer measures path data with the browser's native SVG geometry
// (getBBox, getTotalLength, getPointAtLength). It is the DOM-backed
// GeometryProvider; FlatGeometry is the pure-Go one.
type BrowserMeasurer struct {
	cfg     BrowserConfig
	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
}

// NewBrowserMeasurer launches (or connects to) Chrome and opens a blank page
// hosting a detached <svg> used for measurement.
func NewBrowserMeasurer(ctx context.Context, cfg BrowserConfig) (*BrowserMeasurer, error) {
	cfg.defaults()
	m := &BrowserMeasurer{cfg: cfg}

	u := cfg.RemoteURL
	if u == "" {
		m.lnch = launcher.New().Headless(true).Context(ctx)
		var err error
		u, err = m.lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("flowscene: launch browser: %w", err)
		}
	}
	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		m.killLauncher()
		return nil, fmt.Errorf("flowscene: connect browser: %w", err)
	}
	m.browser = b

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("flowscene: open page: %w", err)
	}
	m.page = page
	if _, err := page.Context(ctx).Eval(measureSetupJS); err != nil {
		m.Close()
		return nil, fmt.Errorf("flowscene: install measurer: %w", err)
	}
	cfg.Logger.Info("flowscene: browser geometry ready", "remote", cfg.RemoteURL != "")
	return m, nil
}

const measureSetupJS = `() => {
	const ns = "http://www.w3.org/2000/svg";
	const svg = document.createElementNS(ns, "svg");
	svg.setAttribute("width", "0");
	svg.setAttribute("height", "0");
	const path = document.createElementNS(ns, "path");
	svg.appendChild(path);
	document.body.appendChild(svg);
	window.__flowscenePath = path;
}`

const measurePathJS = `(d, samples) => {
	const path = window.__flowscenePath;
	path.setAttribute("d", d);
	let length = 0;
	try { length = path.getTotalLength(); } catch (e) { length = 0; }
	let box = {x: 0, y: 0, width: 0, height: 0};
	try { const b = path.getBBox(); box = {x: b.x, y: b.y, width: b.width, height: b.height}; } catch (e) {}
	const points = [];
	if (length > 0) {
		for (let i = 0; i <= samples; i++) {
			const p = path.getPointAtLength(length * i / samples);
			points.push([p.x, p.y]);
		}
	}
	return JSON.stringify({length, box, points});
}`

type browserMeasurement struct {
	Length float64 `json:"length"`
	Box    struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"box"`
	Points [][2]float64 `json:"points"`
}

// Measure evaluates d in the browser and returns its geometry.
func (m *BrowserMeasurer) Measure(ctx context.Context, d string) (*BrowserGeometry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.page == nil {
		return nil, fmt.Errorf("flowscene: browser measurer is closed")
	}
	res, err := m.page.Context(ctx).Eval(measurePathJS, d, m.cfg.Samples)
	if err != nil {
		return nil, fmt.Errorf("flowscene: measure path: %w", err)
	}
	var bm browserMeasurement
	if err := json.Unmarshal([]byte(res.Value.Str()), &bm); err != nil {
		return nil, fmt.Errorf("flowscene: decode measurement: %w", err)
	}
	return newBrowserGeometry(bm), nil
}

// Geometry implements GeometryProvider. Browser failures fall back to the
// pure-geometry flattener so extraction never fails on measurement.
func (m *BrowserMeasurer) Geometry(d string) PathGeometry {
	g, err := m.Measure(context.Background(), d)
	if err != nil {
		m.cfg.Logger.Warn("flowscene: browser measure failed, flattening instead", "error", err)
		return FlatGeometry{}.Geometry(d)
	}
	return g
}

// Close closes the page and browser and kills a locally launched Chrome.
func (m *BrowserMeasurer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	if m.page != nil {
		err = m.page.Close()
		m.page = nil
	}
	if m.browser != nil {
		if cerr := m.browser.Close(); err == nil {
			err = cerr
		}
		m.browser = nil
	}
	m.killLauncher()
	return err
}

func (m *BrowserMeasurer) killLauncher() {
	if m.lnch != nil {
		m.lnch.Kill()
		m.lnch = nil
	}
}

// BrowserGeometry is a PathGeometry measured by the browser. Length and
// bounds are exact; PointAt interpolates between arc-length samples taken
// with getPointAtLength.
type BrowserGeometry struct {
	bounds  Rect
	length  float64
	samples *Polyline
}

func newBrowserGeometry(bm browserMeasurement) *BrowserGeometry {
	pts := make([]Vec2, len(bm.Points))
	for i, p := range bm.Points {
		pts[i] = Vec2{p[0], p[1]}
	}
	return &BrowserGeometry{
		bounds:  Rect{X: bm.Box.X, Y: bm.Box.Y, Width: bm.Box.Width, Height: bm.Box.Height},
		length:  bm.Length,
		samples: NewPolyline(pts),
	}
}

// BoundingBox implements PathGeometry.
func (g *BrowserGeometry) BoundingBox() Rect { return g.bounds }

// Length implements PathGeometry.
func (g *BrowserGeometry) Length() float64 { return g.length }

// PointAt implements PathGeometry. Samples are evenly spaced in arc length,
// so sampling the polyline by fraction keeps uniform speed.
func (g *BrowserGeometry) PointAt(fraction float64) (Vec2, bool) {
	if g.length <= 0 {
		return Vec2{}, false
	}
	return g.samples.PointAt(fraction)
}
