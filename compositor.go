package flowscene

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Palette.
var (
	DraftBackground   = MustParseColor("#ffffff")
	PremiumBackground = MustParseColor("#f8fafc")
	GridColor         = MustParseColor("#e2e8f0")

	// Premium edges ignore extracted strokes and use these two tones.
	PremiumStructuralTone = MustParseColor("#94a3b8")
	PremiumMessageTone    = MustParseColor("#475569")

	// Draft fallbacks when an edge has no resolved stroke.
	StructuralFallbackStroke = MustParseColor("#64748b")
	MessageFallbackStroke    = MustParseColor("#333333")

	LabelColor      = MustParseColor("#1e293b")
	ShadowColor     = Color{0.06, 0.09, 0.16, 0.22}
	RecordingColor  = MustParseColor("#ef4444")
	ErrorBannerFill = Color{0.6, 0.11, 0.11, 0.9}
)

// StructuralDash is the dash pattern for structural edges without one.
var StructuralDash = []float64{6, 4}

// Drawing constants, in surface pixels.
const (
	GridSpacing = 24

	messageEdgeWidth    = 1.6
	structuralEdgeWidth = 1.2
	nodeStrokeWidth     = 1.5
	highlightWidth      = 2.5

	particleRadius  = 3
	hoverGlowRadius = 12
	shadowRadius    = 6
	hoverGlowAlpha  = 0.85
)

// premiumContainerTint is how far premium container fills lean toward the
// structural tone.
const premiumContainerTint = 0.35

var shadowOffset = Vec2{0, 3}

// FrameStatus is the per-frame state drawn outside the scene layers.
type FrameStatus struct {
	Recording      bool
	RecordElapsed  time.Duration
	RecordDuration time.Duration
	// Message is the last extraction error, shown as a banner.
	Message string
}

// Compositor draws a scene onto a surface. It is owned by the render
// goroutine and is not safe for concurrent use.
type Compositor struct {
	// Logger overrides the default slog logger.
	Logger *slog.Logger

	font  *LabelFont
	pool  renderTexturePool
	blur  *BlurFilter
	hover hoverFade
	pulse *pulse
	fps   fpsWidget

	cacheScene *Scene
	cacheLines []*Polyline

	// sceneDrawn runs after the scene layers and before the overlay, so
	// captures exclude the recording indicator and banners.
	sceneDrawn func(dst *ebiten.Image)

	stats    debugStats
	failures uint64
}

// NewCompositor creates a compositor. A nil font uses DefaultLabelFont.
func NewCompositor(font *LabelFont) (*Compositor, error) {
	if font == nil {
		var err error
		if font, err = DefaultLabelFont(); err != nil {
			return nil, err
		}
	}
	return &Compositor{
		font:  font,
		blur:  NewBlurFilter(hoverGlowRadius),
		pulse: newPulse(0.35, 1),
	}, nil
}

func (c *Compositor) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Update advances the compositor's own animations by dt seconds.
func (c *Compositor) Update(dt float64, in InteractionState, st Settings) {
	c.hover.update(float32(dt), in)
	c.pulse.update(float32(dt))
	if st.ShowFPS {
		c.fps.update(dt)
	}
}

// Close frees the compositor's pooled offscreen textures.
func (c *Compositor) Close() {
	c.pool.Drop()
}

// Failures returns how many frames panicked and were skipped.
func (c *Compositor) Failures() uint64 {
	return c.failures
}

// Draw renders one frame. A panic anywhere in the frame is recovered,
// logged and returned as an error so the render loop keeps going.
func (c *Compositor) Draw(dst *ebiten.Image, sc *Scene, st Settings, in InteractionState, status FrameStatus) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.failures++
			err = fmt.Errorf("flowscene: draw: %v", r)
			c.logger().Error("flowscene: frame skipped", "error", err)
		}
	}()
	if sc == nil {
		sc = EmptyScene()
	}
	if sc != c.cacheScene {
		// Offscreen sizes follow the node set.
		c.pool.Drop()
	}

	timer := newDebugTimer(st.Debug)
	stats := debugStats{}

	dst.Fill(background(st.Tier).RGBA())
	if st.Tier == TierPremium && st.ShowGrid {
		drawGrid(dst)
	}
	stats.backgroundTime = timer.lap()

	containers, others := nodeLayers(sc.Nodes)
	for _, i := range containers {
		c.drawNode(dst, sc.Nodes[i], sc.Offset, st, in, &stats)
	}
	stats.nodeTime = timer.lap()

	c.drawEdges(dst, sc, st, &stats)
	stats.edgeTime = timer.lap()

	if st.Tier == TierPremium {
		c.drawParticles(dst, sc, st.ParticleColor, &stats)
	}
	stats.particleTime = timer.lap()

	for _, i := range others {
		c.drawNode(dst, sc.Nodes[i], sc.Offset, st, in, &stats)
	}
	stats.nodeTime += timer.lap()
	stats.nodeCount = len(sc.Nodes)

	if c.sceneDrawn != nil {
		c.sceneDrawn(dst)
	}

	c.drawOverlay(dst, st, status)
	stats.overlayTime = timer.lap()

	c.stats = stats
	if st.Debug {
		debugLog(c.logger(), sc.Pass, stats)
	}
	return nil
}

func background(t StyleTier) Color {
	if t == TierPremium {
		return PremiumBackground
	}
	return DraftBackground
}

func drawGrid(dst *ebiten.Image) {
	b := dst.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())
	col := GridColor.RGBA()
	for x := float32(GridSpacing); x < w; x += GridSpacing {
		vector.StrokeLine(dst, x, 0, x, h, 1, col, false)
	}
	for y := float32(GridSpacing); y < h; y += GridSpacing {
		vector.StrokeLine(dst, 0, y, w, y, 1, col, false)
	}
}

// nodeLayers splits node indices into the container layer and the rest,
// with annotations moved to the end of the rest. Order is otherwise
// extraction order.
func nodeLayers(nodes []DiagramNode) (containers, others []int) {
	var annotations []int
	for i := range nodes {
		switch nodes[i].Kind {
		case KindContainer:
			containers = append(containers, i)
		case KindAnnotation:
			annotations = append(annotations, i)
		default:
			others = append(others, i)
		}
	}
	return containers, append(others, annotations...)
}

// edgeDrawOrder returns edge indices with structural edges first, keeping
// extraction order within each kind.
func edgeDrawOrder(edges []DiagramEdge) []int {
	order := make([]int, len(edges))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return edgeRank(edges[a].Kind) - edgeRank(edges[b].Kind)
	})
	return order
}

func edgeRank(k EdgeKind) int {
	if k == EdgeStructural {
		return 0
	}
	return 1
}

// edgeStyle resolves an edge's stroke color and dash pattern for a tier.
// A nil dash is solid.
func edgeStyle(e DiagramEdge, tier StyleTier) (Color, []float64) {
	var col Color
	switch {
	case tier == TierPremium && e.Kind == EdgeStructural:
		col = PremiumStructuralTone
	case tier == TierPremium:
		col = PremiumMessageTone
	case e.HasStroke:
		col = e.Stroke
	case e.Kind == EdgeStructural:
		col = StructuralFallbackStroke
	default:
		col = MessageFallbackStroke
	}
	dash := e.Dash
	if len(dash) == 0 && e.Kind == EdgeStructural {
		dash = StructuralDash
	}
	return col, dash
}

func (c *Compositor) edgeLines(sc *Scene) []*Polyline {
	if c.cacheScene != sc {
		c.cacheScene = sc
		c.cacheLines = make([]*Polyline, len(sc.Edges))
		for i := range sc.Edges {
			c.cacheLines[i] = FlattenPath(sc.Edges[i].Path)
		}
	}
	return c.cacheLines
}

func (c *Compositor) drawEdges(dst *ebiten.Image, sc *Scene, st Settings, stats *debugStats) {
	lines := c.edgeLines(sc)
	for _, i := range edgeDrawOrder(sc.Edges) {
		e := sc.Edges[i]
		col, dash := edgeStyle(e, st.Tier)
		w := messageEdgeWidth
		if e.Kind == EdgeStructural {
			w = structuralEdgeWidth
		}
		for _, run := range lines[i].Dashes(dash) {
			strokePath(dst, polylinePath(run, sc.Offset), col, w)
		}
		stats.edgeCount++
	}
}

func (c *Compositor) drawParticles(dst *ebiten.Image, sc *Scene, col Color, stats *debugStats) {
	ps := sc.Particles
	if ps == nil {
		return
	}
	for i := 0; i < ps.Len(); i++ {
		pos, ok := ps.Position(i)
		if !ok {
			stats.skippedCount++
			continue
		}
		pos = pos.Add(sc.Offset)
		// Soft halo then core; multiply makes overlaps darker.
		fillPath(dst, circlePath(pos, particleRadius*2.4), col.WithAlpha(0.14), BlendMultiply)
		fillPath(dst, circlePath(pos, particleRadius*1.6), col.WithAlpha(0.28), BlendMultiply)
		fillPath(dst, circlePath(pos, particleRadius), col.WithAlpha(0.95), BlendMultiply)
		stats.particleCount++
	}
}

type nodeEffectKind uint8

const (
	effectNone nodeEffectKind = iota
	effectShadow
	effectGlow
)

// nodeEffect picks the offscreen effect drawn beneath a node: the hovered
// node glows, other premium non-container nodes cast a shadow.
func nodeEffect(n DiagramNode, tier StyleTier, hovered bool) nodeEffectKind {
	switch {
	case hovered:
		return effectGlow
	case tier == TierPremium && n.Kind != KindContainer:
		return effectShadow
	}
	return effectNone
}

func (c *Compositor) drawNode(dst *ebiten.Image, n DiagramNode, off Vec2, st Settings, in InteractionState, stats *debugStats) {
	hovered := in.IsHovered(n.ID)
	switch nodeEffect(n, st.Tier, hovered) {
	case effectGlow:
		strength := c.hover.strengthFor(in)
		c.drawEffect(dst, n, off, GlowEffect{
			Radius: hoverGlowRadius,
			Color:  st.ParticleColor.WithAlpha(hoverGlowAlpha * strength),
		})
		stats.effectCount++
	case effectShadow:
		c.drawEffect(dst, n, off, GlowEffect{Radius: shadowRadius, Color: ShadowColor, Offset: shadowOffset})
		stats.effectCount++
	}

	p := shapePath(n, off)
	fillPath(dst, p, nodeFill(n, st.Tier), BlendNormal)
	strokePath(dst, p, n.Stroke, nodeStrokeWidth)
	if n.Shape == ShapeFoldedNote {
		b := n.Bounds()
		fold := math.Min(FoldSize, math.Min(b.Width, b.Height))
		x, y := b.X+b.Width-fold, b.Y
		crease := []Vec2{{x, y}, {x, y + fold}, {b.X + b.Width, y + fold}}
		strokePath(dst, polylinePath(crease, off), n.Stroke, 1)
	}
	if hovered {
		strokePath(dst, p, st.ParticleColor, highlightWidth)
	}
	c.font.drawLabel(dst, n, off, LabelColor)
}

// nodeFill returns the fill n is drawn with. Premium containers are tinted
// toward the structural tone and keep their forced alpha.
func nodeFill(n DiagramNode, tier StyleTier) Color {
	if tier == TierPremium && n.Kind == KindContainer {
		return n.Fill.Blend(PremiumStructuralTone, premiumContainerTint)
	}
	return n.Fill
}

// drawEffect renders a blurred, tinted silhouette of n beneath it.
func (c *Compositor) drawEffect(dst *ebiten.Image, n DiagramNode, off Vec2, g GlowEffect) {
	if g.Color.A <= 0 {
		return
	}
	pad := g.Padding()
	b := n.Bounds()
	w := int(math.Ceil(b.Width)) + 2*pad
	h := int(math.Ceil(b.Height)) + 2*pad
	src := c.pool.Acquire(w, h)
	out := c.pool.Acquire(w, h)
	defer c.pool.Release(src)
	defer c.pool.Release(out)

	shift := Vec2{float64(pad) - b.X, float64(pad) - b.Y}
	fillPath(src, shapePath(n, shift), g.Color, BlendNormal)
	c.blur.Radius = g.Radius
	c.blur.Apply(src, out)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(b.X-float64(pad)+off.X+g.Offset.X, b.Y-float64(pad)+off.Y+g.Offset.Y)
	op.Filter = ebiten.FilterLinear
	dst.DrawImage(out, op)
}

func (c *Compositor) drawOverlay(dst *ebiten.Image, st Settings, status FrameStatus) {
	b := dst.Bounds()
	if status.Recording {
		cx, cy := float64(b.Dx())-18, 18.0
		fillPath(dst, circlePath(Vec2{cx, cy}, 6), RecordingColor.WithAlpha(c.pulse.value), BlendNormal)
		label := fmt.Sprintf("REC %.1fs", status.RecordElapsed.Seconds())
		if status.RecordDuration > 0 {
			label += fmt.Sprintf(" / %.1fs", status.RecordDuration.Seconds())
		}
		w, _ := c.font.MeasureString(label)
		c.font.drawText(dst, label, cx-12-w, cy-LabelLineHeight/2, RecordingColor)
	}
	if status.Message != "" {
		h := float32(LabelLineHeight + 8)
		y := float32(b.Dy()) - h
		vector.FillRect(dst, 0, y, float32(b.Dx()), h, ErrorBannerFill.RGBA(), false)
		c.font.drawText(dst, status.Message, 8, float64(y)+4, ColorWhite)
	}
	if st.ShowFPS {
		c.fps.draw(dst)
	}
}
