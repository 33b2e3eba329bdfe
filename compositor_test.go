package flowscene

import (
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Layer order ---

func TestNodeLayers(t *testing.T) {
	nodes := []DiagramNode{
		{ID: "n0", Kind: KindAnnotation},
		{ID: "n1", Kind: KindStandalone},
		{ID: "n2", Kind: KindContainer},
		{ID: "n3", Kind: KindActor},
		{ID: "n4", Kind: KindContainer},
	}
	containers, others := nodeLayers(nodes)
	if !slices.Equal(containers, []int{2, 4}) {
		t.Errorf("containers = %v, want [2 4]", containers)
	}
	if !slices.Equal(others, []int{1, 3, 0}) {
		t.Errorf("others = %v, want [1 3 0]", others)
	}
}

func TestEdgeDrawOrder(t *testing.T) {
	edges := []DiagramEdge{
		{ID: "e0", Kind: EdgeMessage},
		{ID: "e1", Kind: EdgeStructural},
		{ID: "e2", Kind: EdgeMessage},
		{ID: "e3", Kind: EdgeStructural},
	}
	if got := edgeDrawOrder(edges); !slices.Equal(got, []int{1, 3, 0, 2}) {
		t.Errorf("order = %v, want [1 3 0 2]", got)
	}
	if got := edgeDrawOrder(nil); len(got) != 0 {
		t.Errorf("order of nil = %v", got)
	}
}

// --- Styling ---

func TestEdgeStyle(t *testing.T) {
	red := Color{1, 0, 0, 1}
	tests := []struct {
		name     string
		edge     DiagramEdge
		tier     StyleTier
		want     Color
		wantDash []float64
	}{
		{"premium message", DiagramEdge{Kind: EdgeMessage, Stroke: red, HasStroke: true}, TierPremium, PremiumMessageTone, nil},
		{"premium structural", DiagramEdge{Kind: EdgeStructural}, TierPremium, PremiumStructuralTone, StructuralDash},
		{"draft keeps stroke", DiagramEdge{Kind: EdgeMessage, Stroke: red, HasStroke: true}, TierDraft, red, nil},
		{"draft message fallback", DiagramEdge{Kind: EdgeMessage}, TierDraft, MessageFallbackStroke, nil},
		{"draft structural fallback", DiagramEdge{Kind: EdgeStructural}, TierDraft, StructuralFallbackStroke, StructuralDash},
		{"own dash wins", DiagramEdge{Kind: EdgeStructural, Dash: []float64{2, 2}}, TierDraft, StructuralFallbackStroke, []float64{2, 2}},
		{"dashed message", DiagramEdge{Kind: EdgeMessage, Dash: []float64{3, 1}}, TierPremium, PremiumMessageTone, []float64{3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, dash := edgeStyle(tt.edge, tt.tier)
			if col != tt.want {
				t.Errorf("color = %+v, want %+v", col, tt.want)
			}
			if !slices.Equal(dash, tt.wantDash) {
				t.Errorf("dash = %v, want %v", dash, tt.wantDash)
			}
		})
	}
}

func TestNodeEffect(t *testing.T) {
	standalone := DiagramNode{Kind: KindStandalone}
	container := DiagramNode{Kind: KindContainer}
	tests := []struct {
		name    string
		node    DiagramNode
		tier    StyleTier
		hovered bool
		want    nodeEffectKind
	}{
		{"premium shadow", standalone, TierPremium, false, effectShadow},
		{"draft flat", standalone, TierDraft, false, effectNone},
		{"container no shadow", container, TierPremium, false, effectNone},
		{"hover glow premium", standalone, TierPremium, true, effectGlow},
		{"hover glow draft", standalone, TierDraft, true, effectGlow},
		{"hover glow container", container, TierDraft, true, effectGlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nodeEffect(tt.node, tt.tier, tt.hovered); got != tt.want {
				t.Errorf("nodeEffect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackground(t *testing.T) {
	if background(TierDraft) != DraftBackground {
		t.Error("draft background")
	}
	if background(TierPremium) != PremiumBackground {
		t.Error("premium background")
	}
	if DraftBackground.Hex() != "#ffffff" {
		t.Errorf("draft background = %s, want white", DraftBackground.Hex())
	}
}

// --- Shapes ---

func TestCornerRadius(t *testing.T) {
	if cornerRadius(KindContainer) != ContainerCornerRadius {
		t.Error("container radius")
	}
	for _, k := range []NodeKind{KindStandalone, KindActor, KindAnnotation} {
		if cornerRadius(k) != NodeCornerRadius {
			t.Errorf("radius(%v) = %v", k, cornerRadius(k))
		}
	}
}

func TestDiamondPoints(t *testing.T) {
	pts := diamondPoints(Rect{X: 0, Y: 0, Width: 40, Height: 20})
	want := []Vec2{{20, 0}, {40, 10}, {20, 20}, {0, 10}}
	if len(pts) != len(want) {
		t.Fatalf("points = %v", pts)
	}
	for i := range want {
		assertVec(t, "diamond", pts[i], want[i])
	}
}

func TestFoldedNotePoints(t *testing.T) {
	pts := foldedNotePoints(Rect{X: 10, Y: 10, Width: 100, Height: 50}, FoldSize)
	want := []Vec2{{10, 10}, {100, 10}, {110, 20}, {110, 60}, {10, 60}}
	if len(pts) != len(want) {
		t.Fatalf("points = %v", pts)
	}
	for i := range want {
		assertVec(t, "note", pts[i], want[i])
	}

	// The fold never exceeds the box.
	pts = foldedNotePoints(Rect{Width: 6, Height: 4}, FoldSize)
	assertVec(t, "clamped", pts[1], Vec2{2, 0})
	assertVec(t, "clamped", pts[2], Vec2{6, 4})
}

// --- Labels ---

func TestLayoutLabel(t *testing.T) {
	n := DiagramNode{Label: "Start", Center: Vec2{50, 50}, Size: Vec2{80, 40}}
	lines := LayoutLabel(n)
	if len(lines) != 1 {
		t.Fatalf("lines = %v", lines)
	}
	assertVec(t, "single", lines[0].Center, Vec2{50, 50})

	n.Label = "two\nlines"
	lines = LayoutLabel(n)
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	assertVec(t, "first", lines[0].Center, Vec2{50, 50 - LabelLineHeight/2.0})
	assertVec(t, "second", lines[1].Center, Vec2{50, 50 + LabelLineHeight/2.0})
}

func TestLayoutLabelContainer(t *testing.T) {
	n := DiagramNode{Label: "Cluster", Kind: KindContainer, Center: Vec2{100, 100}, Size: Vec2{200, 100}}
	lines := LayoutLabel(n)
	if len(lines) != 1 {
		t.Fatalf("lines = %v", lines)
	}
	assertVec(t, "top", lines[0].Center, Vec2{100, 50 + containerLabelInset + LabelLineHeight/2.0})
}

func TestLayoutLabelEmpty(t *testing.T) {
	if lines := LayoutLabel(DiagramNode{Size: Vec2{10, 10}}); lines != nil {
		t.Errorf("lines = %v, want nil", lines)
	}
}

// --- Draw ---

func newTestCompositor(t *testing.T) *Compositor {
	t.Helper()
	c, err := NewCompositor(nil)
	if err != nil {
		t.Fatalf("NewCompositor: %v", err)
	}
	c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return c
}

func TestCompositorDrawScene(t *testing.T) {
	c := newTestCompositor(t)
	sc := BuildScene(mustParseTree(t, chainSVG), BuildOptions{Rand: testRand(), Pass: 1})
	dst := ebiten.NewImage(int(sc.Width), int(sc.Height))
	in := InteractionState{Hovered: sc.Nodes[0].ID, HasHover: true}
	status := FrameStatus{Recording: true, Message: "Syntax error"}

	for _, tier := range []StyleTier{TierDraft, TierPremium} {
		st := DefaultSettings()
		st.Tier = tier
		st.Debug = true
		if err := c.Draw(dst, sc, st, in, status); err != nil {
			t.Fatalf("Draw(%v): %v", tier, err)
		}
		if c.stats.nodeCount != len(sc.Nodes) || c.stats.edgeCount != len(sc.Edges) {
			t.Errorf("tier %v drew %d nodes, %d edges; want %d, %d",
				tier, c.stats.nodeCount, c.stats.edgeCount, len(sc.Nodes), len(sc.Edges))
		}
	}
	if c.stats.particleCount != sc.Particles.Len() {
		t.Errorf("particles drawn = %d, want %d", c.stats.particleCount, sc.Particles.Len())
	}
	// Premium: hover glow plus a shadow for each other node.
	if c.stats.effectCount != len(sc.Nodes) {
		t.Errorf("effects = %d, want %d", c.stats.effectCount, len(sc.Nodes))
	}
	if c.pool.live != 0 {
		t.Errorf("pool live = %d after frame, want 0", c.pool.live)
	}
	if c.Failures() != 0 {
		t.Errorf("Failures = %d, want 0", c.Failures())
	}
}

func TestCompositorSkipsUnmeasurableParticles(t *testing.T) {
	c := newTestCompositor(t)
	edge := straightEdge(EdgeMessage, 0, 20)
	ps := NewParticleSystem(nil, testRand())
	ps.Rebuild([]DiagramEdge{edge})
	if ps.Len() == 0 {
		t.Fatal("zero-length message edge spawned no particles")
	}
	sc := &Scene{Edges: []DiagramEdge{edge}, Particles: ps, Width: 64, Height: 64}

	if err := c.Draw(ebiten.NewImage(64, 64), sc, DefaultSettings(), InteractionState{}, FrameStatus{}); err != nil {
		t.Fatal(err)
	}
	if c.stats.skippedCount != ps.Len() || c.stats.particleCount != 0 {
		t.Errorf("skipped = %d, drawn = %d; want %d, 0", c.stats.skippedCount, c.stats.particleCount, ps.Len())
	}
}

func TestCompositorRecoversFromPanic(t *testing.T) {
	c := newTestCompositor(t)
	sc := &Scene{Nodes: []DiagramNode{{
		ID: "n1", Kind: KindStandalone, Shape: ShapeRoundedRectangle,
		Center: Vec2{20, 20}, Size: Vec2{30, 20}, Label: "A",
		Fill: ColorWhite, Stroke: defaultNodeStroke,
	}}}
	dst := ebiten.NewImage(64, 64)
	st := DefaultSettings()
	st.Tier = TierDraft

	font := c.font
	c.font = nil // label drawing dereferences the font
	if err := c.Draw(dst, sc, st, InteractionState{}, FrameStatus{}); err == nil {
		t.Fatal("Draw with a broken font should report an error")
	}
	if c.Failures() != 1 {
		t.Fatalf("Failures = %d, want 1", c.Failures())
	}

	c.font = font
	if err := c.Draw(dst, sc, st, InteractionState{}, FrameStatus{}); err != nil {
		t.Fatalf("frame after a failure: %v", err)
	}
	if c.Failures() != 1 {
		t.Errorf("Failures = %d after a good frame, want 1", c.Failures())
	}
	if c.stats.nodeCount != 1 {
		t.Errorf("nodeCount = %d, want 1", c.stats.nodeCount)
	}
}

func TestCompositorDropsPoolOnSceneChange(t *testing.T) {
	c := newTestCompositor(t)
	sc := BuildScene(mustParseTree(t, chainSVG), BuildOptions{Rand: testRand()})
	dst := ebiten.NewImage(int(sc.Width), int(sc.Height))
	st := DefaultSettings()

	if err := c.Draw(dst, sc, st, InteractionState{}, FrameStatus{}); err != nil {
		t.Fatal(err)
	}
	if pooled(&c.pool) == 0 {
		t.Fatal("premium shadows left nothing pooled")
	}
	if err := c.Draw(dst, EmptyScene(), st, InteractionState{}, FrameStatus{}); err != nil {
		t.Fatal(err)
	}
	if n := pooled(&c.pool); n != 0 {
		t.Errorf("pooled = %d after scene change, want 0", n)
	}
}

func TestNodeFill(t *testing.T) {
	container := DiagramNode{Kind: KindContainer, Fill: containerFallbackFill.WithAlpha(ContainerFillAlpha)}
	if got := nodeFill(container, TierDraft); got != container.Fill {
		t.Errorf("draft container fill = %+v, want unchanged", got)
	}
	got := nodeFill(container, TierPremium)
	if got == container.Fill {
		t.Error("premium container fill should be tinted")
	}
	assertNear(t, "tinted alpha", got.A, ContainerFillAlpha)

	plain := DiagramNode{Kind: KindStandalone, Fill: ColorWhite}
	if got := nodeFill(plain, TierPremium); got != ColorWhite {
		t.Errorf("standalone fill = %+v, want white", got)
	}
}
