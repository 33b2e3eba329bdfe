package flowscene

import (
	"math"
	"testing"
)

// hoverScene has two 20x20 nodes at scene (50,50) and (100,50), drawn with
// a 10 unit horizontal offset.
func hoverScene() *Scene {
	return &Scene{
		Nodes: []DiagramNode{
			{ID: "node-a", Center: Vec2{50, 50}, Size: Vec2{20, 20}},
			{ID: "node-b", Center: Vec2{100, 50}, Size: Vec2{20, 20}},
		},
		Offset: Vec2{10, 0},
		Pass:   1,
	}
}

type recordingStore struct {
	events []InteractionEvent
}

func (s *recordingStore) EmitEvent(ev InteractionEvent) {
	s.events = append(s.events, ev)
}

// --- HitTest ---

func TestHitTest(t *testing.T) {
	sc := hoverScene()
	tests := []struct {
		name   string
		x, y   float64
		want   string
		wantOK bool
	}{
		{"center a", 60, 50, "node-a", true},
		{"edge a", 50, 40, "node-a", true},
		{"center b", 110, 50, "node-b", true},
		{"between", 85, 50, "", false},
		{"above", 60, 10, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HitTest(sc.Nodes, sc.Offset, tt.x, tt.y)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("HitTest(%v, %v) = %q, %v; want %q, %v", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestHitTestFirstInOrder(t *testing.T) {
	nodes := []DiagramNode{
		{ID: "outer", Center: Vec2{50, 50}, Size: Vec2{100, 100}},
		{ID: "inner", Center: Vec2{50, 50}, Size: Vec2{10, 10}},
	}
	if got, _ := HitTest(nodes, Vec2{}, 50, 50); got != "outer" {
		t.Errorf("HitTest = %q, want outer", got)
	}
}

func TestSurfaceSceneRoundTrip(t *testing.T) {
	off := Vec2{12, -7}
	p := SurfaceToScene(off, 30, 40)
	assertVec(t, "scene", p, Vec2{18, 47})
	assertVec(t, "surface", SceneToSurface(off, p), Vec2{30, 40})
}

// --- Interaction ---

func TestInteractionHoverTransitions(t *testing.T) {
	sc := hoverScene()
	var in Interaction
	var log []string
	in.OnHoverEnter(func(c HoverContext) { log = append(log, "enter "+c.NodeID) })
	in.OnHoverExit(func(c HoverContext) { log = append(log, "exit "+c.NodeID) })

	in.Handle(sc, PointerEvent{Type: EventPointerMove, X: 60, Y: 50})
	if !in.State().IsHovered("node-a") {
		t.Fatalf("state = %+v, want node-a hovered", in.State())
	}
	assertVec(t, "pointer", in.State().Pointer, Vec2{50, 50})

	// Moving within the same node fires nothing.
	in.Handle(sc, PointerEvent{Type: EventPointerMove, X: 62, Y: 52})
	in.Handle(sc, PointerEvent{Type: EventPointerMove, X: 110, Y: 50})
	in.Handle(sc, PointerEvent{Type: EventPointerMove, X: 85, Y: 50})
	in.Handle(sc, PointerEvent{Type: EventPointerMove, X: 110, Y: 50})
	in.Handle(sc, PointerEvent{Type: EventPointerLeave})

	want := []string{"enter node-a", "exit node-a", "enter node-b", "exit node-b", "enter node-b", "exit node-b"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
	st := in.State()
	if st.HasHover || st.Inside {
		t.Errorf("state after leave = %+v", st)
	}
}

func TestInteractionCallbackRemove(t *testing.T) {
	sc := hoverScene()
	var in Interaction
	calls := 0
	h := in.OnHoverEnter(func(HoverContext) { calls++ })
	in.Handle(sc, PointerEvent{Type: EventPointerMove, X: 60, Y: 50})
	h.Remove()
	in.Handle(sc, PointerEvent{Type: EventPointerLeave})
	in.Handle(sc, PointerEvent{Type: EventPointerMove, X: 60, Y: 50})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	CallbackHandle{}.Remove()
}

func TestInteractionEntityStore(t *testing.T) {
	sc := hoverScene()
	var in Interaction
	store := &recordingStore{}
	in.SetEntityStore(store)

	in.Handle(sc, PointerEvent{Type: EventPointerMove, X: 60, Y: 50})
	in.Handle(sc, PointerEvent{Type: EventPointerMove, X: 110, Y: 50})

	if len(store.events) != 3 {
		t.Fatalf("events = %+v, want 3", store.events)
	}
	want := []struct {
		typ EventType
		id  string
	}{
		{EventHoverEnter, "node-a"},
		{EventHoverExit, "node-a"},
		{EventHoverEnter, "node-b"},
	}
	for i, w := range want {
		if store.events[i].Type != w.typ || store.events[i].NodeID != w.id {
			t.Errorf("event %d = %+v, want %v %s", i, store.events[i], w.typ, w.id)
		}
	}
	if store.events[2].SceneX != 100 || store.events[2].SceneY != 50 {
		t.Errorf("event position = (%v, %v)", store.events[2].SceneX, store.events[2].SceneY)
	}
}

func TestCursorEvent(t *testing.T) {
	surface := Vec2{320, 240}
	tests := []struct {
		x, y float64
		want EventType
	}{
		{10, 10, EventPointerMove},
		{0, 0, EventPointerMove},
		{-1, 10, EventPointerLeave},
		{10, -1, EventPointerLeave},
		{320, 10, EventPointerLeave},
		{10, 240, EventPointerLeave},
	}
	for _, tt := range tests {
		if got := cursorEvent(tt.x, tt.y, surface).Type; got != tt.want {
			t.Errorf("cursorEvent(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

// --- Injection ---

func TestInjectPath(t *testing.T) {
	sc := hoverScene()
	var in Interaction
	in.InjectPath(0, 50, 100, 50, 4)
	if in.Pending() != 4 {
		t.Fatalf("Pending = %d, want 4", in.Pending())
	}
	var xs []float64
	for in.processInjected(sc) {
		xs = append(xs, in.State().Pointer.X)
	}
	want := []float64{15, 40, 65, 90}
	if len(xs) != len(want) {
		t.Fatalf("xs = %v, want %v", xs, want)
	}
	for i := range want {
		if math.Abs(xs[i]-want[i]) > epsilon {
			t.Errorf("step %d x = %v, want %v", i, xs[i], want[i])
		}
	}
	if in.Pending() != 0 {
		t.Errorf("Pending = %d after drain", in.Pending())
	}
}

func TestInjectPathMinimumFrames(t *testing.T) {
	var in Interaction
	in.InjectPath(0, 0, 10, 10, 0)
	if in.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", in.Pending())
	}
}

func TestInjectMoveAndLeave(t *testing.T) {
	sc := hoverScene()
	var in Interaction
	in.InjectMove(60, 50)
	in.InjectLeave()
	if !in.processInjected(sc) || !in.State().IsHovered("node-a") {
		t.Fatalf("state = %+v, want node-a hovered", in.State())
	}
	if !in.processInjected(sc) || in.State().HasHover {
		t.Errorf("state = %+v, want cleared", in.State())
	}
	if in.processInjected(sc) {
		t.Error("processInjected on empty queue returned true")
	}
}
