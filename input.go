package flowscene

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// InteractionState is the pointer-derived state handed to the compositor
// each frame. It is a value: the render loop never reads it from anywhere
// else.
type InteractionState struct {
	// Hovered is the id of the hovered node; valid when HasHover.
	Hovered  string
	HasHover bool
	// Pointer is the last pointer position in scene coordinates.
	Pointer Vec2
	// Inside reports whether the pointer is over the surface.
	Inside bool
}

// IsHovered reports whether id is the hover target.
func (s InteractionState) IsHovered(id string) bool {
	return s.HasHover && s.Hovered == id
}

// PointerEvent is a pointer move or leave in surface coordinates.
type PointerEvent struct {
	Type EventType
	X, Y float64
}

// HoverContext carries hover change data to callbacks.
type HoverContext struct {
	NodeID string
	// Scene-space pointer position.
	SceneX, SceneY float64
}

type hoverHandler struct {
	id uint32
	fn func(HoverContext)
}

type handlerRegistry struct {
	enter  []hoverHandler
	exit   []hoverHandler
	nextID uint32
}

// CallbackHandle allows removing a registered hover callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	switch h.event {
	case EventHoverEnter:
		h.reg.enter = removeHoverHandler(h.reg.enter, h.id)
	case EventHoverExit:
		h.reg.exit = removeHoverHandler(h.reg.exit, h.id)
	}
}

func removeHoverHandler(s []hoverHandler, id uint32) []hoverHandler {
	for i, h := range s {
		if h.id == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// Interaction turns pointer events into InteractionState. It is owned by
// the render goroutine and is not safe for concurrent use.
type Interaction struct {
	state    InteractionState
	surface  Vec2 // last pointer position in surface coordinates
	handlers handlerRegistry
	store    EntityStore

	injectQueue []PointerEvent

	cursorX, cursorY int
	cursorSeen       bool

	pass uint64
}

// State returns the current interaction state.
func (in *Interaction) State() InteractionState {
	return in.state
}

// SetEntityStore sets the optional ECS bridge.
func (in *Interaction) SetEntityStore(store EntityStore) {
	in.store = store
}

// OnHoverEnter registers fn to run when a node becomes the hover target.
func (in *Interaction) OnHoverEnter(fn func(HoverContext)) CallbackHandle {
	in.handlers.nextID++
	id := in.handlers.nextID
	in.handlers.enter = append(in.handlers.enter, hoverHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &in.handlers, event: EventHoverEnter}
}

// OnHoverExit registers fn to run when the hover target is cleared or
// replaced.
func (in *Interaction) OnHoverExit(fn func(HoverContext)) CallbackHandle {
	in.handlers.nextID++
	id := in.handlers.nextID
	in.handlers.exit = append(in.handlers.exit, hoverHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: &in.handlers, event: EventHoverExit}
}

// Handle applies one pointer event against sc. A move inside a node's box
// sets the hover target; a move elsewhere or a leave clears it.
func (in *Interaction) Handle(sc *Scene, ev PointerEvent) {
	prev := in.state
	switch ev.Type {
	case EventPointerMove:
		in.surface = Vec2{ev.X, ev.Y}
		in.state.Inside = true
		in.state.Pointer = SurfaceToScene(sc.Offset, ev.X, ev.Y)
		in.state.Hovered, in.state.HasHover = HitTest(sc.Nodes, sc.Offset, ev.X, ev.Y)
	case EventPointerLeave:
		in.state = InteractionState{Pointer: prev.Pointer}
	}
	in.pass = sc.Pass
	in.fireChanges(prev)
}

func (in *Interaction) fireChanges(prev InteractionState) {
	cur := in.state
	if prev.HasHover == cur.HasHover && prev.Hovered == cur.Hovered {
		return
	}
	if prev.HasHover {
		in.emit(EventHoverExit, prev.Hovered, cur.Pointer)
	}
	if cur.HasHover {
		in.emit(EventHoverEnter, cur.Hovered, cur.Pointer)
	}
}

func (in *Interaction) emit(t EventType, id string, p Vec2) {
	ctx := HoverContext{NodeID: id, SceneX: p.X, SceneY: p.Y}
	handlers := in.handlers.enter
	if t == EventHoverExit {
		handlers = in.handlers.exit
	}
	for _, h := range handlers {
		h.fn(ctx)
	}
	if in.store != nil {
		in.store.EmitEvent(InteractionEvent{Type: t, NodeID: id, SceneX: p.X, SceneY: p.Y})
	}
}

// update consumes one injected event, or the real cursor when it moved.
// surface is the drawing surface size; positions outside it are a leave.
func (in *Interaction) update(sc *Scene, surface Vec2) {
	if in.processInjected(sc) {
		return
	}
	mx, my := ebiten.CursorPosition()
	moved := !in.cursorSeen || mx != in.cursorX || my != in.cursorY
	in.cursorX, in.cursorY, in.cursorSeen = mx, my, true
	switch {
	case moved:
		in.Handle(sc, cursorEvent(float64(mx), float64(my), surface))
	case in.pass != sc.Pass && in.state.Inside:
		// New scene under a still pointer: re-resolve the hover target.
		in.Handle(sc, PointerEvent{Type: EventPointerMove, X: in.surface.X, Y: in.surface.Y})
	}
}

// cursorEvent classifies a cursor position against the surface bounds.
func cursorEvent(x, y float64, surface Vec2) PointerEvent {
	if x < 0 || y < 0 || x >= surface.X || y >= surface.Y {
		return PointerEvent{Type: EventPointerLeave}
	}
	return PointerEvent{Type: EventPointerMove, X: x, Y: y}
}
