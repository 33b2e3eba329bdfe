package ecs

import (
	"testing"

	"github.com/phanxgames/flowscene"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func hoverOf(t *testing.T, world donburi.World, s *DonburiStore) Hover {
	t.Helper()
	entry := world.Entry(s.HoverEntity())
	if entry == nil {
		t.Fatal("hover entity missing")
	}
	return *HoverComponent.Get(entry)
}

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)
	if store == nil {
		t.Fatal("NewDonburiStore returned nil")
	}
	if got := hoverOf(t, world, store); got.NodeID != "" {
		t.Errorf("initial hover = %q, want empty", got.NodeID)
	}
}

func TestDonburiStore_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []flowscene.InteractionEvent
	InteractionEventType.Subscribe(world, func(w donburi.World, e flowscene.InteractionEvent) {
		received = append(received, e)
	})

	store.EmitEvent(flowscene.InteractionEvent{
		Type:   flowscene.EventHoverEnter,
		NodeID: "node-2",
		SceneX: 100,
		SceneY: 200,
	})
	store.EmitEvent(flowscene.InteractionEvent{Type: flowscene.EventHoverExit, NodeID: "node-2"})

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("received %d events before processing", len(received))
	}
	InteractionEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	e0 := received[0]
	if e0.Type != flowscene.EventHoverEnter || e0.NodeID != "node-2" {
		t.Errorf("event 0: %+v", e0)
	}
	if e0.SceneX != 100 || e0.SceneY != 200 {
		t.Errorf("event 0 position: (%v,%v)", e0.SceneX, e0.SceneY)
	}
	if received[1].Type != flowscene.EventHoverExit {
		t.Errorf("event 1: %+v", received[1])
	}
}

func TestDonburiStore_HoverComponent(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	store.EmitEvent(flowscene.InteractionEvent{Type: flowscene.EventHoverEnter, NodeID: "node-1", SceneX: 5, SceneY: 6})
	if got := hoverOf(t, world, store); got != (Hover{NodeID: "node-1", SceneX: 5, SceneY: 6}) {
		t.Errorf("after enter: %+v", got)
	}

	// Moving straight to another node: exit(node-1) then enter(node-3).
	store.EmitEvent(flowscene.InteractionEvent{Type: flowscene.EventHoverExit, NodeID: "node-1"})
	store.EmitEvent(flowscene.InteractionEvent{Type: flowscene.EventHoverEnter, NodeID: "node-3"})
	if got := hoverOf(t, world, store); got.NodeID != "node-3" {
		t.Errorf("after switch: %+v", got)
	}

	// A stale exit leaves the current target alone.
	store.EmitEvent(flowscene.InteractionEvent{Type: flowscene.EventHoverExit, NodeID: "node-1"})
	if got := hoverOf(t, world, store); got.NodeID != "node-3" {
		t.Errorf("after stale exit: %+v", got)
	}

	store.EmitEvent(flowscene.InteractionEvent{Type: flowscene.EventHoverExit, NodeID: "node-3"})
	if got := hoverOf(t, world, store); got.NodeID != "" {
		t.Errorf("after exit: %+v", got)
	}
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	InteractionEventType.Subscribe(world, func(w donburi.World, e flowscene.InteractionEvent) {
		count1++
	})
	InteractionEventType.Subscribe(world, func(w donburi.World, e flowscene.InteractionEvent) {
		count2++
	})

	store.EmitEvent(flowscene.InteractionEvent{Type: flowscene.EventHoverEnter, NodeID: "node-1"})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}
