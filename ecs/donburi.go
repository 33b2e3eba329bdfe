package ecs

import (
	"github.com/phanxgames/flowscene"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for flowscene hover events.
var InteractionEventType = events.NewEventType[flowscene.InteractionEvent]()

// Hover is the current hover target. NodeID is empty when nothing is
// hovered.
type Hover struct {
	NodeID string
	SceneX float64
	SceneY float64
}

// HoverComponent holds the singleton Hover value.
var HoverComponent = donburi.NewComponentType[Hover]()

// DonburiStore is a flowscene.EntityStore backed by a Donburi world.
type DonburiStore struct {
	world donburi.World
	hover donburi.Entity
}

// NewDonburiStore creates the store and the entity carrying HoverComponent.
// Events are queued on InteractionEventType and delivered by
// ProcessEvents; the Hover component updates immediately.
func NewDonburiStore(world donburi.World) *DonburiStore {
	return &DonburiStore{world: world, hover: world.Create(HoverComponent)}
}

// HoverEntity returns the entity carrying HoverComponent.
func (s *DonburiStore) HoverEntity() donburi.Entity {
	return s.hover
}

// EmitEvent implements flowscene.EntityStore.
func (s *DonburiStore) EmitEvent(event flowscene.InteractionEvent) {
	if entry := s.world.Entry(s.hover); entry != nil {
		h := HoverComponent.Get(entry)
		switch event.Type {
		case flowscene.EventHoverEnter:
			*h = Hover{NodeID: event.NodeID, SceneX: event.SceneX, SceneY: event.SceneY}
		case flowscene.EventHoverExit:
			// An exit for a node that is no longer current is stale.
			if h.NodeID == event.NodeID {
				*h = Hover{}
			}
		}
	}
	InteractionEventType.Publish(s.world, event)
}

var _ flowscene.EntityStore = (*DonburiStore)(nil)
