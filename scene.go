package flowscene

import (
	"math/rand/v2"
)

// DefaultSceneMargin is the padding, in scene units, added around the
// diagram's viewport when sizing the drawing surface.
const DefaultSceneMargin = 20

// EntityStore is the interface for optional ECS integration.
// When set on a Player, hover changes are forwarded to the ECS.
type EntityStore interface {
	EmitEvent(event InteractionEvent)
}

// InteractionEvent carries hover data for the ECS bridge.
type InteractionEvent struct {
	Type   EventType
	NodeID string
	// Scene-space pointer position at the time of the event.
	SceneX float64
	SceneY float64
}

// Scene is one complete extraction result: nodes, edges, the particles
// derived from them and the offset mapping scene coordinates onto the
// surface. A Scene is built off the render goroutine and then published
// wholesale; after publication only the render goroutine touches Particles.
type Scene struct {
	Nodes     []DiagramNode   `json:"nodes" yaml:"nodes"`
	Edges     []DiagramEdge   `json:"edges" yaml:"edges"`
	Particles *ParticleSystem `json:"-" yaml:"-"`

	// Offset translates scene coordinates into surface coordinates.
	Offset Vec2 `json:"offset" yaml:"offset"`
	// Width and Height are the surface size the diagram needs.
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`

	// Pass is the extraction pass that produced the scene. Zero is the empty
	// initial scene.
	Pass uint64 `json:"pass" yaml:"pass"`
}

// BuildOptions configures BuildScene.
type BuildOptions struct {
	// Geometry measures paths. Nil uses FlatGeometry.
	Geometry GeometryProvider
	// Rand seeds particle progress and speed. Nil uses the global source.
	Rand *rand.Rand
	// Margin around the diagram. Zero uses DefaultSceneMargin; negative
	// means no margin.
	Margin float64
	// Pass is recorded on the scene.
	Pass uint64
}

// EmptyScene returns a scene with nothing to draw.
func EmptyScene() *Scene {
	return &Scene{Particles: NewParticleSystem(nil, nil)}
}

// BuildScene runs both extractors over root and derives the particle
// population. A nil root yields an empty scene. Building twice from the same
// tree yields equal nodes and edges.
func BuildScene(root *Element, opts BuildOptions) *Scene {
	geom := opts.Geometry
	if geom == nil {
		geom = FlatGeometry{}
	}
	s := &Scene{
		Nodes:     ExtractNodes(root, geom),
		Edges:     ExtractEdges(root),
		Particles: NewParticleSystem(geom, opts.Rand),
		Pass:      opts.Pass,
	}
	s.Particles.Rebuild(s.Edges)

	margin := opts.Margin
	switch {
	case margin == 0:
		margin = DefaultSceneMargin
	case margin < 0:
		margin = 0
	}
	view, ok := Rect{}, false
	if root != nil {
		view, ok = root.ViewBox()
	}
	if !ok {
		view = s.ContentBounds()
	}
	s.Offset = Vec2{-view.X + margin, -view.Y + margin}
	s.Width = view.Width + 2*margin
	s.Height = view.Height + 2*margin
	return s
}

// ContentBounds returns the union of every node box and edge path.
func (s *Scene) ContentBounds() Rect {
	var r Rect
	for i := range s.Nodes {
		r = r.Union(s.Nodes[i].Bounds())
	}
	for i := range s.Edges {
		r = r.Union(FlattenPath(s.Edges[i].Path).BoundingBox())
	}
	return r
}

// MessageEdgeCount returns the number of animated edges.
func (s *Scene) MessageEdgeCount() int {
	n := 0
	for i := range s.Edges {
		if s.Edges[i].Kind == EdgeMessage {
			n++
		}
	}
	return n
}

// Node returns the node with the given id.
func (s *Scene) Node(id string) (*DiagramNode, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}
