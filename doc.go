// Package flowscene turns a rendered vector diagram into an animated scene
// for [Ebitengine].
//
// A diagram compiler (mermaid's mmdc, for example) produces SVG. flowscene
// parses that SVG into a typed element tree, extracts the diagram's nodes
// and connectors, and animates particles along every message connector so
// the direction of flow is visible. Structural connectors (lifelines) stay
// static and dashed.
//
// # Quick start
//
//	store := flowscene.NewSceneStore()
//	x := &flowscene.Extractor{Store: store}
//	if err := x.ExtractFile(ctx, "diagram.svg"); err != nil {
//		log.Fatal(err)
//	}
//	p, err := flowscene.NewPlayer(store, flowscene.NewSettingsStore(flowscene.DefaultSettings()), nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	flowscene.Run(p, flowscene.RunConfig{Title: "diagram"})
//
// Non-SVG sources go through a [Compiler]; [CommandCompiler] runs an
// external command. A failed compile keeps the previous scene on screen and
// shows the compiler's first error line in a banner.
//
// # Pipeline
//
// [ParseVectorTree] builds the element tree and classifies every group and
// connector once. [ExtractNodes] and [ExtractEdges] produce [DiagramNode]
// and [DiagramEdge] values in scene coordinates, with identifiers that are
// deterministic per pass (node-1, edge-1, ...). [BuildScene] derives the
// particles and the offset that maps the diagram's viewport onto the
// drawing surface.
//
// Path measurement goes through the [GeometryProvider] capability:
// [FlatGeometry] flattens path data in pure Go, [BrowserMeasurer] asks a
// headless Chrome for getTotalLength and getPointAtLength.
//
// # Concurrency
//
// Extraction runs off the render goroutine. Results are published whole
// through [SceneStore], and the [Player] loads one consistent snapshot per
// frame. [Scheduler] debounces bursts of source changes; [SourceWatcher]
// wires a file watcher to it. Live settings (tier, particle color, speed)
// live in a [SettingsStore] and may be changed from any goroutine.
//
// # Style tiers
//
// [TierDraft] draws the diagram's own colors on white. [TierPremium] adds a
// background grid, neutral edge tones, drop shadows and the particles
// themselves. Hovering a node draws a glow and highlight in both tiers.
//
// # Hover
//
// [HitTest] maps a surface point to the first node whose axis-aligned box
// contains it. The [Interaction] state machine turns pointer moves and
// leaves into an [InteractionState] that is passed to the compositor each
// frame, and fires [Interaction.OnHoverEnter] and [Interaction.OnHoverExit]
// callbacks. Set an [EntityStore] to forward the same events to an ECS.
//
// # Automated testing
//
// [LoadTestScript] reads a JSON script of pointer moves, waits, setting
// changes, screenshots, recordings and hover expectations, and
// [Player.SetTestRunner] plays it frame by frame.
//
// [Ebitengine]: https://ebitengine.org
package flowscene
