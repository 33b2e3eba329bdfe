package flowscene

// InjectMove queues a pointer move at surface coordinates. The event is
// consumed on the next Update.
func (in *Interaction) InjectMove(x, y float64) {
	in.injectQueue = append(in.injectQueue, PointerEvent{Type: EventPointerMove, X: x, Y: y})
}

// InjectLeave queues a pointer leave.
func (in *Interaction) InjectLeave() {
	in.injectQueue = append(in.injectQueue, PointerEvent{Type: EventPointerLeave})
}

// InjectPath queues moves linearly interpolated from (fromX, fromY) to
// (toX, toY), one per frame. Minimum frames is 1.
func (in *Interaction) InjectPath(fromX, fromY, toX, toY float64, frames int) {
	if frames < 1 {
		frames = 1
	}
	for i := 1; i <= frames; i++ {
		t := float64(i) / float64(frames)
		in.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
}

// Pending returns the number of queued injected events.
func (in *Interaction) Pending() int {
	return len(in.injectQueue)
}

// processInjected pops one event from the inject queue and applies it.
// Returns true if an event was consumed (real cursor input should be skipped).
func (in *Interaction) processInjected(sc *Scene) bool {
	if len(in.injectQueue) == 0 {
		return false
	}
	evt := in.injectQueue[0]
	copy(in.injectQueue, in.injectQueue[1:])
	in.injectQueue = in.injectQueue[:len(in.injectQueue)-1]
	in.Handle(sc, evt)
	return true
}
