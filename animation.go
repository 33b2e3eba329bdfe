package flowscene

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float64 fields simultaneously. Call
// Update(dt) each frame; values are written through to the fields.
//
// There is no global animation manager: owners call Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float64
	Done   bool
}

// Update advances all tweens by dt seconds and writes the values.
func (g *TweenGroup) Update(dt float32) {
	if g == nil || g.Done {
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

// TweenValue animates *field to the target value.
func TweenValue(field *float64, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(float32(*field), float32(to), duration, fn)
	g.fields[0] = field
	return g
}

// Hover glow ramp and recording pulse timings, in seconds.
const (
	hoverFadeIn    = 0.15
	pulseHalfCycle = 0.6
)

// hoverFade ramps the glow strength of the hovered node from 0 to 1 each
// time the hover target changes.
type hoverFade struct {
	id       string
	active   bool
	strength float64
	tween    *TweenGroup
}

func (h *hoverFade) update(dt float32, st InteractionState) {
	if st.HasHover != h.active || st.Hovered != h.id {
		h.id, h.active = st.Hovered, st.HasHover
		h.strength = 0
		h.tween = nil
		if h.active {
			h.tween = TweenValue(&h.strength, 1, hoverFadeIn, ease.OutQuad)
		}
	}
	h.tween.Update(dt)
}

// strengthFor returns the glow strength to use for node id.
func (h *hoverFade) strengthFor(st InteractionState) float64 {
	if !st.HasHover {
		return 0
	}
	if !h.active || h.id != st.Hovered {
		// Not yet updated for this target: draw at full strength.
		return 1
	}
	return h.strength
}

// pulse oscillates value between lo and hi with eased half cycles.
type pulse struct {
	lo, hi float64
	value  float64
	rising bool
	tween  *TweenGroup
}

func newPulse(lo, hi float64) *pulse {
	return &pulse{lo: lo, hi: hi, value: hi}
}

func (p *pulse) update(dt float32) {
	if p.tween == nil || p.tween.Done {
		to := p.lo
		if p.rising {
			to = p.hi
		}
		p.rising = !p.rising
		p.tween = TweenValue(&p.value, to, pulseHalfCycle, ease.InOutSine)
	}
	p.tween.Update(dt)
}
