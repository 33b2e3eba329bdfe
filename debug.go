package flowscene

import (
	"log/slog"
	"time"
)

// debugStats holds per-frame timing and draw metrics.
// Only populated when Settings.Debug is true.
type debugStats struct {
	backgroundTime time.Duration
	edgeTime       time.Duration
	particleTime   time.Duration
	nodeTime       time.Duration
	overlayTime    time.Duration
	edgeCount      int
	particleCount  int
	skippedCount   int // particles on unmeasurable paths
	nodeCount      int
	effectCount    int // offscreen glow and shadow passes
}

func (s debugStats) total() time.Duration {
	return s.backgroundTime + s.edgeTime + s.particleTime + s.nodeTime + s.overlayTime
}

// debugLog logs timing and draw stats at debug level.
func debugLog(logger *slog.Logger, pass uint64, stats debugStats) {
	logger.Debug("flowscene: frame",
		"pass", pass,
		"background", stats.backgroundTime,
		"edges", stats.edgeTime,
		"particles", stats.particleTime,
		"nodes", stats.nodeTime,
		"overlay", stats.overlayTime,
		"total", stats.total(),
	)
	logger.Debug("flowscene: frame counts",
		"edges", stats.edgeCount,
		"particles", stats.particleCount,
		"skipped", stats.skippedCount,
		"nodes", stats.nodeCount,
		"effects", stats.effectCount,
	)
}

// debugTimer measures consecutive phases. The zero value is disabled and
// costs nothing.
type debugTimer struct {
	enabled bool
	t0      time.Time
}

func newDebugTimer(enabled bool) debugTimer {
	if !enabled {
		return debugTimer{}
	}
	return debugTimer{enabled: true, t0: time.Now()}
}

// lap returns the time since the previous lap and restarts the clock.
func (d *debugTimer) lap() time.Duration {
	if !d.enabled {
		return 0
	}
	now := time.Now()
	el := now.Sub(d.t0)
	d.t0 = now
	return el
}
