package timing

import (
	"github.com/lixenwraith/iotcore/clock"
)

// IntervalTimer answers whether a fixed interval has passed since it was last
// restarted. It is polled, never fires on its own.
type IntervalTimer struct {
	intervalMs uint32
	lastMs     uint32
	clock      clock.Source
}

// NewIntervalTimer starts a timer of intervalMs milliseconds.
func NewIntervalTimer(intervalMs uint32, src clock.Source) *IntervalTimer {
	return &IntervalTimer{
		intervalMs: intervalMs,
		lastMs:     src.Millis(),
		clock:      src,
	}
}

// Elapsed reports whether more than the interval has passed since the last restart.
func (t *IntervalTimer) Elapsed() bool {
	return t.clock.Millis()-t.lastMs > t.intervalMs
}

// Restart begins a new interval now.
func (t *IntervalTimer) Restart() {
	t.lastMs = t.clock.Millis()
}
