// Package clock provides the monotonic uptime source used by the logging and
// orchestration packages.
//
// Readings are 32-bit unsigned counters, like the millis()/micros() counters of
// small microcontrollers, and wrap around. Consumers compare readings with
// wrap-safe subtraction.
package clock

import (
	"time"
)

// Source is a monotonic time source.
type Source interface {
	// Millis returns milliseconds since start, wrapping at 2^32.
	Millis() uint32
	// Micros returns microseconds since start, wrapping at 2^32.
	Micros() uint32
}

// Monotonic is a Source backed by the Go runtime monotonic clock.
type Monotonic struct {
	start time.Time
}

// NewMonotonic returns a Source that starts counting now.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Millis implements Source.
func (m *Monotonic) Millis() uint32 {
	return uint32(time.Since(m.start).Milliseconds())
}

// Micros implements Source.
func (m *Monotonic) Micros() uint32 {
	return uint32(time.Since(m.start).Microseconds())
}

// Manual is a Source whose value only changes when told to. Used by tests and
// simulations.
type Manual struct {
	micros uint64
}

// NewManual returns a Manual clock at zero.
func NewManual() *Manual {
	return &Manual{}
}

// Millis implements Source.
func (m *Manual) Millis() uint32 {
	return uint32(m.micros / 1000)
}

// Micros implements Source.
func (m *Manual) Micros() uint32 {
	return uint32(m.micros)
}

// Advance moves the clock forward.
func (m *Manual) Advance(d time.Duration) {
	m.micros += uint64(d / time.Microsecond)
}

// AdvanceMillis moves the clock forward by ms milliseconds.
func (m *Manual) AdvanceMillis(ms uint32) {
	m.micros += uint64(ms) * 1000
}

// AdvanceMicros moves the clock forward by us microseconds.
func (m *Manual) AdvanceMicros(us uint32) {
	m.micros += uint64(us)
}

// SetMillis sets the absolute millisecond reading.
func (m *Manual) SetMillis(ms uint64) {
	m.micros = ms * 1000
}
