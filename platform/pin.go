package platform

import (
	"sync/atomic"

	"github.com/lixenwraith/iotcore/clock"
)

// Input is a digital input whose level is driven from software, e.g. by a
// signal handler or a test. Active and SetActive may be called from any
// goroutine.
type Input struct {
	active    atomic.Bool
	changedAt atomic.Uint32
	clock     clock.Source
}

// NewInput creates an inactive input.
func NewInput(src clock.Source) *Input {
	in := &Input{clock: src}
	in.changedAt.Store(src.Millis())
	return in
}

// SetActive drives the input. Setting the current level is not a change.
func (in *Input) SetActive(active bool) {
	if in.active.Swap(active) != active {
		in.changedAt.Store(in.clock.Millis())
	}
}

// Active implements iotcore.Input.
func (in *Input) Active() bool {
	return in.active.Load()
}

// UnchangedFor implements iotcore.Input.
func (in *Input) UnchangedFor(ms uint32) bool {
	return in.clock.Millis()-in.changedAt.Load() >= ms
}

// Output is a digital output that reports level changes to a callback, e.g.
// to render a status LED.
type Output struct {
	on        bool
	changedAt uint32
	clock     clock.Source
	onChange  func(on bool)
}

// NewOutput creates an output that is off. onChange may be nil.
func NewOutput(src clock.Source, onChange func(on bool)) *Output {
	return &Output{
		changedAt: src.Millis(),
		clock:     src,
		onChange:  onChange,
	}
}

// On returns the current level.
func (o *Output) On() bool {
	return o.on
}

// Set implements iotcore.Output.
func (o *Output) Set(on bool) {
	if o.on == on {
		return
	}
	o.on = on
	o.changedAt = o.clock.Millis()
	if o.onChange != nil {
		o.onChange(on)
	}
}

// ToggleIfUnchangedFor implements iotcore.Output.
func (o *Output) ToggleIfUnchangedFor(ms uint32) {
	if o.clock.Millis()-o.changedAt >= ms {
		o.Set(!o.on)
	}
}
