// Package timing provides fixed-memory latency sampling for diagnostics.
package timing

import (
	"github.com/lixenwraith/iotcore/clock"
)

// Statistics is a fixed-capacity ring of duration samples in microseconds.
// When the ring is full the oldest sample is evicted.
//
// Not safe for concurrent use.
type Statistics struct {
	samples    []uint32
	hasSamples bool
	oldest     int
	newest     int
	startTime  uint32
	clock      clock.Source
}

// New creates a ring holding at most size samples, measured against src.
func New(size int, src clock.Source) *Statistics {
	if size <= 0 {
		size = 1
	}
	return &Statistics{
		samples: make([]uint32, size),
		clock:   src,
	}
}

// Size returns the ring capacity.
func (s *Statistics) Size() int {
	return len(s.samples)
}

// Start marks the beginning of a measured interval.
func (s *Statistics) Start() {
	s.startTime = s.clock.Micros()
}

// Stop records the time elapsed since the last Start as one sample.
func (s *Statistics) Stop() {
	s.Record(s.clock.Micros() - s.startTime)
}

// Record adds a sample, evicting the oldest one if the ring is full.
func (s *Statistics) Record(sample uint32) {
	if s.hasSamples {
		s.newest = (s.newest + 1) % len(s.samples)
		if s.newest == s.oldest {
			s.oldest = (s.oldest + 1) % len(s.samples)
		}
	}
	s.samples[s.newest] = sample
	s.hasSamples = true
}

// Count returns the number of valid samples.
func (s *Statistics) Count() int {
	if !s.hasSamples {
		return 0
	}
	if s.newest >= s.oldest {
		return s.newest - s.oldest + 1
	}
	return len(s.samples) - s.oldest + s.newest + 1
}

// Min returns the smallest valid sample, 0 when empty.
func (s *Statistics) Min() uint32 {
	n := s.Count()
	if n == 0 {
		return 0
	}
	result := s.samples[s.oldest]
	for i := 1; i < n; i++ {
		result = min(result, s.at(i))
	}
	return result
}

// Max returns the largest valid sample, 0 when empty.
func (s *Statistics) Max() uint32 {
	n := s.Count()
	if n == 0 {
		return 0
	}
	result := s.samples[s.oldest]
	for i := 1; i < n; i++ {
		result = max(result, s.at(i))
	}
	return result
}

// Avg returns the mean of the valid samples rounded down, 0 when empty.
// Each sample is divided by the count before summing so the accumulator
// cannot overflow; the division remainders are folded back in afterwards.
func (s *Statistics) Avg() uint32 {
	n := s.Count()
	if n == 0 {
		return 0
	}
	divisor := uint32(n)
	var result uint32
	var remainders uint64
	for i := 0; i < n; i++ {
		sample := s.at(i)
		result += sample / divisor
		remainders += uint64(sample % divisor)
	}
	return result + uint32(remainders/uint64(divisor))
}

// Wrap returns a function that runs f bracketed by Start and Stop.
func (s *Statistics) Wrap(f func()) func() {
	return func() {
		s.Start()
		f()
		s.Stop()
	}
}

// at returns the i-th sample counted from the oldest.
func (s *Statistics) at(i int) uint32 {
	return s.samples[(s.oldest+i)%len(s.samples)]
}
