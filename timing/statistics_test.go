package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/iotcore/clock"
)

func TestStatisticsEmpty(t *testing.T) {
	s := New(3, clock.NewManual())

	assert.Equal(t, 0, s.Count())
	assert.Equal(t, uint32(0), s.Min())
	assert.Equal(t, uint32(0), s.Max())
	assert.Equal(t, uint32(0), s.Avg())
}

func TestStatisticsEvictsOldest(t *testing.T) {
	s := New(3, clock.NewManual())

	for _, v := range []uint32{10, 20, 30} {
		s.Record(v)
	}
	require.Equal(t, 3, s.Count())
	assert.Equal(t, uint32(10), s.Min())
	assert.Equal(t, uint32(30), s.Max())
	assert.Equal(t, uint32(20), s.Avg())

	s.Record(40)
	assert.Equal(t, 3, s.Count(), "count stabilizes at capacity")
	assert.Equal(t, uint32(20), s.Min(), "oldest sample evicted")
	assert.Equal(t, uint32(40), s.Max())
	assert.Equal(t, uint32(30), s.Avg())

	for i := 0; i < 10; i++ {
		s.Record(5)
	}
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, uint32(5), s.Max())
}

func TestStatisticsAvgDoesNotOverflow(t *testing.T) {
	s := New(4, clock.NewManual())
	for i := 0; i < 4; i++ {
		s.Record(4_000_000_000)
	}
	assert.Equal(t, uint32(4_000_000_000), s.Avg())
}

func TestStatisticsAvgRoundsDown(t *testing.T) {
	s := New(3, clock.NewManual())
	s.Record(1)
	s.Record(1)
	assert.Equal(t, uint32(1), s.Avg())

	s.Record(2)
	// 4/3; summing pre-divided samples alone would give 0
	assert.Equal(t, uint32(1), s.Avg())
}

func TestStatisticsStartStop(t *testing.T) {
	c := clock.NewManual()
	s := New(5, c)

	s.Start()
	c.AdvanceMicros(120)
	s.Stop()

	s.Start()
	c.AdvanceMicros(80)
	s.Stop()

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, uint32(80), s.Min())
	assert.Equal(t, uint32(120), s.Max())
	assert.Equal(t, uint32(100), s.Avg())
}

func TestStatisticsStopAcrossClockWrap(t *testing.T) {
	c := clock.NewManual()
	c.AdvanceMicros(^uint32(0) - 5)
	s := New(2, c)

	s.Start()
	c.AdvanceMicros(10)
	s.Stop()

	assert.Equal(t, uint32(10), s.Max())
}

func TestStatisticsWrap(t *testing.T) {
	c := clock.NewManual()
	s := New(2, c)

	calls := 0
	wrapped := s.Wrap(func() {
		calls++
		c.AdvanceMicros(7)
	})

	wrapped()
	wrapped()
	wrapped()

	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, uint32(7), s.Avg())
}

func TestIntervalTimer(t *testing.T) {
	c := clock.NewManual()
	timer := NewIntervalTimer(100, c)

	c.AdvanceMillis(100)
	assert.False(t, timer.Elapsed())

	c.AdvanceMillis(1)
	assert.True(t, timer.Elapsed())

	timer.Restart()
	assert.False(t, timer.Elapsed())
}
