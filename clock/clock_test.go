package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	c := NewManual()
	assert.Equal(t, uint32(0), c.Millis())

	c.AdvanceMillis(1500)
	assert.Equal(t, uint32(1500), c.Millis())
	assert.Equal(t, uint32(1500000), c.Micros())

	c.Advance(250 * time.Microsecond)
	assert.Equal(t, uint32(1500250), c.Micros())
	assert.Equal(t, uint32(1500), c.Millis())
}

func TestUptimeFormat(t *testing.T) {
	tests := []struct {
		name     string
		millis   uint64
		expected string
	}{
		{"zero", 0, "0d00:00:00.000"},
		{"millis only", 42, "0d00:00:00.042"},
		{"minutes and seconds", 2*msPerMinute + 3*msPerSecond + 7, "0d00:02:03.007"},
		{"hours", 13*msPerHour + 5, "0d13:00:00.005"},
		{"days", 3*msPerDay + 1*msPerHour + 1, "3d01:00:00.001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewManual()
			c.SetMillis(tt.millis)
			u := NewUptime(c)
			assert.Equal(t, tt.expected, u.Format())
		})
	}
}

func TestUptimeWraparound(t *testing.T) {
	c := NewManual()
	c.SetMillis(1<<32 - 10)
	u := NewUptime(c)
	assert.Equal(t, uint32(1<<32-10), u.Millis())

	c.AdvanceMillis(20)
	u.Update()

	assert.Equal(t, uint32(10), u.Millis(), "raw reading wraps")
	assert.Equal(t, uint64(1<<32+10), u.Total(), "total keeps counting")
}

func TestMonotonicAdvances(t *testing.T) {
	m := NewMonotonic()
	first := m.Micros()
	time.Sleep(2 * time.Millisecond)
	assert.Greater(t, m.Micros(), first)
}
