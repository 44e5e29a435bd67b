package log

import (
	"testing"

	"github.com/lixenwraith/iotcore/clock"
)

// captureSink records copies of committed entries.
type captureSink struct {
	SinkBase
	entries  []string
	onCommit func()
}

func newCaptureSink(level Level) *captureSink {
	return &captureSink{SinkBase: NewSinkBase(true, level)}
}

func (c *captureSink) Commit(entry []byte) {
	c.entries = append(c.entries, string(entry))
	if c.onCommit != nil {
		c.onCommit()
	}
}

// createTestService returns a service on a manual clock with one capture
// sink at LevelAll.
func createTestService(t *testing.T, opts ...Option) (*Service, *captureSink, *clock.Manual) {
	t.Helper()
	c := clock.NewManual()
	svc := NewService(clock.NewUptime(c), opts...)
	sink := newCaptureSink(LevelAll)
	svc.AddSink(sink)
	return svc, sink, c
}

func createTestUptime() *clock.Uptime {
	return clock.NewUptime(clock.NewManual())
}
