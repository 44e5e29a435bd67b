package log

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceFormat(t *testing.T) {
	svc, sink, c := createTestService(t)
	c.AdvanceMillis(1500)
	svc.uptime.Update()

	svc.Print(LevelInfo, "wifi", "connected")

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "[0d00:00:01.500|wifi|INF] connected\n", sink.entries[0])
}

func TestServiceLevelFiltering(t *testing.T) {
	levels := []Level{LevelNone, LevelError, LevelWarning, LevelInfo, LevelDebug, LevelTrace, LevelAll}

	for _, threshold := range levels {
		for _, requested := range levels {
			t.Run(threshold.String()+"/"+requested.String(), func(t *testing.T) {
				svc, sink, _ := createTestService(t)
				require.NoError(t, svc.SetCategoryLevel("cat", threshold))

				svc.Print(requested, "cat", "message")

				if requested <= threshold {
					assert.Len(t, sink.entries, 1)
				} else {
					assert.Empty(t, sink.entries)
				}
			})
		}
	}
}

func TestServiceUnconditional(t *testing.T) {
	svc, _, _ := createTestService(t)
	require.NoError(t, svc.SetCategoryLevel("quiet", LevelNone))

	sinks := make([]*captureSink, 0)
	for _, level := range []Level{LevelNone, LevelError, LevelInfo, LevelAll} {
		s := newCaptureSink(level)
		sinks = append(sinks, s)
		svc.AddSink(s)
	}
	disabled := newCaptureSink(LevelAll)
	disabled.Enable(false)
	svc.AddSink(disabled)

	svc.Log("quiet", "always")

	for _, s := range sinks {
		require.Len(t, s.entries, 1, "sink at %s", s.Level())
		assert.Contains(t, s.entries[0], "|quiet|---] always")
	}
	assert.Empty(t, disabled.entries)
}

func TestServiceSinkThreshold(t *testing.T) {
	svc, all, _ := createTestService(t)
	require.NoError(t, svc.SetInitialLevel(LevelAll))
	warn := newCaptureSink(LevelWarning)
	svc.AddSink(warn)

	svc.Print(LevelError, "c", "e")
	svc.Print(LevelWarning, "c", "w")
	svc.Print(LevelInfo, "c", "i")

	assert.Len(t, all.entries, 3)
	assert.Len(t, warn.entries, 2)
}

type countingStringer struct{ calls int }

func (c *countingStringer) String() string {
	c.calls++
	return "expensive"
}

func TestServiceLazyEvaluation(t *testing.T) {
	svc, sink, _ := createTestService(t)

	calls := 0
	produce := func() string {
		calls++
		return "built"
	}
	str := &countingStringer{}

	svc.PrintFunc(LevelDebug, "c", produce)
	svc.Printf(LevelDebug, "c", "%s", str)
	assert.Equal(t, 0, calls, "producer not called below threshold")
	assert.Equal(t, 0, str.calls, "args not formatted below threshold")
	assert.Empty(t, sink.entries)

	svc.PrintFunc(LevelInfo, "c", produce)
	svc.Printf(LevelInfo, "c", "%s", str)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, str.calls)
	require.Len(t, sink.entries, 2)
	assert.Contains(t, sink.entries[0], "] built\n")
	assert.Contains(t, sink.entries[1], "] expensive\n")
}

func TestServiceTruncation(t *testing.T) {
	svc, sink, _ := createTestService(t, WithEntryLength(48))

	svc.Print(LevelError, "c", strings.Repeat("y", 500))

	require.Len(t, sink.entries, 1)
	assert.Len(t, sink.entries[0], 49)
	assert.True(t, strings.HasSuffix(sink.entries[0], "y\n"))
}

func TestServiceReentrantCallDropped(t *testing.T) {
	svc, sink, _ := createTestService(t)
	sink.onCommit = func() {
		svc.Print(LevelError, "inner", "from sink")
	}

	svc.Print(LevelError, "outer", "first")
	svc.Print(LevelError, "outer", "second")

	require.Len(t, sink.entries, 2)
	assert.Contains(t, sink.entries[0], "first")
	assert.Contains(t, sink.entries[1], "second")
}

type panicSink struct{ SinkBase }

func (panicSink) Commit([]byte) { panic("broken sink") }

func TestServiceSinkPanicContained(t *testing.T) {
	svc := NewService(createTestUptime())
	bad := &panicSink{SinkBase: NewSinkBase(true, LevelAll)}
	good := newCaptureSink(LevelAll)
	svc.AddSink(bad)
	svc.AddSink(good)

	assert.NotPanics(t, func() {
		svc.Print(LevelError, "c", "one")
		svc.Print(LevelError, "c", "two")
	})
	assert.Len(t, good.entries, 2)
}

func TestServiceCategoryLevels(t *testing.T) {
	svc, _, _ := createTestService(t)
	assert.Equal(t, DefaultLevel, svc.InitialLevel())
	assert.Equal(t, LevelInfo, svc.CategoryLevel("any"))

	require.NoError(t, svc.SetCategoryLevel("wifi", LevelDebug))
	require.NoError(t, svc.SetCategoryLevel("api", LevelError))
	require.NoError(t, svc.SetCategoryLevel("wifi", LevelTrace))
	assert.Error(t, svc.SetCategoryLevel("wifi", LevelUnknown))
	assert.Error(t, svc.SetCategoryLevel("", LevelInfo))
	assert.Error(t, svc.SetInitialLevel(LevelUnknown))

	assert.Equal(t, []CategoryLevel{
		{Category: "api", Level: LevelError},
		{Category: "wifi", Level: LevelTrace},
	}, svc.CategoryLevels())
	assert.Equal(t, 2, svc.pool.Len())

	require.NoError(t, svc.SetInitialLevel(LevelWarning))
	assert.Equal(t, LevelWarning, svc.CategoryLevel("other"))
	assert.Equal(t, LevelTrace, svc.CategoryLevel("wifi"))

	assert.True(t, svc.ClearCategoryLevel("wifi"))
	assert.False(t, svc.ClearCategoryLevel("wifi"))
	assert.Equal(t, LevelWarning, svc.CategoryLevel("wifi"))
}

func TestServiceSinkRegistration(t *testing.T) {
	svc, first, _ := createTestService(t)
	second := newCaptureSink(LevelAll)

	svc.AddSink(second)
	svc.AddSink(second)
	svc.AddSink(nil)
	assert.Equal(t, []Sink{first, second}, svc.Sinks())

	assert.True(t, svc.RemoveSink(first))
	assert.False(t, svc.RemoveSink(first))

	svc.Print(LevelError, "c", "x")
	assert.Empty(t, first.entries)
	assert.Len(t, second.entries, 1)
}

func TestServiceQueue(t *testing.T) {
	svc, sink, _ := createTestService(t, WithQueueSize(8))
	require.NoError(t, svc.SetCategoryLevel("net", LevelWarning))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Enqueue(LevelError, "net", "from goroutine")
		}()
	}
	wg.Wait()
	assert.Empty(t, sink.entries, "nothing emitted before drain")

	svc.Enqueue(LevelDebug, "net", "filtered on drain")
	svc.Enqueue(LevelNone, "net", "unconditional")

	assert.Equal(t, 6, svc.Drain())
	assert.Len(t, sink.entries, 5)
	assert.Equal(t, 0, svc.Drain())
}

func TestAsyncLoggerFiltersOnDrain(t *testing.T) {
	svc, sink, _ := createTestService(t)
	logger := svc.Logger("net").Async()

	produced := 0
	logger.PrintFunc(LevelDebug, func() string {
		produced++
		return "expensive"
	})
	assert.Equal(t, 1, produced, "built on the calling goroutine")
	assert.True(t, logger.Enabled(LevelTrace))

	svc.Drain()
	assert.Empty(t, sink.entries, "filtered by the category threshold on drain")
}

func TestServiceQueueDropReport(t *testing.T) {
	svc, sink, _ := createTestService(t, WithQueueSize(2))

	assert.True(t, svc.Enqueue(LevelError, "c", "1"))
	assert.True(t, svc.Enqueue(LevelError, "c", "2"))
	assert.False(t, svc.Enqueue(LevelError, "c", "3"))
	assert.False(t, svc.Enqueue(LevelError, "c", "4"))
	assert.Equal(t, uint64(2), svc.Dropped())

	svc.Drain()
	require.Len(t, sink.entries, 3)
	assert.Contains(t, sink.entries[2], "|log|ERR] 2 queued entries were dropped")
	assert.Equal(t, uint64(0), svc.Dropped())
}

func TestLoggerHandle(t *testing.T) {
	svc, sink, _ := createTestService(t)
	logger := svc.Logger("ota")
	assert.Equal(t, "ota", logger.Category())

	logger.Info("progress %d%%", 50)
	logger.Debug("hidden")
	logger.Log("plain")
	logger.PrintFunc(LevelWarning, func() string { return "lazy" })

	require.Len(t, sink.entries, 3)
	assert.Contains(t, sink.entries[0], "|ota|INF] progress 50%")
	assert.Contains(t, sink.entries[1], "|ota|---] plain")
	assert.Contains(t, sink.entries[2], "|ota|WRN] lazy")
	assert.True(t, logger.Enabled(LevelInfo))
	assert.False(t, logger.Enabled(LevelDebug))

	async := logger.Async()
	async.Error("queued")
	assert.Len(t, sink.entries, 3)
	svc.Drain()
	assert.Len(t, sink.entries, 4)

	var zero Logger
	assert.NotPanics(t, func() {
		zero.Error("nothing")
		zero.Log("nothing")
	})
	assert.False(t, zero.Enabled(LevelError))
}
