// Command sink shows a custom log sink: it keeps per-level counters and
// mirrors errors to stderr, next to the bundled ring sink.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/iotcore"
	"github.com/lixenwraith/iotcore/log"
	"github.com/lixenwraith/iotcore/platform"
)

// levelCounter counts entries by the level code in their header.
type levelCounter struct {
	log.SinkBase
	counts map[string]int
}

func newLevelCounter() *levelCounter {
	return &levelCounter{
		SinkBase: log.NewSinkBase(true, log.LevelAll),
		counts:   make(map[string]int),
	}
}

// Commit reads the code between the last '|' of the header and ']'.
func (c *levelCounter) Commit(entry []byte) {
	for i := range entry {
		if entry[i] == ']' && i >= 4 {
			c.counts[string(entry[i-3:i])]++
			if string(entry[i-3:i]) == "ERR" {
				_, _ = os.Stderr.Write(entry)
			}
			return
		}
	}
}

func main() {
	host, err := platform.NewHost(os.TempDir()+"/iotcore-sink-example",
		platform.WithLink(func() bool { return true }))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create host: %v\n", err)
		os.Exit(1)
	}

	system, err := iotcore.NewBuilder().
		Name("sink-example").
		Platform(host).
		InitialLevel(log.LevelDebug).
		LoopIntervalMs(5).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build system: %v\n", err)
		os.Exit(1)
	}
	defer system.Close()

	counter := newLevelCounter()
	system.Logs().AddSink(counter)

	logger := system.Logger("demo")
	system.Schedule(func() {
		for i := 0; i < 5; i++ {
			logger.Debug("tick %d", i)
		}
		logger.Warn("almost full")
		logger.Error("sensor %d not responding", 3)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = system.Run(ctx)

	fmt.Println("--- entries by level ---")
	for _, code := range []string{"---", "ERR", "WRN", "INF", "DBG"} {
		fmt.Printf("%s %d\n", code, counter.counts[code])
	}
	fmt.Println("--- local ring ---")
	system.LocalSink().Output(func(entry []byte) {
		_, _ = os.Stdout.Write(entry)
	})
}
