package main

import (
	"strconv"

	"github.com/lixenwraith/iotcore"
	"github.com/lixenwraith/iotcore/formatter"
	"github.com/lixenwraith/iotcore/log"
	"github.com/lixenwraith/iotcore/timing"
)

const defaultBeaconIntervalMs = 60000

// beacon is a demo component: while online it logs a message at a fixed
// interval.
type beacon struct {
	system     *iotcore.System
	logger     log.Logger
	timer      *timing.IntervalTimer
	intervalMs uint32
	message    string
	sent       uint64
}

func newBeacon(system *iotcore.System) *beacon {
	return &beacon{
		system:     system,
		logger:     system.Logger("beacon"),
		timer:      timing.NewIntervalTimer(defaultBeaconIntervalMs, system.Clock()),
		intervalMs: defaultBeaconIntervalMs,
		message:    "alive",
	}
}

func (b *beacon) Name() string {
	return "beacon"
}

func (b *beacon) Configure(name, value string) bool {
	switch name {
	case "interval_ms":
		ms, err := strconv.ParseUint(value, 10, 32)
		if err != nil || ms == 0 {
			return false
		}
		b.intervalMs = uint32(ms)
		b.timer = timing.NewIntervalTimer(b.intervalMs, b.system.Clock())
	case "message":
		if value == "" {
			return false
		}
		b.message = value
	default:
		return false
	}
	return true
}

func (b *beacon) GetConfig(writer iotcore.ConfigWriter) {
	writer("interval_ms", formatter.FormatInt(b.intervalMs))
	writer("message", b.message)
}

func (b *beacon) GetDiagnostics(collector iotcore.DiagnosticsCollector) {
	collector.AddValue("sent", formatter.FormatInt(b.sent))
}

func (b *beacon) Setup(connected bool) {
	b.logger.Debug("Beacon every %d ms, connected=%t.", b.intervalMs, connected)
}

func (b *beacon) Loop(status iotcore.ConnectionStatus) {
	if !b.timer.Elapsed() {
		return
	}
	b.timer.Restart()
	if status.Online() {
		b.sent++
		b.logger.Info("%s #%d", b.message, b.sent)
	}
}
