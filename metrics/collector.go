// Package metrics exposes System statistics to Prometheus.
//
// The Collector is itself a component: its Loop copies the statistics on the
// loop goroutine, and scrapes on HTTP goroutines read that copy.
package metrics

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lixenwraith/iotcore"
	"github.com/lixenwraith/iotcore/formatter"
	"github.com/lixenwraith/iotcore/timing"
)

const (
	namespace = "iotcore"
	// DefaultRefreshMs is the default snapshot interval
	DefaultRefreshMs = 1000
)

var (
	iterationsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "loop", "iterations_total"),
		"Completed main loop iterations.", nil, nil)
	uptimeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "uptime_seconds"),
		"Device uptime.", nil, nil)
	statusDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "connection_status"),
		"Connection status of the last iteration, 1 for the current one.", []string{"status"}, nil)
	stoppedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "stopped"),
		"1 while component dispatch is halted.", nil, nil)
	droppedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "log", "dropped_pending"),
		"Queued log entries dropped and not yet reported.", nil, nil)
	ringBytesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "log", "ring_bytes"),
		"Bytes held by the local log ring.", nil, nil)
	remoteFailuresDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "log", "remote_failures_total"),
		"Failed remote log sends.", nil, nil)
	timingSamplesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "timing", "samples"),
		"Samples in the loop timing window.", []string{"name"}, nil)
	timingDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "timing", "seconds"),
		"Loop timing statistics over the recent sample window.", []string{"name", "stat"}, nil)
)

var statuses = []iotcore.ConnectionStatus{
	iotcore.Disconnected, iotcore.Reconnected, iotcore.Connected, iotcore.Disconnecting,
}

type timingSnapshot struct {
	name    string
	count   int
	avg     uint32
	minimum uint32
	maximum uint32
}

type snapshot struct {
	iterations     uint64
	uptimeMs       uint64
	status         iotcore.ConnectionStatus
	stopped        bool
	dropped        uint64
	ringBytes      int
	remoteFailures uint64
	timings        []timingSnapshot
}

// Collector is a prometheus.Collector and an iotcore.Component.
type Collector struct {
	system  *iotcore.System
	refresh *timing.IntervalTimer

	refreshMs uint32
	mu        sync.RWMutex
	snap      snapshot
	taken     bool

	scrapes atomic.Uint64
}

// NewCollector creates a collector for system.
func NewCollector(system *iotcore.System) *Collector {
	return &Collector{
		system:    system,
		refreshMs: DefaultRefreshMs,
		refresh:   timing.NewIntervalTimer(DefaultRefreshMs, system.Clock()),
	}
}

// Name implements iotcore.Component.
func (c *Collector) Name() string {
	return "metrics"
}

// Configure accepts "refresh_ms".
func (c *Collector) Configure(name, value string) bool {
	if name != "refresh_ms" {
		return false
	}
	ms, err := strconv.ParseUint(value, 10, 32)
	if err != nil || ms == 0 {
		return false
	}
	c.refreshMs = uint32(ms)
	c.refresh = timing.NewIntervalTimer(c.refreshMs, c.system.Clock())
	return true
}

// GetConfig implements iotcore.Component.
func (c *Collector) GetConfig(writer iotcore.ConfigWriter) {
	writer("refresh_ms", formatter.FormatInt(c.refreshMs))
}

// GetDiagnostics implements iotcore.Component.
func (c *Collector) GetDiagnostics(collector iotcore.DiagnosticsCollector) {
	collector.AddValue("scrapes", formatter.FormatInt(c.scrapes.Load()))
}

// Setup takes the first snapshot.
func (c *Collector) Setup(bool) {
	c.Refresh()
}

// Loop refreshes the snapshot every refresh interval.
func (c *Collector) Loop(iotcore.ConnectionStatus) {
	if c.refresh.Elapsed() {
		c.refresh.Restart()
		c.Refresh()
	}
}

// Refresh copies the current statistics. Must run on the loop goroutine.
func (c *Collector) Refresh() {
	s := c.system
	snap := snapshot{
		iterations:     s.Iterations(),
		uptimeMs:       s.Uptime().Total(),
		status:         s.Status(),
		stopped:        s.Stopped(),
		dropped:        s.Logs().Dropped(),
		ringBytes:      s.LocalSink().Len(),
		remoteFailures: s.RemoteSink().Failures(),
	}
	snap.timings = append(snap.timings, takeTiming("yield", s.YieldTiming()))
	for _, component := range s.Components() {
		if stats, ok := s.ComponentTiming(component.Name()); ok {
			snap.timings = append(snap.timings, takeTiming(component.Name(), stats))
		}
	}

	c.mu.Lock()
	c.snap = snap
	c.taken = true
	c.mu.Unlock()
}

func takeTiming(name string, stats *timing.Statistics) timingSnapshot {
	return timingSnapshot{
		name:    name,
		count:   stats.Count(),
		avg:     stats.Avg(),
		minimum: stats.Min(),
		maximum: stats.Max(),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		iterationsDesc, uptimeDesc, statusDesc, stoppedDesc,
		droppedDesc, ringBytesDesc, remoteFailuresDesc, timingSamplesDesc, timingDesc,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector. Nothing is reported before the
// first snapshot.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.scrapes.Add(1)

	c.mu.RLock()
	snap, taken := c.snap, c.taken
	c.mu.RUnlock()
	if !taken {
		return
	}

	ch <- prometheus.MustNewConstMetric(iterationsDesc, prometheus.CounterValue, float64(snap.iterations))
	ch <- prometheus.MustNewConstMetric(uptimeDesc, prometheus.GaugeValue, float64(snap.uptimeMs)/1000)
	for _, status := range statuses {
		ch <- prometheus.MustNewConstMetric(statusDesc, prometheus.GaugeValue, boolValue(status == snap.status), status.String())
	}
	ch <- prometheus.MustNewConstMetric(stoppedDesc, prometheus.GaugeValue, boolValue(snap.stopped))
	ch <- prometheus.MustNewConstMetric(droppedDesc, prometheus.GaugeValue, float64(snap.dropped))
	ch <- prometheus.MustNewConstMetric(ringBytesDesc, prometheus.GaugeValue, float64(snap.ringBytes))
	ch <- prometheus.MustNewConstMetric(remoteFailuresDesc, prometheus.CounterValue, float64(snap.remoteFailures))

	for _, t := range snap.timings {
		ch <- prometheus.MustNewConstMetric(timingSamplesDesc, prometheus.GaugeValue, float64(t.count), t.name)
		ch <- prometheus.MustNewConstMetric(timingDesc, prometheus.GaugeValue, microsToSeconds(t.avg), t.name, "avg")
		ch <- prometheus.MustNewConstMetric(timingDesc, prometheus.GaugeValue, microsToSeconds(t.minimum), t.name, "min")
		ch <- prometheus.MustNewConstMetric(timingDesc, prometheus.GaugeValue, microsToSeconds(t.maximum), t.name, "max")
	}
}

func microsToSeconds(us uint32) float64 {
	return float64(us) / 1e6
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
