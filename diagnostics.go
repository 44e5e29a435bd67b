package iotcore

import (
	"strconv"

	"github.com/lixenwraith/iotcore/formatter"
	"github.com/lixenwraith/iotcore/timing"
)

// GetDiagnostics writes the "system" section, holding device identity, build,
// platform health and timing statistics, followed by one section per
// component.
func (s *System) GetDiagnostics(collector DiagnosticsCollector) {
	collector.BeginSection("system")
	collector.AddValue("chipId", s.platform.ID())
	collector.AddValue("name", s.cfg.Name)
	collector.AddValue("version", s.version.Version)
	collector.AddValue("commit", s.version.Commit)
	collector.AddValue("iotCoreVersion", Version)
	s.platform.Diagnostics(collector)
	collector.AddValue("uptime", s.uptime.Format())
	collector.AddValue("status", s.status.String())
	collector.AddValue("stopped", strconv.FormatBool(s.stopped))
	collector.AddValue("iterations", formatter.FormatInt(s.iterations))
	collector.AddValue("droppedLogs", formatter.FormatInt(s.logs.Dropped()))

	collector.BeginSection("timing")
	addTiming(collector, "yield", s.yieldTiming)
	for _, r := range s.components {
		addTiming(collector, r.name, r.timing)
	}
	collector.EndSection()

	collector.EndSection()

	for _, r := range s.components {
		collector.BeginSection(r.name)
		r.component.GetDiagnostics(collector)
		collector.EndSection()
	}
}

func addTiming(collector DiagnosticsCollector, name string, stats *timing.Statistics) {
	collector.BeginSection(name)
	AddTimingValues(collector, "", stats)
	collector.EndSection()
}

// AddTimingValues adds count, avg, min and max of stats, each name prefixed
// with prefix.
func AddTimingValues(collector DiagnosticsCollector, prefix string, stats *timing.Statistics) {
	collector.AddValue(timingKey(prefix, "count"), formatter.FormatInt(stats.Count()))
	collector.AddValue(timingKey(prefix, "avg"), formatter.FormatInt(stats.Avg()))
	collector.AddValue(timingKey(prefix, "min"), formatter.FormatInt(stats.Min()))
	collector.AddValue(timingKey(prefix, "max"), formatter.FormatInt(stats.Max()))
}

// timingKey joins prefix and name in lower camel case: ("call", "avg") is
// "callAvg".
func timingKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + string(name[0]-'a'+'A') + name[1:]
}
