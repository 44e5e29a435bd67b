package iotcore

import (
	"fmt"
	"runtime"
)

// heartbeatTick emits the periodic heartbeat when its interval elapsed.
// Heartbeats are explicitly enabled, so they are logged unconditionally.
func (s *System) heartbeatTick() {
	if s.heartbeat == nil || !s.heartbeat.Elapsed() {
		return
	}
	s.heartbeat.Restart()
	s.handleHeartbeat()
}

// handleHeartbeat logs the statistics selected by the heartbeat level
func (s *System) handleHeartbeat() {
	s.beats++
	level := s.cfg.HeartbeatLevel

	if level >= 1 {
		s.logProcHeartbeat()
	}

	if level >= 2 {
		s.logTimingHeartbeat()
	}

	if level >= 3 {
		s.logRuntimeHeartbeat()
	}
}

// logProcHeartbeat logs loop statistics
func (s *System) logProcHeartbeat() {
	s.logger.Log(fmt.Sprintf("hb=%d iterations=%d status=%s stopped=%t dropped=%d",
		s.beats, s.iterations, s.status, s.stopped, s.logs.Dropped()))
}

// logTimingHeartbeat logs one line for the loop and each component
func (s *System) logTimingHeartbeat() {
	y := s.yieldTiming
	s.logger.Log(fmt.Sprintf("hb=%d timing=yield avg=%d max=%d", s.beats, y.Avg(), y.Max()))
	for _, r := range s.components {
		s.logger.Log(fmt.Sprintf("hb=%d timing=%s avg=%d max=%d", s.beats, r.name, r.timing.Avg(), r.timing.Max()))
	}
}

// logRuntimeHeartbeat logs Go runtime memory statistics
func (s *System) logRuntimeHeartbeat() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s.logger.Log(fmt.Sprintf("hb=%d alloc_kb=%d sys_kb=%d num_gc=%d goroutines=%d",
		s.beats, memStats.Alloc/1024, memStats.Sys/1024, memStats.NumGC, runtime.NumGoroutine()))
}
