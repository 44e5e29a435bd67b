package iotcore

import (
	"context"
	"errors"
	"time"
)

// ErrRestart is returned by Run when the device asked to be restarted.
var ErrRestart = errors.New("iotcore: restart requested")

// Loop runs one iteration of the main loop. It must never block: every
// component's Loop is followed by a Yield so the network stack is serviced.
func (s *System) Loop() {
	s.yieldTiming.Start()

	s.uptime.Update()

	s.Yield()

	if s.factoryResetTriggered() {
		s.FactoryReset()
	}

	s.runScheduled()

	s.updateStatus()

	if s.status.Online() {
		switch {
		case s.stopped:
			s.blink(blinkMediumMs)
		case s.cfg.DevelopmentMode:
			s.blink(blinkFastMs)
		default:
			s.setLED(false)
		}
	} else {
		s.checkWatchdog()

		if s.stopped {
			s.blink(blinkMediumMs)
		} else {
			s.blink(blinkSlowMs)
		}
	}

	if !s.stopped {
		s.loopComponents()
	}

	s.heartbeatTick()

	s.yieldTiming.Stop()
	s.iterations++
}

// Yield services the platform network stack, OTA updates, queued log entries
// and jobs posted by other goroutines. The global timing sample is paused
// meanwhile so stack service time is not charged to measured work.
func (s *System) Yield() {
	s.yieldTiming.Stop()
	s.platform.Service()
	if s.otaActive {
		s.ota.Handle()
	}
	s.logs.Drain()
	s.runJobs()
	s.yieldTiming.Start()
}

// updateStatus recomputes the connection status. The disconnected-since
// timestamp is zero while connected, so each edge is seen exactly once.
func (s *System) updateStatus() {
	now := s.uptime.Millis()

	if s.platform.Connected() {
		s.status = Connected
		if s.disconnectedSince > 0 {
			s.logger.Info("Reconnected after %d ms.", now-s.disconnectedSince)
			s.disconnectedSince = 0
			s.status = Reconnected
		}
		return
	}

	s.status = Disconnected
	// A reading below the timestamp means the millisecond counter wrapped
	if s.disconnectedSince == 0 || now < s.disconnectedSince {
		s.disconnectedSince = max(now, 1)
		s.logger.Warn("Disconnected.")
		s.status = Disconnecting
	}
}

// checkWatchdog restarts a device stuck offline although it has a network
// identity to reconnect with.
func (s *System) checkWatchdog() {
	if s.restarting || s.disconnectedSince == 0 || !s.platform.CredentialsSaved() {
		return
	}
	if s.uptime.Millis()-s.disconnectedSince > uint32(s.cfg.DisconnectedResetMs) {
		s.logger.Error("Disconnected for more than %d ms, restarting.", s.cfg.DisconnectedResetMs)
		s.Reset()
	}
}

func (s *System) factoryResetTriggered() bool {
	in := s.pins.FactoryReset
	return in != nil && in.Active() && in.UnchangedFor(uint32(s.cfg.FactoryResetHoldMs))
}

func (s *System) loopComponents() {
	for _, r := range s.components {
		r.timing.Start()
		r.component.Loop(s.status)
		r.timing.Stop()
		s.Yield()
	}
}

func (s *System) blink(periodMs uint32) {
	if s.pins.StatusLED != nil {
		s.pins.StatusLED.ToggleIfUnchangedFor(periodMs)
	}
}

func (s *System) setLED(on bool) {
	if s.pins.StatusLED != nil {
		s.pins.StatusLED.Set(on)
	}
}

// Run sets the System up and loops until ctx ends or a restart is requested,
// pausing LoopIntervalMs between iterations. A requested restart is reported
// as ErrRestart so the host can start over.
func (s *System) Run(ctx context.Context) error {
	if !s.setupDone {
		s.Setup()
	}

	var ticker *time.Ticker
	if s.cfg.LoopIntervalMs > 0 {
		ticker = time.NewTicker(time.Duration(s.cfg.LoopIntervalMs) * time.Millisecond)
		defer ticker.Stop()
	}

	for {
		s.Loop()
		if s.restarting {
			return ErrRestart
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if ticker == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
