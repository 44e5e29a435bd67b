package iotcore

import (
	"errors"
	"io/fs"

	"github.com/lixenwraith/iotcore/formatter"
	"github.com/lixenwraith/iotcore/log"
)

// Setup brings the device up: it applies the debug input, connects the
// network, starts OTA when enabled, then restores the persisted configuration
// of every component and sets it up. Components can no longer be added
// afterwards.
func (s *System) Setup() {
	if s.setupDone {
		return
	}

	if s.pins.DebugEnable != nil && s.pins.DebugEnable.Active() {
		_ = s.logs.SetInitialLevel(log.LevelDebug)
	}

	if s.cfg.DevelopmentMode {
		s.logger.Warn("DEVELOPMENT MODE")
	}
	s.setLED(true)

	host := s.Hostname()
	s.logger.Log(fmtSetup(s.cfg.Name, s.version))
	s.logger.Log("Running on device ID " + s.platform.ID())
	s.logger.Log("Using hostname " + host)

	connected := s.platform.Connect(host)

	if s.ota != nil && s.pins.OTAEnable != nil && s.pins.OTAEnable.Active() {
		s.setupOTA()
	}

	s.logger.Info("Internal setup done.")
	s.logger.PrintFunc(log.LevelTrace, formatter.Dump(s.cfg))

	for _, r := range s.components {
		s.restoreConfiguration(r.component)
		r.component.Setup(connected)
	}
	s.setupDone = true

	s.logger.Info("All setup done.")

	s.setLED(false)
}

// SetupDone reports whether Setup has completed.
func (s *System) SetupDone() bool {
	return s.setupDone
}

func fmtSetup(name string, v VersionInfo) string {
	return "Setting up " + name + " version " + v.Version + " (commit " + v.Commit + ")"
}

// setupOTA wires the updater hooks. They run on the loop goroutine, from
// within OTA.Handle.
func (s *System) setupOTA() {
	err := s.ota.Begin(OTAHooks{
		OnStart: func() {
			s.Stop()
			s.logger.Info("Starting OTA update...")
			s.setLED(true)
		},
		OnEnd: func() {
			s.setLED(false)
			s.logger.Info("OTA update finished.")
		},
		OnProgress: func(done, total uint64) {
			if s.pins.StatusLED != nil {
				s.pins.StatusLED.ToggleIfUnchangedFor(10)
			}
		},
	})
	if err != nil {
		s.logger.Error("OTA setup failed: %v", err)
		return
	}
	s.otaActive = true
}

// Stop halts component dispatch. The loop keeps yielding, so connectivity and
// OTA updates stay available.
func (s *System) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.logger.Info("STOP!")
}

// Reset restarts the device.
func (s *System) Reset() {
	if s.restarting {
		return
	}
	s.restarting = true
	s.logger.Warn("Restarting.")
	s.platform.Restart()
}

// FactoryReset erases persisted configuration and network credentials, then
// restarts the device.
func (s *System) FactoryReset() {
	s.logger.Warn("Factory reset.")
	var err error
	if s.store != nil {
		err = combineErrors(err, s.store.Erase())
	}
	err = combineErrors(err, s.platform.EraseCredentials())
	if err != nil {
		s.logger.Error("Factory reset incomplete: %v", err)
	}
	s.Reset()
}

// restoreConfiguration applies the persisted configuration of c.
func (s *System) restoreConfiguration(c Configurable) {
	if s.store == nil {
		return
	}
	data, err := s.store.Load(c.Name())
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("No stored config for '%s'.", c.Name())
		return
	}
	if err == nil && ConfigText(data).Parse(c.Configure) {
		s.logger.Info("Restored config for '%s'.", c.Name())
		return
	}
	s.logger.Error("failed to restore config for '%s'.", c.Name())
}

// persistConfiguration stores the full configuration of c.
func (s *System) persistConfiguration(c Configurable) bool {
	if s.store == nil {
		return true
	}
	if err := s.store.Save(c.Name(), EncodeConfig(c)); err != nil {
		s.logger.Error("failed to persist config for '%s': %v", c.Name(), err)
		return false
	}
	return true
}
