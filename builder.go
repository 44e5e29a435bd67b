package iotcore

import (
	"github.com/lixenwraith/iotcore/clock"
	"github.com/lixenwraith/iotcore/log"
)

// Builder provides a fluent API for assembling a System.
// Errors are accumulated and reported by Build.
type Builder struct {
	cfg        *Config
	platform   Platform
	store      ConfigStore
	opts       []Option
	components []Component
	err        error
}

// NewBuilder creates a builder with the default configuration.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build validates the configuration, creates the System and registers the
// components in the order they were added.
func (b *Builder) Build() (*System, error) {
	if b.err != nil {
		return nil, b.err
	}

	s, err := New(b.cfg, b.platform, b.store, b.opts...)
	if err != nil {
		return nil, err
	}

	for _, c := range b.components {
		if err := s.AddComponent(c); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Config replaces the whole configuration.
func (b *Builder) Config(cfg *Config) *Builder {
	if cfg == nil {
		b.err = combineErrors(b.err, fmtErrorf("configuration cannot be nil"))
		return b
	}
	b.cfg = cfg.Clone()
	return b
}

// Override applies "key=value" overrides to the configuration.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	cfg, err := b.cfg.ApplyOverride(overrides...)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg = cfg
	return b
}

// Name sets the device name.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Version sets the application build.
func (b *Builder) Version(version, commit string) *Builder {
	b.cfg.Version = version
	b.cfg.Commit = commit
	return b
}

// InitialLevel sets the default log threshold.
func (b *Builder) InitialLevel(level log.Level) *Builder {
	return b.levelField(&b.cfg.InitialLevel, level)
}

// LocalLevel sets the ring sink threshold.
func (b *Builder) LocalLevel(level log.Level) *Builder {
	return b.levelField(&b.cfg.LocalLevel, level)
}

func (b *Builder) levelField(field *string, level log.Level) *Builder {
	if !level.Valid() {
		b.err = combineErrors(b.err, fmtErrorf("invalid log level %d", uint8(level)))
		return b
	}
	*field = level.String()
	return b
}

// EntryLength sets the maximum formatted log entry length.
func (b *Builder) EntryLength(n int64) *Builder {
	b.cfg.EntryLength = n
	return b
}

// RingSize sets the local ring sink capacity in bytes.
func (b *Builder) RingSize(n int64) *Builder {
	b.cfg.RingSize = n
	return b
}

// RemoteLogging enables forwarding of entries at or below level to address.
func (b *Builder) RemoteLogging(address string, level log.Level) *Builder {
	b.cfg.RemoteEnabled = true
	b.cfg.RemoteAddress = address
	return b.levelField(&b.cfg.RemoteLevel, level)
}

// Console mirrors entries at or below level to target, "stdout" or "stderr".
func (b *Builder) Console(target string, level log.Level) *Builder {
	b.cfg.EnableStdout = true
	b.cfg.StdoutTarget = target
	return b.levelField(&b.cfg.StdoutLevel, level)
}

// DevelopmentMode enables the development mode warning and fast LED blink.
func (b *Builder) DevelopmentMode(enable bool) *Builder {
	b.cfg.DevelopmentMode = enable
	return b
}

// LoopIntervalMs sets the pause between iterations in Run.
func (b *Builder) LoopIntervalMs(ms int64) *Builder {
	b.cfg.LoopIntervalMs = ms
	return b
}

// Heartbeat enables periodic statistics logging.
func (b *Builder) Heartbeat(level int64, intervalMs int64) *Builder {
	b.cfg.HeartbeatLevel = level
	b.cfg.HeartbeatIntervalMs = intervalMs
	return b
}

// Platform sets the device platform.
func (b *Builder) Platform(p Platform) *Builder {
	b.platform = p
	return b
}

// Store sets the configuration store.
func (b *Builder) Store(store ConfigStore) *Builder {
	b.store = store
	return b
}

// Pins sets the digital I/O.
func (b *Builder) Pins(pins Pins) *Builder {
	b.opts = append(b.opts, WithPins(pins))
	return b
}

// OTA sets the over-the-air updater.
func (b *Builder) OTA(ota OTA) *Builder {
	b.opts = append(b.opts, WithOTA(ota))
	return b
}

// Clock sets the time source.
func (b *Builder) Clock(src clock.Source) *Builder {
	b.opts = append(b.opts, WithClock(src))
	return b
}

// Sender sets the remote log transport.
func (b *Builder) Sender(sender log.PacketSender) *Builder {
	b.opts = append(b.opts, WithSender(sender))
	return b
}

// Component registers a component.
func (b *Builder) Component(c Component) *Builder {
	b.components = append(b.components, c)
	return b
}

// Example usage:
// system, err := iotcore.NewBuilder().
//
//	Name("greenhouse").
//	Version("1.2.0", "4f2a9c1").
//	Platform(host).
//	Store(store).
//	Component(sensor).
//	Build()
//
// if err == nil {
//
//	 defer system.Close()
//	 err = system.Run(ctx)
//
// }
