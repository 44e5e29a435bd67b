// Package iotcore is the runtime core of a network-connected device: it owns
// the log service, drives registered components from one cooperative loop,
// tracks connectivity edges and routes configuration and diagnostics.
//
// Everything in a System belongs to the goroutine calling Loop (or Run).
// Other goroutines reach it through Dispatch, Post or an async log.Logger.
package iotcore

import (
	"io"
	"slices"

	"github.com/lixenwraith/iotcore/clock"
	"github.com/lixenwraith/iotcore/log"
	"github.com/lixenwraith/iotcore/timing"
)

// System is the device orchestrator.
type System struct {
	cfg     *Config
	version VersionInfo

	clock  clock.Source
	uptime *clock.Uptime

	logs    *log.Service
	logger  log.Logger
	local   *log.RingSink
	remote  *log.UDPSink
	console *log.WriterSink
	sender  log.PacketSender

	platform Platform
	store    ConfigStore
	ota      OTA
	pins     Pins

	components []*registration
	setupDone  bool
	otaActive  bool
	stopped    bool
	restarting bool

	status            ConnectionStatus
	disconnectedSince uint32

	yieldTiming *timing.Statistics
	scheduled   []func()
	jobs        chan job
	iterations  uint64

	heartbeat *timing.IntervalTimer
	beats     uint64
}

// Option customizes a System at construction.
type Option func(*System)

// WithClock replaces the monotonic clock, e.g. with a clock.Manual in tests.
func WithClock(src clock.Source) Option {
	return func(s *System) {
		if src != nil {
			s.clock = src
		}
	}
}

// WithOTA enables over-the-air updates when the OTA enable input is active.
func WithOTA(ota OTA) Option {
	return func(s *System) {
		s.ota = ota
	}
}

// WithPins sets the digital I/O.
func WithPins(pins Pins) Option {
	return func(s *System) {
		s.pins = pins
	}
}

// WithSender sets the transport of the remote log sink. Without it a gnet
// UDP client is created when remote logging is enabled.
func WithSender(sender log.PacketSender) Option {
	return func(s *System) {
		s.sender = sender
	}
}

// New creates a System. The platform is required; a nil store disables
// configuration persistence.
func New(cfg *Config, platform Platform, store ConfigStore, opts ...Option) (*System, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if platform == nil {
		return nil, fmtErrorf("platform cannot be nil")
	}

	s := &System{
		cfg:      cfg.Clone(),
		version:  VersionInfo{Version: cfg.Version, Commit: cfg.Commit},
		platform: platform,
		store:    store,
		// Non-zero so the first connection is reported as Reconnected
		disconnectedSince: 1,
		status:            Disconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = clock.NewMonotonic()
	}

	s.uptime = clock.NewUptime(s.clock)
	s.logs = log.NewService(s.uptime,
		log.WithEntryLength(int(cfg.EntryLength)),
		log.WithQueueSize(int(cfg.QueueSize)),
		log.WithInitialLevel(log.ParseLevel(cfg.InitialLevel)),
	)
	s.logger = s.logs.Logger(categorySystem)

	s.local = log.NewRingSink(int(cfg.RingSize))
	if err := s.local.SetLevel(log.ParseLevel(cfg.LocalLevel)); err != nil {
		return nil, fmtErrorf("local sink: %w", err)
	}
	s.logs.AddSink(s.local)

	if s.sender == nil && cfg.RemoteEnabled {
		sender, err := log.NewGnetSender()
		if err != nil {
			return nil, fmtErrorf("failed to create remote log sender: %w", err)
		}
		s.sender = sender
	}
	s.remote = log.NewUDPSink(s.sender, platform.Connected)
	s.remote.SetDestination(cfg.RemoteAddress)
	s.remote.Enable(cfg.RemoteEnabled)
	if err := s.remote.SetLevel(log.ParseLevel(cfg.RemoteLevel)); err != nil {
		return nil, fmtErrorf("remote sink: %w", err)
	}
	s.logs.AddSink(s.remote)

	console, err := log.NewConsoleSink(cfg.StdoutTarget)
	if err != nil {
		return nil, fmtErrorf("console sink: %w", err)
	}
	s.console = console
	s.console.Enable(cfg.EnableStdout)
	if err := s.console.SetLevel(log.ParseLevel(cfg.StdoutLevel)); err != nil {
		return nil, fmtErrorf("console sink: %w", err)
	}
	s.logs.AddSink(s.console)

	s.yieldTiming = timing.New(yieldTimingSamples, s.clock)
	s.jobs = make(chan job, cfg.QueueSize)
	if cfg.HeartbeatLevel > 0 {
		s.heartbeat = timing.NewIntervalTimer(uint32(cfg.HeartbeatIntervalMs), s.clock)
	}

	return s, nil
}

// Close releases the remote log transport if it implements io.Closer.
func (s *System) Close() error {
	s.logs.RemoveSink(s.remote)
	if c, ok := s.sender.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ID returns the device identifier.
func (s *System) ID() string {
	return s.platform.ID()
}

// Name returns the device name.
func (s *System) Name() string {
	return s.cfg.Name
}

// Hostname returns the network hostname "<name>-<id>".
func (s *System) Hostname() string {
	return hostname(s.cfg.Name, s.platform.ID())
}

// Version returns the application build.
func (s *System) Version() VersionInfo {
	return s.version
}

// Config returns a copy of the configuration the System was created with.
func (s *System) Config() *Config {
	return s.cfg.Clone()
}

// Logs returns the log service.
func (s *System) Logs() *log.Service {
	return s.logs
}

// Logger returns a log handle bound to category.
func (s *System) Logger(category string) log.Logger {
	return s.logs.Logger(category)
}

// LocalSink returns the in-memory ring sink.
func (s *System) LocalSink() *log.RingSink {
	return s.local
}

// RemoteSink returns the UDP forwarding sink.
func (s *System) RemoteSink() *log.UDPSink {
	return s.remote
}

// ConsoleSink returns the stdout/stderr sink, disabled unless enable_stdout
// is set.
func (s *System) ConsoleSink() *log.WriterSink {
	return s.console
}

// Uptime returns the uptime sampled at the start of the current iteration.
func (s *System) Uptime() *clock.Uptime {
	return s.uptime
}

// Clock returns the time source used for timing and timeouts.
func (s *System) Clock() clock.Source {
	return s.clock
}

// Connected reports live connectivity.
func (s *System) Connected() bool {
	return s.platform.Connected()
}

// Status returns the connection status of the current iteration.
func (s *System) Status() ConnectionStatus {
	return s.status
}

// Stopped reports whether component dispatch is halted.
func (s *System) Stopped() bool {
	return s.stopped
}

// Restarting reports whether a restart was requested.
func (s *System) Restarting() bool {
	return s.restarting
}

// Iterations returns the number of completed loop iterations.
func (s *System) Iterations() uint64 {
	return s.iterations
}

// AddComponent registers c. Components are registered once, before Setup,
// and are driven in registration order. The System does not own them.
func (s *System) AddComponent(c Component) error {
	if c == nil {
		return fmtErrorf("component cannot be nil")
	}
	if s.setupDone {
		return fmtErrorf("cannot add component '%s' after setup", c.Name())
	}
	name := c.Name()
	if name == "" {
		return fmtErrorf("component name cannot be empty")
	}
	if s.find(name) != nil {
		return fmtErrorf("duplicate component name '%s'", name)
	}
	s.components = append(s.components, &registration{
		component: c,
		name:      name,
		timing:    timing.New(componentTimingSamples, s.clock),
	})
	return nil
}

// Component returns the component registered under name.
func (s *System) Component(name string) (Component, bool) {
	if r := s.find(name); r != nil {
		return r.component, true
	}
	return nil, false
}

// Components returns the registered components in registration order.
func (s *System) Components() []Component {
	out := make([]Component, 0, len(s.components))
	for _, r := range s.components {
		out = append(out, r.component)
	}
	return out
}

// YieldTiming returns the global loop timing ring.
func (s *System) YieldTiming() *timing.Statistics {
	return s.yieldTiming
}

// ComponentTiming returns the loop timing ring of the named component.
func (s *System) ComponentTiming(name string) (*timing.Statistics, bool) {
	if r := s.find(name); r != nil {
		return r.timing, true
	}
	return nil, false
}

func (s *System) find(name string) *registration {
	i := slices.IndexFunc(s.components, func(r *registration) bool { return r.name == name })
	if i < 0 {
		return nil
	}
	return s.components[i]
}
