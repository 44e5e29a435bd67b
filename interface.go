package iotcore

// ConnectionStatus is recomputed once per loop iteration. Reconnected and
// Disconnecting are edges: each is reported for exactly one iteration.
type ConnectionStatus uint8

const (
	Disconnected ConnectionStatus = iota
	Reconnected
	Connected
	Disconnecting
)

var statusNames = [...]string{
	Disconnected:  "disconnected",
	Reconnected:   "reconnected",
	Connected:     "connected",
	Disconnecting: "disconnecting",
}

// String returns the lower-case status name.
func (s ConnectionStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Online reports whether the link is up in this status.
func (s ConnectionStatus) Online() bool {
	return s == Reconnected || s == Connected
}

// DiagnosticsCollector receives hierarchical diagnostics. Sections must be
// balanced.
type DiagnosticsCollector interface {
	BeginSection(name string)
	AddValue(name, value string)
	EndSection()
}

// DiagnosticsProvider writes its diagnostics into a collector.
type DiagnosticsProvider interface {
	GetDiagnostics(collector DiagnosticsCollector)
}

// ConfigWriter receives one configuration field.
type ConfigWriter func(name, value string)

// ConfigParser feeds name/value entries to processEntry until one is
// rejected. Parse reports whether every entry was well-formed and accepted.
type ConfigParser interface {
	Parse(processEntry func(name, value string) bool) bool
}

// Configurable is anything addressable by the configuration router.
type Configurable interface {
	// Name is stable and unique; it is the log category, the persisted
	// config key and the diagnostics section of the component.
	Name() string
	// Configure applies one field and reports whether it was accepted.
	Configure(name, value string) bool
	// GetConfig enumerates every current field.
	GetConfig(writer ConfigWriter)
}

// Component is a unit of application functionality driven by the System.
//
// Setup is called once with the connectivity at startup, after the persisted
// configuration has been restored. Loop is called every iteration unless the
// system is stopped and must never block.
type Component interface {
	Configurable
	DiagnosticsProvider
	Setup(connected bool)
	Loop(status ConnectionStatus)
}

// Input is a digital input such as a button or jumper.
type Input interface {
	Active() bool
	// UnchangedFor reports whether the input kept its state for at least ms.
	UnchangedFor(ms uint32) bool
}

// Output is a digital output such as the status LED.
type Output interface {
	Set(on bool)
	// ToggleIfUnchangedFor flips the output when it kept its state for ms.
	ToggleIfUnchangedFor(ms uint32)
}

// Platform is the device the System runs on: network stack, identity and
// restart.
type Platform interface {
	// ID is a short, stable device identifier.
	ID() string
	// Connect starts the network stack and reports whether a link came up.
	Connect(hostname string) bool
	Connected() bool
	// Service lets the network stack do pending work. Called at every yield.
	Service()
	// CredentialsSaved reports whether a network identity is persisted.
	CredentialsSaved() bool
	EraseCredentials() error
	// Restart reboots the device. On hardware it does not return.
	Restart()
	// Diagnostics adds resource and network values to the system section.
	Diagnostics(collector DiagnosticsCollector)
}

// OTAHooks are invoked by an OTA updater on the loop goroutine.
type OTAHooks struct {
	OnStart    func()
	OnEnd      func()
	OnProgress func(done, total uint64)
}

// OTA is an over-the-air update service, serviced at every yield.
type OTA interface {
	Begin(hooks OTAHooks) error
	Handle()
}

// ConfigStore persists one configuration blob per component name. Load
// returns an error wrapping fs.ErrNotExist when nothing is stored under name.
type ConfigStore interface {
	Load(name string) ([]byte, error)
	Save(name string, data []byte) error
	// Erase removes every persisted configuration.
	Erase() error
}

// Pins groups the digital I/O used by the System. Any of them may be nil.
type Pins struct {
	StatusLED    Output
	OTAEnable    Input
	FactoryReset Input
	DebugEnable  Input
}
