package iotcore

// Version of the core, reported in diagnostics as iotCoreVersion.
const Version = "0.9.0"

// Log categories used by the System itself
const (
	categorySystem = "sys"
)

// Timeouts, in milliseconds, polled once per loop iteration
const (
	// Factory reset input must be held unchanged this long
	FactoryResetHoldMs uint32 = 5000
	// Continuous disconnect that forces a restart when credentials are saved
	DisconnectedResetMs uint32 = 300000
)

// Status LED blink periods in milliseconds
const (
	blinkFastMs   uint32 = 250
	blinkMediumMs uint32 = 500
	blinkSlowMs   uint32 = 1000
)

// Timing ring sizes
const (
	yieldTimingSamples     = 20
	componentTimingSamples = 10
)

// Config text encoding
const (
	ConfigSeparator = '='
	ConfigEnd       = ';'
)
