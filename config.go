package iotcore

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/lixenwraith/config"

	"github.com/lixenwraith/iotcore/log"
)

// Config holds the System settings
type Config struct {
	// Identity
	Name    string `toml:"name"`    // Device name, hostname prefix
	Version string `toml:"version"` // Application version
	Commit  string `toml:"commit"`  // Application commit hash

	// Logging
	InitialLevel  string `toml:"initial_level"`  // Process-wide default threshold code
	EntryLength   int64  `toml:"entry_length"`   // Max formatted entry content length
	RingSize      int64  `toml:"ring_size"`      // Local ring sink capacity in bytes
	LocalLevel    string `toml:"local_level"`    // Local ring sink threshold code
	QueueSize     int64  `toml:"queue_size"`     // Cross-goroutine log queue capacity
	RemoteEnabled bool   `toml:"remote_enabled"` // Forward entries over UDP
	RemoteAddress string `toml:"remote_address"` // UDP collector host:port
	RemoteLevel   string `toml:"remote_level"`   // Remote sink threshold code
	EnableStdout  bool   `toml:"enable_stdout"`  // Mirror logs to stdout/stderr
	StdoutTarget  string `toml:"stdout_target"`  // "stdout" or "stderr"
	StdoutLevel   string `toml:"stdout_level"`   // Console sink threshold code

	// Orchestration
	FactoryResetHoldMs  int64 `toml:"factory_reset_hold_ms"` // Factory reset input hold time
	DisconnectedResetMs int64 `toml:"disconnected_reset_ms"` // Watchdog restart timeout
	LoopIntervalMs      int64 `toml:"loop_interval_ms"`      // Idle pause between iterations in Run
	DevelopmentMode     bool  `toml:"development_mode"`      // Fast LED blink while connected

	// Heartbeat
	HeartbeatLevel      int64 `toml:"heartbeat_level"`       // 0=disabled, 1=loop, 2=loop+timing, 3=loop+timing+runtime
	HeartbeatIntervalMs int64 `toml:"heartbeat_interval_ms"` // Interval between heartbeats
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Identity
	Name:    "iotcore",
	Version: "dev",
	Commit:  "unknown",

	// Logging
	InitialLevel:  "INF",
	EntryLength:   128,
	RingSize:      4096,
	LocalLevel:    "INF",
	QueueSize:     64,
	RemoteEnabled: false,
	RemoteAddress: log.DefaultUDPDestination,
	RemoteLevel:   "ALL",
	EnableStdout:  false,
	StdoutTarget:  "stdout",
	StdoutLevel:   "INF",

	// Orchestration
	FactoryResetHoldMs:  int64(FactoryResetHoldMs),
	DisconnectedResetMs: int64(DisconnectedResetMs),
	LoopIntervalMs:      10,
	DevelopmentMode:     false,

	// Heartbeat
	HeartbeatLevel:      0,
	HeartbeatIntervalMs: 60000,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	// Create a copy to prevent modifications to the original
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config.
// A missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()

	if err := loader.RegisterStruct("iotcore.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "iotcore.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig copies values found by the loader into cfg, keyed by toml tag
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Use default value
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmtErrorf("name cannot be empty")
	}

	for _, lv := range []struct{ key, value string }{
		{"initial_level", c.InitialLevel},
		{"local_level", c.LocalLevel},
		{"remote_level", c.RemoteLevel},
		{"stdout_level", c.StdoutLevel},
	} {
		if log.ParseLevel(lv.value) == log.LevelUnknown {
			return fmtErrorf("invalid %s: '%s' (use ---, ERR, WRN, INF, DBG, TRC, ALL)", lv.key, lv.value)
		}
	}

	if c.EntryLength < 32 {
		return fmtErrorf("entry_length must be at least 32: %d", c.EntryLength)
	}

	if c.RingSize < 2*(c.EntryLength+1) {
		return fmtErrorf("ring_size (%d) must hold at least two entries of entry_length (%d)", c.RingSize, c.EntryLength)
	}

	if c.QueueSize <= 0 {
		return fmtErrorf("queue_size must be positive: %d", c.QueueSize)
	}

	if c.RemoteEnabled && strings.TrimSpace(c.RemoteAddress) == "" {
		return fmtErrorf("remote_address cannot be empty when remote logging is enabled")
	}

	if c.StdoutTarget != "stdout" && c.StdoutTarget != "stderr" {
		return fmtErrorf("invalid stdout_target: '%s' (use stdout or stderr)", c.StdoutTarget)
	}

	if c.FactoryResetHoldMs <= 0 || c.DisconnectedResetMs <= 0 {
		return fmtErrorf("reset timeouts must be positive")
	}

	if c.FactoryResetHoldMs > 1<<32-1 || c.DisconnectedResetMs > 1<<32-1 {
		return fmtErrorf("reset timeouts must fit in 32 bits")
	}

	if c.LoopIntervalMs < 0 {
		return fmtErrorf("loop_interval_ms cannot be negative: %d", c.LoopIntervalMs)
	}

	if c.HeartbeatLevel < 0 || c.HeartbeatLevel > 3 {
		return fmtErrorf("heartbeat_level must be between 0 and 3: %d", c.HeartbeatLevel)
	}

	if c.HeartbeatLevel > 0 && c.HeartbeatIntervalMs <= 0 {
		return fmtErrorf("heartbeat_interval_ms must be positive when heartbeat is enabled: %d",
			c.HeartbeatIntervalMs)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}
