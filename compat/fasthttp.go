package compat

import (
	"fmt"
	"strings"

	"github.com/lixenwraith/iotcore/log"
)

// FastHTTPAdapter wraps a log.Logger to implement the fasthttp Logger interface
type FastHTTPAdapter struct {
	logger        log.Logger
	defaultLevel  log.Level
	levelDetector func(string) log.Level // Detects the level from message text
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter.
// logger should be an async handle.
func NewFastHTTPAdapter(logger log.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:        logger,
		defaultLevel:  log.LevelInfo,
		levelDetector: DetectLogLevel,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when detection finds nothing
func WithDefaultLevel(level log.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect log level from message content
func WithLevelDetector(detector func(string) log.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected := a.levelDetector(msg); detected != log.LevelNone {
			level = detected
		}
	}

	a.logger.Print(level, "fasthttp: "+msg)
}

// DetectLogLevel guesses the level from message content. It returns
// log.LevelNone when nothing matches.
func DetectLogLevel(msg string) log.Level {
	msgLower := strings.ToLower(msg)

	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return log.LevelError
	}

	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return log.LevelWarning
	}

	if strings.Contains(msgLower, "debug") ||
		strings.Contains(msgLower, "trace") {
		return log.LevelDebug
	}

	return log.LevelNone
}
