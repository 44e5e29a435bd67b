package compat

import (
	"fmt"
	"os"

	"github.com/lixenwraith/iotcore/log"
)

// GnetAdapter wraps a log.Logger to implement the gnet logging.Logger interface
type GnetAdapter struct {
	logger       log.Logger
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter.
// logger should be an async handle.
func NewGnetAdapter(logger log.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.print(log.LevelDebug, format, args)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.print(log.LevelInfo, format, args)
}

// Warnf logs at warning level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.print(log.LevelWarning, format, args)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.print(log.LevelError, format, args)
}

// Fatalf logs unconditionally and triggers the fatal handler. The entry is
// queued; the handler decides whether the queue gets a chance to drain.
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.logger.Log("gnet fatal: " + msg)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}

func (a *GnetAdapter) print(level log.Level, format string, args []any) {
	a.logger.Printf(level, "gnet: "+format, args...)
}
