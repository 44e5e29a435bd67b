package log

import (
	"fmt"
)

// Logger is a value handle binding a Service to a category. It is cheap to
// copy and safe to keep in component structs. The zero Logger discards
// everything.
//
// A Logger obtained from Async may be used from any goroutine; its entries
// are queued and emitted when the Service owner drains the queue.
type Logger struct {
	service  *Service
	category string
	async    bool
}

// Category returns the bound category.
func (l Logger) Category() string {
	return l.category
}

// Async returns a copy of l that queues entries instead of emitting them.
//
// Thresholds belong to the loop goroutine, so an async handle cannot read
// them: PrintFunc and Printf build the message on the calling goroutine even
// when the level is filtered out later on drain. Keep async calls at levels
// that are normally enabled, or guard costly ones with a cheap check.
func (l Logger) Async() Logger {
	l.async = true
	return l
}

// Enabled reports whether an entry at level would currently be emitted.
// Always true for an async handle, whose entries are filtered on drain.
func (l Logger) Enabled(level Level) bool {
	if l.service == nil {
		return false
	}
	return l.async || l.service.Enabled(level, l.category)
}

// Log emits message unconditionally.
func (l Logger) Log(message string) {
	switch {
	case l.service == nil:
	case l.async:
		l.service.Enqueue(LevelNone, l.category, message)
	default:
		l.service.Log(l.category, message)
	}
}

// Print emits message when level passes the category threshold.
func (l Logger) Print(level Level, message string) {
	switch {
	case l.service == nil:
	case l.async:
		l.service.Enqueue(level, l.category, message)
	default:
		l.service.Print(level, l.category, message)
	}
}

// PrintFunc emits the result of produce when level passes the category
// threshold; produce is not called otherwise, except on an async handle.
func (l Logger) PrintFunc(level Level, produce func() string) {
	switch {
	case l.service == nil:
	case l.async:
		l.service.Enqueue(level, l.category, produce())
	default:
		l.service.PrintFunc(level, l.category, produce)
	}
}

// Printf formats and emits when level passes the category threshold.
func (l Logger) Printf(level Level, format string, args ...any) {
	switch {
	case l.service == nil:
	case l.async:
		l.service.Enqueue(level, l.category, fmt.Sprintf(format, args...))
	default:
		l.service.Printf(level, l.category, format, args...)
	}
}

// Error logs at error level.
func (l Logger) Error(format string, args ...any) {
	l.Printf(LevelError, format, args...)
}

// Warn logs at warning level.
func (l Logger) Warn(format string, args ...any) {
	l.Printf(LevelWarning, format, args...)
}

// Info logs at info level.
func (l Logger) Info(format string, args ...any) {
	l.Printf(LevelInfo, format, args...)
}

// Debug logs at debug level.
func (l Logger) Debug(format string, args ...any) {
	l.Printf(LevelDebug, format, args...)
}

// Trace logs at trace level.
func (l Logger) Trace(format string, args ...any) {
	l.Printf(LevelTrace, format, args...)
}
