// Package log is the logging subsystem: a single Service through which every
// log call passes, per-category severity thresholds, and fan-out of the
// formatted entry to registered sinks.
//
// The Service belongs to one goroutine, the one driving the system loop.
// Other goroutines hand entries over with Enqueue (or an Async Logger); the
// queue is drained by the owner.
package log

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/lixenwraith/iotcore/clock"
	"github.com/lixenwraith/iotcore/formatter"
)

const (
	// DefaultQueueSize is the capacity of the cross-goroutine entry queue.
	DefaultQueueSize = 64
	// internalCategory tags entries produced by the Service itself.
	internalCategory = "log"
)

// CategoryLevel is one per-category threshold override.
type CategoryLevel struct {
	Category string
	Level    Level
}

// Service formats entries and delivers them to sinks. It does not own the
// sinks registered with it.
type Service struct {
	uptime     *clock.Uptime
	entry      *formatter.Entry
	initial    Level
	categories map[string]Level
	pool       Pool
	sinks      []Sink
	delivering bool

	queue   chan record
	dropped atomic.Uint64
}

// Option configures a Service.
type Option func(*Service)

// WithEntryLength sets the entry content capacity.
func WithEntryLength(n int) Option {
	return func(s *Service) {
		s.entry = formatter.New(n)
	}
}

// WithQueueSize sets the capacity of the cross-goroutine queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queue = make(chan record, n)
		}
	}
}

// WithInitialLevel sets the process-wide default threshold.
func WithInitialLevel(level Level) Option {
	return func(s *Service) {
		if level.Valid() {
			s.initial = level
		}
	}
}

// NewService creates a Service stamping entries with uptime.
func NewService(uptime *clock.Uptime, opts ...Option) *Service {
	s := &Service{
		uptime:     uptime,
		entry:      formatter.New(formatter.MaxEntryLength),
		initial:    DefaultLevel,
		categories: make(map[string]Level),
		queue:      make(chan record, DefaultQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Logger returns a handle bound to category.
func (s *Service) Logger(category string) Logger {
	return Logger{service: s, category: category}
}

// Log emits message unconditionally. The entry is tagged LevelNone, so it
// bypasses the category threshold and reaches every enabled sink.
func (s *Service) Log(category, message string) {
	s.emit(LevelNone, category, message)
}

// Print emits message when level passes the category threshold.
func (s *Service) Print(level Level, category, message string) {
	if s.Enabled(level, category) {
		s.emit(level, category, message)
	}
}

// PrintFunc calls produce and emits its result only when level passes the
// category threshold.
func (s *Service) PrintFunc(level Level, category string, produce func() string) {
	if s.Enabled(level, category) {
		s.emit(level, category, produce())
	}
}

// Printf formats and emits only when level passes the category threshold.
func (s *Service) Printf(level Level, category, format string, args ...any) {
	if s.Enabled(level, category) {
		s.emit(level, category, fmt.Sprintf(format, args...))
	}
}

// Enabled reports whether an entry at level for category would be emitted.
func (s *Service) Enabled(level Level, category string) bool {
	return level <= s.CategoryLevel(category)
}

// InitialLevel returns the process-wide default threshold.
func (s *Service) InitialLevel() Level {
	return s.initial
}

// SetInitialLevel changes the process-wide default threshold.
func (s *Service) SetInitialLevel(level Level) error {
	if !level.Valid() {
		return fmtErrorf("invalid initial level %d", uint8(level))
	}
	s.initial = level
	return nil
}

// CategoryLevel returns the threshold for category, falling back to the
// initial level when no override exists.
func (s *Service) CategoryLevel(category string) Level {
	if level, ok := s.categories[category]; ok {
		return level
	}
	return s.initial
}

// SetCategoryLevel overrides the threshold for category.
func (s *Service) SetCategoryLevel(category string, level Level) error {
	if !level.Valid() {
		return fmtErrorf("invalid level %d for category '%s'", uint8(level), category)
	}
	if category == "" {
		return fmtErrorf("category cannot be empty")
	}
	s.categories[s.pool.Intern(category)] = level
	return nil
}

// ClearCategoryLevel removes the override for category. It reports whether
// one existed.
func (s *Service) ClearCategoryLevel(category string) bool {
	if _, ok := s.categories[category]; !ok {
		return false
	}
	delete(s.categories, category)
	return true
}

// CategoryLevels returns all overrides sorted by category.
func (s *Service) CategoryLevels() []CategoryLevel {
	levels := make([]CategoryLevel, 0, len(s.categories))
	for category, level := range s.categories {
		levels = append(levels, CategoryLevel{Category: category, Level: level})
	}
	slices.SortFunc(levels, func(a, b CategoryLevel) int {
		return strings.Compare(a.Category, b.Category)
	})
	return levels
}

// AddSink registers sink. Registering the same sink twice has no effect.
// The caller keeps ownership and must RemoveSink before discarding it.
func (s *Service) AddSink(sink Sink) {
	if sink == nil || slices.Contains(s.sinks, sink) {
		return
	}
	s.sinks = append(s.sinks, sink)
}

// RemoveSink unregisters sink and reports whether it was registered.
func (s *Service) RemoveSink(sink Sink) bool {
	i := slices.Index(s.sinks, sink)
	if i < 0 {
		return false
	}
	s.sinks = slices.Delete(s.sinks, i, i+1)
	return true
}

// Sinks returns the registered sinks in registration order.
func (s *Service) Sinks() []Sink {
	return slices.Clone(s.sinks)
}

// emit formats the entry into the scratch buffer and commits it to every
// enabled sink whose threshold admits level. A call made while an entry is
// being delivered, e.g. from inside a sink, is dropped.
func (s *Service) emit(level Level, category, message string) {
	if s.delivering {
		return
	}
	s.delivering = true
	defer func() { s.delivering = false }()

	data := s.entry.Format(s.uptime.Format(), category, level.String(), message)
	for _, sink := range s.sinks {
		if sink.Enabled() && sink.Level() >= level {
			s.commit(sink, data)
		}
	}
}

// commit shields the caller from a panicking sink.
func (s *Service) commit(sink Sink, data []byte) {
	defer func() { _ = recover() }()
	sink.Commit(data)
}
