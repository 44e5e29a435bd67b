package log

// Sink is a delivery target for formatted log entries.
//
// The Service calls Commit only when Enabled reports true and Level is at
// least as verbose as the entry. The entry slice ends with the separator byte
// and is only valid for the duration of the call. Commit must not fail
// visibly: delivery errors are the sink's own concern.
type Sink interface {
	Enabled() bool
	Level() Level
	Commit(entry []byte)
}

// SinkBase holds the enable flag and threshold shared by the bundled sinks.
// Embed it to satisfy the Enabled and Level parts of Sink.
type SinkBase struct {
	enabled bool
	level   Level
}

// NewSinkBase returns a SinkBase with the given defaults.
func NewSinkBase(enabled bool, level Level) SinkBase {
	return SinkBase{enabled: enabled, level: level}
}

// Enabled reports whether the sink accepts entries.
func (b *SinkBase) Enabled() bool {
	return b.enabled
}

// Enable turns the sink on or off.
func (b *SinkBase) Enable(enabled bool) {
	b.enabled = enabled
}

// Level returns the sink threshold.
func (b *SinkBase) Level() Level {
	return b.level
}

// SetLevel changes the sink threshold. LevelUnknown is rejected.
func (b *SinkBase) SetLevel(level Level) error {
	if !level.Valid() {
		return fmtErrorf("invalid sink level %d", uint8(level))
	}
	b.level = level
	return nil
}
