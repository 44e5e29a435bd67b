package log

import (
	"io"
	"os"
)

// WriterSink writes entries to an io.Writer, typically the console. It
// starts disabled at LevelInfo.
type WriterSink struct {
	SinkBase
	w        io.Writer
	failures uint64
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{
		SinkBase: NewSinkBase(false, LevelInfo),
		w:        w,
	}
}

// NewConsoleSink creates a sink for "stdout" or "stderr".
func NewConsoleSink(target string) (*WriterSink, error) {
	switch target {
	case "stdout":
		return NewWriterSink(os.Stdout), nil
	case "stderr":
		return NewWriterSink(os.Stderr), nil
	default:
		return nil, fmtErrorf("invalid console target '%s' (use stdout or stderr)", target)
	}
}

// Commit implements Sink. Write errors are counted.
func (s *WriterSink) Commit(entry []byte) {
	if _, err := s.w.Write(entry); err != nil {
		s.failures++
	}
}

// Failures returns the number of failed writes.
func (s *WriterSink) Failures() uint64 {
	return s.failures
}
