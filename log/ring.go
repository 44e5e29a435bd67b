package log

import (
	"iter"

	"github.com/lixenwraith/iotcore/formatter"
)

// DefaultRingSize is the default byte capacity of a RingSink.
const DefaultRingSize = 4096

// RingSink keeps the most recent entries in a fixed byte ring, independent of
// connectivity. It stores whole entries only: when a new entry does not fit,
// the oldest entries are dropped in full until it does.
//
// Enabled by default with threshold LevelInfo. Not safe for concurrent use.
type RingSink struct {
	SinkBase
	buf     []byte
	start   int
	end     int
	scratch []byte
}

// NewRingSink creates a ring of size bytes. A non-positive size selects
// DefaultRingSize.
func NewRingSink(size int) *RingSink {
	if size <= 0 {
		size = DefaultRingSize
	}
	r := &RingSink{
		SinkBase: NewSinkBase(true, LevelInfo),
		buf:      make([]byte, size),
		scratch:  make([]byte, 0, size/2),
	}
	r.clear()
	return r
}

// Capacity returns the ring size in bytes.
func (r *RingSink) Capacity() int {
	return len(r.buf)
}

// MaxEntry returns the largest entry, separator included, the ring accepts.
func (r *RingSink) MaxEntry() int {
	return len(r.buf) / 2
}

// Empty reports whether the ring holds no entry.
func (r *RingSink) Empty() bool {
	return r.buf[r.start] == formatter.Separator
}

// Clear drops every stored entry.
func (r *RingSink) Clear() {
	r.clear()
}

func (r *RingSink) clear() {
	for i := range r.buf {
		r.buf[i] = formatter.Separator
	}
	r.start, r.end = 0, 0
}

// Commit implements Sink. Empty entries and entries larger than MaxEntry are
// ignored. A missing trailing separator is supplied.
func (r *RingSink) Commit(entry []byte) {
	if !r.enabled || len(entry) == 0 || len(entry) > r.MaxEntry() || entry[0] == formatter.Separator {
		return
	}
	for _, b := range entry {
		r.put(b)
	}
	if entry[len(entry)-1] != formatter.Separator {
		r.put(formatter.Separator)
	}
}

// put writes one byte, first dropping the oldest entry when the write would
// land on the read boundary.
func (r *RingSink) put(b byte) {
	if r.end == len(r.buf) {
		r.end = 0
		if r.start == 0 {
			r.advanceStart()
		}
	} else if r.start == r.end && r.start != 0 {
		r.advanceStart()
	}
	r.buf[r.end] = b
	r.end++
}

// advanceStart moves the read boundary just past the next separator.
func (r *RingSink) advanceStart() {
	for r.buf[r.start] != formatter.Separator {
		r.start = (r.start + 1) % len(r.buf)
	}
	r.start = (r.start + 1) % len(r.buf)
}

// Output calls handler with every stored entry, oldest first, each ending
// with the separator. The ring is not modified, so Output can be repeated.
// The slice passed to handler must not be retained.
func (r *RingSink) Output(handler func(entry []byte)) {
	if r.Empty() {
		return
	}
	size := len(r.buf)
	entryStart := r.start
	r.scratch = r.scratch[:0]
	i := r.start
	for {
		i %= size
		if r.buf[i] == formatter.Separator {
			if len(r.scratch) > 0 {
				// entry straddles the wrap point
				r.scratch = append(r.scratch, r.buf[:i+1]...)
				handler(r.scratch)
				r.scratch = r.scratch[:0]
			} else {
				handler(r.buf[entryStart : i+1])
			}
			entryStart = (i + 1) % size
		} else if i == size-1 {
			r.scratch = append(r.scratch, r.buf[entryStart:]...)
		}
		i++
		if i == r.end {
			break
		}
	}
}

// All returns the stored entries as a sequence, oldest first. Entries must be
// copied if retained past the iteration step.
func (r *RingSink) All() iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if r.Empty() {
			return
		}
		stop := false
		r.Output(func(entry []byte) {
			if !stop && !yield(entry) {
				stop = true
			}
		})
	}
}

// Len returns the number of stored bytes.
func (r *RingSink) Len() int {
	if r.Empty() {
		return 0
	}
	if r.end > r.start {
		return r.end - r.start
	}
	return len(r.buf) - r.start + r.end
}
