// Package formatter builds log entries in a fixed-capacity scratch buffer.
//
// An entry renders as "[<uptime>|<category>|<level>] <message>" followed by
// the Separator byte. Content past the capacity is cut silently, and the
// message body is sanitized so the Separator can only ever appear as the
// terminator.
package formatter

import (
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/lixenwraith/iotcore/sanitizer"
)

const (
	// MaxEntryLength is the default content capacity of an entry, separator excluded.
	MaxEntryLength = 128
	// Separator terminates every formatted entry.
	Separator byte = '\n'
)

// Entry is a reusable single-owner scratch buffer. Its backing array is
// allocated once; formatting never grows it.
type Entry struct {
	buf      []byte
	limit    int
	body     *sanitizer.Sanitizer
	category *sanitizer.Sanitizer
}

// New creates an entry holding at most limit content bytes.
// A non-positive limit selects MaxEntryLength.
func New(limit int) *Entry {
	if limit <= 0 {
		limit = MaxEntryLength
	}
	return &Entry{
		buf:      make([]byte, 0, limit+1),
		limit:    limit,
		body:     sanitizer.New().Policy(sanitizer.PolicyEntry),
		category: sanitizer.New().Policy(sanitizer.PolicyCategory),
	}
}

// Limit returns the content capacity.
func (e *Entry) Limit() int {
	return e.limit
}

// Len returns the current content length, separator excluded.
func (e *Entry) Len() int {
	return len(e.buf)
}

// Reset empties the entry for reuse.
func (e *Entry) Reset() *Entry {
	e.buf = e.buf[:0]
	return e
}

// Header appends "[uptime|category|level] ". The category is stripped of
// control characters and field delimiters.
func (e *Entry) Header(uptime, category, level string) *Entry {
	e.raw("[")
	e.raw(uptime)
	e.raw("|")
	e.buf = e.category.AppendLimited(e.buf, category, e.limit)
	e.raw("|")
	e.raw(level)
	e.raw("] ")
	return e
}

// Message appends a sanitized message body.
func (e *Entry) Message(msg string) *Entry {
	e.buf = e.body.AppendLimited(e.buf, msg, e.limit)
	return e
}

// Bytes returns the content followed by the Separator. The slice aliases the
// scratch buffer and is only valid until the next Reset.
func (e *Entry) Bytes() []byte {
	return append(e.buf, Separator)
}

// Format resets the entry and renders a complete line in one call.
func (e *Entry) Format(uptime, category, level, msg string) []byte {
	return e.Reset().Header(uptime, category, level).Message(msg).Bytes()
}

func (e *Entry) raw(s string) {
	n := min(len(s), e.limit-len(e.buf))
	if n > 0 {
		e.buf = append(e.buf, s[:n]...)
	}
}

// Integer is the set of integer types FormatInt accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// AppendInt appends the decimal form of v to dst.
func AppendInt[T Integer](dst []byte, v T) []byte {
	if v < 0 {
		return strconv.AppendInt(dst, int64(v), 10)
	}
	return strconv.AppendUint(dst, uint64(v), 10)
}

// FormatInt returns the decimal form of v.
func FormatInt[T Integer](v T) string {
	var b [24]byte
	return string(AppendInt(b[:0], v))
}

var dumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump returns a producer that renders v with its structure on one line.
// Pass it to a lazy log call so the value is only walked when the entry
// passes the level filter.
func Dump(v any) func() string {
	return func() string {
		return strings.Join(strings.Fields(dumper.Sdump(v)), " ")
	}
}
