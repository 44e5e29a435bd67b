package clock

import (
	"strconv"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Uptime extends a wrapping millisecond Source into a 64-bit uptime and renders
// it as "<days>d<hh>:<mm>:<ss>.<mmm>".
//
// Update must be called at least once per wrap period (~49 days) so no
// wraparound is missed; the system loop does this once per iteration.
type Uptime struct {
	src   Source
	last  uint32
	wraps uint64
	buf   [32]byte
	n     int
}

// NewUptime wraps src.
func NewUptime(src Source) *Uptime {
	u := &Uptime{src: src}
	u.Update()
	return u
}

// Source returns the underlying clock.
func (u *Uptime) Source() Source {
	return u.src
}

// Update samples the source and accounts for a wraparound since the last call.
func (u *Uptime) Update() {
	now := u.src.Millis()
	if now < u.last {
		u.wraps++
	}
	u.last = now
	u.render()
}

// Millis returns the last sampled raw 32-bit reading.
func (u *Uptime) Millis() uint32 {
	return u.last
}

// Total returns the last sampled uptime in milliseconds, including wraps.
func (u *Uptime) Total() uint64 {
	return u.wraps<<32 | uint64(u.last)
}

// Format returns the rendered uptime of the last Update. The returned string
// is rebuilt only by Update.
func (u *Uptime) Format() string {
	return string(u.buf[:u.n])
}

func (u *Uptime) render() {
	total := u.Total()
	days := total / msPerDay
	total %= msPerDay

	b := u.buf[:0]
	b = strconv.AppendUint(b, days, 10)
	b = append(b, 'd')
	b = appendPadded(b, total/msPerHour, 2)
	total %= msPerHour
	b = append(b, ':')
	b = appendPadded(b, total/msPerMinute, 2)
	total %= msPerMinute
	b = append(b, ':')
	b = appendPadded(b, total/msPerSecond, 2)
	b = append(b, '.')
	b = appendPadded(b, total%msPerSecond, 3)
	u.n = len(b)
}

func appendPadded(b []byte, v uint64, width int) []byte {
	var tmp [20]byte
	digits := strconv.AppendUint(tmp[:0], v, 10)
	for i := len(digits); i < width; i++ {
		b = append(b, '0')
	}
	return append(b, digits...)
}
