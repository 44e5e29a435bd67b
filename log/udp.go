package log

// DefaultUDPDestination is the collector address used until one is configured.
const DefaultUDPDestination = "127.0.0.1:5141"

// PacketSender sends one datagram to a host:port destination.
type PacketSender interface {
	Send(destination string, packet []byte) error
}

// PacketSenderFunc adapts a function to PacketSender.
type PacketSenderFunc func(destination string, packet []byte) error

// Send implements PacketSender.
func (f PacketSenderFunc) Send(destination string, packet []byte) error {
	return f(destination, packet)
}

// UDPSink mirrors entries to a remote collector, one datagram per entry.
// Delivery is best effort: nothing is sent while the sink is disabled or the
// link is down, and send errors are counted and dropped.
//
// Disabled by default with threshold LevelAll.
type UDPSink struct {
	SinkBase
	destination string
	sender      PacketSender
	linkUp      func() bool
	failures    uint64
}

// NewUDPSink creates a sink sending through sender. linkUp may be nil, in
// which case the link is assumed up.
func NewUDPSink(sender PacketSender, linkUp func() bool) *UDPSink {
	return &UDPSink{
		SinkBase:    NewSinkBase(false, LevelAll),
		destination: DefaultUDPDestination,
		sender:      sender,
		linkUp:      linkUp,
	}
}

// Destination returns the collector address.
func (u *UDPSink) Destination() string {
	return u.destination
}

// SetDestination changes the collector address.
func (u *UDPSink) SetDestination(destination string) {
	u.destination = destination
}

// Failures returns the number of sends that returned an error.
func (u *UDPSink) Failures() uint64 {
	return u.failures
}

// Commit implements Sink.
func (u *UDPSink) Commit(entry []byte) {
	if !u.enabled || u.sender == nil {
		return
	}
	if u.linkUp != nil && !u.linkUp() {
		return
	}
	if err := u.sender.Send(u.destination, entry); err != nil {
		u.failures++
	}
}
