package log

import (
	"bytes"

	"github.com/panjf2000/gnet/v2"
)

// GnetSender is a PacketSender backed by a gnet client. It keeps one UDP
// connection and redials when the destination changes.
type GnetSender struct {
	gnet.BuiltinEventEngine
	client      *gnet.Client
	conn        gnet.Conn
	destination string
}

// NewGnetSender starts a gnet client. Options are passed to gnet.NewClient,
// e.g. gnet.WithLogger to route gnet's own logging.
func NewGnetSender(opts ...gnet.Option) (*GnetSender, error) {
	s := &GnetSender{}
	client, err := gnet.NewClient(s, opts...)
	if err != nil {
		return nil, fmtErrorf("failed to create gnet client: %w", err)
	}
	if err := client.Start(); err != nil {
		return nil, fmtErrorf("failed to start gnet client: %w", err)
	}
	s.client = client
	return s, nil
}

// Send implements PacketSender.
func (s *GnetSender) Send(destination string, packet []byte) error {
	if s.conn == nil || s.destination != destination {
		if err := s.dial(destination); err != nil {
			return err
		}
	}
	// packet aliases the caller's scratch buffer
	return s.conn.AsyncWrite(bytes.Clone(packet), nil)
}

func (s *GnetSender) dial(destination string) error {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	conn, err := s.client.Dial("udp", destination)
	if err != nil {
		return fmtErrorf("failed to dial %s: %w", destination, err)
	}
	s.conn = conn
	s.destination = destination
	return nil
}

// OnTraffic discards anything the collector sends back.
func (s *GnetSender) OnTraffic(c gnet.Conn) gnet.Action {
	_, _ = c.Discard(-1)
	return gnet.None
}

// Close stops the client and its connection.
func (s *GnetSender) Close() error {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	return s.client.Stop()
}
