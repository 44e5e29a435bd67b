package log

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentPacket struct {
	destination string
	packet      string
}

func TestUDPSink(t *testing.T) {
	var sent []sentPacket
	var sendErr error
	linkUp := true

	sender := PacketSenderFunc(func(destination string, packet []byte) error {
		sent = append(sent, sentPacket{destination, string(packet)})
		return sendErr
	})
	u := NewUDPSink(sender, func() bool { return linkUp })

	t.Run("defaults", func(t *testing.T) {
		assert.False(t, u.Enabled())
		assert.Equal(t, LevelAll, u.Level())
		assert.Equal(t, DefaultUDPDestination, u.Destination())
	})

	t.Run("disabled sends nothing", func(t *testing.T) {
		u.Commit([]byte("x\n"))
		assert.Empty(t, sent)
	})

	t.Run("sends raw entry", func(t *testing.T) {
		u.Enable(true)
		u.Commit([]byte("[0d00:00:00.000|c|INF] hi\n"))
		require.Len(t, sent, 1)
		assert.Equal(t, sentPacket{"127.0.0.1:5141", "[0d00:00:00.000|c|INF] hi\n"}, sent[0])
	})

	t.Run("link down sends nothing", func(t *testing.T) {
		linkUp = false
		u.Commit([]byte("x\n"))
		assert.Len(t, sent, 1)
		linkUp = true
	})

	t.Run("errors are swallowed", func(t *testing.T) {
		sendErr = errors.New("network unreachable")
		assert.NotPanics(t, func() { u.Commit([]byte("x\n")) })
		assert.Equal(t, uint64(1), u.Failures())
		sendErr = nil
	})

	t.Run("destination change", func(t *testing.T) {
		u.SetDestination("10.0.0.2:514")
		u.Commit([]byte("y\n"))
		assert.Equal(t, "10.0.0.2:514", sent[len(sent)-1].destination)
	})
}

func TestUDPSinkNilSender(t *testing.T) {
	u := NewUDPSink(nil, nil)
	u.Enable(true)
	assert.NotPanics(t, func() { u.Commit([]byte("x\n")) })
}

func TestGnetSender(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	sender, err := NewGnetSender()
	require.NoError(t, err)
	defer sender.Close()

	svc := NewService(createTestUptime())
	u := NewUDPSink(sender, nil)
	u.Enable(true)
	u.SetDestination(listener.LocalAddr().String())
	svc.AddSink(u)

	svc.Print(LevelWarning, "net", "forwarded")

	buf := make([]byte, 256)
	require.NoError(t, listener.SetReadDeadline(time.Now().Add(3*time.Second)))
	n, _, err := listener.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "[0d00:00:00.000|net|WRN] forwarded\n", string(buf[:n]))
	assert.Equal(t, uint64(0), u.Failures())
}
