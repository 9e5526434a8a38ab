package picolan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/supercamel/picolan/wire"
)

// TestDatagramChunkedWrite covers scenario 2's datagram half: a message
// larger than one payload is split into DatagramPayloadCap-sized chunks and
// reassembles in order at the receiver.
func TestDatagramChunkedWrite(t *testing.T) {
	a, b := NewPipeLink()
	alice := NewInterface(a)
	require.NoError(t, alice.SetAddress(1))
	bob := NewInterface(b)
	require.NoError(t, bob.SetAddress(2))

	sender := NewDatagram(20, 0)
	require.True(t, alice.Bind(sender))
	receiver := NewDatagram(20, 4096)
	require.True(t, bob.Bind(receiver))

	msg := make([]byte, 120)
	for i := range msg {
		msg[i] = byte(i)
	}

	n, err := sender.Write(2, 20, msg)
	require.NoError(t, err)
	require.Equal(t, len(msg), n)

	require.Eventually(t, func() bool {
		bob.Read()
		return receiver.ringbuf.Len() >= len(msg)
	}, time.Second, time.Millisecond)

	got := make([]byte, len(msg))
	n = receiver.Read(got)
	require.Equal(t, len(msg), n)
	require.Equal(t, msg, got)
	require.Equal(t, uint8(1), receiver.GetRemote())
}

// TestDatagramBroadcast covers Interface's dst-gating: a Datagram addressed
// to 0xFF is delivered to a bound socket regardless of this node's address.
func TestDatagramBroadcast(t *testing.T) {
	a, b := NewPipeLink()
	alice := NewInterface(a)
	require.NoError(t, alice.SetAddress(1))
	bob := NewInterface(b)
	require.NoError(t, bob.SetAddress(2))

	sender := NewDatagram(21, 0)
	require.True(t, alice.Bind(sender))
	receiver := NewDatagram(21, 256)
	require.True(t, bob.Bind(receiver))

	_, err := sender.Write(wire.BroadcastAddr, 21, []byte("hi"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		bob.Read()
		return receiver.ringbuf.Len() >= 2
	}, time.Second, time.Millisecond)

	got := make([]byte, 2)
	require.Equal(t, 2, receiver.Read(got))
	require.Equal(t, []byte("hi"), got)
}

// TestDatagramWrongPortDropped asserts a Datagram for a different port than
// any bound socket is simply not delivered anywhere.
func TestDatagramWrongPortDropped(t *testing.T) {
	a, b := NewPipeLink()
	alice := NewInterface(a)
	require.NoError(t, alice.SetAddress(1))
	bob := NewInterface(b)
	require.NoError(t, bob.SetAddress(2))

	sender := NewDatagram(22, 0)
	require.True(t, alice.Bind(sender))
	receiver := NewDatagram(23, 256)
	require.True(t, bob.Bind(receiver))

	_, err := sender.Write(2, 99, []byte("nope"))
	require.NoError(t, err)

	bob.Read()
	require.Equal(t, 0, receiver.ringbuf.Len())
}
