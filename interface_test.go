package picolan

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// TestPingRTT covers scenario 1: Ping against a live peer returns without
// error, which it only does once a PingEcho carrying its own payload arrives.
func TestPingRTT(t *testing.T) {
	a, b := NewPipeLink()
	alice := NewInterface(a)
	require.NoError(t, alice.SetAddress(1))
	bob := NewInterface(b)
	require.NoError(t, bob.SetAddress(2))

	errCh := make(chan error, 1)
	go func() {
		_, err := alice.Ping(2, time.Second)
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		bob.Read()
		alice.Read()
		return alice.pingEchoSeen
	}, time.Second, time.Millisecond)

	require.NoError(t, <-errCh)
}

// TestPingTimeout exercises the timeout path deterministically with a fake
// clock: no peer ever answers, so Ping must return ErrTimeout once the
// clock has been advanced past the deadline.
func TestPingTimeout(t *testing.T) {
	a, _ := NewPipeLink()
	clk := clockwork.NewFakeClock()
	alice := NewInterface(a, WithClock(clk))
	require.NoError(t, alice.SetAddress(1))

	errCh := make(chan error, 1)
	go func() {
		_, err := alice.Ping(2, 50*time.Millisecond)
		errCh <- err
	}()

	blockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clk.BlockUntilContext(blockCtx, 1))
	clk.Advance(51 * time.Millisecond)

	err := <-errCh
	require.ErrorIs(t, err, ErrTimeout)
}

// TestAddressDiscovery covers scenario 2's address-discovery half: a
// GetAddrList reply carries exactly the responder's own address.
func TestAddressDiscovery(t *testing.T) {
	a, b := NewPipeLink()
	alice := NewInterface(a)
	require.NoError(t, alice.SetAddress(1))
	bob := NewInterface(b)
	require.NoError(t, bob.SetAddress(9))

	errCh := make(chan error, 1)
	go func() { errCh <- alice.GetAddrList(time.Second) }()

	require.Eventually(t, func() bool {
		bob.Read()
		alice.Read()
		return alice.addrListRecved
	}, time.Second, time.Millisecond)

	require.NoError(t, <-errCh)
	require.True(t, alice.LookupAddr(9))
	require.False(t, alice.LookupAddr(1))
}

// TestBindPortUniqueness covers the Port uniqueness testable property.
func TestBindPortUniqueness(t *testing.T) {
	a, _ := NewPipeLink()
	iface := NewInterface(a)

	d1 := NewDatagram(10, 0)
	require.True(t, iface.Bind(d1))

	d2 := NewDatagram(10, 0)
	require.False(t, iface.Bind(d2))

	d3 := NewDatagram(11, 0)
	require.True(t, iface.Bind(d3))
}
