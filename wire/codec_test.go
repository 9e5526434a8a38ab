package wire_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/supercamel/picolan/addrfield"
	"github.com/supercamel/picolan/wire"
)

func feedAll(t *testing.T, p *wire.Parser, frame []byte) []wire.Packet {
	t.Helper()
	var got []wire.Packet
	for _, b := range frame {
		if pkt, ok := p.Feed(b); ok {
			got = append(got, pkt)
		}
	}
	return got
}

func allVariants(t *testing.T) []wire.Packet {
	t.Helper()
	var af addrfield.Field
	af.Set(1)
	af.Set(250)
	return []wire.Packet{
		{Kind: wire.KindGetAddrList, GetAddrList: wire.GetAddrListPacket{TTL: 6}},
		{Kind: wire.KindAddrField, AddrField: wire.AddrFieldPacket{AF: af}},
		{Kind: wire.KindPing, Ping: wire.PingPacket{TTL: 6, Src: 7, Dst: 9, Payload: 0xBEEF}},
		{Kind: wire.KindPingEcho, PingEcho: wire.PingPacket{TTL: 6, Src: 9, Dst: 7, Payload: 0xBEEF}},
		{Kind: wire.KindDatagram, Datagram: wire.DatagramPacket{TTL: 6, Src: 5, Dst: 0xFF, Port: 3, Payload: []byte("hello, picolan!")}},
		{Kind: wire.KindSubscribe, Subscribe: wire.SubscribePacket{TTL: 6, Port: 3, Addr: 5, Subscribe: 1}},
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, pkt := range allVariants(t) {
		pkt := pkt
		t.Run(pkt.Kind.String(), func(t *testing.T) {
			frame, err := wire.Marshal(pkt)
			require.NoError(t, err)

			var p wire.Parser
			got := feedAll(t, &p, frame)
			require.Len(t, got, 1)
			if diff := cmp.Diff(pkt, got[0], cmp.AllowUnexported(addrfield.Field{})); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCodec_EscapeRoundTrip(t *testing.T) {
	// Payload deliberately full of every byte that requires stuffing.
	payload := []byte{0xAA, 0xAB, 0xAC, 0xAA, 0xAA, 0xAB, 0x00, 0xFF}
	pkt := wire.Packet{Kind: wire.KindDatagram, Datagram: wire.DatagramPacket{TTL: 6, Src: 1, Dst: 2, Port: 9, Payload: payload}}

	frame, err := wire.Marshal(pkt)
	require.NoError(t, err)

	var p wire.Parser
	got := feedAll(t, &p, frame)
	require.Len(t, got, 1)
	require.Equal(t, payload, got[0].Datagram.Payload)
}

func TestCodec_ChecksumRejection(t *testing.T) {
	pkt := wire.Packet{Kind: wire.KindPing, Ping: wire.PingPacket{TTL: 6, Src: 1, Dst: 2, Payload: 42}}
	frame, err := wire.Marshal(pkt)
	require.NoError(t, err)

	for i := 1; i < len(frame)-1; i++ {
		corrupt := append([]byte(nil), frame...)
		corrupt[i] ^= 0x01
		var p wire.Parser
		got := feedAll(t, &p, corrupt)
		require.Empty(t, got, "byte %d flip should not dispatch", i)
	}
}

func TestCodec_Resynchronisation(t *testing.T) {
	pkt := wire.Packet{Kind: wire.KindSubscribe, Subscribe: wire.SubscribePacket{TTL: 6, Port: 1, Addr: 2, Subscribe: 1}}
	frame, err := wire.Marshal(pkt)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(1))
	noise := make([]byte, 37)
	for i := range noise {
		b := byte(r.Intn(255) + 1) // never 0xAB by construction below
		if b == wire.StartMarker {
			b++
		}
		noise[i] = b
	}

	var p wire.Parser
	got := feedAll(t, &p, append(noise, frame...))
	require.Len(t, got, 1)
	require.Equal(t, pkt, got[0])
}

func TestCodec_StrayStartMarkerRestartsFrame(t *testing.T) {
	pkt := wire.Packet{Kind: wire.KindGetAddrList, GetAddrList: wire.GetAddrListPacket{TTL: 6}}
	frame, err := wire.Marshal(pkt)
	require.NoError(t, err)

	// Inject a stray start marker mid-frame (well after the real start,
	// before the real end) followed by a second complete, valid frame.
	corrupted := append([]byte{}, frame[:3]...)
	corrupted = append(corrupted, wire.StartMarker)
	corrupted = append(corrupted, frame...)

	var p wire.Parser
	got := feedAll(t, &p, corrupted)
	require.Len(t, got, 1)
	require.Equal(t, pkt, got[0])
}

func TestCodec_UnknownKindDropped(t *testing.T) {
	frame := wire.Frame(uint8(wire.KindNull)+3, []byte{1, 2, 3})
	var p wire.Parser
	got := feedAll(t, &p, frame)
	require.Empty(t, got)
}

func TestCodec_OversizedBodyDropped(t *testing.T) {
	frame := wire.Frame(uint8(wire.KindDatagram), make([]byte, wire.MaxBody+1))
	var p wire.Parser
	got := feedAll(t, &p, frame)
	require.Empty(t, got)
}
