package picolan

import (
	"log/slog"

	"github.com/supercamel/picolan/wire"
)

// datagramChunkSize is the most payload bytes a single Datagram frame can
// carry, spec.md §4.3: Write splits anything larger into this many bytes
// per outbound frame.
const datagramChunkSize = wire.DatagramPayloadCap

// Datagram is PicoLAN's unreliable, unordered socket kind: Write fires one
// or more fire-and-forget frames, Read drains whatever has arrived in the
// inbound ring buffer so far.
type Datagram struct {
	Socket
}

// NewDatagram creates a Datagram bound to no interface yet; call
// iface.Bind(d) to attach it. bufCap is the inbound ring buffer size; 0
// selects the default.
func NewDatagram(port uint8, bufCap int, opts ...SocketOption) *Datagram {
	d := &Datagram{}
	d.Socket = newSocket(port, bufCap, nil, nil)
	for _, opt := range opts {
		opt(&d.Socket)
	}
	return d
}

// SocketOption configures a Socket at construction time.
type SocketOption func(*Socket)

// WithSocketClock overrides a socket's clock, e.g. for deterministic tests.
func WithSocketClock(c Clock) SocketOption {
	return func(s *Socket) { s.clock = c }
}

// WithSocketLogger overrides a socket's logger.
func WithSocketLogger(log *slog.Logger) SocketOption {
	return func(s *Socket) { s.log = log }
}

// onData appends an inbound chunk to the ring buffer and records its
// sender as the last-seen remote, per spec.md §4.3.
func (d *Datagram) onData(remote uint8, payload []byte) {
	d.remote = remote
	d.ringbuf.PushAll(payload)
}

// Write sends payload to (dst, dstPort), splitting it into as many
// DatagramPayloadCap chunks as necessary. It returns the number of bytes
// actually sent, which is len(payload) unless a chunk's send fails; then it
// returns the bytes of the chunks sent before it, with that error.
func (d *Datagram) Write(dst, dstPort uint8, payload []byte) (int, error) {
	if d.iface == nil {
		return 0, ErrBadState
	}
	sent := 0
	for sent < len(payload) {
		end := sent + datagramChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[sent:end]
		pkt := wire.Packet{Kind: wire.KindDatagram, Datagram: wire.DatagramPacket{
			TTL: wire.DefaultTTL, Src: d.iface.GetAddress(), Dst: dst, Port: dstPort, Payload: chunk,
		}}
		if err := d.iface.send(pkt); err != nil {
			return sent, err
		}
		sent = end
	}
	return sent, nil
}

// Subscribe asks multicast-aware switches on the link to forward traffic
// for addr to this socket's port, per spec.md §4.4.
func (d *Datagram) Subscribe(addr uint8) error {
	if d.iface == nil {
		return ErrBadState
	}
	return d.iface.send(wire.Packet{Kind: wire.KindSubscribe, Subscribe: wire.SubscribePacket{
		TTL: wire.DefaultTTL, Port: d.port, Addr: addr, Subscribe: 1,
	}})
}

// Unsubscribe cancels a prior Subscribe.
func (d *Datagram) Unsubscribe(addr uint8) error {
	if d.iface == nil {
		return ErrBadState
	}
	return d.iface.send(wire.Packet{Kind: wire.KindSubscribe, Subscribe: wire.SubscribePacket{
		TTL: wire.DefaultTTL, Port: d.port, Addr: addr, Subscribe: 0,
	}})
}
