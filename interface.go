package picolan

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/supercamel/picolan/addrfield"
	"github.com/supercamel/picolan/internal/metrics"
	"github.com/supercamel/picolan/ring"
	"github.com/supercamel/picolan/wire"
)

// maxBoundSockets is the per-Interface port table size, spec.md §3.
const maxBoundSockets = 16

// pollInterval paces the busy-wait loops inside every blocking operation,
// per spec.md §5: "no more than a few milliseconds", kept at a single
// millisecond so Read() stays responsive.
const pollInterval = time.Millisecond

// Option configures an Interface at construction time.
type Option func(*Interface)

// WithClock overrides the default real clock, e.g. with
// clockwork.NewFakeClock() in tests.
func WithClock(c Clock) Option {
	return func(i *Interface) { i.clock = c }
}

// WithLogger overrides the default slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(i *Interface) { i.log = log }
}

// WithMetricsRegistry registers the Interface's Prometheus collectors
// against reg instead of leaving them unregistered.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(i *Interface) { i.metricsReg = reg }
}

// Interface multiplexes one ByteLink among bound sockets: it owns the wire
// Codec, routes inbound packets by kind and address, and issues the
// address-discovery and ping requests from spec.md §4.2.
type Interface struct {
	link    ByteLink
	address uint8

	addrField      addrfield.Field
	addrListRecved bool

	pingEchoSeen    bool
	pingEchoPayload uint16

	sockets *ring.Bounded[socketHandler]
	parser  wire.Parser

	clock Clock
	log   *slog.Logger

	metricsReg           prometheus.Registerer
	metrics              *metrics.Set
	lastChecksumFailures uint64
}

// NewInterface builds an Interface over link. By default its address is
// zero (must be set with SetAddress before use on a real network), it
// uses the real clock, and the default slog logger.
func NewInterface(link ByteLink, opts ...Option) *Interface {
	i := &Interface{
		link:    link,
		sockets: ring.NewBounded[socketHandler](maxBoundSockets),
		clock:   NewRealClock(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.metrics = metrics.New(i.metricsReg, nil)
	return i
}

// SetAddress sets this interface's node address. 0xFE and 0xFF are
// reserved (multicast/broadcast) and must not be used as an end node's
// own address (spec.md §3).
func (i *Interface) SetAddress(addr uint8) error {
	if addr == wire.MulticastAddr || addr == wire.BroadcastAddr {
		return fmt.Errorf("picolan: address 0x%02X is reserved", addr)
	}
	i.address = addr
	return nil
}

// GetAddress returns this interface's node address.
func (i *Interface) GetAddress() uint8 { return i.address }

// LookupAddr reports whether addr is present in the locally cached
// address set, without performing any I/O. Use GetAddrList to refresh
// that cache first.
func (i *Interface) LookupAddr(addr uint8) bool {
	return i.addrField.Test(addr)
}

// Bind attaches h to this interface. It fails if another socket already
// holds h's port, or if the bound-socket table is full.
func (i *Interface) Bind(h socketHandler) bool {
	if _, found := i.sockets.Find(func(s socketHandler) bool { return s.Port() == h.Port() }); found {
		return false
	}
	if !i.sockets.Append(h) {
		return false
	}
	h.bindIface(i, h)
	i.log.Debug("picolan: socket bound", "port", h.Port())
	return true
}

// Unbind detaches h from this interface, if bound.
func (i *Interface) Unbind(h socketHandler) {
	if i.sockets.Remove(func(s socketHandler) bool { return s.Port() == h.Port() }) {
		h.unbindIface()
		i.log.Debug("picolan: socket unbound", "port", h.Port())
	}
}

// Flush pushes any queued outbound bytes onto the link.
func (i *Interface) Flush() error { return i.link.Flush() }

// Read drains whatever bytes are currently available on the link through
// the wire parser, dispatching every packet it completes. It is the one
// non-blocking "tick"; every other blocking operation below is a loop
// around this plus a timeout check.
func (i *Interface) Read() {
	for i.link.Available() {
		b, err := i.link.Get()
		if err != nil {
			i.log.Debug("picolan: link read error", "error", err)
			return
		}
		if pkt, ok := i.parser.Feed(b); ok {
			i.metrics.FramesParsed.Inc()
			i.dispatch(pkt)
		}
	}
	if f := i.parser.ChecksumFailures(); f > 0 {
		// Best-effort counter sync; wire.Parser tracks its own lifetime
		// total, so only the delta since last observation is new. With a
		// single Interface owning one Parser for its whole life, re-adding
		// the running total would double count, so track it locally.
		i.syncChecksumMetric(f)
	}
}

func (i *Interface) syncChecksumMetric(total uint64) {
	if total <= i.lastChecksumFailures {
		return
	}
	i.metrics.ChecksumFailures.Add(float64(total - i.lastChecksumFailures))
	i.lastChecksumFailures = total
}

func (i *Interface) dispatch(pkt wire.Packet) {
	switch pkt.Kind {
	case wire.KindGetAddrList:
		var af addrfield.Field
		af.Set(i.address)
		i.send(wire.Packet{Kind: wire.KindAddrField, AddrField: wire.AddrFieldPacket{AF: af}})

	case wire.KindAddrField:
		i.addrField = pkt.AddrField.AF
		i.addrListRecved = true

	case wire.KindPing:
		i.send(wire.Packet{Kind: wire.KindPingEcho, PingEcho: wire.PingPacket{
			TTL: pkt.Ping.TTL, Src: i.address, Dst: pkt.Ping.Src, Payload: pkt.Ping.Payload,
		}})

	case wire.KindPingEcho:
		i.pingEchoPayload = pkt.PingEcho.Payload
		i.pingEchoSeen = true

	case wire.KindDatagram:
		d := pkt.Datagram
		if d.Dst != i.address && d.Dst != wire.BroadcastAddr && d.Dst != wire.MulticastAddr {
			return
		}
		i.sockets.Each(func(h socketHandler) {
			if h.Port() != d.Port {
				return
			}
			i.metrics.PacketsRouted.Inc()
			h.onData(d.Src, d.Payload)
		})

	case wire.KindSubscribe:
		// Ignored at endpoints; only a switch/relay acts on it.
	}
}

// send marshals and transmits pkt, flushing the link afterwards.
func (i *Interface) send(pkt wire.Packet) error {
	frame, err := wire.Marshal(pkt)
	if err != nil {
		return fmt.Errorf("picolan: marshal: %w", err)
	}
	for _, b := range frame {
		if err := i.link.Put(b); err != nil {
			return fmt.Errorf("picolan: link write: %w", err)
		}
	}
	return i.link.Flush()
}

// pump is Socket.Read's hook into the Interface's one non-blocking tick.
func (i *Interface) pump() { i.Read() }

func (i *Interface) deadline(timeout time.Duration) (start time.Time, expired func() bool) {
	start = i.clock.Now()
	return start, func() bool { return i.clock.Now().Sub(start) >= timeout }
}

// GetAddrList issues a GetAddrList request and busy-drains the link until
// a reply updates the local address cache or timeout elapses.
func (i *Interface) GetAddrList(timeout time.Duration) error {
	i.addrListRecved = false
	if err := i.send(wire.Packet{Kind: wire.KindGetAddrList, GetAddrList: wire.GetAddrListPacket{TTL: wire.DefaultTTL}}); err != nil {
		return err
	}
	_, expired := i.deadline(timeout)
	for !i.addrListRecved {
		i.Read()
		if i.addrListRecved {
			break
		}
		if expired() {
			return ErrTimeout
		}
		i.clock.Sleep(pollInterval)
	}
	return nil
}

// Ping sends a Ping to dst and waits for the matching PingEcho, returning
// the round-trip time.
func (i *Interface) Ping(dst uint8, timeout time.Duration) (time.Duration, error) {
	payload := uint16(i.clock.Now().UnixMilli() & 0xFFFF)
	i.pingEchoSeen = false
	if err := i.send(wire.Packet{Kind: wire.KindPing, Ping: wire.PingPacket{
		TTL: wire.DefaultTTL, Src: i.address, Dst: dst, Payload: payload,
	}}); err != nil {
		return 0, err
	}
	start, expired := i.deadline(timeout)
	for {
		i.Read()
		if i.pingEchoSeen && i.pingEchoPayload == payload {
			return i.clock.Now().Sub(start), nil
		}
		if expired() {
			return 0, ErrTimeout
		}
		i.clock.Sleep(pollInterval)
	}
}
