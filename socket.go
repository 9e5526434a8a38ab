package picolan

import (
	"log/slog"
	"time"

	"github.com/supercamel/picolan/ring"
)

// defaultTimeoutMs is Socket's default read/connect timeout, spec.md §3.
const defaultTimeoutMs = 1000

// defaultRingBufferCap is the inbound ring buffer size a Socket gets when
// none is given explicitly.
const defaultRingBufferCap = 512

// socketHandler is what an Interface needs from any bound socket kind to
// route to it and manage its lifetime. Datagram and SocketStream each
// implement onData; Client and Server inherit SocketStream's onData by
// embedding it. This replaces the source's virtual on_data with an
// explicit, object-safe interface (see DESIGN.md).
type socketHandler interface {
	Port() uint8
	onData(remote uint8, payload []byte)
	bindIface(iface *Interface, self socketHandler)
	unbindIface()
}

// Socket is the common state every PicoLAN socket kind shares: a port, the
// last-seen remote address, a read timeout, and an inbound byte ring
// buffer. It is embedded by Datagram and SocketStream, not used bare.
type Socket struct {
	port      uint8
	remote    uint8
	timeoutMs uint16
	ringbuf   *ring.Bytes
	iface     *Interface
	self      socketHandler
	clock     Clock
	log       *slog.Logger
}

func newSocket(port uint8, bufCap int, clock Clock, log *slog.Logger) Socket {
	if bufCap <= 0 {
		bufCap = defaultRingBufferCap
	}
	if clock == nil {
		clock = NewRealClock()
	}
	if log == nil {
		log = slog.Default()
	}
	return Socket{
		port:      port,
		timeoutMs: defaultTimeoutMs,
		ringbuf:   ring.NewBytes(bufCap),
		clock:     clock,
		log:       log,
	}
}

// Port returns the socket's bound port.
func (s *Socket) Port() uint8 { return s.port }

// GetRemote returns the address of the peer this socket last received
// from.
func (s *Socket) GetRemote() uint8 { return s.remote }

// SetTimeout changes the default timeout used by blocking operations on
// this socket.
func (s *Socket) SetTimeout(ms uint16) { s.timeoutMs = ms }

// Timeout returns the socket's current timeout as a time.Duration.
func (s *Socket) Timeout() time.Duration { return time.Duration(s.timeoutMs) * time.Millisecond }

// Destroy unbinds the socket from its Interface, if bound. It is safe to
// call more than once.
func (s *Socket) Destroy() {
	if s.iface != nil {
		s.iface.Unbind(s.self)
	}
}

func (s *Socket) bindIface(iface *Interface, self socketHandler) {
	s.iface = iface
	s.self = self
}
func (s *Socket) unbindIface() { s.iface = nil }

// Read reads up to len(p) bytes: it pops buffered bytes immediately, and
// otherwise drains the link and retries until timeoutMs has elapsed since
// the call started. It returns the number of bytes actually read, which
// is 0 if nothing arrived before the deadline — this is not an error.
func (s *Socket) Read(p []byte) int {
	start := s.clock.Now()
	timeout := time.Duration(s.timeoutMs) * time.Millisecond
	n := 0
	for n < len(p) {
		b, ok := s.ringbuf.Pop()
		if ok {
			p[n] = b
			n++
			continue
		}
		if s.iface != nil {
			s.iface.pump()
		}
		b, ok = s.ringbuf.Pop()
		if ok {
			p[n] = b
			n++
			continue
		}
		if s.clock.Now().Sub(start) >= timeout {
			return n
		}
		s.clock.Sleep(time.Millisecond)
	}
	return n
}
