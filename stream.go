package picolan

import (
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/supercamel/picolan/wire"
)

// streamBytesPerFrame and streamBurst mirror the wire package's frame
// budget and burst-window constants (spec.md §4.4).
const (
	streamBytesPerFrame = wire.StreamBytesPerFrame
	streamBurst         = wire.StreamBurst
	maxDeadBursts       = 3
	maxZeroReads        = 3
)

type streamState uint8

const (
	stateClosed streamState = iota
	stateListening
	stateSynSent
	stateSynRecved
	statePending
	stateOpen
)

func (s streamState) String() string {
	switch s {
	case stateClosed:
		return "CLOSED"
	case stateListening:
		return "LISTENING"
	case stateSynSent:
		return "SYN_SENT"
	case stateSynRecved:
		return "SYN_RECVED"
	case statePending:
		return "PENDING"
	case stateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// SocketStream is PicoLAN's reliable, ordered byte stream: a SYN/ACK/DATA/
// CLOSE handshake and teardown, burst-paced sends with a cumulative ACK,
// and modular sequence-number bookkeeping. Client and Server each embed a
// SocketStream and add their half of connection establishment.
type SocketStream struct {
	Socket

	state          streamState
	sequenceNumber uint8
	remoteSequence uint8
	remotePort     uint8
	lastRecvedAck  uint8
	zeroReadCount  uint8
}

func newSocketStream(port uint8, bufCap int, opts ...SocketOption) SocketStream {
	s := SocketStream{
		Socket:         newSocket(port, bufCap, nil, nil),
		state:          stateClosed,
		sequenceNumber: 1,
	}
	for _, opt := range opts {
		opt(&s.Socket)
	}
	return s
}

// Connected reports whether the stream has an established, open
// connection.
func (s *SocketStream) Connected() bool { return s.state == stateOpen }

// Closed reports whether the stream has no live connection.
func (s *SocketStream) Closed() bool { return s.state == stateClosed }

// GetRemotePort returns the peer's bound port, valid once a connection has
// been established.
func (s *SocketStream) GetRemotePort() uint8 { return s.remotePort }

func streamSYN(seq, srcPort uint8) wire.StreamMsg {
	return wire.StreamMsg{Kind: wire.StreamMsgSYN, Seq: seq, SrcPort: srcPort}
}

func streamACK(seq uint8) wire.StreamMsg {
	return wire.StreamMsg{Kind: wire.StreamMsgACK, Seq: seq}
}

func (s *SocketStream) sendStreamMsg(dst, dstPort uint8, msg wire.StreamMsg) error {
	payload, err := wire.MarshalStreamMsg(msg)
	if err != nil {
		return err
	}
	return s.iface.send(wire.Packet{Kind: wire.KindDatagram, Datagram: wire.DatagramPacket{
		TTL: wire.DefaultTTL, Src: s.iface.GetAddress(), Dst: dst, Port: dstPort, Payload: payload,
	}})
}

// onData decodes an inbound stream sub-message and advances the
// connection state machine, per spec.md §4.4. Messages from a peer other
// than the bound remote are ignored while OPEN.
func (s *SocketStream) onData(remote uint8, payload []byte) {
	if s.state == stateOpen && remote != s.remote {
		return
	}
	msg, err := wire.UnmarshalStreamMsg(payload)
	if err != nil {
		s.log.Debug("picolan: malformed stream message", "error", err)
		return
	}

	switch msg.Kind {
	case wire.StreamMsgSYN:
		switch s.state {
		case stateListening:
			s.remote = remote
			s.remotePort = msg.SrcPort
			s.remoteSequence = msg.Seq
			s.state = stateSynRecved
		case stateSynSent:
			if remote == s.remote {
				s.remoteSequence = msg.Seq
				s.state = stateSynRecved
			}
		}

	case wire.StreamMsgACK:
		s.lastRecvedAck = msg.Seq

	case wire.StreamMsgDATA:
		if s.state != stateOpen {
			return
		}
		if msg.Seq == s.remoteSequence+1 {
			s.remoteSequence = msg.Seq
			s.ringbuf.PushAll(msg.Bytes)
		}
		if err := s.sendStreamMsg(s.remote, s.remotePort, wire.StreamMsg{
			Kind: wire.StreamMsgACK, Seq: s.remoteSequence,
		}); err != nil {
			s.log.Debug("picolan: ack send failed", "error", err)
		}

	case wire.StreamMsgCLOSE:
		s.state = stateClosed
	}
}

// disconnect idempotently tears the connection down, best-effort notifying
// the remote with a CLOSE unless the stream was only ever LISTENING.
func (s *SocketStream) disconnect() {
	if s.state == stateClosed {
		return
	}
	prior := s.state
	s.state = stateClosed
	if prior != stateListening {
		if err := s.sendStreamMsg(s.remote, s.remotePort, wire.StreamMsg{
			Kind: wire.StreamMsgCLOSE, Seq: s.sequenceNumber,
		}); err != nil {
			s.log.Debug("picolan: close send failed", "error", err)
		}
	}
}

// Disconnect is the exported form of disconnect.
func (s *SocketStream) Disconnect() { s.disconnect() }

// Read reads up to len(p) bytes, valid only while OPEN. Three consecutive
// zero-byte reads (a timed-out, empty read) trigger an opportunistic
// disconnect, per spec.md §4.4's "Read" subsection.
func (s *SocketStream) Read(p []byte) (int, error) {
	if s.state != stateOpen {
		return 0, ErrBadState
	}
	n := s.Socket.Read(p)
	if n == 0 {
		s.zeroReadCount++
		if s.zeroReadCount >= maxZeroReads {
			s.disconnect()
			s.zeroReadCount = 0
		}
	} else {
		s.zeroReadCount = 0
	}
	return n, nil
}

type sentFrame struct {
	seq uint8
	end int
}

// newAckBackoff paces the wait for a burst's cumulative ACK: it starts at
// pollInterval and backs off exponentially up to the stream's own timeout,
// so a slow peer isn't polled as aggressively as a fast one. It never
// changes the 3-strike dead-burst count or the burst size, only how often
// Write rechecks lastRecvedAck between pumps.
func newAckBackoff(timeout time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = pollInterval
	bo.MaxInterval = timeout
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// Write sends data over an OPEN stream in bursts of up to streamBurst
// frames, retrying a burst up to twice on dead air and accepting partial
// progress from a cumulative ACK, per spec.md §4.4's sender-side
// algorithm.
func (s *SocketStream) Write(data []byte) (int, error) {
	if s.state != stateOpen {
		return 0, ErrBadState
	}
	if s.iface == nil {
		return 0, ErrBadState
	}

	cursor := 0
	deadBursts := 0
	for cursor < len(data) {
		burstStart := cursor
		remaining := len(data) - cursor
		need := (remaining + streamBytesPerFrame - 1) / streamBytesPerFrame
		burstSize := streamBurst
		if need < burstSize {
			burstSize = need
		}

		frames := make([]sentFrame, 0, burstSize)
		pos := cursor
		for i := 0; i < burstSize; i++ {
			end := pos + streamBytesPerFrame
			if end > len(data) {
				end = len(data)
			}
			seq := s.sequenceNumber + uint8(i+1)
			if err := s.sendStreamMsg(s.remote, s.remotePort, wire.StreamMsg{
				Kind: wire.StreamMsgDATA, Seq: seq, Bytes: data[pos:end],
			}); err != nil {
				return cursor, err
			}
			frames = append(frames, sentFrame{seq: seq, end: end})
			pos = end
			s.iface.pump()
		}

		finalSeq := frames[len(frames)-1].seq
		start := s.clock.Now()
		timeout := s.Timeout()
		bo := newAckBackoff(timeout)
		for s.lastRecvedAck != finalSeq {
			s.iface.pump()
			if s.lastRecvedAck == finalSeq {
				break
			}
			if s.clock.Now().Sub(start) >= timeout {
				break
			}
			s.clock.Sleep(bo.NextBackOff())
		}

		if s.lastRecvedAck == s.sequenceNumber {
			deadBursts++
			if deadBursts >= maxDeadBursts {
				s.iface.metrics.DeadPeers.Inc()
				return cursor, ErrTimeout
			}
			s.iface.metrics.BurstsRetried.Inc()
			cursor = burstStart
			continue
		}

		deadBursts = 0
		matched := -1
		for idx, f := range frames {
			if f.seq == s.lastRecvedAck {
				matched = idx
				break
			}
		}
		if matched < 0 {
			return cursor, ErrAckOutOfSequence
		}
		cursor = frames[matched].end
		s.sequenceNumber += uint8(matched + 1)
	}
	return cursor, nil
}
