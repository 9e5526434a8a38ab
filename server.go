package picolan

import "time"

// Server is the listening half of a SocketStream handshake (spec.md
// §4.4): Listen moves CLOSED → LISTENING, Accept drives
// SYN_RECVED → PENDING → OPEN once a peer's SYN has arrived.
type Server struct {
	SocketStream
}

// NewServer creates a Server bound to no interface yet; call
// iface.Bind(s) to attach it.
func NewServer(port uint8, bufCap int, opts ...SocketOption) *Server {
	return &Server{SocketStream: newSocketStream(port, bufCap, opts...)}
}

// Listen transitions the stream from CLOSED to LISTENING, where its
// onData will accept a peer's SYN and move to SYN_RECVED.
func (s *Server) Listen() error {
	if s.state != stateClosed {
		return ErrBadState
	}
	s.state = stateListening
	return nil
}

// ConnectionPending reports whether a peer's SYN has arrived and Accept is
// now legal to call.
func (s *Server) ConnectionPending() bool { return s.state == stateSynRecved }

// Accept may only be called once a SYN has arrived (state SYN_RECVED). It
// sends ACK+SYN, enters PENDING, and blocks until the client's final ACK
// arrives (→ OPEN) or timeout elapses (→ CLOSED, ErrTimeout).
func (s *Server) Accept(timeout time.Duration) error {
	if s.state != stateSynRecved {
		return ErrBadState
	}
	if s.iface == nil {
		return ErrBadState
	}

	ackSeq := s.remoteSequence
	synSeq := s.sequenceNumber
	s.sequenceNumber++

	if err := s.sendStreamMsg(s.remote, s.remotePort, streamACK(ackSeq)); err != nil {
		return err
	}
	if err := s.sendStreamMsg(s.remote, s.remotePort, streamSYN(synSeq, s.port)); err != nil {
		return err
	}
	s.state = statePending

	start := s.clock.Now()
	for s.lastRecvedAck != synSeq {
		s.iface.pump()
		if s.lastRecvedAck == synSeq {
			break
		}
		if s.clock.Now().Sub(start) >= timeout {
			s.state = stateClosed
			return ErrTimeout
		}
		s.clock.Sleep(pollInterval)
	}
	// Rebase last_recved_ack onto sequence_number now that the handshake's
	// own ACK bookkeeping is done, so the first data burst's "nothing
	// advanced" check starts from a consistent baseline.
	s.lastRecvedAck = s.sequenceNumber
	s.state = stateOpen
	return nil
}
