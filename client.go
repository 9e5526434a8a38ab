package picolan

import "time"

// Client is the connecting half of a SocketStream handshake (spec.md
// §4.4): Connect drives CLOSED → SYN_SENT → SYN_RECVED → OPEN.
type Client struct {
	SocketStream
}

// NewClient creates a Client bound to no interface yet; call
// iface.Bind(c) to attach it.
func NewClient(port uint8, bufCap int, opts ...SocketOption) *Client {
	c := &Client{SocketStream: newSocketStream(port, bufCap, opts...)}
	return c
}

// Connect performs the client side of the handshake against a peer
// already LISTENING on (dst, port). It requires the stream to be CLOSED
// and blocks until OPEN or timeout.
func (c *Client) Connect(dst, port uint8, timeout time.Duration) error {
	if c.state != stateClosed {
		return ErrBadState
	}
	if c.iface == nil {
		return ErrBadState
	}

	c.remote = dst
	c.remotePort = port
	seq := c.sequenceNumber
	c.sequenceNumber++
	c.state = stateSynSent
	if err := c.sendStreamMsg(dst, port, streamSYN(seq, c.port)); err != nil {
		c.state = stateClosed
		return err
	}

	start := c.clock.Now()
	for c.state == stateSynSent {
		c.iface.pump()
		if c.state != stateSynSent {
			break
		}
		if c.clock.Now().Sub(start) >= timeout {
			c.state = stateClosed
			return ErrTimeout
		}
		c.clock.Sleep(pollInterval)
	}

	// state == stateSynRecved: acknowledge the peer's SYN and open.
	if err := c.sendStreamMsg(c.remote, c.remotePort, streamACK(c.remoteSequence)); err != nil {
		c.state = stateClosed
		return err
	}
	// The handshake ACKs share last_recved_ack's bookkeeping with data
	// transfer; rebase it to sequence_number so the first burst's
	// "nothing advanced" dead-burst check isn't tripped by handshake
	// traffic.
	c.lastRecvedAck = c.sequenceNumber
	c.state = stateOpen
	return nil
}
