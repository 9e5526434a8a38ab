package wire

import "fmt"

// StreamMsgKind tags the SYN/ACK/DATA/CLOSE sub-protocol carried inside a
// Datagram payload between two SocketStream peers (§3).
type StreamMsgKind uint8

const (
	StreamMsgACK   StreamMsgKind = 0
	StreamMsgSYN   StreamMsgKind = 1
	StreamMsgDATA  StreamMsgKind = 2
	StreamMsgCLOSE StreamMsgKind = 3
)

func (k StreamMsgKind) String() string {
	switch k {
	case StreamMsgACK:
		return "ACK"
	case StreamMsgSYN:
		return "SYN"
	case StreamMsgDATA:
		return "DATA"
	case StreamMsgCLOSE:
		return "CLOSE"
	default:
		return "Unknown"
	}
}

// StreamMsg is the decoded form of a stream sub-message. Only the fields
// relevant to Kind are meaningful: Seq for all four, SrcPort for SYN,
// Bytes for DATA.
type StreamMsg struct {
	Kind    StreamMsgKind
	Seq     uint8
	SrcPort uint8
	Bytes   []byte
}

// MarshalStreamMsg encodes m as a Datagram payload.
func MarshalStreamMsg(m StreamMsg) ([]byte, error) {
	switch m.Kind {
	case StreamMsgACK, StreamMsgCLOSE:
		return []byte{uint8(m.Kind), m.Seq}, nil
	case StreamMsgSYN:
		return []byte{uint8(m.Kind), m.Seq, m.SrcPort}, nil
	case StreamMsgDATA:
		if len(m.Bytes) > StreamBytesPerFrame {
			return nil, fmt.Errorf("%w: stream data frame %d > %d", ErrPayloadTooLarge, len(m.Bytes), StreamBytesPerFrame)
		}
		buf := make([]byte, 0, 2+len(m.Bytes))
		buf = append(buf, uint8(m.Kind), m.Seq)
		buf = append(buf, m.Bytes...)
		return buf, nil
	default:
		return nil, fmt.Errorf("wire: unknown stream message kind %d", m.Kind)
	}
}

// UnmarshalStreamMsg decodes a Datagram payload as a stream sub-message.
func UnmarshalStreamMsg(b []byte) (StreamMsg, error) {
	if len(b) < 1 {
		return StreamMsg{}, fmt.Errorf("wire: stream message too short")
	}
	kind := StreamMsgKind(b[0])
	switch kind {
	case StreamMsgACK, StreamMsgCLOSE:
		if len(b) != 2 {
			return StreamMsg{}, fmt.Errorf("wire: %s message must be 2 bytes, got %d", kind, len(b))
		}
		return StreamMsg{Kind: kind, Seq: b[1]}, nil
	case StreamMsgSYN:
		if len(b) != 3 {
			return StreamMsg{}, fmt.Errorf("wire: SYN message must be 3 bytes, got %d", len(b))
		}
		return StreamMsg{Kind: kind, Seq: b[1], SrcPort: b[2]}, nil
	case StreamMsgDATA:
		if len(b) < 2 {
			return StreamMsg{}, fmt.Errorf("wire: DATA message too short")
		}
		data := make([]byte, len(b)-2)
		copy(data, b[2:])
		return StreamMsg{Kind: kind, Seq: b[1], Bytes: data}, nil
	default:
		return StreamMsg{}, fmt.Errorf("wire: unknown stream message kind %d", kind)
	}
}
