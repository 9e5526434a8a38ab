package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/supercamel/picolan/addrfield"
)

// GetAddrListPacket requests the responder's AddrField (§3, tag 1).
type GetAddrListPacket struct {
	TTL uint8
}

// AddrFieldPacket carries a node's known AddressField (§3, tag 2, v2 schema).
type AddrFieldPacket struct {
	AF addrfield.Field
}

// PingPacket is both the Ping (tag 3) and PingEcho (tag 4) body shape.
type PingPacket struct {
	TTL     uint8
	Src     uint8
	Dst     uint8
	Payload uint16
}

// DatagramPacket carries an unreliable chunk of application bytes (tag 5).
type DatagramPacket struct {
	TTL     uint8
	Src     uint8
	Dst     uint8
	Port    uint8
	Payload []byte // length-prefixed BoundedList<u8, DatagramPayloadCap>
}

// SubscribePacket asks multicast-aware switches to (un)subscribe (tag 6).
type SubscribePacket struct {
	TTL       uint8
	Port      uint8
	Addr      uint8
	Subscribe uint8
}

// Packet is a tagged union over the six wire variants. Only the field
// matching Kind is meaningful.
type Packet struct {
	Kind        Kind
	GetAddrList GetAddrListPacket
	AddrField   AddrFieldPacket
	Ping        PingPacket
	PingEcho    PingPacket
	Datagram    DatagramPacket
	Subscribe   SubscribePacket
}

// body returns the id byte and the marshalled body bytes (excluding
// id/size/checksum/markers) for p.
func body(p Packet) (id uint8, b []byte, err error) {
	switch p.Kind {
	case KindGetAddrList:
		return uint8(KindGetAddrList), []byte{p.GetAddrList.TTL}, nil

	case KindAddrField:
		raw := p.AddrField.AF.Bytes()
		return uint8(KindAddrField), raw[:], nil

	case KindPing:
		return uint8(KindPing), marshalPing(p.Ping), nil

	case KindPingEcho:
		return uint8(KindPingEcho), marshalPing(p.PingEcho), nil

	case KindDatagram:
		if len(p.Datagram.Payload) > DatagramPayloadCap {
			return 0, nil, fmt.Errorf("%w: datagram payload %d > %d", ErrPayloadTooLarge, len(p.Datagram.Payload), DatagramPayloadCap)
		}
		buf := make([]byte, 0, 5+len(p.Datagram.Payload))
		buf = append(buf, p.Datagram.TTL, p.Datagram.Src, p.Datagram.Dst, p.Datagram.Port, uint8(len(p.Datagram.Payload)))
		buf = append(buf, p.Datagram.Payload...)
		return uint8(KindDatagram), buf, nil

	case KindSubscribe:
		return uint8(KindSubscribe), []byte{p.Subscribe.TTL, p.Subscribe.Port, p.Subscribe.Addr, p.Subscribe.Subscribe}, nil

	default:
		return 0, nil, fmt.Errorf("wire: cannot marshal kind %v", p.Kind)
	}
}

func marshalPing(pp PingPacket) []byte {
	buf := make([]byte, 5)
	buf[0] = pp.TTL
	buf[1] = pp.Src
	buf[2] = pp.Dst
	binary.LittleEndian.PutUint16(buf[3:5], pp.Payload)
	return buf
}

func unmarshalPing(b []byte) (PingPacket, error) {
	if len(b) != 5 {
		return PingPacket{}, fmt.Errorf("wire: ping body must be 5 bytes, got %d", len(b))
	}
	return PingPacket{
		TTL:     b[0],
		Src:     b[1],
		Dst:     b[2],
		Payload: binary.LittleEndian.Uint16(b[3:5]),
	}, nil
}

// Decode reconstructs a Packet from a validated (id, body) pair as
// delivered by the parser after a successful checksum match.
func Decode(id uint8, b []byte) (Packet, error) {
	switch Kind(id) {
	case KindGetAddrList:
		if len(b) != 1 {
			return Packet{}, fmt.Errorf("wire: GetAddrList body must be 1 byte, got %d", len(b))
		}
		return Packet{Kind: KindGetAddrList, GetAddrList: GetAddrListPacket{TTL: b[0]}}, nil

	case KindAddrField:
		if len(b) != addrfield.Size {
			return Packet{}, fmt.Errorf("wire: AddrField body must be %d bytes, got %d", addrfield.Size, len(b))
		}
		var raw [addrfield.Size]byte
		copy(raw[:], b)
		return Packet{Kind: KindAddrField, AddrField: AddrFieldPacket{AF: addrfield.FromBytes(raw)}}, nil

	case KindPing:
		pp, err := unmarshalPing(b)
		if err != nil {
			return Packet{}, err
		}
		return Packet{Kind: KindPing, Ping: pp}, nil

	case KindPingEcho:
		pp, err := unmarshalPing(b)
		if err != nil {
			return Packet{}, err
		}
		return Packet{Kind: KindPingEcho, PingEcho: pp}, nil

	case KindDatagram:
		if len(b) < 5 {
			return Packet{}, fmt.Errorf("wire: Datagram body too short: %d bytes", len(b))
		}
		plen := int(b[4])
		if len(b) != 5+plen {
			return Packet{}, fmt.Errorf("wire: Datagram length mismatch: declared %d, have %d", plen, len(b)-5)
		}
		payload := make([]byte, plen)
		copy(payload, b[5:])
		return Packet{Kind: KindDatagram, Datagram: DatagramPacket{
			TTL: b[0], Src: b[1], Dst: b[2], Port: b[3], Payload: payload,
		}}, nil

	case KindSubscribe:
		if len(b) != 4 {
			return Packet{}, fmt.Errorf("wire: Subscribe body must be 4 bytes, got %d", len(b))
		}
		return Packet{Kind: KindSubscribe, Subscribe: SubscribePacket{
			TTL: b[0], Port: b[1], Addr: b[2], Subscribe: b[3],
		}}, nil

	default:
		return Packet{}, ErrUnknownKind
	}
}
