package wire

import "errors"

// ErrUnknownKind is returned by Decode for a packet id that is structurally
// well-formed but not one of the known Kind values.
var ErrUnknownKind = errors.New("wire: unknown packet kind")

// ErrPayloadTooLarge is returned when a Datagram or stream-message payload
// exceeds its wire budget.
var ErrPayloadTooLarge = errors.New("wire: payload too large")
