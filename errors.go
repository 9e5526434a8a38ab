package picolan

import "errors"

// Code mirrors the legacy integer error contract from spec.md §6, for
// callers (e.g. a future C binding) that need the numeric form instead of
// a Go sentinel error.
type Code int

const (
	CodeNone             Code = 0
	CodeTimeout          Code = -1
	CodeBadState         Code = -2
	CodeAckOutOfSequence Code = -3
)

// Sentinel errors for the three local-precondition failures named in
// spec.md §7. Wrap with fmt.Errorf("...: %w", Err...) at call sites that
// have more context to add.
var (
	// ErrTimeout is returned when a blocking operation exhausts its time
	// budget without making progress.
	ErrTimeout = errors.New("picolan: timeout")
	// ErrBadState is returned when an operation is invoked in an
	// incompatible connection state.
	ErrBadState = errors.New("picolan: bad state")
	// ErrAckOutOfSequence is returned when a peer's cumulative ACK falls
	// outside the outstanding burst window.
	ErrAckOutOfSequence = errors.New("picolan: ack out of sequence")
)

// CodeOf maps err to its legacy numeric code. It returns CodeNone for nil
// or unrecognized errors.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeNone
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrBadState):
		return CodeBadState
	case errors.Is(err, ErrAckOutOfSequence):
		return CodeAckOutOfSequence
	default:
		return CodeNone
	}
}
