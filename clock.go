package picolan

import "github.com/jonboulle/clockwork"

// Clock is PicoLAN's monotonic millisecond clock and blocking sleep,
// spec.md §6. It is exactly clockwork.Clock: real code takes
// clockwork.NewRealClock(), and tests drive clockwork.NewFakeClock() to
// make every blocking operation's timeout deterministic without a real
// wall-clock wait.
type Clock = clockwork.Clock

// NewRealClock returns the system monotonic clock.
func NewRealClock() Clock { return clockwork.NewRealClock() }
