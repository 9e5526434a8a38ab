// Package metrics holds the per-Interface Prometheus collectors. Unlike a
// long-running service's global promauto vars, these are registered
// against a caller-supplied registry so that multiple Interfaces (as in
// tests, or a multi-link bridge process) can coexist in one process
// without a duplicate-registration panic.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set is one Interface's collectors.
type Set struct {
	FramesParsed     prometheus.Counter
	ChecksumFailures prometheus.Counter
	PacketsRouted    prometheus.Counter
	BurstsRetried    prometheus.Counter
	DeadPeers        prometheus.Counter
}

// New builds and registers a Set against reg. If reg is nil, the
// collectors are built but left unregistered (useful for tests that don't
// care about exposition).
func New(reg prometheus.Registerer, constLabels prometheus.Labels) *Set {
	s := &Set{
		FramesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picolan_frames_parsed_total", Help: "Wire frames successfully parsed and dispatched.", ConstLabels: constLabels,
		}),
		ChecksumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picolan_checksum_failures_total", Help: "Frames dropped for a checksum mismatch.", ConstLabels: constLabels,
		}),
		PacketsRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picolan_packets_routed_total", Help: "Datagram packets routed to a bound socket.", ConstLabels: constLabels,
		}),
		BurstsRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picolan_stream_bursts_retried_total", Help: "SocketStream send bursts that had to be retransmitted.", ConstLabels: constLabels,
		}),
		DeadPeers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "picolan_stream_dead_peers_total", Help: "SocketStream writes that gave up after three dead bursts.", ConstLabels: constLabels,
		}),
	}
	if reg != nil {
		reg.MustRegister(s.FramesParsed, s.ChecksumFailures, s.PacketsRouted, s.BurstsRetried, s.DeadPeers)
	}
	return s
}
