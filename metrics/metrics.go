// Package metrics exposes Stoa's operational counters and gauges via
// Prometheus, mirroring the pack's `Registry prometheus.Registerer` /
// `Register(collector)` wrapper shape.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every collector Stoa registers, grouped by component.
type Metrics struct {
	Registry prometheus.Registerer

	IngestQueueDepth   prometheus.Gauge
	BlocksCommitted     prometheus.Counter
	RecoveryPasses       prometheus.Counter
	BallotsAccepted      prometheus.Counter
	BallotsRejected      prometheus.Counter
	ProposalsByStatus *prometheus.GaugeVec
}

// New creates Metrics backed by reg and registers every collector.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registry: reg,
		IngestQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "stoa",
			Subsystem: "ingest",
			Name:      "queue_depth",
			Help:      "Number of tasks currently queued for the ingestion pipeline.",
		}),
		BlocksCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stoa",
			Subsystem: "ingest",
			Name:      "blocks_committed_total",
			Help:      "Total blocks committed to the ledger store.",
		}),
		RecoveryPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stoa",
			Subsystem: "ingest",
			Name:      "recovery_passes_total",
			Help:      "Total gap-recovery passes run against the consensus client.",
		}),
		BallotsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stoa",
			Subsystem: "governance",
			Name:      "ballots_accepted_total",
			Help:      "Total ballots accepted (not immediately rejected) at submission.",
		}),
		BallotsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stoa",
			Subsystem: "governance",
			Name:      "ballots_rejected_total",
			Help:      "Total ballots rejected, at submission or at tally.",
		}),
		ProposalsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "stoa",
			Subsystem: "governance",
			Name:      "proposals_by_status",
			Help:      "Current proposal count per status.",
		}, []string{"status"}),
	}
	for _, c := range []prometheus.Collector{
		m.IngestQueueDepth, m.BlocksCommitted, m.RecoveryPasses,
		m.BallotsAccepted, m.BallotsRejected, m.ProposalsByStatus,
	} {
		_ = m.Register(c)
	}
	return m
}

// Register registers a single collector against the underlying registerer.
func (m *Metrics) Register(c prometheus.Collector) error {
	return m.Registry.Register(c)
}
