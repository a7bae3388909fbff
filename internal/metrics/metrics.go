package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "odds_reconciler"

var (
	// GamesReconciled counts creation-time lookups by result (created, reused)
	GamesReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_reconciled_total",
		Help:      "Creation-time game lookups by result",
	}, []string{"result"})

	// AttachResults counts cross-source attach lookups by mode and result
	AttachResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attach_results_total",
		Help:      "Cross-source attach lookups by reference mode and result",
	}, []string{"mode", "result"})

	// UnknownTeams counts team names that failed to resolve
	UnknownTeams = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unknown_teams_total",
		Help:      "Team names that resolved to no registry entry",
	}, []string{"sport"})

	// Classifications counts classified market sides by outcome type and deciding rule
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Classified market sides by outcome type and rule",
	}, []string{"outcome", "rule"})

	// SnapshotWrites counts guarded snapshot inserts by result (inserted, duplicate, stale)
	SnapshotWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_writes_total",
		Help:      "Snapshot inserts by result",
	}, []string{"result"})

	// GamesCompleted counts games transitioned to completed
	GamesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_completed_total",
		Help:      "Games transitioned to completed",
	})

	// ClosingLinesFlagged counts snapshots flagged as closing lines
	ClosingLinesFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "closing_lines_flagged_total",
		Help:      "Snapshots flagged as closing lines",
	})

	// SourceFailures counts per-source failures inside a cycle
	SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_failures_total",
		Help:      "Per-source batch failures",
	}, []string{"source"})

	// BatchesIngested counts normalized batches by source and transport
	BatchesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_ingested_total",
		Help:      "Normalized source batches by source and transport",
	}, []string{"source", "transport"})

	// CycleDuration observes the wall time of one collection cycle
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Duration of one collection cycle",
		Buckets:   prometheus.DefBuckets,
	})
)
