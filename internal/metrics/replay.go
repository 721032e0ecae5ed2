// Package metrics exposes application metrics collectors.
package metrics

import (
	"time"

	"github.com/goodnatureofminers/ledger-replay/internal/ledger/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	replayEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger_replay",
		Subsystem: "engine",
		Name:      "events_total",
		Help:      "Count of replayed events by kind and outcome.",
	}, []string{"kind", "outcome"})

	replayRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger_replay",
		Subsystem: "replay",
		Name:      "runs_total",
		Help:      "Count of replay runs.",
	}, []string{"status"})

	replayRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledger_replay",
		Subsystem: "replay",
		Name:      "run_duration_seconds",
		Help:      "Duration of a whole replay run.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms..~4m
	}, []string{"status"})

	replayRunEvents = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ledger_replay",
		Subsystem: "replay",
		Name:      "run_events",
		Help:      "Number of events read per replay run.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 12), // 1..4M
	})

	replayAccounts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger_replay",
		Subsystem: "replay",
		Name:      "accounts",
		Help:      "Accounts in the last completed snapshot.",
	})

	replayLockedAccounts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ledger_replay",
		Subsystem: "replay",
		Name:      "locked_accounts",
		Help:      "Locked accounts in the last completed snapshot.",
	})
)

// Replay tracks metrics for the replay service.
type Replay struct{}

// NewReplay constructs a Replay metrics collector.
func NewReplay() *Replay {
	return &Replay{}
}

// ObserveEvent counts one applied, ignored, dropped or rejected event.
func (m Replay) ObserveEvent(kind model.EventKind, outcome model.Outcome) {
	if kind == "" {
		kind = "unknown"
	}
	replayEventsTotal.WithLabelValues(string(kind), string(outcome)).Inc()
}

// ObserveRun records the outcome of a replay run and, on success, the snapshot shape.
func (m Replay) ObserveRun(err error, events int, snapshot []model.AccountView, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	replayRunsTotal.WithLabelValues(status).Inc()
	replayRunDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	replayRunEvents.Observe(float64(events))
	if err != nil {
		return
	}

	locked := 0
	for _, acc := range snapshot {
		if acc.Locked {
			locked++
		}
	}
	replayAccounts.Set(float64(len(snapshot)))
	replayLockedAccounts.Set(float64(locked))
}
