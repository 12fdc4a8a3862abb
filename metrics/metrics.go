// Package metrics Prometheus metrics of the matching engine.
//
// Usage:
//
//	metrics.RecordTransition("like", "created")
//	metrics.RecordGuardAttempts(2)
//	metrics.RecordRanking(len(pool), len(ranked), time.Since(start))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal connection state transitions by action and outcome
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_transitions_total",
			Help: "Total number of connection state transitions",
		},
		[]string{"action", "outcome"},
	)

	// MutualMatchesTotal transitions that accepted both sides of a pair
	MutualMatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "skillswap_mutual_matches_total",
			Help: "Total number of mutual matches",
		},
	)

	// GuardAttempts attempts needed to commit one transition
	GuardAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skillswap_guard_attempts",
			Help:    "Number of optimistic attempts per committed transition",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)

	// GuardConflictsTotal version conflicts seen by the guard, by result
	GuardConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_guard_conflicts_total",
			Help: "Total number of pair version conflicts",
		},
		[]string{"result"}, // retried | exhausted
	)

	// PairLockWaitSeconds time spent acquiring a pair lock
	PairLockWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillswap_pair_lock_wait_seconds",
			Help:    "Time spent waiting for a pair lock",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 3},
		},
		[]string{"locker", "acquired"},
	)

	// RankingDuration latency of building and ranking a candidate pool
	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "skillswap_ranking_duration_seconds",
			Help:    "Duration of potential match ranking",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	// RankedCandidates size of the pool and of the ranked result
	RankedCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "skillswap_ranked_candidates",
			Help:    "Number of candidates per ranking request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 7),
		},
		[]string{"stage"}, // pool | ranked
	)

	// OnlineUsers users with at least one websocket client on this instance
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "skillswap_online_users",
			Help: "Users connected to this instance",
		},
	)

	// EventsDeliveredTotal match events handed to sinks, by type and result
	EventsDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skillswap_events_delivered_total",
			Help: "Match events delivered to sinks",
		},
		[]string{"type", "result"},
	)
)

func RecordTransition(action, outcome string) {
	TransitionsTotal.WithLabelValues(action, outcome).Inc()
}

func RecordMutualMatch() {
	MutualMatchesTotal.Inc()
}

func RecordGuardAttempts(attempts int) {
	GuardAttempts.Observe(float64(attempts))
}

func RecordGuardConflict(exhausted bool) {
	result := "retried"
	if exhausted {
		result = "exhausted"
	}
	GuardConflictsTotal.WithLabelValues(result).Inc()
}

func RecordPairLockWait(locker string, acquired bool, wait time.Duration) {
	label := "false"
	if acquired {
		label = "true"
	}
	PairLockWaitSeconds.WithLabelValues(locker, label).Observe(wait.Seconds())
}

func RecordRanking(poolSize, rankedSize int, duration time.Duration) {
	RankingDuration.Observe(duration.Seconds())
	RankedCandidates.WithLabelValues("pool").Observe(float64(poolSize))
	RankedCandidates.WithLabelValues("ranked").Observe(float64(rankedSize))
}

func RecordEventDelivery(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsDeliveredTotal.WithLabelValues(eventType, result).Inc()
}
