// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProxyAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billvault_proxy_attempts_total",
		Help: "Portal fetch attempts per proxy, by outcome.",
	}, []string{"proxy", "outcome"})

	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billvault_refreshes_total",
		Help: "Completed bill refreshes, by result kind.",
	}, []string{"result"})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "billvault_refresh_duration_seconds",
		Help:    "Wall time of one refresh, fetch plus extraction.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
	})

	Sweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billvault_schedule_sweeps_total",
		Help: "Scheduled sweeps, by outcome (completed, skipped).",
	}, []string{"outcome"})

	RPCs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billvault_rpc_requests_total",
		Help: "Connect RPCs handled, by procedure and code.",
	}, []string{"procedure", "code"})
)
