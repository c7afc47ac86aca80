package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_runs_total",
			Help: "Total number of application runs by final status",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "autoapply_run_duration_seconds",
			Help: "Duration of application runs in seconds",
		},
		[]string{"status"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_llm_calls_total",
			Help: "Total number of model calls by outcome",
		},
		[]string{"outcome"},
	)

	CacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autoapply_cache_events_total",
			Help: "Response cache activity by event",
		},
		[]string{"event"},
	)
)
