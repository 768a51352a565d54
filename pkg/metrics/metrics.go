// Package metrics holds the Prometheus collectors for the engine. Everything
// registers on the default registry at init, so instrumented packages only
// touch the exported vars and the API serves promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "noesis"

var (
	// SessionsCreated counts new sessions by detected locale.
	SessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "created_total",
		Help:      "Sessions created, by detected locale.",
	}, []string{"locale"})

	// SessionsClosed counts sessions reaching a terminal status.
	// Labels: status (crystallized, cancelled)
	SessionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "closed_total",
		Help:      "Sessions reaching a terminal status, by status.",
	}, []string{"status"})

	// Turns counts agent turns.
	// Labels: phase (the phase the turn ran in), outcome (paused, completed,
	// crystallized, cancelled, interrupted, error)
	Turns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "turns_total",
		Help:      "Agent turns, by starting phase and outcome.",
	}, []string{"phase", "outcome"})

	// TurnDuration observes wall-clock turn length. Turns span many model
	// calls and tool dispatches, so the buckets run long.
	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "turn_duration_seconds",
		Help:      "Agent turn duration in seconds, by starting phase.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"phase"})

	// ActiveTurns tracks turns currently holding a session's run lock.
	ActiveTurns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "active_turns",
		Help:      "Turns currently running.",
	})

	// Tokens counts tokens consumed across all sessions.
	// Labels: kind (input, output, cache_creation, cache_read)
	Tokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "tokens_total",
		Help:      "Tokens consumed, by counter kind.",
	}, []string{"kind"})

	// LLMRequests counts API attempts, retries included.
	// Labels: outcome (success or an error category)
	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "requests_total",
		Help:      "LLM API attempts, by outcome.",
	}, []string{"outcome"})

	// LLMRetries counts attempts retried after a retryable failure.
	LLMRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "retries_total",
		Help:      "LLM API attempts retried after a retryable failure.",
	})

	// ToolCalls counts tool calls reaching the dispatcher.
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tools",
		Name:      "calls_total",
		Help:      "Tool calls dispatched, by tool.",
	}, []string{"tool"})

	// ToolRejections counts enforcement rejections by stable error code.
	ToolRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tools",
		Name:      "rejections_total",
		Help:      "Tool calls rejected by enforcement, by error code.",
	}, []string{"code"})
)
