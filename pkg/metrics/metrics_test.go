package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Dashboards and alerts key on the fully qualified names, so renaming a
// collector is a breaking change this test makes deliberate.
func TestCollectorNamesAreStable(t *testing.T) {
	// Vec collectors only surface in a gather once a child exists.
	SessionsCreated.WithLabelValues("en")
	SessionsClosed.WithLabelValues("crystallized")
	Turns.WithLabelValues("explore", "paused")
	TurnDuration.WithLabelValues("explore")
	Tokens.WithLabelValues("input")
	LLMRequests.WithLabelValues("success")
	ToolCalls.WithLabelValues("propose_claim")
	ToolRejections.WithLabelValues("WRONG_PHASE")

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}

	for _, want := range []string{
		"noesis_sessions_created_total",
		"noesis_sessions_closed_total",
		"noesis_agent_turns_total",
		"noesis_agent_turn_duration_seconds",
		"noesis_agent_active_turns",
		"noesis_llm_tokens_total",
		"noesis_llm_requests_total",
		"noesis_llm_retries_total",
		"noesis_tools_calls_total",
		"noesis_tools_rejections_total",
	} {
		assert.True(t, names[want], "collector %s is not registered", want)
	}
}

func TestTokenCountersAccumulateByKind(t *testing.T) {
	before := testutil.ToFloat64(Tokens.WithLabelValues("output"))

	Tokens.WithLabelValues("output").Add(150)
	Tokens.WithLabelValues("output").Add(50)

	assert.Equal(t, before+200, testutil.ToFloat64(Tokens.WithLabelValues("output")))
}

func TestTurnOutcomesCountIndependently(t *testing.T) {
	paused := testutil.ToFloat64(Turns.WithLabelValues("synthesize", "paused"))
	errored := testutil.ToFloat64(Turns.WithLabelValues("synthesize", "error"))

	Turns.WithLabelValues("synthesize", "paused").Inc()

	assert.Equal(t, paused+1, testutil.ToFloat64(Turns.WithLabelValues("synthesize", "paused")))
	assert.Equal(t, errored, testutil.ToFloat64(Turns.WithLabelValues("synthesize", "error")))
}

func TestActiveTurnsGaugeMovesBothWays(t *testing.T) {
	before := testutil.ToFloat64(ActiveTurns)

	ActiveTurns.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ActiveTurns))

	ActiveTurns.Dec()
	assert.Equal(t, before, testutil.ToFloat64(ActiveTurns))
}

func TestTurnDurationObserves(t *testing.T) {
	TurnDuration.WithLabelValues("build").Observe(42)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(TurnDuration), 1)
}
