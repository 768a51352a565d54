package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWireShape(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "agent text",
			event: Text("Decomposing the problem."),
			want:  `{"type":"agent_text","data":{"text":"Decomposing the problem."}}`,
		},
		{
			name:  "tool call",
			event: ToolCall("decompose_to_fundamentals"),
			want:  `{"type":"tool_call","data":{"tool":"decompose_to_fundamentals"}}`,
		},
		{
			name:  "tool result",
			event: ToolResult("score_claim", "recorded scores for claim-1"),
			want:  `{"type":"tool_result","data":{"tool":"score_claim","preview":"recorded scores for claim-1"}}`,
		},
		{
			name:  "tool error carries stable code",
			event: ToolError("create_synthesis", "PHASE_VIOLATION", "create_synthesis is not available in DECOMPOSE"),
			want:  `{"type":"tool_error","data":{"tool":"create_synthesis","code":"PHASE_VIOLATION","message":"create_synthesis is not available in DECOMPOSE"}}`,
		},
		{
			name:  "server-side web search carries the query",
			event: ServerWebSearch("urban heat island mitigation"),
			want:  `{"type":"tool_call","data":{"tool":"web_search","query":"urban heat island mitigation"}}`,
		},
		{
			name:  "web search detail",
			event: WebSearch("urban heat island mitigation"),
			want:  `{"type":"web_search_detail","data":{"query":"urban heat island mitigation"}}`,
		},
		{
			name:  "error",
			event: Error("llm_error", "stream aborted"),
			want:  `{"type":"error","data":{"category":"llm_error","message":"stream aborted"}}`,
		},
		{
			name:  "done awaiting input",
			event: Done(false, true, "decompose_review"),
			want:  `{"type":"done","data":{"error":false,"awaiting_input":true,"awaiting_input_type":"decompose_review"}}`,
		},
		{
			name:  "done after failure omits input type",
			event: Done(true, false, ""),
			want:  `{"type":"done","data":{"error":true,"awaiting_input":false}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestDecomposeReviewPayloadWireShape(t *testing.T) {
	payload := DecomposeReviewPayload{
		Question:     "Which framing should guide exploration?",
		Fundamentals: []string{"heat absorption", "airflow", "albedo"},
		Assumptions: []ReviewAssumption{
			{Index: 0, Text: "Cooling requires energy input", Source: "problem statement", Options: []string{"keep", "drop", "invert"}},
		},
		Reframings: []ReviewReframing{
			{Index: 0, Text: "Treat streets as heat exchangers", Type: "inversion", Reasoning: "shifts focus from buildings to surfaces", ResonanceOptions: []string{"strongly", "somewhat", "not at all"}},
			{Index: 1, Text: "Optimize for night-time release", Type: "temporal", Reasoning: "peak load is after sunset", ResonanceOptions: []string{"strongly", "somewhat", "not at all"}},
			{Index: 2, Text: "Design for shade equity", Type: "social", Reasoning: "exposure is unevenly distributed", ResonanceOptions: []string{"strongly", "somewhat", "not at all"}},
		},
	}

	raw, err := json.Marshal(Event{Type: TypeReviewDecompose, Data: payload})
	require.NoError(t, err)

	var decoded struct {
		Type string `json:"type"`
		Data struct {
			Question     string            `json:"question"`
			Fundamentals []string          `json:"fundamentals"`
			Assumptions  []json.RawMessage `json:"assumptions"`
			Reframings   []json.RawMessage `json:"reframings"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, TypeReviewDecompose, decoded.Type)
	assert.Len(t, decoded.Data.Fundamentals, 3)
	assert.Len(t, decoded.Data.Assumptions, 1)
	assert.Len(t, decoded.Data.Reframings, 3)
	assert.Equal(t, "Which framing should guide exploration?", decoded.Data.Question)
}

func TestClaimsReviewPayloadScoresOmittedUntilSet(t *testing.T) {
	claim := ReviewClaim{
		Index:                   0,
		ClaimID:                 "claim-1",
		ClaimText:               "Permeable pavements cut peak surface temperature by 10C",
		ThesisText:              "Evaporative cooling dominates",
		AntithesisText:          "Thermal mass dominates",
		FalsifiabilityCondition: "No temperature delta under controlled irrigation",
		Confidence:              "medium",
		Evidence: []ReviewEvidence{
			{URL: "https://example.org/study", Title: "Pavement study", Summary: "Field measurements", Type: "supporting"},
		},
	}

	raw, err := json.Marshal(ClaimsReviewPayload{Round: 1, Claims: []ReviewClaim{claim}})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"scores"`)

	claim.Scores = &ReviewScores{Novelty: 0.7, Groundedness: 0.8, Falsifiability: 0.9, Significance: 0.6}
	raw, err = json.Marshal(ClaimsReviewPayload{Round: 1, Claims: []ReviewClaim{claim}})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"scores"`)
	assert.Contains(t, string(raw), `"novelty":0.7`)
}

func TestEmitterDeliversInOrder(t *testing.T) {
	ctx := context.Background()
	em := NewEmitter(4)

	require.True(t, em.Emit(ctx, Text("a")))
	require.True(t, em.Emit(ctx, ToolCall("research")))
	require.True(t, em.Emit(ctx, Done(false, false, "")))
	em.Close()

	var types []string
	for ev := range em.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{TypeAgentText, TypeToolCall, TypeDone}, types)
}

func TestEmitterTryEmitNeverBlocks(t *testing.T) {
	em := NewEmitter(1)
	assert.True(t, em.TryEmit(Text("fits")))
	assert.False(t, em.TryEmit(Text("buffer full")), "a full buffer must drop, not block")

	<-em.Events()
	assert.True(t, em.TryEmit(Done(false, false, "")))
}

func TestEmitterDropsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	em := NewEmitter(1)
	require.True(t, em.Emit(context.Background(), Text("fits in buffer")))

	done := make(chan bool, 1)
	go func() {
		done <- em.Emit(ctx, Text("blocked"))
	}()

	select {
	case delivered := <-done:
		assert.False(t, delivered)
	case <-time.After(2 * time.Second):
		t.Fatal("emit did not observe context cancellation")
	}
}
