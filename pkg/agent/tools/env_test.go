package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noesis-forge/noesis/pkg/forge"
)

func testEnv(phase forge.Phase) *Env {
	st := forge.NewState(forge.LocaleEnglish, 1.0)
	st.CurrentPhase = phase
	return &Env{
		SessionID: "6e8bc430-9c3a-11d9-9669-0800200c9a66",
		Problem:   "how can a small team keep distributed traces useful at scale",
		State:     st,
		Staged:    &Staged{},
	}
}

func callTool(t *testing.T, env *Env, name string, args map[string]any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	res, err := Dispatch(context.Background(), env, name, raw)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func wantOK(t *testing.T, res map[string]any) {
	t.Helper()
	require.Equal(t, "ok", res["status"], "tool result: %v", res)
}

func wantCode(t *testing.T, res map[string]any, code string) {
	t.Helper()
	require.Equal(t, "error", res["status"], "tool result: %v", res)
	require.Equal(t, code, res["error_code"], "tool result: %v", res)
}

// synthesizeClaim drives one claim through thesis, antithesis, and synthesis
// while the env is in SYNTHESIZE, returning the assigned claim ID.
func synthesizeClaim(t *testing.T, env *Env, text string) string {
	t.Helper()
	env.State.RecordWebSearch("evidence on "+text, "found sources")

	res := callTool(t, env, "state_thesis", map[string]any{
		"thesis_text":         "thesis: " + text,
		"supporting_evidence": []map[string]any{{"url": "https://example.org/pro", "title": "Pro"}},
	})
	wantOK(t, res)
	idx := res["claim_index"].(int)

	res = callTool(t, env, "find_antithesis", map[string]any{
		"claim_index":            idx,
		"antithesis_text":        "antithesis: " + text,
		"contradicting_evidence": []map[string]any{{"url": "https://example.org/con", "title": "Con"}},
	})
	wantOK(t, res)

	res = callTool(t, env, "create_synthesis", map[string]any{
		"claim_index":              idx,
		"claim_text":               text,
		"falsifiability_condition": "a counterexample deployment exists",
		"confidence":               "medium",
		"evidence":                 []map[string]any{{"url": "https://example.org/syn", "title": "Syn"}},
		"resonance_options":        []string{"no resonance", "plausible", "strong"},
	})
	wantOK(t, res)
	return res["claim_id"].(string)
}
