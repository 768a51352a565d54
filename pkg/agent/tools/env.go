// Package tools defines the phase-scoped tool surface the model sees: JSON
// schemas, the phase registry, dispatch, and the handlers themselves.
//
// Handlers follow a strict sandwich: pure precondition check, then state
// mutation, then staged persistence. They never open transactions and never
// return Go errors for normal failures; a rejected call comes back as an
// error dict the runner forwards to the model as a tool result.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noesis-forge/noesis/pkg/agent/research"
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/store"
)

// Handler executes one tool call against the session environment.
type Handler func(ctx context.Context, env *Env, input json.RawMessage) (map[string]any, error)

// Researcher delegates a query to the research sub-agent.
type Researcher interface {
	Research(ctx context.Context, req research.Request) research.Result
}

// Staged accumulates the durable writes of one agent turn. The runner folds
// them into a TurnCommit at the next pause or turn end; handlers only append.
type Staged struct {
	NewClaims    []store.Claim
	ClaimUpdates []store.ClaimUpdate
	NewEvidence  []store.Evidence
	NewEdges     []store.ClaimEdge
}

// ApplyTo folds the staged writes into a turn commit.
func (st *Staged) ApplyTo(tc *store.TurnCommit) {
	tc.NewClaims = append(tc.NewClaims, st.NewClaims...)
	tc.ClaimUpdates = append(tc.ClaimUpdates, st.ClaimUpdates...)
	tc.NewEvidence = append(tc.NewEvidence, st.NewEvidence...)
	tc.NewEdges = append(tc.NewEdges, st.NewEdges...)
}

// Reset clears the staging area after a commit.
func (st *Staged) Reset() {
	st.NewClaims = nil
	st.ClaimUpdates = nil
	st.NewEvidence = nil
	st.NewEdges = nil
}

// Env is everything a handler may touch: the live state, the staging area,
// and the research delegate. There is no database handle here on purpose.
type Env struct {
	SessionID string
	Problem   string
	State     *forge.State
	Staged    *Staged
	Research  Researcher
}

// fail renders the uniform tool-result error envelope.
func fail(code, format string, args ...any) map[string]any {
	return (&forge.GateError{Code: code, Message: fmt.Sprintf(format, args...)}).Dict()
}

// unmarshalArgs decodes tool input. Empty input decodes to the zero args.
func unmarshalArgs(input json.RawMessage, v any) error {
	if len(input) == 0 {
		return nil
	}
	return json.Unmarshal(input, v)
}

// evidenceArg is the wire shape of one evidence reference in tool input.
type evidenceArg struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Type    string `json:"type"`
}

// toEvidenceRefs converts wire evidence to typed refs, defaulting the type.
func toEvidenceRefs(args []evidenceArg, fallback forge.EvidenceType) ([]forge.EvidenceRef, *forge.GateError) {
	refs := make([]forge.EvidenceRef, 0, len(args))
	for i, e := range args {
		if e.URL == "" {
			return nil, &forge.GateError{
				Code:    forge.CodeInvalidInput,
				Message: fmt.Sprintf("evidence[%d] has no url", i),
			}
		}
		t := forge.EvidenceType(e.Type)
		if e.Type == "" {
			t = fallback
		}
		if !t.IsValid() {
			return nil, &forge.GateError{
				Code:    forge.CodeInvalidInput,
				Message: fmt.Sprintf("evidence[%d] has unknown type %q", i, e.Type),
			}
		}
		refs = append(refs, forge.EvidenceRef{URL: e.URL, Title: e.Title, Summary: e.Summary, Type: t})
	}
	return refs, nil
}

// validResonanceOptions checks the graduated option list: 3 or 4 entries,
// option 0 meaning no resonance.
func validResonanceOptions(options []string) *forge.GateError {
	if len(options) < 3 || len(options) > 4 {
		return &forge.GateError{
			Code:    forge.CodeInvalidInput,
			Message: fmt.Sprintf("resonance_options needs 3 or 4 entries, got %d", len(options)),
		}
	}
	for i, o := range options {
		if o == "" {
			return &forge.GateError{
				Code:    forge.CodeInvalidInput,
				Message: fmt.Sprintf("resonance_options[%d] is empty", i),
			}
		}
	}
	return nil
}
