package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/noesis-forge/noesis/pkg/agent/research"
	"github.com/noesis-forge/noesis/pkg/forge"
)

func doResearch(ctx context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Query        string `json:"query"`
		Purpose      string `json:"purpose"`
		Instructions string `json:"instructions"`
		MaxResults   int    `json:"max_results"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if strings.TrimSpace(args.Query) == "" {
		return fail(forge.CodeInvalidInput, "query is required"), nil
	}
	purpose := forge.ResearchPurpose(args.Purpose)
	if !purpose.IsValid() {
		return fail(forge.CodeInvalidInput, "unknown research purpose %q", args.Purpose), nil
	}
	if env.Research == nil {
		return fail(forge.CodeInternalError, "research delegation is not configured"), nil
	}

	res := env.Research.Research(ctx, research.Request{
		Query:        args.Query,
		Purpose:      purpose,
		Instructions: args.Instructions,
		MaxResults:   args.MaxResults,
	})

	// Archive even empty delegations: a query that found nothing is itself
	// a finding worth not repeating.
	env.State.ResearchArchive = append(env.State.ResearchArchive, forge.ResearchEntry{
		Query:   args.Query,
		Purpose: purpose,
		Phase:   env.State.CurrentPhase,
		Summary: res.Summary,
		Sources: res.Sources,
	})
	env.State.RecordWebSearch(args.Query, res.Summary)
	env.State.ResearchTokensUsed += res.SubAgentTokens

	return map[string]any{
		"status":       "ok",
		"summary":      res.Summary,
		"sources":      res.Sources,
		"result_count": res.ResultCount,
		"empty":        res.Empty,
	}, nil
}
