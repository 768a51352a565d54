package tools

import (
	"context"
	"encoding/json"

	"github.com/noesis-forge/noesis/pkg/forge"
)

func decomposeToFundamentals(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Fundamentals []string `json:"fundamentals"`
		Approach     string   `json:"approach"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if len(args.Fundamentals) == 0 {
		return fail(forge.CodeInvalidInput, "fundamentals must not be empty"), nil
	}

	env.State.Fundamentals = args.Fundamentals
	env.State.DecomposeApproach = args.Approach
	return map[string]any{"status": "ok", "count": len(args.Fundamentals)}, nil
}

func mapStateOfArt(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Domain      string   `json:"domain"`
		KeyFindings []string `json:"key_findings"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if args.Domain == "" {
		return fail(forge.CodeInvalidInput, "domain is required"), nil
	}
	if gate := forge.CanMapStateOfArt(env.State); gate != nil {
		return gate.Dict(), nil
	}

	env.State.StateOfArtResearched = true
	return map[string]any{
		"status":                  "ok",
		"domain":                  args.Domain,
		"state_of_art_researched": true,
	}, nil
}

func extractAssumptions(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Assumptions []struct {
			Text    string   `json:"text"`
			Source  string   `json:"source"`
			Options []string `json:"options"`
		} `json:"assumptions"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if len(args.Assumptions) == 0 {
		return fail(forge.CodeInvalidInput, "assumptions must not be empty"), nil
	}

	assumptions := make([]forge.Assumption, 0, len(args.Assumptions))
	for i, a := range args.Assumptions {
		if a.Text == "" {
			return fail(forge.CodeInvalidInput, "assumptions[%d] has no text", i), nil
		}
		if len(a.Options) == 0 {
			return fail(forge.CodeInvalidInput, "assumptions[%d] has no response options", i), nil
		}
		assumptions = append(assumptions, forge.Assumption{
			Text:           a.Text,
			Source:         a.Source,
			Options:        a.Options,
			SelectedOption: -1,
		})
	}

	env.State.Assumptions = assumptions
	return map[string]any{"status": "ok", "count": len(assumptions)}, nil
}

func reframeProblem(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Text             string   `json:"text"`
		Type             string   `json:"type"`
		Reasoning        string   `json:"reasoning"`
		ResonancePrompt  string   `json:"resonance_prompt"`
		ResonanceOptions []string `json:"resonance_options"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if args.Text == "" {
		return fail(forge.CodeInvalidInput, "text is required"), nil
	}
	if gate := validResonanceOptions(args.ResonanceOptions); gate != nil {
		return gate.Dict(), nil
	}

	env.State.Reframings = append(env.State.Reframings, forge.Reframing{
		Text:             args.Text,
		Type:             args.Type,
		Reasoning:        args.Reasoning,
		ResonanceOptions: args.ResonanceOptions,
	})
	return map[string]any{"status": "ok", "total_reframings": len(env.State.Reframings)}, nil
}
