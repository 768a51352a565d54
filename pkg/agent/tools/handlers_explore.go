package tools

import (
	"context"
	"encoding/json"

	"github.com/noesis-forge/noesis/pkg/forge"
)

func buildMorphologicalBox(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Parameters []struct {
			Name   string   `json:"name"`
			Values []string `json:"values"`
		} `json:"parameters"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if len(args.Parameters) < 3 {
		return fail(forge.CodeInvalidInput, "a morphological box needs at least 3 parameters, got %d", len(args.Parameters)), nil
	}

	box := make([]forge.BoxParameter, 0, len(args.Parameters))
	for i, p := range args.Parameters {
		if p.Name == "" {
			return fail(forge.CodeInvalidInput, "parameters[%d] has no name", i), nil
		}
		if len(p.Values) < 3 {
			return fail(forge.CodeInvalidInput, "parameter %q needs at least 3 values, got %d", p.Name, len(p.Values)), nil
		}
		box = append(box, forge.BoxParameter{Name: p.Name, Values: p.Values})
	}

	env.State.MorphologicalBox = box
	return map[string]any{"status": "ok", "parameters": len(box)}, nil
}

func searchCrossDomain(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		SourceDomain       string   `json:"source_domain"`
		TargetApplication  string   `json:"target_application"`
		AnalogyDescription string   `json:"analogy_description"`
		SemanticDistance   string   `json:"semantic_distance"`
		KeyFindings        string   `json:"key_findings"`
		ResonancePrompt    string   `json:"resonance_prompt"`
		ResonanceOptions   []string `json:"resonance_options"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if args.SourceDomain == "" || args.AnalogyDescription == "" {
		return fail(forge.CodeInvalidInput, "source_domain and analogy_description are required"), nil
	}
	if gate := validResonanceOptions(args.ResonanceOptions); gate != nil {
		return gate.Dict(), nil
	}
	if gate := forge.CanSearchCrossDomain(env.State); gate != nil {
		return gate.Dict(), nil
	}

	env.State.Analogies = append(env.State.Analogies, forge.Analogy{
		Domain:           args.SourceDomain,
		Description:      args.AnalogyDescription,
		SemanticDistance: args.SemanticDistance,
		ResonanceOptions: args.ResonanceOptions,
	})
	env.State.CrossDomainSearches++
	return map[string]any{
		"status":                    "ok",
		"cross_domain_search_count": env.State.CrossDomainSearches,
	}, nil
}

func identifyContradictions(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		PropertyA   string `json:"property_a"`
		PropertyB   string `json:"property_b"`
		Description string `json:"description"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if args.PropertyA == "" || args.PropertyB == "" {
		return fail(forge.CodeInvalidInput, "property_a and property_b are required"), nil
	}

	env.State.Contradictions = append(env.State.Contradictions, forge.Contradiction{
		PropertyA:   args.PropertyA,
		PropertyB:   args.PropertyB,
		Description: args.Description,
	})
	return map[string]any{"status": "ok", "total_contradictions": len(env.State.Contradictions)}, nil
}

func exploreAdjacentPossible(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Entries []string `json:"entries"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if len(args.Entries) == 0 {
		return fail(forge.CodeInvalidInput, "entries must not be empty"), nil
	}

	env.State.AdjacentPossible = args.Entries
	return map[string]any{"status": "ok", "count": len(args.Entries)}, nil
}
