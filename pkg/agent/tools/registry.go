package tools

import (
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/llm"
)

// webSearchMaxUses caps the orchestrator's own server-side searches per
// call; bulk research goes through the research tool instead.
const webSearchMaxUses = 5

// phaseTools maps each phase to its own tool group. complete_phase appears
// only in the phases that exit through the transition gate; VALIDATE and
// BUILD exit through their pause tools, CRYSTALLIZE is terminal.
var phaseTools = map[forge.Phase][]llm.ToolDefinition{
	forge.PhaseDecompose:   append(decomposeTools, askUserTool, completePhaseTool),
	forge.PhaseExplore:     append(exploreTools, askUserTool, completePhaseTool),
	forge.PhaseSynthesize:  append(synthesizeTools, completePhaseTool),
	forge.PhaseValidate:    validateTools,
	forge.PhaseBuild:       buildTools,
	forge.PhaseCrystallize: crystallizeTools,
}

var askUserTool = llm.ToolDefinition{
	Name: "ask_user",
	Description: "Present the phase's findings to the user for review and end the turn. " +
		"Use once the phase work is ready for human judgment.",
	InputSchema: obj(map[string]any{
		"question": str("The question the user should answer."),
		"context":  str("Short context framing the question."),
	}, "question"),
}

// ForPhase returns the tool definitions offered to the model in a phase, in
// a stable order: phase tools, the cross-cutting group, then research and
// server-side web search everywhere except CRYSTALLIZE.
func ForPhase(phase forge.Phase) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(phaseTools[phase])+len(crossCuttingTools)+2)
	defs = append(defs, phaseTools[phase]...)
	defs = append(defs, crossCuttingTools...)
	if phase != forge.PhaseCrystallize {
		defs = append(defs, researchToolDef)
		defs = append(defs, llm.WebSearchTool(webSearchMaxUses))
	}
	return defs
}

// phasesByTool indexes which phases offer each tool, derived from the same
// tables ForPhase serves, so dispatch and registry cannot drift apart.
var phasesByTool = buildPhaseIndex()

func buildPhaseIndex() map[string][]forge.Phase {
	idx := make(map[string][]forge.Phase)
	for _, phase := range []forge.Phase{
		forge.PhaseDecompose, forge.PhaseExplore, forge.PhaseSynthesize,
		forge.PhaseValidate, forge.PhaseBuild, forge.PhaseCrystallize,
	} {
		for _, def := range ForPhase(phase) {
			if def.Type != "" {
				continue // server-side tools are never dispatched here
			}
			idx[def.Name] = append(idx[def.Name], phase)
		}
	}
	return idx
}

func availableIn(name string, phase forge.Phase) bool {
	for _, p := range phasesByTool[name] {
		if p == phase {
			return true
		}
	}
	return false
}
