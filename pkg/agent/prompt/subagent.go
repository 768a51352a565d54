package prompt

import (
	"fmt"

	"github.com/noesis-forge/noesis/pkg/forge"
)

const researchSubAgentBase = `You are a research sub-agent dispatched by an orchestrator for one query.

Rules:
- Search the web before answering. Never answer from memory alone.
- Report only facts found in the search results. Never fabricate URLs,
  titles, or findings.
- Stay on the assigned query; do not investigate unrelated areas.
- Your final response goes back to the orchestrator, not to a person.

Respond with exactly one JSON object and nothing else:
{"summary": "dense factual synthesis of what the results establish",
 "sources": [{"url": "...", "title": "...", "summary": "one-line relevance"}]}`

var researchPurposeGuides = map[forge.ResearchPurpose]string{
	forge.PurposeStateOfArt: `Purpose: map the state of the art. Identify the dominant approaches, the
frontier, and who the notable actors are. Recency matters.`,
	forge.PurposeEvidenceFor: `Purpose: find supporting evidence. Collect the strongest concrete findings
that back the position in the query, with figures where available.`,
	forge.PurposeEvidenceAgainst: `Purpose: find opposing evidence. Collect the strongest concrete findings
against the position in the query. Do not soften them.`,
	forge.PurposeCrossDomain: `Purpose: cross-domain analogy. Describe how the named domain solves its
version of the problem: mechanisms and structures, not surface trivia.`,
	forge.PurposeNoveltyCheck: `Purpose: novelty check. Establish whether the claim in the query is
already published, practiced, or patented. Near-misses count; name them.`,
	forge.PurposeFalsification: `Purpose: falsification. Hunt for observations, studies, or deployments
that would disprove the claim in the query. An honest null result is a
valid answer.`,
}

// ResearchSystemPrompt builds the sub-agent system prompt for a purpose,
// with optional orchestrator instructions appended.
func (a *Assembler) ResearchSystemPrompt(purpose forge.ResearchPurpose, instructions string) string {
	out := researchSubAgentBase
	if guide, ok := researchPurposeGuides[purpose]; ok {
		out += "\n\n" + guide
	}
	if instructions != "" {
		out += "\n\nOrchestrator instructions:\n" + instructions
	}
	return out
}

// ResearchUserMessage builds the sub-agent task message.
func (a *Assembler) ResearchUserMessage(query string, maxResults int) string {
	return fmt.Sprintf("## Query\n\n%s\n\nReturn at most %d sources.", query, maxResults)
}
