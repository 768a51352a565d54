package tools

import "github.com/noesis-forge/noesis/pkg/llm"

// JSON Schema builders. Tool schemas are declarative data; these keep the
// definitions below readable.

func obj(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func strEnum(desc string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": desc, "enum": values}
}

func arr(desc string, items map[string]any) map[string]any {
	return map[string]any{"type": "array", "description": desc, "items": items}
}

func num(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}

func integer(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func boolean(desc string) map[string]any {
	return map[string]any{"type": "boolean", "description": desc}
}

func evidenceItem() map[string]any {
	return obj(map[string]any{
		"url":     str("Source URL taken from real search results. Never invent one."),
		"title":   str("Source title."),
		"summary": str("One line on what this source establishes."),
		"type":    strEnum("How the source bears on the claim.", "supporting", "contradicting", "contextual"),
	}, "url", "title")
}

func resonanceOptionsSchema() map[string]any {
	return arr("3 or 4 graduated response options for the user; option 0 must mean no resonance.", str("Option label."))
}

// Phase tool definitions. Order is stable: it determines which schema
// carries the prompt-cache marker.

var decomposeTools = []llm.ToolDefinition{
	{
		Name: "decompose_to_fundamentals",
		Description: "Record the problem's irreducible fundamentals. Overwrites any " +
			"previous decomposition, so pass the complete list.",
		InputSchema: obj(map[string]any{
			"fundamentals": arr("The irreducible elements the problem is made of.", str("One fundamental.")),
			"approach":     str("The decomposition lens used, e.g. functional, causal, structural."),
		}, "fundamentals", "approach"),
	},
	{
		Name: "map_state_of_art",
		Description: "Record the researched state of the art for the problem domain. " +
			"Requires web research in this phase first.",
		InputSchema: obj(map[string]any{
			"domain":       str("The domain whose state of the art was mapped."),
			"key_findings": arr("The load-bearing findings from the research.", str("One finding.")),
		}, "domain", "key_findings"),
	},
	{
		Name: "extract_assumptions",
		Description: "Record the hidden assumptions in the problem statement, each with " +
			"response options for the user's review. Pass the complete list.",
		InputSchema: obj(map[string]any{
			"assumptions": arr("The surfaced assumptions.", obj(map[string]any{
				"text":    str("The assumption, stated plainly."),
				"source":  str("Where it hides: problem statement, domain convention, or framing."),
				"options": arr("Response options for the user, e.g. keep, drop, invert.", str("Option label.")),
			}, "text", "options")),
		}, "assumptions"),
	},
	{
		Name: "reframe_problem",
		Description: "Propose one alternative formulation of the problem with graduated " +
			"resonance options the user will pick from.",
		InputSchema: obj(map[string]any{
			"text":              str("The reframed problem statement."),
			"type":              str("Reframing move, e.g. inversion, abstraction, analogy, constraint removal."),
			"reasoning":         str("Why this reframing might unlock something."),
			"resonance_prompt":  str("The question inviting the user's resonance response."),
			"resonance_options": resonanceOptionsSchema(),
		}, "text", "type", "reasoning", "resonance_options"),
	},
}

var exploreTools = []llm.ToolDefinition{
	{
		Name: "build_morphological_box",
		Description: "Record the morphological box: at least 3 parameters, each with at " +
			"least 3 values, spanning the design space.",
		InputSchema: obj(map[string]any{
			"parameters": arr("The box dimensions.", obj(map[string]any{
				"name":   str("Parameter name."),
				"values": arr("At least 3 values this parameter can take.", str("One value.")),
			}, "name", "values")),
		}, "parameters"),
	},
	{
		Name: "search_cross_domain",
		Description: "Record a researched cross-domain analogy: how another domain solves " +
			"its version of this problem. Requires web research in this phase first.",
		InputSchema: obj(map[string]any{
			"source_domain":       str("The domain the analogy comes from."),
			"target_application":  str("How the mechanism maps onto the problem."),
			"analogy_description": str("The structural parallel, mechanism for mechanism."),
			"semantic_distance":   strEnum("How far the source domain is from the problem's.", "near", "medium", "far"),
			"key_findings":        str("What the research established about the source domain."),
			"resonance_prompt":    str("The question inviting the user's resonance response."),
			"resonance_options":   resonanceOptionsSchema(),
		}, "source_domain", "analogy_description", "semantic_distance", "resonance_options"),
	},
	{
		Name:        "identify_contradictions",
		Description: "Record a productive tension: two properties the solution needs that pull against each other.",
		InputSchema: obj(map[string]any{
			"property_a":  str("First property."),
			"property_b":  str("Second property in tension with the first."),
			"description": str("Why the tension is productive rather than fatal."),
		}, "property_a", "property_b", "description"),
	},
	{
		Name: "explore_adjacent_possible",
		Description: "Record what becomes reachable one step from the current state of the " +
			"art. Pass the complete list.",
		InputSchema: obj(map[string]any{
			"entries": arr("Adjacent-possible observations.", str("One observation.")),
		}, "entries"),
	},
}

var synthesizeTools = []llm.ToolDefinition{
	{
		Name: "state_thesis",
		Description: "Open a new claim by stating its thesis with supporting evidence. " +
			"At most 3 claims per round.",
		InputSchema: obj(map[string]any{
			"thesis_text":         str("The thesis: a falsifiable position."),
			"direction":           str("Which exploration thread the thesis develops."),
			"supporting_evidence": arr("At least one supporting source.", evidenceItem()),
		}, "thesis_text", "supporting_evidence"),
	},
	{
		Name: "find_antithesis",
		Description: "Record the strongest case against a stated thesis. Requires web " +
			"research in this phase first.",
		InputSchema: obj(map[string]any{
			"claim_index":            integer("Index of the claim in this round, starting at 0."),
			"antithesis_text":        str("The strongest opposing position the research supports."),
			"contradicting_evidence": arr("At least one contradicting source.", evidenceItem()),
		}, "claim_index", "antithesis_text", "contradicting_evidence"),
	},
	{
		Name: "create_synthesis",
		Description: "Resolve a thesis and its antithesis into a falsifiable claim. " +
			"Requires find_antithesis on the same index first. In round 2 and " +
			"later the claim must build on an existing claim.",
		InputSchema: obj(map[string]any{
			"claim_index":              integer("Index of the claim in this round, starting at 0."),
			"claim_text":               str("The synthesized claim."),
			"thesis_text":              str("Final thesis wording."),
			"antithesis_text":          str("Final antithesis wording."),
			"falsifiability_condition": str("The concrete observation that would disprove the claim."),
			"confidence":               strEnum("Self-assessed confidence.", "low", "medium", "high"),
			"evidence":                 arr("At least one grounding source.", evidenceItem()),
			"builds_on_claim_id":       str("ID of the prior claim this one extends. Required from round 2 on."),
			"resonance_prompt":         str("The question inviting the user's resonance response."),
			"resonance_options":        resonanceOptionsSchema(),
		}, "claim_index", "claim_text", "falsifiability_condition", "confidence", "evidence", "resonance_options"),
	},
}

var validateTools = []llm.ToolDefinition{
	{
		Name: "attempt_falsification",
		Description: "Record a genuine attempt to disprove a claim. Requires web research " +
			"in this phase first. An attempt that succeeds is a finding, not a failure.",
		InputSchema: obj(map[string]any{
			"claim_index": integer("Index of the claim in this round, starting at 0."),
			"approach":    str("How the falsification was attempted."),
			"result":      str("What the attempt found."),
			"falsified":   boolean("Whether the claim was actually falsified."),
			"evidence":    arr("Sources examined during the attempt.", evidenceItem()),
		}, "claim_index", "approach", "result", "falsified"),
	},
	{
		Name: "check_novelty",
		Description: "Record whether a claim already exists in published knowledge. " +
			"Requires web research in this phase first.",
		InputSchema: obj(map[string]any{
			"claim_index":         integer("Index of the claim in this round, starting at 0."),
			"existing_knowledge":  str("The closest published work found."),
			"is_novel":            boolean("Whether the claim goes beyond it."),
			"novelty_explanation": str("What exactly is new, or what already covers it."),
		}, "claim_index", "existing_knowledge", "is_novel", "novelty_explanation"),
	},
	{
		Name: "score_claim",
		Description: "Score a claim on the four validation axes, each in [0,1]. Requires " +
			"attempt_falsification and check_novelty on the same index first.",
		InputSchema: obj(map[string]any{
			"claim_index":    integer("Index of the claim in this round, starting at 0."),
			"novelty":        num("How far beyond existing knowledge, 0 to 1."),
			"groundedness":   num("How well the evidence carries the claim, 0 to 1."),
			"falsifiability": num("How concrete the disproof condition is, 0 to 1."),
			"significance":   num("How much the claim matters if true, 0 to 1."),
			"reasoning":      str("The reasoning behind the scores."),
		}, "claim_index", "novelty", "groundedness", "falsifiability", "significance", "reasoning"),
	},
	{
		Name: "present_round",
		Description: "Present the validated round to the user for verdicts. Every claim " +
			"must be falsification-tested, novelty-checked, and scored. Ends the turn.",
		InputSchema: obj(map[string]any{
			"summary": str("A short summary of the round for the user."),
		}, "summary"),
	},
}

var buildTools = []llm.ToolDefinition{
	{
		Name: "add_to_knowledge_graph",
		Description: "Add an accepted or qualified claim to the knowledge graph with its " +
			"typed edges to existing claims.",
		InputSchema: obj(map[string]any{
			"claim_index": integer("Index of the claim in this round, starting at 0."),
			"edges": arr("Typed edges from this claim to existing graph claims.", obj(map[string]any{
				"target_claim_id": str("ID of the claim the edge points to."),
				"edge_type":       strEnum("Relation type.", "supports", "contradicts", "extends", "supersedes", "depends_on", "merged_from"),
			}, "target_claim_id", "edge_type")),
		}, "claim_index"),
	},
	{
		Name: "analyze_gaps",
		Description: "Record what the graph still cannot answer and which conclusions " +
			"have converged enough to lock. Pass the complete lists.",
		InputSchema: obj(map[string]any{
			"gaps":              arr("Open questions the graph does not answer.", str("One gap.")),
			"convergence_locks": arr("Conclusions stable enough to stop revisiting.", str("One locked conclusion.")),
		}, "gaps"),
	},
	{
		Name: "get_negative_knowledge",
		Description: "List what was already tried and discarded: rejected claims and " +
			"successful falsifications. Consult before synthesizing in later rounds.",
		InputSchema: obj(map[string]any{}),
	},
	{
		Name: "present_build_options",
		Description: "Present the graph state and the continue/deep-dive/resolve options " +
			"to the user. Ends the turn.",
		InputSchema: obj(map[string]any{
			"summary": str("A short summary of the build state for the user."),
		}, "summary"),
	},
}

var crystallizeTools = []llm.ToolDefinition{
	{
		Name: "generate_knowledge_document",
		Description: "Assemble the final knowledge document from its ten sections. " +
			"Markdown is allowed inside sections.",
		InputSchema: obj(map[string]any{
			"executive_summary":  str("What was learned, in one tight page."),
			"problem_framing":    str("The problem as decomposed and reframed."),
			"exploration":        str("The design space: box, analogies, contradictions."),
			"validated_claims":   str("Each surviving claim with its dialectic and scores."),
			"evidence":           str("The evidence base with sources."),
			"knowledge_graph":    str("The graph structure in prose."),
			"negative_knowledge": str("What was tried and discarded, and why that matters."),
			"gaps":               str("What remains open."),
			"future_directions":  str("Where another session should push next."),
			"round_history":      str("How the investigation unfolded round by round."),
		}, "executive_summary", "problem_framing", "exploration", "validated_claims",
			"evidence", "knowledge_graph", "negative_knowledge", "gaps",
			"future_directions", "round_history"),
	},
	{
		Name: "present_document",
		Description: "Deliver the generated knowledge document to the user and close the " +
			"session. Ends the turn.",
		InputSchema: obj(map[string]any{
			"summary": str("Optional closing note for the user."),
		}),
	},
}

var crossCuttingTools = []llm.ToolDefinition{
	{
		Name:        "get_session_status",
		Description: "Report the session's phase, round, claim counts, graph size, and budgets.",
		InputSchema: obj(map[string]any{}),
	},
	{
		Name: "submit_user_insight",
		Description: "Record an insight the user contributed as a durable claim and graph " +
			"node, optionally linked to an existing claim.",
		InputSchema: obj(map[string]any{
			"insight_text":        str("The user's insight, as they stated it."),
			"evidence_urls":       arr("URLs the user offered in support.", str("One URL.")),
			"relates_to_claim_id": str("ID of the existing claim the insight bears on."),
		}, "insight_text"),
	},
	{
		Name: "recall_phase_context",
		Description: "Read an artifact produced by an earlier, completed phase: " +
			"fundamentals, assumptions, reframings, morphological_box, analogies, " +
			"contradictions, adjacent_possible, claims, graph, gaps, negative_knowledge.",
		InputSchema: obj(map[string]any{
			"phase":    strEnum("The completed phase to recall from.", "DECOMPOSE", "EXPLORE", "SYNTHESIZE", "VALIDATE", "BUILD"),
			"artifact": str("The artifact name."),
		}, "phase", "artifact"),
	},
	{
		Name: "search_research_archive",
		Description: "Search past research results before paying for new research. " +
			"Keywords match with AND semantics, newest results first.",
		InputSchema: obj(map[string]any{
			"keywords":    arr("Keywords that must all match.", str("One keyword.")),
			"phase":       str("Restrict to research performed in this phase."),
			"purpose":     str("Restrict to this research purpose."),
			"max_results": integer("Cap on returned entries, at most 10."),
		}, "keywords"),
	},
	{
		Name: "update_working_document",
		Description: "Write one section of the working document. Must be called at least " +
			"once per phase before completing it.",
		InputSchema: obj(map[string]any{
			"section": strEnum("Canonical section name.",
				"executive_summary", "problem_framing", "exploration", "validated_claims",
				"evidence", "knowledge_graph", "negative_knowledge", "gaps",
				"future_directions", "round_history"),
			"content": str("The full section content; replaces the previous content."),
		}, "section", "content"),
	},
	{
		Name: "read_working_document",
		Description: "Read the working document: without a section, a table of contents " +
			"with word counts; with one, that section's full content.",
		InputSchema: obj(map[string]any{
			"section": str("Canonical section name to read in full."),
		}),
	},
}

var completePhaseTool = llm.ToolDefinition{
	Name: "complete_phase",
	Description: "Close the current phase and advance the pipeline. Fails with the " +
		"specific unmet criterion if the phase's exit gate does not pass.",
	InputSchema: obj(map[string]any{}),
}

var researchToolDef = llm.ToolDefinition{
	Name: "research",
	Description: "Delegate one web-research query to the research sub-agent. Counts as " +
		"research for this phase's research-first gates and is archived for " +
		"later search.",
	InputSchema: obj(map[string]any{
		"query":        str("The research question, self-contained."),
		"purpose":      strEnum("What the findings are for.", "state_of_art", "evidence_for", "evidence_against", "cross_domain", "novelty_check", "falsification"),
		"instructions": str("Extra guidance for the sub-agent."),
		"max_results":  integer("Cap on returned sources, at most 10."),
	}, "query", "purpose"),
}
