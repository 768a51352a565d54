package events

// TextPayload carries a streamed fragment of assistant text.
type TextPayload struct {
	Text string `json:"text"`
}

// ToolCallPayload announces a tool invocation before its handler runs.
type ToolCallPayload struct {
	Tool  string `json:"tool"`
	Query string `json:"query,omitempty"` // set for server-side web_search starts
}

// ToolResultPayload reports a successful tool execution.
type ToolResultPayload struct {
	Tool    string `json:"tool"`
	Preview string `json:"preview"` // truncated summary of the result, for display only
}

// ToolErrorPayload reports a rejected or failed tool execution.
type ToolErrorPayload struct {
	Tool    string `json:"tool"`
	Code    string `json:"code"` // stable machine code, e.g. INVALID_PHASE
	Message string `json:"message"`
}

// WebSearchPayload surfaces a web search performed inside a research call.
type WebSearchPayload struct {
	Query string `json:"query"`
}

// ContextUsagePayload reports cumulative token usage after an LLM call.
type ContextUsagePayload struct {
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CacheCreationTokens int64   `json:"cache_creation_tokens"`
	CacheReadTokens     int64   `json:"cache_read_tokens"`
	ContextWindow       int64   `json:"context_window"`
	PercentUsed         float64 `json:"percent_used"`
}

// ErrorPayload reports a turn-level failure. LLM failures carry the API
// error category (rate_limit, connection_error, timeout, overloaded,
// client_error, unknown); runner failures use agent_loop_exceeded,
// database_error, or internal.
type ErrorPayload struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// DonePayload terminates every stream, successful or not.
type DonePayload struct {
	Error             bool   `json:"error"`
	AwaitingInput     bool   `json:"awaiting_input"`
	AwaitingInputType string `json:"awaiting_input_type,omitempty"` // set when awaiting_input is true
}

// KnowledgeDocumentPayload delivers the assembled final document.
type KnowledgeDocumentPayload struct {
	Markdown string `json:"markdown"`
}

// ReviewAssumption is one extracted assumption awaiting a user response.
type ReviewAssumption struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Source  string   `json:"source"`
	Options []string `json:"options"`
}

// ReviewReframing is one problem reframing awaiting a resonance response.
type ReviewReframing struct {
	Index            int      `json:"index"`
	Text             string   `json:"text"`
	Type             string   `json:"type"`
	Reasoning        string   `json:"reasoning"`
	ResonanceOptions []string `json:"resonance_options"`
}

// DecomposeReviewPayload is the review_decompose pause point.
type DecomposeReviewPayload struct {
	Question     string             `json:"question,omitempty"` // the agent's ask_user question
	Context      string             `json:"context,omitempty"`
	Fundamentals []string           `json:"fundamentals"`
	Assumptions  []ReviewAssumption `json:"assumptions"`
	Reframings   []ReviewReframing  `json:"reframings"`
}

// ReviewBoxParameter is one morphological box dimension.
type ReviewBoxParameter struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ReviewAnalogy is one cross-domain analogy awaiting a resonance response.
type ReviewAnalogy struct {
	Index            int      `json:"index"`
	Domain           string   `json:"domain"`
	Description      string   `json:"description"`
	SemanticDistance string   `json:"semantic_distance"`
	ResonanceOptions []string `json:"resonance_options"`
}

// ReviewContradiction is one identified design contradiction.
type ReviewContradiction struct {
	PropertyA   string `json:"property_a"`
	PropertyB   string `json:"property_b"`
	Description string `json:"description"`
}

// ExploreReviewPayload is the review_explore pause point.
type ExploreReviewPayload struct {
	Question         string                `json:"question,omitempty"`
	Context          string                `json:"context,omitempty"`
	MorphologicalBox []ReviewBoxParameter  `json:"morphological_box"`
	Analogies        []ReviewAnalogy       `json:"analogies"`
	Contradictions   []ReviewContradiction `json:"contradictions"`
	AdjacentPossible []string              `json:"adjacent_possible"`
}

// ReviewEvidence is one evidence reference attached to a claim.
type ReviewEvidence struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Type    string `json:"type"` // supporting, contradicting or contextual
}

// ReviewScores carries the four validation scores, each in [0,1].
type ReviewScores struct {
	Novelty        float64 `json:"novelty"`
	Groundedness   float64 `json:"groundedness"`
	Falsifiability float64 `json:"falsifiability"`
	Significance   float64 `json:"significance"`
}

// ReviewClaim is one synthesized claim, shown both at the synthesis
// resonance pause and at the validation verdict pause. Scores are nil
// until validation has run.
type ReviewClaim struct {
	Index                   int              `json:"index"`
	ClaimID                 string           `json:"claim_id"`
	ClaimText               string           `json:"claim_text"`
	ThesisText              string           `json:"thesis_text"`
	AntithesisText          string           `json:"antithesis_text"`
	FalsifiabilityCondition string           `json:"falsifiability_condition"`
	Confidence              string           `json:"confidence"`
	Evidence                []ReviewEvidence `json:"evidence"`
	BuildsOnClaimID         string           `json:"builds_on_claim_id,omitempty"`
	ResonanceOptions        []string         `json:"resonance_options,omitempty"`
	Scores                  *ReviewScores    `json:"scores,omitempty"`
}

// ClaimsReviewPayload is the review_claims pause point. The done event's
// awaiting_input_type distinguishes the synthesis pause from the verdict
// pause, which share this shape.
type ClaimsReviewPayload struct {
	Summary string        `json:"summary,omitempty"`
	Round   int           `json:"round"`
	Claims  []ReviewClaim `json:"claims"`
}

// ReviewGraphNode is one accepted or qualified claim in the knowledge graph.
type ReviewGraphNode struct {
	ClaimID   string `json:"claim_id"`
	ClaimText string `json:"claim_text"`
	Status    string `json:"status"`
	Round     int    `json:"round"`
}

// ReviewGraphEdge is one typed relation between graph nodes.
type ReviewGraphEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	EdgeType string `json:"edge_type"`
}

// ReviewNegativeEntry is one rejected claim preserved as negative knowledge.
type ReviewNegativeEntry struct {
	ClaimText string `json:"claim_text"`
	Reason    string `json:"reason"`
	Round     int    `json:"round"`
}

// BuildReviewPayload is the review_build pause point.
type BuildReviewPayload struct {
	Summary           string                `json:"summary,omitempty"`
	Nodes             []ReviewGraphNode     `json:"nodes"`
	Edges             []ReviewGraphEdge     `json:"edges"`
	Gaps              []string              `json:"gaps"`
	NegativeKnowledge []ReviewNegativeEntry `json:"negative_knowledge"`
	RoundsRemaining   int                   `json:"rounds_remaining"`
	Options           []string              `json:"options"` // continue, deep_dive, resolve, add_insight
}
