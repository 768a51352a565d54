// Package forge holds the per-session state machine that the agent runner
// drives through the six-phase pipeline, the pure gate predicates that
// accept or reject tool calls and phase transitions, and the snapshot codec
// used for persistence and crash recovery.
//
// State is authoritative while a runner holds the session; the database
// snapshot is a recovery point, not a live view. All mutation happens on the
// goroutine that holds the session lock, so State itself carries no locking.
package forge

import "sync/atomic"

// DefaultMaxRounds is the SYNTHESIZE→VALIDATE→BUILD cycle cap per session.
const DefaultMaxRounds = 5

// MaxClaimsPerRound bounds the claim buffer within one round.
const MaxClaimsPerRound = 3

// Assumption is a surfaced premise of the problem statement awaiting user review.
type Assumption struct {
	Text           string   `json:"text"`
	Source         string   `json:"source"`
	Options        []string `json:"options"`
	SelectedOption int      `json:"selected_option"` // -1 until the user reviews it
}

// Reframing is an alternative formulation of the problem with graduated
// resonance options (option 0 = no resonance).
type Reframing struct {
	Text             string   `json:"text"`
	Type             string   `json:"type"`
	Reasoning        string   `json:"reasoning"`
	ResonanceOptions []string `json:"resonance_options"`
	Selected         bool     `json:"selected"`
}

// BoxParameter is one axis of the morphological box.
type BoxParameter struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Analogy is a cross-domain structural parallel found during EXPLORE.
type Analogy struct {
	Domain           string   `json:"domain"`
	Description      string   `json:"description"`
	SemanticDistance string   `json:"semantic_distance"`
	ResonanceOptions []string `json:"resonance_options"`
	Resonated        bool     `json:"resonated"`
}

// Contradiction is a pair of properties in productive tension.
type Contradiction struct {
	PropertyA   string `json:"property_a"`
	PropertyB   string `json:"property_b"`
	Description string `json:"description"`
}

// Source is a web source reference shared by research results and evidence.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

// EvidenceRef is a typed source attached to a claim.
type EvidenceRef struct {
	URL     string       `json:"url"`
	Title   string       `json:"title"`
	Summary string       `json:"summary,omitempty"`
	Type    EvidenceType `json:"type"`
}

// ClaimScores holds the four validation scores, each in [0,1].
type ClaimScores struct {
	Novelty        float64 `json:"novelty"`
	Groundedness   float64 `json:"groundedness"`
	Falsifiability float64 `json:"falsifiability"`
	Significance   float64 `json:"significance"`
}

// RoundClaim is a claim under construction in the current round's buffer.
// ClaimID is assigned when create_synthesis persists the durable row.
type RoundClaim struct {
	ClaimID                 string        `json:"claim_id"`
	ClaimText               string        `json:"claim_text"`
	ThesisText              string        `json:"thesis_text"`
	AntithesisText          string        `json:"antithesis_text"`
	FalsifiabilityCondition string        `json:"falsifiability_condition"`
	Confidence              Confidence    `json:"confidence"`
	Evidence                []EvidenceRef `json:"evidence"`
	BuildsOnClaimID         string        `json:"builds_on_claim_id,omitempty"`
	ResonanceOptions        []string      `json:"resonance_options"`
	Verdict                 Verdict       `json:"verdict,omitempty"`
	Qualification           string        `json:"qualification,omitempty"`
	RejectionReason         string        `json:"rejection_reason,omitempty"`
	Scores                  *ClaimScores  `json:"scores,omitempty"`
}

// GraphNode is a claim admitted to the knowledge graph.
type GraphNode struct {
	ClaimID   string      `json:"claim_id"`
	ClaimText string      `json:"claim_text"`
	Status    ClaimStatus `json:"status"`
	Round     int         `json:"round"`
}

// GraphEdge links two claims by ID. Endpoints are plain IDs, never pointers.
type GraphEdge struct {
	SourceClaimID string   `json:"source_claim_id"`
	TargetClaimID string   `json:"target_claim_id"`
	Type          EdgeType `json:"edge_type"`
}

// NegativeEntry records what was tried and discarded: rejected claims and
// successful falsifications. Consulted in round ≥ 1 before new syntheses.
type NegativeEntry struct {
	ClaimID   string `json:"claim_id,omitempty"`
	ClaimText string `json:"claim_text"`
	Reason    string `json:"reason"`
	Round     int    `json:"round"`
}

// ResearchEntry is one delegated research call in the append-only archive.
type ResearchEntry struct {
	Query   string          `json:"query"`
	Purpose ResearchPurpose `json:"purpose"`
	Phase   Phase           `json:"phase"`
	Summary string          `json:"summary"`
	Sources []Source        `json:"sources"`
}

// WebSearch is one entry in the per-phase search log.
type WebSearch struct {
	Query   string `json:"query"`
	Summary string `json:"summary"`
}

// Directive is a user-steering hint consumed by the next agent turn.
type Directive struct {
	DirectiveType string `json:"directive_type"`
	Query         string `json:"query"`
	Domain        string `json:"domain"`
}

// State is the per-session state machine. One instance per live session,
// owned by the runner holding the session lock.
type State struct {
	// Phase tracking.
	CurrentPhase Phase `json:"current_phase"`
	CurrentRound int   `json:"current_round"`
	MaxRounds    int   `json:"max_rounds"`

	// Locale, fixed at session creation.
	Locale           Locale  `json:"locale"`
	LocaleConfidence float64 `json:"locale_confidence"`

	// DECOMPOSE findings.
	Fundamentals         []string     `json:"fundamentals"`
	DecomposeApproach    string       `json:"decompose_approach"`
	StateOfArtResearched bool         `json:"state_of_art_researched"`
	Assumptions          []Assumption `json:"assumptions"`
	Reframings           []Reframing  `json:"reframings"`

	// EXPLORE findings.
	MorphologicalBox      []BoxParameter  `json:"morphological_box"`
	Analogies             []Analogy       `json:"analogies"`
	CrossDomainSearches   int             `json:"cross_domain_search_count"`
	Contradictions        []Contradiction `json:"contradictions"`
	AdjacentPossible      []string        `json:"adjacent_possible"`
	SuggestedDomains      []string        `json:"suggested_domains"`

	// SYNTHESIZE: the current round's claim buffer (≤ MaxClaimsPerRound).
	// A claim enters as a partial on state_thesis and is completed by
	// create_synthesis, which assigns its ClaimID.
	CurrentRoundClaims []RoundClaim `json:"current_round_claims"`

	// VALIDATE bookkeeping, keyed by claim index within the round.
	AntithesesSearched     map[int]bool `json:"antitheses_searched"`
	FalsificationAttempted map[int]bool `json:"falsification_attempted"`
	NoveltyChecked         map[int]bool `json:"novelty_checked"`

	// BUILD: the cumulative graph surviving across rounds.
	GraphNodes                []GraphNode     `json:"knowledge_graph_nodes"`
	GraphEdges                []GraphEdge     `json:"knowledge_graph_edges"`
	NegativeKnowledge         []NegativeEntry `json:"negative_knowledge"`
	Gaps                      []string        `json:"gaps"`
	ConvergenceLocks          []string        `json:"convergence_locks"`
	NegativeKnowledgeConsulted bool           `json:"negative_knowledge_consulted"`
	PreviousClaimsReferenced  bool            `json:"previous_claims_referenced"`

	// CRYSTALLIZE artifact.
	KnowledgeDocument string `json:"knowledge_document_markdown"`

	// Working document: section name → content.
	WorkingDocument          map[string]string `json:"working_document"`
	DocumentUpdatedThisPhase bool              `json:"document_updated_this_phase"`

	// Research archive, append-only across the whole session.
	ResearchArchive    []ResearchEntry `json:"research_archive"`
	ResearchTokensUsed int             `json:"research_tokens_used"`

	// Ephemeral user steering, drained by the next turn.
	ResearchDirectives []Directive `json:"research_directives"`

	// Per-phase web-search log, reset on every transition.
	WebSearchesThisPhase []WebSearch `json:"web_searches_this_phase"`

	// Pause bookkeeping set by pause tools.
	AwaitingUserInput bool   `json:"awaiting_user_input"`
	AwaitingInputType string `json:"awaiting_input_type"`

	// Deep-dive mode requested by a build decision.
	DeepDiveActive        bool   `json:"deep_dive_active"`
	DeepDiveTargetClaimID string `json:"deep_dive_target_claim_id"`

	// Cancelled is transient: set by the cancel endpoint, observed at runner
	// checkpoints, never persisted. Atomic because the service flips it from
	// outside the turn while the runner polls it between deltas.
	Cancelled atomic.Bool `json:"-"`
}

// NewState returns a fresh state at DECOMPOSE round 0 for the given locale.
func NewState(locale Locale, localeConfidence float64) *State {
	s := defaultState()
	s.Locale = locale
	s.LocaleConfidence = localeConfidence
	return s
}

func defaultState() *State {
	return &State{
		CurrentPhase:           PhaseDecompose,
		CurrentRound:           0,
		MaxRounds:              DefaultMaxRounds,
		Locale:                 LocaleEnglish,
		AntithesesSearched:     make(map[int]bool),
		FalsificationAttempted: make(map[int]bool),
		NoveltyChecked:         make(map[int]bool),
		WorkingDocument:        make(map[string]string),
	}
}

// TransitionTo moves the state to phase, resetting per-phase bookkeeping:
// the web-search log and the working-document flag.
func (s *State) TransitionTo(phase Phase) {
	s.CurrentPhase = phase
	s.WebSearchesThisPhase = nil
	s.DocumentUpdatedThisPhase = false
}

// ResetForNewRound starts the next SYNTHESIZE round: increments the round,
// clears the claim buffer and every per-round validation set, clears the
// per-round cumulative gate flags and the web-search log. The graph,
// negative knowledge, and research archive survive.
func (s *State) ResetForNewRound() {
	s.CurrentRound++
	s.CurrentRoundClaims = nil
	s.AntithesesSearched = make(map[int]bool)
	s.FalsificationAttempted = make(map[int]bool)
	s.NoveltyChecked = make(map[int]bool)
	s.NegativeKnowledgeConsulted = false
	s.PreviousClaimsReferenced = false
	s.WebSearchesThisPhase = nil
}

// RecordWebSearch appends to the per-phase search log.
func (s *State) RecordWebSearch(query, summary string) {
	s.WebSearchesThisPhase = append(s.WebSearchesThisPhase, WebSearch{Query: query, Summary: summary})
}

// AddResearchDirective enqueues a user-steering hint.
func (s *State) AddResearchDirective(d Directive) {
	s.ResearchDirectives = append(s.ResearchDirectives, d)
}

// ConsumeResearchDirectives drains and returns all queued directives.
func (s *State) ConsumeResearchDirectives() []Directive {
	out := s.ResearchDirectives
	s.ResearchDirectives = nil
	return out
}

// ClaimsInRound is the number of claims in the current round's buffer,
// partial or complete.
func (s *State) ClaimsInRound() int {
	return len(s.CurrentRoundClaims)
}

// CompletedClaims counts the buffered claims create_synthesis has completed.
func (s *State) CompletedClaims() int {
	n := 0
	for _, c := range s.CurrentRoundClaims {
		if c.ClaimID != "" {
			n++
		}
	}
	return n
}

// ClaimsRemaining is how many more claims this round admits.
func (s *State) ClaimsRemaining() int {
	return MaxClaimsPerRound - s.ClaimsInRound()
}

// HasWebSearchThisPhase reports whether any research happened in this phase,
// whether direct or delegated.
func (s *State) HasWebSearchThisPhase() bool {
	return len(s.WebSearchesThisPhase) > 0
}

// ResonantAnalogies returns the analogies the user marked as resonant.
func (s *State) ResonantAnalogies() []Analogy {
	var out []Analogy
	for _, a := range s.Analogies {
		if a.Resonated {
			out = append(out, a)
		}
	}
	return out
}

// SelectedReframings returns the reframings the user selected.
func (s *State) SelectedReframings() []Reframing {
	var out []Reframing
	for _, r := range s.Reframings {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}

// ReviewedAssumptions returns the assumptions the user has responded to.
func (s *State) ReviewedAssumptions() []Assumption {
	var out []Assumption
	for _, a := range s.Assumptions {
		if a.SelectedOption >= 0 {
			out = append(out, a)
		}
	}
	return out
}

// AllClaimsHaveAntithesis reports whether every buffered claim has a
// non-empty antithesis.
func (s *State) AllClaimsHaveAntithesis() bool {
	for _, c := range s.CurrentRoundClaims {
		if c.AntithesisText == "" {
			return false
		}
	}
	return true
}

// AllClaimsFalsified reports whether falsification was attempted on every
// buffered claim.
func (s *State) AllClaimsFalsified() bool {
	for i := range s.CurrentRoundClaims {
		if !s.FalsificationAttempted[i] {
			return false
		}
	}
	return true
}

// AllClaimsNoveltyChecked reports whether every buffered claim was
// novelty-checked.
func (s *State) AllClaimsNoveltyChecked() bool {
	for i := range s.CurrentRoundClaims {
		if !s.NoveltyChecked[i] {
			return false
		}
	}
	return true
}

// MaxRoundsReached reports whether another round may not start.
func (s *State) MaxRoundsReached() bool {
	max := s.MaxRounds
	if max <= 0 {
		max = DefaultMaxRounds
	}
	return s.CurrentRound >= max-1
}

// ClaimByIndex returns the buffered claim at index, or nil when out of range.
func (s *State) ClaimByIndex(i int) *RoundClaim {
	if i < 0 || i >= len(s.CurrentRoundClaims) {
		return nil
	}
	return &s.CurrentRoundClaims[i]
}

// NodeByClaimID returns the graph node for a claim ID, or nil.
func (s *State) NodeByClaimID(id string) *GraphNode {
	for i := range s.GraphNodes {
		if s.GraphNodes[i].ClaimID == id {
			return &s.GraphNodes[i]
		}
	}
	return nil
}
