package forge

import (
	"encoding/json"
	"fmt"
	"sort"
)

// snapshot is the JSON shape persisted in the session row. It mirrors State
// with sets flattened to sorted index lists and transients dropped. Legacy
// key names are accepted on decode and never written back.
type snapshot struct {
	CurrentPhase string  `json:"current_phase"`
	CurrentRound int     `json:"current_round"`
	MaxRounds    int     `json:"max_rounds"`

	Locale           string  `json:"locale"`
	LocaleConfidence float64 `json:"locale_confidence"`

	Fundamentals         []string     `json:"fundamentals"`
	DecomposeApproach    string       `json:"decompose_approach"`
	StateOfArtResearched bool         `json:"state_of_art_researched"`
	Assumptions          []Assumption `json:"assumptions"`
	Reframings           []Reframing  `json:"reframings"`

	MorphologicalBox    []BoxParameter  `json:"morphological_box"`
	Analogies           []Analogy       `json:"analogies"`
	CrossDomainSearches int             `json:"cross_domain_search_count"`
	Contradictions      []Contradiction `json:"contradictions"`
	AdjacentPossible    []string        `json:"adjacent_possible"`
	SuggestedDomains    []string        `json:"suggested_domains"`

	CurrentRoundClaims []RoundClaim `json:"current_round_claims"`

	AntithesesSearched     []int `json:"antitheses_searched"`
	FalsificationAttempted []int `json:"falsification_attempted"`
	NoveltyChecked         []int `json:"novelty_checked"`

	GraphNodes                 []GraphNode     `json:"knowledge_graph_nodes"`
	GraphEdges                 []GraphEdge     `json:"knowledge_graph_edges"`
	NegativeKnowledge          []NegativeEntry `json:"negative_knowledge"`
	Gaps                       []string        `json:"gaps"`
	ConvergenceLocks           []string        `json:"convergence_locks"`
	NegativeKnowledgeConsulted bool            `json:"negative_knowledge_consulted"`
	PreviousClaimsReferenced   bool            `json:"previous_claims_referenced"`

	KnowledgeDocument string `json:"knowledge_document_markdown"`

	WorkingDocument          map[string]string `json:"working_document"`
	DocumentUpdatedThisPhase bool              `json:"document_updated_this_phase"`

	ResearchArchive    []ResearchEntry `json:"research_archive"`
	ResearchTokensUsed int             `json:"research_tokens_used"`

	ResearchDirectives []Directive `json:"research_directives"`

	WebSearchesThisPhase []WebSearch `json:"web_searches_this_phase"`
	// Renamed to web_searches_this_phase; accepted on decode only.
	LegacyWebSearches []WebSearch `json:"web_searches,omitempty"`

	AwaitingUserInput bool   `json:"awaiting_user_input"`
	AwaitingInputType string `json:"awaiting_input_type"`

	DeepDiveActive        bool   `json:"deep_dive_active"`
	DeepDiveTargetClaimID string `json:"deep_dive_target_claim_id"`
}

// Encode serializes the state for persistence. Transient fields (Cancelled)
// are excluded; sets come out as sorted lists so snapshots are stable and
// diffable.
func (s *State) Encode() (json.RawMessage, error) {
	snap := snapshot{
		CurrentPhase:               string(s.CurrentPhase),
		CurrentRound:               s.CurrentRound,
		MaxRounds:                  s.MaxRounds,
		Locale:                     string(s.Locale),
		LocaleConfidence:           s.LocaleConfidence,
		Fundamentals:               s.Fundamentals,
		DecomposeApproach:          s.DecomposeApproach,
		StateOfArtResearched:       s.StateOfArtResearched,
		Assumptions:                s.Assumptions,
		Reframings:                 s.Reframings,
		MorphologicalBox:           s.MorphologicalBox,
		Analogies:                  s.Analogies,
		CrossDomainSearches:        s.CrossDomainSearches,
		Contradictions:             s.Contradictions,
		AdjacentPossible:           s.AdjacentPossible,
		SuggestedDomains:           s.SuggestedDomains,
		CurrentRoundClaims:         s.CurrentRoundClaims,
		AntithesesSearched:         sortedIndexes(s.AntithesesSearched),
		FalsificationAttempted:     sortedIndexes(s.FalsificationAttempted),
		NoveltyChecked:             sortedIndexes(s.NoveltyChecked),
		GraphNodes:                 s.GraphNodes,
		GraphEdges:                 s.GraphEdges,
		NegativeKnowledge:          s.NegativeKnowledge,
		Gaps:                       s.Gaps,
		ConvergenceLocks:           s.ConvergenceLocks,
		NegativeKnowledgeConsulted: s.NegativeKnowledgeConsulted,
		PreviousClaimsReferenced:   s.PreviousClaimsReferenced,
		KnowledgeDocument:          s.KnowledgeDocument,
		WorkingDocument:            s.WorkingDocument,
		DocumentUpdatedThisPhase:   s.DocumentUpdatedThisPhase,
		ResearchArchive:            s.ResearchArchive,
		ResearchTokensUsed:         s.ResearchTokensUsed,
		ResearchDirectives:         s.ResearchDirectives,
		WebSearchesThisPhase:       s.WebSearchesThisPhase,
		AwaitingUserInput:          s.AwaitingUserInput,
		AwaitingInputType:          s.AwaitingInputType,
		DeepDiveActive:             s.DeepDiveActive,
		DeepDiveTargetClaimID:      s.DeepDiveTargetClaimID,
	}
	return json.Marshal(snap)
}

// Decode restores a state from a persisted snapshot. Missing keys restore to
// defaults, which keeps snapshots written by older versions loadable. A nil
// or empty document yields a fresh default state.
func Decode(raw json.RawMessage) (*State, error) {
	s := defaultState()
	if len(raw) == 0 {
		return s, nil
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode state snapshot: %w", err)
	}

	if snap.CurrentPhase != "" {
		phase := Phase(snap.CurrentPhase)
		if !phase.IsValid() {
			return nil, fmt.Errorf("snapshot has unknown phase %q", snap.CurrentPhase)
		}
		s.CurrentPhase = phase
	}
	s.CurrentRound = snap.CurrentRound
	if snap.MaxRounds > 0 {
		s.MaxRounds = snap.MaxRounds
	}
	if snap.Locale != "" {
		locale := Locale(snap.Locale)
		if !locale.IsValid() {
			return nil, fmt.Errorf("snapshot has unknown locale %q", snap.Locale)
		}
		s.Locale = locale
	}
	s.LocaleConfidence = snap.LocaleConfidence

	s.Fundamentals = snap.Fundamentals
	s.DecomposeApproach = snap.DecomposeApproach
	s.StateOfArtResearched = snap.StateOfArtResearched
	s.Assumptions = snap.Assumptions
	s.Reframings = snap.Reframings

	s.MorphologicalBox = snap.MorphologicalBox
	s.Analogies = snap.Analogies
	s.CrossDomainSearches = snap.CrossDomainSearches
	s.Contradictions = snap.Contradictions
	s.AdjacentPossible = snap.AdjacentPossible
	s.SuggestedDomains = snap.SuggestedDomains

	s.CurrentRoundClaims = snap.CurrentRoundClaims

	s.AntithesesSearched = toIndexSet(snap.AntithesesSearched)
	s.FalsificationAttempted = toIndexSet(snap.FalsificationAttempted)
	s.NoveltyChecked = toIndexSet(snap.NoveltyChecked)

	s.GraphNodes = snap.GraphNodes
	s.GraphEdges = snap.GraphEdges
	s.NegativeKnowledge = snap.NegativeKnowledge
	s.Gaps = snap.Gaps
	s.ConvergenceLocks = snap.ConvergenceLocks
	s.NegativeKnowledgeConsulted = snap.NegativeKnowledgeConsulted
	s.PreviousClaimsReferenced = snap.PreviousClaimsReferenced

	s.KnowledgeDocument = snap.KnowledgeDocument

	if snap.WorkingDocument != nil {
		s.WorkingDocument = snap.WorkingDocument
	}
	s.DocumentUpdatedThisPhase = snap.DocumentUpdatedThisPhase

	s.ResearchArchive = snap.ResearchArchive
	s.ResearchTokensUsed = snap.ResearchTokensUsed
	s.ResearchDirectives = snap.ResearchDirectives

	s.WebSearchesThisPhase = snap.WebSearchesThisPhase
	if s.WebSearchesThisPhase == nil && snap.LegacyWebSearches != nil {
		s.WebSearchesThisPhase = snap.LegacyWebSearches
	}

	s.AwaitingUserInput = snap.AwaitingUserInput
	s.AwaitingInputType = snap.AwaitingInputType
	s.DeepDiveActive = snap.DeepDiveActive
	s.DeepDiveTargetClaimID = snap.DeepDiveTargetClaimID

	return s, nil
}

func sortedIndexes(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for i, ok := range set {
		if ok {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

func toIndexSet(indexes []int) map[int]bool {
	set := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		set[i] = true
	}
	return set
}
