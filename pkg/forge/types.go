package forge

// Phase identifies one of the six pipeline phases a session moves through.
type Phase string

const (
	// PhaseDecompose breaks the problem into fundamentals, assumptions, and reframings
	PhaseDecompose Phase = "DECOMPOSE"
	// PhaseExplore builds the morphological box, analogies, and contradictions
	PhaseExplore Phase = "EXPLORE"
	// PhaseSynthesize produces dialectical claims (thesis → antithesis → synthesis)
	PhaseSynthesize Phase = "SYNTHESIZE"
	// PhaseValidate falsifies, novelty-checks, and scores the round's claims
	PhaseValidate Phase = "VALIDATE"
	// PhaseBuild applies user verdicts and grows the knowledge graph
	PhaseBuild Phase = "BUILD"
	// PhaseCrystallize produces the final knowledge document
	PhaseCrystallize Phase = "CRYSTALLIZE"
)

// IsValid checks if the phase is one of the six pipeline phases
func (p Phase) IsValid() bool {
	switch p {
	case PhaseDecompose, PhaseExplore, PhaseSynthesize, PhaseValidate, PhaseBuild, PhaseCrystallize:
		return true
	default:
		return false
	}
}

// Next returns the phase that follows p in the forward pipeline order.
// BUILD returns CRYSTALLIZE; the BUILD → SYNTHESIZE loop for a new round
// is a separate transition driven by the build decision.
func (p Phase) Next() Phase {
	switch p {
	case PhaseDecompose:
		return PhaseExplore
	case PhaseExplore:
		return PhaseSynthesize
	case PhaseSynthesize:
		return PhaseValidate
	case PhaseValidate:
		return PhaseBuild
	case PhaseBuild:
		return PhaseCrystallize
	default:
		return p
	}
}

// SessionStatus tracks the lifecycle of a session row.
// Active statuses mirror the current phase; crystallized and cancelled are terminal.
type SessionStatus string

const (
	StatusDecomposing  SessionStatus = "decomposing"
	StatusExploring    SessionStatus = "exploring"
	StatusSynthesizing SessionStatus = "synthesizing"
	StatusValidating   SessionStatus = "validating"
	StatusBuilding     SessionStatus = "building"
	StatusCrystallized SessionStatus = "crystallized"
	StatusCancelled    SessionStatus = "cancelled"
)

// IsValid checks if the session status is known
func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusDecomposing, StatusExploring, StatusSynthesizing,
		StatusValidating, StatusBuilding, StatusCrystallized, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further agent turns
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCrystallized || s == StatusCancelled
}

// StatusForPhase maps a phase to the session status shown while it runs
func StatusForPhase(p Phase) SessionStatus {
	switch p {
	case PhaseDecompose:
		return StatusDecomposing
	case PhaseExplore:
		return StatusExploring
	case PhaseSynthesize:
		return StatusSynthesizing
	case PhaseValidate:
		return StatusValidating
	case PhaseBuild:
		return StatusBuilding
	case PhaseCrystallize:
		return StatusCrystallized
	default:
		return StatusDecomposing
	}
}

// Locale identifies the language a session runs in. Locale is fixed at
// session creation; all review payloads are translated into it.
type Locale string

const (
	LocaleEnglish    Locale = "en"
	LocalePortuguese Locale = "pt"
	LocaleSpanish    Locale = "es"
	LocaleFrench     Locale = "fr"
	LocaleGerman     Locale = "de"
	LocaleItalian    Locale = "it"
	LocaleJapanese   Locale = "ja"
	LocaleKorean     Locale = "ko"
	LocaleChinese    Locale = "zh"
	LocaleRussian    Locale = "ru"
)

// SupportedLocales lists every locale the prompt assembler and translator handle.
var SupportedLocales = []Locale{
	LocaleEnglish, LocalePortuguese, LocaleSpanish, LocaleFrench, LocaleGerman,
	LocaleItalian, LocaleJapanese, LocaleKorean, LocaleChinese, LocaleRussian,
}

// IsValid checks if the locale is supported
func (l Locale) IsValid() bool {
	for _, s := range SupportedLocales {
		if l == s {
			return true
		}
	}
	return false
}

// DisplayName returns the language name in English, used in prompts
func (l Locale) DisplayName() string {
	switch l {
	case LocaleEnglish:
		return "English"
	case LocalePortuguese:
		return "Portuguese"
	case LocaleSpanish:
		return "Spanish"
	case LocaleFrench:
		return "French"
	case LocaleGerman:
		return "German"
	case LocaleItalian:
		return "Italian"
	case LocaleJapanese:
		return "Japanese"
	case LocaleKorean:
		return "Korean"
	case LocaleChinese:
		return "Chinese"
	case LocaleRussian:
		return "Russian"
	default:
		return "English"
	}
}

// EdgeType classifies a knowledge-graph edge between two claims.
type EdgeType string

const (
	EdgeSupports    EdgeType = "supports"
	EdgeContradicts EdgeType = "contradicts"
	EdgeExtends     EdgeType = "extends"
	EdgeSupersedes  EdgeType = "supersedes"
	EdgeDependsOn   EdgeType = "depends_on"
	EdgeMergedFrom  EdgeType = "merged_from"
)

// IsValid checks if the edge type is known
func (e EdgeType) IsValid() bool {
	switch e {
	case EdgeSupports, EdgeContradicts, EdgeExtends, EdgeSupersedes, EdgeDependsOn, EdgeMergedFrom:
		return true
	default:
		return false
	}
}

// Verdict is the user's judgment on a claim during the round review.
type Verdict string

const (
	VerdictAccept  Verdict = "accept"
	VerdictReject  Verdict = "reject"
	VerdictQualify Verdict = "qualify"
	VerdictMerge   Verdict = "merge"
)

// IsValid checks if the verdict is known
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictAccept, VerdictReject, VerdictQualify, VerdictMerge:
		return true
	default:
		return false
	}
}

// AllowsGraphAddition reports whether a claim with this verdict may enter the graph
func (v Verdict) AllowsGraphAddition() bool {
	return v == VerdictAccept || v == VerdictQualify || v == VerdictMerge
}

// Confidence is the model's self-reported confidence tier for a claim.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// IsValid checks if the confidence tier is known
func (c Confidence) IsValid() bool {
	return c == ConfidenceLow || c == ConfidenceMedium || c == ConfidenceHigh
}

// ClaimStatus tracks the durable lifecycle of a knowledge claim.
type ClaimStatus string

const (
	ClaimProposed        ClaimStatus = "proposed"
	ClaimValidated       ClaimStatus = "validated"
	ClaimQualified       ClaimStatus = "qualified"
	ClaimRejected        ClaimStatus = "rejected"
	ClaimSuperseded      ClaimStatus = "superseded"
	ClaimUserContributed ClaimStatus = "user_contributed"
)

// IsValid checks if the claim status is known
func (s ClaimStatus) IsValid() bool {
	switch s {
	case ClaimProposed, ClaimValidated, ClaimQualified, ClaimRejected, ClaimSuperseded, ClaimUserContributed:
		return true
	default:
		return false
	}
}

// EvidenceType classifies an evidence row relative to its claim.
type EvidenceType string

const (
	EvidenceSupporting    EvidenceType = "supporting"
	EvidenceContradicting EvidenceType = "contradicting"
	EvidenceContextual    EvidenceType = "contextual"
)

// IsValid checks if the evidence type is known
func (e EvidenceType) IsValid() bool {
	return e == EvidenceSupporting || e == EvidenceContradicting || e == EvidenceContextual
}

// ResearchPurpose parameterizes the research sub-agent's system prompt.
type ResearchPurpose string

const (
	PurposeStateOfArt      ResearchPurpose = "state_of_art"
	PurposeEvidenceFor     ResearchPurpose = "evidence_for"
	PurposeEvidenceAgainst ResearchPurpose = "evidence_against"
	PurposeCrossDomain     ResearchPurpose = "cross_domain"
	PurposeNoveltyCheck    ResearchPurpose = "novelty_check"
	PurposeFalsification   ResearchPurpose = "falsification"
)

// IsValid checks if the research purpose is known
func (p ResearchPurpose) IsValid() bool {
	switch p {
	case PurposeStateOfArt, PurposeEvidenceFor, PurposeEvidenceAgainst,
		PurposeCrossDomain, PurposeNoveltyCheck, PurposeFalsification:
		return true
	default:
		return false
	}
}

// DocumentSections lists the canonical section names of both the working
// document and the final knowledge document, in document order.
var DocumentSections = []string{
	"executive_summary",
	"problem_framing",
	"exploration",
	"validated_claims",
	"evidence",
	"knowledge_graph",
	"negative_knowledge",
	"gaps",
	"future_directions",
	"round_history",
}

// IsDocumentSection reports whether name is a canonical section name
func IsDocumentSection(name string) bool {
	for _, s := range DocumentSections {
		if s == name {
			return true
		}
	}
	return false
}
