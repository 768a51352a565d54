package forge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateDefaults(t *testing.T) {
	s := NewState(LocalePortuguese, 0.93)

	assert.Equal(t, PhaseDecompose, s.CurrentPhase)
	assert.Equal(t, 0, s.CurrentRound)
	assert.Equal(t, DefaultMaxRounds, s.MaxRounds)
	assert.Equal(t, LocalePortuguese, s.Locale)
	assert.InDelta(t, 0.93, s.LocaleConfidence, 1e-9)
	assert.NotNil(t, s.AntithesesSearched)
	assert.NotNil(t, s.WorkingDocument)
	assert.False(t, s.AwaitingUserInput)
}

func TestTransitionToResetsPhaseBookkeeping(t *testing.T) {
	s := NewState(LocaleEnglish, 1.0)
	s.RecordWebSearch("bug rate trends", "rates are falling")
	s.WorkingDocument["problem_framing"] = "framing text"
	s.DocumentUpdatedThisPhase = true

	s.TransitionTo(PhaseExplore)

	assert.Equal(t, PhaseExplore, s.CurrentPhase)
	assert.False(t, s.HasWebSearchThisPhase(), "web-search log resets on transition")
	assert.False(t, s.DocumentUpdatedThisPhase, "document flag resets on transition")
	assert.Equal(t, "framing text", s.WorkingDocument["problem_framing"], "document content survives")
}

func TestResetForNewRound(t *testing.T) {
	s := NewState(LocaleEnglish, 1.0)
	s.TransitionTo(PhaseBuild)
	s.CurrentRoundClaims = []RoundClaim{{ClaimID: "c-1", ClaimText: "first claim"}}
	s.AntithesesSearched[0] = true
	s.FalsificationAttempted[0] = true
	s.NoveltyChecked[0] = true
	s.NegativeKnowledgeConsulted = true
	s.PreviousClaimsReferenced = true
	s.RecordWebSearch("q", "s")
	s.GraphNodes = []GraphNode{{ClaimID: "c-1", ClaimText: "first claim", Status: ClaimValidated}}
	s.NegativeKnowledge = []NegativeEntry{{ClaimText: "bad idea", Reason: "falsified", Round: 0}}
	s.ResearchArchive = []ResearchEntry{{Query: "q", Purpose: PurposeStateOfArt}}

	s.ResetForNewRound()

	assert.Equal(t, 1, s.CurrentRound)
	assert.Empty(t, s.CurrentRoundClaims)
	assert.Empty(t, s.AntithesesSearched)
	assert.Empty(t, s.FalsificationAttempted)
	assert.Empty(t, s.NoveltyChecked)
	assert.False(t, s.NegativeKnowledgeConsulted)
	assert.False(t, s.PreviousClaimsReferenced)
	assert.False(t, s.HasWebSearchThisPhase())

	// Cumulative structures survive the round boundary.
	assert.Len(t, s.GraphNodes, 1)
	assert.Len(t, s.NegativeKnowledge, 1)
	assert.Len(t, s.ResearchArchive, 1)
}

func TestResearchDirectiveQueue(t *testing.T) {
	s := NewState(LocaleEnglish, 1.0)

	drained := s.ConsumeResearchDirectives()
	assert.Empty(t, drained)

	s.AddResearchDirective(Directive{DirectiveType: "explore_domain", Domain: "mycology"})
	s.AddResearchDirective(Directive{DirectiveType: "search", Query: "hyphal networks"})

	drained = s.ConsumeResearchDirectives()
	require.Len(t, drained, 2)
	assert.Equal(t, "mycology", drained[0].Domain)
	assert.Equal(t, "hyphal networks", drained[1].Query)

	assert.Empty(t, s.ConsumeResearchDirectives(), "queue drains fully")
}

func TestDerivedClaimProperties(t *testing.T) {
	s := NewState(LocaleEnglish, 1.0)
	assert.Equal(t, 0, s.ClaimsInRound())
	assert.Equal(t, 3, s.ClaimsRemaining())
	assert.True(t, s.AllClaimsHaveAntithesis(), "vacuously true on an empty buffer")

	s.CurrentRoundClaims = []RoundClaim{
		{ClaimID: "c-1", ThesisText: "t1", AntithesisText: "a1"},
		{ThesisText: "t2"},
	}

	assert.Equal(t, 2, s.ClaimsInRound())
	assert.Equal(t, 1, s.CompletedClaims())
	assert.Equal(t, 1, s.ClaimsRemaining())
	assert.False(t, s.AllClaimsHaveAntithesis())

	s.CurrentRoundClaims[1].AntithesisText = "a2"
	assert.True(t, s.AllClaimsHaveAntithesis())

	s.FalsificationAttempted[0] = true
	assert.False(t, s.AllClaimsFalsified())
	s.FalsificationAttempted[1] = true
	assert.True(t, s.AllClaimsFalsified())
}

func TestMaxRoundsReached(t *testing.T) {
	s := NewState(LocaleEnglish, 1.0)
	for round := 0; round < 3; round++ {
		s.CurrentRound = round
		assert.False(t, s.MaxRoundsReached(), "round %d", round)
	}
	s.CurrentRound = 4
	assert.True(t, s.MaxRoundsReached())

	s.MaxRounds = 3
	s.CurrentRound = 2
	assert.True(t, s.MaxRoundsReached(), "configured cap respected")

	s.MaxRounds = 0
	s.CurrentRound = 3
	assert.False(t, s.MaxRoundsReached(), "zero cap falls back to the default")
}

func TestUserSelectionFilters(t *testing.T) {
	s := NewState(LocaleEnglish, 1.0)
	s.Reframings = []Reframing{
		{Text: "as a knowledge problem", Selected: true},
		{Text: "as an incentive problem"},
	}
	s.Analogies = []Analogy{
		{Domain: "immune systems", Resonated: true},
		{Domain: "ant colonies"},
		{Domain: "markets", Resonated: true},
	}
	s.Assumptions = []Assumption{
		{Text: "bugs are inevitable", SelectedOption: 2},
		{Text: "testing catches most bugs", SelectedOption: -1},
	}

	assert.Len(t, s.SelectedReframings(), 1)
	assert.Len(t, s.ResonantAnalogies(), 2)
	require.Len(t, s.ReviewedAssumptions(), 1)
	assert.Equal(t, "bugs are inevitable", s.ReviewedAssumptions()[0].Text)
}

func TestLookupHelpers(t *testing.T) {
	s := NewState(LocaleEnglish, 1.0)
	s.CurrentRoundClaims = []RoundClaim{{ClaimID: "c-1"}}
	s.GraphNodes = []GraphNode{{ClaimID: "c-1", Status: ClaimValidated}}

	assert.NotNil(t, s.ClaimByIndex(0))
	assert.Nil(t, s.ClaimByIndex(1))
	assert.Nil(t, s.ClaimByIndex(-1))

	assert.NotNil(t, s.NodeByClaimID("c-1"))
	assert.Nil(t, s.NodeByClaimID("c-2"))
}
