package conversation

import (
	"fmt"
	"strings"

	"github.com/noesis-forge/noesis/pkg/forge"
)

// ForTransition builds the context block injected into the first user
// message of the phase being entered. Every line is derived from state at
// the moment of the transition, so the next phase anchors on what the user
// actually selected rather than on what the model remembers producing.
func ForTransition(st *forge.State, entering forge.Phase) string {
	switch entering {
	case forge.PhaseExplore:
		return decomposeDigest(st)
	case forge.PhaseSynthesize:
		if st.CurrentRound == 0 {
			return exploreDigest(st)
		}
		return newRoundDigest(st)
	case forge.PhaseValidate:
		return claimsDigest(st)
	case forge.PhaseBuild:
		return verdictsDigest(st)
	case forge.PhaseCrystallize:
		return CrystallizeDigest(st)
	default:
		return ""
	}
}

func decomposeDigest(st *forge.State) string {
	var b strings.Builder
	b.WriteString("### Decomposition results\n\n")

	writeList(&b, "Fundamentals", st.Fundamentals)

	if reviewed := st.ReviewedAssumptions(); len(reviewed) > 0 {
		b.WriteString("Assumptions after user review:\n")
		for _, a := range reviewed {
			choice := "unresolved"
			if a.SelectedOption >= 0 && a.SelectedOption < len(a.Options) {
				choice = a.Options[a.SelectedOption]
			}
			fmt.Fprintf(&b, "- %s -> %s\n", a.Text, choice)
		}
		b.WriteString("\n")
	}

	if selected := st.SelectedReframings(); len(selected) > 0 {
		b.WriteString("Reframings the user selected:\n")
		for _, r := range selected {
			fmt.Fprintf(&b, "- (%s) %s\n", r.Type, r.Text)
		}
		b.WriteString("\n")
	}

	writeList(&b, "Domains the user suggested", st.SuggestedDomains)
	return strings.TrimRight(b.String(), "\n")
}

func exploreDigest(st *forge.State) string {
	var b strings.Builder
	b.WriteString("### Exploration results\n\n")

	if len(st.MorphologicalBox) > 0 {
		b.WriteString("Morphological box:\n")
		for _, p := range st.MorphologicalBox {
			fmt.Fprintf(&b, "- %s: %s\n", p.Name, strings.Join(p.Values, " | "))
		}
		b.WriteString("\n")
	}

	if resonant := st.ResonantAnalogies(); len(resonant) > 0 {
		b.WriteString("Analogies the user marked as resonant:\n")
		for _, a := range resonant {
			fmt.Fprintf(&b, "- %s: %s\n", a.Domain, truncate(a.Description, 200))
		}
		b.WriteString("\n")
	}

	if len(st.Contradictions) > 0 {
		b.WriteString("Contradictions to resolve through synthesis:\n")
		for _, c := range st.Contradictions {
			fmt.Fprintf(&b, "- %s vs %s: %s\n", c.PropertyA, c.PropertyB, truncate(c.Description, 160))
		}
		b.WriteString("\n")
	}

	writeList(&b, "Adjacent possible", st.AdjacentPossible)
	writeList(&b, "Domains the user suggested", st.SuggestedDomains)
	return strings.TrimRight(b.String(), "\n")
}

func claimsDigest(st *forge.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Round %d claims to validate\n\n", st.CurrentRound)

	for i, c := range st.CurrentRoundClaims {
		fmt.Fprintf(&b, "%d. [%s] %s (confidence: %s)\n", i+1, c.ClaimID, c.ClaimText, c.Confidence)
		if c.AntithesisText != "" {
			fmt.Fprintf(&b, "   Antithesis it answers: %s\n", truncate(c.AntithesisText, 200))
		}
		if c.FalsifiabilityCondition != "" {
			fmt.Fprintf(&b, "   Falsified if: %s\n", c.FalsifiabilityCondition)
		}
		if c.BuildsOnClaimID != "" {
			fmt.Fprintf(&b, "   Builds on: %s\n", c.BuildsOnClaimID)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func verdictsDigest(st *forge.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Round %d verdicts\n\n", st.CurrentRound)

	for i, c := range st.CurrentRoundClaims {
		fmt.Fprintf(&b, "%d. [%s] %s -> %s", i+1, c.ClaimID, truncate(c.ClaimText, 200), c.Verdict)
		switch {
		case c.Qualification != "":
			fmt.Fprintf(&b, " (%s)", c.Qualification)
		case c.RejectionReason != "":
			fmt.Fprintf(&b, " (%s)", c.RejectionReason)
		}
		b.WriteString("\n")
		if c.Scores != nil {
			fmt.Fprintf(&b, "   Scores: novelty %.2f, groundedness %.2f, falsifiability %.2f, significance %.2f\n",
				c.Scores.Novelty, c.Scores.Groundedness, c.Scores.Falsifiability, c.Scores.Significance)
		}
	}

	fmt.Fprintf(&b, "\nGraph before this round: %d nodes, %d edges.\n", len(st.GraphNodes), len(st.GraphEdges))
	fmt.Fprintf(&b, "Rounds remaining after this one: %d.", roundsRemaining(st))
	return b.String()
}

func newRoundDigest(st *forge.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Starting round %d\n\n", st.CurrentRound)

	if len(st.GraphNodes) > 0 {
		b.WriteString("Knowledge graph so far:\n")
		for _, n := range st.GraphNodes {
			fmt.Fprintf(&b, "- [%s] %s (%s, round %d)\n", n.ClaimID, truncate(n.ClaimText, 160), n.Status, n.Round)
		}
		b.WriteString("\n")
	}

	writeList(&b, "Gaps to address", st.Gaps)

	if len(st.NegativeKnowledge) > 0 {
		b.WriteString("Negative knowledge (already tried, do not repeat):\n")
		for _, n := range st.NegativeKnowledge {
			fmt.Fprintf(&b, "- %s: %s\n", truncate(n.ClaimText, 120), truncate(n.Reason, 120))
		}
		b.WriteString("\n")
	}

	if st.DeepDiveActive && st.DeepDiveTargetClaimID != "" {
		fmt.Fprintf(&b, "Deep dive requested on claim %s: every new claim this round must build on it.\n\n", st.DeepDiveTargetClaimID)
	}

	fmt.Fprintf(&b, "New claims must reference or build on prior rounds. Rounds remaining: %d.", roundsRemaining(st))
	return b.String()
}

// CrystallizeDigest assembles the document-writing context, organized by the
// target sections of the final document. It is deliberately the largest
// digest: CRYSTALLIZE has no research tool and works from this block, the
// working document, and the conversation tail.
func CrystallizeDigest(st *forge.State) string {
	var b strings.Builder
	b.WriteString("### Document inputs\n\n")

	b.WriteString("[S1-2] Framing\n")
	for _, f := range st.Fundamentals {
		fmt.Fprintf(&b, "- Fundamental: %s\n", f)
	}
	for _, a := range st.ReviewedAssumptions() {
		choice := ""
		if a.SelectedOption >= 0 && a.SelectedOption < len(a.Options) {
			choice = " -> " + a.Options[a.SelectedOption]
		}
		fmt.Fprintf(&b, "- Assumption: %s%s\n", a.Text, choice)
	}
	for _, r := range st.SelectedReframings() {
		fmt.Fprintf(&b, "- Selected reframing (%s): %s\n", r.Type, r.Text)
	}
	b.WriteString("\n[S3] Exploration\n")
	for _, p := range st.MorphologicalBox {
		fmt.Fprintf(&b, "- Parameter %s: %s\n", p.Name, strings.Join(p.Values, " | "))
	}
	for _, a := range st.ResonantAnalogies() {
		fmt.Fprintf(&b, "- Resonant analogy from %s: %s\n", a.Domain, truncate(a.Description, 240))
	}
	for _, c := range st.Contradictions {
		fmt.Fprintf(&b, "- Contradiction: %s vs %s\n", c.PropertyA, c.PropertyB)
	}
	for _, ap := range st.AdjacentPossible {
		fmt.Fprintf(&b, "- Adjacent possible: %s\n", ap)
	}

	b.WriteString("\n[S4-5] Claims in the graph\n")
	for _, n := range st.GraphNodes {
		fmt.Fprintf(&b, "- [%s] %s (%s, round %d)\n", n.ClaimID, n.ClaimText, n.Status, n.Round)
	}

	b.WriteString("\n[S6] Graph edges\n")
	for _, e := range st.GraphEdges {
		fmt.Fprintf(&b, "- %s %s %s\n", e.SourceClaimID, e.Type, e.TargetClaimID)
	}

	b.WriteString("\n[S7] Negative knowledge\n")
	for _, n := range st.NegativeKnowledge {
		fmt.Fprintf(&b, "- %s: %s (round %d)\n", truncate(n.ClaimText, 160), truncate(n.Reason, 160), n.Round)
	}

	b.WriteString("\n[S8-9] Gaps and open directions\n")
	for _, g := range st.Gaps {
		fmt.Fprintf(&b, "- %s\n", g)
	}

	fmt.Fprintf(&b, "\n[S10] Rounds\n- Rounds completed: %d of %d allowed.\n", st.CurrentRound+1, maxRounds(st))
	fmt.Fprintf(&b, "- Research archive: %d entries.\n", len(st.ResearchArchive))
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(header + ":\n")
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func maxRounds(st *forge.State) int {
	if st.MaxRounds > 0 {
		return st.MaxRounds
	}
	return forge.DefaultMaxRounds
}

func roundsRemaining(st *forge.State) int {
	remaining := maxRounds(st) - st.CurrentRound - 1
	if remaining < 0 {
		return 0
	}
	return remaining
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
