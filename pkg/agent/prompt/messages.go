package prompt

import (
	"fmt"
	"strings"

	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/models"
)

// InitialUserMessage opens a session with the problem statement.
func (a *Assembler) InitialUserMessage(problem string, locale forge.Locale) string {
	if locale == forge.LocalePortuguese {
		return "# Problema\n\n" + problem + "\n\nInicie a fase DECOMPOSE."
	}
	return "# Problem\n\n" + problem + "\n\nBegin the DECOMPOSE phase."
}

// PhaseEntryMessage wraps a phase digest into the user message that opens
// a resumed turn in a new phase.
func (a *Assembler) PhaseEntryMessage(entering forge.Phase, digest string, locale forge.Locale) string {
	if locale == forge.LocalePortuguese {
		if digest == "" {
			return fmt.Sprintf("Você está entrando na fase %s. Prossiga.", entering)
		}
		return fmt.Sprintf("Você está entrando na fase %s.\n\n%s\n\nProssiga com o trabalho da fase.", entering, digest)
	}
	if digest == "" {
		return fmt.Sprintf("You are entering the %s phase. Proceed.", entering)
	}
	return fmt.Sprintf("You are entering the %s phase.\n\n%s\n\nProceed with the phase work.", entering, digest)
}

// LanguageCorrection is the retry instruction appended when a reply
// violates the session's language rule.
func (a *Assembler) LanguageCorrection(locale forge.Locale) string {
	name := locale.DisplayName()
	return fmt.Sprintf("Your previous reply was not written in %s. Respond only in %s for the rest of the session, and restate your last message in %s before continuing.", name, name, name)
}

// DocumentReminder nudges a model that ended its turn without touching the
// working document this phase.
func (a *Assembler) DocumentReminder(locale forge.Locale) string {
	if locale == forge.LocalePortuguese {
		return "Você ainda não atualizou o documento de trabalho nesta fase. Chame update_working_document com o que foi estabelecido até agora e então continue."
	}
	return "You have not updated the working document this phase. Call update_working_document with what has been established so far, then continue."
}

// FormatUserInput renders a review response as the user message that
// resumes the paused turn. Validation has already run; out-of-range
// indexes are skipped rather than failed.
func (a *Assembler) FormatUserInput(st *forge.State, in *models.UserInput) string {
	var b strings.Builder
	switch in.Type {
	case models.InputDecomposeReview:
		formatDecomposeReview(&b, st, in.DecomposeReview)
	case models.InputExploreReview:
		formatExploreReview(&b, st, in.ExploreReview)
	case models.InputClaimsReview:
		formatClaimsReview(&b, st, in.ClaimsReview)
	case models.InputVerdicts:
		formatVerdicts(&b, st, in.Verdicts)
	case models.InputBuildDecision:
		formatBuildDecision(&b, in.BuildDecision)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatDecomposeReview(b *strings.Builder, st *forge.State, in *models.DecomposeReview) {
	b.WriteString("The user reviewed the decomposition.\n\n")

	if len(in.AssumptionResponses) > 0 {
		b.WriteString("Assumption responses:\n")
		for _, r := range in.AssumptionResponses {
			if r.Index < 0 || r.Index >= len(st.Assumptions) {
				continue
			}
			a := st.Assumptions[r.Index]
			writeOptionLine(b, a.Text, a.Options, r)
		}
		b.WriteString("\n")
	}

	if len(in.ReframingResponses) > 0 {
		b.WriteString("Reframing resonance:\n")
		for _, r := range in.ReframingResponses {
			if r.Index < 0 || r.Index >= len(st.Reframings) {
				continue
			}
			rf := st.Reframings[r.Index]
			writeOptionLine(b, rf.Text, rf.ResonanceOptions, r)
		}
		b.WriteString("\n")
	}

	if len(in.SuggestedDomains) > 0 {
		fmt.Fprintf(b, "Domains the user wants explored: %s\n\n", strings.Join(in.SuggestedDomains, ", "))
	}
	b.WriteString("Apply these selections, then complete the phase.")
}

func formatExploreReview(b *strings.Builder, st *forge.State, in *models.ExploreReview) {
	b.WriteString("The user reviewed the exploration.\n\n")

	if len(in.AnalogyResponses) > 0 {
		b.WriteString("Analogy resonance:\n")
		for _, r := range in.AnalogyResponses {
			if r.Index < 0 || r.Index >= len(st.Analogies) {
				continue
			}
			an := st.Analogies[r.Index]
			writeOptionLine(b, an.Domain+": "+an.Description, an.ResonanceOptions, r)
		}
		b.WriteString("\n")
	}

	if len(in.AddedContradictions) > 0 {
		b.WriteString("Contradictions the user added:\n")
		for _, c := range in.AddedContradictions {
			fmt.Fprintf(b, "- %s vs %s", c.PropertyA, c.PropertyB)
			if c.Description != "" {
				fmt.Fprintf(b, ": %s", c.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(in.SuggestedDomains) > 0 {
		fmt.Fprintf(b, "Domains the user wants explored: %s\n\n", strings.Join(in.SuggestedDomains, ", "))
	}
	b.WriteString("Incorporate this feedback, then complete the phase.")
}

func formatClaimsReview(b *strings.Builder, st *forge.State, in *models.ClaimsReview) {
	b.WriteString("The user responded to the presented claims without issuing verdicts.\n\n")
	for _, r := range in.ClaimResponses {
		if r.Index < 0 || r.Index >= len(st.CurrentRoundClaims) {
			continue
		}
		c := st.CurrentRoundClaims[r.Index]
		writeOptionLine(b, fmt.Sprintf("[%s] %s", c.ClaimID, c.ClaimText), c.ResonanceOptions, r)
	}
	b.WriteString("\nRefine the claims accordingly and present the round again.")
}

func formatVerdicts(b *strings.Builder, st *forge.State, in *models.VerdictsInput) {
	b.WriteString("The user issued verdicts on the round:\n\n")
	for _, v := range in.Verdicts {
		if v.ClaimIndex < 0 || v.ClaimIndex >= len(st.CurrentRoundClaims) {
			continue
		}
		c := st.CurrentRoundClaims[v.ClaimIndex]
		fmt.Fprintf(b, "- [%s] %s -> %s", c.ClaimID, c.ClaimText, v.Verdict)
		switch {
		case v.Qualification != "":
			fmt.Fprintf(b, " (qualification: %s)", v.Qualification)
		case v.RejectionReason != "":
			fmt.Fprintf(b, " (reason: %s)", v.RejectionReason)
		case v.MergeWithClaimID != "":
			fmt.Fprintf(b, " (merge into %s)", v.MergeWithClaimID)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nApply the verdicts: add accepted and qualified claims to the graph, record rejections as negative knowledge, then analyze gaps and present the build options.")
}

func formatBuildDecision(b *strings.Builder, in *models.BuildDecisionInput) {
	switch in.Decision {
	case "continue":
		b.WriteString("The user chose to continue with another round.\n")
		if in.ContinueDirection != "" {
			fmt.Fprintf(b, "Direction: %s\n", in.ContinueDirection)
		}
		if len(in.SelectedGaps) > 0 {
			fmt.Fprintf(b, "Gaps to address: %s\n", strings.Join(in.SelectedGaps, "; "))
		}
	case "deep_dive":
		fmt.Fprintf(b, "The user chose a deep dive on claim %s. Every new claim this round must build on it.\n", in.DeepDiveClaimID)
	case "resolve":
		b.WriteString("The user chose to resolve the session. Move to CRYSTALLIZE and write the knowledge document.\n")
	case "add_insight":
		b.WriteString("The user contributed an insight:\n\n")
		fmt.Fprintf(b, "%s\n", in.UserInsight)
		if len(in.UserEvidenceURLs) > 0 {
			fmt.Fprintf(b, "\nSupporting URLs: %s\n", strings.Join(in.UserEvidenceURLs, ", "))
		}
		b.WriteString("\nRecord it with submit_user_insight, connect it to the graph, and present the build options again.")
	}
}

// writeOptionLine renders one option response, resolving the selected
// option to its label when the index is valid.
func writeOptionLine(b *strings.Builder, subject string, options []string, r models.OptionResponse) {
	label := fmt.Sprintf("option %d", r.SelectedOption)
	if r.SelectedOption >= 0 && r.SelectedOption < len(options) {
		label = fmt.Sprintf("%q", options[r.SelectedOption])
	}
	fmt.Fprintf(b, "- %s -> %s", subject, label)
	if r.CustomArgument != "" {
		fmt.Fprintf(b, " (user adds: %s)", r.CustomArgument)
	}
	b.WriteString("\n")
}
