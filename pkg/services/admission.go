package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/models"
)

// validateInput admits a review answer against the pause the session is in.
// The runner applies admitted input permissively (stale indexes are
// skipped), so everything that deserves a rejection is rejected here.
func validateInput(st *forge.State, in *models.UserInput) error {
	if !st.AwaitingUserInput {
		return ErrNotAwaitingInput
	}
	if in.Type != st.AwaitingInputType {
		// The verdict pause also accepts plain resonance feedback; the
		// model refines the round and presents it again.
		if st.AwaitingInputType != models.InputVerdicts || in.Type != models.InputClaimsReview {
			return NewValidationError("type",
				fmt.Sprintf("session awaits %s, got %s", st.AwaitingInputType, in.Type))
		}
	}

	switch in.Type {
	case models.InputDecomposeReview:
		return validateDecomposeReview(in.DecomposeReview)
	case models.InputExploreReview:
		return validateExploreReview(in.ExploreReview)
	case models.InputClaimsReview:
		return validateClaimsReview(in.ClaimsReview)
	case models.InputVerdicts:
		return validateVerdicts(in.Verdicts)
	case models.InputBuildDecision:
		return validateBuildDecision(st, in.BuildDecision)
	default:
		return NewValidationError("type", fmt.Sprintf("unknown input type %q", in.Type))
	}
}

func validateDecomposeReview(in *models.DecomposeReview) error {
	if in == nil {
		return NewValidationError("decompose_review", "missing payload")
	}
	if err := validateOptionResponses("assumption_responses", in.AssumptionResponses); err != nil {
		return err
	}
	return validateOptionResponses("reframing_responses", in.ReframingResponses)
}

func validateExploreReview(in *models.ExploreReview) error {
	if in == nil {
		return NewValidationError("explore_review", "missing payload")
	}
	if err := validateOptionResponses("analogy_responses", in.AnalogyResponses); err != nil {
		return err
	}
	for i, c := range in.AddedContradictions {
		if strings.TrimSpace(c.PropertyA) == "" || strings.TrimSpace(c.PropertyB) == "" {
			return NewValidationError(
				fmt.Sprintf("added_contradictions[%d]", i),
				"both properties are required")
		}
	}
	return nil
}

func validateClaimsReview(in *models.ClaimsReview) error {
	if in == nil {
		return NewValidationError("claims_review", "missing payload")
	}
	return validateOptionResponses("claim_responses", in.ClaimResponses)
}

func validateVerdicts(in *models.VerdictsInput) error {
	if in == nil || len(in.Verdicts) == 0 {
		return NewValidationError("verdicts", "at least one verdict is required")
	}
	for i, v := range in.Verdicts {
		verdict := forge.Verdict(v.Verdict)
		if !verdict.IsValid() {
			return NewValidationError(
				fmt.Sprintf("verdicts[%d].verdict", i),
				fmt.Sprintf("must be accept, reject, qualify or merge, got %q", v.Verdict))
		}
		if verdict == forge.VerdictMerge && strings.TrimSpace(v.MergeWithClaimID) == "" {
			return NewValidationError(
				fmt.Sprintf("verdicts[%d].merge_with_claim_id", i),
				"merge requires the surviving claim's id")
		}
	}
	return nil
}

func validateBuildDecision(st *forge.State, in *models.BuildDecisionInput) error {
	if in == nil {
		return NewValidationError("build_decision", "missing payload")
	}
	switch in.Decision {
	case "continue", "deep_dive":
		if gate := forge.CanStartNewRound(st); gate != nil {
			return NewValidationError("decision", gate.Message)
		}
		if in.Decision == "deep_dive" && strings.TrimSpace(in.DeepDiveClaimID) == "" {
			return NewValidationError("deep_dive_claim_id", "deep_dive requires a target claim id")
		}
	case "resolve":
	case "add_insight":
		if strings.TrimSpace(in.UserInsight) == "" {
			return NewValidationError("user_insight", "add_insight requires the insight text")
		}
	default:
		return NewValidationError("decision",
			fmt.Sprintf("must be continue, deep_dive, resolve or add_insight, got %q", in.Decision))
	}
	return nil
}

func validateOptionResponses(field string, rs []models.OptionResponse) error {
	for i, r := range rs {
		if utf8.RuneCountInString(r.CustomArgument) > models.MaxCustomArgumentLen {
			return NewValidationError(
				fmt.Sprintf("%s[%d].custom_argument", field, i),
				fmt.Sprintf("must be at most %d characters", models.MaxCustomArgumentLen))
		}
	}
	return nil
}
