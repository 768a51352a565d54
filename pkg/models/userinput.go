package models

import (
	"encoding/json"
	"fmt"
)

// User-input discriminator values, one per review pause.
const (
	InputDecomposeReview = "decompose_review"
	InputExploreReview   = "explore_review"
	InputClaimsReview    = "claims_review"
	InputVerdicts        = "verdicts"
	InputBuildDecision   = "build_decision"
)

// MaxCustomArgumentLen caps free-text arguments attached to review responses.
const MaxCustomArgumentLen = 500

// OptionResponse answers one reviewed item by index. SelectedOption indexes
// the item's option list (0 = no resonance for graduated options).
type OptionResponse struct {
	Index          int    `json:"index"`
	SelectedOption int    `json:"selected_option"`
	CustomArgument string `json:"custom_argument,omitempty"`
}

// ContradictionInput is a user-added productive tension.
type ContradictionInput struct {
	PropertyA   string `json:"property_a"`
	PropertyB   string `json:"property_b"`
	Description string `json:"description,omitempty"`
}

// DecomposeReview carries the user's answers to the DECOMPOSE pause.
type DecomposeReview struct {
	AssumptionResponses []OptionResponse `json:"assumption_responses"`
	ReframingResponses  []OptionResponse `json:"reframing_responses"`
	SuggestedDomains    []string         `json:"suggested_domains,omitempty"`
}

// ExploreReview carries the user's answers to the EXPLORE pause.
type ExploreReview struct {
	AnalogyResponses    []OptionResponse     `json:"analogy_responses"`
	SuggestedDomains    []string             `json:"suggested_domains,omitempty"`
	AddedContradictions []ContradictionInput `json:"added_contradictions,omitempty"`
}

// ClaimsReview carries resonance answers for the presented round claims.
type ClaimsReview struct {
	ClaimResponses []OptionResponse `json:"claim_responses"`
}

// ClaimVerdict is the user's ruling on one validated claim.
type ClaimVerdict struct {
	ClaimIndex       int    `json:"claim_index"`
	Verdict          string `json:"verdict"` // accept|reject|qualify|merge
	RejectionReason  string `json:"rejection_reason,omitempty"`
	Qualification    string `json:"qualification,omitempty"`
	MergeWithClaimID string `json:"merge_with_claim_id,omitempty"`
}

// VerdictsInput carries the VALIDATE pause verdict list.
type VerdictsInput struct {
	Verdicts []ClaimVerdict `json:"verdicts"`
}

// BuildDecisionInput steers what happens after the BUILD review.
type BuildDecisionInput struct {
	Decision          string   `json:"decision"` // continue|deep_dive|resolve|add_insight
	SelectedGaps      []string `json:"selected_gaps,omitempty"`
	ContinueDirection string   `json:"continue_direction,omitempty"`
	DeepDiveClaimID   string   `json:"deep_dive_claim_id,omitempty"`
	UserInsight       string   `json:"user_insight,omitempty"`
	UserEvidenceURLs  []string `json:"user_evidence_urls,omitempty"`
}

// UserInput is the tagged union posted to the user-input endpoint. Exactly
// one arm is non-nil after a successful unmarshal, matching Type.
type UserInput struct {
	Type            string
	DecomposeReview *DecomposeReview
	ExploreReview   *ExploreReview
	ClaimsReview    *ClaimsReview
	Verdicts        *VerdictsInput
	BuildDecision   *BuildDecisionInput
}

// UnmarshalJSON decodes the flat wire shape: a "type" discriminator with the
// arm's fields as siblings.
func (u *UserInput) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("failed to read input type: %w", err)
	}

	*u = UserInput{Type: head.Type}

	switch head.Type {
	case InputDecomposeReview:
		u.DecomposeReview = &DecomposeReview{}
		return json.Unmarshal(data, u.DecomposeReview)
	case InputExploreReview:
		u.ExploreReview = &ExploreReview{}
		return json.Unmarshal(data, u.ExploreReview)
	case InputClaimsReview:
		u.ClaimsReview = &ClaimsReview{}
		return json.Unmarshal(data, u.ClaimsReview)
	case InputVerdicts:
		u.Verdicts = &VerdictsInput{}
		return json.Unmarshal(data, u.Verdicts)
	case InputBuildDecision:
		u.BuildDecision = &BuildDecisionInput{}
		return json.Unmarshal(data, u.BuildDecision)
	case "":
		return fmt.Errorf("missing input type")
	default:
		return fmt.Errorf("unknown input type %q", head.Type)
	}
}
