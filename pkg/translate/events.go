package translate

import (
	"context"
	"log/slog"

	"github.com/noesis-forge/noesis/pkg/events"
	"github.com/noesis-forge/noesis/pkg/forge"
)

// TranslateEvent localizes the free-text fields of review and
// knowledge_document payloads. Identifiers, URLs, enum tags, scores and the
// build decision tokens pass through untouched so clients can still match
// on them. Payloads are copied, never mutated: the runner persists the
// English originals. A failed translation keeps that field's original text;
// the event itself is never dropped.
func (t *Translator) TranslateEvent(ctx context.Context, ev events.Event, locale forge.Locale) events.Event {
	if locale == forge.LocaleEnglish || !locale.IsValid() {
		return ev
	}
	switch p := ev.Data.(type) {
	case events.DecomposeReviewPayload:
		ev.Data = t.decomposeReview(ctx, p, locale)
	case events.ExploreReviewPayload:
		ev.Data = t.exploreReview(ctx, p, locale)
	case events.ClaimsReviewPayload:
		ev.Data = t.claimsReview(ctx, p, locale)
	case events.BuildReviewPayload:
		ev.Data = t.buildReview(ctx, p, locale)
	case events.KnowledgeDocumentPayload:
		p.Markdown = t.text(ctx, p.Markdown, locale)
		ev.Data = p
	}
	return ev
}

// text translates one field, keeping the original on failure.
func (t *Translator) text(ctx context.Context, s string, locale forge.Locale) string {
	out, err := t.Translate(ctx, s, locale)
	if err != nil {
		slog.Warn("Translation failed, keeping original text", "locale", locale, "error", err)
		return s
	}
	return out
}

// list translates a slice of texts into a fresh slice.
func (t *Translator) list(ctx context.Context, in []string, locale forge.Locale) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = t.text(ctx, s, locale)
	}
	return out
}

func (t *Translator) decomposeReview(ctx context.Context, p events.DecomposeReviewPayload, locale forge.Locale) events.DecomposeReviewPayload {
	p.Question = t.text(ctx, p.Question, locale)
	p.Context = t.text(ctx, p.Context, locale)
	p.Fundamentals = t.list(ctx, p.Fundamentals, locale)

	if len(p.Assumptions) > 0 {
		assumptions := make([]events.ReviewAssumption, len(p.Assumptions))
		for i, a := range p.Assumptions {
			a.Text = t.text(ctx, a.Text, locale)
			a.Source = t.text(ctx, a.Source, locale)
			a.Options = t.list(ctx, a.Options, locale)
			assumptions[i] = a
		}
		p.Assumptions = assumptions
	}

	if len(p.Reframings) > 0 {
		reframings := make([]events.ReviewReframing, len(p.Reframings))
		for i, r := range p.Reframings {
			r.Text = t.text(ctx, r.Text, locale)
			r.Type = t.text(ctx, r.Type, locale)
			r.Reasoning = t.text(ctx, r.Reasoning, locale)
			r.ResonanceOptions = t.list(ctx, r.ResonanceOptions, locale)
			reframings[i] = r
		}
		p.Reframings = reframings
	}
	return p
}

func (t *Translator) exploreReview(ctx context.Context, p events.ExploreReviewPayload, locale forge.Locale) events.ExploreReviewPayload {
	p.Question = t.text(ctx, p.Question, locale)
	p.Context = t.text(ctx, p.Context, locale)

	if len(p.MorphologicalBox) > 0 {
		box := make([]events.ReviewBoxParameter, len(p.MorphologicalBox))
		for i, param := range p.MorphologicalBox {
			param.Name = t.text(ctx, param.Name, locale)
			param.Values = t.list(ctx, param.Values, locale)
			box[i] = param
		}
		p.MorphologicalBox = box
	}

	if len(p.Analogies) > 0 {
		analogies := make([]events.ReviewAnalogy, len(p.Analogies))
		for i, a := range p.Analogies {
			a.Domain = t.text(ctx, a.Domain, locale)
			a.Description = t.text(ctx, a.Description, locale)
			a.ResonanceOptions = t.list(ctx, a.ResonanceOptions, locale)
			// SemanticDistance is a near/medium/far tag.
			analogies[i] = a
		}
		p.Analogies = analogies
	}

	if len(p.Contradictions) > 0 {
		contradictions := make([]events.ReviewContradiction, len(p.Contradictions))
		for i, c := range p.Contradictions {
			c.PropertyA = t.text(ctx, c.PropertyA, locale)
			c.PropertyB = t.text(ctx, c.PropertyB, locale)
			c.Description = t.text(ctx, c.Description, locale)
			contradictions[i] = c
		}
		p.Contradictions = contradictions
	}

	p.AdjacentPossible = t.list(ctx, p.AdjacentPossible, locale)
	return p
}

func (t *Translator) claimsReview(ctx context.Context, p events.ClaimsReviewPayload, locale forge.Locale) events.ClaimsReviewPayload {
	p.Summary = t.text(ctx, p.Summary, locale)
	if len(p.Claims) == 0 {
		return p
	}

	claims := make([]events.ReviewClaim, len(p.Claims))
	for i, c := range p.Claims {
		c.ClaimText = t.text(ctx, c.ClaimText, locale)
		c.ThesisText = t.text(ctx, c.ThesisText, locale)
		c.AntithesisText = t.text(ctx, c.AntithesisText, locale)
		c.FalsifiabilityCondition = t.text(ctx, c.FalsifiabilityCondition, locale)
		c.ResonanceOptions = t.list(ctx, c.ResonanceOptions, locale)
		if len(c.Evidence) > 0 {
			evidence := make([]events.ReviewEvidence, len(c.Evidence))
			for j, e := range c.Evidence {
				// URL, Title and Type name the external source as published.
				e.Summary = t.text(ctx, e.Summary, locale)
				evidence[j] = e
			}
			c.Evidence = evidence
		}
		// Confidence tag, claim IDs and scores pass through.
		claims[i] = c
	}
	p.Claims = claims
	return p
}

func (t *Translator) buildReview(ctx context.Context, p events.BuildReviewPayload, locale forge.Locale) events.BuildReviewPayload {
	p.Summary = t.text(ctx, p.Summary, locale)
	p.Gaps = t.list(ctx, p.Gaps, locale)

	if len(p.Nodes) > 0 {
		nodes := make([]events.ReviewGraphNode, len(p.Nodes))
		for i, n := range p.Nodes {
			n.ClaimText = t.text(ctx, n.ClaimText, locale)
			nodes[i] = n
		}
		p.Nodes = nodes
	}

	if len(p.NegativeKnowledge) > 0 {
		negative := make([]events.ReviewNegativeEntry, len(p.NegativeKnowledge))
		for i, n := range p.NegativeKnowledge {
			n.ClaimText = t.text(ctx, n.ClaimText, locale)
			n.Reason = t.text(ctx, n.Reason, locale)
			negative[i] = n
		}
		p.NegativeKnowledge = negative
	}

	// Edges carry only claim IDs and edge-type tags. Options are the
	// decision tokens the client posts back, so they survive verbatim.
	return p
}
