package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noesis-forge/noesis/pkg/forge"
)

func TestBuildSystemPromptCoversAllPhasesWhenUnscoped(t *testing.T) {
	a := NewAssembler()
	full := a.BuildSystemPrompt(forge.LocaleEnglish, "")

	for _, marker := range []string{"### DECOMPOSE", "### EXPLORE", "### SYNTHESIZE", "### VALIDATE", "### BUILD", "### CRYSTALLIZE"} {
		assert.Contains(t, full, marker)
	}
	assert.Contains(t, full, "## Identity")
	assert.Contains(t, full, "## Enforcement")
	assert.Contains(t, full, "Respond in English")
}

func TestBuildSystemPromptPhaseScopingIsShorter(t *testing.T) {
	a := NewAssembler()
	full := a.BuildSystemPrompt(forge.LocaleEnglish, "")

	for _, phase := range []forge.Phase{forge.PhaseDecompose, forge.PhaseSynthesize, forge.PhaseCrystallize} {
		scoped := a.BuildSystemPrompt(forge.LocaleEnglish, phase)
		assert.Less(t, len(scoped), len(full), "phase %s", phase)
	}

	decompose := a.BuildSystemPrompt(forge.LocaleEnglish, forge.PhaseDecompose)
	assert.Contains(t, decompose, "### DECOMPOSE")
	assert.NotContains(t, decompose, "### VALIDATE")
	assert.NotContains(t, decompose, "## Dialectical method")
}

func TestBuildSystemPromptSectionRelevance(t *testing.T) {
	a := NewAssembler()

	crystallize := a.BuildSystemPrompt(forge.LocaleEnglish, forge.PhaseCrystallize)
	assert.NotContains(t, crystallize, "## Web research")
	assert.Contains(t, crystallize, "## Research archive")
	assert.Contains(t, crystallize, "## Knowledge graph")

	synthesize := a.BuildSystemPrompt(forge.LocaleEnglish, forge.PhaseSynthesize)
	assert.Contains(t, synthesize, "## Dialectical method")
	assert.Contains(t, synthesize, "## Falsifiability")
	assert.Contains(t, synthesize, "CLAIM_LIMIT_EXCEEDED")

	build := a.BuildSystemPrompt(forge.LocaleEnglish, forge.PhaseBuild)
	assert.Contains(t, build, "## Knowledge graph")
	assert.Contains(t, build, "MAX_ROUNDS_EXCEEDED")
}

func TestBuildSystemPromptPortugueseIsFullyLocalized(t *testing.T) {
	a := NewAssembler()
	pt := a.BuildSystemPrompt(forge.LocalePortuguese, forge.PhaseDecompose)

	assert.Contains(t, pt, "## Identidade")
	assert.Contains(t, pt, "## Missão")
	assert.Contains(t, pt, "Responda em português")
	assert.NotContains(t, pt, "## Identity")
	// Error codes stay in their wire form even in localized text.
	assert.Contains(t, pt, "DECOMPOSE_INCOMPLETE")
}

func TestBuildSystemPromptBookendsForOtherLocales(t *testing.T) {
	a := NewAssembler()

	tests := []struct {
		locale  forge.Locale
		opening string
		closing string
	}{
		{forge.LocaleSpanish, "INSTRUCCIÓN DE IDIOMA", "RECORDATORIO FINAL"},
		{forge.LocaleJapanese, "言語ルール", "最終リマインダー"},
		{forge.LocaleRussian, "ЯЗЫКОВОЕ ПРАВИЛО", "ФИНАЛЬНОЕ НАПОМИНАНИЕ"},
	}
	for _, tt := range tests {
		p := a.BuildSystemPrompt(tt.locale, forge.PhaseExplore)
		require.True(t, strings.HasPrefix(p, tt.opening), "locale %s must open with its language rule", tt.locale)
		assert.Greater(t, strings.LastIndex(p, tt.closing), strings.Index(p, "## Output"),
			"locale %s must close with its language rule", tt.locale)
		// Body stays English.
		assert.Contains(t, p, "## Identity")
	}

	// English and Portuguese carry no bookends.
	en := a.BuildSystemPrompt(forge.LocaleEnglish, forge.PhaseExplore)
	assert.True(t, strings.HasPrefix(en, "## Identity"))
	pt := a.BuildSystemPrompt(forge.LocalePortuguese, forge.PhaseExplore)
	assert.True(t, strings.HasPrefix(pt, "## Identidade"))
}

func TestResearchSystemPromptPurposeGuides(t *testing.T) {
	a := NewAssembler()

	p := a.ResearchSystemPrompt(forge.PurposeFalsification, "")
	assert.Contains(t, p, "Search the web before answering")
	assert.Contains(t, p, "disprove the claim")
	assert.Contains(t, p, `"sources"`)

	withInstr := a.ResearchSystemPrompt(forge.PurposeCrossDomain, "focus on mechanisms used by social insects")
	assert.Contains(t, withInstr, "cross-domain analogy")
	assert.Contains(t, withInstr, "Orchestrator instructions:\nfocus on mechanisms used by social insects")
}

func TestResearchUserMessage(t *testing.T) {
	a := NewAssembler()
	m := a.ResearchUserMessage("passive cooling in termite mounds", 5)
	assert.Contains(t, m, "## Query")
	assert.Contains(t, m, "passive cooling in termite mounds")
	assert.Contains(t, m, "at most 5 sources")
}
