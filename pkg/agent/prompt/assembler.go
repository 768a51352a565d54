// Package prompt builds all prompt text for the agent runner: the
// phase-scoped system prompt, the user messages that open and resume
// turns, and the research sub-agent prompts. Builders are stateless; all
// state comes from parameters.
package prompt

import (
	"strings"

	"github.com/noesis-forge/noesis/pkg/forge"
)

// Assembler composes prompt text. Stateless and safe for concurrent use.
type Assembler struct{}

// NewAssembler creates an Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

var phaseOrder = []forge.Phase{
	forge.PhaseDecompose,
	forge.PhaseExplore,
	forge.PhaseSynthesize,
	forge.PhaseValidate,
	forge.PhaseBuild,
	forge.PhaseCrystallize,
}

// languageBookends carries the opening and closing language rule for the
// locales that reuse the English section text. English needs none and
// Portuguese has fully localized sections.
var languageBookends = map[forge.Locale][2]string{
	forge.LocaleSpanish: {
		"INSTRUCCIÓN DE IDIOMA: Responde SIEMPRE en español, en cada mensaje, durante toda la sesión.",
		"RECORDATORIO FINAL: Todas tus respuestas deben estar escritas en español.",
	},
	forge.LocaleFrench: {
		"RÈGLE DE LANGUE : Réponds TOUJOURS en français, dans chaque message, pendant toute la session.",
		"RAPPEL FINAL : Toutes tes réponses doivent être rédigées en français.",
	},
	forge.LocaleGerman: {
		"SPRACHREGEL: Antworte IMMER auf Deutsch, in jeder Nachricht, während der gesamten Sitzung.",
		"ABSCHLIESSENDE ERINNERUNG: Alle deine Antworten müssen auf Deutsch verfasst sein.",
	},
	forge.LocaleItalian: {
		"REGOLA LINGUISTICA: Rispondi SEMPRE in italiano, in ogni messaggio, per l'intera sessione.",
		"PROMEMORIA FINALE: Tutte le tue risposte devono essere scritte in italiano.",
	},
	forge.LocaleJapanese: {
		"言語ルール: セッション全体を通じて、必ず日本語で応答してください。",
		"最終リマインダー: すべての応答は日本語で記述してください。",
	},
	forge.LocaleKorean: {
		"언어 규칙: 세션 전체에서 항상 한국어로 응답하십시오.",
		"최종 알림: 모든 응답은 한국어로 작성해야 합니다.",
	},
	forge.LocaleChinese: {
		"语言规则:在整个会话中,始终使用中文回复。",
		"最后提醒:你的所有回复都必须使用中文。",
	},
	forge.LocaleRussian: {
		"ЯЗЫКОВОЕ ПРАВИЛО: Всегда отвечай на русском языке, в каждом сообщении, на протяжении всей сессии.",
		"ФИНАЛЬНОЕ НАПОМИНАНИЕ: Все твои ответы должны быть написаны на русском языке.",
	},
}

// BuildSystemPrompt assembles the system prompt for a locale and phase. An
// empty phase yields the full prompt covering every phase; a concrete phase
// yields a shorter prompt scoped to it. English and Portuguese use fully
// localized sections; the other locales use the English sections wrapped in
// a localized language rule at both ends.
func (a *Assembler) BuildSystemPrompt(locale forge.Locale, phase forge.Phase) string {
	pt := locale == forge.LocalePortuguese
	pick := func(en, ptText string) string {
		if pt {
			return ptText
		}
		return en
	}

	var parts []string
	bookend, hasBookend := languageBookends[locale]
	if hasBookend {
		parts = append(parts, bookend[0])
	}

	parts = append(parts,
		pick(identityEN, identityPT),
		pick(missionEN, missionPT),
		pick(pipelineEN, pipelinePT),
	)

	if phase != "" {
		parts = append(parts, pick(phaseGuidesEN[string(phase)], phaseGuidesPT[string(phase)]))
	} else {
		for _, p := range phaseOrder {
			parts = append(parts, pick(phaseGuidesEN[string(p)], phaseGuidesPT[string(p)]))
		}
	}

	parts = append(parts, pick(enforcementIntroEN, enforcementIntroPT))
	if phase != "" {
		parts = append(parts, pick(enforcementGuidesEN[string(phase)], enforcementGuidesPT[string(phase)]))
	} else {
		for _, p := range phaseOrder {
			parts = append(parts, pick(enforcementGuidesEN[string(p)], enforcementGuidesPT[string(p)]))
		}
	}

	if phase != forge.PhaseCrystallize {
		parts = append(parts, pick(webResearchEN, webResearchPT))
	}
	parts = append(parts, pick(researchArchiveEN, researchArchivePT))

	if phase == "" || phase == forge.PhaseSynthesize || phase == forge.PhaseValidate {
		parts = append(parts,
			pick(dialecticalMethodEN, dialecticalMethodPT),
			pick(falsifiabilityEN, falsifiabilityPT),
		)
	}
	if phase == "" || phase == forge.PhaseBuild || phase == forge.PhaseCrystallize {
		parts = append(parts, pick(knowledgeGraphEN, knowledgeGraphPT))
	}

	parts = append(parts,
		pick(workingDocumentEN, workingDocumentPT),
		pick(toolEfficiencyEN, toolEfficiencyPT),
		pick(contextManagementEN, contextManagementPT),
		pick(thinkingGuidanceEN, thinkingGuidancePT),
		pick(outputGuidanceEN, outputGuidancePT),
	)
	if locale == forge.LocaleEnglish {
		parts = append(parts, languageRuleEN)
	}

	if hasBookend {
		parts = append(parts, bookend[1])
	}
	return strings.Join(parts, "\n\n")
}
