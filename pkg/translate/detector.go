package translate

import (
	"github.com/pemistahl/lingua-go"

	"github.com/noesis-forge/noesis/pkg/forge"
)

// linguaLocales maps each lingua model onto its session locale.
var linguaLocales = map[lingua.Language]forge.Locale{
	lingua.English:    forge.LocaleEnglish,
	lingua.Portuguese: forge.LocalePortuguese,
	lingua.Spanish:    forge.LocaleSpanish,
	lingua.French:     forge.LocaleFrench,
	lingua.German:     forge.LocaleGerman,
	lingua.Italian:    forge.LocaleItalian,
	lingua.Japanese:   forge.LocaleJapanese,
	lingua.Korean:     forge.LocaleKorean,
	lingua.Chinese:    forge.LocaleChinese,
	lingua.Russian:    forge.LocaleRussian,
}

// Detector identifies which supported locale a text is written in. It is
// safe for concurrent use.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector restricted to the supported locales. Text
// in any other language resolves to its closest supported neighbor with low
// confidence instead of an unsupported code.
func NewDetector() *Detector {
	langs := make([]lingua.Language, 0, len(linguaLocales))
	for l := range linguaLocales {
		langs = append(langs, l)
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().FromLanguages(langs...).Build(),
	}
}

// Detect returns the most likely locale and the detector's confidence in
// it. Undetectable input, like text without letters, falls back to English
// with zero confidence.
func (d *Detector) Detect(text string) (forge.Locale, float64) {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return forge.LocaleEnglish, 0
	}
	locale, ok := linguaLocales[lang]
	if !ok {
		return forge.LocaleEnglish, 0
	}
	return locale, d.detector.ComputeLanguageConfidence(text, lang)
}
