// Package translate localizes user-facing output into the session locale.
// The Translator renders individual texts and whole review payloads on the
// research model; the Detector identifies which supported locale a text is
// written in. Translation is best effort end to end: a failed call falls
// back to the original English text rather than blocking the stream.
package translate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/llm"
)

const (
	// systemPrompt pins the model to bare translation. Markdown structure
	// and non-linguistic tokens must survive so translated documents still
	// render and option labels stay matchable.
	systemPrompt = `You are a translation engine. Translate the user's text into %s.
Preserve markdown structure, list markers, tables and code spans exactly.
Leave URLs, code, identifiers and numbers untranslated.
Output only the translation, with no preamble or commentary.`

	maxTokens = 8192
)

// cacheKey identifies one translated text. Review payloads repeat across
// pauses: claims reappear at the verdict pause, the graph grows by a few
// nodes a round, so most texts come back turn after turn.
type cacheKey struct {
	text   string
	locale forge.Locale
}

// Translator renders text into a session locale on the research model. It
// is safe for concurrent use. The cache is process-local and unbounded,
// sized in practice by the strings the live sessions emit.
type Translator struct {
	client llm.Client
	model  string

	mu    sync.Mutex
	cache map[cacheKey]string
}

// NewTranslator creates a translator bound to the given client and model.
func NewTranslator(client llm.Client, model string) *Translator {
	return &Translator{
		client: client,
		model:  model,
		cache:  make(map[cacheKey]string),
	}
}

// Translate renders text into the given locale. English sessions, blank
// input and unsupported locales pass through untouched. Results are cached
// per (text, locale); failures are not cached, so a later retry can succeed.
func (t *Translator) Translate(ctx context.Context, text string, locale forge.Locale) (string, error) {
	if locale == forge.LocaleEnglish || !locale.IsValid() || strings.TrimSpace(text) == "" {
		return text, nil
	}

	key := cacheKey{text: text, locale: locale}
	t.mu.Lock()
	cached, ok := t.cache[key]
	t.mu.Unlock()
	if ok {
		return cached, nil
	}

	temperature := 0.0
	resp, err := llm.Collect(ctx, t.client, llm.Request{
		Model:       t.model,
		System:      []llm.ContentBlock{llm.TextBlock(fmt.Sprintf(systemPrompt, locale.DisplayName()))},
		Messages:    []llm.Message{llm.UserText(text)},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("translating to %s: %w", locale, err)
	}

	out := strings.TrimSpace(resp.Message.TextContent())
	if out == "" {
		return "", fmt.Errorf("translating to %s: model returned no text", locale)
	}

	t.mu.Lock()
	t.cache[key] = out
	t.mu.Unlock()
	return out, nil
}
