package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/noesis-forge/noesis/pkg/forge"
)

func generateKnowledgeDocument(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var sections map[string]string
	if err := unmarshalArgs(input, &sections); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	for name := range sections {
		if !forge.IsDocumentSection(name) {
			return fail(forge.CodeUnknownSection, "unknown section %q", name), nil
		}
	}
	var missing []string
	for _, name := range forge.DocumentSections {
		if strings.TrimSpace(sections[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fail(forge.CodeInvalidInput, "empty sections: %s", strings.Join(missing, ", ")), nil
	}

	if env.State.WorkingDocument == nil {
		env.State.WorkingDocument = make(map[string]string)
	}
	var b strings.Builder
	b.WriteString("# Knowledge Document\n")
	for _, name := range forge.DocumentSections {
		b.WriteString("\n## ")
		b.WriteString(sectionTitle(name))
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(sections[name]))
		b.WriteString("\n")
		env.State.WorkingDocument[name] = sections[name]
	}

	env.State.KnowledgeDocument = b.String()
	env.State.DocumentUpdatedThisPhase = true
	return map[string]any{
		"status":   "ok",
		"sections": len(forge.DocumentSections),
		"length":   len(env.State.KnowledgeDocument),
	}, nil
}

func presentDocument(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Summary string `json:"summary"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if env.State.KnowledgeDocument == "" {
		return fail(forge.CodeArtifactNotFound, "no knowledge document generated yet; call generate_knowledge_document first"), nil
	}

	// No awaiting flags: presenting the document resolves the session, so
	// there is nothing further to wait on. The runner closes it out.
	return map[string]any{"status": "ok", "summary": args.Summary}, nil
}

// sectionTitle renders a canonical section name as a document heading.
func sectionTitle(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
