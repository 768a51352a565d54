// Package research runs the delegated research sub-agent: one bounded
// web-search conversation on the cheaper model per query, normalized to a
// compact Result so heavy search output never enters the orchestrator's
// context.
package research

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/noesis-forge/noesis/pkg/agent/prompt"
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/llm"
)

const (
	// maxIterations bounds the sub-agent conversation: server-side web
	// search can stop a turn with pause_turn, which needs a follow-up call.
	maxIterations = 3

	// maxSearchesPerQuery caps server-side web searches in one delegation.
	maxSearchesPerQuery = 5

	// DefaultMaxResults is the source cap when the caller does not set one.
	DefaultMaxResults = 5

	maxTokens = 4096
)

// Request is one delegated research task.
type Request struct {
	Query        string
	Purpose      forge.ResearchPurpose
	Instructions string
	MaxResults   int
}

// Result is the normalized outcome of a delegation. Empty marks a
// delegation that produced no usable findings, including every failure
// path: the sub-agent never surfaces an error to its caller.
type Result struct {
	Summary        string
	Sources        []forge.Source
	ResultCount    int
	Empty          bool
	SubAgentTokens int
}

// SubAgent delegates queries to the research model.
type SubAgent struct {
	client llm.Client
	model  string
	prompt *prompt.Assembler
}

// NewSubAgent creates a sub-agent bound to the given client and model name.
func NewSubAgent(client llm.Client, model string) *SubAgent {
	return &SubAgent{
		client: client,
		model:  model,
		prompt: prompt.NewAssembler(),
	}
}

// Research runs one delegation. Failures degrade to an empty Result: the
// orchestrator treats missing findings as a normal outcome, not an error.
func (a *SubAgent) Research(ctx context.Context, req Request) Result {
	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > 10 {
		maxResults = DefaultMaxResults
	}

	system := []llm.ContentBlock{
		llm.TextBlock(a.prompt.ResearchSystemPrompt(req.Purpose, req.Instructions)),
	}
	messages := []llm.Message{
		llm.UserText(a.prompt.ResearchUserMessage(req.Query, maxResults)),
	}

	var usage llm.Usage
	var final *llm.Response
	for i := 0; i < maxIterations; i++ {
		resp, err := llm.Collect(ctx, a.client, llm.Request{
			Model:     a.model,
			System:    system,
			Messages:  messages,
			Tools:     []llm.ToolDefinition{llm.WebSearchTool(maxSearchesPerQuery)},
			MaxTokens: maxTokens,
		})
		if err != nil {
			slog.Error("Research delegation failed",
				"query", req.Query, "purpose", req.Purpose, "error", err)
			return Result{Empty: true, SubAgentTokens: tokens(usage)}
		}
		usage.Add(resp.Usage)
		final = resp
		if resp.StopReason != llm.StopPauseTurn {
			break
		}
		// Mid-search pause: hand the partial assistant turn back and let
		// the model finish.
		messages = append(messages, resp.Message)
	}

	if final == nil {
		return Result{Empty: true, SubAgentTokens: tokens(usage)}
	}

	res := parseResult(final.Message.TextContent(), maxResults)
	res.SubAgentTokens = tokens(usage)
	return res
}

func tokens(u llm.Usage) int {
	return int(u.InputTokens + u.OutputTokens)
}

// resultWire is the JSON shape the sub-agent prompt demands.
type resultWire struct {
	Summary string         `json:"summary"`
	Sources []forge.Source `json:"sources"`
}

var (
	fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.+?\\})\\s*```")
	bareJSON   = regexp.MustCompile(`(?s)\{.+\}`)
)

// parseResult recovers a Result from the sub-agent's final text. Models
// drift: try the text as direct JSON, then a fenced or embedded JSON
// object, and finally fall back to the raw text as the summary.
func parseResult(text string, maxResults int) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Empty: true}
	}

	var wire resultWire
	if err := json.Unmarshal([]byte(text), &wire); err == nil {
		return fromWire(wire, maxResults)
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &wire); err == nil {
			return fromWire(wire, maxResults)
		}
	}
	if m := bareJSON.FindString(text); m != "" {
		if err := json.Unmarshal([]byte(m), &wire); err == nil {
			return fromWire(wire, maxResults)
		}
	}
	return Result{Summary: text, Empty: false}
}

func fromWire(wire resultWire, maxResults int) Result {
	sources := wire.Sources
	if len(sources) > maxResults {
		sources = sources[:maxResults]
	}
	// Drop sources with no URL; the prompt forbids fabrication, and a
	// sourceless entry is indistinguishable from one.
	kept := sources[:0]
	for _, s := range sources {
		if strings.TrimSpace(s.URL) != "" {
			kept = append(kept, s)
		}
	}
	return Result{
		Summary:     wire.Summary,
		Sources:     kept,
		ResultCount: len(kept),
		Empty:       wire.Summary == "" && len(kept) == 0,
	}
}
