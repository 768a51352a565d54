// Package conversation bounds the agent's message history: pure compaction
// transforms that cap context growth between turns, and phase digests that
// re-anchor each new phase on what the session actually decided.
package conversation

import (
	"encoding/json"

	"github.com/noesis-forge/noesis/pkg/llm"
)

// Compaction defaults.
const (
	// DefaultKeepToolResults is how many recent tool-result messages stay verbatim.
	DefaultKeepToolResults = 3
	// DefaultKeepWebSearches is how many recent web-search messages stay verbatim.
	DefaultKeepWebSearches = 2
	// DefaultCompactThreshold is the history length that triggers middle compaction.
	DefaultCompactThreshold = 20
	// DefaultCompactTail is how many trailing messages middle compaction keeps.
	DefaultCompactTail = 8
)

// CompactionMarker labels the summary pair middle compaction inserts. The
// pair is deterministic, so recompacting an already-compacted history
// reproduces it unchanged.
const CompactionMarker = "[earlier conversation compacted]"

// Optimize chains the three history transforms with their defaults. The
// input is never mutated.
func Optimize(msgs []llm.Message) []llm.Message {
	out := TrimToolResults(msgs, DefaultKeepToolResults)
	out = CompactMiddle(out, DefaultCompactThreshold, DefaultCompactTail)
	return TrimWebSearchResults(out, DefaultKeepWebSearches)
}

// TrimToolResults keeps the last keep user messages carrying tool-result
// blocks verbatim and collapses the payloads of older ones to "[ok]" or
// "[error:CODE]". tool_use_id stays intact on every block so the vendor
// API still accepts the history.
func TrimToolResults(msgs []llm.Message, keep int) []llm.Message {
	out := cloneMessages(msgs)

	// Walk backwards so the most recent tool-result messages are spared.
	seen := 0
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role != llm.RoleUser || !out[i].HasToolResults() {
			continue
		}
		seen++
		if seen <= keep {
			continue
		}
		for j := range out[i].Content {
			if out[i].Content[j].Type != llm.BlockToolResult {
				continue
			}
			out[i].Content[j].Content = collapseToolResult(out[i].Content[j])
		}
	}
	return out
}

func collapseToolResult(block llm.ContentBlock) string {
	if !block.IsError {
		return "[ok]"
	}
	return "[error:" + toolErrorCode(block.Content) + "]"
}

// toolErrorCode digs the stable error code out of a tool-result payload,
// which is a JSON string when the history round-tripped through storage and
// a decoded map when built in memory.
func toolErrorCode(content any) string {
	switch c := content.(type) {
	case string:
		var payload struct {
			Code string `json:"error_code"`
		}
		if err := json.Unmarshal([]byte(c), &payload); err == nil && payload.Code != "" {
			return payload.Code
		}
	case map[string]any:
		if code, ok := c["error_code"].(string); ok && code != "" {
			return code
		}
	}
	return "UNKNOWN"
}

// CompactMiddle shrinks a history longer than threshold down to the first
// user message, a deterministic summary pair, and the last tail messages.
// Because the pair is always the same, running the transform again yields
// the same result.
func CompactMiddle(msgs []llm.Message, threshold, tail int) []llm.Message {
	out := cloneMessages(msgs)
	if threshold < 1 || tail < 1 {
		return out
	}
	if len(out) <= threshold || len(out) <= tail+3 {
		return out
	}

	first := 0
	for i := range out {
		if out[i].Role == llm.RoleUser {
			first = i
			break
		}
	}

	// A tail opening on a user tool_result message would orphan it from
	// the assistant tool_use just dropped, and the vendor API rejects
	// unpaired results. Widen the tail until the pair survives.
	tailStart := len(out) - tail
	for tailStart > first+1 && out[tailStart].Role == llm.RoleUser && out[tailStart].HasToolResults() {
		tailStart--
	}

	compacted := make([]llm.Message, 0, len(out)-tailStart+3)
	compacted = append(compacted, out[first])
	compacted = append(compacted,
		llm.AssistantText(CompactionMarker),
		llm.UserText("Continue from the retained messages; findings so far are in the working document and research archive."),
	)
	compacted = append(compacted, out[tailStart:]...)
	return compacted
}

// TrimWebSearchResults keeps the last keep assistant messages carrying
// web-search result blocks verbatim; in older ones each result is reduced
// to its url and title.
func TrimWebSearchResults(msgs []llm.Message, keep int) []llm.Message {
	out := cloneMessages(msgs)

	seen := 0
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role != llm.RoleAssistant || !out[i].HasWebSearchResults() {
			continue
		}
		seen++
		if seen <= keep {
			continue
		}
		for j := range out[i].Content {
			if out[i].Content[j].Type != llm.BlockWebSearchToolResult {
				continue
			}
			out[i].Content[j].Content = collapseWebResults(out[i].Content[j].Content)
		}
	}
	return out
}

// collapseWebResults strips each search result down to url and title. A
// payload that is not a result list (the API's error object form) passes
// through untouched.
func collapseWebResults(content any) any {
	results, ok := content.([]any)
	if !ok {
		return content
	}
	collapsed := make([]any, 0, len(results))
	for _, r := range results {
		entry, ok := r.(map[string]any)
		if !ok {
			collapsed = append(collapsed, r)
			continue
		}
		slim := map[string]any{"type": "web_search_result"}
		if url, ok := entry["url"]; ok {
			slim["url"] = url
		}
		if title, ok := entry["title"]; ok {
			slim["title"] = title
		}
		collapsed = append(collapsed, slim)
	}
	return collapsed
}

// cloneMessages copies the message and block structures. Block payloads are
// shared until a transform replaces them, so the caller's slice is never
// mutated.
func cloneMessages(in []llm.Message) []llm.Message {
	out := make([]llm.Message, len(in))
	for i, m := range in {
		blocks := make([]llm.ContentBlock, len(m.Content))
		copy(blocks, m.Content)
		out[i] = llm.Message{Role: m.Role, Content: blocks}
	}
	return out
}
