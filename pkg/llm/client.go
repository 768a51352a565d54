// Package llm speaks the Anthropic Messages API: streaming generation with
// tool use, server-side web search, prompt caching, and retry with backoff.
// The message model here is also the persisted history format.
package llm

import (
	"context"
	"fmt"
)

// Request is one generation call. Model is required; zero MaxTokens falls
// back to the client default.
type Request struct {
	Model       string
	System      []ContentBlock
	Messages    []Message
	Tools       []ToolDefinition
	MaxTokens   int
	Temperature *float64
}

// ChunkKind discriminates StreamChunk payloads.
type ChunkKind string

const (
	// ChunkText carries one text delta.
	ChunkText ChunkKind = "text"
	// ChunkToolUse announces a tool_use block as soon as its name is known;
	// the input is still streaming at that point.
	ChunkToolUse ChunkKind = "tool_use"
	// ChunkWebSearch announces a server-side web search once its query is
	// assembled. Results arrive later inside the final message.
	ChunkWebSearch ChunkKind = "web_search"
	// ChunkDone carries the assembled Response and is always last.
	ChunkDone ChunkKind = "done"
)

// StreamChunk is one streaming event from the model.
type StreamChunk struct {
	Kind     ChunkKind
	Text     string
	ToolID   string
	ToolName string
	Query    string
	Response *Response
}

// Client generates model responses. GenerateStream returns a chunk channel
// and an error channel; exactly one of "ChunkDone then close" or "one error"
// terminates a call. Implementations must honor ctx cancellation.
type Client interface {
	GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error)
	SupportsPromptCaching() bool
}

// Collect drains a streamed call into its final Response. Used by callers
// that have no interest in deltas, like translation and research delegation.
func Collect(ctx context.Context, c Client, req Request) (*Response, error) {
	chunks, errs := c.GenerateStream(ctx, req)
	var resp *Response
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				if resp == nil {
					return nil, fmt.Errorf("stream closed without a final response")
				}
				return resp, nil
			}
			if chunk.Kind == ChunkDone {
				resp = chunk.Response
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
