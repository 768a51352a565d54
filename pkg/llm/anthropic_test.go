package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseBody(events ...string) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString("data: ")
		b.WriteString(ev)
		b.WriteString("\n\n")
	}
	return b.String()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewAnthropicClient(Config{
		APIKey:     "sk-ant-test",
		BaseURL:    server.URL,
		MaxRetries: 1,
		Timeout:    10 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func drain(t *testing.T, chunks <-chan StreamChunk, errs <-chan error) ([]StreamChunk, error) {
	t.Helper()
	var got []StreamChunk
	for chunk := range chunks {
		got = append(got, chunk)
	}
	return got, <-errs
}

func TestNewAnthropicClientRequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestGenerateStreamAssemblesResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Empty(t, r.Header.Get("anthropic-beta"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, true, payload["stream"])
		assert.Equal(t, "claude-sonnet-4-20250514", payload["model"])

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sseBody(
			`{"type":"message_start","message":{"usage":{"input_tokens":120,"output_tokens":1,"cache_read_input_tokens":25}}}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" world"}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"tu_1","name":"state_thesis","input":{}}}`,
			`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"thesis"}}`,
			`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"_text\":\"claim\"}"}}`,
			`{"type":"content_block_stop","index":1}`,
			`{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":42}}`,
			`{"type":"message_stop"}`,
		)))
	})

	chunks, errs := client.GenerateStream(context.Background(), Request{
		Model:    "claude-sonnet-4-20250514",
		Messages: []Message{UserText("hi")},
	})
	got, err := drain(t, chunks, errs)
	require.NoError(t, err)

	var kinds []ChunkKind
	for _, chunk := range got {
		kinds = append(kinds, chunk.Kind)
	}
	assert.Equal(t, []ChunkKind{ChunkText, ChunkText, ChunkToolUse, ChunkDone}, kinds)
	assert.Equal(t, "Hello", got[0].Text)
	assert.Equal(t, "state_thesis", got[2].ToolName)
	assert.Equal(t, "tu_1", got[2].ToolID)

	resp := got[len(got)-1].Response
	require.NotNil(t, resp)
	assert.Equal(t, StopToolUse, resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 42, CacheReadInputTokens: 25}, resp.Usage)

	require.Len(t, resp.Message.Content, 2)
	assert.Equal(t, "Hello world", resp.Message.Content[0].Text)
	assert.Equal(t, BlockToolUse, resp.Message.Content[1].Type)
	assert.JSONEq(t, `{"thesis_text":"claim"}`, string(resp.Message.Content[1].Input))
}

func TestGenerateStreamServerWebSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sseBody(
			`{"type":"message_start","message":{"usage":{"input_tokens":50,"output_tokens":1}}}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"server_tool_use","id":"st_1","name":"web_search","input":{}}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"query\":\"golang concurrency\"}"}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"content_block_start","index":1,"content_block":{"type":"web_search_tool_result","tool_use_id":"st_1","content":[{"type":"web_search_result","url":"https://go.dev","title":"Go"}]}}`,
			`{"type":"content_block_stop","index":1}`,
			`{"type":"message_delta","delta":{"stop_reason":"pause_turn","stop_sequence":null},"usage":{"output_tokens":9}}`,
			`{"type":"message_stop"}`,
		)))
	})

	chunks, errs := client.GenerateStream(context.Background(), Request{Model: "m", Messages: []Message{UserText("q")}})
	got, err := drain(t, chunks, errs)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, ChunkWebSearch, got[0].Kind)
	assert.Equal(t, "golang concurrency", got[0].Query)

	resp := got[1].Response
	require.NotNil(t, resp)
	assert.Equal(t, StopPauseTurn, resp.StopReason)
	require.Len(t, resp.Message.Content, 2)
	assert.Equal(t, BlockServerToolUse, resp.Message.Content[0].Type)
	assert.Equal(t, BlockWebSearchToolResult, resp.Message.Content[1].Type)
	assert.True(t, resp.Message.HasWebSearchResults())
}

func TestGenerateStreamRetriesOverloaded(t *testing.T) {
	var attempts atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(529)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sseBody(
			`{"type":"message_start","message":{"usage":{"input_tokens":5,"output_tokens":1}}}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"ok"}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":2}}`,
			`{"type":"message_stop"}`,
		)))
	})

	chunks, errs := client.GenerateStream(context.Background(), Request{Model: "m", Messages: []Message{UserText("q")}})
	got, err := drain(t, chunks, errs)
	require.NoError(t, err)
	assert.EqualValues(t, 2, attempts.Load())
	assert.Equal(t, "ok", got[len(got)-1].Response.Message.TextContent())
}

func TestGenerateStreamClientErrorDoesNotRetry(t *testing.T) {
	var attempts atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad tool schema"}}`))
	})

	chunks, errs := client.GenerateStream(context.Background(), Request{Model: "m", Messages: []Message{UserText("q")}})
	_, err := drain(t, chunks, errs)

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryClient, apiErr.Category)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "bad tool schema")
	assert.EqualValues(t, 1, attempts.Load())
}

func TestGenerateStreamMidStreamErrorEvent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sseBody(
			`{"type":"message_start","message":{"usage":{"input_tokens":5,"output_tokens":1}}}`,
			`{"type":"error","error":{"type":"overloaded_error","message":"stream overloaded"}}`,
		)))
	})

	chunks, errs := client.GenerateStream(context.Background(), Request{Model: "m", Messages: []Message{UserText("q")}})
	_, err := drain(t, chunks, errs)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryOverloaded, apiErr.Category)
}

func TestGenerateStreamTruncatedStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sseBody(
			`{"type":"message_start","message":{"usage":{"input_tokens":5,"output_tokens":1}}}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		)))
	})

	chunks, errs := client.GenerateStream(context.Background(), Request{Model: "m", Messages: []Message{UserText("q")}})
	_, err := drain(t, chunks, errs)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, CategoryConnection, apiErr.Category)
}

func TestGenerateStreamSends1MContextBeta(t *testing.T) {
	seen := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("anthropic-beta")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sseBody(
			`{"type":"message_start","message":{"usage":{"input_tokens":1,"output_tokens":1}}}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":1}}`,
			`{"type":"message_stop"}`,
		)))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(Config{APIKey: "k", BaseURL: server.URL, Context1M: true})
	require.NoError(t, err)

	chunks, errs := client.GenerateStream(context.Background(), Request{Model: "m", Messages: []Message{UserText("q")}})
	_, err = drain(t, chunks, errs)
	require.NoError(t, err)
	assert.Equal(t, "context-1m-2025-08-07", <-seen)
}

func TestCollectReturnsFinalResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sseBody(
			`{"type":"message_start","message":{"usage":{"input_tokens":8,"output_tokens":1}}}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"translated"}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":3}}`,
			`{"type":"message_stop"}`,
		)))
	})

	resp, err := Collect(context.Background(), client, Request{Model: "m", Messages: []Message{UserText("q")}})
	require.NoError(t, err)
	assert.Equal(t, "translated", resp.Message.TextContent())
	assert.Equal(t, StopEndTurn, resp.StopReason)
}
