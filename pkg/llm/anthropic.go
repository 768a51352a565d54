package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	beta1MContext  = "context-1m-2025-08-07"

	// DefaultMaxTokens bounds a single response when the request does not
	// say otherwise. Document generation needs headroom.
	DefaultMaxTokens = 16384
)

// AnthropicClient is a streaming Messages API client over plain net/http.
type AnthropicClient struct {
	cfg Config
	hc  *http.Client
}

// NewAnthropicClient validates the config and prepares the HTTP client. The
// client timeout bounds one full attempt including the streamed body.
func NewAnthropicClient(cfg Config) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &AnthropicClient{
		cfg: cfg,
		hc:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// SupportsPromptCaching reports that cache_control markers are honored.
func (c *AnthropicClient) SupportsPromptCaching() bool {
	return true
}

type apiRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	System      []ContentBlock   `json:"system,omitempty"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
	Stream      bool             `json:"stream"`
}

type apiErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type streamDelta struct {
	Type        string     `json:"type"`
	Text        string     `json:"text"`
	PartialJSON string     `json:"partial_json"`
	StopReason  StopReason `json:"stop_reason"`
}

type streamMessage struct {
	Usage Usage `json:"usage"`
}

type streamEvent struct {
	Type         string          `json:"type"`
	Index        int             `json:"index"`
	ContentBlock json.RawMessage `json:"content_block"`
	Delta        *streamDelta    `json:"delta"`
	Message      *streamMessage  `json:"message"`
	Usage        *Usage          `json:"usage"`
	Error        *apiErrorBody   `json:"error"`
}

// GenerateStream opens one streamed generation. Chunks arrive on the first
// channel ending with ChunkDone; a hard failure arrives on the second. Both
// channels close when the call is over.
func (c *AnthropicClient) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, <-chan error) {
	chunks := make(chan StreamChunk, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)
		if err := c.stream(ctx, req, chunks); err != nil {
			errs <- err
		}
	}()

	return chunks, errs
}

func (c *AnthropicClient) stream(ctx context.Context, req Request, chunks chan<- StreamChunk) error {
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}
	body, err := json.Marshal(apiRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Messages:    req.Messages,
		Tools:       req.Tools,
		Temperature: req.Temperature,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("llm: marshal request: %w", err)
	}

	resp, err := doWithRetry(ctx, c.hc, c.cfg.MaxRetries, func() (*http.Request, error) {
		httpReq, err := http.NewRequest(http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", c.cfg.APIKey)
		httpReq.Header.Set("anthropic-version", apiVersion)
		if c.cfg.Context1M {
			httpReq.Header.Set("anthropic-beta", beta1MContext)
		}
		return httpReq, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	send := func(chunk StreamChunk) bool {
		select {
		case chunks <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	}

	type pendingBlock struct {
		block   ContentBlock
		jsonBuf strings.Builder
	}
	blocks := make(map[int]*pendingBlock)
	var order []int
	var usage Usage
	var stopReason StopReason

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data: ") {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			return fmt.Errorf("llm: decode stream event: %w", err)
		}

		switch ev.Type {
		case "message_start":
			if ev.Message != nil {
				usage = ev.Message.Usage
			}

		case "content_block_start":
			var cb ContentBlock
			if len(ev.ContentBlock) > 0 {
				if err := json.Unmarshal(ev.ContentBlock, &cb); err != nil {
					return fmt.Errorf("llm: decode content block: %w", err)
				}
			}
			blocks[ev.Index] = &pendingBlock{block: cb}
			order = append(order, ev.Index)
			if cb.Type == BlockToolUse {
				if !send(StreamChunk{Kind: ChunkToolUse, ToolID: cb.ID, ToolName: cb.Name}) {
					return ctx.Err()
				}
			}

		case "content_block_delta":
			pb, ok := blocks[ev.Index]
			if !ok || ev.Delta == nil {
				continue
			}
			switch ev.Delta.Type {
			case "text_delta":
				pb.block.Text += ev.Delta.Text
				if ev.Delta.Text != "" {
					if !send(StreamChunk{Kind: ChunkText, Text: ev.Delta.Text}) {
						return ctx.Err()
					}
				}
			case "input_json_delta":
				pb.jsonBuf.WriteString(ev.Delta.PartialJSON)
			}

		case "content_block_stop":
			pb, ok := blocks[ev.Index]
			if !ok {
				continue
			}
			if raw := pb.jsonBuf.String(); raw != "" && json.Valid([]byte(raw)) {
				pb.block.Input = json.RawMessage(raw)
			}
			if pb.block.Type == BlockServerToolUse && pb.block.Name == "web_search" {
				var input struct {
					Query string `json:"query"`
				}
				_ = json.Unmarshal(pb.block.Input, &input)
				if !send(StreamChunk{Kind: ChunkWebSearch, ToolID: pb.block.ID, Query: input.Query}) {
					return ctx.Err()
				}
			}

		case "message_delta":
			if ev.Delta != nil && ev.Delta.StopReason != "" {
				stopReason = ev.Delta.StopReason
			}
			if ev.Usage != nil {
				usage.OutputTokens = ev.Usage.OutputTokens
			}

		case "message_stop":
			content := make([]ContentBlock, 0, len(order))
			for _, idx := range order {
				content = append(content, blocks[idx].block)
			}
			done := StreamChunk{Kind: ChunkDone, Response: &Response{
				Message:    Message{Role: RoleAssistant, Content: content},
				StopReason: stopReason,
				Usage:      usage,
			}}
			if !send(done) {
				return ctx.Err()
			}
			return nil

		case "error":
			if ev.Error != nil {
				return &APIError{Category: categoryFromErrorType(ev.Error.Type), Message: ev.Error.Message}
			}
			return &APIError{Category: CategoryUnknown, Message: "stream error event without detail"}
		}
	}

	if err := scanner.Err(); err != nil {
		return classifyTransport(err)
	}
	return &APIError{Category: CategoryConnection, Message: "stream ended before message_stop"}
}

// categoryFromErrorType maps the API's error type strings to categories.
func categoryFromErrorType(t string) ErrorCategory {
	switch t {
	case "rate_limit_error":
		return CategoryRateLimit
	case "overloaded_error":
		return CategoryOverloaded
	case "timeout_error":
		return CategoryTimeout
	case "invalid_request_error", "authentication_error", "permission_error", "not_found_error", "request_too_large":
		return CategoryClient
	default:
		return CategoryUnknown
	}
}

// apiErrorMessage extracts the error message from a non-2xx response body,
// falling back to the raw body.
func apiErrorMessage(body []byte) string {
	var envelope struct {
		Error apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(body))
}
