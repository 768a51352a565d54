package llm

import (
	"encoding/json"
	"strings"
)

// Message roles on the Anthropic Messages API.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block types. Server tool blocks (web search) are produced by the
// API itself and round-trip through history untouched.
const (
	BlockText                = "text"
	BlockToolUse             = "tool_use"
	BlockToolResult          = "tool_result"
	BlockServerToolUse       = "server_tool_use"
	BlockWebSearchToolResult = "web_search_tool_result"
)

// CacheControl marks a block as a prompt-cache breakpoint.
type CacheControl struct {
	Type string `json:"type"`
}

// EphemeralCache is the only cache control the API currently accepts.
func EphemeralCache() *CacheControl {
	return &CacheControl{Type: "ephemeral"}
}

// ContentBlock is one block of a message. Exactly the fields relevant to its
// Type are set; the rest stay zero and are omitted on the wire. Input stays
// raw JSON so zero-argument tool calls ("{}") survive history replay.
// Content holds a string for plain tool results and a decoded JSON array for
// web-search results.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use / server_tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result / web_search_tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   any    `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`

	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// Message is one conversation turn. History is persisted as the JSON form of
// this struct, so it must stay losslessly serializable.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// TextBlock builds a plain text block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolResultBlock builds a success result for the given tool_use ID.
func ToolResultBlock(toolUseID string, content any) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content}
}

// ErrorToolResultBlock builds a failed result for the given tool_use ID.
func ErrorToolResultBlock(toolUseID string, content any) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolUseID: toolUseID, Content: content, IsError: true}
}

// UserText wraps text in a single-block user message.
func UserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// AssistantText wraps text in a single-block assistant message.
func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: []ContentBlock{TextBlock(text)}}
}

// TextContent concatenates the message's text blocks.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == BlockText {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// ToolUses returns the client-executable tool_use blocks in order. Server
// tool blocks are excluded: the API already executed those.
func (m Message) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, block := range m.Content {
		if block.Type == BlockToolUse {
			uses = append(uses, block)
		}
	}
	return uses
}

// HasToolResults reports whether the message carries any tool_result block.
func (m Message) HasToolResults() bool {
	for _, block := range m.Content {
		if block.Type == BlockToolResult {
			return true
		}
	}
	return false
}

// HasWebSearchResults reports whether the message carries results of a
// server-side web search.
func (m Message) HasWebSearchResults() bool {
	for _, block := range m.Content {
		if block.Type == BlockWebSearchToolResult {
			return true
		}
	}
	return false
}

// ToolDefinition declares a tool to the API. Custom tools set Name,
// Description, and InputSchema; the server web-search tool sets Type, Name,
// and MaxUses instead.
type ToolDefinition struct {
	Type         string         `json:"type,omitempty"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	InputSchema  map[string]any `json:"input_schema,omitempty"`
	MaxUses      int            `json:"max_uses,omitempty"`
	CacheControl *CacheControl  `json:"cache_control,omitempty"`
}

// WebSearchTool returns the server-side web search tool definition.
func WebSearchTool(maxUses int) ToolDefinition {
	return ToolDefinition{Type: "web_search_20250305", Name: "web_search", MaxUses: maxUses}
}

// StopReason values the API emits on message_delta.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopToolUse   StopReason = "tool_use"
	StopPauseTurn StopReason = "pause_turn"
	StopRefusal   StopReason = "refusal"
)

// Usage is the token accounting for one API call.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// Add accumulates another call's usage into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

// Response is the fully assembled result of one streamed API call.
type Response struct {
	Message    Message
	StopReason StopReason
	Usage      Usage
}
