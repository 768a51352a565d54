// Package events defines the typed events a runner emits while driving an
// agent turn, delivered to clients as SSE frames.
//
// Wire shape: every frame is one JSON object {"type": ..., "data": ...}
// written as `data: <json>\n\n`. A terminal `done` event always closes the
// stream; `review_*` and `knowledge_document` payloads pass through the
// translation layer before delivery when the session locale is not English.
package events

// Event types, in rough emission order within a turn.
const (
	TypeAgentText         = "agent_text"
	TypeToolCall          = "tool_call"
	TypeToolResult        = "tool_result"
	TypeToolError         = "tool_error"
	TypeWebSearchDetail   = "web_search_detail"
	TypeContextUsage      = "context_usage"
	TypeReviewDecompose   = "review_decompose"
	TypeReviewExplore     = "review_explore"
	TypeReviewClaims      = "review_claims"
	TypeReviewBuild       = "review_build"
	TypeKnowledgeDocument = "knowledge_document"
	TypeError             = "error"
	TypeDone              = "done"
)

// Event is one SSE frame.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Text builds an agent_text event for a streamed token delta.
func Text(text string) Event {
	return Event{Type: TypeAgentText, Data: TextPayload{Text: text}}
}

// ToolCall builds a tool_call event. Input is streamed separately, so the
// payload carries only the tool name.
func ToolCall(tool string) Event {
	return Event{Type: TypeToolCall, Data: ToolCallPayload{Tool: tool}}
}

// ToolResult builds a tool_result event with a short result preview.
func ToolResult(tool, preview string) Event {
	return Event{Type: TypeToolResult, Data: ToolResultPayload{Tool: tool, Preview: preview}}
}

// ToolError builds a tool_error event carrying the stable error code.
func ToolError(tool, code, message string) Event {
	return Event{Type: TypeToolError, Data: ToolErrorPayload{Tool: tool, Code: code, Message: message}}
}

// ServerWebSearch builds the tool_call event for a web search the provider
// runs server-side. Unlike client tools the query is known up front.
func ServerWebSearch(query string) Event {
	return Event{Type: TypeToolCall, Data: ToolCallPayload{Tool: "web_search", Query: query}}
}

// WebSearch builds a web_search_detail observability event.
func WebSearch(query string) Event {
	return Event{Type: TypeWebSearchDetail, Data: WebSearchPayload{Query: query}}
}

// Error builds a terminal-adjacent error event with a typed category.
func Error(category, message string) Event {
	return Event{Type: TypeError, Data: ErrorPayload{Category: category, Message: message}}
}

// Done builds the terminal done event.
func Done(hasError, awaitingInput bool, inputType string) Event {
	return Event{Type: TypeDone, Data: DonePayload{
		Error:             hasError,
		AwaitingInput:     awaitingInput,
		AwaitingInputType: inputType,
	}}
}
