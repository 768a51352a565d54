package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageAccessors(t *testing.T) {
	msg := Message{Role: RoleAssistant, Content: []ContentBlock{
		TextBlock("thinking about "),
		{Type: BlockToolUse, ID: "tu_1", Name: "state_thesis", Input: json.RawMessage(`{"thesis_text":"x"}`)},
		TextBlock("the problem"),
		{Type: BlockServerToolUse, ID: "st_1", Name: "web_search", Input: json.RawMessage(`{"query":"q"}`)},
	}}

	assert.Equal(t, "thinking about the problem", msg.TextContent())

	uses := msg.ToolUses()
	require.Len(t, uses, 1, "server tool blocks are not dispatchable")
	assert.Equal(t, "state_thesis", uses[0].Name)

	assert.False(t, msg.HasToolResults())
	assert.False(t, msg.HasWebSearchResults())

	result := Message{Role: RoleUser, Content: []ContentBlock{
		ToolResultBlock("tu_1", map[string]any{"status": "ok"}),
	}}
	assert.True(t, result.HasToolResults())

	searched := Message{Role: RoleAssistant, Content: []ContentBlock{
		{Type: BlockWebSearchToolResult, ToolUseID: "st_1", Content: []any{}},
	}}
	assert.True(t, searched.HasWebSearchResults())
}

func TestContentBlockWireShape(t *testing.T) {
	tests := []struct {
		name  string
		block ContentBlock
		want  string
	}{
		{
			name:  "text",
			block: TextBlock("hello"),
			want:  `{"type":"text","text":"hello"}`,
		},
		{
			name:  "text with cache marker",
			block: ContentBlock{Type: BlockText, Text: "sys", CacheControl: EphemeralCache()},
			want:  `{"type":"text","text":"sys","cache_control":{"type":"ephemeral"}}`,
		},
		{
			name:  "tool use",
			block: ContentBlock{Type: BlockToolUse, ID: "tu_1", Name: "score_claim", Input: json.RawMessage(`{"claim_index":0}`)},
			want:  `{"type":"tool_use","id":"tu_1","name":"score_claim","input":{"claim_index":0}}`,
		},
		{
			name:  "zero-argument tool use keeps its input",
			block: ContentBlock{Type: BlockToolUse, ID: "tu_2", Name: "get_negative_knowledge", Input: json.RawMessage(`{}`)},
			want:  `{"type":"tool_use","id":"tu_2","name":"get_negative_knowledge","input":{}}`,
		},
		{
			name:  "tool result",
			block: ToolResultBlock("tu_1", "[ok]"),
			want:  `{"type":"tool_result","tool_use_id":"tu_1","content":"[ok]"}`,
		},
		{
			name:  "error tool result",
			block: ErrorToolResultBlock("tu_1", "[error:CLAIM_NOT_FOUND]"),
			want:  `{"type":"tool_result","tool_use_id":"tu_1","content":"[error:CLAIM_NOT_FOUND]","is_error":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.block)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestToolDefinitionWireShape(t *testing.T) {
	custom, err := json.Marshal(ToolDefinition{
		Name:        "complete_phase",
		Description: "Finish the current phase.",
		InputSchema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"complete_phase","description":"Finish the current phase.","input_schema":{"type":"object"}}`, string(custom))

	server, err := json.Marshal(WebSearchTool(8))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"web_search_20250305","name":"web_search","max_uses":8}`, string(server))
}

func TestMessageHistoryRoundTrip(t *testing.T) {
	original := []Message{
		UserText("problem statement"),
		{Role: RoleAssistant, Content: []ContentBlock{
			TextBlock("Let me research."),
			{Type: BlockServerToolUse, ID: "st_1", Name: "web_search", Input: json.RawMessage(`{"query":"prior art"}`)},
			{Type: BlockWebSearchToolResult, ToolUseID: "st_1", Content: []any{
				map[string]any{"type": "web_search_result", "url": "https://example.com", "title": "Result"},
			}},
			{Type: BlockToolUse, ID: "tu_1", Name: "map_state_of_art", Input: json.RawMessage(`{"domain":"x"}`)},
		}},
		{Role: RoleUser, Content: []ContentBlock{ToolResultBlock("tu_1", `{"status":"ok"}`)}},
	}

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var restored []Message
	require.NoError(t, json.Unmarshal(raw, &restored))
	assert.Equal(t, original, restored)
}

func TestUsageAdd(t *testing.T) {
	total := Usage{InputTokens: 10, OutputTokens: 5}
	total.Add(Usage{InputTokens: 90, OutputTokens: 45, CacheCreationInputTokens: 7, CacheReadInputTokens: 3})

	assert.Equal(t, Usage{
		InputTokens:              100,
		OutputTokens:             50,
		CacheCreationInputTokens: 7,
		CacheReadInputTokens:     3,
	}, total)
}
