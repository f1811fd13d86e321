package chat

import (
	"encoding/json"
	"fmt"
	"time"

	"apitui/llm"
)

// Message roles. Tool result messages use RoleTool and carry the
// ToolCallID of the call they answer.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in the conversation history.
type Message struct {
	ID         string     `json:"id"`
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	Streaming  bool       `json:"-"`
	Error      *ErrorInfo `json:"error,omitempty"`
}

// ToolCall is a completed tool invocation as recorded in history.
// Arguments holds the parsed arguments object.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ErrorInfo is a classified error attached to an assistant message.
type ErrorInfo struct {
	Title        string `json:"title"`
	Message      string `json:"message"`
	OpenSettings bool   `json:"open_settings,omitempty"`
}

// toWireMessages converts history to the chat completions wire format.
// Messages still streaming or carrying errors are skipped; the model
// should only see settled turns.
func toWireMessages(systemPrompt string, history []Message) []llm.ChatMessage {
	wire := make([]llm.ChatMessage, 0, len(history)+1)
	if systemPrompt != "" {
		wire = append(wire, llm.ChatMessage{Role: "system", Content: systemPrompt})
	}

	for _, msg := range history {
		if msg.Streaming || msg.Error != nil {
			continue
		}

		wm := llm.ChatMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				args = []byte("{}")
			}
			wm.ToolCalls = append(wm.ToolCalls, llm.ToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: llm.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		wire = append(wire, wm)
	}

	return wire
}

// nextMessageID returns a session-unique message ID. The counter keeps
// IDs distinct even when two messages land in the same millisecond.
func nextMessageID(counter int64) string {
	return fmt.Sprintf("%d_%d", time.Now().UnixMilli(), counter)
}
