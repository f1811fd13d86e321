package llm

import "encoding/json"

// Wire types for the OpenAI-compatible chat completions protocol.
// Only the fields this client actually reads or writes are modeled;
// unknown fields in responses are ignored by the JSON decoder.

type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
	Tools       []Tool        `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

// Finish reasons signaled via choices[0].finish_reason.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
)

// Chunk is one decoded stream event.
type Chunk struct {
	Error   ErrorField `json:"error,omitempty"`
	Details string     `json:"details,omitempty"`
	Choices []Choice   `json:"choices"`
}

// ErrorMessage reports whether the chunk is an explicit provider error
// event, and if so the text to surface.
func (c Chunk) ErrorMessage() (string, bool) {
	if c.Error.Message == "" {
		return "", false
	}
	msg := c.Error.Message
	if c.Details != "" {
		msg += ": " + c.Details
	}
	return msg, true
}

type Choice struct {
	Delta        Delta  `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type Delta struct {
	Content   string          `json:"content"`
	ToolCalls []ToolCallDelta `json:"tool_calls"`
}

// ToolCallDelta is a fragment of a streamed tool call, keyed by Index.
// ID and Function.Name usually arrive once in the first fragment for a
// given index, but some providers send them later; callers must not
// assume order.
type ToolCallDelta struct {
	Index    int               `json:"index"`
	ID       string            `json:"id"`
	Function FunctionCallDelta `json:"function"`
}

type FunctionCallDelta struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ErrorField tolerates the two error shapes seen in the wild: a bare
// string ({"error": "boom"}) and an object ({"error": {"message": "boom"}}).
type ErrorField struct {
	Message string
}

func (e *ErrorField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Message = s
		return nil
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		e.Message = obj.Message
		return nil
	}

	// Unrecognized error shape: leave empty rather than failing the frame
	return nil
}
