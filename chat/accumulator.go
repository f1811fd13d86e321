package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"apitui/llm"
)

// Accumulator assembles streamed deltas into final message content and
// complete tool calls. Tool call fragments are keyed by the index field
// of the delta; argument fragments for the same index are concatenated
// in arrival order.
type Accumulator struct {
	content strings.Builder
	slots   []*callSlot
}

type callSlot struct {
	id   string
	name string
	args strings.Builder
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add folds one chunk into the accumulator and returns the content
// delta, if any, for incremental display.
func (a *Accumulator) Add(chunk llm.Chunk) string {
	if len(chunk.Choices) == 0 {
		return ""
	}
	delta := chunk.Choices[0].Delta

	if delta.Content != "" {
		a.content.WriteString(delta.Content)
	}

	for _, frag := range delta.ToolCalls {
		slot := a.slot(frag.Index)
		// id and name may legitimately arrive in a later fragment than
		// the first arguments fragment; take them whenever present
		if frag.ID != "" {
			slot.id = frag.ID
		}
		if frag.Function.Name != "" {
			slot.name = frag.Function.Name
		}
		if frag.Function.Arguments != "" {
			slot.args.WriteString(frag.Function.Arguments)
		}
	}

	return delta.Content
}

func (a *Accumulator) slot(index int) *callSlot {
	for len(a.slots) <= index {
		a.slots = append(a.slots, &callSlot{})
	}
	return a.slots[index]
}

// Content returns the accumulated message text so far.
func (a *Accumulator) Content() string {
	return a.content.String()
}

// HasToolCalls reports whether any tool call fragments arrived.
func (a *Accumulator) HasToolCalls() bool {
	return len(a.slots) > 0
}

// ToolCalls returns the assembled calls in index order. Argument
// strings that fail to parse as a JSON object yield an empty argument
// map rather than an error; the tool layer surfaces bad arguments to
// the model as an execution result instead. Calls with no ID get a
// synthesized one so the tool result can reference them.
func (a *Accumulator) ToolCalls() []ToolCall {
	if len(a.slots) == 0 {
		return nil
	}

	calls := make([]ToolCall, 0, len(a.slots))
	for i, slot := range a.slots {
		id := slot.id
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		calls = append(calls, ToolCall{
			ID:        id,
			Name:      slot.name,
			Arguments: parseCallArguments(slot.args.String()),
		})
	}
	return calls
}

func parseCallArguments(argsJSON string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil || args == nil {
		// If parsing fails, return empty map
		return make(map[string]any)
	}
	return args
}
