package chat

import (
	"encoding/json"

	"apitui/executor"
)

// PendingCall is a tool call awaiting user confirmation. Draft starts
// as the parsed model arguments and may be edited before confirmation;
// Call keeps what the model actually proposed.
type PendingCall struct {
	Call  ToolCall
	Draft executor.Args
}

func newPendingCall(call ToolCall) *PendingCall {
	return &PendingCall{
		Call:  call,
		Draft: executor.ParseArgs(call.Arguments),
	}
}

// frozenArguments renders the final request as the arguments object
// recorded in history, so the transcript shows what actually ran
// rather than what the model first proposed.
func frozenArguments(args executor.Args) map[string]any {
	payload, err := json.Marshal(args)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return map[string]any{}
	}
	return m
}
