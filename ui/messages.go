package ui

import (
	"apitui/chat"
	"apitui/llm"
)

// Bubbletea messages produced by background commands.

// sessionEventMsg wraps a session notification pulled off the event
// channel.
type sessionEventMsg struct {
	Event chat.Event
}

type modelsLoadedMsg struct {
	Models []llm.ModelInfo
}

type modelsErrorMsg struct {
	Err error
}

type markdownRenderedMsg struct {
	MessageID string
	Rendered  string
}

type connectionTestMsg struct {
	OK  bool
	Err error
}

type schemaLoadedMsg struct {
	Summary string
}

type schemaErrorMsg struct {
	Err error
}
