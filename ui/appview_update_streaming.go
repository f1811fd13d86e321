package ui

import (
	"context"
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"apitui/chat"
	"apitui/config"
	"apitui/llm"
	"apitui/openapi"
)

// handleSessionEvent folds one session notification into the view.
func (a AppView) handleSessionEvent(ev chat.Event) (AppView, tea.Cmd) {
	switch ev.Kind {
	case chat.EventHistoryChanged:
		a.updateViewportContent(true)
		return a, a.renderPendingMarkdown()

	case chat.EventStreamDelta:
		a.streaming = true
		a.updateViewportContent(true)
		return a, nil

	case chat.EventToolProposed:
		a.streaming = false
		a.pendingCall = ev.Pending
		a.toolEditMode = false
		a.toolEditErr = ""
		a.seedToolEditArea()
		return a, nil

	case chat.EventToolExecuting:
		a.executingTool = ev.ToolName
		a.pendingCall = nil
		return a, a.loadingSpinner.Tick

	case chat.EventTurnDone:
		a.streaming = false
		a.executingTool = ""
		a.pendingCall = nil
		a.updateViewportContent(true)
		return a, a.renderPendingMarkdown()
	}

	return a, nil
}

// seedToolEditArea fills the edit textarea with the draft as pretty
// JSON so the user can tweak the request before running it.
func (a *AppView) seedToolEditArea() {
	if a.pendingCall == nil {
		return
	}
	payload, err := json.MarshalIndent(a.pendingCall.Draft, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	a.toolEditArea.SetValue(string(payload))
}

// renderPendingMarkdown kicks off async markdown rendering for settled
// assistant messages that have no cached render yet.
func (a AppView) renderPendingMarkdown() tea.Cmd {
	var cmds []tea.Cmd
	for _, msg := range a.session.History() {
		if msg.Role != chat.RoleAssistant || msg.Streaming || msg.Content == "" {
			continue
		}
		if _, ok := a.rendered[msg.ID]; ok {
			continue
		}
		cmds = append(cmds, a.renderMarkdownAsync(msg.ID, msg.Content))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (a AppView) loadSchemaCmd() tea.Cmd {
	schemaURL := a.cfg.SchemaURL()
	return func() tea.Msg {
		doc, err := openapi.Load(context.Background(), schemaURL)
		if err != nil {
			return schemaErrorMsg{Err: err}
		}
		return schemaLoadedMsg{Summary: doc.Summary()}
	}
}

func (a AppView) fetchModelsCmd() tea.Cmd {
	cfg := a.cfg.LLM
	return func() tea.Msg {
		models, err := llm.ListModels(context.Background(), cfg)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Model listing failed: %v", err)
			}
			return modelsErrorMsg{Err: err}
		}
		return modelsLoadedMsg{Models: models}
	}
}
