package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"apitui/chat"
	"apitui/config"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		headerHeight := 2
		footerHeight := a.textarea.Height() + 1

		if !a.ready {
			a.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			a.ready = true
		} else {
			a.viewport.Width = msg.Width
			a.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		a.textarea.SetWidth(msg.Width)

		// Width changed, cached renders are stale
		a.rendered = make(map[string]string)
		a.updateViewportContent(true)
		return a, a.renderPendingMarkdown()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		if a.streaming || a.executingTool != "" {
			a.updateViewportContent(true)
		}
		return a, cmd

	case sessionEventMsg:
		var cmd tea.Cmd
		a, cmd = a.handleSessionEvent(msg.Event)
		return a, tea.Batch(cmd, waitForEvent(a.events))

	case markdownRenderedMsg:
		a.rendered[msg.MessageID] = msg.Rendered
		a.updateViewportContent(a.viewport.AtBottom())
		return a, nil

	case schemaLoadedMsg:
		return a.handleSchemaLoaded(msg), nil

	case schemaErrorMsg:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Schema load failed: %v", msg.Err)
		}
		return a, nil

	case modelsLoadedMsg:
		a.modelList = msg.Models
		a.modelListError = ""
		return a, nil

	case modelsErrorMsg:
		a.modelListError = msg.Err.Error()
		return a, nil

	case connectionTestMsg:
		if msg.OK {
			a.connectionStatus = "connected"
		} else {
			a.connectionStatus = "error"
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] Connection test failed: %v", msg.Err)
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showHelp {
		switch msg.String() {
		case "esc", "enter", "alt+h", "q":
			a.showHelp = false
		}
		return a, nil
	}

	if a.showSettings {
		return a.handleSettingsKey(msg)
	}

	if a.showModelSelector {
		return a.handleModelSelectorKey(msg)
	}

	if a.pendingCall != nil {
		return a.handleToolConfirmKey(msg)
	}

	switch msg.String() {
	case "alt+q", "ctrl+c":
		return a, tea.Quit

	case "alt+h":
		a.showHelp = true
		return a, nil

	case "alt+s":
		a.openSettings()
		return a, nil

	case "alt+m":
		a.showModelSelector = true
		a.selectedModelIdx = 0
		a.modelFilterMode = false
		return a, a.fetchModelsCmd()

	case "alt+l":
		a.session.ClearHistory()
		return a, nil

	case "esc":
		a.session.Cancel()
		return a, nil

	case "alt+y":
		// Copy last assistant message
		history := a.session.History()
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Role == chat.RoleAssistant && history[i].Content != "" {
				clipboard.WriteAll(history[i].Content)
				return a, nil
			}
		}
		return a, nil

	case "alt+c":
		var allText strings.Builder
		for _, m := range a.session.History() {
			role := m.Role
			switch role {
			case chat.RoleUser:
				role = "You"
			case chat.RoleAssistant:
				role = "Assistant"
			}
			allText.WriteString(fmt.Sprintf("[%s] %s:\n%s\n\n",
				m.Timestamp.Format("15:04"),
				role,
				m.Content))
		}
		clipboard.WriteAll(allText.String())
		return a, nil

	case "alt+j", "alt+down":
		a.viewport.HalfPageDown()
		return a, nil

	case "alt+k", "alt+up":
		a.viewport.HalfPageUp()
		return a, nil

	case "alt+g":
		a.viewport.GotoTop()
		return a, nil

	case "alt+G":
		a.viewport.GotoBottom()
		return a, nil

	case "enter":
		text := strings.TrimSpace(a.textarea.Value())
		if text == "" || a.session.Busy() {
			return a, nil
		}
		a.textarea.Reset()
		a.session.Send(text)
		return a, a.loadingSpinner.Tick
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)
	a.viewport, cmd = a.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// handleSchemaLoaded stores the schema context and rebuilds the
// session with the enriched system prompt, unless a turn is running.
func (a AppView) handleSchemaLoaded(msg schemaLoadedMsg) AppView {
	a.schemaSummary = msg.Summary
	a.schemaTitle = firstSummaryTitle(msg.Summary)
	if !a.session.Busy() {
		a.session = a.buildSession()
		a.updateViewportContent(true)
	}
	return a
}

func firstSummaryTitle(summary string) string {
	line, _, _ := strings.Cut(summary, "\n")
	line = strings.TrimPrefix(line, "## API: ")
	if len(line) > 40 {
		line = line[:40]
	}
	return line
}
