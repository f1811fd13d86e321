package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"apitui/executor"
)

// handleToolConfirmKey drives the confirmation modal: run, edit the
// draft, or dismiss.
func (a AppView) handleToolConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.toolEditMode {
		switch msg.String() {
		case "esc":
			a.toolEditMode = false
			a.toolEditErr = ""
			a.seedToolEditArea()
			return a, nil

		case "ctrl+s":
			var draft executor.Args
			if err := json.Unmarshal([]byte(a.toolEditArea.Value()), &draft); err != nil {
				a.toolEditErr = fmt.Sprintf("Invalid JSON: %v", err)
				return a, nil
			}
			a.pendingCall = nil
			a.toolEditMode = false
			a.toolEditErr = ""
			a.session.ConfirmPending(&draft)
			return a, a.loadingSpinner.Tick
		}

		var cmd tea.Cmd
		a.toolEditArea, cmd = a.toolEditArea.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "enter", "y":
		a.pendingCall = nil
		a.session.ConfirmPending(nil)
		return a, a.loadingSpinner.Tick

	case "e":
		a.toolEditMode = true
		a.toolEditArea.Focus()
		return a, textarea.Blink

	case "esc", "n":
		a.pendingCall = nil
		a.session.DismissPending()
		return a, nil
	}

	return a, nil
}

func (a AppView) renderToolConfirm() string {
	modalWidth := 70
	if a.width < modalWidth+10 {
		modalWidth = a.width - 10
	}

	draft := a.pendingCall.Draft

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(warningColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Tool Call Proposed")

	var body []string
	if a.toolEditMode {
		body = append(body, a.toolEditArea.View())
		if a.toolEditErr != "" {
			body = append(body, ErrorStyle.Render(a.toolEditErr))
		}
	} else {
		body = append(body, "")
		body = append(body, TitleStyle.Render(fmt.Sprintf("  %s %s", draft.Method, draft.Path)))
		body = append(body, paramLines("Path params", draft.PathParams, modalWidth)...)
		body = append(body, paramLines("Query params", draft.QueryParams, modalWidth)...)
		if draft.Body != nil {
			payload, err := json.Marshal(draft.Body)
			if err == nil {
				body = append(body, "  "+DimStyle.Render("Body: "+truncateWidth(string(payload), modalWidth-10)))
			}
		}
		body = append(body, "")
	}

	bodySection := lipgloss.NewStyle().
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(strings.Join(body, "\n"))

	var footer string
	if a.toolEditMode {
		footer = FormatFooter("Ctrl+S", "Run Edited", "Esc", "Back")
	} else {
		footer = FormatFooter("Enter", "Run", "e", "Edit", "Esc", "Dismiss")
	}
	footerSection := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	content := strings.Join([]string{titleSection, bodySection, footerSection}, "\n")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}

func paramLines(label string, params map[string]string, modalWidth int) []string {
	if len(params) == 0 {
		return nil
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{"  " + DimStyle.Render(label+":")}
	for _, k := range keys {
		lines = append(lines, truncateWidth(fmt.Sprintf("    %s = %s", k, params[k]), modalWidth-4))
	}
	return lines
}

func truncateWidth(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
