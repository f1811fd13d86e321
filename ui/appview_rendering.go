package ui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"apitui/chat"
	"apitui/config"
	"apitui/executor"
)

func (a *AppView) updateViewportContent(gotoBottom bool) {
	history := a.session.History()
	if len(history) == 0 {
		a.viewport.SetContent("No messages yet. Ask something about the API!")
		return
	}

	var content strings.Builder

	for _, msg := range history {
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))

		switch {
		case msg.Role == chat.RoleUser:
			role := UserStyle.Render("You")
			content.WriteString(formatUserMessage(timestamp, role, msg.Content))

		case msg.Role == chat.RoleTool:
			content.WriteString(formatToolResult(timestamp, msg.Content))

		case len(msg.ToolCalls) > 0:
			content.WriteString(formatToolInvocation(timestamp, msg.ToolCalls[0]))

		default:
			role := AssistantStyle.Render("Assistant")
			body := a.assistantBody(msg)
			content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, role, body))
		}
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// assistantBody picks the display form of an assistant message:
// spinner while waiting, raw text with a cursor while streaming,
// cached markdown once settled, error annotation on failure.
func (a *AppView) assistantBody(msg chat.Message) string {
	if msg.Error != nil {
		body := ErrorStyle.Render(msg.Error.Title) + "\n" + msg.Error.Message
		if msg.Error.OpenSettings {
			body += "\n" + DimStyle.Render("Press Alt+S to open settings.")
		}
		if msg.Content != "" {
			body = msg.Content + "\n\n" + body
		}
		return body
	}

	if msg.Streaming {
		if msg.Content == "" {
			return a.loadingSpinner.View()
		}
		return msg.Content + "▋"
	}

	if rendered, ok := a.rendered[msg.ID]; ok {
		return rendered
	}
	return msg.Content
}

func formatUserMessage(timestamp, role, content string) string {
	greenBold := "\x1b[32;1m"
	reset := "\x1b[0m"
	bar := greenBold + "┃" + reset

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")

	return result.String()
}

func formatToolInvocation(timestamp string, call chat.ToolCall) string {
	method, _ := call.Arguments["method"].(string)
	path, _ := call.Arguments["path"].(string)

	line := fmt.Sprintf("%s %s", method, path)
	if method == "" && path == "" {
		line = call.Name
	}

	return fmt.Sprintf("%s %s %s\n\n",
		timestamp,
		ToolStyle.Render("Tool ▸"),
		TitleStyle.Render(line))
}

// formatToolResult shows the executed call's status line and a body
// preview instead of the raw result JSON.
func formatToolResult(timestamp, content string) string {
	var result executor.Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return fmt.Sprintf("%s %s\n%s\n\n", timestamp, ToolStyle.Render("Result"), content)
	}

	var status string
	switch {
	case result.Error != "":
		status = ErrorStyle.Render("network error: " + result.Error)
	case result.OK:
		status = UserStyle.Render(fmt.Sprintf("%d %s", result.Status, result.StatusText))
	default:
		status = ErrorStyle.Render(fmt.Sprintf("%d %s", result.Status, result.StatusText))
	}

	body := result.Body
	if len(body) > 600 {
		body = body[:600] + "…"
	}
	if result.Truncated {
		body += DimStyle.Render("\n(body truncated)")
	}

	out := fmt.Sprintf("%s %s %s\n", timestamp, ToolStyle.Render("Result"), status)
	if body != "" {
		out += DimStyle.Render(body) + "\n"
	}
	return out + "\n"
}

func (a AppView) renderMarkdownAsync(messageID, content string) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		startTime := time.Now()

		// Disable autolink so terminal emulators handle URL detection
		defaultExt := markdown.Extensions()
		customExt := defaultExt &^ parser.Autolink
		p := parser.NewWithExtensions(customExt)
		r := markdown.NewRenderer(width-4, 0)
		doc := p.Parse([]byte(content))
		rendered := gomarkdown.Render(doc, r)

		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] Markdown rendered for %s in %v", messageID, time.Since(startTime))
		}

		return markdownRenderedMsg{
			MessageID: messageID,
			Rendered:  strings.TrimRight(string(rendered), "\n"),
		}
	}
}
