package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"apitui/config"
	"apitui/llm"
)

type SettingFieldType int

const (
	SettingTypeText SettingFieldType = iota
	SettingTypeSecret
	SettingTypeToggle
	SettingTypePreset
)

type SettingField struct {
	Label string
	Value string
	Type  SettingFieldType
}

// Field indices; buildSettingsFields and applySettings must agree.
const (
	fieldProvider = iota
	fieldBaseURL
	fieldAPIKey
	fieldModel
	fieldMaxTokens
	fieldTemperature
	fieldTargetURL
	fieldSchemaURL
	fieldBearerToken
	fieldToolsEnabled
	fieldAutoExecute
	fieldCount
)

func (a *AppView) openSettings() {
	a.showSettings = true
	a.selectedSettingIdx = 0
	a.settingsEditMode = false
	a.settingsHasChanges = false
	a.settingsSaveError = ""
	a.connectionStatus = ""
	a.settingsFields = a.buildSettingsFields()
}

func (a *AppView) buildSettingsFields() []SettingField {
	fields := make([]SettingField, fieldCount)
	fields[fieldProvider] = SettingField{Label: "Provider", Value: a.cfg.LLM.Provider, Type: SettingTypePreset}
	fields[fieldBaseURL] = SettingField{Label: "Base URL", Value: a.cfg.LLM.BaseURL, Type: SettingTypeText}
	fields[fieldAPIKey] = SettingField{Label: "API Key", Value: a.cfg.LLM.APIKey, Type: SettingTypeSecret}
	fields[fieldModel] = SettingField{Label: "Model", Value: a.cfg.LLM.Model, Type: SettingTypeText}
	fields[fieldMaxTokens] = SettingField{Label: "Max Tokens", Value: strconv.Itoa(a.cfg.LLM.MaxTokens), Type: SettingTypeText}
	fields[fieldTemperature] = SettingField{Label: "Temperature", Value: strconv.FormatFloat(a.cfg.LLM.Temperature, 'f', -1, 64), Type: SettingTypeText}
	fields[fieldTargetURL] = SettingField{Label: "Target API URL", Value: a.cfg.Target.BaseURL, Type: SettingTypeText}
	fields[fieldSchemaURL] = SettingField{Label: "Schema URL", Value: a.cfg.Target.SchemaURL, Type: SettingTypeText}
	fields[fieldBearerToken] = SettingField{Label: "Bearer Token", Value: a.policy.BearerToken, Type: SettingTypeSecret}
	fields[fieldToolsEnabled] = SettingField{Label: "Tools Enabled", Value: boolToString(a.policy.EnableTools), Type: SettingTypeToggle}
	fields[fieldAutoExecute] = SettingField{Label: "Auto-Execute Tools", Value: boolToString(a.policy.AutoExecute), Type: SettingTypeToggle}
	return fields
}

func (a AppView) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.settingsEditMode {
		switch msg.String() {
		case "esc":
			a.settingsEditMode = false
			a.settingsEditInput.Blur()
			return a, nil
		case "enter":
			a.settingsFields[a.selectedSettingIdx].Value = a.settingsEditInput.Value()
			a.settingsEditMode = false
			a.settingsEditInput.Blur()
			a.settingsHasChanges = true
			return a, nil
		}
		var cmd tea.Cmd
		a.settingsEditInput, cmd = a.settingsEditInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "esc", "alt+s":
		if a.settingsHasChanges {
			// Unsaved edits are discarded on exit
			a.settingsSaveError = ""
		}
		a.showSettings = false
		return a, nil

	case "j", "down":
		if a.selectedSettingIdx < len(a.settingsFields)-1 {
			a.selectedSettingIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedSettingIdx > 0 {
			a.selectedSettingIdx--
		}
		return a, nil

	case "enter", " ":
		field := &a.settingsFields[a.selectedSettingIdx]
		switch field.Type {
		case SettingTypeToggle:
			field.Value = boolToString(field.Value != "true")
			a.settingsHasChanges = true
			return a, nil

		case SettingTypePreset:
			a.cycleProviderPreset()
			return a, nil

		default:
			a.settingsEditMode = true
			a.settingsEditInput.SetValue(field.Value)
			a.settingsEditInput.Focus()
			a.settingsEditInput.CursorEnd()
			return a, textinput.Blink
		}

	case "alt+t":
		a.connectionStatus = "connecting"
		return a, a.testConnectionCmd()

	case "ctrl+s":
		return a.saveSettings()
	}

	return a, nil
}

// cycleProviderPreset advances to the next provider preset and adopts
// its base URL when it has a fixed one.
func (a *AppView) cycleProviderPreset() {
	presets := config.Presets()
	current := a.settingsFields[fieldProvider].Value

	next := presets[0]
	for i, p := range presets {
		if p.ID == current {
			next = presets[(i+1)%len(presets)]
			break
		}
	}

	a.settingsFields[fieldProvider].Value = next.ID
	if next.BaseURL != "" {
		a.settingsFields[fieldBaseURL].Value = next.BaseURL
	}
	a.settingsHasChanges = true
}

// saveSettings validates field values, writes the user config and tool
// policy, and rebuilds the session against the new endpoints.
func (a AppView) saveSettings() (tea.Model, tea.Cmd) {
	maxTokens, err := strconv.Atoi(strings.TrimSpace(a.settingsFields[fieldMaxTokens].Value))
	if err != nil || maxTokens <= 0 {
		a.settingsSaveError = "Max Tokens must be a positive integer"
		return a, nil
	}
	temperature, err := strconv.ParseFloat(strings.TrimSpace(a.settingsFields[fieldTemperature].Value), 64)
	if err != nil || temperature < 0 || temperature > 2 {
		a.settingsSaveError = "Temperature must be a number between 0 and 2"
		return a, nil
	}

	a.cfg.LLM.Provider = a.settingsFields[fieldProvider].Value
	a.cfg.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(a.settingsFields[fieldBaseURL].Value), "/")
	a.cfg.LLM.APIKey = a.settingsFields[fieldAPIKey].Value
	a.cfg.LLM.Model = strings.TrimSpace(a.settingsFields[fieldModel].Value)
	a.cfg.LLM.MaxTokens = maxTokens
	a.cfg.LLM.Temperature = temperature
	a.cfg.Target.BaseURL = strings.TrimRight(strings.TrimSpace(a.settingsFields[fieldTargetURL].Value), "/")
	a.cfg.Target.SchemaURL = strings.TrimSpace(a.settingsFields[fieldSchemaURL].Value)

	a.policy.BearerToken = a.settingsFields[fieldBearerToken].Value
	a.policy.EnableTools = a.settingsFields[fieldToolsEnabled].Value == "true"
	a.policy.AutoExecute = a.settingsFields[fieldAutoExecute].Value == "true"
	a.cfg.Tools.Enabled = a.policy.EnableTools
	a.cfg.Tools.AutoExecute = a.policy.AutoExecute
	a.cfg.Target.BearerToken = a.policy.BearerToken

	if err := config.SaveUserConfig(a.cfg.UserView(), a.cfg.DataDir()); err != nil {
		a.settingsSaveError = fmt.Sprintf("Failed to save config: %v", err)
		return a, nil
	}
	if err := a.mirror.SaveToolPolicy(a.policy); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[UI] Failed to mirror tool policy: %v", err)
	}

	a.session.Cancel()
	a.session = a.buildSession()
	a.rendered = make(map[string]string)
	a.modelList = nil

	a.settingsHasChanges = false
	a.settingsSaveError = ""
	a.showSettings = false
	a.updateViewportContent(true)

	// Schema URL may have changed
	return a, tea.Batch(a.loadSchemaCmd(), a.renderPendingMarkdown())
}

func (a AppView) testConnectionCmd() tea.Cmd {
	cfg := config.LLMConfig{
		Provider: a.settingsFields[fieldProvider].Value,
		BaseURL:  strings.TrimRight(strings.TrimSpace(a.settingsFields[fieldBaseURL].Value), "/"),
		APIKey:   a.settingsFields[fieldAPIKey].Value,
	}
	return func() tea.Msg {
		if err := llm.Ping(context.Background(), cfg); err != nil {
			return connectionTestMsg{OK: false, Err: err}
		}
		return connectionTestMsg{OK: true}
	}
}

func (a AppView) renderSettings() string {
	modalWidth := 64
	if a.width < modalWidth+10 {
		modalWidth = a.width - 10
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Settings")

	var lines []string
	lines = append(lines, "")
	for i, field := range a.settingsFields {
		indicator := "  "
		if i == a.selectedSettingIdx {
			indicator = "▶ "
		}

		value := field.Value
		if field.Type == SettingTypeSecret && value != "" {
			value = strings.Repeat("*", 8)
		}
		if a.settingsEditMode && i == a.selectedSettingIdx {
			value = a.settingsEditInput.View()
		}

		line := fmt.Sprintf("%s%-20s %s", indicator, field.Label, value)
		if i == a.selectedSettingIdx && !a.settingsEditMode {
			line = SelectedStyle.Render(line)
		}
		lines = append(lines, truncateWidth(line, modalWidth))
	}
	lines = append(lines, "")

	switch a.connectionStatus {
	case "connecting":
		lines = append(lines, DimStyle.Render("  Testing connection..."))
	case "connected":
		lines = append(lines, UserStyle.Render("  ✓ Connection OK"))
	case "error":
		lines = append(lines, ErrorStyle.Render("  ✗ Connection failed"))
	}
	if a.settingsSaveError != "" {
		lines = append(lines, ErrorStyle.Render("  "+a.settingsSaveError))
	}
	if a.settingsHasChanges {
		lines = append(lines, DimStyle.Render("  (unsaved changes)"))
	}

	bodySection := lipgloss.NewStyle().
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(strings.Join(lines, "\n"))

	var footer string
	if a.settingsEditMode {
		footer = FormatFooter("Enter", "Apply", "Esc", "Cancel")
	} else {
		footer = FormatFooter("j/k", "Navigate", "Enter", "Edit/Toggle", "Alt+T", "Test", "Ctrl+S", "Save", "Esc", "Close")
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

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
