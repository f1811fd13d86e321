// Package ui is the bubbletea front end: a chat viewport over the
// conversation session, with settings, a model picker, and the tool
// call confirmation flow.
package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"apitui/chat"
	"apitui/config"
	"apitui/executor"
	"apitui/llm"
	"apitui/openapi"
	"apitui/storage"
)

type AppView struct {
	cfg    *config.Config
	mirror *storage.Mirror

	session *chat.Session
	events  chan chat.Event

	policy        storage.ToolPolicy
	schemaSummary string
	schemaTitle   string

	// UI components
	viewport       viewport.Model
	textarea       textarea.Model
	loadingSpinner spinner.Model

	width  int
	height int
	ready  bool

	streaming     bool
	executingTool string

	// Markdown render cache, keyed by message ID
	rendered map[string]string

	showHelp bool

	// Tool confirmation state
	pendingCall  *chat.PendingCall
	toolEditMode bool
	toolEditArea textarea.Model
	toolEditErr  string

	// Settings modal
	showSettings       bool
	settingsFields     []SettingField
	selectedSettingIdx int
	settingsEditMode   bool
	settingsEditInput  textinput.Model
	settingsHasChanges bool
	settingsSaveError  string
	connectionStatus   string

	// Model selector
	showModelSelector bool
	modelList         []llm.ModelInfo
	filteredModelList []llm.ModelInfo
	selectedModelIdx  int
	modelFilterMode   bool
	modelFilterInput  textinput.Model
	modelListError    string
}

func NewAppView(cfg *config.Config, mirror *storage.Mirror) AppView {
	ta := textarea.New()
	ta.Placeholder = "Ask about the API or tell me to call an endpoint..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter sends
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	vp := viewport.New(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	modelFilterInput := textinput.New()
	modelFilterInput.Prompt = "Filter: "
	modelFilterInput.CharLimit = 64

	settingsEditInput := textinput.New()
	settingsEditInput.CharLimit = 256

	toolEditArea := textarea.New()
	toolEditArea.ShowLineNumbers = false
	toolEditArea.SetHeight(10)
	toolEditArea.SetWidth(70)

	policy := mirror.LoadToolPolicy(storage.ToolPolicy{
		EnableTools: cfg.Tools.Enabled,
		AutoExecute: cfg.Tools.AutoExecute,
		BearerToken: cfg.Target.BearerToken,
	})

	a := AppView{
		cfg:               cfg,
		mirror:            mirror,
		events:            make(chan chat.Event, 64),
		policy:            policy,
		viewport:          vp,
		textarea:          ta,
		loadingSpinner:    sp,
		rendered:          make(map[string]string),
		modelFilterInput:  modelFilterInput,
		settingsEditInput: settingsEditInput,
		toolEditArea:      toolEditArea,
	}
	a.session = a.buildSession()

	if err := mirror.TouchConversation(a.session.ID()); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[UI] Failed to stamp conversation meta: %v", err)
	}

	return a
}

// buildSession assembles a session from the current config, policy,
// and schema context. Rebuilt whenever settings are saved or the
// schema finishes loading; history is restored from the mirror.
func (a *AppView) buildSession() *chat.Session {
	bearer := a.policy.BearerToken
	if bearer == "" {
		bearer = a.cfg.Target.BearerToken
	}

	exec := executor.NewWithClient(a.cfg.Target.BaseURL, bearer, nil)

	var tools []llm.Tool
	if a.policy.EnableTools {
		tools = llm.ConvertMCPTools([]mcptypes.Tool{openapi.RequestTool()})
	}

	events := a.events
	return chat.NewSession(chat.Options{
		Client:       llm.FromConfig(a.cfg.LLM),
		Executor:     exec,
		Mirror:       a.mirror,
		Tools:        tools,
		ToolsEnabled: a.policy.EnableTools,
		AutoExecute:  a.policy.AutoExecute,
		SystemPrompt: openapi.SystemPrompt(a.schemaSummary, a.policy.EnableTools),
		Notify: func(ev chat.Event) {
			events <- ev
		},
	})
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		a.loadingSpinner.Tick,
		waitForEvent(a.events),
		a.loadSchemaCmd(),
	)
}

func waitForEvent(events chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		return sessionEventMsg{Event: <-events}
	}
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showHelp {
		return renderHelpModal(a.width, a.height)
	}

	if a.showSettings {
		return a.renderSettings()
	}

	if a.showModelSelector {
		return renderModelSelector(a.modelList, a.selectedModelIdx, a.cfg.LLM.Model,
			a.modelFilterMode, a.modelFilterInput, a.filteredModelList, a.modelListError,
			a.width, a.height)
	}

	if a.pendingCall != nil {
		return a.renderToolConfirm()
	}

	// Title bar
	title := AssistantStyle.Render("APITUI")
	title += TitleStyle.Render(fmt.Sprintf(" - %s", a.cfg.LLM.Model))
	if a.schemaTitle != "" {
		title += UserStyle.Render(fmt.Sprintf(" - %s", a.schemaTitle))
	}
	if a.policy.EnableTools {
		mode := "confirm"
		if a.policy.AutoExecute {
			mode = "auto"
		}
		title += DimStyle.Render(fmt.Sprintf(" | tools: %s", mode))
	}
	if a.executingTool != "" {
		title += ToolStyle.Render(fmt.Sprintf(" | %s %s", a.executingTool, a.loadingSpinner.View()))
	}

	descStyle := lipgloss.NewStyle().Foreground(successColor).Bold(true)
	statusBar := fmt.Sprintf("Alt+Q %s  Alt+S %s  Alt+M %s  Alt+L %s  Alt+Y %s  Esc %s  Enter %s",
		descStyle.Render("Quit"),
		descStyle.Render("Settings"),
		descStyle.Render("Models"),
		descStyle.Render("Clear"),
		descStyle.Render("Copy"),
		descStyle.Render("Cancel"),
		descStyle.Render("Send"),
	)
	statusBar = StatusStyle.Render(statusBar)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		a.viewport.View(),
		a.textarea.View(),
		statusBar,
	)
}

func (a AppView) getModelList() []llm.ModelInfo {
	if a.modelFilterMode && len(a.filteredModelList) > 0 {
		return a.filteredModelList
	}
	return a.modelList
}
