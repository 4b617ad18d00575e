// Package tui provides the interactive chat surface over the unified
// backend client. It holds the conversation History and threads the value
// returned by each Converse call into the next one.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmorenn/modelbridge/internal/llm"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("76"))
	degradedStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type responseMsg struct {
	text    string
	history llm.History
	err     error
}

// Model is the main TUI model
type Model struct {
	client    llm.Client
	modelName string
	system    string
	temp      float64

	history    llm.History
	transcript []string

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	width    int
	height   int
	ready    bool
	thinking bool
}

// New creates a new TUI model
func New(client llm.Client, modelName, system string, temp float64) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask something..."
	ta.Prompt = "> "
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		client:    client,
		modelName: modelName,
		system:    system,
		temp:      temp,
		input:     ta,
		spinner:   sp,
	}
}

// Init initializes the TUI
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// sendQuery issues one blocking Converse call off the UI loop.
func (m Model) sendQuery(query string) tea.Cmd {
	client := m.client
	history := m.history
	req := llm.Request{
		Query:       query,
		System:      m.system,
		History:     history,
		Temperature: m.temp,
	}
	return func() tea.Msg {
		text, newHistory, err := client.Converse(context.Background(), req)
		return responseMsg{text: text, history: newHistory, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			query := strings.TrimSpace(m.input.Value())
			if query == "" || m.thinking {
				return m, nil
			}
			m.input.Reset()
			m.thinking = true
			m.appendLine(userStyle.Render("You: ") + query)
			return m, tea.Batch(m.spinner.Tick, m.sendQuery(query))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.SetWidth(msg.Width - 4)
		m.refresh()

	case responseMsg:
		m.thinking = false
		if msg.err != nil {
			// Caller contract violation, e.g. a system prompt sent to a
			// backend without system-role support. Nothing was appended.
			m.appendLine(errorStyle.Render("Error: ") + msg.err.Error())
			return m, nil
		}
		m.history = msg.history
		if msg.text == "" {
			m.appendLine(assistantStyle.Render(m.modelName+": ") + degradedStyle.Render("(no response)"))
		} else {
			m.appendLine(assistantStyle.Render(m.modelName+": ") + msg.text)
		}
		return m, nil

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) appendLine(line string) {
	m.transcript = append(m.transcript, line, "")
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	header := titleStyle.Render("modelbridge") + helpStyle.Render("  "+m.modelName) + "\n"

	status := ""
	if m.thinking {
		status = m.spinner.View() + " waiting for " + m.modelName
	}

	footer := m.input.View() + "\n" +
		status + "\n" +
		helpStyle.Render("enter: send • esc: quit")

	return header + "\n" + m.viewport.View() + "\n" + footer
}
