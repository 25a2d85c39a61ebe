// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/bookworm/internal/errors"
)

const defaultInputWidth = 48

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// PromptAction represents the user's action in the prompt.
type PromptAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone PromptAction = iota
	// ActionSubmitted indicates the user entered a query.
	ActionSubmitted
	// ActionCancelled indicates the user aborted the prompt.
	ActionCancelled
)

type promptModel struct {
	title  string
	input  textinput.Model
	action PromptAction
	err    string
}

func newPromptModel(title, placeholder string) *promptModel {
	input := textinput.New()
	input.Placeholder = placeholder
	input.CharLimit = 256
	input.Width = defaultInputWidth
	input.Prompt = "> "
	input.Focus()

	return &promptModel{title: title, input: input}
}

func (m *promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			if strings.TrimSpace(m.input.Value()) == "" {
				m.err = "query must not be empty"
				return m, nil
			}
			m.action = ActionSubmitted
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.action = ActionCancelled
			return m, tea.Quit
		}
		m.err = ""
	case tea.WindowSizeMsg:
		m.input.Width = clamp(defaultInputWidth, msg.Width-6, 10)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *promptModel) View() string {
	parts := []string{
		headerStyle.Render(m.title),
		m.input.View(),
	}
	if m.err != "" {
		parts = append(parts, errorStyle.Render(m.err))
	}
	parts = append(parts, helpStyle.Render("Enter search | Esc cancel"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Query returns the submitted text, trimmed.
func (m *promptModel) Query() string {
	return strings.TrimSpace(m.input.Value())
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("161"))

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// PromptQuery asks for a search query. Cancelling the prompt returns a
// StopProcessingError.
func PromptQuery(title string) (string, error) {
	m := newPromptModel(title, "e.g. subject:fantasy or inauthor:tolkien")
	finalModel, err := runProgram(m)
	if err != nil {
		return "", fmt.Errorf("query prompt failed: %w", err)
	}

	typed, ok := finalModel.(*promptModel)
	if !ok {
		return "", fmt.Errorf("unexpected program result")
	}
	if typed.action != ActionSubmitted {
		return "", errors.NewStopProcessingError("query prompt cancelled")
	}
	return typed.Query(), nil
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
