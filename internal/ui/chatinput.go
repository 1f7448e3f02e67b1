package ui

import (
	"fmt"
	"strings"

	"github.com/activebook/lulu/data"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ChatInputResult holds the result of the chat input
type ChatInputResult struct {
	Value    string
	Canceled bool
}

// ChatInputModel is a one-line prompt with / command completion.
type ChatInputModel struct {
	input           textinput.Model
	commands        []string
	filtered        []string
	suggestionIndex int
	canceled        bool
	submitted       bool
}

// NewChatInputModel creates a new chat input model
func NewChatInputModel(commands []string, placeholder string) ChatInputModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "┃ "
	ti.CharLimit = 2000
	ti.Width = GetTerminalWidth() - 4
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(data.LabelHex)).Bold(true)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(data.DetailHex))
	ti.Focus()

	return ChatInputModel{input: ti, commands: commands}
}

func (m ChatInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ChatInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 4

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			m.canceled = true
			return m, tea.Quit

		case tea.KeyEnter:
			if len(m.filtered) > 0 {
				m.selectSuggestion()
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit

		case tea.KeyUp:
			if len(m.filtered) > 0 {
				m.suggestionIndex = (m.suggestionIndex - 1 + len(m.filtered)) % len(m.filtered)
				return m, nil
			}

		case tea.KeyDown:
			if len(m.filtered) > 0 {
				m.suggestionIndex = (m.suggestionIndex + 1) % len(m.filtered)
				return m, nil
			}

		case tea.KeyTab:
			if len(m.filtered) > 0 {
				m.selectSuggestion()
				return m, nil
			}

		case tea.KeyEsc:
			if len(m.filtered) > 0 {
				m.filtered = nil
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filtered = MatchCommands(m.commands, m.input.Value())
	if m.suggestionIndex >= len(m.filtered) {
		m.suggestionIndex = 0
	}
	return m, cmd
}

// MatchCommands returns the commands completing value. Suggestions stop
// once the command word is complete and followed by a space.
func MatchCommands(commands []string, value string) []string {
	trimmed := strings.TrimLeft(value, " ")
	if !strings.HasPrefix(trimmed, "/") || strings.ContainsAny(trimmed, " \t") {
		return nil
	}
	var matches []string
	for _, c := range commands {
		if strings.HasPrefix(c, trimmed) && c != trimmed {
			matches = append(matches, c)
		}
	}
	return matches
}

func (m *ChatInputModel) selectSuggestion() {
	if m.suggestionIndex < len(m.filtered) {
		selected := m.filtered[m.suggestionIndex]
		m.input.SetValue(selected + " ")
		m.input.CursorEnd()
		m.filtered = nil
	}
}

func (m ChatInputModel) View() string {
	if m.canceled || m.submitted {
		return ""
	}
	if len(m.filtered) == 0 {
		return m.input.View()
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(data.BorderHex)).
		Padding(0, 1)

	var items []string
	for i, c := range m.filtered {
		itemStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(data.DetailHex))
		prefix := "  "
		if i == m.suggestionIndex {
			itemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(data.KeyHex)).Bold(true)
			prefix = "> "
		}
		items = append(items, itemStyle.Render(fmt.Sprintf("%s%s", prefix, c)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, style.Render(strings.Join(items, "\n")), m.input.View())
}

// RunChatInput reads one line from the user.
func RunChatInput(commands []string, placeholder string) (ChatInputResult, error) {
	p := tea.NewProgram(NewChatInputModel(commands, placeholder))

	finalModel, err := p.Run()
	if err != nil {
		return ChatInputResult{}, err
	}

	m := finalModel.(ChatInputModel)
	if m.canceled {
		return ChatInputResult{Canceled: true}, nil
	}
	return ChatInputResult{Value: strings.TrimSpace(m.input.Value())}, nil
}
