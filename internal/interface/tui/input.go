package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user leaves the editor without submitting
var ErrCancelled = errors.New("input cancelled")

// InputModel is a multi-line editor. ctrl+d submits, esc cancels.
type InputModel struct {
	title     string
	textarea  textarea.Model
	submitted bool
	cancelled bool
	width     int
}

// NewInput creates an editor with an optional initial value
func NewInput(title, placeholder, initial string) InputModel {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(12)
	ta.SetValue(initial)
	ta.Focus()

	return InputModel{title: title, textarea: ta, width: 80}
}

func (m InputModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m InputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 4 {
			m.textarea.SetWidth(msg.Width - 2)
		}
		if msg.Height > 8 {
			m.textarea.SetHeight(msg.Height - 6)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlD:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m InputModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("ctrl+d: submit • esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// Value returns the text typed so far, trimmed
func (m InputModel) Value() string {
	return strings.TrimSpace(m.textarea.Value())
}

// Submitted reports whether the user confirmed the input
func (m InputModel) Submitted() bool {
	return m.submitted
}

// Cancelled reports whether the user abandoned the input
func (m InputModel) Cancelled() bool {
	return m.cancelled
}

// ReadMultiline runs the editor and returns what the user submitted
func ReadMultiline(title, placeholder, initial string) (string, error) {
	p := tea.NewProgram(NewInput(title, placeholder, initial))
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(InputModel)
	if !ok || !m.Submitted() {
		return "", ErrCancelled
	}
	return m.Value(), nil
}
