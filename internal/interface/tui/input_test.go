package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(m InputModel, s string) InputModel {
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return updated.(InputModel)
}

func TestInputSubmit(t *testing.T) {
	m := NewInput("Requisitos", "", "")
	m = typeText(m, "criar tela de login")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = updated.(InputModel)

	if !m.Submitted() || m.Cancelled() {
		t.Fatalf("submitted=%v cancelled=%v", m.Submitted(), m.Cancelled())
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
	if m.Value() != "criar tela de login" {
		t.Errorf("Value() = %q", m.Value())
	}
}

func TestInputCancel(t *testing.T) {
	m := typeText(NewInput("Contexto", "", ""), "draft")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(InputModel)

	if m.Submitted() || !m.Cancelled() {
		t.Errorf("submitted=%v cancelled=%v", m.Submitted(), m.Cancelled())
	}
}

func TestInputInitialValue(t *testing.T) {
	m := NewInput("Contexto", "", "  existing text \n")
	if m.Value() != "existing text" {
		t.Errorf("Value() = %q", m.Value())
	}
}

func TestInputView(t *testing.T) {
	view := NewInput("Requisitos do módulo", "", "").View()
	if !strings.Contains(view, "Requisitos do módulo") {
		t.Error("title missing from view")
	}
	if !strings.Contains(view, "ctrl+d") {
		t.Error("help missing from view")
	}
}
