// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package cliui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func send(m *model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestSelect_NoOptions(t *testing.T) {
	_, _, err := Select("hosts", nil)
	require.ErrorIs(t, err, ErrNoOptions)
}

func TestModel_Choose(t *testing.T) {
	m := newModel("Select the origin host:", []string{"istc3", "istc4", "all"})

	send(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	idx, choice, err := m.result()
	require.NoError(t, err)
	require.Equal(t, 1, idx)
	require.Equal(t, "istc4", choice)
	require.Contains(t, m.View(), "Selected istc4")
}

func TestModel_Cancel(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{name: "ctrl+c", msg: tea.KeyMsg{Type: tea.KeyCtrlC}},
		{name: "esc", msg: tea.KeyMsg{Type: tea.KeyEscape}},
		{name: "q", msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel("hosts", []string{"a", "b"})
			send(m, tt.msg)

			_, _, err := m.result()
			require.ErrorIs(t, err, ErrCancelled)
			require.Contains(t, m.View(), "Selection cancelled.")
		})
	}
}
