// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package cliui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth = 20
	listHeight   = 14
)

var (
	titleStyle      = lipgloss.NewStyle().MarginLeft(2)
	paginationStyle = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle       = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

var (
	ErrNoOptions = errors.New("no options provided")
	ErrCancelled = errors.New("selection cancelled")
)

// Select displays an interactive menu with title and options and returns
// the zero-based index and value of the chosen option.
//
// Example usage:
//
//	idx, host, err := cliui.Select("Select the origin host:", []string{"istc3", "istc4"})
//	if errors.Is(err, cliui.ErrCancelled) {
//	    return
//	}
func Select(title string, options []string) (int, string, error) {
	if len(options) == 0 {
		return -1, "", ErrNoOptions
	}

	m := newModel(title, options)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return -1, "", fmt.Errorf("error selecting from CLI menu: %w", err)
	}
	return m.result()
}

func newModel(title string, options []string) *model {
	items := make([]list.Item, 0, len(options))
	for _, option := range options {
		items = append(items, item(option))
	}

	l := list.New(items, itemDelegate{}, defaultWidth, listHeight)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return &model{
		list:  l,
		index: -1,
	}
}
