package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (h *Home) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		h.cancel()
		return h, tea.Quit
	}
	if h.explainPanel.IsVisible() {
		return h.handlePanelKey(msg)
	}
	if h.filtering {
		return h.handleFilterKey(msg)
	}
	return h.handleMainKey(msg)
}

// handlePanelKey handles keys while the explanation panel is open
func (h *Home) handlePanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		h.explainPanel.Hide()
		return h, nil
	case "enter":
		if h.explainPanel.IsAsking() {
			return h, h.askQuestion()
		}
	case "c":
		if !h.explainPanel.IsAsking() {
			return h, h.explainPanel.Copy()
		}
	}
	return h, h.explainPanel.Update(msg)
}

// handleFilterKey handles keys while the topic filter has focus
func (h *Home) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		h.filtering = false
		h.filterInput.Blur()
		h.filterInput.SetValue("")
		h.applyFilter()
		return h, nil
	case "enter":
		h.filtering = false
		h.filterInput.Blur()
		return h, nil
	case "up":
		h.moveCursor(-1)
		return h, nil
	case "down":
		h.moveCursor(1)
		return h, nil
	}

	var cmd tea.Cmd
	h.filterInput, cmd = h.filterInput.Update(msg)
	h.applyFilter()
	return h, cmd
}

func (h *Home) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		h.cancel()
		return h, tea.Quit
	case "tab":
		h.tab = (h.tab + 1) % Tab(len(tabNames))
		return h, nil
	case "1":
		h.tab = TabExplain
		return h, nil
	case "2":
		h.tab = TabConfidence
		return h, nil
	case "?":
		return h, h.explainPanel.Ask()
	}

	if h.tab != TabExplain {
		return h, nil
	}

	switch msg.String() {
	case "up", "k":
		h.moveCursor(-1)
	case "down", "j":
		h.moveCursor(1)
	case "/":
		h.filtering = true
		return h, h.filterInput.Focus()
	case "enter":
		if t, ok := h.selectedTopic(); ok {
			return h, h.explainTopic(t)
		}
	}
	return h, nil
}
