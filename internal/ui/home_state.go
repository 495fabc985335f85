package ui

import (
	"strings"

	"github.com/asheshgoplani/foldlens/internal/topics"
)

// reloadState captures UI state before the catalog is swapped
type reloadState struct {
	cursorTopic string // name of topic at cursor
	filter      string
}

// preserveState captures current UI state before reload
func (h *Home) preserveState() reloadState {
	state := reloadState{filter: h.filterInput.Value()}
	if t, ok := h.selectedTopic(); ok {
		state.cursorTopic = t.Name
	}
	return state
}

// restoreState re-applies the filter and puts the cursor back on the same
// topic if the new catalog still has it
func (h *Home) restoreState(state reloadState) {
	h.filterInput.SetValue(state.filter)
	h.applyFilter()

	if state.cursorTopic != "" {
		for i, t := range h.visible {
			if strings.EqualFold(t.Name, state.cursorTopic) {
				h.cursor = i
				return
			}
		}
	}

	// Fallback: clamp cursor to valid range
	if len(h.visible) > 0 {
		h.cursor = min(max(h.cursor, 0), len(h.visible)-1)
	} else {
		h.cursor = 0
	}
}

// replaceCatalog swaps the topic catalog, keeping selection and filter
func (h *Home) replaceCatalog(c *topics.Catalog) {
	if c == nil {
		return
	}
	state := h.preserveState()
	h.catalog = c
	h.restoreState(state)
}

func (h *Home) applyFilter() {
	h.visible = h.catalog.Search(h.filterInput.Value())
	if h.cursor >= len(h.visible) {
		h.cursor = max(len(h.visible)-1, 0)
	}
}

func (h *Home) moveCursor(delta int) {
	if len(h.visible) == 0 {
		h.cursor = 0
		return
	}
	h.cursor = min(max(h.cursor+delta, 0), len(h.visible)-1)
}

func (h *Home) selectedTopic() (topics.Topic, bool) {
	if h.cursor < 0 || h.cursor >= len(h.visible) {
		return topics.Topic{}, false
	}
	return h.visible[h.cursor], true
}
