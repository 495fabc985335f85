package ui

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/asheshgoplani/foldlens/internal/ai"
	"github.com/asheshgoplani/foldlens/internal/topics"
)

// ExplainManager holds the explainer and the explanation panel.
//
// Embedded in Home for field access (same pattern as TelemetryManager).
type ExplainManager struct {
	explainer    *ai.Explainer
	explainPanel *ExplainPanel
}

// explainTopic opens the panel for t and starts the request
func (h *Home) explainTopic(t topics.Topic) tea.Cmd {
	return h.startExplanation(topics.Title(t), topics.BuildPrompt(t))
}

// askQuestion sends the question typed into the panel as a free-form prompt
func (h *Home) askQuestion() tea.Cmd {
	question := h.explainPanel.Question()
	if question == "" {
		return nil
	}
	return h.startExplanation("Q: "+question, question)
}

func (h *Home) startExplanation(title, prompt string) tea.Cmd {
	requestID, spin := h.explainPanel.Open(title)
	return tea.Batch(spin, h.requestExplanation(requestID, prompt))
}

// requestExplanation returns a command that runs the retry chain off the UI
// loop. Explain never fails, so the message always carries display text.
func (h *Home) requestExplanation(requestID int, prompt string) tea.Cmd {
	explainer := h.explainer
	ctx := h.ctx
	return func() tea.Msg {
		if explainer == nil {
			return explanationMsg{requestID: requestID, text: ai.FailureText}
		}
		return explanationMsg{requestID: requestID, text: explainer.Explain(ctx, prompt)}
	}
}

// handleExplanation applies a finished request; stale ones are dropped
func (h *Home) handleExplanation(msg explanationMsg) {
	if !h.explainPanel.SetExplanation(msg.requestID, msg.text) {
		log.Printf("[UI] Dropping stale explanation for request %d", msg.requestID)
	}
}
