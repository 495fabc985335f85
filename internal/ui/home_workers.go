package ui

import (
	"context"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/asheshgoplani/foldlens/internal/ai"
	"github.com/asheshgoplani/foldlens/internal/config"
	"github.com/asheshgoplani/foldlens/internal/topics"
)

// configReloadedMsg carries what was rebuilt from a changed config.toml
type configReloadedMsg struct {
	explainer *ai.Explainer
	catalog   *topics.Catalog
	style     string
	err       error
}

// TelemetryManager holds the usage logger. Embedded in Home.
type TelemetryManager struct {
	telemetry interface {
		LogEvent(ctx context.Context, event string) error
	}
}

// logEvent returns a command that posts event in the background.
// Failures are logged and never reach the UI.
func (h *Home) logEvent(event string) tea.Cmd {
	logger := h.telemetry
	if logger == nil {
		return nil
	}
	ctx := h.ctx
	return func() tea.Msg {
		if err := logger.LogEvent(ctx, event); err != nil {
			log.Printf("[TELEMETRY] %s not recorded: %v", event, err)
		}
		return nil
	}
}

// startConfigWatcher forwards config.toml changes into configCh until the
// Home context is cancelled
func (h *Home) startConfigWatcher() {
	err := config.WatchUserConfig(h.ctx, func(cfg *config.UserConfig, err error) {
		msg := configReloadedMsg{err: err}
		if err == nil {
			msg.explainer, msg.err = cfg.WithAIOverrides(h.providerOverride, h.modelOverride).NewExplainer()
		}
		if msg.err == nil {
			settings := cfg.GetUISettings()
			msg.style = settings.GlamourStyle
			msg.catalog, msg.err = topics.Load(settings.TopicsFile)
		}
		select {
		case h.configCh <- msg:
		case <-h.ctx.Done():
		}
	})
	if err != nil {
		log.Printf("[CONFIG] Hot reload disabled: %v", err)
	}
}

// waitForConfig blocks on the next reload; re-issued after every delivery
func (h *Home) waitForConfig() tea.Cmd {
	ch := h.configCh
	ctx := h.ctx
	return func() tea.Msg {
		select {
		case msg := <-ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// handleConfigReloaded swaps in the rebuilt explainer, catalog and panel
// style. Requests already in flight keep the explainer they started with.
func (h *Home) handleConfigReloaded(msg configReloadedMsg) tea.Cmd {
	if msg.err != nil {
		log.Printf("[CONFIG] Keeping previous AI settings: %v", msg.err)
		h.statusLine = "Config reload failed: " + msg.err.Error()
	} else {
		h.explainer = msg.explainer
		h.replaceCatalog(msg.catalog)
		if msg.style != "" {
			h.explainPanel.SetStyle(msg.style)
		}
		h.statusLine = "Config reloaded"
	}
	return h.waitForConfig()
}
