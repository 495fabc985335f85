package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/asheshgoplani/foldlens/internal/ai"
	"github.com/asheshgoplani/foldlens/internal/render"
	"github.com/asheshgoplani/foldlens/internal/telemetry"
	"github.com/asheshgoplani/foldlens/internal/topics"
)

// Tab identifies a top-level view
type Tab int

const (
	TabExplain Tab = iota
	TabConfidence
)

var tabNames = []string{"Explain", "Confidence"}

// Options configures a Home model
type Options struct {
	Explainer    *ai.Explainer
	Catalog      *topics.Catalog
	GlamourStyle string
	Telemetry    *telemetry.Logger
	Seed         int64 // demo confidence data
	WatchConfig  bool

	// Re-applied on config hot reload so CLI flags keep winning
	ProviderOverride string
	ModelOverride    string
}

// Home is the main Bubble Tea model
type Home struct {
	ExplainManager
	TelemetryManager

	ctx    context.Context
	cancel context.CancelFunc

	tab         Tab
	catalog     *topics.Catalog
	filterInput textinput.Model
	filtering   bool
	visible     []topics.Topic
	cursor      int
	confidence  confidenceData

	width      int
	height     int
	statusLine string

	watchConfig      bool
	configCh         chan configReloadedMsg
	providerOverride string
	modelOverride    string
}

// NewHome creates the TUI model
func NewHome(opts Options) *Home {
	ctx, cancel := context.WithCancel(context.Background())

	catalog := opts.Catalog
	if catalog == nil {
		catalog = topics.Builtin()
	}

	fi := textinput.New()
	fi.Placeholder = "filter topics"
	fi.Prompt = "/ "
	fi.CharLimit = 64

	h := &Home{
		ExplainManager: ExplainManager{
			explainer:    opts.Explainer,
			explainPanel: NewExplainPanel(opts.GlamourStyle),
		},
		ctx:              ctx,
		cancel:           cancel,
		catalog:          catalog,
		filterInput:      fi,
		visible:          catalog.All(),
		confidence:       newConfidenceData(opts.Seed),
		watchConfig:      opts.WatchConfig,
		configCh:         make(chan configReloadedMsg, 1),
		providerOverride: opts.ProviderOverride,
		modelOverride:    opts.ModelOverride,
	}
	if opts.Telemetry != nil {
		h.telemetry = opts.Telemetry
	}
	return h
}

// Init starts background work: the visit event and the config watcher
func (h *Home) Init() tea.Cmd {
	cmds := []tea.Cmd{h.logEvent("visit")}
	if h.watchConfig {
		h.startConfigWatcher()
		cmds = append(cmds, h.waitForConfig())
	}
	return tea.Batch(cmds...)
}

// Close cancels in-flight requests and stops the config watcher
func (h *Home) Close() {
	h.cancel()
}

// Update handles messages
func (h *Home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width = msg.Width
		h.height = msg.Height
		h.explainPanel.SetSize(msg.Width, msg.Height)
		return h, nil

	case explanationMsg:
		h.handleExplanation(msg)
		return h, nil

	case configReloadedMsg:
		return h, h.handleConfigReloaded(msg)

	case tea.KeyMsg:
		return h.handleKey(msg)
	}

	// spinner ticks and copy feedback expiry
	return h, h.explainPanel.Update(msg)
}

// View renders the screen
func (h *Home) View() string {
	var body string
	switch {
	case h.explainPanel.IsVisible():
		body = h.explainPanel.View()
		if h.width > 0 && h.height > 4 {
			body = lipgloss.Place(h.width, h.height-4, lipgloss.Center, lipgloss.Center, body)
		}
	case h.tab == TabConfidence:
		body = renderConfidence(h.confidence, h.width)
	default:
		body = h.renderTopicList()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		h.renderTabs(),
		"",
		body,
		"",
		h.renderFooter(),
	)
}

func (h *Home) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == h.tab {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = inactiveTabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (h *Home) renderTopicList() string {
	var b strings.Builder
	if h.filtering || h.filterInput.Value() != "" {
		b.WriteString(h.filterInput.View())
		b.WriteString("\n\n")
	}
	if len(h.visible) == 0 {
		b.WriteString(dimStyle.Render("No matching topics"))
		return b.String()
	}

	nameWidth := 0
	for _, t := range h.visible {
		nameWidth = max(nameWidth, runewidth.StringWidth(t.Name))
	}

	for i, t := range h.visible {
		name := runewidth.FillRight(t.Name, nameWidth)
		analogy := t.Analogy
		if h.width > 0 {
			analogy = render.Truncate(analogy, h.width-nameWidth-6)
		}
		if i == h.cursor {
			b.WriteString(selectedStyle.Render("▸ " + name))
		} else {
			b.WriteString("  " + name)
		}
		b.WriteString("  ")
		b.WriteString(dimStyle.Render(analogy))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Home) renderFooter() string {
	help := "↑/↓: move • Enter: explain • /: filter • ?: ask • Tab: switch • q: quit"
	if h.tab == TabConfidence {
		help = "Tab/1: topics • ?: ask • q: quit"
	}
	if h.statusLine != "" {
		return dimStyle.Render(h.statusLine) + "\n" + helpStyle.Render(help)
	}
	return helpStyle.Render(help)
}
