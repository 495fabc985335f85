package ui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/asheshgoplani/foldlens/internal/render"
)

// copyFeedbackDuration is how long "Copied!" stays visible
const copyFeedbackDuration = 2 * time.Second

// writeClipboard is swapped out in tests
var writeClipboard = clipboard.WriteAll

// explanationMsg is sent when Explain resolves for a request
type explanationMsg struct {
	requestID int
	text      string
}

// copyFeedbackExpiredMsg clears the copy status if no newer copy happened
type copyFeedbackExpiredMsg struct {
	seq int
}

// ExplainPanel is the modal that shows one explanation: a spinner while the
// request runs, then the rendered text in a scrollable viewport.
type ExplainPanel struct {
	visible   bool
	asking    bool // free-form question input is focused
	loading   bool
	title     string
	requestID int

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	text       string
	style      string
	copyStatus string
	copyErr    bool
	copySeq    int
	width      int
	height     int
}

// NewExplainPanel creates a hidden panel
func NewExplainPanel(glamourStyle string) *ExplainPanel {
	ti := textinput.New()
	ti.Placeholder = "Ask about a structure-prediction concept..."
	ti.CharLimit = 500
	ti.Width = 60

	return &ExplainPanel{
		input:    ti,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		viewport: viewport.New(60, 10),
		style:    glamourStyle,
	}
}

// Open shows the panel in loading state for a new request and returns the
// request ID responses must carry.
func (p *ExplainPanel) Open(title string) (int, tea.Cmd) {
	p.requestID++
	p.visible = true
	p.asking = false
	p.loading = true
	p.title = title
	p.text = ""
	p.copyStatus = ""
	p.viewport.SetContent("")
	p.viewport.GotoTop()
	p.input.Blur()
	return p.requestID, p.spinner.Tick
}

// Ask shows the panel with the question input focused
func (p *ExplainPanel) Ask() tea.Cmd {
	p.requestID++
	p.visible = true
	p.asking = true
	p.loading = false
	p.title = "Ask a question"
	p.text = ""
	p.copyStatus = ""
	p.input.SetValue("")
	return p.input.Focus()
}

// Hide closes the panel; responses still in flight are dropped
func (p *ExplainPanel) Hide() {
	p.visible = false
	p.asking = false
	p.loading = false
	p.requestID++
	p.input.Blur()
}

// IsVisible returns whether the panel is visible
func (p *ExplainPanel) IsVisible() bool {
	return p.visible
}

// IsAsking reports whether the question input has focus
func (p *ExplainPanel) IsAsking() bool {
	return p.visible && p.asking
}

// Question returns the trimmed question text
func (p *ExplainPanel) Question() string {
	return strings.TrimSpace(p.input.Value())
}

// Text returns the explanation currently shown
func (p *ExplainPanel) Text() string {
	return p.text
}

// SetExplanation stores the result for requestID. Results for an older or
// closed request are ignored and false is returned.
func (p *ExplainPanel) SetExplanation(requestID int, text string) bool {
	if !p.visible || requestID != p.requestID {
		return false
	}
	p.loading = false
	p.text = text
	p.refreshContent()
	return true
}

// SetStyle switches the glamour style and re-renders the current text
func (p *ExplainPanel) SetStyle(style string) {
	if style == p.style {
		return
	}
	p.style = style
	p.refreshContent()
}

func (p *ExplainPanel) refreshContent() {
	if p.text == "" {
		return
	}
	width := p.viewport.Width
	rendered, err := render.Markdown(p.text, width, p.style)
	if err != nil {
		rendered = render.Plain(p.text, width)
	}
	p.viewport.SetContent(strings.TrimRight(rendered, "\n"))
}

// Copy puts the explanation on the clipboard and schedules the feedback fade
func (p *ExplainPanel) Copy() tea.Cmd {
	if p.loading || p.text == "" {
		return nil
	}
	p.copySeq++
	if err := writeClipboard(p.text); err != nil {
		p.copyStatus = "Copy failed: " + err.Error()
		p.copyErr = true
	} else {
		p.copyStatus = "Copied!"
		p.copyErr = false
	}
	seq := p.copySeq
	return tea.Tick(copyFeedbackDuration, func(time.Time) tea.Msg {
		return copyFeedbackExpiredMsg{seq: seq}
	})
}

// CopyStatus returns the current clipboard feedback, if any
func (p *ExplainPanel) CopyStatus() string {
	return p.copyStatus
}

// Update handles panel-local messages
func (p *ExplainPanel) Update(msg tea.Msg) tea.Cmd {
	if !p.visible {
		return nil
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !p.loading {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd

	case copyFeedbackExpiredMsg:
		if msg.seq == p.copySeq {
			p.copyStatus = ""
		}
		return nil

	case tea.KeyMsg:
		if p.asking {
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return cmd
		}
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return cmd
	}
	return nil
}

// SetSize updates the panel dimensions
func (p *ExplainPanel) SetSize(width, height int) {
	p.width = width
	p.height = height

	innerWidth := width - 10
	if innerWidth < 20 {
		innerWidth = 20
	}
	innerHeight := height - 12
	if innerHeight < 3 {
		innerHeight = 3
	}
	p.viewport.Width = innerWidth
	p.viewport.Height = innerHeight
	p.input.Width = innerWidth - 4
	p.refreshContent()
}

// View renders the panel
func (p *ExplainPanel) View() string {
	if !p.visible {
		return ""
	}

	var body string
	switch {
	case p.asking:
		body = p.input.View()
	case p.loading:
		body = p.spinner.View() + " " + lipgloss.NewStyle().Foreground(ColorYellow).Render("Thinking...")
	default:
		body = p.viewport.View()
	}

	var status string
	if p.copyStatus != "" {
		color := ColorGreen
		if p.copyErr {
			color = ColorRed
		}
		status = lipgloss.NewStyle().Foreground(color).Render(p.copyStatus)
	}

	help := "c: copy • ↑/↓: scroll • Esc: close"
	if p.asking {
		help = "Enter: ask • Esc: cancel"
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render(p.title),
		"",
		body,
		"",
		status,
		helpStyle.Render(help),
	)
	return panelStyle.Render(content)
}
