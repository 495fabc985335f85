// Package render turns explanation text into terminal or HTML output.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
	"github.com/microcosm-cc/bluemonday"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Output formats accepted by Format
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Glamour style names
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// DetectStyle picks a glamour style for the current terminal background
func DetectStyle() string {
	if termenv.HasDarkBackground() {
		return StyleDark
	}
	return StyleLight
}

// Plain word-wraps text to width display cells, keeping line breaks.
// width <= 0 returns text unchanged.
func Plain(text string, width int) string {
	if width <= 0 {
		return text
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		lineWidth := runewidth.StringWidth(line)
		for _, w := range words[1:] {
			ww := runewidth.StringWidth(w)
			if lineWidth+1+ww > width {
				lines = append(lines, line)
				line, lineWidth = w, ww
				continue
			}
			line += " " + w
			lineWidth += 1 + ww
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts s to width display cells with an ellipsis
func Truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// Markdown renders text as styled terminal markdown. An empty or "auto" style
// is resolved with DetectStyle.
func Markdown(text string, width int, style string) (string, error) {
	if style == "" || style == StyleAuto {
		style = DetectStyle()
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

var (
	htmlMarkdown = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))
	htmlPolicy   = bluemonday.UGCPolicy()
)

// HTML converts text to a sanitized HTML fragment. Single newlines become
// <br> so model output keeps its line structure.
func HTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := htmlMarkdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return htmlPolicy.Sanitize(buf.String()), nil
}

// Format renders text in one of the named output formats
func Format(text, format string, width int, style string) (string, error) {
	switch format {
	case "", FormatText:
		return Plain(text, width), nil
	case FormatMarkdown:
		return Markdown(text, width, style)
	case FormatHTML:
		return HTML(text)
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}
