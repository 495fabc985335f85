package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorAccent  = lipgloss.Color("#0EA5E9")
	ColorTeal    = lipgloss.Color("#0F766E")
	ColorGreen   = lipgloss.Color("#28A745")
	ColorYellow  = lipgloss.Color("#FFDB13")
	ColorRed     = lipgloss.Color("#EF4444")
	ColorBorder  = lipgloss.Color("#334155")
	ColorTextDim = lipgloss.Color("#64748B")

	// AlphaFold-style pLDDT band colors
	ColorVeryHigh = lipgloss.Color("#0053D6")
	ColorHigh     = lipgloss.Color("#65CBF3")
	ColorLow      = lipgloss.Color("#FFDB13")
	ColorVeryLow  = lipgloss.Color("#FF7D45")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorTextDim)
	helpStyle  = lipgloss.NewStyle().Foreground(ColorTextDim).Italic(true)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorAccent).
			Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(ColorTextDim).
				Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)
)
