package ui

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/asheshgoplani/foldlens/internal/confidence"
)

// paeShades maps Alpha (0.1..1) onto block density
var paeShades = []rune{'·', '░', '▒', '▓', '█'}

// confidenceData is the demo data shown on the Confidence tab, generated once
type confidenceData struct {
	scores  []float64
	summary confidence.Summary
	pae     []confidence.PAEPoint
	size    int
}

func newConfidenceData(seed int64) confidenceData {
	rng := rand.New(rand.NewSource(seed))
	scores := confidence.DemoPLDDT(rng, confidence.DemoResidues)
	return confidenceData{
		scores:  scores,
		summary: confidence.Summarize(scores),
		pae:     confidence.DemoPAE(rng, confidence.DemoPAESize),
		size:    confidence.DemoPAESize,
	}
}

func bandColor(b confidence.Band) lipgloss.Color {
	switch b {
	case confidence.BandVeryHigh:
		return ColorVeryHigh
	case confidence.BandConfident:
		return ColorHigh
	case confidence.BandLow:
		return ColorLow
	default:
		return ColorVeryLow
	}
}

func paeShade(v float64) rune {
	i := int(confidence.Alpha(v) * float64(len(paeShades)))
	if i >= len(paeShades) {
		i = len(paeShades) - 1
	}
	return paeShades[i]
}

// renderConfidence draws the summary, the per-residue band strip and the PAE grid
func renderConfidence(d confidenceData, width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("pLDDT (demo, %d residues)", d.summary.Residues)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Mean %.1f  •  >70: %.0f%%  •  >90: %.0f%%\n\n",
		d.summary.Mean, d.summary.PctConfident, d.summary.PctVeryHigh)

	stripWidth := width - 4
	if stripWidth < 10 {
		stripWidth = 10
	}
	for i, v := range d.scores {
		if i > 0 && i%stripWidth == 0 {
			b.WriteString("\n")
		}
		b.WriteString(lipgloss.NewStyle().Foreground(bandColor(confidence.BandOf(v))).Render("█"))
	}
	b.WriteString("\n\n")

	for _, band := range []confidence.Band{
		confidence.BandVeryHigh, confidence.BandConfident, confidence.BandLow, confidence.BandVeryLow,
	} {
		swatch := lipgloss.NewStyle().Foreground(bandColor(band)).Render("■")
		fmt.Fprintf(&b, "%s %s (%d)  ", swatch, band, d.summary.Bands[band])
	}
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render(fmt.Sprintf("PAE (demo, %d×%d)", d.size, d.size)))
	b.WriteString("\n")
	cell := lipgloss.NewStyle().Foreground(ColorTeal)
	for row := 0; row < d.size; row++ {
		var line strings.Builder
		for col := 0; col < d.size; col++ {
			shade := paeShade(d.pae[row*d.size+col].V)
			line.WriteRune(shade)
			line.WriteRune(shade)
		}
		b.WriteString(cell.Render(line.String()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("darker = lower expected position error"))
	return b.String()
}
