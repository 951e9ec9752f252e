package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/signiz/internal/ui/theme"
)

// ProgressBar is a horizontal bar for a whole percentage, 0 to 100.
type ProgressBar struct {
	Label      string
	LabelWidth int
	Percent    int
	Width      int
}

func NewProgressBar(label string, percent, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, Width: width}
}

// Filled is the number of bar cells drawn filled for a given bar width.
func (p ProgressBar) Filled(barWidth int) int {
	pct := min(max(p.Percent, 0), 100)
	return barWidth * pct / 100
}

func (p ProgressBar) View() string {
	var out string
	if p.Label != "" {
		label := p.Label
		if pad := p.LabelWidth - lipgloss.Width(label); pad > 0 {
			label += strings.Repeat(" ", pad)
		}
		out = lipgloss.NewStyle().Foreground(theme.Text).Render(label) + "  "
	}

	barWidth := max(p.Width-lipgloss.Width(out)-6, 4)
	filled := p.Filled(barWidth)

	fill := theme.Secondary
	if p.Percent >= 100 {
		fill = theme.Success
	}
	out += lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", filled))
	out += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	out += lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(" %4d%%", p.Percent))
	return out
}
