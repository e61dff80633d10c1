package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/stepguard/internal/catalog"
	"github.com/mark3labs/stepguard/internal/tui/theme"
)

// renderRail draws the step rail: one line per navigable step, with the
// display-only sub-steps of the current step listed beneath it.
func renderRail(p catalog.Progress) string {
	s := theme.Current().S()
	lines := make([]string, 0, len(p.Items)+len(p.Breadcrumbs)+2)
	lines = append(lines, s.HeaderInfo.Render(fmt.Sprintf("Step %d of %d", p.Position, p.Total)), "")

	for i, item := range p.Items {
		indent := strings.Repeat("  ", item.Depth)
		var line string
		switch item.Status {
		case catalog.StatusDone:
			line = s.RailDone.Render(fmt.Sprintf("%s✓ %s", indent, item.Label))
		case catalog.StatusCurrent:
			line = s.RailCurrent.Render(fmt.Sprintf("%s● %s", indent, item.Label))
		default:
			line = s.RailUpcoming.Render(fmt.Sprintf("%s○ %s", indent, item.Label))
		}
		if i < 9 {
			line = s.Hint.Render(fmt.Sprintf("%d ", i+1)) + line
		}
		lines = append(lines, line)

		if item.Status == catalog.StatusCurrent {
			for _, bc := range p.Breadcrumbs {
				lines = append(lines, s.Breadcrumb.Render(fmt.Sprintf("  %s  › %s", indent, bc.Label)))
			}
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
