package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/stepguard/internal/guard"
	"github.com/mark3labs/stepguard/internal/tui/theme"
)

// renderExitPrompt renders the guard's confirmation modal. diff is the
// unified diff of unsaved fields; canSave adds the save choice.
func renderExitPrompt(p guard.PendingExit, diff string, canSave bool) string {
	s := theme.Current().S()

	title := "Leave this flow?"
	if p.Dirty {
		title = "Unsaved changes"
	}
	message := "Your progress will be lost."
	if p.Reason != nil {
		message = p.Reason.Message + "."
	}

	parts := []string{
		s.ModalTitle.Render("⚠ " + title),
		s.FieldLabel.Render(message),
	}
	if diff != "" {
		parts = append(parts, "", renderDiff(diff))
	}

	keys := "D discard and continue · Esc stay"
	if canSave {
		keys = "S save and continue · " + keys
	}
	parts = append(parts, "", s.Hint.Render(keys))

	return s.Modal.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// renderDiff colors the changed lines of a unified diff and drops headers.
func renderDiff(diff string) string {
	s := theme.Current().S()
	var out []string
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			continue
		case strings.HasPrefix(line, "+"):
			out = append(out, s.DiffInsert.Render(line))
		case strings.HasPrefix(line, "-"):
			out = append(out, s.DiffDelete.Render(line))
		}
	}
	return strings.Join(out, "\n")
}
