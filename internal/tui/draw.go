package tui

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/mark3labs/stepguard/internal/tui/theme"
)

// draw composes a frame onto an ultraviolet canvas: the screen first, then an
// optional modal centered over it, then the toast in the bottom-right corner.
// A zero size falls back to the screen's own dimensions.
func draw(width, height int, screen, modal, toast string) tea.View {
	var view tea.View
	view.AltScreen = true

	if width <= 0 {
		width = lipgloss.Width(screen)
	}
	if height <= 0 {
		height = lipgloss.Height(screen)
	}
	canvas := uv.NewScreenBuffer(width, height)
	area := canvas.Bounds()

	drawAt(canvas, area.Min.X, area.Min.Y, screen)

	if modal != "" {
		w, h := lipgloss.Width(modal), lipgloss.Height(modal)
		x := area.Min.X + max((area.Dx()-w)/2, 0)
		y := area.Min.Y + max((area.Dy()-h)/2, 0)
		drawAt(canvas, x, y, modal)
	}

	if toast != "" {
		w, h := lipgloss.Width(toast), lipgloss.Height(toast)
		drawAt(canvas, max(area.Max.X-w-1, area.Min.X), max(area.Max.Y-h-1, area.Min.Y), toast)
	}

	view.Content = lipgloss.NewLayer(canvas.Render())
	view.BackgroundColor = lipgloss.Color(theme.Current().BgBase)
	return view
}

// drawAt renders styled text with its top-left corner at x, y.
func drawAt(scr uv.Screen, x, y int, text string) {
	area := uv.Rectangle{
		Min: uv.Position{X: x, Y: y},
		Max: uv.Position{X: x + lipgloss.Width(text), Y: y + lipgloss.Height(text)},
	}
	uv.NewStyledString(text).Draw(scr, area)
}
