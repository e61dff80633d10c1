// Package theme holds the color palette and pre-built styles of the terminal
// host.
package theme

import (
	"sync"

	"charm.land/lipgloss/v2"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	// Semantic colors
	Primary   string // lipgloss.Color is a string type
	Secondary string
	Tertiary  string

	// Background hierarchy (dark→light)
	BgBase     string
	BgMantle   string
	BgSurface0 string
	BgSurface1 string
	BgSurface2 string

	// Foreground hierarchy (dim→bright)
	FgMuted  string
	FgSubtle string
	FgBase   string
	FgBright string

	// Status colors
	Success string
	Warning string
	Error   string
	Info    string

	BorderDefault string
	BorderFocused string

	// Diff colors
	DiffInsert string
	DiffDelete string

	// Lazy-built styles
	styles     *Styles
	stylesOnce sync.Once
}

var (
	current     *Theme
	currentOnce sync.Once
)

// Current returns the active theme.
func Current() *Theme {
	currentOnce.Do(func() {
		current = NewCatppuccinMocha()
	})
	return current
}

// S returns the pre-built styles for this theme.
// Styles are lazily initialized on first call.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

// buildStyles constructs the pre-built styles from theme colors.
func (t *Theme) buildStyles() *Styles {
	button := lipgloss.NewStyle().Padding(0, 2).MarginLeft(1).MarginRight(1)
	return &Styles{
		HeaderTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Primary)).
			Bold(true),
		HeaderInfo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.FgSubtle)),
		Frame: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.BorderDefault)),

		RailDone:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.Success)),
		RailCurrent:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary)).Bold(true),
		RailUpcoming: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
		Breadcrumb:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgSubtle)).Italic(true),

		ButtonNormal: button.
			Foreground(lipgloss.Color(t.FgBase)).
			Background(lipgloss.Color(t.BgSurface0)),
		ButtonDisabled: button.
			Foreground(lipgloss.Color(t.FgMuted)).
			Background(lipgloss.Color(t.BgMantle)),
		ButtonFocused: button.
			Foreground(lipgloss.Color(t.BgBase)).
			Background(lipgloss.Color(t.Tertiary)).
			Bold(true),

		FieldLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgBase)),
		FieldFocused: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary)).Bold(true),
		FieldError:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Error)),
		Hint:         lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),

		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.BgBase)).
			Background(lipgloss.Color(t.Primary)).
			Bold(true).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.FgSubtle)).
			Background(lipgloss.Color(t.BgSurface0)).
			Padding(0, 2),

		ModalTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Warning)).
			MarginBottom(1),
		Modal: lipgloss.NewStyle().
			Width(56).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Warning)),
		DiffInsert: lipgloss.NewStyle().Foreground(lipgloss.Color(t.DiffInsert)),
		DiffDelete: lipgloss.NewStyle().Foreground(lipgloss.Color(t.DiffDelete)),
	}
}
