package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mark3labs/stepguard/internal/tui/theme"
	"github.com/mark3labs/stepguard/internal/wizard"
)

// ActionBar draws the footer buttons a controller derives for the current
// step and tracks keyboard focus across them.
type ActionBar struct {
	actions []wizard.Action
	focus   int
	focused bool
	width   int
}

// NewActionBar creates an unfocused action bar.
func NewActionBar() *ActionBar {
	return &ActionBar{width: 60}
}

// Set replaces the buttons, keeping the focus index in range.
func (b *ActionBar) Set(bar wizard.ActionBar) {
	b.actions = bar.Actions()
	if b.focus >= len(b.actions) {
		b.focus = len(b.actions) - 1
	}
	if b.focus < 0 {
		b.focus = 0
	}
}

// SetWidth updates the width for the button bar.
func (b *ActionBar) SetWidth(width int) {
	b.width = width
}

// FocusFirst focuses the first button.
func (b *ActionBar) FocusFirst() {
	b.focused = true
	b.focus = 0
}

// FocusLast focuses the last button, which is the primary action.
func (b *ActionBar) FocusLast() {
	b.focused = true
	b.focus = len(b.actions) - 1
}

// Blur removes focus.
func (b *ActionBar) Blur() {
	b.focused = false
}

// IsFocused reports whether a button has focus.
func (b *ActionBar) IsFocused() bool {
	return b.focused
}

// FocusNext moves focus right. It returns false when focus leaves the bar.
func (b *ActionBar) FocusNext() bool {
	if b.focus+1 >= len(b.actions) {
		return false
	}
	b.focus++
	return true
}

// FocusPrev moves focus left. It returns false when focus leaves the bar.
func (b *ActionBar) FocusPrev() bool {
	if b.focus == 0 {
		return false
	}
	b.focus--
	return true
}

// FocusedAction returns the focused button.
func (b *ActionBar) FocusedAction() (wizard.Action, bool) {
	if !b.focused || len(b.actions) == 0 {
		return wizard.Action{}, false
	}
	return b.actions[b.focus], true
}

// Render renders the button bar centered in its width.
func (b *ActionBar) Render() string {
	if len(b.actions) == 0 {
		return ""
	}
	s := theme.Current().S()

	rendered := make([]string, 0, len(b.actions))
	for i, a := range b.actions {
		switch {
		case b.focused && i == b.focus:
			rendered = append(rendered, s.ButtonFocused.Render(a.Label))
		case !a.Enabled:
			rendered = append(rendered, s.ButtonDisabled.Render(a.Label))
		default:
			rendered = append(rendered, s.ButtonNormal.Render(a.Label))
		}
	}
	return lipgloss.Place(b.width, 1, lipgloss.Center, lipgloss.Center, strings.Join(rendered, ""))
}
