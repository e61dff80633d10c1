package theme

import "charm.land/lipgloss/v2"

// Styles contains all pre-built lipgloss styles for the TUI.
type Styles struct {
	HeaderTitle lipgloss.Style
	HeaderInfo  lipgloss.Style
	Frame       lipgloss.Style

	// Step rail
	RailDone     lipgloss.Style
	RailCurrent  lipgloss.Style
	RailUpcoming lipgloss.Style
	Breadcrumb   lipgloss.Style

	// Action bar
	ButtonNormal   lipgloss.Style
	ButtonDisabled lipgloss.Style
	ButtonFocused  lipgloss.Style

	// Field editor
	FieldLabel   lipgloss.Style
	FieldFocused lipgloss.Style
	FieldError   lipgloss.Style
	Hint         lipgloss.Style

	// Tabs
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// Prompts
	ModalTitle lipgloss.Style
	Modal      lipgloss.Style
	DiffInsert lipgloss.Style
	DiffDelete lipgloss.Style
}
