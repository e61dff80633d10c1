package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/stepguard/internal/notify"
	"github.com/mark3labs/stepguard/internal/tui/theme"
)

// Toast is a minimal toast notification component. It implements
// notify.Notifier so flows report success and failure through it; the host
// collects the dismissal command with Cmd after each update.
type Toast struct {
	kind        notify.Kind
	message     string
	description string
	visible     bool
	duration    time.Duration
	dismissAt   time.Time
	seq         int
	armed       bool
}

var _ notify.Notifier = (*Toast)(nil)

// NewToast creates a toast that stays visible for d.
func NewToast(d time.Duration) *Toast {
	if d <= 0 {
		d = 3 * time.Second
	}
	return &Toast{duration: d}
}

// Notify implements notify.Notifier.
func (t *Toast) Notify(kind notify.Kind, message, description string) {
	t.kind = kind
	t.message = message
	t.description = description
	t.visible = true
	t.dismissAt = time.Now().Add(t.duration)
	t.seq++
	t.armed = true
}

// Cmd returns the dismissal timer for a toast shown since the last call.
func (t *Toast) Cmd() tea.Cmd {
	if !t.armed {
		return nil
	}
	t.armed = false
	remaining := time.Until(t.dismissAt)
	if remaining <= 0 {
		remaining = 1 * time.Millisecond
	}
	seq := t.seq
	return tea.Tick(remaining, func(time.Time) tea.Msg {
		return ToastDismissMsg{Seq: seq}
	})
}

// Update handles messages for the toast component. A dismissal for an older
// toast is ignored.
func (t *Toast) Update(msg tea.Msg) {
	if m, ok := msg.(ToastDismissMsg); ok && m.Seq == t.seq {
		t.visible = false
		t.message = ""
		t.description = ""
	}
}

// View renders the toast, or "" when hidden.
func (t *Toast) View(width int) string {
	if !t.visible || t.message == "" {
		return ""
	}
	th := theme.Current()

	bg := th.Info
	icon := "ℹ"
	switch t.kind {
	case notify.KindSuccess:
		bg, icon = th.Success, "✓"
	case notify.KindError:
		bg, icon = th.Error, "✗"
	case notify.KindWarning:
		bg, icon = th.Warning, "⚠"
	}
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(th.BgBase)).
		Background(lipgloss.Color(bg)).
		Padding(0, 1).
		Bold(true)

	text := icon + " " + t.message
	if t.description != "" {
		text += ": " + t.description
	}
	if lipgloss.Width(text)+2 > width-2 && width > 4 {
		return style.Width(width - 2).Render(text)
	}
	return style.Render(text)
}

// IsVisible returns whether the toast is currently visible.
func (t *Toast) IsVisible() bool {
	return t.visible
}

// GetMessage returns the current toast message (empty if not visible).
func (t *Toast) GetMessage() string {
	if !t.visible {
		return ""
	}
	return t.message
}
