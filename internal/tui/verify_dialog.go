package tui

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/verify"
	"github.com/mark3labs/stepguard/internal/tui/theme"
)

// VerifyDialog hosts one verification session: choose a method, enter the
// code, resend once the countdown ends.
type VerifyDialog struct {
	ctx     context.Context
	session *verify.Session
	codes   verify.CodeService
	cursor  int
	input   textinput.Model
	err     string
}

// NewVerifyDialog creates a dialog over an open session.
func NewVerifyDialog(ctx context.Context, s *verify.Session, codes verify.CodeService) *VerifyDialog {
	ti := textinput.New()
	ti.Placeholder = "6-digit code"
	ti.CharLimit = verify.CodeLength
	return &VerifyDialog{ctx: ctx, session: s, codes: codes, input: ti}
}

// Session returns the dialog's session.
func (d *VerifyDialog) Session() *verify.Session { return d.session }

// Update handles a key. It returns a command when a code check starts.
func (d *VerifyDialog) Update(msg tea.KeyPressMsg) tea.Cmd {
	s := d.session
	switch s.State() {
	case verify.StateChoosingMethod:
		switch msg.String() {
		case "up", "k":
			d.cursor = (d.cursor + len(verify.Methods) - 1) % len(verify.Methods)
		case "down", "j":
			d.cursor = (d.cursor + 1) % len(verify.Methods)
		case "enter":
			d.err = ""
			if err := s.SelectMethod(verify.Methods[d.cursor]); err != nil {
				d.err = err.Error()
				return nil
			}
			if err := s.Send(d.ctx); err != nil {
				d.err = "Could not send code: " + err.Error()
				return nil
			}
			d.input.SetValue("")
			return d.input.Focus()
		}
		return nil

	case verify.StateCodeSent:
		switch msg.String() {
		case "enter":
			return d.check()
		case "ctrl+r":
			d.err = ""
			if err := s.Resend(d.ctx); err != nil {
				d.err = err.Error()
				return nil
			}
			d.input.SetValue("")
			return nil
		case "ctrl+o":
			s.UseDifferentMethod()
			d.input.SetValue("")
			d.input.Blur()
			d.err = ""
			return nil
		}
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(msg)
		s.SetCode(d.input.Value())
		return cmd
	}
	return nil
}

// Paste enters pasted text as the code while a code is expected.
func (d *VerifyDialog) Paste(content string) {
	if d.session.State() != verify.StateCodeSent {
		return
	}
	d.input.SetValue(cleanPaste(content))
	d.input.CursorEnd()
	d.session.SetCode(d.input.Value())
}

// check starts an asynchronous code check off the event loop.
func (d *VerifyDialog) check() tea.Cmd {
	req, err := d.session.BeginSubmit()
	if err != nil {
		d.err = err.Error()
		return nil
	}
	d.err = ""
	ctx, codes, id := d.ctx, d.codes, d.session.ID()
	return func() tea.Msg {
		ok, err := codes.CheckCode(ctx, req)
		if err != nil {
			logger.Warn("code check for %s failed: %v", id, err)
		}
		return CodeCheckedMsg{SessionID: id, Accepted: ok, Err: err}
	}
}

// Finish applies a check result. It reports whether the code was accepted.
func (d *VerifyDialog) Finish(msg CodeCheckedMsg) bool {
	if msg.SessionID != d.session.ID() {
		return false
	}
	if err := d.session.FinishSubmit(msg.Accepted, msg.Err); err != nil {
		d.err = err.Error()
		d.input.SetValue(d.session.Code())
		return false
	}
	return true
}

// View renders the dialog.
func (d *VerifyDialog) View() string {
	th := theme.Current()
	s := th.S()
	sess := d.session

	parts := []string{s.ModalTitle.Foreground(lipgloss.Color(th.Primary)).Render("Verify your identity")}

	switch sess.State() {
	case verify.StateChoosingMethod:
		parts = append(parts, s.FieldLabel.Render("Where should we send your code?"), "")
		for i, m := range verify.Methods {
			style, marker := s.FieldLabel, "  "
			if i == d.cursor {
				style, marker = s.FieldFocused, "› "
			}
			line := marker + m.Label()
			if dest := sess.DestinationFor(m); dest != "" {
				line += "  " + dest
			}
			parts = append(parts, style.Render(line))
		}
		parts = append(parts, "", s.Hint.Render("↑/↓ choose · Enter send code · Esc close"))

	case verify.StateCodeSent, verify.StateVerifying:
		parts = append(parts,
			s.FieldLabel.Render(fmt.Sprintf("We sent a code by %s to %s.", sess.Method().Label(), sess.Destination())),
			"",
			d.input.View(),
			"",
			renderCountdown(sess),
		)
		if sess.State() == verify.StateVerifying {
			parts = append(parts, s.Hint.Render("Checking code…"))
		} else {
			hint := "Enter verify · "
			if sess.CanResend() {
				hint += "Ctrl+R resend · "
			}
			hint += "Ctrl+O use a different method · Esc close"
			parts = append(parts, s.Hint.Render(hint))
		}

	case verify.StateAccepted:
		parts = append(parts, s.RailDone.Render("✓ Verified"), "", s.Hint.Render("Enter continue"))
	}

	if d.err != "" {
		parts = append(parts, "", s.FieldError.Render("✗ "+d.err))
	}
	if sess.Exhausted() {
		parts = append(parts, s.FieldError.Render("Too many attempts. Request a new code."))
	}

	return s.Frame.BorderForeground(lipgloss.Color(th.Primary)).Width(56).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// renderCountdown shows the resend timer, shading from warning to success as
// it runs out.
func renderCountdown(s *verify.Session) string {
	th := theme.Current()
	if s.Remaining() == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(th.Success)).Render("You can request a new code.")
	}
	pos := 1.0
	if total := s.Cooldown().Seconds(); total > 0 {
		pos = 1 - float64(s.Remaining())/total
	}
	color := theme.InterpolateColor(th.Warning, th.Success, pos)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).
		Render(fmt.Sprintf("Resend available in %d:%02d", s.Remaining()/60, s.Remaining()%60))
}
