package tui

import tea "charm.land/bubbletea/v2"

// ProgramSender is an interface for sending messages to the Bubbletea program.
// This allows for easier testing by mocking the Send method.
type ProgramSender interface {
	Send(tea.Msg)
}

// TickMsg carries a scheduled callback onto the event loop.
type TickMsg struct {
	Fn func()
}

// CodeCheckedMsg is the result of an asynchronous code check.
type CodeCheckedMsg struct {
	SessionID string
	Accepted  bool
	Err       error
}

// ToastDismissMsg is sent when the toast with the given sequence number
// should be dismissed.
type ToastDismissMsg struct {
	Seq int
}

// poster hands scheduler ticks to the program once it exists.
type poster struct {
	p ProgramSender
}

func (q *poster) post(fn func()) {
	if q.p != nil {
		q.p.Send(TickMsg{Fn: fn})
	}
}
