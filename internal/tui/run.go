// Package tui is the terminal host for flows: a BubbleTea program per flow
// rendering the step rail, markdown body, field editor, action bar and the
// guard and verification modals.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/mark3labs/stepguard/internal/guard"
	"github.com/mark3labs/stepguard/internal/notify"
	"github.com/mark3labs/stepguard/internal/ticker"
	"github.com/mark3labs/stepguard/internal/wizard"
)

// Options configures Run.
type Options struct {
	Flow          *flows.Flow
	Env           flows.Env
	ToastDuration time.Duration
}

// Result reports how a hosted flow ended.
type Result struct {
	// Exit is where the user left to; empty when the program was interrupted.
	Exit guard.Target
	// Receipt is set when a wizard flow was submitted.
	Receipt *wizard.Receipt
}

// Run hosts opts.Flow in a BubbleTea program until the user leaves it.
// Scheduler ticks and notifications are routed onto the program's event
// loop, so flow state is only ever touched from Update.
func Run(ctx context.Context, opts Options) (*Result, error) {
	toast := NewToast(opts.ToastDuration)
	post := &poster{}

	env := opts.Env
	if env.Notifier == nil {
		env.Notifier = notify.Log{}
	}
	env.Notifier = notify.Multi{env.Notifier, toast}
	env.Scheduler = ticker.NewDispatch(post.post)

	var (
		m      tea.Model
		result = func() *Result { return &Result{} }
	)
	switch opts.Flow.Kind {
	case flows.KindTabs:
		ws, err := flows.NewWorkspace(opts.Flow, env)
		if err != nil {
			return nil, err
		}
		m = NewTabsModel(ws, toast)
		result = func() *Result {
			exit, _ := ws.Exited()
			return &Result{Exit: exit}
		}
	default:
		inst, err := flows.NewInstance(opts.Flow, env)
		if err != nil {
			return nil, err
		}
		inst.Open()
		m = NewWizardModel(ctx, inst, toast)
		result = func() *Result {
			exit, _ := inst.Exited()
			r := &Result{Exit: exit}
			if receipt, ok := inst.LastReceipt(); ok {
				r.Receipt = &receipt
			}
			return r
		}
	}

	p := tea.NewProgram(m)
	post.p = p

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("tui failed: %w", err)
	}
	return result(), nil
}
