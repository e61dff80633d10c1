// Package guard intercepts exits and context switches while a section has
// unsaved changes or a flow is mid-way, holding the attempted navigation
// until the user discards, saves or cancels.
package guard

import (
	"fmt"

	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/model"
)

// Target is where an exit attempt wants to go: a tab id, a route, or a flow
// close. The guard treats it as opaque.
type Target string

// Navigator performs navigation on behalf of the guard.
type Navigator interface {
	// Navigate commits navigation to target.
	Navigate(to Target) error
	// Restore returns to from after an external navigation that already
	// happened, so the prompt can be shown in place.
	Restore(from Target) error
}

// NavigatorFunc adapts a single function to Navigator. Restore is a no-op.
type NavigatorFunc func(to Target) error

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(to Target) error { return f(to) }

// Restore implements Navigator.
func (f NavigatorFunc) Restore(Target) error { return nil }

// Tracker is the dirty-state view the guard needs.
type Tracker interface {
	IsDirty() bool
	Commit()
	Discard()
}

// Saver persists a section before its snapshot is committed. A save that
// fails leaves the prompt open.
type Saver func() error

// Options configures a Guard. Every field is optional.
type Options struct {
	Tracker Tracker
	// Busy reports a flow that is mid-way even without dirty fields.
	Busy func() bool
	// Save runs before Commit on ConfirmSaveAndExit.
	Save Saver
	// OnPrompt is called when a prompt is shown.
	OnPrompt func(PendingExit)
}

// Outcome tells the caller what RequestExit did.
type Outcome int

const (
	Navigated Outcome = iota // Navigation committed
	Prompted                 // Navigation held; a prompt is visible
)

// String returns the outcome name.
func (o Outcome) String() string {
	if o == Prompted {
		return "prompted"
	}
	return "navigated"
}

// PendingExit is the navigation held while a prompt is visible.
type PendingExit struct {
	Target   Target
	From     Target
	External bool
	Dirty    bool
	Reason   *model.FlowError
}

// Guard holds at most one pending exit at a time.
type Guard struct {
	nav     Navigator
	opts    Options
	pending *PendingExit
	log     *logger.Logger
}

// New creates a guard that navigates through nav.
func New(nav Navigator, opts Options) *Guard {
	return &Guard{nav: nav, opts: opts, log: logger.Default.Named("guard")}
}

// SetTracker swaps the tracker, e.g. when the active tab changes.
func (g *Guard) SetTracker(t Tracker) {
	g.opts.Tracker = t
}

// Pending returns the held navigation, if any.
func (g *Guard) Pending() (PendingExit, bool) {
	if g.pending == nil {
		return PendingExit{}, false
	}
	return *g.pending, true
}

// PromptVisible reports whether a confirmation prompt should be shown.
func (g *Guard) PromptVisible() bool {
	return g.pending != nil
}

// Blocking reports whether an exit right now would be intercepted.
func (g *Guard) Blocking() bool {
	return g.dirty() || g.busy()
}

func (g *Guard) dirty() bool {
	return g.opts.Tracker != nil && g.opts.Tracker.IsDirty()
}

func (g *Guard) busy() bool {
	return g.opts.Busy != nil && g.opts.Busy()
}

// RequestExit navigates to target immediately when nothing is at stake.
// Otherwise it stores target as the pending exit and returns Prompted.
func (g *Guard) RequestExit(target Target) (Outcome, error) {
	if g.pending != nil {
		g.log.Debug("exit to %s requested while prompt for %s is open", target, g.pending.Target)
		g.pending.Target = target
		return Prompted, nil
	}
	if !g.Blocking() {
		if err := g.nav.Navigate(target); err != nil {
			return Navigated, fmt.Errorf("navigating to %s: %w", target, err)
		}
		return Navigated, nil
	}
	g.hold(PendingExit{Target: target})
	return Prompted, nil
}

// InterceptExternal handles navigation that already happened outside the
// guard's control (back/forward). When blocking, the guard first restores
// from and only then shows the prompt.
func (g *Guard) InterceptExternal(from, to Target) (Outcome, error) {
	if !g.Blocking() {
		return Navigated, nil
	}
	if err := g.nav.Restore(from); err != nil {
		return Navigated, fmt.Errorf("restoring %s: %w", from, err)
	}
	g.hold(PendingExit{Target: to, From: from, External: true})
	return Prompted, nil
}

func (g *Guard) hold(p PendingExit) {
	p.Dirty = g.dirty()
	reason := "You have a flow in progress"
	if p.Dirty {
		reason = "You have unsaved changes"
	}
	p.Reason = model.NewError(model.ErrUnsavedChangesConflict, reason)
	g.pending = &p
	g.log.Info("exit to %s held: %s", p.Target, reason)
	if g.opts.OnPrompt != nil {
		g.opts.OnPrompt(p)
	}
}

// ConfirmDiscardAndExit drops pending edits and performs the held navigation.
func (g *Guard) ConfirmDiscardAndExit() error {
	p, err := g.take()
	if err != nil {
		return err
	}
	if g.opts.Tracker != nil {
		g.opts.Tracker.Discard()
	}
	g.log.Debug("discarded changes, continuing to %s", p.Target)
	return g.navigate(p)
}

// ConfirmSaveAndExit saves and commits pending edits, then performs the held
// navigation. When the save fails the prompt stays open.
func (g *Guard) ConfirmSaveAndExit() error {
	if g.pending == nil {
		return model.NewError(model.ErrNoPendingExit, "no exit is waiting for confirmation")
	}
	if g.opts.Save != nil {
		if err := g.opts.Save(); err != nil {
			g.log.Warn("save before exit failed: %v", err)
			return err
		}
	}
	p, _ := g.take()
	if g.opts.Tracker != nil {
		g.opts.Tracker.Commit()
	}
	g.log.Debug("saved changes, continuing to %s", p.Target)
	return g.navigate(p)
}

// CancelExitRequest clears the pending exit and leaves edits intact.
func (g *Guard) CancelExitRequest() error {
	p, err := g.take()
	if err != nil {
		return err
	}
	g.log.Debug("exit to %s cancelled", p.Target)
	return nil
}

func (g *Guard) take() (PendingExit, error) {
	if g.pending == nil {
		return PendingExit{}, model.NewError(model.ErrNoPendingExit, "no exit is waiting for confirmation")
	}
	p := *g.pending
	g.pending = nil
	return p, nil
}

func (g *Guard) navigate(p PendingExit) error {
	if err := g.nav.Navigate(p.Target); err != nil {
		return fmt.Errorf("navigating to %s: %w", p.Target, err)
	}
	return nil
}
