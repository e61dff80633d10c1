package flows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/stepguard/internal/catalog"
	"github.com/mark3labs/stepguard/internal/dirty"
	"github.com/mark3labs/stepguard/internal/form"
	"github.com/mark3labs/stepguard/internal/guard"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/notify"
	"github.com/mark3labs/stepguard/internal/wizard"
)

// Tab is one independently saved section of a tabbed flow.
type Tab struct {
	ID       string
	Label    string
	Fields   []Field
	Snapshot *dirty.Snapshot
}

// Workspace hosts a tabbed flow. Every tab owns a snapshot; switching tabs or
// leaving with unsaved edits goes through the guard.
type Workspace struct {
	flow   *Flow
	env    Env
	tabs   []*Tab
	active int
	gd     *guard.Guard
	log    *logger.Logger
	exited *guard.Target
}

// NewWorkspace builds the tabs of f with their saved values.
func NewWorkspace(f *Flow, env Env) (*Workspace, error) {
	if f.Kind != KindTabs {
		return nil, fmt.Errorf("flow %s is not tabbed", f.ID)
	}
	order, err := catalog.Flatten(f.Catalog)
	if err != nil {
		return nil, err
	}
	w := &Workspace{flow: f, env: env.withDefaults(), log: logger.Default.Named(f.ID)}
	for _, id := range order.IDs() {
		ref, _ := order.Ref(id)
		w.tabs = append(w.tabs, &Tab{
			ID:       id,
			Label:    ref.Label(),
			Fields:   f.FieldsFor(id),
			Snapshot: dirty.New(dirty.Values(f.Defaults[id])),
		})
	}
	if len(w.tabs) == 0 {
		return nil, model.Errorf(model.ErrInvalidCatalog, "flow %s has no tabs", f.ID)
	}
	w.gd = guard.New(workspaceNav{w}, guard.Options{
		Tracker: w.tabs[0].Snapshot,
		Save:    w.Save,
	})
	return w, nil
}

// Flow returns the definition.
func (w *Workspace) Flow() *Flow { return w.flow }

// Guard returns the guard holding tab switches and exits.
func (w *Workspace) Guard() *guard.Guard { return w.gd }

// Tabs returns the tabs in order.
func (w *Workspace) Tabs() []*Tab { return w.tabs }

// Active returns the selected tab.
func (w *Workspace) Active() *Tab { return w.tabs[w.active] }

// Exited returns where the workspace went when it was left.
func (w *Workspace) Exited() (guard.Target, bool) {
	if w.exited == nil {
		return "", false
	}
	return *w.exited, true
}

// Edit records a field edit on the active tab.
func (w *Workspace) Edit(key string, value any) {
	w.Active().Snapshot.Set(key, value)
}

// FieldErrors validates the active tab's live values.
func (w *Workspace) FieldErrors() []model.FieldError {
	tab := w.Active()
	return w.flow.Rules(tab.ID).Validate(tab.Snapshot.Live())
}

// SwitchTab selects tab id, or holds the switch behind a prompt while the
// active tab has unsaved edits.
func (w *Workspace) SwitchTab(id string) (guard.Outcome, error) {
	if _, ok := w.index(id); !ok {
		return guard.Navigated, model.Errorf(model.ErrStepNotFound, "tab %q not found in %q", id, w.flow.ID)
	}
	if id == w.Active().ID {
		return guard.Navigated, nil
	}
	return w.gd.RequestExit(guard.Target(id))
}

// SelectedExternally reports a tab change the host already made, such as a
// history navigation. With unsaved edits the previous tab is restored and a
// prompt is held.
func (w *Workspace) SelectedExternally(from, to string) (guard.Outcome, error) {
	out, err := w.gd.InterceptExternal(guard.Target(from), guard.Target(to))
	if err != nil || out == guard.Prompted {
		return out, err
	}
	if i, ok := w.index(to); ok {
		w.selectTab(i)
	}
	return out, nil
}

// RequestExit leaves the workspace through the guard.
func (w *Workspace) RequestExit(target guard.Target) (guard.Outcome, error) {
	return w.gd.RequestExit(target)
}

// Save validates the active tab, submits it and commits its snapshot.
func (w *Workspace) Save() error {
	tab := w.Active()
	if err := form.Check(w.FieldErrors()); err != nil {
		return err
	}
	if !tab.Snapshot.IsDirty() {
		return nil
	}

	sub := wizard.Submission{
		ID:     uuid.NewString(),
		FlowID: w.flow.ID,
		Data:   wizard.FlowData{tab.ID: wizard.StepData(tab.Snapshot.Live())},
	}
	receipt, err := w.env.Submitter.Submit(context.Background(), sub)
	if err != nil {
		msg := err.Error()
		if fe, ok := model.AsFlowError(err); ok {
			msg = fe.Message
		}
		w.log.Error("saving %s failed: %v", tab.ID, err)
		w.env.Notifier.Notify(notify.KindError, "Could not save "+tab.Label, msg)
		return &model.FlowError{Code: model.ErrSubmitFailed, Message: msg}
	}

	tab.Snapshot.Commit()
	w.log.Info("%s saved, reference %s", tab.ID, receipt.Reference)
	w.env.Notifier.Notify(notify.KindSuccess, w.flow.SuccessMessage, tab.Label+" updated")
	return nil
}

// Discard drops the active tab's unsaved edits.
func (w *Workspace) Discard() {
	w.Active().Snapshot.Discard()
}

// ConfirmSave saves the active tab and completes the held switch.
func (w *Workspace) ConfirmSave() error { return w.gd.ConfirmSaveAndExit() }

// ConfirmDiscard drops the active tab's edits and completes the held switch.
func (w *Workspace) ConfirmDiscard() error { return w.gd.ConfirmDiscardAndExit() }

// CancelExit keeps the user on the active tab with edits intact.
func (w *Workspace) CancelExit() error { return w.gd.CancelExitRequest() }

func (w *Workspace) index(id string) (int, bool) {
	for i, t := range w.tabs {
		if t.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (w *Workspace) selectTab(i int) {
	w.active = i
	w.gd.SetTracker(w.tabs[i].Snapshot)
	w.log.Debug("tab %s selected", w.tabs[i].ID)
}

type workspaceNav struct{ w *Workspace }

func (n workspaceNav) Navigate(to guard.Target) error {
	if i, ok := n.w.index(string(to)); ok {
		n.w.selectTab(i)
		return nil
	}
	n.w.exited = &to
	if n.w.env.Navigate != nil {
		return n.w.env.Navigate(to)
	}
	return nil
}

func (n workspaceNav) Restore(from guard.Target) error {
	i, ok := n.w.index(string(from))
	if !ok {
		return fmt.Errorf("unknown tab %q", from)
	}
	n.w.selectTab(i)
	return nil
}
