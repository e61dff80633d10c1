package flows

import (
	"context"
	"fmt"

	"github.com/mark3labs/stepguard/internal/catalog"
	"github.com/mark3labs/stepguard/internal/dirty"
	"github.com/mark3labs/stepguard/internal/guard"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/notify"
	"github.com/mark3labs/stepguard/internal/verify"
	"github.com/mark3labs/stepguard/internal/wizard"
)

// Exit targets used by the action bar.
const (
	TargetClose guard.Target = "close"
	TargetHome  guard.Target = "home"
)

// Instance is one open wizard flow: its controller, the dirty snapshot of
// everything typed so far, the exit guard and any verification dialog.
type Instance struct {
	flow *Flow
	env  Env
	ctrl *wizard.Controller
	snap *dirty.Snapshot
	gd   *guard.Guard
	log  *logger.Logger

	session     *verify.Session
	sessionStep string
	exited      *guard.Target
	receipt     *wizard.Receipt
}

// NewInstance builds a closed wizard for f. Call Open to start it.
func NewInstance(f *Flow, env Env) (*Instance, error) {
	if f.Kind != KindWizard {
		return nil, fmt.Errorf("flow %s is not a wizard", f.ID)
	}
	order, err := catalog.Flatten(f.Catalog)
	if err != nil {
		return nil, err
	}
	env = env.withDefaults()

	i := &Instance{
		flow: f,
		env:  env,
		snap: dirty.New(flatten(f.Defaults)),
		log:  logger.Default.Named(f.ID),
	}
	i.ctrl = wizard.New(order, wizard.Options{
		Predicates:     f.predicates(),
		Validators:     f.validators(),
		Renderers:      f.renderers(order),
		Initial:        f.Defaults,
		Labels:         f.Labels,
		Submitter:      env.Submitter,
		Notifier:       env.Notifier,
		SuccessMessage: f.SuccessMessage,
		RailNavigation: f.RailNavigation,
	})
	i.ctrl.OnClose(i.teardown)
	i.gd = guard.New(guard.NavigatorFunc(i.navigate), guard.Options{
		Tracker: i.snap,
		Busy:    i.ctrl.InProgress,
	})
	return i, nil
}

// Flow returns the definition.
func (i *Instance) Flow() *Flow { return i.flow }

// Controller returns the underlying controller.
func (i *Instance) Controller() *wizard.Controller { return i.ctrl }

// Guard returns the exit guard.
func (i *Instance) Guard() *guard.Guard { return i.gd }

// Codes returns the service verification codes are sent and checked with.
func (i *Instance) Codes() verify.CodeService { return i.env.Codes }

// Snapshot returns the dirty tracker of the flow's inputs.
func (i *Instance) Snapshot() *dirty.Snapshot { return i.snap }

// Open starts the flow at its first step.
func (i *Instance) Open() {
	i.exited = nil
	i.ctrl.Open()
}

// Exited returns where the flow went when it was left through the guard.
func (i *Instance) Exited() (guard.Target, bool) {
	if i.exited == nil {
		return "", false
	}
	return *i.exited, true
}

// Fields returns the inputs of the current step.
func (i *Instance) Fields() []Field {
	return i.flow.FieldsFor(i.ctrl.CurrentStepID())
}

// Edit records a field edit on step id.
func (i *Instance) Edit(id, key string, value any) error {
	if err := i.ctrl.Edit(id, key, value); err != nil {
		return err
	}
	i.snap.Set(snapshotKey(id, key), value)
	return nil
}

// NeedsVerification reports whether the current step embeds the verification
// dialog and has not been verified yet.
func (i *Instance) NeedsVerification() bool {
	id := i.ctrl.CurrentStepID()
	if i.flow.Verification[id] == nil {
		return false
	}
	return !i.ctrl.Data(id).GetBool(VerifiedKey)
}

// StartVerification opens the verification dialog for the current step, or
// returns the one already open.
func (i *Instance) StartVerification() (*verify.Session, error) {
	if i.ctrl.Phase() != wizard.PhaseActive {
		return nil, model.NewError(model.ErrFlowClosed, "flow is not open")
	}
	id := i.ctrl.CurrentStepID()
	dest := i.flow.Verification[id]
	if dest == nil {
		return nil, fmt.Errorf("step %q has no verification", id)
	}
	if i.session != nil && i.session.State() != verify.StateClosed {
		return i.session, nil
	}
	i.session = verify.NewSession(verify.Options{
		Scheduler:    i.env.Scheduler,
		Service:      i.env.Codes,
		Cooldown:     i.env.Cooldown,
		MaxAttempts:  i.env.MaxAttempts,
		Destinations: dest,
	})
	i.sessionStep = id
	i.log.Debug("verification %s opened on %s", i.session.ID(), id)
	return i.session, nil
}

// Session returns the open verification dialog, if any.
func (i *Instance) Session() *verify.Session { return i.session }

// FinishVerification closes an accepted dialog and marks its step verified.
func (i *Instance) FinishVerification() error {
	if i.session == nil {
		return model.NewError(model.ErrSessionClosed, "no verification is open")
	}
	if i.session.State() != verify.StateAccepted {
		return model.Errorf(model.ErrValidationBlocked, "verification is %s", i.session.State())
	}
	step := i.sessionStep
	i.closeSession()
	return i.Edit(step, VerifiedKey, true)
}

// CancelVerification closes the dialog without marking the step.
func (i *Instance) CancelVerification() {
	i.closeSession()
}

func (i *Instance) closeSession() {
	if i.session == nil {
		return
	}
	i.session.Close()
	i.session = nil
	i.sessionStep = ""
}

// RequestExit leaves the flow through the guard.
func (i *Instance) RequestExit(target guard.Target) (guard.Outcome, error) {
	return i.gd.RequestExit(target)
}

// Submit submits from the review step and commits the snapshot on success.
func (i *Instance) Submit(ctx context.Context) error {
	if err := i.ctrl.Submit(ctx); err != nil {
		return err
	}
	if r, ok := i.ctrl.Receipt(); ok {
		i.receipt = &r
	}
	i.snap.Commit()
	return nil
}

// LastReceipt returns the receipt of the most recent submission. It outlives
// the controller closing.
func (i *Instance) LastReceipt() (wizard.Receipt, bool) {
	if i.receipt == nil {
		return wizard.Receipt{}, false
	}
	return *i.receipt, true
}

// Invoke runs an action-bar button. Cancel and Go Home leave through the
// guard; Print is reported through the notifier.
func (i *Instance) Invoke(ctx context.Context, id wizard.ActionID) error {
	before := i.ctrl.CurrentStepID()
	defer func() {
		if i.session != nil && i.ctrl.CurrentStepID() != before {
			i.closeSession()
		}
	}()

	switch id {
	case wizard.ActionCancel:
		_, err := i.RequestExit(TargetClose)
		return err
	case wizard.ActionHome:
		_, err := i.RequestExit(TargetHome)
		return err
	case wizard.ActionPrint:
		ref := ""
		if r, ok := i.ctrl.Receipt(); ok {
			ref = r.Reference
		}
		i.env.Notifier.Notify(notify.KindInfo, "Sent to printer", ref)
		return nil
	case wizard.ActionSubmit:
		return i.Submit(ctx)
	default:
		return i.ctrl.Invoke(ctx, id)
	}
}

// JumpTo moves to step id from the rail.
func (i *Instance) JumpTo(id string) error {
	if err := i.ctrl.JumpTo(id); err != nil {
		return err
	}
	if i.session != nil && i.sessionStep != id {
		i.closeSession()
	}
	return nil
}

func (i *Instance) navigate(to guard.Target) error {
	i.ctrl.Close()
	i.exited = &to
	i.log.Debug("left flow for %s", to)
	if i.env.Navigate != nil {
		return i.env.Navigate(to)
	}
	return nil
}

// teardown runs whenever the controller closes.
func (i *Instance) teardown() {
	i.closeSession()
	i.snap.Reset(flatten(i.flow.Defaults))
}

func snapshotKey(step, key string) string {
	return step + "." + key
}

func flatten(data wizard.FlowData) dirty.Values {
	out := dirty.Values{}
	for step, d := range data {
		for k, v := range d {
			out[snapshotKey(step, k)] = v
		}
	}
	return out
}
