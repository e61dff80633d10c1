// Package wizard is the guarded multi-step workflow controller. One
// Controller drives any flow: call sites supply a step order, per-step
// predicates, renderers and a submit boundary.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/stepguard/internal/catalog"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/notify"
)

// Phase is the lifecycle stage of a flow.
type Phase int

const (
	PhaseClosed Phase = iota // Not open; no state
	PhaseActive              // Navigating steps
	PhaseSuccess             // Submitted; terminal until closed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseActive:
		return "active"
	case PhaseSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Validator returns field-level failures for a step's data.
type Validator func(StepData) []model.FieldError

// Submission is what the review step hands to the submit boundary.
type Submission struct {
	ID     string   `json:"id"`
	FlowID string   `json:"flow_id"`
	Data   FlowData `json:"data"`
}

// Receipt is the result of a successful submission.
type Receipt struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Submitter is the boundary a flow's final submit crosses.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (Receipt, error)
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, s Submission) (Receipt, error)

// Submit implements Submitter.
func (f SubmitFunc) Submit(ctx context.Context, s Submission) (Receipt, error) {
	return f(ctx, s)
}

// LocalSubmitter accepts every submission without a round trip.
var LocalSubmitter = SubmitFunc(func(_ context.Context, s Submission) (Receipt, error) {
	ref := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return Receipt{ID: s.ID, Reference: strings.ToUpper(ref), SubmittedAt: time.Now()}, nil
})

// Options configures a Controller.
type Options struct {
	Predicates map[string]Predicate
	Validators map[string]Validator
	Renderers  map[string]Renderer
	// Success renders the terminal screen. Defaults to a receipt summary.
	Success Renderer
	// Initial seeds per-step data each time the flow opens.
	Initial   FlowData
	Labels    Labels
	Submitter Submitter
	Notifier  notify.Notifier
	// SuccessMessage is the toast shown after a successful submit.
	SuccessMessage string
	// RailNavigation allows jumping back to completed steps from any step.
	RailNavigation bool
}

// Controller owns the current-step pointer and per-step data of one flow.
type Controller struct {
	order  *catalog.Order
	opts   Options
	labels Labels
	review string
	log    *logger.Logger

	phase   Phase
	current string
	data    FlowData
	edited  bool
	receipt *Receipt
	onClose []func()
}

// New creates a closed controller over order. Call Open to start the flow.
func New(order *catalog.Order, opts Options) *Controller {
	if opts.Submitter == nil {
		opts.Submitter = LocalSubmitter
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Log{}
	}
	if opts.SuccessMessage == "" {
		opts.SuccessMessage = "Submitted successfully"
	}

	review := order.Review()
	if !order.Contains(review) {
		review = order.Last().ID()
	}

	c := &Controller{
		order:  order,
		opts:   opts,
		labels: opts.Labels.withDefaults(),
		review: review,
		log:    logger.Default.Named(order.CatalogID()),
	}
	c.reset()
	return c
}

// Order returns the step order.
func (c *Controller) Order() *catalog.Order { return c.order }

// Review returns the id of the review step.
func (c *Controller) Review() string { return c.review }

// Open starts the flow at the first step with freshly seeded data.
func (c *Controller) Open() {
	c.reset()
	c.phase = PhaseActive
	c.log.Debug("flow opened at %s", c.current)
}

// CurrentStepID returns the id of the current step.
func (c *Controller) CurrentStepID() string { return c.current }

// Phase returns the lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// Receipt returns the receipt of a successful submission.
func (c *Controller) Receipt() (Receipt, bool) {
	if c.receipt == nil {
		return Receipt{}, false
	}
	return *c.receipt, true
}

// Data returns a copy of the data owned by step id.
func (c *Controller) Data(id string) StepData {
	return c.data[id].Clone()
}

// AllData returns a copy of every step's data.
func (c *Controller) AllData() FlowData {
	return c.data.Clone()
}

// Edit records a field edit for step id.
func (c *Controller) Edit(id, key string, value any) error {
	if err := c.checkActive(); err != nil {
		return err
	}
	if !c.order.Contains(id) {
		_, err := c.order.Ref(id)
		return err
	}
	d := c.data[id]
	if d == nil {
		d = StepData{}
		c.data[id] = d
	}
	d[key] = value
	c.edited = true
	return nil
}

// FieldErrors returns the inline failures for step id.
func (c *Controller) FieldErrors(id string) []model.FieldError {
	v := c.opts.Validators[id]
	if v == nil {
		return nil
	}
	return v(c.data[id])
}

// CanAdvance reports whether step id's predicate and validator pass. Steps
// without either always pass.
func (c *Controller) CanAdvance(id string) bool {
	if p := c.opts.Predicates[id]; p != nil && !p(c.data[id]) {
		return false
	}
	return len(c.FieldErrors(id)) == 0
}

// GoNext advances one step. It is a no-op on the last step. When the current
// step cannot advance the pointer stays put and the reason is returned as
// VALIDATION_BLOCKED or INCOMPLETE_REQUIRED_FIELD.
func (c *Controller) GoNext() error {
	if err := c.checkActive(); err != nil {
		return err
	}
	next, ok := c.order.Next(c.current)
	if !ok {
		return nil
	}
	if details := c.FieldErrors(c.current); len(details) > 0 {
		c.log.Debug("advance from %s blocked by %d field errors", c.current, len(details))
		return model.NewIncompleteFieldsError(details)
	}
	if !c.CanAdvance(c.current) {
		c.log.Debug("advance from %s blocked", c.current)
		return model.NewValidationBlockedError(c.current)
	}
	c.move(next.ID())
	return nil
}

// GoBack retreats one step. Never gated by validity; a no-op on the first
// step.
func (c *Controller) GoBack() error {
	if err := c.checkActive(); err != nil {
		return err
	}
	prev, ok := c.order.Prev(c.current)
	if !ok {
		return nil
	}
	c.move(prev.ID())
	return nil
}

// JumpTo moves directly to step id. Permitted from the review step, or to an
// earlier step when rail navigation is enabled. Data of skipped steps is
// kept.
func (c *Controller) JumpTo(id string) error {
	ref, err := c.order.Ref(id)
	if err != nil {
		return err
	}
	return c.JumpToRef(ref)
}

// JumpToRef is JumpTo for an already resolved step.
func (c *Controller) JumpToRef(ref catalog.Addressable) error {
	if err := c.checkActive(); err != nil {
		return err
	}
	target, ok := c.order.Index(ref.ID())
	if !ok {
		return model.Errorf(model.ErrStepNotFound, "step %q not found in %q", ref.ID(), c.order.CatalogID())
	}
	cur, _ := c.order.Index(c.current)

	switch {
	case c.current == c.review:
	case c.opts.RailNavigation && target < cur:
	default:
		return model.Errorf(model.ErrJumpNotAllowed,
			"cannot jump from %q to %q", c.current, ref.ID())
	}
	c.move(ref.ID())
	return nil
}

// Submit hands all step data to the submit boundary. Only valid on the
// review step once it can advance. Success is terminal.
func (c *Controller) Submit(ctx context.Context) error {
	if err := c.checkActive(); err != nil {
		return err
	}
	if c.current != c.review {
		return model.Errorf(model.ErrJumpNotAllowed, "submit is only available on %q", c.review)
	}
	if !c.CanAdvance(c.current) {
		return model.NewValidationBlockedError(c.current)
	}

	sub := Submission{ID: uuid.NewString(), FlowID: c.order.CatalogID(), Data: c.data.Clone()}
	receipt, err := c.opts.Submitter.Submit(ctx, sub)
	if err != nil {
		msg := err.Error()
		if fe, ok := model.AsFlowError(err); ok {
			msg = fe.Message
		}
		c.log.Error("submit %s failed: %v", sub.ID, err)
		c.opts.Notifier.Notify(notify.KindError, "Submission failed", msg)
		return &model.FlowError{Code: model.ErrSubmitFailed, Message: msg}
	}

	c.receipt = &receipt
	c.phase = PhaseSuccess
	c.log.Info("flow submitted, reference %s", receipt.Reference)
	c.opts.Notifier.Notify(notify.KindSuccess, c.opts.SuccessMessage,
		fmt.Sprintf("Reference %s", receipt.Reference))
	return nil
}

// Invoke runs the controller side of an action-bar button. Cancel and Print
// belong to the host (the guard and the printer) and are rejected here.
func (c *Controller) Invoke(ctx context.Context, id ActionID) error {
	switch id {
	case ActionNext:
		return c.GoNext()
	case ActionBack:
		return c.GoBack()
	case ActionSubmit:
		return c.Submit(ctx)
	case ActionHome:
		c.Close()
		return nil
	default:
		return fmt.Errorf("action %q is handled by the host", id)
	}
}

// Progress returns step-rail metadata.
func (c *Controller) Progress() catalog.Progress {
	return c.order.Progress(c.current, c.phase == PhaseSuccess)
}

// InProgress reports whether leaving now would abandon work: the flow is
// active and has moved past the first step or has edits.
func (c *Controller) InProgress() bool {
	if c.phase != PhaseActive {
		return false
	}
	idx, _ := c.order.Index(c.current)
	return idx > 0 || c.edited
}

// OnClose registers fn to run every time the flow closes. Verification
// sessions and dirty snapshots owned by the flow hook in here.
func (c *Controller) OnClose(fn func()) {
	c.onClose = append(c.onClose, fn)
}

// Close tears the flow down: hooks run, then all state resets to the initial
// step. Safe to call when already closed.
func (c *Controller) Close() {
	if c.phase == PhaseClosed {
		return
	}
	for _, fn := range c.onClose {
		fn()
	}
	c.reset()
	c.log.Debug("flow closed")
}

func (c *Controller) move(id string) {
	c.log.Debug("step %s -> %s", c.current, id)
	c.current = id
}

func (c *Controller) reset() {
	c.phase = PhaseClosed
	c.current = c.order.First().ID()
	c.data = c.opts.Initial.Clone()
	c.edited = false
	c.receipt = nil
}

func (c *Controller) checkActive() error {
	switch c.phase {
	case PhaseSuccess:
		return model.NewError(model.ErrFlowTerminal, "flow already submitted; close it to continue")
	case PhaseClosed:
		return model.NewError(model.ErrFlowClosed, "flow is not open")
	}
	return nil
}
