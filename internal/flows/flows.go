// Package flows defines the call sites that drive the controller: benefits
// enrollment, dependent and beneficiary add, bank-account add, debit-card
// activation and the communication-preferences tabs. Each flow supplies
// only a catalog, per-step fields and predicates, and step renderers.
package flows

import (
	"embed"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/stepguard/internal/catalog"
	"github.com/mark3labs/stepguard/internal/form"
	"github.com/mark3labs/stepguard/internal/guard"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/notify"
	"github.com/mark3labs/stepguard/internal/ticker"
	"github.com/mark3labs/stepguard/internal/verify"
	"github.com/mark3labs/stepguard/internal/wizard"
)

//go:embed catalogs/*.yml
var embedded embed.FS

// Kind distinguishes step-by-step wizards from tabbed workspaces.
type Kind int

const (
	KindWizard Kind = iota
	KindTabs
)

// String returns the kind name.
func (k Kind) String() string {
	if k == KindTabs {
		return "tabs"
	}
	return "wizard"
}

// FieldKind is how a host should render an input.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldCheckbox FieldKind = "checkbox"
	FieldSelect   FieldKind = "select"
	FieldDate     FieldKind = "date"
)

// Field describes one input of a step.
type Field struct {
	Key         string
	Label       string
	Kind        FieldKind
	Options     []string
	Rules       string // validator tags, e.g. "required,ssn"
	Placeholder string
}

// Display renders a stored value for a summary.
func (f Field) Display(v any) string {
	switch f.Kind {
	case FieldCheckbox:
		if b, _ := v.(bool); b {
			return "Yes"
		}
		return "No"
	case FieldDate:
		s, _ := v.(string)
		if s == "" {
			return form.FormatDate(time.Time{})
		}
		t, err := form.ParseDate(s)
		if err != nil {
			return s
		}
		return form.FormatDate(t)
	default:
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
}

// Env is what a running flow needs from its host.
type Env struct {
	Submitter   wizard.Submitter
	Notifier    notify.Notifier
	Scheduler   ticker.Scheduler
	Codes       verify.CodeService
	Cooldown    time.Duration
	MaxAttempts int
	// Navigate receives exits that leave the flow. Optional.
	Navigate func(guard.Target) error
}

func (e Env) withDefaults() Env {
	if e.Notifier == nil {
		e.Notifier = notify.Log{}
	}
	if e.Scheduler == nil {
		e.Scheduler = ticker.NewManual()
	}
	if e.Codes == nil {
		e.Codes = verify.AcceptAll{}
	}
	if e.Submitter == nil {
		e.Submitter = wizard.LocalSubmitter
	}
	return e
}

// Flow is a call-site definition.
type Flow struct {
	ID      string
	Title   string
	Summary string
	Kind    Kind
	Catalog *catalog.Catalog

	// Fields lists inputs per step id.
	Fields map[string][]Field
	// Verification marks steps that embed the verification sub-flow and the
	// masked destinations offered there.
	Verification map[string]map[verify.Method]string
	// Predicates add gates beyond the field rules.
	Predicates map[string]wizard.Predicate
	// Checks add cross-field validation beyond the field rules.
	Checks map[string]wizard.Validator

	// Defaults seeds step data on open, or the saved values of each tab.
	Defaults wizard.FlowData
	// Intros is shown above a step's inputs.
	Intros map[string]string

	Labels         wizard.Labels
	SuccessMessage string
	RailNavigation bool
	// Renderers override the generated step bodies.
	Renderers map[string]wizard.Renderer
}

// renderers builds a body renderer for every step: the review step lists
// earlier answers, the others list their own inputs.
func (f *Flow) renderers(o *catalog.Order) map[string]wizard.Renderer {
	review := o.Review()
	if !o.Contains(review) {
		review = o.Last().ID()
	}
	out := make(map[string]wizard.Renderer, o.Len())
	for _, id := range o.IDs() {
		switch {
		case f.Renderers[id] != nil:
			out[id] = f.Renderers[id]
		case id == review && f.Kind == KindWizard:
			out[id] = summaryRenderer(f, f.Intros[id])
		default:
			out[id] = fieldRenderer(f, f.Intros[id])
		}
	}
	return out
}

// FieldsFor returns the inputs of step id.
func (f *Flow) FieldsFor(id string) []Field {
	return f.Fields[id]
}

// Field looks up one input of step id.
func (f *Flow) Field(id, key string) (Field, bool) {
	for _, fd := range f.Fields[id] {
		if fd.Key == key {
			return fd, true
		}
	}
	return Field{}, false
}

// Rules returns the validator rules of step id.
func (f *Flow) Rules(id string) form.Rules {
	rules := form.Rules{}
	for _, fd := range f.Fields[id] {
		if fd.Rules != "" {
			rules[fd.Key] = fd.Rules
		}
	}
	return rules
}

// validators combines field rules and cross-field checks per step.
func (f *Flow) validators() map[string]wizard.Validator {
	out := map[string]wizard.Validator{}
	ids := map[string]bool{}
	for id := range f.Fields {
		ids[id] = true
	}
	for id := range f.Checks {
		ids[id] = true
	}
	for id := range ids {
		rules := f.Rules(id)
		check := f.Checks[id]
		if len(rules) == 0 && check == nil {
			continue
		}
		out[id] = func(d wizard.StepData) []model.FieldError {
			errs := rules.Validate(d)
			if check != nil {
				errs = append(errs, check(d)...)
			}
			return errs
		}
	}
	return out
}

// predicates adds the verification gate to the flow's own predicates.
func (f *Flow) predicates() map[string]wizard.Predicate {
	out := map[string]wizard.Predicate{}
	for id, p := range f.Predicates {
		out[id] = p
	}
	for id := range f.Verification {
		gate := wizard.Checked(VerifiedKey)
		if p, ok := out[id]; ok {
			out[id] = wizard.All(p, gate)
		} else {
			out[id] = gate
		}
	}
	return out
}

// check ensures the catalog still has every step the definition refers to.
func (f *Flow) check() error {
	o, err := catalog.Flatten(f.Catalog)
	if err != nil {
		return err
	}
	refs := map[string]bool{}
	for id := range f.Fields {
		refs[id] = true
	}
	for id := range f.Verification {
		refs[id] = true
	}
	for id := range f.Predicates {
		refs[id] = true
	}
	for id := range f.Checks {
		refs[id] = true
	}
	for id := range refs {
		if !o.Contains(id) {
			return model.Errorf(model.ErrInvalidCatalog, "flow %s: catalog has no addressable step %q", f.ID, id)
		}
	}
	return nil
}

// Registry holds the available flows.
type Registry struct {
	flows map[string]*Flow
}

// Load builds the registry from the embedded catalogs. Catalog files in dir,
// when given, replace the embedded catalog with the same id.
func Load(dir string) (*Registry, error) {
	cats, err := catalog.LoadFS(embedded, "catalogs")
	if err != nil {
		return nil, fmt.Errorf("loading embedded catalogs: %w", err)
	}
	byID := make(map[string]*catalog.Catalog, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	if dir != "" {
		overrides, err := catalog.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("loading catalog overrides: %w", err)
		}
		for _, c := range overrides {
			if _, ok := byID[c.ID]; !ok {
				logger.Warn("ignoring catalog %s from %s: no flow uses it", c.ID, c.SourceFile)
				continue
			}
			logger.Info("catalog %s overridden by %s", c.ID, c.SourceFile)
			byID[c.ID] = c
		}
	}

	r := &Registry{flows: map[string]*Flow{}}
	for _, build := range definitions {
		f := build()
		c, ok := byID[f.ID]
		if !ok {
			return nil, fmt.Errorf("no catalog for flow %s", f.ID)
		}
		f.Catalog = c
		if f.Title == "" {
			f.Title = c.Title
		}
		if err := f.check(); err != nil {
			return nil, err
		}
		r.flows[f.ID] = f
	}
	return r, nil
}

// Get returns the flow with the given id.
func (r *Registry) Get(id string) (*Flow, error) {
	f, ok := r.flows[id]
	if !ok {
		return nil, fmt.Errorf("unknown flow %q (available: %v)", id, r.IDs())
	}
	return f, nil
}

// IDs returns the flow ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.flows))
	for id := range r.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns the flows sorted by id.
func (r *Registry) All() []*Flow {
	out := make([]*Flow, 0, len(r.flows))
	for _, id := range r.IDs() {
		out = append(out, r.flows[id])
	}
	return out
}
