package catalog

import (
	"github.com/mark3labs/stepguard/internal/model"
)

// Addressable is a step the controller may point at. Only TopLevelStep and
// AddressableSubStep implement it; a Breadcrumb never does, so a display-only
// sub-step cannot be handed to a jump.
type Addressable interface {
	ID() string
	Label() string
	Depth() int
	addressable()
}

// TopLevelStep is a navigable step at the root of the catalog.
type TopLevelStep struct {
	id    string
	label string
}

func (s TopLevelStep) ID() string    { return s.id }
func (s TopLevelStep) Label() string { return s.label }
func (s TopLevelStep) Depth() int    { return 0 }
func (TopLevelStep) addressable()    {}

// AddressableSubStep is a nested step that is independently selectable.
type AddressableSubStep struct {
	id     string
	label  string
	parent string
	depth  int
}

func (s AddressableSubStep) ID() string     { return s.id }
func (s AddressableSubStep) Label() string  { return s.label }
func (s AddressableSubStep) Depth() int     { return s.depth }
func (s AddressableSubStep) Parent() string { return s.parent }
func (AddressableSubStep) addressable()     {}

// Breadcrumb is a display-only sub-step shown under its top-level parent.
type Breadcrumb struct {
	ID     string
	Label  string
	Parent string
}

// Order is the flattened, navigable step sequence of a catalog.
type Order struct {
	catalogID string
	policy    Policy
	review    string
	steps     []Addressable
	index     map[string]int
	crumbs    map[string][]Breadcrumb
	crumbOf   map[string]string
}

// Flatten validates the catalog and flattens it in pre-order according to its
// policy.
func Flatten(c *Catalog) (*Order, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	o := &Order{
		catalogID: c.ID,
		policy:    c.Policy,
		review:    c.Review,
		index:     make(map[string]int),
		crumbs:    make(map[string][]Breadcrumb),
		crumbOf:   make(map[string]string),
	}

	for _, s := range c.Steps {
		o.push(TopLevelStep{id: s.ID, label: s.Label})
		switch c.Policy {
		case AddressableSubSteps:
			o.pushSubSteps(s.ID, s.SubSteps, 1)
		default:
			o.collectCrumbs(s.ID, s.SubSteps)
		}
	}

	return o, nil
}

func (o *Order) push(a Addressable) {
	o.index[a.ID()] = len(o.steps)
	o.steps = append(o.steps, a)
}

func (o *Order) pushSubSteps(parent string, subs []StepDescriptor, depth int) {
	for _, s := range subs {
		o.push(AddressableSubStep{id: s.ID, label: s.Label, parent: parent, depth: depth})
		o.pushSubSteps(s.ID, s.SubSteps, depth+1)
	}
}

// collectCrumbs records every nested sub-step under its top-level ancestor.
func (o *Order) collectCrumbs(top string, subs []StepDescriptor) {
	for _, s := range subs {
		o.crumbs[top] = append(o.crumbs[top], Breadcrumb{ID: s.ID, Label: s.Label, Parent: top})
		o.crumbOf[s.ID] = top
		o.collectCrumbs(top, s.SubSteps)
	}
}

// CatalogID returns the id of the catalog this order was built from.
func (o *Order) CatalogID() string { return o.catalogID }

// Policy returns the catalog's addressability policy.
func (o *Order) Policy() Policy { return o.policy }

// Review returns the review step id, or "" when the flow has none.
func (o *Order) Review() string { return o.review }

// Len returns the number of navigable steps.
func (o *Order) Len() int { return len(o.steps) }

// IDs returns the navigable ids in order.
func (o *Order) IDs() []string {
	ids := make([]string, len(o.steps))
	for i, s := range o.steps {
		ids[i] = s.ID()
	}
	return ids
}

// Index returns the position of id.
func (o *Order) Index(id string) (int, bool) {
	i, ok := o.index[id]
	return i, ok
}

// Contains reports whether id is navigable.
func (o *Order) Contains(id string) bool {
	_, ok := o.index[id]
	return ok
}

// At returns the step at position i.
func (o *Order) At(i int) Addressable { return o.steps[i] }

// First returns the first navigable step.
func (o *Order) First() Addressable { return o.steps[0] }

// Last returns the last navigable step.
func (o *Order) Last() Addressable { return o.steps[len(o.steps)-1] }

// Next returns the step after id, if any.
func (o *Order) Next(id string) (Addressable, bool) {
	i, ok := o.index[id]
	if !ok || i+1 >= len(o.steps) {
		return nil, false
	}
	return o.steps[i+1], true
}

// Prev returns the step before id, if any.
func (o *Order) Prev(id string) (Addressable, bool) {
	i, ok := o.index[id]
	if !ok || i == 0 {
		return nil, false
	}
	return o.steps[i-1], true
}

// Ref resolves id to a navigable step. Breadcrumb ids fail with
// NOT_ADDRESSABLE; unknown ids with STEP_NOT_FOUND.
func (o *Order) Ref(id string) (Addressable, error) {
	if i, ok := o.index[id]; ok {
		return o.steps[i], nil
	}
	if parent, ok := o.crumbOf[id]; ok {
		return nil, model.Errorf(model.ErrNotAddressable,
			"step %q is a display-only sub-step of %q", id, parent)
	}
	return nil, model.Errorf(model.ErrStepNotFound, "step %q not found in %q", id, o.catalogID)
}

// Breadcrumbs returns the display-only sub-steps of a top-level step.
func (o *Order) Breadcrumbs(id string) []Breadcrumb {
	return o.crumbs[id]
}
