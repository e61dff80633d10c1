// Package catalog describes the ordered steps of a guided flow and flattens
// them into the navigable StepOrder the wizard controller walks.
package catalog

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/mark3labs/stepguard/internal/model"
	"gopkg.in/yaml.v3"
)

// Policy decides whether sub-steps are navigable wizard states or
// display-only breadcrumbs under their parent. Each catalog picks one.
type Policy int

const (
	// TopLevelOnly treats sub-steps as breadcrumbs of the active top-level step.
	TopLevelOnly Policy = iota
	// AddressableSubSteps makes every sub-step an independently selectable step.
	AddressableSubSteps
)

// String returns the YAML spelling of the policy.
func (p Policy) String() string {
	switch p {
	case TopLevelOnly:
		return "top_level_only"
	case AddressableSubSteps:
		return "addressable_sub_steps"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name. An empty string means TopLevelOnly.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "top_level_only", "top-level-only":
		return TopLevelOnly, nil
	case "addressable_sub_steps", "addressable-sub-steps":
		return AddressableSubSteps, nil
	default:
		return TopLevelOnly, fmt.Errorf("unknown step policy: %q", s)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (p Policy) MarshalYAML() (any, error) {
	return p.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// StepDescriptor is one entry of a catalog. Immutable once a flow starts.
type StepDescriptor struct {
	ID       string           `yaml:"id,omitempty"`
	Label    string           `yaml:"label"`
	SubSteps []StepDescriptor `yaml:"sub_steps,omitempty"`
}

// Catalog is the static description of a flow's steps.
type Catalog struct {
	ID     string           `yaml:"id"`
	Title  string           `yaml:"title"`
	Policy Policy           `yaml:"policy"`
	Review string           `yaml:"review,omitempty"` // Step that may jump back into earlier steps
	Steps  []StepDescriptor `yaml:"steps"`

	Checksum   string `yaml:"-"`
	SourceFile string `yaml:"-"`
}

// Step builds a descriptor whose id is derived from its label.
func Step(label string, sub ...StepDescriptor) StepDescriptor {
	return StepDescriptor{ID: slug.Make(label), Label: label, SubSteps: sub}
}

// StepWithID builds a descriptor with an explicit id.
func StepWithID(id, label string, sub ...StepDescriptor) StepDescriptor {
	return StepDescriptor{ID: id, Label: label, SubSteps: sub}
}

// New builds a catalog from descriptors. The review step defaults to the last
// top-level step; use WithReview to change or clear it.
func New(id, title string, policy Policy, steps ...StepDescriptor) *Catalog {
	c := &Catalog{ID: id, Title: title, Policy: policy, Steps: steps}
	c.normalize()
	if len(c.Steps) > 0 {
		c.Review = c.Steps[len(c.Steps)-1].ID
	}
	return c
}

// WithReview sets the review step id. Controllers fall back to the last
// step when it is empty.
func (c *Catalog) WithReview(id string) *Catalog {
	c.Review = id
	return c
}

// normalize fills missing ids from labels.
func (c *Catalog) normalize() {
	if c.ID == "" && c.Title != "" {
		c.ID = slug.Make(c.Title)
	}
	normalizeSteps(c.Steps)
}

func normalizeSteps(steps []StepDescriptor) {
	for i := range steps {
		if steps[i].ID == "" {
			steps[i].ID = slug.Make(steps[i].Label)
		}
		normalizeSteps(steps[i].SubSteps)
	}
}

// Validate checks catalog invariants: at least one step, non-empty unique ids
// across every level, and an addressable review step.
func Validate(c *Catalog) error {
	if c == nil {
		return model.NewError(model.ErrInvalidCatalog, "catalog is nil")
	}

	var details []model.FieldError
	add := func(field, msg string) {
		details = append(details, model.FieldError{Field: field, Code: model.ErrInvalidCatalog, Message: msg})
	}

	if c.ID == "" {
		add("id", "catalog id is required")
	}
	if len(c.Steps) == 0 {
		add("steps", "catalog has no steps")
	}

	seen := make(map[string]string)
	var walk func(steps []StepDescriptor, path string)
	walk = func(steps []StepDescriptor, path string) {
		for i, s := range steps {
			field := fmt.Sprintf("%s[%d]", path, i)
			if s.ID == "" {
				add(field+".id", "step id is required")
			} else if prev, dup := seen[s.ID]; dup {
				add(field+".id", fmt.Sprintf("duplicate step id %q (first at %s)", s.ID, prev))
			} else {
				seen[s.ID] = field
			}
			if s.Label == "" {
				add(field+".label", "step label is required")
			}
			walk(s.SubSteps, field+".sub_steps")
		}
	}
	walk(c.Steps, "steps")

	if c.Review != "" {
		if _, ok := seen[c.Review]; !ok {
			add("review", fmt.Sprintf("review step %q is not in the catalog", c.Review))
		} else if c.Policy == TopLevelOnly && !isTopLevel(c.Steps, c.Review) {
			add("review", fmt.Sprintf("review step %q is a display-only sub-step", c.Review))
		}
	}

	if len(details) > 0 {
		return &model.FlowError{
			Code:    model.ErrInvalidCatalog,
			Message: fmt.Sprintf("catalog %q is invalid", c.ID),
			Details: details,
		}
	}
	return nil
}

func isTopLevel(steps []StepDescriptor, id string) bool {
	for _, s := range steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Labels returns a map of every step id (all levels) to its label.
func (c *Catalog) Labels() map[string]string {
	labels := make(map[string]string)
	var walk func(steps []StepDescriptor)
	walk = func(steps []StepDescriptor) {
		for _, s := range steps {
			labels[s.ID] = s.Label
			walk(s.SubSteps)
		}
	}
	walk(c.Steps)
	return labels
}
