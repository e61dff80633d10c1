package wizard

// ActionID identifies an action-bar button.
type ActionID string

const (
	ActionNext   ActionID = "next"
	ActionSubmit ActionID = "submit"
	ActionBack   ActionID = "back"
	ActionCancel ActionID = "cancel"
	ActionHome   ActionID = "home"
	ActionPrint  ActionID = "print"
)

// Action is one slot of the action bar.
type Action struct {
	ID      ActionID
	Label   string
	Enabled bool
}

// ActionBar is the footer configuration for the current step.
type ActionBar struct {
	Primary   Action
	Secondary *Action
	Tertiary  *Action
}

// Actions returns the non-nil slots in tertiary, secondary, primary order,
// which is how hosts lay them out left to right.
func (b ActionBar) Actions() []Action {
	out := make([]Action, 0, 3)
	if b.Tertiary != nil {
		out = append(out, *b.Tertiary)
	}
	if b.Secondary != nil {
		out = append(out, *b.Secondary)
	}
	return append(out, b.Primary)
}

// Labels overrides the default action labels.
type Labels struct {
	Next   string
	Submit string
	Back   string
	Cancel string
	Home   string
	Print  string
}

// DefaultLabels is the label set used when Options.Labels is zero.
var DefaultLabels = Labels{
	Next:   "Save & Continue",
	Submit: "Submit",
	Back:   "Back",
	Cancel: "Cancel",
	Home:   "Go Home",
	Print:  "Print",
}

func (l Labels) withDefaults() Labels {
	fill := func(s *string, def string) {
		if *s == "" {
			*s = def
		}
	}
	fill(&l.Next, DefaultLabels.Next)
	fill(&l.Submit, DefaultLabels.Submit)
	fill(&l.Back, DefaultLabels.Back)
	fill(&l.Cancel, DefaultLabels.Cancel)
	fill(&l.Home, DefaultLabels.Home)
	fill(&l.Print, DefaultLabels.Print)
	return l
}

// ActionBarConfig derives the footer from the current step, the phase and
// CanAdvance. In Success the slots are repurposed: Go Home, Print, none.
func (c *Controller) ActionBarConfig() ActionBar {
	l := c.labels
	if c.phase == PhaseSuccess {
		return ActionBar{
			Primary:   Action{ID: ActionHome, Label: l.Home, Enabled: true},
			Secondary: &Action{ID: ActionPrint, Label: l.Print, Enabled: true},
		}
	}

	open := c.phase == PhaseActive
	primary := Action{ID: ActionNext, Label: l.Next}
	if c.current == c.review {
		primary = Action{ID: ActionSubmit, Label: l.Submit}
	}
	primary.Enabled = open && c.CanAdvance(c.current)

	idx, _ := c.order.Index(c.current)
	return ActionBar{
		Primary:   primary,
		Secondary: &Action{ID: ActionBack, Label: l.Back, Enabled: open && idx > 0},
		Tertiary:  &Action{ID: ActionCancel, Label: l.Cancel, Enabled: open},
	}
}
