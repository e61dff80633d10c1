package catalog

// StepStatus is the rail status of a step relative to the current one.
type StepStatus int

const (
	StatusDone StepStatus = iota
	StatusCurrent
	StatusUpcoming
)

// String returns the status name.
func (s StepStatus) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusCurrent:
		return "current"
	case StatusUpcoming:
		return "upcoming"
	default:
		return "unknown"
	}
}

// RailItem is one entry of the progress rail.
type RailItem struct {
	ID     string
	Label  string
	Depth  int
	Status StepStatus
}

// Progress is the metadata a host needs to draw a step rail.
type Progress struct {
	Items       []RailItem
	Position    int // 1-based position of the current step
	Total       int
	Breadcrumbs []Breadcrumb // Display-only sub-steps of the current step
}

// Progress builds rail metadata for the given current step. With complete set
// every step is reported done.
func (o *Order) Progress(current string, complete bool) Progress {
	cur, ok := o.index[current]
	if !ok {
		cur = 0
	}

	p := Progress{
		Items:       make([]RailItem, len(o.steps)),
		Position:    cur + 1,
		Total:       len(o.steps),
		Breadcrumbs: o.crumbs[current],
	}
	for i, s := range o.steps {
		status := StatusUpcoming
		switch {
		case complete || i < cur:
			status = StatusDone
		case i == cur:
			status = StatusCurrent
		}
		p.Items[i] = RailItem{ID: s.ID(), Label: s.Label(), Depth: s.Depth(), Status: status}
	}
	return p
}
