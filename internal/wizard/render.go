package wizard

import (
	"fmt"
	"strings"
)

// View is what a renderer sees: the step being drawn and the whole flow's
// data, so review steps can summarise earlier answers.
type View struct {
	StepID string
	Label  string
	Phase  Phase
	Data   StepData
	All    FlowData
	Order  []string
	Labels map[string]string
	Errors map[string]string
}

// Body is the presentation payload of the active step. Markdown is rendered
// by the host.
type Body struct {
	StepID   string
	Title    string
	Markdown string
}

// Renderer turns a View into a Body.
type Renderer func(View) Body

// Body renders the current step, or the success screen once submitted.
func (c *Controller) Body() Body {
	v := c.view(c.current)
	if c.phase == PhaseSuccess {
		if c.opts.Success != nil {
			return c.opts.Success(v)
		}
		return c.successBody(v)
	}
	if r := c.opts.Renderers[c.current]; r != nil {
		return r(v)
	}
	return DefaultRenderer(v)
}

func (c *Controller) view(id string) View {
	labels := make(map[string]string, c.order.Len())
	for i := 0; i < c.order.Len(); i++ {
		s := c.order.At(i)
		labels[s.ID()] = s.Label()
	}
	errs := map[string]string{}
	for _, fe := range c.FieldErrors(id) {
		errs[fe.Field] = fe.Message
	}
	return View{
		StepID: id,
		Label:  labels[id],
		Phase:  c.phase,
		Data:   c.data[id].Clone(),
		All:    c.data.Clone(),
		Order:  c.order.IDs(),
		Labels: labels,
		Errors: errs,
	}
}

func (c *Controller) successBody(v View) Body {
	var sb strings.Builder
	sb.WriteString("All done. Your submission was received.\n\n")
	if r, ok := c.Receipt(); ok {
		fmt.Fprintf(&sb, "**Reference:** `%s`\n", r.Reference)
	}
	return Body{StepID: v.StepID, Title: "Success", Markdown: sb.String()}
}

// DefaultRenderer lists the step's fields, with inline errors.
func DefaultRenderer(v View) Body {
	var sb strings.Builder
	keys := v.Data.Keys()
	if len(keys) == 0 {
		sb.WriteString("_No information entered yet._\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "- **%s:** %s\n", k, v.Data.GetString(k))
		if msg, ok := v.Errors[k]; ok {
			fmt.Fprintf(&sb, "  - ⚠ %s\n", msg)
		}
	}
	return Body{StepID: v.StepID, Title: v.Label, Markdown: sb.String()}
}

// SummaryRenderer lists every earlier step's data under its label. Review
// steps use it.
func SummaryRenderer(intro string) Renderer {
	return func(v View) Body {
		var sb strings.Builder
		if intro != "" {
			sb.WriteString(intro)
			sb.WriteString("\n\n")
		}
		for _, id := range v.Order {
			if id == v.StepID {
				break
			}
			fmt.Fprintf(&sb, "## %s\n\n", v.Labels[id])
			d := v.All[id]
			if len(d) == 0 {
				sb.WriteString("_Nothing entered._\n\n")
				continue
			}
			for _, k := range d.Keys() {
				fmt.Fprintf(&sb, "- **%s:** %s\n", k, d.GetString(k))
			}
			sb.WriteString("\n")
		}
		return Body{StepID: v.StepID, Title: v.Label, Markdown: sb.String()}
	}
}
