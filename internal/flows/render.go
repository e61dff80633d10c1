package flows

import (
	"fmt"
	"strings"

	"github.com/mark3labs/stepguard/internal/wizard"
)

// fieldRenderer lists a step's inputs by label, with inline errors.
func fieldRenderer(f *Flow, intro string) wizard.Renderer {
	return func(v wizard.View) wizard.Body {
		var sb strings.Builder
		if intro != "" {
			sb.WriteString(intro)
			sb.WriteString("\n\n")
		}
		writeFields(&sb, f.FieldsFor(v.StepID), v.Data, v.Errors)
		return wizard.Body{StepID: v.StepID, Title: v.Label, Markdown: sb.String()}
	}
}

// summaryRenderer lists every earlier step's answers under its label, then
// the review step's own inputs.
func summaryRenderer(f *Flow, intro string) wizard.Renderer {
	return func(v wizard.View) wizard.Body {
		var sb strings.Builder
		if intro != "" {
			sb.WriteString(intro)
			sb.WriteString("\n\n")
		}
		for _, id := range v.Order {
			if id == v.StepID {
				break
			}
			fields := f.FieldsFor(id)
			if len(fields) == 0 && f.Verification[id] == nil {
				continue
			}
			fmt.Fprintf(&sb, "## %s\n\n", v.Labels[id])
			if f.Verification[id] != nil {
				status := "Not verified"
				if v.All[id].GetBool(VerifiedKey) {
					status = "Verified"
				}
				fmt.Fprintf(&sb, "- **Identity:** %s\n", status)
			}
			for _, fd := range fields {
				fmt.Fprintf(&sb, "- **%s:** %s\n", fd.Label, fd.Display(v.All[id].Get(fd.Key)))
			}
			sb.WriteString("\n")
		}
		if own := f.FieldsFor(v.StepID); len(own) > 0 {
			sb.WriteString("---\n\n")
			writeFields(&sb, own, v.Data, v.Errors)
		}
		return wizard.Body{StepID: v.StepID, Title: v.Label, Markdown: sb.String()}
	}
}

func writeFields(sb *strings.Builder, fields []Field, data wizard.StepData, errs map[string]string) {
	if len(fields) == 0 {
		sb.WriteString("_Nothing to fill in on this step._\n")
		return
	}
	for _, fd := range fields {
		fmt.Fprintf(sb, "- **%s:** %s\n", fd.Label, fd.Display(data.Get(fd.Key)))
		if msg, ok := errs[fd.Key]; ok {
			fmt.Fprintf(sb, "  - ⚠ %s\n", msg)
		}
	}
}
