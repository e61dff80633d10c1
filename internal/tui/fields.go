package tui

import (
	"fmt"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/mark3labs/stepguard/internal/form"
	"github.com/mark3labs/stepguard/internal/tui/theme"
)

// EditFunc receives every value change made in the editor.
type EditFunc func(key string, value any) error

// FieldEditor edits the inputs of one step or tab. Text and date fields use a
// textinput; checkboxes toggle with space; selects cycle with left and right.
type FieldEditor struct {
	fields []flows.Field
	values map[string]any
	inputs map[string]*textinput.Model
	focus  int
	onEdit EditFunc
}

// NewFieldEditor creates an editor over fields seeded with values.
func NewFieldEditor(fields []flows.Field, values map[string]any, onEdit EditFunc) *FieldEditor {
	e := &FieldEditor{
		fields: fields,
		values: map[string]any{},
		inputs: map[string]*textinput.Model{},
		onEdit: onEdit,
	}
	for k, v := range values {
		e.values[k] = v
	}
	for _, f := range fields {
		if f.Kind != flows.FieldText && f.Kind != flows.FieldDate {
			continue
		}
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = 64
		if s, ok := e.values[f.Key].(string); ok {
			ti.SetValue(s)
		}
		e.inputs[f.Key] = &ti
	}
	e.focusInput()
	return e
}

// Len returns the number of fields.
func (e *FieldEditor) Len() int { return len(e.fields) }

// Focused returns the focused field.
func (e *FieldEditor) Focused() (flows.Field, bool) {
	if len(e.fields) == 0 {
		return flows.Field{}, false
	}
	return e.fields[e.focus], true
}

// Typing reports whether keys currently go to a text input.
func (e *FieldEditor) Typing() bool {
	f, ok := e.Focused()
	return ok && e.inputs[f.Key] != nil
}

// Blur removes the cursor from the focused input.
func (e *FieldEditor) Blur() {
	for _, ti := range e.inputs {
		ti.Blur()
	}
}

// FocusFirst focuses the first field.
func (e *FieldEditor) FocusFirst() {
	e.focus = 0
	e.focusInput()
}

// FocusLast focuses the last field.
func (e *FieldEditor) FocusLast() {
	e.focus = max(len(e.fields)-1, 0)
	e.focusInput()
}

// Next moves focus down. It returns false on the last field.
func (e *FieldEditor) Next() bool {
	if e.focus+1 >= len(e.fields) {
		return false
	}
	e.focus++
	e.focusInput()
	return true
}

// Prev moves focus up. It returns false on the first field.
func (e *FieldEditor) Prev() bool {
	if e.focus == 0 {
		return false
	}
	e.focus--
	e.focusInput()
	return true
}

func (e *FieldEditor) focusInput() {
	e.Blur()
	if f, ok := e.Focused(); ok {
		if ti := e.inputs[f.Key]; ti != nil {
			ti.Focus()
		}
	}
}

// Update handles a key for the focused field. It reports whether the key was
// consumed.
func (e *FieldEditor) Update(msg tea.KeyPressMsg) (bool, tea.Cmd, error) {
	f, ok := e.Focused()
	if !ok {
		return false, nil, nil
	}

	switch f.Kind {
	case flows.FieldCheckbox:
		switch msg.String() {
		case "space", " ", "x":
			b, _ := e.values[f.Key].(bool)
			return true, nil, e.set(f.Key, !b)
		}
		return false, nil, nil

	case flows.FieldSelect:
		switch msg.String() {
		case "right", "l":
			return true, nil, e.cycle(f, 1)
		case "left", "h":
			return true, nil, e.cycle(f, -1)
		}
		return false, nil, nil
	}

	ti := e.inputs[f.Key]
	if ti == nil {
		return false, nil, nil
	}
	switch msg.String() {
	case "enter", "tab", "shift+tab", "up", "down", "esc":
		return false, nil, nil
	}
	before := ti.Value()
	updated, cmd := ti.Update(msg)
	*ti = updated
	if ti.Value() != before {
		return true, cmd, e.set(f.Key, ti.Value())
	}
	return true, cmd, nil
}

func (e *FieldEditor) cycle(f flows.Field, delta int) error {
	if len(f.Options) == 0 {
		return nil
	}
	cur, _ := e.values[f.Key].(string)
	idx := -1
	for i, o := range f.Options {
		if o == cur {
			idx = i
		}
	}
	switch {
	case idx < 0 && delta < 0:
		idx = len(f.Options) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + delta + len(f.Options)) % len(f.Options)
	}
	return e.set(f.Key, f.Options[idx])
}

func (e *FieldEditor) set(key string, value any) error {
	e.values[key] = value
	if e.onEdit == nil {
		return nil
	}
	return e.onEdit(key, value)
}

// View renders the fields with inline errors.
func (e *FieldEditor) View(errs map[string]string) string {
	s := theme.Current().S()
	if len(e.fields) == 0 {
		return ""
	}
	lines := make([]string, 0, len(e.fields)*2)
	for i, f := range e.fields {
		label := s.FieldLabel
		marker := "  "
		if i == e.focus {
			label = s.FieldFocused
			marker = "› "
		}

		var value string
		switch f.Kind {
		case flows.FieldCheckbox:
			box := "[ ]"
			if b, _ := e.values[f.Key].(bool); b {
				box = "[x]"
			}
			value = box
		case flows.FieldSelect:
			cur, _ := e.values[f.Key].(string)
			if cur == "" {
				cur = "choose"
			}
			value = fmt.Sprintf("‹ %s ›", cur)
		default:
			value = e.inputs[f.Key].View()
			if f.Kind == flows.FieldDate && i != e.focus {
				value = f.Display(e.values[f.Key])
			}
		}
		lines = append(lines, label.Render(marker+f.Label+": ")+value)
		if msg, ok := errs[f.Key]; ok {
			lines = append(lines, s.FieldError.Render("    ✗ "+msg))
		}
	}
	if f, ok := e.Focused(); ok && f.Kind == flows.FieldDate {
		lines = append(lines, s.Hint.Render("    "+form.InputLayout+" · shown as "+form.DateLayout))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
