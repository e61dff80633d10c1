package tui

import (
	"strings"
	"unicode"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

// cleanPaste turns pasted text into a single-line field value: escape
// sequences and control characters are dropped, line breaks and tabs
// become single spaces and the ends are trimmed.
func cleanPaste(content string) string {
	content = ansi.Strip(content)

	var b strings.Builder
	space := false
	for _, r := range content {
		switch {
		case r == '\n' || r == '\r' || r == '\t' || r == ' ':
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Paste inserts pasted text into the focused text input at the cursor. It
// reports whether the paste landed; checkboxes and selects ignore it.
func (e *FieldEditor) Paste(content string) (bool, error) {
	f, ok := e.Focused()
	if !ok {
		return false, nil
	}
	ti := e.inputs[f.Key]
	if ti == nil {
		return false, nil
	}
	text := cleanPaste(content)
	if text == "" {
		return false, nil
	}
	before := ti.Value()
	updated, _ := ti.Update(tea.PasteMsg{Content: text})
	*ti = updated
	if ti.Value() == before {
		return false, nil
	}
	return true, e.set(f.Key, ti.Value())
}
