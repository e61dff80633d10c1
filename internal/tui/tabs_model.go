package tui

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/mark3labs/stepguard/internal/guard"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/tui/theme"
)

// TabsModel hosts a tabbed workspace. Each tab saves on its own; switching
// away from unsaved edits raises the save-or-discard prompt. Alt+Left and
// Alt+Right walk the visited-tab history; those moves happen before the
// workspace hears of them and are undone when it holds them.
type TabsModel struct {
	ws         *flows.Workspace
	hist       tabHistory
	toast      *Toast
	editor     *FieldEditor
	tab        string
	showErrors bool
	status     string

	width  int
	height int
	quit   bool
}

// NewTabsModel creates the host for ws. toast must be wired as its notifier.
func NewTabsModel(ws *flows.Workspace, toast *Toast) *TabsModel {
	m := &TabsModel{ws: ws, toast: toast, hist: tabHistory{held: -1}}
	m.sync()
	return m
}

// Workspace returns the hosted workspace.
func (m *TabsModel) Workspace() *flows.Workspace { return m.ws }

// Init initializes the model.
func (m *TabsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the workspace.
func (m *TabsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.sync()
	if _, left := m.ws.Exited(); left || m.quit {
		return m, tea.Quit
	}
	return m, tea.Batch(cmd, m.toast.Cmd())
}

func (m *TabsModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case TickMsg:
		msg.Fn()
	case ToastDismissMsg:
		m.toast.Update(msg)
	case tea.PasteMsg:
		if !m.ws.Guard().PromptVisible() {
			_, err := m.editor.Paste(msg.Content)
			m.report(err)
		}
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *TabsModel) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		m.quit = true
		return nil
	}

	if m.ws.Guard().PromptVisible() {
		var err error
		switch key {
		case "s", "S":
			err = m.ws.ConfirmSave()
		case "d", "D":
			err = m.ws.ConfirmDiscard()
		case "esc", "n", "N":
			err = m.ws.CancelExit()
		default:
			return nil
		}
		m.report(err)
		return nil
	}

	switch key {
	case "tab":
		m.switchBy(1)
		return nil
	case "shift+tab":
		m.switchBy(-1)
		return nil
	case "alt+left":
		m.stepHistory(-1)
		return nil
	case "alt+right":
		m.stepHistory(1)
		return nil
	case "down":
		m.editor.Next()
		return nil
	case "up":
		m.editor.Prev()
		return nil
	case "ctrl+s":
		m.report(m.ws.Save())
		return nil
	case "ctrl+z":
		m.ws.Discard()
		m.reload()
		m.status = ""
		return nil
	case "esc":
		_, err := m.ws.RequestExit(flows.TargetClose)
		m.report(err)
		return nil
	}

	_, cmd, err := m.editor.Update(msg)
	m.report(err)
	return cmd
}

func (m *TabsModel) switchBy(delta int) {
	tabs := m.ws.Tabs()
	cur := 0
	for i, t := range tabs {
		if t.ID == m.ws.Active().ID {
			cur = i
		}
	}
	next := tabs[(cur+delta+len(tabs))%len(tabs)]
	_, err := m.ws.SwitchTab(next.ID)
	m.report(err)
}

func (m *TabsModel) stepHistory(delta int) {
	prev := m.hist.pos
	from, to, ok := m.hist.step(delta)
	if !ok {
		return
	}
	out, err := m.ws.SelectedExternally(from, to)
	if out == guard.Prompted || err != nil {
		m.hist.held, m.hist.pos = m.hist.pos, prev
	}
	m.report(err)
}

// tabHistory is the back/forward list of visited tabs.
type tabHistory struct {
	ids  []string
	pos  int
	held int // entry a prompted history move will land on, or -1
}

func (h *tabHistory) visit(id string) {
	held := h.held
	h.held = -1
	switch {
	case held >= 0 && h.ids[held] == id:
		h.pos = held
	case len(h.ids) > 0 && h.ids[h.pos] == id:
	default:
		if len(h.ids) > 0 {
			h.ids = h.ids[:h.pos+1]
		}
		h.ids = append(h.ids, id)
		h.pos = len(h.ids) - 1
	}
}

func (h *tabHistory) step(delta int) (from, to string, ok bool) {
	h.held = -1
	i := h.pos + delta
	if i < 0 || i >= len(h.ids) {
		return "", "", false
	}
	from, to = h.ids[h.pos], h.ids[i]
	h.pos = i
	return from, to, true
}

// report turns an operation error into inline state.
func (m *TabsModel) report(err error) {
	if err == nil {
		m.status = ""
		return
	}
	if fe, ok := model.AsFlowError(err); ok {
		if fe.Code == model.ErrIncompleteRequiredField {
			m.showErrors = true
		}
		m.status = fe.Message
		return
	}
	m.status = err.Error()
}

// sync rebuilds the editor when the active tab changes or its edits are
// dropped.
func (m *TabsModel) sync() {
	if m.editor == nil || m.ws.Active().ID != m.tab {
		m.hist.visit(m.ws.Active().ID)
		m.reload()
	}
}

func (m *TabsModel) reload() {
	tab := m.ws.Active()
	m.tab = tab.ID
	m.showErrors = false
	m.editor = NewFieldEditor(tab.Fields, tab.Snapshot.Live(), func(key string, value any) error {
		m.ws.Edit(key, value)
		return nil
	})
}

// View renders the workspace.
func (m *TabsModel) View() tea.View {
	screen, modal := m.render()
	return draw(m.width, m.height, screen, modal, m.toast.View(m.width))
}

func (m *TabsModel) render() (string, string) {
	s := theme.Current().S()
	active := m.ws.Active()

	labels := make([]string, 0, len(m.ws.Tabs()))
	for _, t := range m.ws.Tabs() {
		label := t.Label
		if t.Snapshot.IsDirty() {
			label += " •"
		}
		if t.ID == active.ID {
			labels = append(labels, s.TabActive.Render(label))
		} else {
			labels = append(labels, s.TabInactive.Render(label))
		}
	}

	var errs map[string]string
	if m.showErrors {
		errs = map[string]string{}
		for _, fe := range m.ws.FieldErrors() {
			errs[fe.Field] = fe.Message
		}
	}

	parts := []string{
		s.HeaderTitle.Render(m.ws.Flow().Title),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, labels...),
		"",
		m.editor.View(errs),
	}
	if m.status != "" {
		parts = append(parts, "", s.FieldError.Render(m.status))
	}
	parts = append(parts, "", s.Hint.Render(strings.Join([]string{
		"Tab switch section", "Alt+←/→ back/forward", "↑/↓ move", "Ctrl+S save", "Ctrl+Z discard", "Esc close",
	}, " · ")))
	screen := s.Frame.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	if p, ok := m.ws.Guard().Pending(); ok {
		return screen, renderExitPrompt(p, active.Snapshot.Diff(), true)
	}
	return screen, ""
}
