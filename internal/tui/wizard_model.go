package tui

import (
	"context"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/mark3labs/stepguard/internal/flows"
	"github.com/mark3labs/stepguard/internal/logger"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/notify"
	"github.com/mark3labs/stepguard/internal/tui/theme"
	"github.com/mark3labs/stepguard/internal/verify"
	"github.com/mark3labs/stepguard/internal/wizard"
)

// WizardModel is the BubbleTea model hosting one wizard flow: step rail,
// step body, field editor, action bar, exit prompt and verification dialog.
type WizardModel struct {
	ctx   context.Context
	inst  *flows.Instance
	codes verify.CodeService
	toast *Toast

	editor     *FieldEditor
	bar        *ActionBar
	dialog     *VerifyDialog
	step       string
	showErrors bool
	status     string

	width  int
	height int
	quit   bool
}

// NewWizardModel creates the host for an open instance. toast must be wired
// as the instance's notifier.
func NewWizardModel(ctx context.Context, inst *flows.Instance, toast *Toast) *WizardModel {
	m := &WizardModel{
		ctx:   ctx,
		inst:  inst,
		codes: inst.Codes(),
		toast: toast,
		bar:   NewActionBar(),
	}
	m.sync()
	return m
}

// Instance returns the hosted flow.
func (m *WizardModel) Instance() *flows.Instance { return m.inst }

// Init initializes the model.
func (m *WizardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the wizard.
func (m *WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.sync()
	if _, left := m.inst.Exited(); left || m.quit {
		return m, tea.Quit
	}
	return m, tea.Batch(cmd, m.toast.Cmd())
}

func (m *WizardModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return nil

	case TickMsg:
		msg.Fn()
		return nil

	case ToastDismissMsg:
		m.toast.Update(msg)
		return nil

	case CodeCheckedMsg:
		if m.dialog != nil && m.dialog.Finish(msg) {
			m.finishVerification()
		}
		return nil

	case tea.PasteMsg:
		switch {
		case m.inst.Guard().PromptVisible():
		case m.dialog != nil:
			m.dialog.Paste(msg.Content)
		default:
			if _, err := m.editor.Paste(msg.Content); err != nil {
				m.status = err.Error()
			}
		}
		return nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return nil
}

func (m *WizardModel) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		m.inst.Controller().Close()
		m.quit = true
		return nil
	}

	if m.inst.Guard().PromptVisible() {
		m.handlePrompt(key)
		return nil
	}

	if m.dialog != nil {
		return m.handleDialog(msg)
	}

	if m.bar.IsFocused() {
		switch key {
		case "tab", "right":
			if !m.bar.FocusNext() {
				m.bar.Blur()
				m.editor.FocusFirst()
			}
			return nil
		case "shift+tab", "left":
			if !m.bar.FocusPrev() {
				m.bar.Blur()
				m.editor.FocusLast()
			}
			return nil
		case "enter", "space", " ":
			if a, ok := m.bar.FocusedAction(); ok {
				m.invoke(a)
			}
			return nil
		case "esc":
			m.invoke(wizard.Action{ID: wizard.ActionCancel, Enabled: true})
			return nil
		}
		return nil
	}

	if strings.HasPrefix(key, "alt+") {
		if n, err := strconv.Atoi(strings.TrimPrefix(key, "alt+")); err == nil {
			m.jump(n - 1)
			return nil
		}
	}

	switch key {
	case "esc":
		m.invoke(wizard.Action{ID: wizard.ActionCancel, Enabled: true})
		return nil
	case "tab":
		if !m.editor.Next() {
			m.editor.Blur()
			m.bar.FocusFirst()
		}
		return nil
	case "shift+tab":
		if !m.editor.Prev() {
			m.editor.Blur()
			m.bar.FocusLast()
		}
		return nil
	case "down":
		m.editor.Next()
		return nil
	case "up":
		m.editor.Prev()
		return nil
	case "enter":
		if m.inst.NeedsVerification() {
			m.openDialog()
			return nil
		}
		m.invoke(m.inst.Controller().ActionBarConfig().Primary)
		return nil
	}

	_, cmd, err := m.editor.Update(msg)
	if err != nil {
		m.status = err.Error()
	}
	return cmd
}

func (m *WizardModel) handlePrompt(key string) {
	g := m.inst.Guard()
	var err error
	switch key {
	case "d", "D", "y", "Y":
		err = g.ConfirmDiscardAndExit()
	case "esc", "n", "N":
		err = g.CancelExitRequest()
	default:
		return
	}
	if err != nil {
		m.status = err.Error()
	}
}

func (m *WizardModel) handleDialog(msg tea.KeyPressMsg) tea.Cmd {
	s := m.dialog.Session()
	switch msg.String() {
	case "esc":
		if s.State() != verify.StateVerifying {
			m.inst.CancelVerification()
			m.dialog = nil
		}
		return nil
	case "enter":
		if s.State() == verify.StateAccepted {
			m.finishVerification()
			return nil
		}
	}
	return m.dialog.Update(msg)
}

func (m *WizardModel) openDialog() {
	s, err := m.inst.StartVerification()
	if err != nil {
		m.status = err.Error()
		return
	}
	m.dialog = NewVerifyDialog(m.ctx, s, m.codes)
}

func (m *WizardModel) finishVerification() {
	if err := m.inst.FinishVerification(); err != nil {
		m.status = err.Error()
		return
	}
	m.dialog = nil
	m.toast.Notify(notify.KindSuccess, "Identity verified", "")
}

// invoke runs an action-bar button and turns its error into inline state.
func (m *WizardModel) invoke(a wizard.Action) {
	if !a.Enabled {
		m.showErrors = true
		m.status = "Complete this step to continue."
		return
	}
	err := m.inst.Invoke(m.ctx, a.ID)
	if err == nil {
		m.status = ""
		return
	}
	logger.Debug("action %s: %v", a.ID, err)
	if fe, ok := model.AsFlowError(err); ok {
		if fe.Code == model.ErrIncompleteRequiredField || fe.Code == model.ErrValidationBlocked {
			m.showErrors = true
		}
		m.status = fe.Message
		return
	}
	m.status = err.Error()
}

func (m *WizardModel) jump(idx int) {
	order := m.inst.Controller().Order()
	if idx < 0 || idx >= order.Len() {
		return
	}
	if err := m.inst.JumpTo(order.At(idx).ID()); err != nil {
		if fe, ok := model.AsFlowError(err); ok {
			m.status = fe.Message
			return
		}
		m.status = err.Error()
	}
}

// sync rebuilds per-step components when the current step changes.
func (m *WizardModel) sync() {
	c := m.inst.Controller()
	id := c.CurrentStepID()
	if m.editor == nil || id != m.step || c.Phase() != wizard.PhaseActive {
		m.step = id
		m.showErrors = false
		fields := m.inst.Fields()
		if c.Phase() != wizard.PhaseActive {
			fields = nil
		}
		m.editor = NewFieldEditor(fields, c.Data(id), func(key string, value any) error {
			return m.inst.Edit(id, key, value)
		})
		if m.dialog != nil && m.inst.Session() == nil {
			m.dialog = nil
		}
	}
	m.bar.Set(c.ActionBarConfig())
	m.bar.SetWidth(max(m.width-4, 20))
}

// View renders the wizard.
func (m *WizardModel) View() tea.View {
	screen, modal := m.render()
	return draw(m.width, m.height, screen, modal, m.toast.View(m.width))
}

// render returns the main screen and the modal drawn over it, if any.
func (m *WizardModel) render() (string, string) {
	s := theme.Current().S()
	c := m.inst.Controller()

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		s.HeaderTitle.Render(m.inst.Flow().Title),
		s.HeaderInfo.Render("  "+m.inst.Flow().Summary))

	rail := renderRail(c.Progress())

	bodyWidth := max(m.width-lipgloss.Width(rail)-10, 30)
	body := c.Body()
	main := []string{s.HeaderTitle.Render(body.Title), renderMarkdown(body.Markdown, bodyWidth)}

	if c.Phase() == wizard.PhaseActive {
		if m.editor.Len() > 0 {
			var errs map[string]string
			if m.showErrors {
				errs = map[string]string{}
				for _, fe := range c.FieldErrors(c.CurrentStepID()) {
					errs[fe.Field] = fe.Message
				}
			}
			main = append(main, "", m.editor.View(errs))
		}
		if m.inst.NeedsVerification() {
			main = append(main, "", s.FieldFocused.Render("Press Enter to verify your identity."))
		}
	}
	if m.status != "" {
		main = append(main, "", s.FieldError.Render(m.status))
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(lipgloss.Width(rail)+4).Render(rail),
		lipgloss.JoinVertical(lipgloss.Left, main...))

	parts := []string{header, "", content, "", m.bar.Render(),
		s.Hint.Render("Tab move focus · Enter continue · Alt+N jump · Esc cancel")}
	screen := s.Frame.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	if p, ok := m.inst.Guard().Pending(); ok {
		return screen, renderExitPrompt(p, m.inst.Snapshot().Diff(), false)
	}
	if m.dialog != nil {
		return screen, m.dialog.View()
	}
	return screen, ""
}
