package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/stepguard/internal/catalog"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrollmentOrder(t *testing.T) *catalog.Order {
	t.Helper()
	c := catalog.New("enrollment", "Benefits Enrollment", catalog.TopLevelOnly,
		catalog.Step("Profile", catalog.Step("Contact"), catalog.Step("Address")),
		catalog.Step("Dependents"),
		catalog.Step("Eligibility"),
		catalog.Step("Beneficiaries"),
		catalog.Step("Reimbursement"),
		catalog.Step("Review"),
	)
	o, err := catalog.Flatten(c)
	require.NoError(t, err)
	return o
}

func newEnrollment(t *testing.T, opts Options) *Controller {
	t.Helper()
	if opts.Predicates == nil {
		opts.Predicates = map[string]Predicate{
			"eligibility": All(Checked("certificationChecked"), Filled("coverageLevel")),
		}
	}
	c := New(enrollmentOrder(t), opts)
	c.Open()
	return c
}

// satisfy makes every gated step passable.
func satisfy(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.Edit("eligibility", "certificationChecked", true))
	require.NoError(t, c.Edit("eligibility", "coverageLevel", "family"))
}

func TestOpen_StartsAtFirstStep(t *testing.T) {
	c := New(enrollmentOrder(t), Options{})
	assert.Equal(t, PhaseClosed, c.Phase())
	assert.True(t, model.IsCode(c.GoNext(), model.ErrFlowClosed))

	c.Open()
	assert.Equal(t, PhaseActive, c.Phase())
	assert.Equal(t, "profile", c.CurrentStepID())
	assert.Equal(t, "review", c.Review())
	assert.False(t, c.InProgress())
}

func TestGoNextFiveTimesReachesReview(t *testing.T) {
	c := newEnrollment(t, Options{})
	satisfy(t, c)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.GoNext())
	}
	assert.Equal(t, "review", c.CurrentStepID())

	require.NoError(t, c.GoNext(), "last step is a no-op")
	assert.Equal(t, "review", c.CurrentStepID())
}

func TestGoNextThenGoBackRoundTrips(t *testing.T) {
	c := newEnrollment(t, Options{})
	satisfy(t, c)
	require.NoError(t, c.Edit("profile", "firstName", "Ada"))
	require.NoError(t, c.GoNext())

	for c.CurrentStepID() != "review" {
		start := c.CurrentStepID()
		before := c.AllData()

		require.NoError(t, c.GoNext())
		require.NoError(t, c.GoBack())

		assert.Equal(t, start, c.CurrentStepID())
		assert.Equal(t, before, c.AllData())
		require.NoError(t, c.GoNext())
	}
}

func TestGoNext_BlockedIsNoop(t *testing.T) {
	c := newEnrollment(t, Options{})
	require.NoError(t, c.GoNext())
	require.NoError(t, c.GoNext())
	require.Equal(t, "eligibility", c.CurrentStepID())

	require.NoError(t, c.Edit("eligibility", "certificationChecked", false))
	assert.False(t, c.CanAdvance("eligibility"))
	err := c.GoNext()
	assert.True(t, model.IsCode(err, model.ErrValidationBlocked))
	assert.Equal(t, "eligibility", c.CurrentStepID())
	assert.False(t, c.ActionBarConfig().Primary.Enabled)

	require.NoError(t, c.Edit("eligibility", "certificationChecked", true))
	require.NoError(t, c.Edit("eligibility", "coverageLevel", "family"))
	assert.True(t, c.ActionBarConfig().Primary.Enabled)
	require.NoError(t, c.GoNext())
	assert.Equal(t, "beneficiaries", c.CurrentStepID())
}

func TestGoNext_ValidatorDetails(t *testing.T) {
	c := newEnrollment(t, Options{
		Validators: map[string]Validator{
			"profile": func(d StepData) []model.FieldError {
				if d.GetString("ssn") == "" {
					return []model.FieldError{{Field: "ssn", Code: "required", Message: "SSN is required"}}
				}
				return nil
			},
		},
	})

	err := c.GoNext()
	fe, ok := model.AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrIncompleteRequiredField, fe.Code)
	require.Len(t, fe.Details, 1)
	assert.Equal(t, "ssn", fe.Details[0].Field)
	assert.Equal(t, "profile", c.CurrentStepID())

	require.NoError(t, c.Edit("profile", "ssn", "123-45-6789"))
	require.NoError(t, c.GoNext())
}

func TestGoBack_FirstStepNoop(t *testing.T) {
	c := newEnrollment(t, Options{})
	require.NoError(t, c.GoBack())
	assert.Equal(t, "profile", c.CurrentStepID())
	assert.False(t, c.ActionBarConfig().Secondary.Enabled)
}

func TestGoBack_NeverGated(t *testing.T) {
	c := newEnrollment(t, Options{})
	satisfy(t, c)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.GoNext())
	}
	require.NoError(t, c.Edit("eligibility", "certificationChecked", false))
	require.NoError(t, c.GoBack())
	assert.Equal(t, "eligibility", c.CurrentStepID())
	require.NoError(t, c.GoBack())
	assert.Equal(t, "dependents", c.CurrentStepID())
}

func TestJumpTo_FromReviewKeepsData(t *testing.T) {
	c := newEnrollment(t, Options{})
	satisfy(t, c)
	for i := 0; i < 5; i++ {
		require.NoError(t, c.GoNext())
	}
	require.NoError(t, c.Edit("review", "affirmation1", true))
	require.NoError(t, c.Edit("reimbursement", "method", "direct-deposit"))

	require.NoError(t, c.JumpTo("eligibility"))
	assert.Equal(t, "eligibility", c.CurrentStepID())
	assert.Equal(t, true, c.Data("review").Get("affirmation1"))
	assert.Equal(t, "direct-deposit", c.Data("reimbursement").GetString("method"))
	assert.Equal(t, "family", c.Data("eligibility").GetString("coverageLevel"))
}

func TestJumpTo_AnyDistance(t *testing.T) {
	for _, target := range []string{"profile", "dependents", "eligibility", "beneficiaries", "reimbursement", "review"} {
		t.Run(target, func(t *testing.T) {
			c := newEnrollment(t, Options{})
			satisfy(t, c)
			for i := 0; i < 5; i++ {
				require.NoError(t, c.GoNext())
			}
			require.NoError(t, c.JumpTo(target))
			assert.Equal(t, target, c.CurrentStepID())
		})
	}
}

func TestJumpTo_Rejections(t *testing.T) {
	c := newEnrollment(t, Options{})
	satisfy(t, c)
	require.NoError(t, c.GoNext())
	require.NoError(t, c.GoNext())

	err := c.JumpTo("profile")
	assert.True(t, model.IsCode(err, model.ErrJumpNotAllowed), "not on review and no rail navigation")

	assert.True(t, model.IsCode(c.JumpTo("contact"), model.ErrNotAddressable))
	assert.True(t, model.IsCode(c.JumpTo("nope"), model.ErrStepNotFound))
	assert.Equal(t, "eligibility", c.CurrentStepID())
}

func TestJumpTo_RailNavigation(t *testing.T) {
	c := newEnrollment(t, Options{RailNavigation: true})
	satisfy(t, c)
	require.NoError(t, c.GoNext())
	require.NoError(t, c.GoNext())

	require.NoError(t, c.JumpTo("profile"))
	assert.Equal(t, "profile", c.CurrentStepID())
	assert.True(t, model.IsCode(c.JumpTo("review"), model.ErrJumpNotAllowed), "rail only jumps backwards")
}

func TestJumpToRef_AddressableSubSteps(t *testing.T) {
	cat := catalog.New("dependents", "Dependents", catalog.AddressableSubSteps,
		catalog.Step("Dependent", catalog.Step("Personal"), catalog.Step("Coverage")),
		catalog.Step("Review"),
	)
	o, err := catalog.Flatten(cat)
	require.NoError(t, err)
	c := New(o, Options{})
	c.Open()
	for c.CurrentStepID() != "review" {
		require.NoError(t, c.GoNext())
	}

	ref, err := o.Ref("coverage")
	require.NoError(t, err)
	require.NoError(t, c.JumpToRef(ref))
	assert.Equal(t, "coverage", c.CurrentStepID())
}

func TestActionBarConfig(t *testing.T) {
	c := newEnrollment(t, Options{
		Predicates: map[string]Predicate{"review": Checked("a1", "a2", "a3")},
	})

	bar := c.ActionBarConfig()
	assert.Equal(t, Action{ID: ActionNext, Label: "Save & Continue", Enabled: true}, bar.Primary)
	assert.Equal(t, &Action{ID: ActionBack, Label: "Back", Enabled: false}, bar.Secondary)
	assert.Equal(t, &Action{ID: ActionCancel, Label: "Cancel", Enabled: true}, bar.Tertiary)
	assert.Len(t, bar.Actions(), 3)

	for c.CurrentStepID() != "review" {
		require.NoError(t, c.GoNext())
	}
	bar = c.ActionBarConfig()
	assert.Equal(t, ActionSubmit, bar.Primary.ID)
	assert.Equal(t, "Submit", bar.Primary.Label)
	assert.False(t, bar.Primary.Enabled)
	assert.True(t, bar.Secondary.Enabled)

	for _, k := range []string{"a1", "a2", "a3"} {
		require.NoError(t, c.Edit("review", k, true))
	}
	assert.True(t, c.ActionBarConfig().Primary.Enabled)

	require.NoError(t, c.Submit(context.Background()))
	bar = c.ActionBarConfig()
	assert.Equal(t, Action{ID: ActionHome, Label: "Go Home", Enabled: true}, bar.Primary)
	assert.Equal(t, &Action{ID: ActionPrint, Label: "Print", Enabled: true}, bar.Secondary)
	assert.Nil(t, bar.Tertiary)
	assert.Len(t, bar.Actions(), 2)
}

func TestActionBarConfig_CustomLabels(t *testing.T) {
	c := newEnrollment(t, Options{Labels: Labels{Next: "Continue"}})
	bar := c.ActionBarConfig()
	assert.Equal(t, "Continue", bar.Primary.Label)
	assert.Equal(t, "Cancel", bar.Tertiary.Label)
}

func TestSubmit_SuccessIsTerminal(t *testing.T) {
	rec := &notify.Recorder{}
	c := newEnrollment(t, Options{Notifier: rec, SuccessMessage: "Enrollment submitted"})
	satisfy(t, c)

	assert.True(t, model.IsCode(c.Submit(context.Background()), model.ErrJumpNotAllowed))

	for c.CurrentStepID() != "review" {
		require.NoError(t, c.GoNext())
	}
	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, PhaseSuccess, c.Phase())
	receipt, ok := c.Receipt()
	require.True(t, ok)
	assert.NotEmpty(t, receipt.Reference)

	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.KindSuccess, last.Kind)
	assert.Equal(t, "Enrollment submitted", last.Message)

	for _, err := range []error{c.GoNext(), c.GoBack(), c.JumpTo("profile"), c.Edit("profile", "x", 1), c.Submit(context.Background())} {
		assert.True(t, model.IsCode(err, model.ErrFlowTerminal))
	}
	assert.Equal(t, "review", c.CurrentStepID())
	assert.False(t, c.InProgress())

	p := c.Progress()
	for _, item := range p.Items {
		assert.Equal(t, catalog.StatusDone, item.Status)
	}
	assert.Equal(t, "Success", c.Body().Title)
}

func TestSubmit_FailureStaysOnReview(t *testing.T) {
	rec := &notify.Recorder{}
	failing := SubmitFunc(func(context.Context, Submission) (Receipt, error) {
		return Receipt{}, errors.New("backend unavailable")
	})
	c := newEnrollment(t, Options{Notifier: rec, Submitter: failing})
	satisfy(t, c)
	for c.CurrentStepID() != "review" {
		require.NoError(t, c.GoNext())
	}

	err := c.Submit(context.Background())
	assert.True(t, model.IsCode(err, model.ErrSubmitFailed))
	assert.Equal(t, PhaseActive, c.Phase())
	assert.Equal(t, "review", c.CurrentStepID())

	last, _ := rec.Last()
	assert.Equal(t, notify.KindError, last.Kind)
	assert.Equal(t, "backend unavailable", last.Description)
}

func TestSubmit_PassesAllData(t *testing.T) {
	var got Submission
	capture := SubmitFunc(func(_ context.Context, s Submission) (Receipt, error) {
		got = s
		return Receipt{ID: s.ID, Reference: "REF-1"}, nil
	})
	c := newEnrollment(t, Options{Submitter: capture, Notifier: notify.Discard{}})
	satisfy(t, c)
	require.NoError(t, c.Edit("profile", "firstName", "Ada"))
	for c.CurrentStepID() != "review" {
		require.NoError(t, c.GoNext())
	}
	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, "enrollment", got.FlowID)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Ada", got.Data["profile"].GetString("firstName"))
}

func TestClose_ResetsEverything(t *testing.T) {
	c := newEnrollment(t, Options{Initial: FlowData{"profile": {"firstName": "Seeded"}}})
	closed := 0
	c.OnClose(func() { closed++ })

	satisfy(t, c)
	require.NoError(t, c.Edit("profile", "firstName", "Ada"))
	for c.CurrentStepID() != "review" {
		require.NoError(t, c.GoNext())
	}
	require.NoError(t, c.Submit(context.Background()))

	c.Close()
	c.Close()
	assert.Equal(t, 1, closed)
	assert.Equal(t, PhaseClosed, c.Phase())

	c.Open()
	assert.Equal(t, "profile", c.CurrentStepID())
	assert.Equal(t, "Seeded", c.Data("profile").GetString("firstName"))
	assert.Empty(t, c.Data("eligibility"))
	_, ok := c.Receipt()
	assert.False(t, ok)
	assert.False(t, c.InProgress())
}

func TestClose_FromCancelMidFlow(t *testing.T) {
	c := newEnrollment(t, Options{})
	satisfy(t, c)
	require.NoError(t, c.GoNext())
	assert.True(t, c.InProgress())

	c.Close()
	c.Open()
	assert.Equal(t, "profile", c.CurrentStepID())
	assert.Empty(t, c.AllData())
}

func TestInProgress_EditsOnFirstStep(t *testing.T) {
	c := newEnrollment(t, Options{})
	assert.False(t, c.InProgress())
	require.NoError(t, c.Edit("profile", "firstName", "Ada"))
	assert.True(t, c.InProgress())
}

func TestInvoke(t *testing.T) {
	c := newEnrollment(t, Options{Notifier: notify.Discard{}})
	satisfy(t, c)
	ctx := context.Background()

	require.NoError(t, c.Invoke(ctx, ActionNext))
	assert.Equal(t, "dependents", c.CurrentStepID())
	require.NoError(t, c.Invoke(ctx, ActionBack))
	assert.Equal(t, "profile", c.CurrentStepID())
	assert.Error(t, c.Invoke(ctx, ActionCancel))

	for c.CurrentStepID() != "review" {
		require.NoError(t, c.Invoke(ctx, ActionNext))
	}
	require.NoError(t, c.Invoke(ctx, ActionSubmit))
	require.NoError(t, c.Invoke(ctx, ActionHome))
	assert.Equal(t, PhaseClosed, c.Phase())
}

func TestEdit_UnknownStep(t *testing.T) {
	c := newEnrollment(t, Options{})
	assert.True(t, model.IsCode(c.Edit("ghost", "k", "v"), model.ErrStepNotFound))
	assert.True(t, model.IsCode(c.Edit("address", "k", "v"), model.ErrNotAddressable))
}

func TestProgress(t *testing.T) {
	c := newEnrollment(t, Options{})
	p := c.Progress()
	assert.Equal(t, 1, p.Position)
	assert.Equal(t, 6, p.Total)
	require.Len(t, p.Breadcrumbs, 2)
	assert.Equal(t, "contact", p.Breadcrumbs[0].ID)

	require.NoError(t, c.GoNext())
	p = c.Progress()
	assert.Equal(t, catalog.StatusDone, p.Items[0].Status)
	assert.Equal(t, catalog.StatusCurrent, p.Items[1].Status)
	assert.Equal(t, catalog.StatusUpcoming, p.Items[2].Status)
}

func TestBody(t *testing.T) {
	c := newEnrollment(t, Options{
		Renderers: map[string]Renderer{"review": SummaryRenderer("Check your answers.")},
	})
	satisfy(t, c)
	require.NoError(t, c.Edit("profile", "firstName", "Ada"))

	b := c.Body()
	assert.Equal(t, "Profile", b.Title)
	assert.Contains(t, b.Markdown, "**firstName:** Ada")

	for c.CurrentStepID() != "review" {
		require.NoError(t, c.GoNext())
	}
	b = c.Body()
	assert.Equal(t, "review", b.StepID)
	assert.Contains(t, b.Markdown, "Check your answers.")
	assert.Contains(t, b.Markdown, "## Eligibility")
	assert.Contains(t, b.Markdown, "**coverageLevel:** family")
	assert.Contains(t, b.Markdown, "_Nothing entered._")
}

func TestStepData(t *testing.T) {
	d := StepData{"b": "true", "n": "42", "f": 3.0, "s": 7}
	assert.True(t, d.GetBool("b"))
	assert.False(t, d.GetBool("missing"))
	assert.Equal(t, 42, d.GetInt("n"))
	assert.Equal(t, 3, d.GetInt("f"))
	assert.Equal(t, "7", d.GetString("s"))
	assert.Equal(t, "", d.GetString("missing"))
	assert.Equal(t, []string{"b", "f", "n", "s"}, d.Keys())
}

func TestLocalSubmitter_ShortSubmissionID(t *testing.T) {
	for _, id := range []string{"", "s1", "0123456789abcdef"} {
		receipt, err := LocalSubmitter.Submit(context.Background(), Submission{ID: id, FlowID: "enrollment"})
		require.NoError(t, err)
		assert.Equal(t, id, receipt.ID)
		assert.Regexp(t, `^[0-9A-F]{8}$`, receipt.Reference)
		assert.False(t, receipt.SubmittedAt.IsZero())
	}
}
