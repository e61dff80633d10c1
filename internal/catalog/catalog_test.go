package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/mark3labs/stepguard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrollmentCatalog() *Catalog {
	return New("enrollment", "Enrollment", TopLevelOnly,
		Step("Profile"),
		Step("Dependents"),
		Step("Eligibility", Step("Coverage Level"), Step("Certification")),
		Step("Beneficiaries"),
		Step("Reimbursement"),
		Step("Review"),
	)
}

func profileCatalog() *Catalog {
	return New("profile", "Profile", AddressableSubSteps,
		Step("Personal Info"),
		Step("Dependents", Step("Add Dependent"), Step("Edit Dependent")),
		Step("Beneficiaries", Step("Primary"), Step("Contingent")),
	).WithReview("")
}

func TestStep_DerivesIDFromLabel(t *testing.T) {
	s := Step("Communication Preferences")
	assert.Equal(t, "communication-preferences", s.ID)
	assert.Equal(t, "Communication Preferences", s.Label)
}

func TestNew_DefaultsReviewToLastStep(t *testing.T) {
	c := enrollmentCatalog()
	assert.Equal(t, "review", c.Review)
}

func TestFlatten_TopLevelOnly(t *testing.T) {
	o, err := Flatten(enrollmentCatalog())
	require.NoError(t, err)

	assert.Equal(t, []string{"profile", "dependents", "eligibility", "beneficiaries", "reimbursement", "review"}, o.IDs())
	assert.Equal(t, TopLevelOnly, o.Policy())

	crumbs := o.Breadcrumbs("eligibility")
	require.Len(t, crumbs, 2)
	assert.Equal(t, "coverage-level", crumbs[0].ID)
	assert.Equal(t, "eligibility", crumbs[0].Parent)
}

func TestFlatten_AddressableSubSteps(t *testing.T) {
	o, err := Flatten(profileCatalog())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"personal-info",
		"dependents", "add-dependent", "edit-dependent",
		"beneficiaries", "primary", "contingent",
	}, o.IDs())

	ref, err := o.Ref("add-dependent")
	require.NoError(t, err)
	sub, ok := ref.(AddressableSubStep)
	require.True(t, ok, "sub-step should resolve to AddressableSubStep, got %T", ref)
	assert.Equal(t, "dependents", sub.Parent())
	assert.Equal(t, 1, sub.Depth())
	assert.Empty(t, o.Breadcrumbs("dependents"))
}

func TestOrder_RefRejectsBreadcrumb(t *testing.T) {
	o, err := Flatten(enrollmentCatalog())
	require.NoError(t, err)

	_, err = o.Ref("coverage-level")
	assert.True(t, model.IsCode(err, model.ErrNotAddressable), "got %v", err)

	_, err = o.Ref("nowhere")
	assert.True(t, model.IsCode(err, model.ErrStepNotFound), "got %v", err)

	ref, err := o.Ref("eligibility")
	require.NoError(t, err)
	_, isTop := ref.(TopLevelStep)
	assert.True(t, isTop)
}

func TestOrder_NextPrev(t *testing.T) {
	o, err := Flatten(enrollmentCatalog())
	require.NoError(t, err)

	next, ok := o.Next("profile")
	require.True(t, ok)
	assert.Equal(t, "dependents", next.ID())

	_, ok = o.Next("review")
	assert.False(t, ok, "last step has no next")

	prev, ok := o.Prev("dependents")
	require.True(t, ok)
	assert.Equal(t, "profile", prev.ID())

	_, ok = o.Prev("profile")
	assert.False(t, ok, "first step has no previous")

	assert.Equal(t, "profile", o.First().ID())
	assert.Equal(t, "review", o.Last().ID())
	assert.Equal(t, 6, o.Len())
}

func TestOrder_Progress(t *testing.T) {
	o, err := Flatten(enrollmentCatalog())
	require.NoError(t, err)

	p := o.Progress("eligibility", false)
	assert.Equal(t, 3, p.Position)
	assert.Equal(t, 6, p.Total)
	assert.Equal(t, StatusDone, p.Items[1].Status)
	assert.Equal(t, StatusCurrent, p.Items[2].Status)
	assert.Equal(t, StatusUpcoming, p.Items[3].Status)
	assert.Len(t, p.Breadcrumbs, 2)

	done := o.Progress("review", true)
	for _, item := range done.Items {
		assert.Equal(t, StatusDone, item.Status, item.ID)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog *Catalog
		field   string
	}{
		{
			name:    "no steps",
			catalog: &Catalog{ID: "empty"},
			field:   "steps",
		},
		{
			name:    "duplicate across levels",
			catalog: New("dup", "Dup", TopLevelOnly, Step("Review"), Step("Other", Step("Review"))),
			field:   "steps[1].sub_steps[0].id",
		},
		{
			name:    "missing label",
			catalog: New("nolabel", "No Label", TopLevelOnly, StepWithID("a", "")),
			field:   "steps[0].label",
		},
		{
			name:    "review is a breadcrumb",
			catalog: New("crumb", "Crumb", TopLevelOnly, Step("A", Step("B"))).WithReview("b"),
			field:   "review",
		},
		{
			name:    "unknown review",
			catalog: New("missing", "Missing", TopLevelOnly, Step("A")).WithReview("zzz"),
			field:   "review",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.catalog)
			fe, ok := model.AsFlowError(err)
			require.True(t, ok, "expected FlowError, got %v", err)
			assert.Equal(t, model.ErrInvalidCatalog, fe.Code)

			var fields []string
			for _, d := range fe.Details {
				fields = append(fields, d.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_ReviewSubStepAllowedWhenAddressable(t *testing.T) {
	c := New("ok", "OK", AddressableSubSteps, Step("A", Step("B"))).WithReview("b")
	assert.NoError(t, Validate(c))
}

const bankAccountYAML = `
id: bank-account
title: Add Bank Account
policy: top_level_only
review: review
steps:
  - label: Account Details
    sub_steps:
      - label: Routing Number
      - label: Account Number
  - id: authentication
    label: Authentication
  - label: Review
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(bankAccountYAML))
	require.NoError(t, err)

	assert.Equal(t, "bank-account", c.ID)
	assert.Equal(t, TopLevelOnly, c.Policy)
	assert.Equal(t, "account-details", c.Steps[0].ID)
	assert.Equal(t, "routing-number", c.Steps[0].SubSteps[0].ID)
	assert.NotEmpty(t, c.Checksum)
	assert.Equal(t, "Authentication", c.Labels()["authentication"])
}

func TestParse_BadPolicy(t *testing.T) {
	_, err := Parse([]byte("id: x\npolicy: sideways\nsteps:\n  - label: A\n"))
	assert.ErrorContains(t, err, "unknown step policy")
}

func TestParse_RoundTripPolicy(t *testing.T) {
	data, err := Marshal(profileCatalog())
	require.NoError(t, err)
	assert.Contains(t, string(data), "policy: addressable_sub_steps")

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, AddressableSubSteps, back.Policy)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bankAccountYAML), 0644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, c.SourceFile)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"catalogs/bank.yaml":   {Data: []byte(bankAccountYAML)},
		"catalogs/card.yml":    {Data: []byte("id: card\ntitle: Card\nsteps:\n  - label: Verify\n")},
		"catalogs/readme.txt":  {Data: []byte("ignored")},
		"catalogs/nested/a.md": {Data: []byte("ignored")},
	}

	cs, err := LoadFS(fsys, "catalogs")
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "bank-account", cs[0].ID)
	assert.Equal(t, "card", cs[1].ID)
}

func TestLoadDir_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: bad\nsteps: []\n"), 0644))

	_, err := LoadDir(dir)
	assert.Error(t, err)
}
