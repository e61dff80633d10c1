package flows

import (
	"strings"

	"github.com/mark3labs/stepguard/internal/form"
	"github.com/mark3labs/stepguard/internal/model"
	"github.com/mark3labs/stepguard/internal/verify"
	"github.com/mark3labs/stepguard/internal/wizard"
)

// VerifiedKey is set on a verification step once its code is accepted.
const VerifiedKey = "verified"

// Flow ids.
const (
	Enrollment     = "enrollment"
	Dependents     = "dependents"
	Beneficiary    = "beneficiary"
	BankAccount    = "bankaccount"
	CardActivation = "cardactivation"
	Preferences    = "preferences"
)

var definitions = []func() *Flow{
	enrollment,
	dependents,
	beneficiary,
	bankAccount,
	cardActivation,
	preferences,
}

// Demo delivery targets offered by the verification dialog.
var destinations = map[verify.Method]string{
	verify.MethodText:  form.MaskPhone("5555554321"),
	verify.MethodEmail: form.MaskEmail("jordan@example.com"),
}

var relationships = []string{"spouse", "child", "parent", "other"}

func oneOf(values []string) string {
	return "oneof=" + strings.Join(values, " ")
}

func enrollment() *Flow {
	coverage := []string{"employee", "spouse", "family"}
	return &Flow{
		ID:      Enrollment,
		Summary: "Enroll in benefits: profile, dependents, eligibility, beneficiaries and reimbursement.",
		Kind:    KindWizard,
		Fields: map[string][]Field{
			"profile": {
				{Key: "firstName", Label: "First name", Kind: FieldText, Rules: "required"},
				{Key: "lastName", Label: "Last name", Kind: FieldText, Rules: "required"},
				{Key: "ssn", Label: "SSN", Kind: FieldText, Rules: "required,ssn", Placeholder: "###-##-####"},
				{Key: "dob", Label: "Date of birth", Kind: FieldDate, Rules: "required,datetime=2006-01-02", Placeholder: "YYYY-MM-DD"},
				{Key: "email", Label: "Email", Kind: FieldText, Rules: "required,email"},
				{Key: "phone", Label: "Phone", Kind: FieldText, Rules: "required,digits,len=10", Placeholder: "10 digits"},
			},
			"dependents": {
				{Key: "hasDependents", Label: "I have dependents to cover", Kind: FieldCheckbox},
				{Key: "dependentName", Label: "Dependent name", Kind: FieldText},
			},
			"eligibility": {
				{Key: "certificationChecked", Label: "I certify that I am eligible", Kind: FieldCheckbox},
				{Key: "coverageLevel", Label: "Coverage level", Kind: FieldSelect, Options: coverage},
			},
			"beneficiaries": {
				{Key: "beneficiaryName", Label: "Primary beneficiary", Kind: FieldText, Rules: "required"},
				{Key: "relationship", Label: "Relationship", Kind: FieldSelect, Options: relationships, Rules: "required," + oneOf(relationships)},
			},
			"reimbursement": {
				{Key: "routingNumber", Label: "Routing number", Kind: FieldText, Rules: "required,routing"},
				{Key: "accountNumber", Label: "Account number", Kind: FieldText, Rules: "required,digits,min=4,max=17"},
			},
			"review": {
				{Key: "affirmAccurate", Label: "The information above is accurate", Kind: FieldCheckbox},
				{Key: "affirmTerms", Label: "I accept the plan terms", Kind: FieldCheckbox},
				{Key: "affirmAuthorize", Label: "I authorize payroll deductions", Kind: FieldCheckbox},
			},
		},
		Predicates: map[string]wizard.Predicate{
			"eligibility": wizard.All(wizard.Checked("certificationChecked"), wizard.Filled("coverageLevel")),
			"review":      wizard.Checked("affirmAccurate", "affirmTerms", "affirmAuthorize"),
		},
		Checks: map[string]wizard.Validator{
			"dependents": func(d wizard.StepData) []model.FieldError {
				if d.GetBool("hasDependents") && d.GetString("dependentName") == "" {
					return []model.FieldError{{Field: "dependentName", Code: "required", Message: "Dependent name is required"}}
				}
				return nil
			},
		},
		Intros: map[string]string{
			"eligibility": "Confirm your eligibility and choose a coverage level.",
			"review":      "Review your answers. Select any step in the rail to change it.",
		},
		SuccessMessage: "Enrollment submitted",
	}
}

func dependents() *Flow {
	return &Flow{
		ID:      Dependents,
		Summary: "Add a dependent; the sub-steps are independently selectable.",
		Kind:    KindWizard,
		Fields: map[string][]Field{
			"personal-details": {
				{Key: "firstName", Label: "First name", Kind: FieldText, Rules: "required"},
				{Key: "lastName", Label: "Last name", Kind: FieldText, Rules: "required"},
				{Key: "dob", Label: "Date of birth", Kind: FieldDate, Rules: "required,datetime=2006-01-02", Placeholder: "YYYY-MM-DD"},
				{Key: "relationship", Label: "Relationship", Kind: FieldSelect, Options: []string{"spouse", "child"}, Rules: "required,oneof=spouse child"},
			},
			"coverage": {
				{Key: "plan", Label: "Plan", Kind: FieldSelect, Options: []string{"medical", "dental", "vision"}, Rules: "required,oneof=medical dental vision"},
				{Key: "effectiveDate", Label: "Effective date", Kind: FieldDate, Rules: "required,datetime=2006-01-02", Placeholder: "YYYY-MM-DD"},
			},
		},
		Intros: map[string]string{
			"dependent": "Tell us about the person you are adding.",
		},
		RailNavigation: true,
		SuccessMessage: "Dependent added",
	}
}

func beneficiary() *Flow {
	return &Flow{
		ID:      Beneficiary,
		Summary: "Add a beneficiary and allocate a share of the benefit.",
		Kind:    KindWizard,
		Fields: map[string][]Field{
			"beneficiary": {
				{Key: "fullName", Label: "Full name", Kind: FieldText, Rules: "required"},
				{Key: "relationship", Label: "Relationship", Kind: FieldSelect, Options: relationships, Rules: "required," + oneOf(relationships)},
				{Key: "ssn", Label: "SSN", Kind: FieldText, Rules: "required,ssn", Placeholder: "###-##-####"},
			},
			"allocation": {
				{Key: "percentage", Label: "Allocation (%)", Kind: FieldText, Rules: "required,digits"},
			},
			"review": {
				{Key: "confirmed", Label: "I confirm this beneficiary designation", Kind: FieldCheckbox},
			},
		},
		Predicates: map[string]wizard.Predicate{
			"review": wizard.Checked("confirmed"),
		},
		Checks: map[string]wizard.Validator{
			"allocation": func(d wizard.StepData) []model.FieldError {
				if d.GetString("percentage") == "" {
					return nil
				}
				if n := d.GetInt("percentage"); n < 1 || n > 100 {
					return []model.FieldError{{Field: "percentage", Code: "range", Message: "Allocation must be between 1 and 100"}}
				}
				return nil
			},
		},
		SuccessMessage: "Beneficiary added",
	}
}

func bankAccount() *Flow {
	return &Flow{
		ID:      BankAccount,
		Summary: "Add a bank account, confirming your identity with a one-time code.",
		Kind:    KindWizard,
		Fields: map[string][]Field{
			"account-details": {
				{Key: "accountHolder", Label: "Account holder", Kind: FieldText, Rules: "required"},
				{Key: "accountType", Label: "Account type", Kind: FieldSelect, Options: []string{"checking", "savings"}, Rules: "required,oneof=checking savings"},
				{Key: "routingNumber", Label: "Routing number", Kind: FieldText, Rules: "required,routing"},
				{Key: "accountNumber", Label: "Account number", Kind: FieldText, Rules: "required,digits,min=4,max=17"},
				{Key: "confirmAccountNumber", Label: "Confirm account number", Kind: FieldText, Rules: "required"},
			},
			"review": {
				{Key: "authorize", Label: "I authorize deposits to this account", Kind: FieldCheckbox},
			},
		},
		Verification: map[string]map[verify.Method]string{
			"authentication": destinations,
		},
		Predicates: map[string]wizard.Predicate{
			"review": wizard.Checked("authorize"),
		},
		Checks: map[string]wizard.Validator{
			"account-details": func(d wizard.StepData) []model.FieldError {
				confirm := d.GetString("confirmAccountNumber")
				if confirm != "" && confirm != d.GetString("accountNumber") {
					return []model.FieldError{{Field: "confirmAccountNumber", Code: "eqfield", Message: "Account numbers do not match"}}
				}
				return nil
			},
		},
		Intros: map[string]string{
			"authentication": "For your security, verify your identity before adding the account.",
		},
		SuccessMessage: "Bank account added",
	}
}

func cardActivation() *Flow {
	return &Flow{
		ID:      CardActivation,
		Summary: "Activate a debit card after verifying your identity.",
		Kind:    KindWizard,
		Fields: map[string][]Field{
			"card-details": {
				{Key: "last4", Label: "Last 4 digits of card", Kind: FieldText, Rules: "required,digits,len=4"},
				{Key: "expiration", Label: "Expiration (MM/YY)", Kind: FieldText, Rules: "required,len=5"},
			},
			"activate": {
				{Key: "pin", Label: "New PIN", Kind: FieldText, Rules: "required,digits,len=4"},
			},
		},
		Verification: map[string]map[verify.Method]string{
			"verify-identity": destinations,
		},
		Labels:         wizard.Labels{Submit: "Activate card"},
		SuccessMessage: "Card activated",
	}
}

func preferences() *Flow {
	return &Flow{
		ID:      Preferences,
		Summary: "Communication, security and statement preferences, one tab per section.",
		Kind:    KindTabs,
		Fields: map[string][]Field{
			"communication": {
				{Key: "emailUpdates", Label: "Email updates", Kind: FieldCheckbox},
				{Key: "smsAlerts", Label: "Text alerts", Kind: FieldCheckbox},
				{Key: "contactEmail", Label: "Contact email", Kind: FieldText, Rules: "omitempty,email"},
			},
			"security": {
				{Key: "twoFactor", Label: "Two-factor sign in", Kind: FieldCheckbox},
				{Key: "loginAlerts", Label: "Alert me on new sign ins", Kind: FieldCheckbox},
			},
			"statements": {
				{Key: "paperless", Label: "Paperless statements", Kind: FieldCheckbox},
				{Key: "frequency", Label: "Statement frequency", Kind: FieldSelect, Options: []string{"monthly", "quarterly"}, Rules: "required,oneof=monthly quarterly"},
			},
		},
		Defaults: wizard.FlowData{
			"communication": {"emailUpdates": true, "smsAlerts": false, "contactEmail": "jordan@example.com"},
			"security":      {"twoFactor": true, "loginAlerts": true},
			"statements":    {"paperless": false, "frequency": "monthly"},
		},
		SuccessMessage: "Preferences saved",
	}
}
