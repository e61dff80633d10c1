// Package form holds the field-level checks and display helpers shared by
// flow steps: required fields, SSN and routing formats, date display.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/stepguard/internal/model"
)

var (
	ssnPattern     = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)
	routingPattern = regexp.MustCompile(`^\d{9}$`)
	digitsPattern  = regexp.MustCompile(`^\d+$`)
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "ssn", func(fl validator.FieldLevel) bool {
			return ssnPattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "routing", func(fl validator.FieldLevel) bool {
			return ValidRoutingNumber(fl.Field().String())
		})
		mustRegister(v, "digits", func(fl validator.FieldLevel) bool {
			return digitsPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ValidRoutingNumber checks a nine-digit ABA routing number and its checksum.
func ValidRoutingNumber(s string) bool {
	if !routingPattern.MatchString(s) {
		return false
	}
	weights := [3]int{3, 7, 1}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(s[i]-'0') * weights[i%3]
	}
	return sum%10 == 0
}

// Rules maps a field name to a validator tag string, e.g. "required,ssn".
type Rules map[string]string

// Validate checks data against the rules. Fields are reported in name order.
// Missing fields are validated as empty strings.
func (r Rules) Validate(data map[string]any) []model.FieldError {
	v := Validator()
	fields := make([]string, 0, len(r))
	for f := range r {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var out []model.FieldError
	for _, f := range fields {
		value, ok := data[f]
		if !ok || value == nil {
			value = ""
		}
		if err := v.Var(value, r[f]); err != nil {
			out = append(out, fieldErrors(f, err)...)
		}
	}
	return out
}

// Struct validates a tagged struct and reports failures by json name.
func Struct(s any) []model.FieldError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	return fieldErrors("", err)
}

// Check returns nil when there are no failures and an
// INCOMPLETE_REQUIRED_FIELD error carrying them otherwise.
func Check(details []model.FieldError) error {
	if len(details) == 0 {
		return nil
	}
	return model.NewIncompleteFieldsError(details)
}

func fieldErrors(field string, err error) []model.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []model.FieldError{{Field: field, Code: "invalid", Message: err.Error()}}
	}
	out := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := field
		if name == "" {
			name = fe.Field()
		}
		out = append(out, model.FieldError{Field: name, Code: fe.Tag(), Message: message(name, fe)})
	}
	return out
}

func message(field string, fe validator.FieldError) string {
	label := Humanize(field)
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "ssn":
		return label + " must be a valid SSN (###-##-####)"
	case "routing":
		return label + " must be a valid 9-digit routing number"
	case "digits":
		return label + " must contain digits only"
	case "email":
		return label + " must be a valid email address"
	case "len":
		return fmt.Sprintf("%s must be %s characters", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return label + " must be a date (YYYY-MM-DD)"
	case "eqfield":
		return fmt.Sprintf("%s must match %s", label, Humanize(fe.Param()))
	default:
		return fmt.Sprintf("%s is invalid (%s)", label, fe.Tag())
	}
}

var acronyms = map[string]string{"ssn": "SSN", "dob": "Date of birth", "zip": "ZIP code"}

// Humanize turns a camelCase or snake_case field name into a label:
// "routingNumber" becomes "Routing number".
func Humanize(field string) string {
	if a, ok := acronyms[strings.ToLower(field)]; ok {
		return a
	}
	var sb strings.Builder
	for i, r := range field {
		switch {
		case r == '_' || r == '-':
			sb.WriteRune(' ')
		case i > 0 && r >= 'A' && r <= 'Z':
			sb.WriteRune(' ')
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteRune(r)
		}
	}
	s := sb.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
