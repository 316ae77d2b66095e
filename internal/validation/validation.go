// Package validation holds the single set of field rules for account input.
// All checks are pure: they never touch storage or the network.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/fxkeeper/internal/config"
	"github.com/go-playground/validator/v10"
)

const (
	NameMinLength = 2
	NameMaxLength = 100
)

// Field names reported in FieldError.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldCredential = "credential"
)

// Validator checks account fields against fixed name/email rules and a
// configurable credential policy.
type Validator struct {
	v              *validator.Validate
	credentialTags string
}

// New builds a Validator for the given credential policy.
func New(policy config.CredentialPolicy) *Validator {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("hasupper", hasRune(unicode.IsUpper))
	_ = v.RegisterValidation("haslower", hasRune(unicode.IsLower))
	_ = v.RegisterValidation("hasdigit", hasRune(unicode.IsDigit))
	_ = v.RegisterValidation("hassymbol", hasRune(func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}))

	return &Validator{v: v, credentialTags: credentialTags(policy)}
}

func hasRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

func credentialTags(p config.CredentialPolicy) string {
	tags := []string{"required", "notblank"}
	if p.MinLength > 0 {
		tags = append(tags, fmt.Sprintf("min=%d", p.MinLength))
	}
	if p.MaxLength > 0 {
		tags = append(tags, fmt.Sprintf("max=%d", p.MaxLength))
	}
	if p.RequireUpper {
		tags = append(tags, "hasupper")
	}
	if p.RequireLower {
		tags = append(tags, "haslower")
	}
	if p.RequireDigit {
		tags = append(tags, "hasdigit")
	}
	if p.RequireSymbol {
		tags = append(tags, "hassymbol")
	}
	return strings.Join(tags, ",")
}

// ValidateName accepts a name of 2 to 100 characters after trimming.
func (v *Validator) ValidateName(name string) error {
	tags := fmt.Sprintf("required,min=%d,max=%d", NameMinLength, NameMaxLength)
	return v.check(FieldName, strings.TrimSpace(name), tags)
}

// ValidateEmail accepts a syntactically valid user@domain address.
func (v *Validator) ValidateEmail(email string) error {
	return v.check(FieldEmail, strings.TrimSpace(email), "required,email")
}

// ValidateCredential applies the configured credential policy.
func (v *Validator) ValidateCredential(credential string) error {
	return v.check(FieldCredential, credential, v.credentialTags)
}

// RequireCredential only checks that credential is not blank. Login uses it
// so that accounts created under an older policy can still sign in.
func (v *Validator) RequireCredential(credential string) error {
	return v.check(FieldCredential, credential, "required,notblank")
}

// ValidateAccount checks all three fields and reports every failure at once.
func (v *Validator) ValidateAccount(name, email, credential string) error {
	return Join(v.ValidateName(name), v.ValidateEmail(email), v.ValidateCredential(credential))
}

// check runs the tags and reports only the first failing rule per field.
func (v *Validator) check(field, value, tags string) error {
	err := v.v.Var(value, tags)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &Error{fields: []FieldError{{Field: field, Message: fieldMessage(field, ve[0])}}}
	}
	return err
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "hasupper":
		return field + " must contain an uppercase letter"
	case "haslower":
		return field + " must contain a lowercase letter"
	case "hasdigit":
		return field + " must contain a digit"
	case "hassymbol":
		return field + " must contain a symbol"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
