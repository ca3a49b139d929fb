// Package forms validates posted form data against declarative per-field
// rule lists. Rules are evaluated in order; the first failing rule supplies
// the field's error message.
package forms

import (
	"crypto/subtle"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TokenField is the name of the hidden anti-forgery input every form carries.
const TokenField = "csrf_token"

var validate = validator.New()

// Rule checks one constraint on a field. Tag is a go-playground/validator
// expression evaluated against the raw value; "required" is special-cased to
// reject whitespace-only input. EqualTo, when set, compares against another
// field instead.
type Rule struct {
	Tag     string
	EqualTo string
	Message string
}

// Definition maps field names to their ordered rule lists. Fields with no
// rules are optional and listed only for documentation.
type Definition map[string][]Rule

// Validate checks the posted values against the definition and the session's
// anti-forgery token. A token mismatch appears in the error map under
// TokenField, same as any field error.
func (d Definition) Validate(values url.Values, csrfToken string) (bool, map[string]string) {
	errs := make(map[string]string)

	if !tokenMatches(values.Get(TokenField), csrfToken) {
		errs[TokenField] = "The form has expired. Please try again."
	}

	for field, rules := range d {
		value := values.Get(field)
		for _, rule := range rules {
			if !rule.check(value, values) {
				errs[field] = rule.Message
				break
			}
		}
	}

	return len(errs) == 0, errs
}

func (r Rule) check(value string, values url.Values) bool {
	switch {
	case r.EqualTo != "":
		return value == values.Get(r.EqualTo)
	case r.Tag == "required":
		return strings.TrimSpace(value) != ""
	default:
		return validate.Var(value, r.Tag) == nil
	}
}

func tokenMatches(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
