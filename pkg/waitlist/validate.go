package waitlist

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Minimum lengths of the free-text signup fields, in characters.
const (
	MinNameLength = 2
	MinCityLength = 2
)

// FieldError represents a validation error for a specific form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error of a submission.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

// Error returns a formatted string containing all validation errors.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "signup validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("signup validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("signup validation failed with %d errors:", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate checks a normalized signup request. It returns nil or a
// *ValidationError listing every failing field.
func Validate(req SignupRequest) error {
	var errs []FieldError

	if utf8.RuneCountInString(req.Name) < MinNameLength {
		errs = append(errs, FieldError{
			Field:   "name",
			Message: fmt.Sprintf("must be at least %d characters", MinNameLength),
		})
	}

	if !validEmail(req.Email) {
		errs = append(errs, FieldError{
			Field:   "email",
			Message: "must be a valid email address",
		})
	}

	if utf8.RuneCountInString(req.City) < MinCityLength {
		errs = append(errs, FieldError{
			Field:   "city",
			Message: fmt.Sprintf("must be at least %d characters", MinCityLength),
		})
	}

	if !BikeOwnership(req.BikeOwnership).Valid() {
		errs = append(errs, FieldError{
			Field:   "bike_ownership",
			Message: "must be one of yes, no, planning",
		})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// validEmail accepts a bare address with a dotted domain.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at < 1 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
