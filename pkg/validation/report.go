package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("validation failed")

// Issue is one problem found during validation.
type Issue struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Message
	}

	return i.Field + ": " + i.Message
}

// Report collects validation errors and warnings. Warnings never make a
// report invalid.
type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings,omitempty"`
}

func (r *Report) addError(field, rule, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) addWarning(field, rule, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Field: field, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) merge(other *Report) {
	if other == nil {
		return
	}

	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Valid reports whether no errors were found.
func (r *Report) Valid() bool {
	return r == nil || len(r.Errors) == 0
}

// Err returns the report as an error when it holds errors, or nil.
func (r *Report) Err() error {
	if r.Valid() {
		return nil
	}

	return r
}

func (r *Report) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, issue := range r.Errors {
		msgs[i] = issue.String()
	}

	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func (r *Report) Unwrap() error {
	return ErrInvalid
}

// HasRule reports whether any error or warning was raised by rule.
func (r *Report) HasRule(rule string) bool {
	for _, issue := range r.Errors {
		if issue.Rule == rule {
			return true
		}
	}

	for _, issue := range r.Warnings {
		if issue.Rule == rule {
			return true
		}
	}

	return false
}

// AsReport extracts a Report from err.
func AsReport(err error) (*Report, bool) {
	var report *Report
	if errors.As(err, &report) {
		return report, true
	}

	return nil, false
}
