package errors

import (
	goerrors "errors"
	"strings"
)

// ConfigError defines the errors that were encountered while reading a
// plugin descriptor
type ConfigError struct {
	// ParseErrors is a list of errors that were encountered while reading the
	// descriptor from the text file
	ParseErrors []error

	// ValidationErrors is a list of problems found in the values of a
	// descriptor that parsed correctly, this includes warnings
	ValidationErrors []error
}

func NewConfigError() *ConfigError {
	return &ConfigError{
		ParseErrors:      []error{},
		ValidationErrors: []error{},
	}
}

// AppendParseError adds a new parse error to the list of errors
func (p *ConfigError) AppendParseError(err error) {
	p.ParseErrors = append(p.ParseErrors, err)
}

// AppendValidationError adds a new validation error to the list of errors
func (p *ConfigError) AppendValidationError(err error) {
	p.ValidationErrors = append(p.ValidationErrors, err)
}

// Merge appends all the errors of other to this error
func (p *ConfigError) Merge(other *ConfigError) {
	if other == nil {
		return
	}

	p.ParseErrors = append(p.ParseErrors, other.ParseErrors...)
	p.ValidationErrors = append(p.ValidationErrors, other.ValidationErrors...)
}

// Errors returns every error that is not a warning
func (p *ConfigError) Errors() []error {
	return p.filter(false)
}

// Warnings returns the errors with the warning level
func (p *ConfigError) Warnings() []error {
	return p.filter(true)
}

// HasErrors returns true when at least one error is not a warning
func (p *ConfigError) HasErrors() bool {
	return len(p.Errors()) > 0
}

// Empty returns true when no errors or warnings have been recorded
func (p *ConfigError) Empty() bool {
	return len(p.ParseErrors) == 0 && len(p.ValidationErrors) == 0
}

func (p *ConfigError) filter(warnings bool) []error {
	out := []error{}

	all := append([]error{}, p.ParseErrors...)
	all = append(all, p.ValidationErrors...)

	for _, e := range all {
		var pe *ParserError
		isWarning := goerrors.As(e, &pe) && pe.IsWarning()

		if isWarning == warnings {
			out = append(out, e)
		}
	}

	return out
}

// Error pretty prints the error message as a string
func (p *ConfigError) Error() string {
	err := strings.Builder{}

	for _, e := range p.ParseErrors {
		err.WriteString(e.Error() + "\n")
	}

	for _, e := range p.ValidationErrors {
		err.WriteString(e.Error() + "\n")
	}

	return strings.TrimSuffix(err.String(), "\n")
}
