package errors

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/mitchellh/go-wordwrap"
)

const ParserErrorLevelError = "error"
const ParserErrorLevelWarning = "warning"

// ParserError is a detailed error that is returned from the parser and the
// validator, it points at the line in the descriptor that caused it
type ParserError struct {
	Filename string
	Line     int
	Column   int
	// Key is the descriptor key the error relates to, empty for syntax errors
	Key     string
	Details string
	Message string
	Level   string
}

// Error pretty prints the error message as a string
func (p *ParserError) Error() string {
	err := strings.Builder{}

	if p.IsWarning() {
		err.WriteString("Warning:\n")
	} else {
		err.WriteString("Error:\n")
	}

	errLines := strings.Split(wordwrap.WrapString(p.Message, 80), "\n")
	for _, l := range errLines {
		err.WriteString("  " + l + "\n")
	}

	if p.Filename == "" {
		return err.String()
	}

	err.WriteString("\n")
	err.WriteString("  " + fmt.Sprintf("%s:%d,%d\n", p.Filename, p.Line, p.Column))

	// in memory sources have no file to excerpt
	file, readErr := os.ReadFile(p.Filename)
	if readErr != nil || p.Line < 1 {
		return err.String()
	}

	lines := strings.Split(string(file), "\n")

	startLine := p.Line - 3
	if startLine < 0 {
		startLine = 0
	}

	endLine := p.Line + 2
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	for i := startLine; i < endLine; i++ {
		codeline := wordwrap.WrapString(lines[i], 70)
		codelines := strings.Split(codeline, "\n")

		if i == p.Line-1 {
			err.WriteString(fmt.Sprintf("\033[1m  %5d | %s\033[0m\n", i+1, codelines[0]))
		} else {
			err.WriteString(fmt.Sprintf("\033[2m  %5d | %s\033[0m\n", i+1, codelines[0]))
		}

		for _, l := range codelines[1:] {
			if i == p.Line-1 {
				err.WriteString(fmt.Sprintf("\033[1m        : %s\033[0m\n", l))
			} else {
				err.WriteString(fmt.Sprintf("\033[2m        : %s\033[0m\n", l))
			}
		}
	}

	return err.String()
}

// Short returns a single line form of the error, file:line: level: message
func (p *ParserError) Short() string {
	level := p.Level
	if level == "" {
		level = ParserErrorLevelError
	}

	if p.Filename == "" {
		return fmt.Sprintf("%s: %s", level, p.Message)
	}

	return fmt.Sprintf("%s:%d: %s: %s", p.Filename, p.Line, level, p.Message)
}

// IsWarning returns true when the error does not prevent the descriptor
// from being used
func (p *ParserError) IsWarning() bool {
	return p.Level == ParserErrorLevelWarning
}

// NewParserError creates a new ParserError with basic parameters
func NewParserError(filename string, line, column int, level, message string) *ParserError {
	return &ParserError{
		Filename: filename,
		Line:     line,
		Column:   column,
		Level:    level,
		Message:  message,
	}
}

// NewKeyError creates a ParserError for the given descriptor key
func NewKeyError(filename string, line int, key, level, message string) *ParserError {
	return &ParserError{
		Filename: filename,
		Line:     line,
		Column:   1,
		Key:      key,
		Level:    level,
		Message:  message,
	}
}

// NewParserErrorFromHCLDiag creates a ParserError from HCL diagnostics
func NewParserErrorFromHCLDiag(diag *hcl.Diagnostic, filename string) *ParserError {
	line := 0
	column := 0
	if diag.Subject != nil {
		line = diag.Subject.Start.Line
		column = diag.Subject.Start.Column
		if diag.Subject.Filename != "" {
			filename = diag.Subject.Filename
		}
	}

	level := ParserErrorLevelError
	if diag.Severity == hcl.DiagWarning {
		level = ParserErrorLevelWarning
	}

	return &ParserError{
		Filename: filename,
		Line:     line,
		Column:   column,
		Level:    level,
		Details:  diag.Summary,
		Message:  fmt.Sprintf("unable to parse file: %s", diag.Detail),
	}
}
