package pluginmeta

import (
	"bufio"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jumppad-labs/pluginmeta/errors"
	"github.com/jumppad-labs/pluginmeta/logger"
)

// Document is the raw content of a descriptor file, sections and their
// properties in file order
type Document struct {
	Filename string
	Sections []*Section
}

// Section is a [name] block
type Section struct {
	Name       string
	Line       int
	Properties []*Property
}

// Property is a single key=value pair, Value contains any continuation
// lines joined with a newline
type Property struct {
	Key   string
	Value string
	Line  int
}

// Section returns the section with the given name or nil
func (d *Document) Section(name string) *Section {
	for _, s := range d.Sections {
		if s.Name == name {
			return s
		}
	}

	return nil
}

// Get returns the property with the given key, keys are case insensitive
func (s *Section) Get(key string) (*Property, bool) {
	for _, p := range s.Properties {
		if strings.EqualFold(p.Key, key) {
			return p, true
		}
	}

	return nil, false
}

type ParserOptions struct {
	// Logger receives debug output from the parser, nil disables logging
	Logger logger.Logger
	// Strict turns validation warnings into errors
	Strict bool
	// SkipValidation returns the decoded metadata without validating it
	SkipValidation bool
	// Section holding the metadata, defaults to general
	Section string
}

// DefaultOptions returns ParserOptions that read the general section and
// validate the result
func DefaultOptions() *ParserOptions {
	return &ParserOptions{
		Logger:  logger.NopLogger{},
		Section: GeneralSection,
	}
}

// Parser reads plugin descriptors
type Parser struct {
	options ParserOptions
}

// NewParser creates a new parser with the given options
// if options are nil, default options are used
func NewParser(options *ParserOptions) *Parser {
	o := options
	if o == nil {
		o = DefaultOptions()
	}

	p := &Parser{options: *o}
	p.options.Logger = logger.OrNop(p.options.Logger)

	if p.options.Section == "" {
		p.options.Section = GeneralSection
	}

	return p
}

// ParseFile parses and validates the descriptor at path.
//
// When the file can not be parsed the returned metadata is nil. When it
// parses but fails validation both the metadata and an *errors.ConfigError
// are returned so callers can still report on the plugin.
func (p *Parser) ParseFile(path string) (*Metadata, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve path %s: %w", path, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("unable to open descriptor: %w", err)
	}
	defer f.Close()

	return p.ParseReader(abs, f)
}

// ParsePluginDirectory parses the metadata.txt in dir, the base name of dir
// becomes the plugin ID
func (p *Parser) ParsePluginDirectory(dir string) (*Metadata, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve path %s: %w", dir, err)
	}

	m, err := p.ParseFile(filepath.Join(abs, MetadataFile))
	if m != nil {
		m.ID = filepath.Base(abs)
		m.Dir = abs
	}

	return m, err
}

// ParseString parses a descriptor held in memory, name is used in errors
func (p *Parser) ParseString(name, src string) (*Metadata, error) {
	return p.ParseReader(name, strings.NewReader(src))
}

// ParseReader parses a descriptor from r, name is used in errors
func (p *Parser) ParseReader(name string, r io.Reader) (*Metadata, error) {
	p.options.Logger.Debug("Parsing descriptor", "file", name)

	doc, err := ParseDocument(name, r)
	if err != nil {
		return nil, err
	}

	section := doc.Section(p.options.Section)
	if section == nil {
		ce := errors.NewConfigError()
		ce.AppendParseError(errors.NewParserError(
			name, 1, 1, errors.ParserErrorLevelError,
			fmt.Sprintf("descriptor has no [%s] section", p.options.Section),
		))

		return nil, ce
	}

	m := decodeMetadata(section)
	if filepath.IsAbs(name) {
		m.File = name
		m.Dir = filepath.Dir(name)

		if filepath.Base(name) == MetadataFile {
			m.ID = filepath.Base(m.Dir)
		}
	}

	ce := errors.NewConfigError()
	for _, s := range doc.Sections {
		if s != section {
			ce.AppendValidationError(errors.NewParserError(
				name, s.Line, 1, errors.ParserErrorLevelWarning,
				fmt.Sprintf("section [%s] is ignored, only [%s] is read", s.Name, p.options.Section),
			))
		}
	}

	if !p.options.SkipValidation {
		ce.Merge(Validate(m))
	}

	return p.result(m, ce)
}

func (p *Parser) result(m *Metadata, ce *errors.ConfigError) (*Metadata, error) {
	m.Warnings = ce.Warnings()

	for _, w := range m.Warnings {
		p.options.Logger.Warn("Descriptor warning", "file", m.File, "warning", shortError(w))
	}

	if ce.HasErrors() || (p.options.Strict && !ce.Empty()) {
		return m, ce
	}

	return m, nil
}

// MaxLineLength is the longest single line a descriptor may contain
const MaxLineLength = 1024 * 1024

// ParseDocument reads the section and key/value structure of a descriptor
// without interpreting any values. All syntax errors in the file are
// collected and returned as an *errors.ConfigError.
func ParseDocument(name string, r io.Reader) (*Document, error) {
	doc := &Document{Filename: name}
	ce := errors.NewConfigError()

	var current *Section
	var last *Property

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		trimmed := strings.TrimSpace(line)

		// a blank line ends any multi line value
		if trimmed == "" {
			last = nil
			continue
		}

		if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
			continue
		}

		indented := line[0] == ' ' || line[0] == '\t'
		if indented {
			if last == nil {
				ce.AppendParseError(errors.NewParserError(
					name, lineNo, 1, errors.ParserErrorLevelError,
					"indented line does not continue any key, remove the blank line above it",
				))
				continue
			}

			last.Value += "\n" + trimmed
			continue
		}

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			last = nil

			sectionName := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			if sectionName == "" {
				ce.AppendParseError(errors.NewParserError(name, lineNo, 1, errors.ParserErrorLevelError, "section name can not be empty"))
				current = nil
				continue
			}

			if existing := doc.Section(sectionName); existing != nil {
				ce.AppendParseError(errors.NewParserError(
					name, lineNo, 1, errors.ParserErrorLevelError,
					fmt.Sprintf("section [%s] is already defined on line %d", sectionName, existing.Line),
				))
				current = existing
				continue
			}

			current = &Section{Name: sectionName, Line: lineNo}
			doc.Sections = append(doc.Sections, current)
			continue
		}

		idx := strings.IndexAny(trimmed, "=:")
		if idx < 0 {
			last = nil
			ce.AppendParseError(errors.NewParserError(
				name, lineNo, 1, errors.ParserErrorLevelError,
				fmt.Sprintf("expected key=value, found %q", trimmed),
			))
			continue
		}

		key := strings.TrimSpace(trimmed[:idx])
		value := strings.TrimSpace(trimmed[idx+1:])

		if key == "" {
			last = nil
			ce.AppendParseError(errors.NewParserError(name, lineNo, 1, errors.ParserErrorLevelError, "key can not be empty"))
			continue
		}

		if current == nil {
			last = nil
			ce.AppendParseError(errors.NewKeyError(
				name, lineNo, key, errors.ParserErrorLevelError,
				fmt.Sprintf("key %q is defined before any section header, add [%s] at the top of the file", key, GeneralSection),
			))
			continue
		}

		if existing, ok := current.Get(key); ok {
			last = nil
			ce.AppendParseError(errors.NewKeyError(
				name, lineNo, key, errors.ParserErrorLevelError,
				fmt.Sprintf("key %q is already defined on line %d", key, existing.Line),
			))
			continue
		}

		last = &Property{Key: key, Value: value, Line: lineNo}
		current.Properties = append(current.Properties, last)
	}

	if err := scanner.Err(); err != nil {
		if goerrors.Is(err, bufio.ErrTooLong) {
			ce.AppendParseError(errors.NewParserError(
				name, lineNo+1, 1, errors.ParserErrorLevelError,
				fmt.Sprintf("line is longer than %d bytes", MaxLineLength),
			))

			return nil, ce
		}

		return nil, fmt.Errorf("unable to read %s: %w", name, err)
	}

	if !ce.Empty() {
		return nil, ce
	}

	return doc, nil
}

// shortError flattens parser and config errors to single lines for logging
func shortError(err error) string {
	var ce *errors.ConfigError
	if goerrors.As(err, &ce) {
		lines := []string{}
		for _, e := range append(ce.Errors(), ce.Warnings()...) {
			lines = append(lines, shortError(e))
		}

		return strings.Join(lines, "; ")
	}

	var pe *errors.ParserError
	if goerrors.As(err, &pe) {
		return pe.Short()
	}

	return err.Error()
}
