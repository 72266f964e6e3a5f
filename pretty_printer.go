package pluginmeta

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"
)

// PrintFormat represents different output formats for the pretty printer
type PrintFormat string

const (
	FormatTable PrintFormat = "table"
	FormatCard  PrintFormat = "card"
	FormatJSON  PrintFormat = "json"
)

// ParsePrintFormat converts a command line value to a PrintFormat
func ParsePrintFormat(s string) (PrintFormat, error) {
	switch f := PrintFormat(strings.ToLower(s)); f {
	case FormatTable, FormatCard, FormatJSON:
		return f, nil
	}

	return "", fmt.Errorf("unsupported format %q, expected table, card or json", s)
}

// PrinterOptions configures the MetadataPrinter behavior
type PrinterOptions struct {
	// Output writer (defaults to os.Stdout)
	Writer io.Writer
	// Enable/disable color output (auto-detected by default)
	ColorEnabled *bool
	// Maximum width for text wrapping
	MaxWidth int
	// Show all fields including empty ones
	ShowEmpty bool
}

// PrinterOption is a functional option for configuring the printer
type PrinterOption func(*PrinterOptions)

// WithWriter sets the output writer
func WithWriter(w io.Writer) PrinterOption {
	return func(o *PrinterOptions) {
		o.Writer = w
	}
}

// WithColor enables or disables color output
func WithColor(enabled bool) PrinterOption {
	return func(o *PrinterOptions) {
		o.ColorEnabled = &enabled
	}
}

// WithMaxWidth sets the maximum width for text wrapping
func WithMaxWidth(width int) PrinterOption {
	return func(o *PrinterOptions) {
		o.MaxWidth = width
	}
}

// WithShowEmpty shows all fields including empty ones
func WithShowEmpty(show bool) PrinterOption {
	return func(o *PrinterOptions) {
		o.ShowEmpty = show
	}
}

// MetadataPrinter prints descriptors and registry entries
type MetadataPrinter struct {
	options PrinterOptions
	colors  struct {
		ok     color.Attribute
		warn   color.Attribute
		failed color.Attribute
		muted  color.Attribute
		header color.Attribute
		field  color.Attribute
		value  color.Attribute
	}
}

type field struct {
	name  string
	value string
}

// NewMetadataPrinter creates a new MetadataPrinter with the given options
func NewMetadataPrinter(opts ...PrinterOption) *MetadataPrinter {
	options := PrinterOptions{
		Writer:   os.Stdout,
		MaxWidth: 80,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.ColorEnabled == nil {
		enabled := !color.NoColor
		options.ColorEnabled = &enabled
	}

	if options.MaxWidth < 40 {
		options.MaxWidth = 40
	}

	p := &MetadataPrinter{options: options}
	p.colors.ok = color.FgGreen
	p.colors.warn = color.FgYellow
	p.colors.failed = color.FgRed
	p.colors.muted = color.Faint
	p.colors.header = color.FgCyan
	p.colors.field = color.FgBlue
	p.colors.value = color.FgWhite

	return p
}

// PrintMetadata prints a single descriptor in the specified format
func (p *MetadataPrinter) PrintMetadata(m *Metadata, format PrintFormat) error {
	return p.print(m, m, "", "", format)
}

// PrintPlugin prints a registry entry, the descriptor plus its status
func (p *MetadataPrinter) PrintPlugin(rp *RegisteredPlugin, format PrintFormat) error {
	return p.print(rp, rp.Metadata, rp.Status, rp.Reason, format)
}

// PrintPlugins prints a list of registry entries, the table format prints
// one row per plugin
func (p *MetadataPrinter) PrintPlugins(plugins []*RegisteredPlugin, format PrintFormat) error {
	switch format {
	case FormatTable:
		return p.printList(plugins)
	case FormatJSON:
		return p.printJSON(plugins)
	}

	for i, rp := range plugins {
		if i > 0 {
			fmt.Fprintln(p.options.Writer)
		}

		if err := p.PrintPlugin(rp, format); err != nil {
			return err
		}
	}

	return nil
}

func (p *MetadataPrinter) print(v any, m *Metadata, status Status, reason string, format PrintFormat) error {
	switch format {
	case FormatTable:
		return p.printTable(m, status, reason)
	case FormatCard:
		return p.printCard(m, status, reason)
	case FormatJSON:
		return p.printJSON(v)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// paint colours s when colour output is enabled
func (p *MetadataPrinter) paint(attr color.Attribute, s string) string {
	if !*p.options.ColorEnabled || s == "" {
		return s
	}

	c := color.New(attr)
	c.EnableColor()

	return c.Sprint(s)
}

func (p *MetadataPrinter) statusColor(s Status) color.Attribute {
	switch s {
	case StatusAvailable:
		return p.colors.ok
	case StatusExperimental, StatusDeprecated:
		return p.colors.warn
	case StatusIncompatible, StatusMissingDependency:
		return p.colors.failed
	case StatusDisabled:
		return p.colors.muted
	default:
		return p.colors.value
	}
}

func (p *MetadataPrinter) fields(m *Metadata, status Status, reason string) []field {
	maxVersion, _ := m.MaximumVersion()

	deps := []string{}
	for _, d := range m.Dependencies {
		deps = append(deps, d.String())
	}

	all := []field{
		{"ID", m.ID},
		{"Version", m.Version},
		{"Status", string(status)},
		{"Reason", reason},
		{"QGIS", fmt.Sprintf("%s - %s", m.QgisMinimumVersion, maxVersion)},
		{"Author", fmt.Sprintf("%s <%s>", m.Author, m.Email)},
		{"Description", m.Description},
		{"About", m.About},
		{"Category", m.Category},
		{"Menu", MenuFor(m.Category)},
		{"Tags", strings.Join(m.Tags, ", ")},
		{"Homepage", m.Homepage},
		{"Tracker", m.Tracker},
		{"Repository", m.Repository},
		{"Dependencies", strings.Join(deps, ", ")},
		{"Experimental", FormatBool(m.Experimental)},
		{"Deprecated", FormatBool(m.Deprecated)},
		{"Processing", FormatBool(m.HasProcessingProvider)},
		{"Server", FormatBool(m.Server)},
		{"File", m.File},
	}

	out := []field{}
	for _, f := range all {
		if f.value == "" && !p.options.ShowEmpty {
			continue
		}

		out = append(out, f)
	}

	return out
}

// visualLength returns the visual length of a string, excluding ANSI escape codes
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visualLength(s string) int {
	return len([]rune(ansiRegex.ReplaceAllString(s, "")))
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}

	if max < 4 {
		return string(r[:max])
	}

	return string(r[:max-3]) + "..."
}

// boxLine writes "│ content │" padded to the table width
func (p *MetadataPrinter) boxLine(content string) {
	width := p.options.MaxWidth

	padding := width - visualLength(content) - 4
	if padding < 0 {
		padding = 0
	}

	fmt.Fprintf(p.options.Writer, "│ %s%s │\n", content, strings.Repeat(" ", padding))
}

// printTable prints a descriptor in table format with borders
func (p *MetadataPrinter) printTable(m *Metadata, status Status, reason string) error {
	width := p.options.MaxWidth

	header := truncate(fmt.Sprintf("Plugin: %s", m.Name), width-4)

	fmt.Fprintf(p.options.Writer, "┌%s┐\n", strings.Repeat("─", width-2))
	p.boxLine(p.paint(p.colors.header, header))
	fmt.Fprintf(p.options.Writer, "├%s┤\n", strings.Repeat("─", width-2))

	fields := p.fields(m, status, reason)

	labelWidth := 0
	for _, f := range fields {
		if len(f.name) > labelWidth {
			labelWidth = len(f.name)
		}
	}

	// "│ " + label + ": " + value + " │"
	valueWidth := width - labelWidth - 6

	for _, f := range fields {
		label := fmt.Sprintf("%-*s", labelWidth+1, f.name+":")
		wrapped := wordwrap.WrapString(f.value, uint(valueWidth))

		for i, line := range strings.Split(wrapped, "\n") {
			line = truncate(line, valueWidth)

			attr := p.colors.value
			if f.name == "Status" {
				attr = p.statusColor(status)
			}

			if i == 0 {
				p.boxLine(p.paint(p.colors.field, label) + " " + p.paint(attr, line))
				continue
			}

			p.boxLine(strings.Repeat(" ", labelWidth+2) + p.paint(attr, line))
		}
	}

	fmt.Fprintf(p.options.Writer, "└%s┘\n", strings.Repeat("─", width-2))

	return nil
}

// printCard prints a descriptor as a heading followed by an indented list
func (p *MetadataPrinter) printCard(m *Metadata, status Status, reason string) error {
	title := p.paint(p.colors.header, m.Name)
	if m.Version != "" {
		title += " " + m.Version
	}

	if status != "" {
		title += " " + p.paint(p.statusColor(status), fmt.Sprintf("(%s)", status))
	}

	fmt.Fprintln(p.options.Writer, title)

	fields := p.fields(m, status, reason)
	for i, f := range fields {
		if f.name == "Status" || f.name == "Version" {
			continue
		}

		prefix := "├── "
		indent := "│   "
		if i == len(fields)-1 {
			prefix = "└── "
			indent = "    "
		}

		wrapped := wordwrap.WrapString(f.value, uint(p.options.MaxWidth-len(f.name)-6))
		lines := strings.Split(wrapped, "\n")

		fmt.Fprintf(p.options.Writer, "%s%s: %s\n", prefix, p.paint(p.colors.field, f.name), p.paint(p.colors.value, lines[0]))
		for _, l := range lines[1:] {
			fmt.Fprintf(p.options.Writer, "%s%s%s\n", indent, strings.Repeat(" ", len(f.name)+2), p.paint(p.colors.value, l))
		}
	}

	return nil
}

// printList prints one row per plugin
func (p *MetadataPrinter) printList(plugins []*RegisteredPlugin) error {
	idWidth, verWidth, statusWidth := len("ID"), len("VERSION"), len("STATUS")
	for _, rp := range plugins {
		idWidth = max(idWidth, len(rp.ID()))
		verWidth = max(verWidth, len(rp.Metadata.Version))
		statusWidth = max(statusWidth, len(rp.Status))
	}

	nameWidth := p.options.MaxWidth - idWidth - verWidth - statusWidth - 6
	if nameWidth < 10 {
		nameWidth = 10
	}

	fmt.Fprintf(p.options.Writer, "%s  %s  %s  %s\n",
		p.paint(p.colors.header, fmt.Sprintf("%-*s", idWidth, "ID")),
		p.paint(p.colors.header, fmt.Sprintf("%-*s", verWidth, "VERSION")),
		p.paint(p.colors.header, fmt.Sprintf("%-*s", statusWidth, "STATUS")),
		p.paint(p.colors.header, "NAME"))

	for _, rp := range plugins {
		fmt.Fprintf(p.options.Writer, "%-*s  %-*s  %s  %s\n",
			idWidth, rp.ID(),
			verWidth, rp.Metadata.Version,
			p.paint(p.statusColor(rp.Status), fmt.Sprintf("%-*s", statusWidth, rp.Status)),
			truncate(rp.Metadata.Name, nameWidth))
	}

	return nil
}

// printJSON prints v as indented JSON with basic syntax highlighting
func (p *MetadataPrinter) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}

	out := string(data)
	if *p.options.ColorEnabled {
		out = p.highlightJSON(out)
	}

	fmt.Fprintln(p.options.Writer, out)

	return nil
}

// highlightJSON colours keys and string values
func (p *MetadataPrinter) highlightJSON(jsonStr string) string {
	lines := strings.Split(jsonStr, "\n")
	for i, line := range lines {
		parts := strings.SplitN(line, "\": ", 2)
		if len(parts) != 2 {
			continue
		}

		valuePart := parts[1]
		if strings.HasPrefix(valuePart, "\"") {
			valuePart = p.paint(p.colors.value, valuePart)
		}

		lines[i] = p.paint(p.colors.field, parts[0]+"\"") + ": " + valuePart
	}

	return strings.Join(lines, "\n")
}
