package pluginmeta

import (
	goerrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jumppad-labs/pluginmeta/errors"
	"github.com/jumppad-labs/pluginmeta/logger"
	"github.com/stretchr/testify/require"
)

func setupParser(t *testing.T, options ...*ParserOptions) *Parser {
	o := DefaultOptions()
	if len(options) > 0 {
		o = options[0]
	}

	o.Logger = logger.NewTestLogger(t)

	return NewParser(o)
}

func configErrors(t *testing.T, err error) *errors.ConfigError {
	ce := &errors.ConfigError{}
	require.True(t, goerrors.As(err, &ce), "expected ConfigError, got %T", err)

	return ce
}

func TestNewParserWithNilOptionsUsesDefaults(t *testing.T) {
	p := NewParser(nil)

	require.Equal(t, GeneralSection, p.options.Section)
	require.NotNil(t, p.options.Logger)
}

func TestParseFileReadsExampleDescriptor(t *testing.T) {
	p := setupParser(t)

	m, err := p.ParseFile("test_fixtures/plugins/kystdatahuset_ais/metadata.txt")
	require.NoError(t, err)

	require.Equal(t, "kystdatahuset_ais", m.ID)
	require.Equal(t, "Kystdatahuset AIS fetcher", m.Name)
	require.Equal(t, "3.0", m.QgisMinimumVersion)
	require.Equal(t, "0.1", m.Version)
	require.Equal(t, "Kystverket", m.Author)
	require.Equal(t, "post@kystverket.no", m.Email)
	require.True(t, m.Experimental)
	require.False(t, m.Deprecated)
	require.False(t, m.HasProcessingProvider)
	require.False(t, m.Server)
	require.Equal(t, []string{"ais", "vessel", "maritime", "web"}, m.Tags)
	require.Equal(t, "Web", m.Category)
	require.Equal(t, "icon.png", m.Icon)
	require.Empty(t, m.Warnings)

	require.True(t, filepath.IsAbs(m.File))
	require.Equal(t, filepath.Dir(m.File), m.Dir)
	require.Equal(t, 7, m.Line(KeyName))
}

func TestParseJoinsContinuationLines(t *testing.T) {
	p := setupParser(t)

	m, err := p.ParseFile("test_fixtures/plugins/kystdatahuset_ais/metadata.txt")
	require.NoError(t, err)

	lines := strings.Split(m.About, "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Fetches AIS vessel positions and tracks from the Kystdatahuset", lines[0])
	require.Equal(t, "point layer.", lines[2])
}

func TestParseAcceptsColonSeparatorAndCaseInsensitiveKeys(t *testing.T) {
	p := setupParser(t, &ParserOptions{SkipValidation: true})

	m, err := p.ParseString("inline", "[general]\nNAME: Colon\nQGISMinimumVersion = 3.4\nExperimental=yes\n")
	require.NoError(t, err)

	require.Equal(t, "Colon", m.Name)
	require.Equal(t, "3.4", m.QgisMinimumVersion)
	require.True(t, m.Experimental)
}

func TestParseSkipsCommentsBOMAndCRLF(t *testing.T) {
	p := setupParser(t, &ParserOptions{SkipValidation: true})

	m, err := p.ParseString("inline", "\ufeff; comment\r\n[general]\r\n# another\r\nname=Windows\r\n")
	require.NoError(t, err)

	require.Equal(t, "Windows", m.Name)
}

func TestParseBlankLineEndsContinuation(t *testing.T) {
	p := setupParser(t, &ParserOptions{SkipValidation: true})

	_, err := p.ParseString("inline", "[general]\nabout=first\n\n  orphan\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not continue any key")

	p = setupParser(t, &ParserOptions{SkipValidation: true})
	m, err := p.ParseString("inline", "[general]\nabout=first\n  second\n")
	require.NoError(t, err)
	require.Equal(t, "first\nsecond", m.About)
}

func TestParseIndentedLineWithSeparatorAfterBlankLineReturnsError(t *testing.T) {
	p := setupParser(t, &ParserOptions{SkipValidation: true})

	src := "[general]\nabout=Line one\n\n  see web service: https://kystdatahuset.no\n"
	m, err := p.ParseString("inline", src)
	require.Error(t, err)
	require.Nil(t, m)

	ce := configErrors(t, err)
	require.Len(t, ce.Errors(), 1)

	pe := ce.Errors()[0].(*errors.ParserError)
	require.Equal(t, 4, pe.Line)
	require.Contains(t, pe.Message, "does not continue any key")
}

func TestParseAcceptsLongLines(t *testing.T) {
	p := setupParser(t, &ParserOptions{SkipValidation: true})

	about := strings.Repeat("a", 200*1024)
	m, err := p.ParseString("inline", "[general]\nname=Long\nabout="+about+"\n")
	require.NoError(t, err)
	require.Equal(t, about, m.About)
}

func TestParseLineOverLimitReturnsPositionedError(t *testing.T) {
	p := setupParser(t, &ParserOptions{SkipValidation: true})

	src := "[general]\nname=Long\nabout=" + strings.Repeat("a", MaxLineLength+1) + "\n"
	_, err := p.ParseString("inline", src)
	require.Error(t, err)

	ce := configErrors(t, err)
	require.Len(t, ce.Errors(), 1)

	pe := ce.Errors()[0].(*errors.ParserError)
	require.Equal(t, 3, pe.Line)
	require.Contains(t, pe.Message, "longer than")
}

func TestParseMissingGeneralSectionReturnsError(t *testing.T) {
	p := setupParser(t)

	m, err := p.ParseFile("test_fixtures/plugins/broken_plugin/metadata.txt")
	require.Error(t, err)
	require.Nil(t, m)
}

func TestParseDuplicateKeyReturnsPositionedError(t *testing.T) {
	p := setupParser(t)

	_, err := p.ParseFile("test_fixtures/descriptors/duplicate_key.txt")
	require.Error(t, err)

	ce := configErrors(t, err)
	require.Len(t, ce.Errors(), 1)

	pe := &errors.ParserError{}
	require.True(t, goerrors.As(ce.Errors()[0], &pe))
	require.Equal(t, 4, pe.Line)
	require.Equal(t, "Version", pe.Key)
	require.Contains(t, pe.Message, "already defined on line 3")
}

func TestParseBadLineReturnsError(t *testing.T) {
	p := setupParser(t)

	_, err := p.ParseFile("test_fixtures/descriptors/bad_line.txt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected key=value")
}

func TestParseReportsAllValidationErrors(t *testing.T) {
	p := setupParser(t)

	m, err := p.ParseFile("test_fixtures/descriptors/invalid_values.txt")
	require.Error(t, err)
	require.NotNil(t, m, "metadata is returned with validation errors")

	ce := configErrors(t, err)
	keys := []string{}
	for _, e := range ce.Errors() {
		pe := &errors.ParserError{}
		require.True(t, goerrors.As(e, &pe))
		keys = append(keys, pe.Key)
	}

	require.ElementsMatch(t, []string{KeyQgisMinimumVersion, KeyDescription, KeyEmail, KeyHomepage, KeyExperimental}, keys)
}

func TestParseKeepsUnknownKeysAsWarnings(t *testing.T) {
	p := setupParser(t)

	src := "[general]\nname=X\nqgisMinimumVersion=3.0\ndescription=d\nversion=1\nauthor=a\nemail=a@b.c\ntracker=https://a.b\nrepository=https://a.b\nsupportsQt6=True\n"

	m, err := p.ParseString("inline", src)
	require.NoError(t, err)

	require.Equal(t, "True", m.Extra["supportsQt6"])
	require.Len(t, m.Warnings, 1)
	require.Contains(t, m.Warnings[0].Error(), "supportsQt6")
}

func TestParseStrictTurnsWarningsIntoErrors(t *testing.T) {
	p := setupParser(t, &ParserOptions{Strict: true})

	m, err := p.ParseFile("test_fixtures/plugins/depends_on_ais/metadata.txt")
	require.Error(t, err)
	require.NotNil(t, m)

	ce := configErrors(t, err)
	require.False(t, ce.HasErrors())
	require.Len(t, ce.Warnings(), 2)
}

func TestParseWarnsAboutOtherSections(t *testing.T) {
	p := setupParser(t, &ParserOptions{SkipValidation: true})

	m, err := p.ParseString("inline", "[general]\nname=X\n[extra]\nfoo=bar\n")
	require.NoError(t, err)
	require.Len(t, m.Warnings, 1)
	require.Contains(t, m.Warnings[0].Error(), "[extra]")
}

func TestParseDuplicateSectionReturnsError(t *testing.T) {
	_, err := ParseDocument("inline", strings.NewReader("[general]\nname=a\n[general]\nversion=1\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "already defined on line 1")
}

func TestParseKeyBeforeSectionReturnsError(t *testing.T) {
	_, err := ParseDocument("inline", strings.NewReader("name=a\n[general]\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "before any section header")
}

func TestParseDocumentKeepsSectionsInOrder(t *testing.T) {
	doc, err := ParseDocument("inline", strings.NewReader("[general]\nname=a\n[other]\nkey=b\n"))
	require.NoError(t, err)

	require.Len(t, doc.Sections, 2)
	require.Equal(t, "other", doc.Sections[1].Name)

	prop, ok := doc.Section("other").Get("KEY")
	require.True(t, ok)
	require.Equal(t, "b", prop.Value)
	require.Equal(t, 4, prop.Line)
}

func TestParseReadsAlternativeSection(t *testing.T) {
	p := setupParser(t, &ParserOptions{Section: "plugin", SkipValidation: true})

	m, err := p.ParseString("inline", "[plugin]\nname=Alt\n")
	require.NoError(t, err)
	require.Equal(t, "Alt", m.Name)
}

func TestParsePluginDirectorySetsID(t *testing.T) {
	p := setupParser(t)

	m, err := p.ParsePluginDirectory("test_fixtures/plugins/depends_on_ais")
	require.NoError(t, err)

	require.Equal(t, "depends_on_ais", m.ID)
	require.Equal(t, []Dependency{{Name: "kystdatahuset_ais"}}, m.Dependencies)
	require.Len(t, m.Warnings, 2)
}
