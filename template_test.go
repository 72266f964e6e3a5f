package pluginmeta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderMetadataWritesMandatoryKeys(t *testing.T) {
	m := &Metadata{
		Name:               "Kystdatahuset AIS fetcher",
		QgisMinimumVersion: "3.0",
		Description:        "Fetch AIS data",
		Version:            "0.1",
		Author:             "Kystverket",
		Email:              "post@kystverket.no",
		Experimental:       true,
	}

	out, err := RenderMetadata(m)
	require.NoError(t, err)

	require.Contains(t, out, "[general]\n")
	require.Contains(t, out, "name=Kystdatahuset AIS fetcher\n")
	require.Contains(t, out, "qgisMinimumVersion=3.0\n")
	require.Contains(t, out, "experimental=True\n")
	require.Contains(t, out, "deprecated=False\n")
	require.NotContains(t, out, "qgisMaximumVersion")
	require.NotContains(t, out, "&amp;")
}

func TestRenderMetadataParsesBackToSameMetadata(t *testing.T) {
	p := NewParser(nil)

	orig, err := p.ParseFile("test_fixtures/plugins/kystdatahuset_ais/metadata.txt")
	require.NoError(t, err)

	out, err := RenderMetadata(orig)
	require.NoError(t, err)

	m, err := NewParser(&ParserOptions{SkipValidation: true}).ParseString("rendered", out)
	require.NoError(t, err)

	require.Equal(t, orig.Name, m.Name)
	require.Equal(t, orig.QgisMinimumVersion, m.QgisMinimumVersion)
	require.Equal(t, orig.About, m.About)
	require.Equal(t, orig.Tags, m.Tags)
	require.Equal(t, orig.Tracker, m.Tracker)
	require.Equal(t, orig.Category, m.Category)
	require.Equal(t, orig.Experimental, m.Experimental)
	require.Equal(t, orig.Deprecated, m.Deprecated)
	require.Equal(t, orig.HasProcessingProvider, m.HasProcessingProvider)
}

func TestRenderMetadataKeepsDependenciesAndExtraKeys(t *testing.T) {
	m := &Metadata{
		Name:               "AIS track styles",
		QgisMinimumVersion: "3.8",
		Description:        "Styles",
		Version:            "1.2.0",
		Author:             "Example Author",
		Email:              "author@example.com",
		Dependencies:       []Dependency{{Name: "kystdatahuset_ais", Version: "0.1"}, {Name: "QuickMapServices"}},
		Extra:              map[string]string{"supportsQt6": "True"},
	}

	out, err := RenderMetadata(m)
	require.NoError(t, err)

	parsed, err := NewParser(&ParserOptions{SkipValidation: true}).ParseString("rendered", out)
	require.NoError(t, err)

	require.Equal(t, m.Dependencies, parsed.Dependencies)
	require.Equal(t, "True", parsed.Extra["supportsQt6"])
}

func TestRenderMetadataDropsBlankLinesFromMultiLineValues(t *testing.T) {
	m := &Metadata{
		Name:               "Kystdatahuset AIS fetcher",
		QgisMinimumVersion: "3.0",
		Description:        "Fetch AIS data",
		Version:            "0.1",
		Author:             "Kystverket",
		Email:              "post@kystverket.no",
		About:              "First paragraph.\n\nSecond paragraph: see https://kystdatahuset.no\n",
		Changelog:          "0.2\n   \n0.1 first release",
	}

	out, err := RenderMetadata(m)
	require.NoError(t, err)
	require.Contains(t, out, "about=First paragraph.\n  Second paragraph: see https://kystdatahuset.no\n")

	back, err := NewParser(&ParserOptions{SkipValidation: true}).ParseString("rendered", out)
	require.NoError(t, err)

	require.Equal(t, "First paragraph.\nSecond paragraph: see https://kystdatahuset.no", back.About)
	require.Equal(t, "0.2\n0.1 first release", back.Changelog)
	require.Empty(t, back.Extra)
}
