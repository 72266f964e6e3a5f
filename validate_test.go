package pluginmeta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validMetadata() *Metadata {
	m, _ := NewParser(&ParserOptions{SkipValidation: true}).ParseString("inline", `[general]
name=Kystdatahuset AIS fetcher
qgisMinimumVersion=3.0
description=Fetch AIS data from Kystdatahuset
version=0.1
author=Kystverket
email=post@kystverket.no
tracker=https://github.com/kystverket/kystdatahuset-qgis/issues
repository=https://github.com/kystverket/kystdatahuset-qgis
`)

	return m
}

func TestValidateReturnsNilForValidMetadata(t *testing.T) {
	require.Nil(t, Validate(validMetadata()))
}

func TestValidateMissingMandatoryKeys(t *testing.T) {
	m, err := NewParser(&ParserOptions{SkipValidation: true}).ParseString("inline", "[general]\nname=Only a name\n")
	require.NoError(t, err)

	ce := Validate(m)
	require.NotNil(t, ce)
	require.Len(t, ce.Errors(), len(MandatoryKeys)-1)
}

func TestValidateMaximumLowerThanMinimum(t *testing.T) {
	m := validMetadata()
	m.QgisMaximumVersion = "2.18"

	ce := Validate(m)
	require.NotNil(t, ce)
	require.Contains(t, ce.Error(), "is lower than")
}

func TestValidateInvalidDependencyVersion(t *testing.T) {
	m := validMetadata()
	m.Dependencies = ParseDependencies("QuickMapServices==latest")

	ce := Validate(m)
	require.NotNil(t, ce)
	require.True(t, ce.HasErrors())
}

func TestValidateWarnsForMissingIcon(t *testing.T) {
	m := validMetadata()
	m.Dir = t.TempDir()
	m.Icon = "icon.png"

	ce := Validate(m)
	require.NotNil(t, ce)
	require.False(t, ce.HasErrors())
	require.Len(t, ce.Warnings(), 1)
}

func TestValidateURLs(t *testing.T) {
	require.NoError(t, checkURL("https://kystdatahuset.no"))
	require.Error(t, checkURL("ftp://kystdatahuset.no"))
	require.Error(t, checkURL("https://"))
	require.Error(t, checkURL("kystdatahuset.no"))
}
