package pluginmeta

import (
	"fmt"
	"sort"
	"strings"
)

// Keys recognised in the general section of a descriptor. Lookups are case
// insensitive, these are the canonical spellings used when writing.
const (
	KeyName                  = "name"
	KeyQgisMinimumVersion    = "qgisMinimumVersion"
	KeyQgisMaximumVersion    = "qgisMaximumVersion"
	KeyDescription           = "description"
	KeyAbout                 = "about"
	KeyVersion               = "version"
	KeyAuthor                = "author"
	KeyEmail                 = "email"
	KeyChangelog             = "changelog"
	KeyTracker               = "tracker"
	KeyRepository            = "repository"
	KeyHomepage              = "homepage"
	KeyTags                  = "tags"
	KeyCategory              = "category"
	KeyIcon                  = "icon"
	KeyExperimental          = "experimental"
	KeyDeprecated            = "deprecated"
	KeyHasProcessingProvider = "hasProcessingProvider"
	KeyServer                = "server"
	KeyPluginDependencies    = "plugin_dependencies"
)

// GeneralSection is the section that holds the metadata
const GeneralSection = "general"

// MetadataFile is the name of the descriptor inside a plugin directory
const MetadataFile = "metadata.txt"

// MandatoryKeys must be present and non empty in every descriptor
var MandatoryKeys = []string{
	KeyName,
	KeyQgisMinimumVersion,
	KeyDescription,
	KeyVersion,
	KeyAuthor,
	KeyEmail,
}

// BooleanKeys only accept True/False equivalent literals
var BooleanKeys = []string{
	KeyExperimental,
	KeyDeprecated,
	KeyHasProcessingProvider,
	KeyServer,
}

// URLKeys must contain absolute http(s) URLs
var URLKeys = []string{
	KeyTracker,
	KeyRepository,
	KeyHomepage,
}

var knownKeys = map[string]string{}

func init() {
	for _, k := range []string{
		KeyName, KeyQgisMinimumVersion, KeyQgisMaximumVersion, KeyDescription,
		KeyAbout, KeyVersion, KeyAuthor, KeyEmail, KeyChangelog, KeyTracker,
		KeyRepository, KeyHomepage, KeyTags, KeyCategory, KeyIcon,
		KeyExperimental, KeyDeprecated, KeyHasProcessingProvider, KeyServer,
		KeyPluginDependencies,
	} {
		knownKeys[strings.ToLower(k)] = k
	}
}

// CanonicalKey returns the canonical spelling of a known key and true, or
// the key unchanged and false
func CanonicalKey(key string) (string, bool) {
	k, ok := knownKeys[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return key, false
	}

	return k, true
}

// Dependency is an entry of plugin_dependencies, Version is empty when any
// version satisfies it
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func (d Dependency) String() string {
	if d.Version == "" {
		return d.Name
	}

	return d.Name + "==" + d.Version
}

// Metadata is the decoded general section of a plugin descriptor
type Metadata struct {
	// ID is the plugin's module name, the name of the directory holding the
	// descriptor
	ID string `json:"id,omitempty"`

	Name               string `json:"name"`
	QgisMinimumVersion string `json:"qgis_minimum_version"`
	QgisMaximumVersion string `json:"qgis_maximum_version,omitempty"`
	Description        string `json:"description"`
	About              string `json:"about,omitempty"`
	Version            string `json:"version"`
	Author             string `json:"author"`
	Email              string `json:"email"`
	Changelog          string `json:"changelog,omitempty"`

	Tracker    string `json:"tracker,omitempty"`
	Repository string `json:"repository,omitempty"`
	Homepage   string `json:"homepage,omitempty"`

	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
	Icon     string   `json:"icon,omitempty"`

	Experimental          bool `json:"experimental"`
	Deprecated            bool `json:"deprecated"`
	HasProcessingProvider bool `json:"has_processing_provider"`
	Server                bool `json:"server"`

	Dependencies []Dependency `json:"plugin_dependencies,omitempty"`

	// Extra holds keys that are not part of the known set
	Extra map[string]string `json:"extra,omitempty"`

	// File is the descriptor the metadata was read from, Dir the plugin
	// directory, both empty for in memory sources
	File string `json:"file,omitempty"`
	Dir  string `json:"dir,omitempty"`

	// Positions maps keys to the line they were defined on
	Positions map[string]int `json:"-"`

	// Warnings found while validating, these do not stop the plugin loading
	Warnings []error `json:"-"`

	raw map[string]string
}

// Raw returns the undecoded value for key and whether it was set
func (m *Metadata) Raw(key string) (string, bool) {
	if m.raw == nil {
		return "", false
	}

	v, ok := m.raw[strings.ToLower(key)]
	return v, ok
}

// Line returns the line key was defined on, 0 when it was not set
func (m *Metadata) Line(key string) int {
	if m.Positions == nil {
		return 0
	}

	if k, ok := CanonicalKey(key); ok {
		key = k
	}

	return m.Positions[key]
}

// HasTag returns true when the descriptor lists tag, case insensitive
func (m *Metadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}

	return false
}

// Copy returns a deep copy, registered metadata is never shared
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}

	c := *m
	c.Tags = append([]string(nil), m.Tags...)
	c.Dependencies = append([]Dependency(nil), m.Dependencies...)
	c.Warnings = append([]error(nil), m.Warnings...)

	if m.Extra != nil {
		c.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			c.Extra[k] = v
		}
	}

	if m.Positions != nil {
		c.Positions = make(map[string]int, len(m.Positions))
		for k, v := range m.Positions {
			c.Positions[k] = v
		}
	}

	if m.raw != nil {
		c.raw = make(map[string]string, len(m.raw))
		for k, v := range m.raw {
			c.raw[k] = v
		}
	}

	return &c
}

// ExtraKeys returns the unknown keys sorted
func (m *Metadata) ExtraKeys() []string {
	keys := make([]string, 0, len(m.Extra))
	for k := range m.Extra {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}

// ParseBool converts the literals accepted by the host, 1 yes true on and
// 0 no false off in any case
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "yes", "true", "on":
		return true, nil
	case "0", "no", "false", "off":
		return false, nil
	}

	return false, fmt.Errorf("%q is not a boolean, expected True or False", s)
}

// FormatBool returns the canonical literal for b
func FormatBool(b bool) string {
	if b {
		return "True"
	}

	return "False"
}

// SplitList splits a comma separated value, trimming items and dropping
// empty ones
func SplitList(s string) []string {
	out := []string{}

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}

	return out
}

// ParseDependencies decodes a plugin_dependencies value such as
// "Plugin A==1.0,Plugin B"
func ParseDependencies(s string) []Dependency {
	deps := []Dependency{}

	for _, item := range SplitList(s) {
		name, version, _ := strings.Cut(item, "==")
		deps = append(deps, Dependency{
			Name:    strings.TrimSpace(name),
			Version: strings.TrimSpace(version),
		})
	}

	return deps
}

// decodeMetadata maps the properties of a section onto Metadata, booleans
// that do not parse are left false and reported by Validate
func decodeMetadata(s *Section) *Metadata {
	m := &Metadata{
		Extra:     map[string]string{},
		Positions: map[string]int{},
		raw:       map[string]string{},
	}

	for _, p := range s.Properties {
		key, known := CanonicalKey(p.Key)
		m.raw[strings.ToLower(p.Key)] = p.Value
		m.Positions[key] = p.Line

		if !known {
			m.Extra[p.Key] = p.Value
			continue
		}

		switch key {
		case KeyName:
			m.Name = p.Value
		case KeyQgisMinimumVersion:
			m.QgisMinimumVersion = p.Value
		case KeyQgisMaximumVersion:
			m.QgisMaximumVersion = p.Value
		case KeyDescription:
			m.Description = p.Value
		case KeyAbout:
			m.About = p.Value
		case KeyVersion:
			m.Version = p.Value
		case KeyAuthor:
			m.Author = p.Value
		case KeyEmail:
			m.Email = p.Value
		case KeyChangelog:
			m.Changelog = p.Value
		case KeyTracker:
			m.Tracker = p.Value
		case KeyRepository:
			m.Repository = p.Value
		case KeyHomepage:
			m.Homepage = p.Value
		case KeyTags:
			m.Tags = SplitList(p.Value)
		case KeyCategory:
			m.Category = p.Value
		case KeyIcon:
			m.Icon = p.Value
		case KeyExperimental:
			m.Experimental, _ = ParseBool(p.Value)
		case KeyDeprecated:
			m.Deprecated, _ = ParseBool(p.Value)
		case KeyHasProcessingProvider:
			m.HasProcessingProvider, _ = ParseBool(p.Value)
		case KeyServer:
			m.Server, _ = ParseBool(p.Value)
		case KeyPluginDependencies:
			m.Dependencies = ParseDependencies(p.Value)
		}
	}

	return m
}
