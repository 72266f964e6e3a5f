package pluginmeta

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jumppad-labs/pluginmeta/logger"
	"github.com/jumppad-labs/pluginmeta/state"
)

// Status describes whether the host would load a registered plugin
type Status string

const (
	StatusAvailable         Status = "available"
	StatusDisabled          Status = "disabled"
	StatusIncompatible      Status = "incompatible"
	StatusExperimental      Status = "experimental"
	StatusDeprecated        Status = "deprecated"
	StatusMissingDependency Status = "missing_dependency"
)

// DefaultMenu receives plugins whose category has no menu of its own
const DefaultMenu = "Plugins"

// categoryMenus maps descriptor categories to host menus
var categoryMenus = map[string]string{
	"web":      "Web",
	"vector":   "Vector",
	"raster":   "Raster",
	"database": "Database",
	"mesh":     "Mesh",
}

// MenuFor returns the host menu a plugin of the given category is added to
func MenuFor(category string) string {
	if m, ok := categoryMenus[strings.ToLower(strings.TrimSpace(category))]; ok {
		return m
	}

	return DefaultMenu
}

// MenuEntry is what the host adds to its menu and toolbar for a plugin
type MenuEntry struct {
	PluginID string `json:"plugin_id"`
	Menu     string `json:"menu"`
	Title    string `json:"title"`
	// Icon is the absolute path of the icon, empty when the descriptor has none
	Icon string `json:"icon,omitempty"`
}

// RegisteredPlugin is a descriptor together with the host's view of it
type RegisteredPlugin struct {
	Metadata *Metadata `json:"metadata"`
	Status   Status    `json:"status"`
	// Reason explains any status other than available
	Reason string    `json:"reason,omitempty"`
	Menu   MenuEntry `json:"menu"`
	// Changed is true when the descriptor differs from the one recorded in
	// the state store
	Changed bool `json:"changed"`
}

// ID returns the plugin ID
func (p *RegisteredPlugin) ID() string {
	return p.Metadata.ID
}

// Loadable returns true when the host would load the plugin
func (p *RegisteredPlugin) Loadable() bool {
	return p.Status == StatusAvailable
}

func (p *RegisteredPlugin) copy() *RegisteredPlugin {
	c := *p
	c.Metadata = p.Metadata.Copy()

	return &c
}

// RegistryOptions configures how the registry judges plugins
type RegistryOptions struct {
	// HostVersion enables the version gate, empty accepts every plugin
	HostVersion string
	// AllowExperimental makes experimental plugins available
	AllowExperimental bool
	// AllowDeprecated makes deprecated plugins available
	AllowDeprecated bool
	// Enabled overrides the enabled flag per plugin ID
	Enabled map[string]bool
	// StateStore persists enabled flags and checksums, optional
	StateStore state.StateStore
	// Parser is used to read descriptors, defaults to NewParser(nil)
	Parser *Parser
}

// PluginRegistry holds the registered plugins of a host
type PluginRegistry struct {
	mu      sync.RWMutex
	plugins map[string]*RegisteredPlugin
	options RegistryOptions
	state   *state.State
	logger  logger.Logger
}

// NewPluginRegistry creates an empty registry, previously saved state is
// loaded from the state store when one is configured
func NewPluginRegistry(options *RegistryOptions, l logger.Logger) (*PluginRegistry, error) {
	o := RegistryOptions{}
	if options != nil {
		o = *options
	}

	if o.Parser == nil {
		o.Parser = NewParser(&ParserOptions{Logger: l})
	}

	enabled := map[string]bool{}
	for k, v := range o.Enabled {
		enabled[k] = v
	}
	o.Enabled = enabled

	r := &PluginRegistry{
		plugins: map[string]*RegisteredPlugin{},
		options: o,
		state:   state.New(),
		logger:  logger.OrNop(l),
	}

	if o.StateStore != nil {
		s, err := o.StateStore.Load()
		if err != nil {
			return nil, fmt.Errorf("unable to load plugin state: %w", err)
		}

		if s != nil {
			r.state = s
		}
	}

	return r, nil
}

// Register adds a parsed descriptor to the registry. Descriptors that fail
// validation are rejected with the validation errors, duplicate IDs are
// rejected.
func (r *PluginRegistry) Register(m *Metadata) (*RegisteredPlugin, error) {
	if m == nil {
		return nil, fmt.Errorf("metadata can not be nil")
	}

	if ce := Validate(m); ce != nil && ce.HasErrors() {
		return nil, ce
	}

	m = m.Copy()
	if m.ID == "" {
		m.ID = PluginID(m.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.plugins[m.ID]; ok {
		return nil, fmt.Errorf("plugin %s is already registered from %s", m.ID, existing.Metadata.Dir)
	}

	p := &RegisteredPlugin{
		Metadata: m,
		Menu:     menuEntry(m),
	}

	checksum := Checksum(m)
	ps, known := r.state.Get(m.ID)
	if known && ps.Checksum != checksum {
		p.Changed = true
		r.logger.Info("Plugin descriptor changed", "id", m.ID, "previous_version", ps.Version, "version", m.Version)
	}

	if !known {
		ps.Enabled = true
	}

	ps.Version = m.Version
	ps.Checksum = checksum
	r.state.Set(m.ID, ps)

	r.evaluate(p)
	r.plugins[m.ID] = p

	r.logger.Debug("Registered plugin", "id", m.ID, "name", m.Name, "status", p.Status)

	return p.copy(), nil
}

// RegisterDirectory parses the descriptor in a plugin directory and
// registers it
func (r *PluginRegistry) RegisterDirectory(dir string) (*RegisteredPlugin, error) {
	m, err := r.options.Parser.ParsePluginDirectory(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read plugin %s: %w", filepath.Base(dir), err)
	}

	return r.Register(m)
}

// DiscoverAndLoad finds every plugin in dirs and registers it. Plugins with
// broken descriptors are skipped and logged, an error is only returned when
// plugins were found and none of them could be registered.
func (r *PluginRegistry) DiscoverAndLoad(dirs []string) error {
	pd := NewPluginDiscovery(ExpandPluginDirectories(dirs), r.logger)

	found, err := pd.DiscoverPlugins()
	if err != nil {
		return fmt.Errorf("plugin discovery failed: %w", err)
	}

	var loadErrors []string
	successCount := 0

	for _, info := range found {
		if _, err := r.RegisterDirectory(info.Path); err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", info.ID, shortError(err)))
			r.logger.Error("Failed to load plugin", "id", info.ID, "error", shortError(err))
			continue
		}

		successCount++
	}

	if successCount > 0 {
		r.logger.Info("Plugin discovery complete", "loaded", successCount)
	}

	if len(loadErrors) > 0 {
		r.logger.Warn("Some plugins failed to load", "failed", len(loadErrors))
	}

	if len(loadErrors) > 0 && successCount == 0 {
		return fmt.Errorf("all plugin loads failed: %s", strings.Join(loadErrors, "; "))
	}

	return nil
}

// evaluate sets the status of p, the first matching rule wins
func (r *PluginRegistry) evaluate(p *RegisteredPlugin) {
	m := p.Metadata
	p.Status = StatusAvailable
	p.Reason = ""

	if !r.enabled(m.ID) {
		p.Status = StatusDisabled
		p.Reason = "disabled by the user"
		return
	}

	if r.options.HostVersion != "" {
		ok, err := m.CompatibleWith(r.options.HostVersion)
		if err != nil || !ok {
			max, _ := m.MaximumVersion()
			p.Status = StatusIncompatible
			p.Reason = fmt.Sprintf("requires host version %s to %s, running %s", m.QgisMinimumVersion, max, r.options.HostVersion)
			return
		}
	}

	if m.Deprecated && !r.options.AllowDeprecated {
		p.Status = StatusDeprecated
		p.Reason = "plugin is deprecated"
		return
	}

	if m.Experimental && !r.options.AllowExperimental {
		p.Status = StatusExperimental
		p.Reason = "experimental plugins are not allowed"
	}
}

// enabled gives the host configuration precedence over the saved state
func (r *PluginRegistry) enabled(id string) bool {
	if e, ok := r.options.Enabled[id]; ok {
		return e
	}

	if ps, ok := r.state.Get(id); ok {
		return ps.Enabled
	}

	return true
}

func menuEntry(m *Metadata) MenuEntry {
	e := MenuEntry{
		PluginID: m.ID,
		Menu:     MenuFor(m.Category),
		Title:    m.Name,
	}

	if m.Icon != "" {
		e.Icon = filepath.FromSlash(m.Icon)
		if !filepath.IsAbs(e.Icon) && m.Dir != "" {
			e.Icon = filepath.Join(m.Dir, e.Icon)
		}
	}

	return e
}

// Get returns a copy of the plugin with the given ID
func (r *PluginRegistry) Get(id string) (*RegisteredPlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[id]
	if !ok {
		return nil, false
	}

	return p.copy(), true
}

// Plugins returns copies of all registered plugins sorted by ID
func (r *PluginRegistry) Plugins() []*RegisteredPlugin {
	return r.filter(func(*RegisteredPlugin) bool { return true })
}

// ByCategory returns the plugins whose category matches, case insensitive
func (r *PluginRegistry) ByCategory(category string) []*RegisteredPlugin {
	return r.filter(func(p *RegisteredPlugin) bool {
		return strings.EqualFold(p.Metadata.Category, category)
	})
}

// Search returns the plugins with the term in their name, description or
// tags, case insensitive
func (r *PluginRegistry) Search(term string) []*RegisteredPlugin {
	term = strings.ToLower(term)

	return r.filter(func(p *RegisteredPlugin) bool {
		m := p.Metadata
		return strings.Contains(strings.ToLower(m.Name), term) ||
			strings.Contains(strings.ToLower(m.Description), term) ||
			m.HasTag(term)
	})
}

func (r *PluginRegistry) filter(keep func(*RegisteredPlugin) bool) []*RegisteredPlugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*RegisteredPlugin{}
	for _, p := range r.plugins {
		if keep(p) {
			out = append(out, p.copy())
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })

	return out
}

// MenuEntries returns the entries of loadable plugins sorted by menu then
// title
func (r *PluginRegistry) MenuEntries() []MenuEntry {
	entries := []MenuEntry{}

	for _, p := range r.Plugins() {
		if p.Loadable() {
			entries = append(entries, p.Menu)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Menu != entries[j].Menu {
			return entries[i].Menu < entries[j].Menu
		}

		return entries[i].Title < entries[j].Title
	})

	return entries
}

// SetEnabled enables or disables a plugin and re-evaluates its status, the
// change is persisted by SaveState
func (r *PluginRegistry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.plugins[id]
	if !ok {
		return fmt.Errorf("plugin %s is not registered", id)
	}

	ps, _ := r.state.Get(id)
	ps.Enabled = enabled
	r.state.Set(id, ps)

	// an explicit call wins over the host configuration
	if _, ok := r.options.Enabled[id]; ok {
		delete(r.options.Enabled, id)
	}

	r.evaluate(p)

	return nil
}

// Unregister removes a plugin, its saved state is kept
func (r *PluginRegistry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[id]; !ok {
		return fmt.Errorf("plugin %s is not registered", id)
	}

	delete(r.plugins, id)

	return nil
}

// SaveState writes the enabled flags and checksums to the state store
func (r *PluginRegistry) SaveState() error {
	if r.options.StateStore == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.options.StateStore.Save(r.state); err != nil {
		return fmt.Errorf("unable to save plugin state: %w", err)
	}

	return nil
}
