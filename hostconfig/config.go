// Package hostconfig reads the HCL file describing the host application the
// plugins are loaded into.
package hostconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/jumppad-labs/pluginmeta"
	"github.com/jumppad-labs/pluginmeta/errors"
	"github.com/jumppad-labs/pluginmeta/state"
	"github.com/zclconf/go-cty/cty/function"
)

// EnvPrefix is prepended to the upper case setting name to override a
// setting from the environment, e.g. PLUGINMETA_HOST_VERSION
const EnvPrefix = "PLUGINMETA_"

const (
	DefaultHostVersion = "3.34"
	DefaultStateDir    = ".pluginmeta/state"
	DefaultCacheDir    = ".pluginmeta/cache"
	DefaultLogLevel    = "info"
)

// PluginConfig overrides settings for a single plugin
type PluginConfig struct {
	ID      string `hcl:"id,label"`
	Enabled *bool  `hcl:"enabled,optional"`
}

// Config describes the host application
type Config struct {
	HostVersion       string         `hcl:"host_version,optional"`
	PluginDirectories []string       `hcl:"plugin_directories,optional"`
	AllowExperimental bool           `hcl:"allow_experimental,optional"`
	AllowDeprecated   bool           `hcl:"allow_deprecated,optional"`
	StateDir          string         `hcl:"state_dir,optional"`
	CacheDir          string         `hcl:"cache_dir,optional"`
	LogLevel          string         `hcl:"log_level,optional"`
	Plugins           []PluginConfig `hcl:"plugin,block"`

	// File the config was loaded from, empty for defaults
	File string
}

// Default returns the config used when no file is given. The plugin
// directories come from QGIS_PLUGINPATH.
func Default() *Config {
	return &Config{
		HostVersion:       DefaultHostVersion,
		PluginDirectories: pluginmeta.ExpandPluginDirectories([]string{"$QGIS_PLUGINPATH"}),
		StateDir:          DefaultStateDir,
		CacheDir:          DefaultCacheDir,
		LogLevel:          DefaultLogLevel,
	}
}

// Loader decodes config files
type Loader struct {
	functions map[string]function.Function
}

func NewLoader() *Loader {
	return &Loader{functions: map[string]function.Function{}}
}

// RegisterFunction makes a go function callable from config files, only
// string and int parameters and return values are supported
func (l *Loader) RegisterFunction(name string, f interface{}) error {
	fn, err := createCtyFunctionFromGoFunc(f)
	if err != nil {
		return fmt.Errorf("unable to register function %s: %w", name, err)
	}

	l.functions[name] = fn
	return nil
}

// Load reads a config file, applies environment overrides and resolves
// relative paths against the folder containing the file. An empty path
// returns the defaults with environment overrides applied.
func (l *Loader) Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("unable to resolve path %s: %w", path, err)
		}

		src, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}

		if err := l.decode(abs, src, c); err != nil {
			return nil, err
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	c.resolvePaths()

	return c, nil
}

// Load reads a config file with the default functions
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

func (l *Loader) decode(filename string, src []byte, c *Config) error {
	parser := hclparse.NewParser()

	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return diagsToError(diags, filename)
	}

	funcs := getDefaultFunctions(filename)
	for k, v := range l.functions {
		funcs[k] = v
	}

	ctx := &hcl.EvalContext{
		Functions: funcs,
	}

	diags = gohcl.DecodeBody(f.Body, ctx, c)
	if diags.HasErrors() {
		return diagsToError(diags, filename)
	}

	c.File = filename

	seen := map[string]bool{}
	for _, p := range c.Plugins {
		if seen[p.ID] {
			ce := errors.NewConfigError()
			ce.AppendParseError(errors.NewParserError(filename, 0, 0, errors.ParserErrorLevelError, fmt.Sprintf("plugin %q is configured more than once", p.ID)))
			return ce
		}

		seen[p.ID] = true
	}

	return nil
}

func diagsToError(diags hcl.Diagnostics, filename string) error {
	ce := errors.NewConfigError()

	for _, d := range diags {
		pe := errors.NewParserErrorFromHCLDiag(d, filename)
		if pe.IsWarning() {
			ce.AppendValidationError(pe)
			continue
		}

		ce.AppendParseError(pe)
	}

	return ce
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvPrefix + "HOST_VERSION"); ok {
		c.HostVersion = v
	}

	if v, ok := os.LookupEnv(EnvPrefix + "PLUGIN_DIRECTORIES"); ok {
		c.PluginDirectories = filepath.SplitList(v)
	}

	if v, ok := os.LookupEnv(EnvPrefix + "STATE_DIR"); ok {
		c.StateDir = v
	}

	if v, ok := os.LookupEnv(EnvPrefix + "CACHE_DIR"); ok {
		c.CacheDir = v
	}

	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	for name, target := range map[string]*bool{
		"ALLOW_EXPERIMENTAL": &c.AllowExperimental,
		"ALLOW_DEPRECATED":   &c.AllowDeprecated,
	} {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}

		b, err := pluginmeta.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, name, err)
		}

		*target = b
	}

	return nil
}

// resolvePaths expands the plugin directories and makes every path absolute,
// relative paths in a file are relative to that file
func (c *Config) resolvePaths() {
	base, _ := os.Getwd()
	if c.File != "" {
		base = filepath.Dir(c.File)
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}

		return filepath.Join(base, p)
	}

	dirs := []string{}
	for _, d := range pluginmeta.ExpandPluginDirectories(c.PluginDirectories) {
		dirs = append(dirs, abs(d))
	}

	c.PluginDirectories = dirs
	c.StateDir = abs(c.StateDir)
	c.CacheDir = abs(c.CacheDir)
	c.LogLevel = strings.ToLower(c.LogLevel)
}

// Enabled returns the per plugin enabled overrides
func (c *Config) Enabled() map[string]bool {
	enabled := map[string]bool{}

	for _, p := range c.Plugins {
		if p.Enabled != nil {
			enabled[p.ID] = *p.Enabled
		}
	}

	return enabled
}

// RegistryOptions returns the options for a registry of this host, plugin
// state is stored in StateDir
func (c *Config) RegistryOptions(p *pluginmeta.Parser) *pluginmeta.RegistryOptions {
	return &pluginmeta.RegistryOptions{
		HostVersion:       c.HostVersion,
		AllowExperimental: c.AllowExperimental,
		AllowDeprecated:   c.AllowDeprecated,
		Enabled:           c.Enabled(),
		StateStore:        state.NewFileStateStore(c.StateDir),
		Parser:            p,
	}
}
