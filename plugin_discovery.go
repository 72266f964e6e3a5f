package pluginmeta

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jumppad-labs/pluginmeta/logger"
)

// PluginInfo represents a discovered plugin directory
type PluginInfo struct {
	ID           string // Plugin module name, the directory name
	Path         string // Full path to the plugin directory
	MetadataPath string // Full path to metadata.txt
}

// PluginDiscovery finds plugin directories, a plugin is any immediate
// subdirectory of a plugin directory that contains a metadata.txt
type PluginDiscovery struct {
	directories []string
	logger      logger.Logger
}

// NewPluginDiscovery creates a new PluginDiscovery instance
func NewPluginDiscovery(directories []string, l logger.Logger) *PluginDiscovery {
	return &PluginDiscovery{
		directories: directories,
		logger:      logger.OrNop(l),
	}
}

// DiscoverPlugins searches all configured directories. When the same plugin
// ID exists in more than one directory the first directory wins.
func (pd *PluginDiscovery) DiscoverPlugins() ([]PluginInfo, error) {
	var plugins []PluginInfo
	var errs []error

	seenIDs := map[string]string{}

	for _, dir := range pd.uniqueDirectories() {
		found, err := pd.discoverInDirectory(dir)
		if err != nil {
			pd.logger.Warn("Failed to discover plugins", "dir", dir, "error", err)
			errs = append(errs, err)
			continue
		}

		for _, p := range found {
			if prev, ok := seenIDs[p.ID]; ok {
				pd.logger.Warn("Plugin shadowed by earlier directory", "id", p.ID, "path", p.Path, "used", prev)
				continue
			}

			seenIDs[p.ID] = p.Path
			plugins = append(plugins, p)
		}
	}

	if len(plugins) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("no plugins found, encountered %d errors during discovery: %w", len(errs), errs[0])
	}

	pd.logger.Debug("Discovery complete", "plugins", len(plugins))
	return plugins, nil
}

// DiscoverPlugin finds a specific plugin by ID
func (pd *PluginDiscovery) DiscoverPlugin(id string) (*PluginInfo, error) {
	for _, dir := range pd.uniqueDirectories() {
		if p := pd.pluginInDirectory(filepath.Join(dir, id)); p != nil {
			return p, nil
		}
	}

	return nil, fmt.Errorf("plugin %s not found", id)
}

func (pd *PluginDiscovery) uniqueDirectories() []string {
	seen := make(map[string]bool)
	uniqueDirs := []string{}

	for _, dir := range pd.directories {
		if dir == "" {
			continue
		}

		absDir, err := filepath.Abs(dir)
		if err != nil {
			pd.logger.Warn("Failed to resolve directory", "dir", dir, "error", err)
			continue
		}

		if !seen[absDir] {
			seen[absDir] = true
			uniqueDirs = append(uniqueDirs, absDir)
		}
	}

	return uniqueDirs
}

// discoverInDirectory returns the plugins in a single directory sorted by ID
func (pd *PluginDiscovery) discoverInDirectory(dir string) ([]PluginInfo, error) {
	plugins := []PluginInfo{}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			pd.logger.Debug("Plugin directory does not exist", "dir", dir)
			return plugins, nil
		}
		return nil, err
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	pd.logger.Debug("Searching for plugins", "dir", dir)

	for _, entry := range entries {
		// hidden folders and python caches are never plugins
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || entry.Name() == "__pycache__" {
			continue
		}

		if p := pd.pluginInDirectory(filepath.Join(dir, entry.Name())); p != nil {
			plugins = append(plugins, *p)
		}
	}

	sort.Slice(plugins, func(i, j int) bool { return plugins[i].ID < plugins[j].ID })

	return plugins, nil
}

func (pd *PluginDiscovery) pluginInDirectory(path string) *PluginInfo {
	mp := filepath.Join(path, MetadataFile)

	info, err := os.Stat(mp)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	pd.logger.Debug("Found plugin", "id", filepath.Base(path), "path", path)

	return &PluginInfo{
		ID:           filepath.Base(path),
		Path:         path,
		MetadataPath: mp,
	}
}

// ExpandPluginDirectories expands environment variables and the home
// directory in paths. Entries holding a path list, such as the value of
// QGIS_PLUGINPATH, are split on the OS list separator.
func ExpandPluginDirectories(dirs []string) []string {
	expanded := make([]string, 0, len(dirs))

	for _, entry := range dirs {
		for _, dir := range filepath.SplitList(os.ExpandEnv(entry)) {
			dir = strings.TrimSpace(dir)
			if dir == "" {
				continue
			}

			if dir == "~" || strings.HasPrefix(dir, "~/") {
				if home, err := os.UserHomeDir(); err == nil {
					dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
				}
			}

			expanded = append(expanded, dir)
		}
	}

	return expanded
}
