package pluginmeta

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/flytam/filenamify"
	getter "github.com/hashicorp/go-getter"
)

type Getter interface {
	// Get fetches the plugin source from src and downloads it to the
	// given folder. If the files already exist at the given location
	// Get does nothing unless ignoreCache is true when source will be
	// downloaded regardless of cache.
	//
	// Get returns the full path of the downloaded source, any url
	// characters in src are encoded so the path is valid on disk.
	Get(src, destFolder string, ignoreCache bool) (string, error)
}

type GoGetter struct {
	ctx context.Context
	get func(ctx context.Context, src, dest, working string) error
}

// NewGoGetter returns a Getter that understands every source go-getter
// does: archives over http, git repositories and local paths
func NewGoGetter(ctx context.Context) Getter {
	if ctx == nil {
		ctx = context.Background()
	}

	return &GoGetter{
		ctx: ctx,
		get: func(ctx context.Context, src, dest, working string) error {
			c := &getter.Client{
				Ctx:     ctx,
				Src:     src,
				Dst:     dest,
				Pwd:     working,
				Mode:    getter.ClientModeAny,
				Options: []getter.ClientOption{},
			}

			err := c.Get()
			if err != nil {
				return fmt.Errorf("unable to fetch files from %s: %w", src, err)
			}

			return nil
		},
	}
}

func (g *GoGetter) Get(src, dest string, ignoreCache bool) (string, error) {
	pwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// ensure the output folder is correctly encoded
	output, err := filenamify.Filenamify(src, filenamify.Options{
		Replacement: "_",
	})
	if err != nil {
		return "", fmt.Errorf("unable to create cache folder name for %s: %w", src, err)
	}

	downloadPath := filepath.Join(dest, output)

	_, err = os.Stat(downloadPath)
	if err == nil && !ignoreCache {
		return downloadPath, nil
	}

	err = g.get(g.ctx, src, downloadPath, pwd)

	return downloadPath, err
}

// FindPluginDirectory returns the folder holding metadata.txt, either root
// itself or one of its immediate subdirectories. Plugin archives normally
// contain a single top level folder named after the plugin.
func FindPluginDirectory(root string) (string, error) {
	if fileExists(filepath.Join(root, MetadataFile)) {
		return root, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("unable to read %s: %w", root, err)
	}

	found := []string{}
	for _, e := range entries {
		if e.IsDir() && fileExists(filepath.Join(root, e.Name(), MetadataFile)) {
			found = append(found, filepath.Join(root, e.Name()))
		}
	}

	switch len(found) {
	case 0:
		return "", fmt.Errorf("no %s found in %s", MetadataFile, root)
	case 1:
		return found[0], nil
	}

	sort.Strings(found)
	return "", fmt.Errorf("source %s contains more than one plugin: %v", root, found)
}

// FetchPlugin downloads src into the cache folder and parses the descriptor
// it contains. The returned metadata is that of the downloaded copy.
func FetchPlugin(g Getter, p *Parser, src, cacheDir string, ignoreCache bool) (*Metadata, error) {
	dir, err := g.Get(src, cacheDir, ignoreCache)
	if err != nil {
		return nil, err
	}

	pluginDir, err := FindPluginDirectory(dir)
	if err != nil {
		return nil, err
	}

	if p == nil {
		p = NewParser(nil)
	}

	return p.ParsePluginDirectory(pluginDir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
