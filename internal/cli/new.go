package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jumppad-labs/pluginmeta"
	"github.com/spf13/cobra"
)

// NewNewCommand creates the new command which scaffolds a plugin folder
// containing a metadata.txt
func NewNewCommand(c *Container) *cobra.Command {
	m := &pluginmeta.Metadata{}
	var output string
	var tags []string
	var force bool

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a metadata.txt for a new plugin",
		Long: `Create a plugin folder named after the plugin containing a metadata.txt
filled from the flags. The descriptor is validated before it is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m.Tags = tags
			return runNew(c, m, output, force)
		},
	}

	cmd.Flags().StringVar(&m.Name, "name", "", "Plugin name")
	cmd.Flags().StringVar(&m.Description, "description", "", "One line description")
	cmd.Flags().StringVar(&m.About, "about", "", "Longer description")
	cmd.Flags().StringVar(&m.Version, "version", "0.1", "Plugin version")
	cmd.Flags().StringVar(&m.QgisMinimumVersion, "qgis-min", "3.0", "Minimum QGIS version")
	cmd.Flags().StringVar(&m.QgisMaximumVersion, "qgis-max", "", "Maximum QGIS version")
	cmd.Flags().StringVar(&m.Author, "author", "", "Author name")
	cmd.Flags().StringVar(&m.Email, "email", "", "Author email")
	cmd.Flags().StringVar(&m.Repository, "repository", "", "Code repository URL")
	cmd.Flags().StringVar(&m.Tracker, "tracker", "", "Issue tracker URL")
	cmd.Flags().StringVar(&m.Homepage, "homepage", "", "Homepage URL")
	cmd.Flags().StringVar(&m.Category, "category", "", "Menu category: Web, Vector, Raster, Database or Mesh")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Comma separated tags")
	cmd.Flags().BoolVar(&m.Experimental, "experimental", false, "Mark the plugin experimental")
	cmd.Flags().StringVarP(&output, "output", "o", ".", "Folder to create the plugin in")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing metadata.txt")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("author")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runNew(c *Container, m *pluginmeta.Metadata, output string, force bool) error {
	if m.Description == "" {
		m.Description = m.Name
	}

	src, err := pluginmeta.RenderMetadata(m)
	if err != nil {
		return err
	}

	dir := filepath.Join(output, pluginmeta.PluginID(m.Name))
	path := filepath.Join(dir, pluginmeta.MetadataFile)

	if _, err := c.parser(false).ParseString(path, src); err != nil {
		printProblems(c, err, true)
		return fmt.Errorf("generated descriptor is not valid")
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("unable to create plugin folder: %w", err)
	}

	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		return fmt.Errorf("unable to write descriptor: %w", err)
	}

	c.Logger.Info("Created plugin descriptor", "path", path)
	fmt.Fprintln(c.Out, path)

	return nil
}
