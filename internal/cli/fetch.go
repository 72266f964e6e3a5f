package cli

import (
	"context"
	"fmt"

	"github.com/jumppad-labs/pluginmeta"
	"github.com/spf13/cobra"
)

// NewFetchCommand creates the fetch command
func NewFetchCommand(c *Container) *cobra.Command {
	var format string
	var ignoreCache bool

	cmd := &cobra.Command{
		Use:   "fetch <src>",
		Short: "Download a plugin and check it against the host",
		Long: `Download a plugin from any source go-getter understands, a zip URL, a git
repository or a local path, into the cache folder. The descriptor is
printed and checked against the host version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pluginmeta.ParsePrintFormat(format)
			if err != nil {
				return err
			}

			g := c.Getter
			if g == nil {
				g = pluginmeta.NewGoGetter(cmd.Context())
			}

			c.Logger.Info("Fetching plugin", "src", args[0], "cache", c.config.CacheDir)

			m, err := pluginmeta.FetchPlugin(g, c.parser(false), args[0], c.config.CacheDir, ignoreCache)
			if err != nil {
				printProblems(c, err, true)
				return fmt.Errorf("unable to fetch plugin %s", args[0])
			}

			if err := c.printer().PrintMetadata(m, f); err != nil {
				return err
			}

			ok, err := m.CompatibleWith(c.config.HostVersion)
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("plugin %s is not compatible with QGIS %s", m.ID, c.config.HostVersion)
			}

			c.Logger.Info("Plugin is compatible", "id", m.ID, "host_version", c.config.HostVersion)

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(pluginmeta.FormatCard), "Output format: table, card or json")
	cmd.Flags().BoolVar(&ignoreCache, "ignore-cache", false, "Download again even when the source is cached")

	return cmd
}

// Execute runs the root command with a context
func Execute(ctx context.Context, c *Container) error {
	return NewRootCommand(c).ExecuteContext(ctx)
}
