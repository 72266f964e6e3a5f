package cli

import (
	"github.com/jumppad-labs/pluginmeta"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command
func NewListCommand(c *Container) *cobra.Command {
	var format string
	var loadable bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed plugins and their status",
		Long: `Discover the plugins in the configured plugin directories, check them
against the host and print their status. With --loadable only the plugins
the host would load are printed, in load order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pluginmeta.ParsePrintFormat(format)
			if err != nil {
				return err
			}

			r, err := c.registry()
			if err != nil {
				return err
			}

			order, err := r.LoadOrder()
			if err != nil {
				return err
			}

			if err := r.SaveState(); err != nil {
				c.Logger.Warn("Unable to save plugin state", "error", err)
			}

			plugins := r.Plugins()
			if loadable {
				plugins = order
			}

			return c.printer().PrintPlugins(plugins, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(pluginmeta.FormatTable), "Output format: table, card or json")
	cmd.Flags().BoolVar(&loadable, "loadable", false, "Only print loadable plugins in load order")

	return cmd
}
