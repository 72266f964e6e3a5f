package cli

import (
	"github.com/jumppad-labs/pluginmeta"
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command
func NewShowCommand(c *Container) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Print a descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := pluginmeta.ParsePrintFormat(format)
			if err != nil {
				return err
			}

			m, err := parsePath(c.parser(false), args[0])
			if err != nil {
				printProblems(c, err, true)
				if m == nil {
					return err
				}
			}

			return c.printer().PrintMetadata(m, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(pluginmeta.FormatCard), "Output format: table, card or json")

	return cmd
}
