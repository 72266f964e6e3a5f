package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewEnableCommand creates the enable command, or disable when enable is
// false
func NewEnableCommand(c *Container, enable bool) *cobra.Command {
	use, short := "enable <id>", "Enable a plugin"
	if !enable {
		use, short = "disable <id>", "Disable a plugin"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.registry()
			if err != nil {
				return err
			}

			if err := r.SetEnabled(args[0], enable); err != nil {
				return err
			}

			if err := r.SaveState(); err != nil {
				return err
			}

			p, _ := r.Get(args[0])
			fmt.Fprintf(c.Out, "%s: %s\n", p.ID(), p.Status)

			return nil
		},
	}
}
