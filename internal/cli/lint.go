package cli

import (
	goerrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jumppad-labs/pluginmeta"
	"github.com/jumppad-labs/pluginmeta/errors"
	"github.com/spf13/cobra"
)

// NewLintCommand creates the lint command
func NewLintCommand(c *Container) *cobra.Command {
	var strict, short bool

	cmd := &cobra.Command{
		Use:   "lint <path>...",
		Short: "Validate descriptors",
		Long: `Validate one or more descriptors. A path may be a metadata.txt file or a
plugin directory containing one. Every problem in a file is reported, the
command fails when any file has errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(c, args, strict, short)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	cmd.Flags().BoolVar(&short, "short", false, "Print one line per problem")

	return cmd
}

func runLint(c *Container, paths []string, strict, short bool) error {
	p := c.parser(strict)
	failed := 0

	for _, path := range paths {
		_, err := parsePath(p, path)
		if err == nil {
			fmt.Fprintf(c.Out, "%s: ok\n", path)
			continue
		}

		failed++
		printProblems(c, err, short)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d descriptors failed validation", failed, len(paths))
	}

	return nil
}

// parsePath parses a descriptor file or the descriptor in a plugin directory
func parsePath(p *pluginmeta.Parser, path string) (*pluginmeta.Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(path, pluginmeta.MetadataFile)); err != nil {
			return nil, fmt.Errorf("%s does not contain a %s", path, pluginmeta.MetadataFile)
		}

		return p.ParsePluginDirectory(path)
	}

	return p.ParseFile(path)
}

func printProblems(c *Container, err error, short bool) {
	var ce *errors.ConfigError
	if !goerrors.As(err, &ce) {
		fmt.Fprintf(c.Err, "Error: %s\n", err)
		return
	}

	for _, e := range append(ce.Errors(), ce.Warnings()...) {
		var pe *errors.ParserError
		if short && goerrors.As(e, &pe) {
			fmt.Fprintln(c.Out, pe.Short())
			continue
		}

		fmt.Fprintln(c.Out, e.Error())
	}
}
