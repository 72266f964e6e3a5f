package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/jumppad-labs/pluginmeta"
	"github.com/jumppad-labs/pluginmeta/hostconfig"
	"github.com/jumppad-labs/pluginmeta/logger"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// Container holds the dependencies shared by the commands
type Container struct {
	Out    io.Writer
	Err    io.Writer
	Logger logger.Logger
	// Getter downloads plugin sources, defaults to go-getter
	Getter pluginmeta.Getter

	configPath string
	logLevel   string
	noColor    bool
	config     *hostconfig.Config
}

// NewContainer returns a container writing to stdout and stderr
func NewContainer() *Container {
	return &Container{
		Out: os.Stdout,
		Err: os.Stderr,
	}
}

// NewRootCommand creates the pluginmeta command and its subcommands
func NewRootCommand(c *Container) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pluginmeta",
		Short: "Validate, inspect and manage QGIS plugin descriptors",
		Long: `pluginmeta reads the metadata.txt descriptor shipped with every QGIS
plugin. It validates descriptors, shows them, scaffolds new ones and
resolves which installed plugins a host can load and in which order.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.SetOut(c.Out)
	rootCmd.SetErr(c.Err)

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Host config file (HCL)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides the config)")
	rootCmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(NewLintCommand(c))
	rootCmd.AddCommand(NewShowCommand(c))
	rootCmd.AddCommand(NewListCommand(c))
	rootCmd.AddCommand(NewNewCommand(c))
	rootCmd.AddCommand(NewFetchCommand(c))
	rootCmd.AddCommand(NewEnableCommand(c, true))
	rootCmd.AddCommand(NewEnableCommand(c, false))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// setup loads the host config and creates the logger
func (c *Container) setup() error {
	cfg, err := hostconfig.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("unable to load host config: %w", err)
	}

	c.config = cfg

	if c.Logger != nil {
		return nil
	}

	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}

	l, err := logger.NewWriterLogger(c.Err, level)
	if err != nil {
		return err
	}

	c.Logger = l
	return nil
}

func (c *Container) printer() *pluginmeta.MetadataPrinter {
	opts := []pluginmeta.PrinterOption{pluginmeta.WithWriter(c.Out)}
	if c.noColor {
		opts = append(opts, pluginmeta.WithColor(false))
	}

	return pluginmeta.NewMetadataPrinter(opts...)
}

func (c *Container) parser(strict bool) *pluginmeta.Parser {
	return pluginmeta.NewParser(&pluginmeta.ParserOptions{
		Logger: c.Logger,
		Strict: strict,
	})
}

// registry discovers and registers every plugin in the configured plugin
// directories
func (c *Container) registry() (*pluginmeta.PluginRegistry, error) {
	r, err := pluginmeta.NewPluginRegistry(c.config.RegistryOptions(c.parser(false)), c.Logger)
	if err != nil {
		return nil, err
	}

	if len(c.config.PluginDirectories) == 0 {
		return nil, fmt.Errorf("no plugin directories configured, set plugin_directories in the host config or QGIS_PLUGINPATH")
	}

	if err := r.DiscoverAndLoad(c.config.PluginDirectories); err != nil {
		return nil, err
	}

	return r, nil
}
