package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/axiom/internal/audit"
	"github.com/roach88/axiom/internal/config"
	"github.com/roach88/axiom/internal/logging"
	"github.com/roach88/axiom/internal/wrapper"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config and Logger are filled in before a subcommand runs.
	Config *config.Config
	Logger *zap.Logger

	// Clock and IDs override the wall clock and UUIDv7 decision ids (for testing).
	Clock audit.Clock
	IDs   wrapper.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the axiom CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "axiom",
		Short: "axiom - derive knowledge from coordinates",
		Long: `A semantic coordinate space: store a few labeled nodes and relations,
derive siblings, categories, paths and tension from their positions, and
record every operation on a hash-linked audit chain.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file (AXIOM_* env vars override it)")

	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewDeriveCommand(opts))
	cmd.AddCommand(NewHandleCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup loads configuration and builds the logger once. Subcommands built
// without a root command call it themselves.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.Config == nil {
		cfg, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		o.Config = cfg
	}
	if o.Logger == nil {
		level := o.Config.Log.Level
		if o.Verbose {
			level = "debug"
		}
		log, err := logging.New(level, o.Config.Log.JSON, cmd.ErrOrStderr())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build logger", err)
		}
		o.Logger = log
	}
	return nil
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
