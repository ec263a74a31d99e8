package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/buildspec/internal/loader"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string   // "text" | "json" | "yaml"
	EnvFiles []string // .env files layered under the process environment
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// DefaultEnvFiles is the --env-file default.
var DefaultEnvFiles = []string{".env"}

// NewRootCommand creates the root command for the buildspec CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "buildspec",
		Short: "buildspec - build configuration loader",
		Long: `Load, validate and inspect build configuration declarations.

A declaration describes how frontend sources are transformed and bundled:
target runtime, presets and plugins, entry, output, module resolution,
transform rules and dev server. Without a directory the embedded defaults
are used. NODE_ENV=production selects production mode; anything else is
development.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringArrayVar(&opts.EnvFiles, "env-file", DefaultEnvFiles, ".env file to read NODE_ENV from (repeatable)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewMatchCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter builds the formatter for a command run.
func (o *RootOptions) newFormatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// loaderOptions returns the loader options for a declaration directory.
// An empty dir selects the embedded defaults.
func (o *RootOptions) loaderOptions(dir string) loader.Options {
	return loader.Options{
		Dir:      dir,
		EnvFiles: o.EnvFiles,
	}
}

// dirArg returns the optional directory argument.
func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// describeSource names where declarations come from for log lines.
func describeSource(dir string) string {
	if dir == "" {
		return "embedded defaults"
	}
	return dir
}
