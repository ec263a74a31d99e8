package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/buildspec/internal/ir"
	"github.com/roach88/buildspec/internal/loader"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool     `json:"valid" yaml:"valid"`
	Mode  ir.Mode  `json:"mode" yaml:"mode"`
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`
	Rules int      `json:"rules" yaml:"rules"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check declarations without printing the configuration",
		Long: `Check build declarations and report every problem found.

Unlike a session load, which stops at the first problem, validate collects
all of them: missing or non-concrete fields, invalid rule matchers, bad
filename patterns and out-of-range values, each with its source position.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, dirArg(args), cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	formatter.VerboseLog("Validating declarations from %s", describeSource(dir))

	lopts := opts.loaderOptions(dir)
	lopts.Mode = loader.LoadModeCollectAll
	res, errs := loader.LoadAll(lopts)
	if len(errs) > 0 {
		formatter.VerboseLog("Found %d problem(s)", len(errs))
		return outputLoadErrors(formatter, "validation", errs)
	}

	for _, f := range res.Files {
		formatter.VerboseLog("Checked %s", f)
	}

	result := ValidationResult{
		Valid: true,
		Mode:  res.Config.Mode,
		Files: res.Files,
		Rules: len(res.Config.Rules),
	}
	if formatter.Structured() {
		return formatter.Success(result)
	}

	if dir == "" {
		fmt.Fprintf(formatter.Writer, "✓ Embedded defaults valid (%d rule(s), %s)\n", result.Rules, result.Mode)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✓ Declarations valid (%d file(s), %d rule(s), %s)\n",
		res.FileCount(), result.Rules, result.Mode)
	return nil
}
