package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/buildspec/internal/loader"
	"github.com/roach88/buildspec/internal/resolve"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Dir  string // declaration directory; empty uses the embedded defaults
	Base string // directory requests are resolved in; empty lists candidates only
}

// Resolution is the lookup result for one module request.
type Resolution struct {
	Request    string   `json:"request" yaml:"request"`
	Candidates []string `json:"candidates" yaml:"candidates"`
	Resolved   string   `json:"resolved,omitempty" yaml:"resolved,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <request>",
		Short: "Expand a module request into candidate file paths",
		Long: `Expand an extension-less module request using the configured
resolve extensions, in order. A request that already ends in a configured
extension is its own only candidate.

With --base the candidates are looked up in that directory and the first
existing file is reported; exit code 1 means none exists.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "declaration directory (default: embedded defaults)")
	cmd.Flags().StringVar(&opts.Base, "base", "", "directory to look candidates up in")

	return cmd
}

func runResolve(opts *ResolveOptions, request string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	formatter.VerboseLog("Loading declarations from %s", describeSource(opts.Dir))

	cfg, err := loader.Load(opts.loaderOptions(opts.Dir))
	if err != nil {
		return outputLoadErrors(formatter, "loading", []error{err})
	}

	exts := cfg.Resolve.Extensions
	formatter.VerboseLog("Extensions: %s", strings.Join(exts, ", "))

	result := Resolution{
		Request:    request,
		Candidates: resolve.Candidates(strings.TrimPrefix(request, "./"), exts),
	}

	var lookupErr error
	if opts.Base != "" {
		info, err := os.Stat(opts.Base)
		if err != nil || !info.IsDir() {
			_ = formatter.Error(loader.ErrCodeNotFound, fmt.Sprintf("base directory not found: %s", opts.Base), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("base directory not found: %s", opts.Base))
		}
		result.Resolved, lookupErr = resolve.Resolve(os.DirFS(opts.Base), request, exts)
		if lookupErr != nil && !errors.Is(lookupErr, resolve.ErrNotFound) {
			_ = formatter.Error(loader.ErrCodeGeneric, lookupErr.Error(), nil)
			return WrapExitError(ExitCommandError, "resolving request", lookupErr)
		}
	}

	if formatter.Structured() {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, c := range result.Candidates {
			marker := " "
			if c == result.Resolved {
				marker = "✓"
			}
			fmt.Fprintf(formatter.Writer, "%s %s\n", marker, c)
		}
		if lookupErr != nil {
			fmt.Fprintf(formatter.Writer, "\n✗ %s not found in %s\n", request, opts.Base)
		}
	}

	if lookupErr != nil {
		return WrapExitError(ExitFailure, "module not found", lookupErr)
	}
	return nil
}
