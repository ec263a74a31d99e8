package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/buildspec/internal/loader"
	"github.com/roach88/buildspec/internal/match"
)

// MatchOptions holds flags for the match command.
type MatchOptions struct {
	*RootOptions
	Dir string // declaration directory; empty uses the embedded defaults
}

// FileMatch is the routing decision for one source file.
type FileMatch struct {
	File    string   `json:"file" yaml:"file"`
	Matched bool     `json:"matched" yaml:"matched"`
	Rule    int      `json:"rule,omitempty" yaml:"rule,omitempty"` // 1-based position in rules
	Handler string   `json:"handler,omitempty" yaml:"handler,omitempty"`
	Use     []string `json:"use,omitempty" yaml:"use,omitempty"`
}

// NewMatchCommand creates the match command.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "match <file>...",
		Short: "Show which handler processes each source file",
		Long: `Route source files through the configured transform rules.

Rules are tried in declaration order and the first rule whose test matches
and whose exclude does not wins. A file that no rule matches has no handler.

Exit codes:
  0 - Every file has a handler
  1 - At least one file has no handler
  2 - Command error (malformed declarations, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "declaration directory (default: embedded defaults)")

	return cmd
}

func runMatch(opts *MatchOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	formatter.VerboseLog("Loading declarations from %s", describeSource(opts.Dir))

	cfg, err := loader.Load(opts.loaderOptions(opts.Dir))
	if err != nil {
		return outputLoadErrors(formatter, "loading", []error{err})
	}

	rules, err := match.CompileRules(cfg.Rules)
	if err != nil {
		return outputLoadErrors(formatter, "loading", []error{err})
	}
	formatter.VerboseLog("Compiled %d rule(s)", rules.Len())

	results := make([]FileMatch, len(files))
	unmatched := 0
	for i, file := range files {
		m := FileMatch{File: file}
		if rule, idx, ok := rules.Lookup(file); ok {
			m.Matched = true
			m.Rule = idx + 1
			m.Handler = rule.Handler
			m.Use = rule.Use
		} else {
			unmatched++
		}
		results[i] = m
	}

	if formatter.Structured() {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, m := range results {
			if !m.Matched {
				fmt.Fprintf(formatter.Writer, "✗ %s: no handler\n", m.File)
				continue
			}
			line := fmt.Sprintf("✓ %s → %s (rule %d)", m.File, m.Handler, m.Rule)
			if len(m.Use) > 0 {
				line += fmt.Sprintf(" [%s]", strings.Join(m.Use, ", "))
			}
			fmt.Fprintln(formatter.Writer, line)
		}
	}

	if unmatched > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d file(s) have no handler", unmatched))
	}
	return nil
}
