package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/buildspec/internal/filename"
	"github.com/roach88/buildspec/internal/ir"
	"github.com/roach88/buildspec/internal/loader"
)

// mainChunk names the entry chunk when rendering the bundle filename.
const mainChunk = "main"

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compile command's payload.
type CompilationResult struct {
	Config        *ir.BuildConfig `json:"config" yaml:"config"`
	ConfigHash    string          `json:"config_hash" yaml:"config_hash"`
	Bundle        string          `json:"bundle" yaml:"bundle"`
	IRVersion     string          `json:"ir_version" yaml:"ir_version"`
	LoaderVersion string          `json:"loader_version" yaml:"loader_version"`
	Files         []string        `json:"files,omitempty" yaml:"files,omitempty"`
	Output        string          `json:"output,omitempty" yaml:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [dir]",
		Short: "Load declarations and print the build configuration",
		Long: `Load build declarations and print the resulting configuration.

Without a directory the embedded defaults are loaded. All *.cue files in
the directory form one CUE instance; *.yaml and *.yml files are unified
with it. The mode is taken from NODE_ENV.

With --output the configuration is written as indented canonical JSON,
atomically replacing any existing file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, dirArg(args), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.newFormatter(cmd)
	formatter.VerboseLog("Loading declarations from %s", describeSource(dir))

	lopts := opts.loaderOptions(dir)
	lopts.Mode = loader.LoadModeCollectAll
	res, errs := loader.LoadAll(lopts)
	if len(errs) > 0 {
		return outputLoadErrors(formatter, "compilation", errs)
	}

	formatter.VerboseLog("Read %d declaration file(s)", res.FileCount())
	formatter.VerboseLog("Mode: %s", res.Config.Mode)
	formatter.VerboseLog("Loader %s, schema v%s", ir.LoaderVersion, ir.IRVersion)

	hash, err := ir.ConfigHash(res.Config)
	if err != nil {
		_ = formatter.Error(loader.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "hashing configuration", err)
	}

	bundle, err := bundleName(res.Config)
	if err != nil {
		_ = formatter.Error(loader.ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "rendering bundle name", err)
	}

	result := &CompilationResult{
		Config:        res.Config,
		ConfigHash:    hash,
		Bundle:        bundle,
		IRVersion:     ir.IRVersion,
		LoaderVersion: ir.LoaderVersion,
		Files:         res.Files,
		Output:        opts.Output,
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeConfigFile(res.Config, opts.Output); err != nil {
			_ = formatter.Error(loader.ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if formatter.Structured() {
		return formatter.Success(result)
	}
	writeConfigText(formatter.Writer, result)
	return nil
}

// writeConfigText renders a configuration for humans.
func writeConfigText(w io.Writer, result *CompilationResult) {
	cfg := result.Config

	fmt.Fprintf(w, "✓ Loaded build configuration (%s)\n\n", cfg.Mode)
	fmt.Fprintf(w, "Target:     %s\n", cfg.Target)
	fmt.Fprintf(w, "Presets:    %s\n", joinNames(presetNames(cfg)))
	fmt.Fprintf(w, "Plugins:    %s\n", joinNames(pluginNames(cfg)))
	fmt.Fprintf(w, "Entry:      %s\n", cfg.Entry)
	fmt.Fprintf(w, "Output:     %s\n", joinPath(cfg.Output.Dir, cfg.Output.Filename))
	fmt.Fprintf(w, "Bundle:     %s\n", result.Bundle)
	fmt.Fprintf(w, "Extensions: %s\n", joinNames(cfg.Resolve.Extensions))

	if len(cfg.Rules) > 0 {
		fmt.Fprintln(w, "\nRules:")
		for _, r := range cfg.Rules {
			line := fmt.Sprintf("  %s → %s", r.Test, r.Handler)
			if r.Exclude != "" {
				line += fmt.Sprintf(" (exclude %s)", r.Exclude)
			}
			if len(r.Use) > 0 {
				line += fmt.Sprintf(" [%s]", strings.Join(r.Use, ", "))
			}
			fmt.Fprintln(w, line)
		}
	}

	if cfg.DevServer.Port != 0 {
		fmt.Fprintf(w, "\nDev server: port %d\n", cfg.DevServer.Port)
	}

	fmt.Fprintf(w, "\nHash: %s\n", result.ConfigHash)
	if result.Output != "" {
		fmt.Fprintf(w, "Wrote configuration to %s\n", result.Output)
	}
}

func presetNames(cfg *ir.BuildConfig) []string {
	names := make([]string, len(cfg.Presets))
	for i, p := range cfg.Presets {
		names[i] = p.Name
	}
	return names
}

func pluginNames(cfg *ir.BuildConfig) []string {
	names := make([]string, len(cfg.Plugins))
	for i, p := range cfg.Plugins {
		names[i] = p.Name
	}
	return names
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

func joinPath(dir, file string) string {
	if strings.HasSuffix(dir, "/") {
		return dir + file
	}
	return dir + "/" + file
}

func canonicalConfig(cfg *ir.BuildConfig) ([]byte, error) {
	v, err := cfg.Canonical()
	if err != nil {
		return nil, err
	}
	canonical, err := ir.MarshalCanonical(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling configuration: %w", err)
	}
	return canonical, nil
}

// bundleName renders the output filename for the main chunk. Hash
// placeholders take the content hash of the canonical configuration, so
// the name changes exactly when the configuration does.
func bundleName(cfg *ir.BuildConfig) (string, error) {
	p, err := filename.Parse(cfg.Output.Filename)
	if err != nil {
		return "", err
	}
	canonical, err := canonicalConfig(cfg)
	if err != nil {
		return "", err
	}
	return p.Render(filename.Vars{
		Name: mainChunk,
		ID:   mainChunk,
		Ext:  ".js",
		Hash: filename.ContentHash(canonical, filename.MaxHashLength),
	})
}

// writeConfigFile writes the configuration as indented canonical JSON.
// The file is replaced atomically: readers see the old or the new content,
// never a partial write.
func writeConfigFile(cfg *ir.BuildConfig, path string) error {
	canonical, err := canonicalConfig(cfg)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, canonical, "", "  "); err != nil {
		return fmt.Errorf("indenting configuration: %w", err)
	}
	buf.WriteByte('\n')

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if _, err := pending.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}
