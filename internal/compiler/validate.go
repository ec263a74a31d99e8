package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/roach88/buildspec/internal/filename"
	"github.com/roach88/buildspec/internal/ir"
	"github.com/roach88/buildspec/internal/match"
)

// MaxPort is the highest dev server port.
const MaxPort = 65535

// ValidationError is a semantic problem in a compiled configuration.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrMalformedConfiguration) hold.
func (e ValidationError) Unwrap() error {
	return ErrMalformedConfiguration
}

// Validate checks a configuration and returns every problem found. It does
// not fail fast. Configurations built in code can be checked with it too.
func Validate(cfg *ir.BuildConfig) []ValidationError {
	if cfg == nil {
		return []ValidationError{{Field: BuildPath, Message: "configuration is nil", Code: ErrCodeMissingField}}
	}

	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	// target
	if strings.TrimSpace(cfg.Target.Runtime) == "" {
		add("target.runtime", ErrCodeInvalidTarget, "target runtime is required")
	}
	if _, err := semver.NewVersion(cfg.Target.Version); err != nil {
		add("target.version", ErrCodeInvalidTarget, "invalid target version %q: %v", cfg.Target.Version, err)
	}

	// presets and plugins
	for i, p := range cfg.Presets {
		if strings.TrimSpace(p.Name) == "" {
			add(fmt.Sprintf("presets[%d].name", i), ErrCodeEmptyName, "preset name is required")
		}
	}
	for i, p := range cfg.Plugins {
		if strings.TrimSpace(p.Name) == "" {
			add(fmt.Sprintf("plugins[%d].name", i), ErrCodeEmptyName, "plugin name is required")
		}
	}

	if strings.TrimSpace(cfg.Entry) == "" {
		add("entry", ErrCodeEmptyEntry, "entry point must be non-empty")
	}

	// output
	if strings.TrimSpace(cfg.Output.Dir) == "" {
		add("output.dir", ErrCodeEmptyOutputDir, "output directory must be non-empty")
	}
	if _, err := filename.Parse(cfg.Output.Filename); err != nil {
		add("output.filename", ErrCodeInvalidFilename, "%v", err)
	}

	// resolution
	seen := make(map[string]int, len(cfg.Resolve.Extensions))
	for i, ext := range cfg.Resolve.Extensions {
		field := fmt.Sprintf("resolve.extensions[%d]", i)
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext, `/\`) {
			add(field, ErrCodeInvalidExtension, "extension %q must be a dot followed by a suffix", ext)
			continue
		}
		if j, dup := seen[ext]; dup {
			add(field, ErrCodeDuplicateExtension, "extension %q already declared at index %d", ext, j)
			continue
		}
		seen[ext] = i
	}

	// transform rules
	for i, r := range cfg.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if _, err := match.Compile(r.Test); err != nil {
			add(field+".test", ErrCodeInvalidMatcher, "%s", matcherMessage(err))
		}
		if r.Exclude != "" {
			if _, err := match.Compile(r.Exclude); err != nil {
				add(field+".exclude", ErrCodeInvalidMatcher, "%s", matcherMessage(err))
			}
		}
		if strings.TrimSpace(r.Handler) == "" {
			add(field+".handler", ErrCodeMissingHandler, "rule handler is required")
		}
		for j, u := range r.Use {
			if strings.TrimSpace(u) == "" {
				add(fmt.Sprintf("%s.use[%d]", field, j), ErrCodeEmptyName, "loader name is required")
			}
		}
	}

	// dev server
	if cfg.DevServer.Port < 0 || cfg.DevServer.Port > MaxPort {
		add("dev_server.port", ErrCodeInvalidPort, "port %d out of range 0..%d", cfg.DevServer.Port, MaxPort)
	}

	for i, p := range cfg.Pages {
		if strings.TrimSpace(p.Template) == "" {
			add(fmt.Sprintf("pages[%d].template", i), ErrCodeEmptyName, "page template is required")
		}
	}

	if !ir.ValidModes[cfg.Mode] {
		add("mode", ErrCodeInvalidMode, "invalid mode %q, must be %q or %q", cfg.Mode, ir.ModeDevelopment, ir.ModeProduction)
	}

	return errs
}

// matcherMessage strips the sentinel prefix for readability.
func matcherMessage(err error) string {
	msg := err.Error()
	if errors.Is(err, match.ErrInvalidPattern) {
		msg = strings.TrimPrefix(msg, match.ErrInvalidPattern.Error()+": ")
	}
	return "invalid matcher: " + msg
}
