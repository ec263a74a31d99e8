package harness

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"testing/fstest"

	"github.com/roach88/buildspec/internal/compiler"
	"github.com/roach88/buildspec/internal/filename"
	"github.com/roach88/buildspec/internal/ir"
	"github.com/roach88/buildspec/internal/loader"
	"github.com/roach88/buildspec/internal/match"
	"github.com/roach88/buildspec/internal/resolve"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Subject  string // What was asked, e.g. the file or request
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Subject != "" {
		fmt.Fprintf(&buf, " (%s)", e.Subject)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// AssertionContext is what assertions are evaluated against. Exactly one
// of Config and LoadErr is set.
type AssertionContext struct {
	Config  *ir.BuildConfig
	Rules   *match.Rules
	Files   fs.FS
	LoadErr error
}

// NewAssertionContext compiles the configuration's rules and builds an
// in-memory file tree from files.
func NewAssertionContext(cfg *ir.BuildConfig, files []string) (*AssertionContext, error) {
	rules, err := match.CompileRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	fsys := fstest.MapFS{}
	for _, f := range files {
		fsys[strings.TrimPrefix(f, "./")] = &fstest.MapFile{}
	}
	return &AssertionContext{Config: cfg, Rules: rules, Files: fsys}, nil
}

// EvaluateAssertions checks every assertion, records one trace event per
// assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		subject, observed, err := evaluate(a, actx)
		result.AddTrace(a.Type, subject, observed)
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(a Assertion, actx *AssertionContext) (string, any, error) {
	if a.Type == AssertLoadError {
		return assertLoadError(a, actx.LoadErr)
	}
	if actx.Config == nil {
		return "", nil, &AssertionError{
			Type:     a.Type,
			Expected: "configuration to load",
			Actual:   fmt.Sprintf("load failed: %v", actx.LoadErr),
		}
	}

	switch a.Type {
	case AssertMode:
		return assertMode(actx.Config, a)
	case AssertHandler:
		return assertHandler(actx.Rules, a)
	case AssertNoHandler:
		return assertNoHandler(actx.Rules, a)
	case AssertCandidates:
		return assertCandidates(actx.Config, a)
	case AssertResolves:
		return assertResolves(actx.Config, actx.Files, a)
	case AssertFilename:
		return assertFilename(actx.Config, a)
	case AssertOrder:
		return assertOrder(actx.Config, a)
	default:
		return "", nil, fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertMode checks the mode computed from the environment signal.
func assertMode(cfg *ir.BuildConfig, a Assertion) (string, any, error) {
	got := string(cfg.Mode)
	if got != a.Expect {
		return "", got, &AssertionError{Type: a.Type, Expected: a.Expect, Actual: got}
	}
	return "", got, nil
}

// assertHandler checks that File is routed to Handler.
func assertHandler(rules *match.Rules, a Assertion) (string, any, error) {
	rule, _, ok := rules.Lookup(a.File)
	if !ok {
		return a.File, nil, &AssertionError{
			Type:     a.Type,
			Subject:  a.File,
			Expected: fmt.Sprintf("handler %s", a.Handler),
			Actual:   "no rule applies",
		}
	}
	if rule.Handler != a.Handler {
		return a.File, rule.Handler, &AssertionError{
			Type:     a.Type,
			Subject:  a.File,
			Expected: fmt.Sprintf("handler %s", a.Handler),
			Actual:   fmt.Sprintf("handler %s (rule %s)", rule.Handler, rule.Test),
		}
	}
	return a.File, rule.Handler, nil
}

// assertNoHandler checks that no rule applies to File.
func assertNoHandler(rules *match.Rules, a Assertion) (string, any, error) {
	rule, _, ok := rules.Lookup(a.File)
	if ok {
		return a.File, rule.Handler, &AssertionError{
			Type:     a.Type,
			Subject:  a.File,
			Expected: "no rule applies",
			Actual:   fmt.Sprintf("handler %s (rule %s)", rule.Handler, rule.Test),
		}
	}
	return a.File, nil, nil
}

// assertCandidates checks the extension candidates for Request, in order.
func assertCandidates(cfg *ir.BuildConfig, a Assertion) (string, any, error) {
	got := resolve.Candidates(a.Request, cfg.Resolve.Extensions)
	if !slices.Equal(got, a.Candidates) {
		return a.Request, got, &AssertionError{
			Type:     a.Type,
			Subject:  a.Request,
			Expected: fmt.Sprintf("%v", a.Candidates),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return a.Request, got, nil
}

// assertResolves checks which scenario file Request resolves to.
func assertResolves(cfg *ir.BuildConfig, files fs.FS, a Assertion) (string, any, error) {
	got, err := resolve.Resolve(files, a.Request, cfg.Resolve.Extensions)
	if err != nil {
		return a.Request, nil, &AssertionError{
			Type:     a.Type,
			Subject:  a.Request,
			Expected: a.Expect,
			Actual:   err.Error(),
		}
	}
	want := strings.TrimPrefix(a.Expect, "./")
	if got != want {
		return a.Request, got, &AssertionError{Type: a.Type, Subject: a.Request, Expected: want, Actual: got}
	}
	return a.Request, got, nil
}

// assertFilename checks the placeholders of an output filename pattern.
func assertFilename(cfg *ir.BuildConfig, a Assertion) (string, any, error) {
	raw := a.Pattern
	if raw == "" {
		raw = cfg.Output.Filename
	}
	p, err := filename.Parse(raw)
	if err != nil {
		return raw, nil, &AssertionError{Type: a.Type, Subject: raw, Expected: "valid pattern", Actual: err.Error()}
	}

	observed := map[string]any{
		"hash_tokens": p.HashTokens(),
		"suffix":      p.Suffix(),
	}
	if a.HashTokens != nil && p.HashTokens() != *a.HashTokens {
		return raw, observed, &AssertionError{
			Type:     a.Type,
			Subject:  raw,
			Expected: fmt.Sprintf("%d hash placeholder(s)", *a.HashTokens),
			Actual:   fmt.Sprintf("%d", p.HashTokens()),
		}
	}
	if a.Suffix != nil && p.Suffix() != *a.Suffix {
		return raw, observed, &AssertionError{
			Type:     a.Type,
			Subject:  raw,
			Expected: fmt.Sprintf("suffix %q", *a.Suffix),
			Actual:   fmt.Sprintf("suffix %q", p.Suffix()),
		}
	}
	return raw, observed, nil
}

// assertOrder checks that presets or plugins keep their declared order.
func assertOrder(cfg *ir.BuildConfig, a Assertion) (string, any, error) {
	var got []string
	switch a.List {
	case "presets":
		for _, p := range cfg.Presets {
			got = append(got, p.Name)
		}
	case "plugins":
		for _, p := range cfg.Plugins {
			got = append(got, p.Name)
		}
	}
	if got == nil {
		got = []string{}
	}
	if !slices.Equal(got, a.Names) {
		return a.List, got, &AssertionError{
			Type:     a.Type,
			Subject:  a.List,
			Expected: fmt.Sprintf("%v", a.Names),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return a.List, got, nil
}

// assertLoadError checks that loading failed as a malformed configuration
// with the expected code and, when given, field.
func assertLoadError(a Assertion, loadErr error) (string, any, error) {
	if loadErr == nil {
		return a.Field, nil, &AssertionError{
			Type:     a.Type,
			Subject:  a.Field,
			Expected: fmt.Sprintf("malformed configuration %s", a.Code),
			Actual:   "configuration loaded",
		}
	}

	code := loader.ErrorCode(loadErr)
	if !errors.Is(loadErr, compiler.ErrMalformedConfiguration) {
		return a.Field, code, &AssertionError{
			Type:     a.Type,
			Subject:  a.Field,
			Expected: fmt.Sprintf("malformed configuration %s", a.Code),
			Actual:   loadErr.Error(),
		}
	}
	if code != a.Code {
		return a.Field, code, &AssertionError{Type: a.Type, Subject: a.Field, Expected: a.Code, Actual: loadErr.Error()}
	}

	if a.Field != "" {
		var ce *compiler.CompileError
		if !errors.As(loadErr, &ce) || ce.Field != a.Field {
			return a.Field, code, &AssertionError{
				Type:     a.Type,
				Subject:  a.Field,
				Expected: fmt.Sprintf("error at %s", a.Field),
				Actual:   loadErr.Error(),
			}
		}
	}
	return a.Field, code, nil
}
