package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildspec/internal/compiler"
	"github.com/roach88/buildspec/internal/ir"
	"github.com/roach88/buildspec/internal/loader"
)

func testConfig() *ir.BuildConfig {
	return &ir.BuildConfig{
		Target:  ir.Target{Runtime: "node", Version: "16.13"},
		Presets: []ir.Preset{{Name: "env"}, {Name: "react"}},
		Plugins: []ir.Plugin{},
		Entry:   "./src/index.js",
		Output:  ir.Output{Dir: "/workspace/built", Filename: "[name].[contenthash:8].js"},
		Resolve: ir.Resolve{Extensions: []string{".js", ".jsx"}},
		Rules: []ir.Rule{
			{Test: "*.css", Handler: "style-pipeline"},
		},
		Mode: ir.ModeProduction,
	}
}

func testContext(t *testing.T, files ...string) *AssertionContext {
	t.Helper()
	actx, err := NewAssertionContext(testConfig(), files)
	require.NoError(t, err)
	return actx
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestAssertions(t *testing.T) {
	tests := []struct {
		name     string
		a        Assertion
		files    []string
		pass     bool
		observed any
	}{
		{"mode holds", Assertion{Type: AssertMode, Expect: "production"}, nil, true, "production"},
		{"mode differs", Assertion{Type: AssertMode, Expect: "development"}, nil, false, "production"},
		{"handler holds", Assertion{Type: AssertHandler, File: "app.css", Handler: "style-pipeline"}, nil, true, "style-pipeline"},
		{"handler differs", Assertion{Type: AssertHandler, File: "app.css", Handler: "css-loader"}, nil, false, "style-pipeline"},
		{"handler missing", Assertion{Type: AssertHandler, File: "app.js", Handler: "babel-loader"}, nil, false, nil},
		{"no handler holds", Assertion{Type: AssertNoHandler, File: "app.js"}, nil, true, nil},
		{"no handler differs", Assertion{Type: AssertNoHandler, File: "deep/app.css"}, nil, false, "style-pipeline"},
		{"candidates hold", Assertion{Type: AssertCandidates, Request: "x", Candidates: []string{"x.js", "x.jsx"}}, nil, true, []string{"x.js", "x.jsx"}},
		{"candidates order matters", Assertion{Type: AssertCandidates, Request: "x", Candidates: []string{"x.jsx", "x.js"}}, nil, false, []string{"x.js", "x.jsx"}},
		{"resolves first existing", Assertion{Type: AssertResolves, Request: "./src/App", Expect: "src/App.jsx"}, []string{"src/App.jsx"}, true, "src/App.jsx"},
		{"resolves prefers declared order", Assertion{Type: AssertResolves, Request: "src/App", Expect: "src/App.js"}, []string{"src/App.jsx", "src/App.js"}, true, "src/App.js"},
		{"resolves nothing", Assertion{Type: AssertResolves, Request: "src/Nope", Expect: "src/Nope.js"}, []string{"src/App.js"}, false, nil},
		{"filename default pattern", Assertion{Type: AssertFilename, HashTokens: intPtr(1), Suffix: strPtr(".js")}, nil, true, map[string]any{"hash_tokens": 1, "suffix": ".js"}},
		{"filename explicit pattern", Assertion{Type: AssertFilename, Pattern: "bundle.[hash].js", HashTokens: intPtr(1)}, nil, true, map[string]any{"hash_tokens": 1, "suffix": ".js"}},
		{"filename count differs", Assertion{Type: AssertFilename, Pattern: "[name].js", HashTokens: intPtr(1)}, nil, false, map[string]any{"hash_tokens": 0, "suffix": ".js"}},
		{"filename suffix differs", Assertion{Type: AssertFilename, Pattern: "[name].[hash]", Suffix: strPtr(".js")}, nil, false, map[string]any{"hash_tokens": 1, "suffix": ""}},
		{"filename invalid", Assertion{Type: AssertFilename, Pattern: "[bogus]", HashTokens: intPtr(0)}, nil, false, nil},
		{"order presets", Assertion{Type: AssertOrder, List: "presets", Names: []string{"env", "react"}}, nil, true, []string{"env", "react"}},
		{"order presets reversed", Assertion{Type: AssertOrder, List: "presets", Names: []string{"react", "env"}}, nil, false, []string{"env", "react"}},
		{"order empty plugins", Assertion{Type: AssertOrder, List: "plugins", Names: []string{}}, nil, true, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewResult()
			errs := EvaluateAssertions(result, []Assertion{tt.a}, testContext(t, tt.files...))

			if tt.pass {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Contains(t, errs[0], "Assertion failed: "+tt.a.Type)
			}
			require.Len(t, result.Trace, 1)
			assert.Equal(t, int64(1), result.Trace[0].Seq)
			assert.Equal(t, tt.a.Type, result.Trace[0].Type)
			assert.Equal(t, tt.observed, result.Trace[0].Observed)
		})
	}
}

func TestAssertLoadError(t *testing.T) {
	malformed := &compiler.CompileError{Field: "output.dir", Code: compiler.ErrCodeEmptyOutputDir, Message: "output directory must be non-empty"}
	notFound := &loader.LoadError{Code: loader.ErrCodeNotFound, Message: "declaration directory not found: x"}

	tests := []struct {
		name string
		a    Assertion
		err  error
		pass bool
	}{
		{"code matches", Assertion{Type: AssertLoadError, Code: "E104"}, malformed, true},
		{"code and field match", Assertion{Type: AssertLoadError, Code: "E104", Field: "output.dir"}, malformed, true},
		{"wrapped", Assertion{Type: AssertLoadError, Code: "E104"}, fmt.Errorf("session: %w", malformed), true},
		{"code differs", Assertion{Type: AssertLoadError, Code: "E106"}, malformed, false},
		{"field differs", Assertion{Type: AssertLoadError, Code: "E104", Field: "entry"}, malformed, false},
		{"not malformed", Assertion{Type: AssertLoadError, Code: "E005"}, notFound, false},
		{"loaded fine", Assertion{Type: AssertLoadError, Code: "E104"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actx := &AssertionContext{LoadErr: tt.err}
			if tt.err == nil {
				actx = testContext(t)
			}
			errs := EvaluateAssertions(NewResult(), []Assertion{tt.a}, actx)
			if tt.pass {
				assert.Empty(t, errs)
			} else {
				assert.Len(t, errs, 1)
			}
		})
	}
}

func TestAssertionsAfterLoadFailure(t *testing.T) {
	actx := &AssertionContext{LoadErr: errors.New("boom")}
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertMode, Expect: "production"}}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "load failed: boom")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "handler", Subject: "app.css", Expected: "handler x", Actual: "no rule applies"}
	assert.Equal(t, "Assertion failed: handler (app.css)\n  Expected: handler x\n  Actual: no rule applies", err.Error())
}

func TestNewAssertionContext_InvalidRule(t *testing.T) {
	cfg := testConfig()
	cfg.Rules = []ir.Rule{{Test: "/(/", Handler: "x"}}
	_, err := NewAssertionContext(cfg, nil)
	assert.Error(t, err)
}
