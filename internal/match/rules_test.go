package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildspec/internal/ir"
)

func defaultRules() []ir.Rule {
	return []ir.Rule{
		{Test: `/\.(js|jsx)$/`, Exclude: "/node_modules/", Handler: "babel-loader"},
		{Test: `/\.css$/i`, Handler: "style-pipeline", Use: []string{"style-loader", "css-loader"}},
		{Test: `/\.(png|jpe?g|gif|svg)$/i`, Handler: "asset/resource", Type: "asset/resource"},
	}
}

func TestHandlerCSSRule(t *testing.T) {
	rules := []ir.Rule{{Test: "*.css", Handler: "style-pipeline"}}

	rule, ok, err := Handler(rules, "app.css")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "style-pipeline", rule.Handler)

	_, ok, err = Handler(rules, "app.js")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupFirstMatchWins(t *testing.T) {
	rules := []ir.Rule{
		{Test: "*.js", Handler: "first"},
		{Test: `/\.js$/`, Handler: "second"},
	}
	set, err := CompileRules(rules)
	require.NoError(t, err)

	rule, idx, ok := set.Lookup("index.js")
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "first", rule.Handler)
}

func TestLookupExclusionFallsThrough(t *testing.T) {
	rules := []ir.Rule{
		{Test: `/\.js$/`, Exclude: "/node_modules/", Handler: "babel-loader"},
		{Test: "**/*.js", Handler: "passthrough"},
	}
	set, err := CompileRules(rules)
	require.NoError(t, err)

	rule, idx, ok := set.Lookup("node_modules/react/index.js")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "passthrough", rule.Handler)

	rule, _, ok = set.Lookup("src/index.js")
	require.True(t, ok)
	assert.Equal(t, "babel-loader", rule.Handler)
}

func TestLookupDefaults(t *testing.T) {
	set, err := CompileRules(defaultRules())
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())

	tests := []struct {
		file    string
		handler string
		ok      bool
	}{
		{"src/index.js", "babel-loader", true},
		{"src/App.jsx", "babel-loader", true},
		{"node_modules/react/index.js", "", false},
		{"src/app.css", "style-pipeline", true},
		{"public/logo.svg", "asset/resource", true},
		{"README.md", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			rule, _, ok := set.Lookup(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.handler, rule.Handler)
		})
	}
}

func TestCompileRulesNamesOffendingRule(t *testing.T) {
	rules := []ir.Rule{
		{Test: "*.js", Handler: "ok"},
		{Test: "*.css", Exclude: "/(/", Handler: "bad"},
	}

	_, err := CompileRules(rules)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPattern)
	assert.Contains(t, err.Error(), "rules[1].exclude")
}
