package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildspec/internal/ir"
)

func validConfig() *ir.BuildConfig {
	return &ir.BuildConfig{
		Target:  ir.Target{Runtime: "node", Version: "16.13"},
		Presets: []ir.Preset{{Name: "@babel/preset-env"}},
		Plugins: []ir.Plugin{{Name: "@babel/plugin-transform-runtime"}},
		Entry:   "./src/index.js",
		Output: ir.Output{
			Dir:        "/srv/app/built",
			Filename:   "bundle.[contenthash].js",
			Clean:      true,
			PublicPath: "/",
		},
		Resolve: ir.Resolve{Extensions: []string{".js", ".jsx"}},
		Rules: []ir.Rule{
			{Test: `/\.(js|jsx)$/`, Exclude: "/node_modules/", Handler: "babel-loader"},
			{Test: "*.css", Handler: "style-pipeline", Use: []string{"style-loader", "css-loader"}},
		},
		DevServer: ir.DevServer{HistoryFallback: true, Port: 4200, Open: true},
		Pages:     []ir.Page{{Template: "./public/index.html"}},
		Mode:      ir.ModeDevelopment,
	}
}

func fieldsOf(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validConfig()))
}

func TestValidateNil(t *testing.T) {
	errs := Validate(nil)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeMissingField, errs[0].Code)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ir.BuildConfig)
		field  string
		code   string
	}{
		{"empty runtime", func(c *ir.BuildConfig) { c.Target.Runtime = "" }, "target.runtime", ErrCodeInvalidTarget},
		{"bad version", func(c *ir.BuildConfig) { c.Target.Version = "sixteen" }, "target.version", ErrCodeInvalidTarget},
		{"empty preset name", func(c *ir.BuildConfig) { c.Presets[0].Name = " " }, "presets[0].name", ErrCodeEmptyName},
		{"empty plugin name", func(c *ir.BuildConfig) { c.Plugins[0].Name = "" }, "plugins[0].name", ErrCodeEmptyName},
		{"empty entry", func(c *ir.BuildConfig) { c.Entry = "" }, "entry", ErrCodeEmptyEntry},
		{"empty output dir", func(c *ir.BuildConfig) { c.Output.Dir = "" }, "output.dir", ErrCodeEmptyOutputDir},
		{"unterminated filename token", func(c *ir.BuildConfig) { c.Output.Filename = "bundle.[hash.js" }, "output.filename", ErrCodeInvalidFilename},
		{"extension without dot", func(c *ir.BuildConfig) { c.Resolve.Extensions = []string{"js"} }, "resolve.extensions[0]", ErrCodeInvalidExtension},
		{"extension with slash", func(c *ir.BuildConfig) { c.Resolve.Extensions = []string{"./js"} }, "resolve.extensions[0]", ErrCodeInvalidExtension},
		{"bare dot extension", func(c *ir.BuildConfig) { c.Resolve.Extensions = []string{"."} }, "resolve.extensions[0]", ErrCodeInvalidExtension},
		{"duplicate extension", func(c *ir.BuildConfig) { c.Resolve.Extensions = []string{".js", ".jsx", ".js"} }, "resolve.extensions[2]", ErrCodeDuplicateExtension},
		{"bad regex", func(c *ir.BuildConfig) { c.Rules[0].Test = "/([a-z/" }, "rules[0].test", ErrCodeInvalidMatcher},
		{"unknown regex flag", func(c *ir.BuildConfig) { c.Rules[0].Test = "/x/g" }, "rules[0].test", ErrCodeInvalidMatcher},
		{"bad exclude", func(c *ir.BuildConfig) { c.Rules[0].Exclude = "[" }, "rules[0].exclude", ErrCodeInvalidMatcher},
		{"empty handler", func(c *ir.BuildConfig) { c.Rules[1].Handler = "" }, "rules[1].handler", ErrCodeMissingHandler},
		{"empty loader", func(c *ir.BuildConfig) { c.Rules[1].Use[1] = "" }, "rules[1].use[1]", ErrCodeEmptyName},
		{"negative port", func(c *ir.BuildConfig) { c.DevServer.Port = -1 }, "dev_server.port", ErrCodeInvalidPort},
		{"port too large", func(c *ir.BuildConfig) { c.DevServer.Port = MaxPort + 1 }, "dev_server.port", ErrCodeInvalidPort},
		{"empty template", func(c *ir.BuildConfig) { c.Pages[0].Template = "" }, "pages[0].template", ErrCodeEmptyName},
		{"unknown mode", func(c *ir.BuildConfig) { c.Mode = "staging" }, "mode", ErrCodeInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			errs := Validate(cfg)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.True(t, errors.Is(errs[0], ErrMalformedConfiguration))
		})
	}
}

func TestValidatePortBounds(t *testing.T) {
	for _, port := range []int{0, 1, 4200, MaxPort} {
		cfg := validConfig()
		cfg.DevServer.Port = port
		assert.Empty(t, Validate(cfg), "port %d", port)
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := validConfig()
	cfg.Entry = ""
	cfg.Output.Dir = ""
	cfg.Rules[0].Test = "/(/"
	cfg.Mode = ""

	errs := Validate(cfg)
	assert.Equal(t, []string{"entry", "output.dir", "rules[0].test", "mode"}, fieldsOf(errs))
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Field: "output.dir", Message: "output directory must be non-empty", Code: ErrCodeEmptyOutputDir}
	assert.Equal(t, "[E104] output.dir: output directory must be non-empty", err.Error())

	err.Line = 7
	assert.Equal(t, "[E104] line 7: output.dir: output directory must be non-empty", err.Error())
}

func TestMatcherMessageStripsSentinel(t *testing.T) {
	cfg := validConfig()
	cfg.Rules[0].Test = "/x/g"

	errs := Validate(cfg)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "invalid matcher: ")
	assert.NotContains(t, errs[0].Message, "invalid matcher: invalid matcher")
}
