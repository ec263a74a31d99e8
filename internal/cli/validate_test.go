package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/buildspec/internal/compiler"
	"github.com/roach88/buildspec/internal/loader"
)

func TestValidateDefaults(t *testing.T) {
	out, _, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Embedded defaults valid")
	assert.Contains(t, out, "development")
}

func TestValidateDirectory(t *testing.T) {
	out, _, err := execute(t, "validate", declDir)
	require.NoError(t, err)
	assert.Equal(t, "✓ Declarations valid (1 file(s), 2 rule(s), development)\n", out)
}

func TestValidateDirectoryJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", declDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Rules)
}

func TestValidateReportsAllProblems(t *testing.T) {
	dir := writeDecl(t, "build.cue", `package app

build: {
	target: {runtime: "node", version: "18.19"}
	entry: ""
	output: {dir: "dist", filename: "bundle.[nope].js"}
	resolve: extensions: ["js", ".js", ".js"]
	rules: [{test: "*.css", handler: ""}]
	devServer: port: 70000
}
`)

	out, _, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	for _, want := range []string{
		compiler.ErrCodeEmptyEntry + ": entry",
		compiler.ErrCodeInvalidFilename + ": output.filename",
		compiler.ErrCodeInvalidExtension + ": resolve.extensions[0]",
		compiler.ErrCodeDuplicateExtension + ": resolve.extensions[2]",
		compiler.ErrCodeMissingHandler + ": rules[0].handler",
		compiler.ErrCodeInvalidPort + ": dev_server.port",
	} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "build.cue:", "problems carry source positions")
}

func TestValidateErrorsJSON(t *testing.T) {
	dir := writeDecl(t, "build.yaml", `build:
  target: {runtime: node, version: "18.19"}
  entry: ./src/index.js
  output: {dir: "  ", filename: bundle.js}
  resolve: {extensions: [.js]}
  rules:
    - {test: "/(/", handler: babel-loader}
`)

	out, _, err := execute(t, "--format", "json", "validate", dir)
	require.Error(t, err)

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string        `json:"code"`
			Details []ErrorDetail `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, compiler.ErrCodeEmptyOutputDir, resp.Error.Details[0].Code)
	assert.Equal(t, "output.dir", resp.Error.Details[0].Field)
	assert.Equal(t, compiler.ErrCodeInvalidMatcher, resp.Error.Details[1].Code)
	assert.Equal(t, "rules[0].test", resp.Error.Details[1].Field)
}

func TestValidateLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
		code string
	}{
		{
			name: "missing_directory",
			dir:  func(t *testing.T) string { return "/nonexistent/decl" },
			code: loader.ErrCodeNotFound,
		},
		{
			name: "empty_directory",
			dir:  func(t *testing.T) string { return t.TempDir() },
			code: loader.ErrCodeNoFiles,
		},
		{
			name: "cue_syntax_error",
			dir: func(t *testing.T) string {
				return writeDecl(t, "build.cue", "package app\n\nbuild: {\n")
			},
			code: compiler.ErrCodeCUE + ": build",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "validate", tt.dir(t))
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, "✗ Validation failed")
			assert.Contains(t, out, tt.code)
		})
	}
}
