package harness

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Scenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(scenario.Assertions))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/frontend_defaults.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Run() not deterministic (-first +second):\n%s", diff)
	}
	assert.Equal(t, "test-session-default", first.SessionID)
}

func TestRun_IgnoresProcessEnvironment(t *testing.T) {
	t.Setenv("NODE_ENV", "production")

	result, err := Run(&Scenario{
		Name:        "env",
		Description: "d",
		Assertions:  []Assertion{{Type: AssertMode, Expect: "development"}},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FailingAssertions(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "failing",
		Description: "d",
		Assertions: []Assertion{
			{Type: AssertMode, Expect: "production"},
			{Type: AssertHandler, File: "app.css", Handler: "babel-loader"},
			{Type: AssertNoHandler, File: "app.js"},
		},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[1], "style-pipeline")
	assert.Contains(t, result.Errors[2], "babel-loader")
	assert.Len(t, result.Trace, 3)
}

func TestRun_LoadFailure(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/empty_output_dir.yaml")
	require.NoError(t, err)
	scenario.Assertions = []Assertion{{Type: AssertMode, Expect: "development"}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "E104", result.LoadError)
	assert.Empty(t, result.SessionID)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "load failed")
}

func TestRun_NilScenario(t *testing.T) {
	_, err := Run(nil)
	assert.Error(t, err)
}
