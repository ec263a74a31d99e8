package harness

import (
	"context"
	"fmt"

	"github.com/roach88/buildspec/internal/env"
	"github.com/roach88/buildspec/internal/loader"
	"github.com/roach88/buildspec/internal/session"
	"github.com/roach88/buildspec/internal/testutil"
)

// Run executes a test scenario and returns the result.
//
// Each scenario runs with its own environment, a deterministic clock and a
// fixed session ID, so repeated runs produce identical traces.
//
// Execution flow:
//  1. Load the configuration from the scenario's declarations and env
//  2. Start a session around it
//  3. Evaluate assertions in order, tracing each one
//
// A configuration that fails to load is not an execution error: load_error
// assertions expect it, every other assertion fails.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}

	root := scenario.Root
	if root == "" {
		root = DefaultRoot
	}
	src := env.MapSource{}
	for k, v := range scenario.Env {
		src[k] = v
	}

	result := NewResult()
	actx := &AssertionContext{}

	sess, err := session.Start(ctx, session.Options{
		Loader: loader.Options{
			Dir:  scenario.Declarations,
			Root: root,
			Env:  src,
		},
		Clock: testutil.NewDeterministicClock().Now,
		NewID: testutil.FixedID(scenario.SessionID),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		result.LoadError = loader.ErrorCode(err)
		actx.LoadErr = err
	} else {
		result.SessionID = sess.ID
		result.Mode = string(sess.Mode())
		result.ConfigHash = sess.Hash

		actx, err = NewAssertionContext(sess.Config, scenario.Files)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rules: %w", err)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}
