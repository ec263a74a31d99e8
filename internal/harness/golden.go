package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/buildspec/internal/ir"
)

// Snapshot captures everything a scenario run decided.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	SessionID    string       `json:"session_id,omitempty"`
	Mode         string       `json:"mode,omitempty"`
	ConfigHash   string       `json:"config_hash,omitempty"`
	LoadError    string       `json:"load_error,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// NewSnapshot builds the snapshot of a finished run.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		SessionID:    result.SessionID,
		Mode:         result.Mode,
		ConfigHash:   result.ConfigHash,
		LoadError:    result.LoadError,
		Trace:        result.Trace,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. Empty fields are omitted.
func (s Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := map[string]any{
			"seq":  event.Seq,
			"type": event.Type,
		}
		if event.Subject != "" {
			m["subject"] = event.Subject
		}
		if event.Observed != nil {
			m["observed"] = event.Observed
		}
		trace[i] = m
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
	for k, v := range map[string]string{
		"session_id":  s.SessionID,
		"mode":        s.Mode,
		"config_hash": s.ConfigHash,
		"load_error":  s.LoadError,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// GoldenPath returns where the golden file for a scenario file lives:
// golden/<name>.golden next to the scenario.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// WriteGolden writes the snapshot to path, creating the golden directory.
func WriteGolden(path string, s Snapshot) error {
	data, err := s.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the snapshot matches the golden file at path.
func CompareGolden(path string, s Snapshot) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := s.MarshalCanonical()
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return bytes.Equal(want, got), nil
}

// RunWithGolden executes a scenario and compares the snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
