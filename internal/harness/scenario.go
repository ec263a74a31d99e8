package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario loads one configuration under a fixed environment and asserts
// on what the loaded configuration decides.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Declarations is a directory of CUE/YAML declarations, relative to
	// the scenario file. Empty selects the embedded defaults.
	Declarations string `yaml:"declarations,omitempty"`

	// Root is where relative output paths resolve. Defaults to DefaultRoot
	// so that golden files do not depend on the checkout location.
	Root string `yaml:"root,omitempty"`

	// Env is the complete environment seen by the loader. The process
	// environment is never consulted.
	Env map[string]string `yaml:"env,omitempty"`

	// Files lists the slash-separated paths that exist for resolves
	// assertions. They form an in-memory file system independent of Root.
	Files []string `yaml:"files,omitempty"`

	// Assertions validate the loaded configuration.
	// Supported types: mode, handler, no_handler, candidates, resolves,
	// filename, order, load_error
	Assertions []Assertion `yaml:"assertions"`

	// SessionID is an optional fixed session ID for deterministic tests.
	// If empty, defaults to "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`
}

// DefaultRoot is the root used when a scenario does not set one.
const DefaultRoot = "/workspace"

// Assertion validates one decision of the loaded configuration.
type Assertion struct {
	// Type specifies the assertion type:
	// - "mode": the session mode equals Expect
	// - "handler": File is routed to Handler
	// - "no_handler": no rule applies to File
	// - "candidates": Request expands to Candidates, in order
	// - "resolves": Request resolves to Expect among the scenario Files
	// - "filename": Pattern (default output.filename) has HashTokens hash
	//   placeholders and ends with Suffix
	// - "order": the names in List ("presets" or "plugins") equal Names
	// - "load_error": loading fails as a malformed configuration with
	//   Code, optionally at Field
	Type string `yaml:"type"`

	// Expect is the expected mode or resolved path.
	Expect string `yaml:"expect,omitempty"`

	// File is the source path (used by handler, no_handler).
	File string `yaml:"file,omitempty"`

	// Handler is the expected handler (used by handler).
	Handler string `yaml:"handler,omitempty"`

	// Request is the module request (used by candidates, resolves).
	Request string `yaml:"request,omitempty"`

	// Candidates is the expected candidate order (used by candidates).
	Candidates []string `yaml:"candidates,omitempty"`

	// Pattern overrides output.filename (used by filename).
	Pattern string `yaml:"pattern,omitempty"`

	// HashTokens is the expected number of hash placeholders (used by filename).
	HashTokens *int `yaml:"hash_tokens,omitempty"`

	// Suffix is the expected trailing literal (used by filename).
	Suffix *string `yaml:"suffix,omitempty"`

	// List is "presets" or "plugins" (used by order).
	List string `yaml:"list,omitempty"`

	// Names is the expected declared order (used by order).
	Names []string `yaml:"names,omitempty"`

	// Code is the expected error code (used by load_error).
	Code string `yaml:"code,omitempty"`

	// Field is the expected error field (used by load_error).
	Field string `yaml:"field,omitempty"`
}

// Assertion type constants.
const (
	AssertMode       = "mode"
	AssertHandler    = "handler"
	AssertNoHandler  = "no_handler"
	AssertCandidates = "candidates"
	AssertResolves   = "resolves"
	AssertFilename   = "filename"
	AssertOrder      = "order"
	AssertLoadError  = "load_error"
)

// LoadScenario reads and parses a scenario YAML file. The declarations
// directory is resolved relative to the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the declarations directory relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Declarations != "" && !filepath.IsAbs(scenario.Declarations) && basePath != "" {
		scenario.Declarations = filepath.Join(basePath, scenario.Declarations)
	}
	if scenario.Declarations != "" {
		if _, err := os.Stat(scenario.Declarations); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: declarations directory not found: %s", scenario.Declarations)
		}
	}

	return scenario, nil
}

// ParseScenario decodes a scenario without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	loadErrors := 0
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
		if assertion.Type == AssertLoadError {
			loadErrors++
		}
	}
	if loadErrors > 0 && loadErrors != len(s.Assertions) {
		return fmt.Errorf("load_error assertions cannot be mixed with other assertion types")
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertMode:
		if a.Expect == "" {
			return fmt.Errorf("assertions[%d]: expect is required for mode", index)
		}
	case AssertHandler:
		if a.File == "" || a.Handler == "" {
			return fmt.Errorf("assertions[%d]: file and handler are required for handler", index)
		}
	case AssertNoHandler:
		if a.File == "" {
			return fmt.Errorf("assertions[%d]: file is required for no_handler", index)
		}
	case AssertCandidates:
		if a.Request == "" {
			return fmt.Errorf("assertions[%d]: request is required for candidates", index)
		}
		if len(a.Candidates) == 0 {
			return fmt.Errorf("assertions[%d]: candidates list is required for candidates", index)
		}
	case AssertResolves:
		if a.Request == "" || a.Expect == "" {
			return fmt.Errorf("assertions[%d]: request and expect are required for resolves", index)
		}
	case AssertFilename:
		if a.HashTokens == nil && a.Suffix == nil {
			return fmt.Errorf("assertions[%d]: hash_tokens or suffix is required for filename", index)
		}
		if a.HashTokens != nil && *a.HashTokens < 0 {
			return fmt.Errorf("assertions[%d]: hash_tokens must be non-negative for filename", index)
		}
	case AssertOrder:
		if a.List != "presets" && a.List != "plugins" {
			return fmt.Errorf("assertions[%d]: list must be presets or plugins for order", index)
		}
		if a.Names == nil {
			return fmt.Errorf("assertions[%d]: names list is required for order", index)
		}
	case AssertLoadError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for load_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
