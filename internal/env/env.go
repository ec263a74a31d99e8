// Package env reads the environment signal that selects the build mode.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/buildspec/internal/ir"
)

// ModeVariable is the variable consulted for the build mode.
const ModeVariable = "NODE_ENV"

// Source looks up environment variables.
type Source interface {
	Lookup(key string) (string, bool)
}

// MapSource is a fixed set of variables. Tests use it in place of the
// process environment.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Process reads the process environment.
type Process struct{}

// Lookup implements Source.
func (Process) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Layered consults each source in order and returns the first hit.
type Layered []Source

// Lookup implements Source.
func (l Layered) Lookup(key string) (string, bool) {
	for _, s := range l {
		if s == nil {
			continue
		}
		if v, ok := s.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// WithDotenv layers values from .env files underneath base, so variables
// already set in base win. Files are read with godotenv; the process
// environment is never modified. Missing files are skipped.
func WithDotenv(base Source, files ...string) (Source, error) {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", f, err)
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return base, nil
	}

	values, err := godotenv.Read(existing...)
	if err != nil {
		return nil, fmt.Errorf("read env files: %w", err)
	}
	return Layered{base, MapSource(values)}, nil
}

// ResolveMode maps the mode variable to a build mode. Only the exact value
// "production" selects production; absence or any other value selects
// development.
func ResolveMode(src Source) ir.Mode {
	if src == nil {
		return ir.ModeDevelopment
	}
	if v, ok := src.Lookup(ModeVariable); ok && v == string(ir.ModeProduction) {
		return ir.ModeProduction
	}
	return ir.ModeDevelopment
}
