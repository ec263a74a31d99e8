package compiler

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// ErrMalformedConfiguration is the single error kind for invalid
// declarations. Every CompileError and ValidationError unwraps to it.
var ErrMalformedConfiguration = errors.New("malformed configuration")

// Error codes (E100-E199).
const (
	ErrCodeCUE                = "E100" // CUE evaluation error
	ErrCodeMissingField       = "E101" // required field absent
	ErrCodeInvalidType        = "E102" // wrong kind or non-concrete value
	ErrCodeFloatForbidden     = "E103" // float in options
	ErrCodeEmptyOutputDir     = "E104" // output.dir empty
	ErrCodeInvalidFilename    = "E105" // output.filename pattern
	ErrCodeInvalidMatcher     = "E106" // rule test/exclude pattern
	ErrCodeInvalidExtension   = "E107" // extension without leading dot
	ErrCodeDuplicateExtension = "E108" // extension declared twice
	ErrCodeInvalidTarget      = "E109" // target runtime/version
	ErrCodeInvalidPort        = "E110" // dev server port out of range
	ErrCodeMissingHandler     = "E111" // rule without handler
	ErrCodeInvalidMode        = "E112" // unknown mode
	ErrCodeEmptyName          = "E113" // preset/plugin/page without name
	ErrCodeEmptyEntry         = "E114" // entry empty
)

// CompileError is a malformed declaration with its source position.
type CompileError struct {
	Field   string
	Code    string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrMalformedConfiguration) hold.
func (e *CompileError) Unwrap() error {
	return ErrMalformedConfiguration
}

// FormatCUEError converts a CUE load or evaluation error into a
// CompileError for the first reported problem. The loader uses it for
// declaration files that fail to parse or unify.
func FormatCUEError(field string, err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: field, Code: ErrCodeCUE, Message: err.Error()}
	}

	first := errs[0]
	ce := &CompileError{Field: field, Code: ErrCodeCUE, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
