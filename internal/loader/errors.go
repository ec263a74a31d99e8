package loader

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"

	"github.com/roach88/buildspec/internal/compiler"
)

// Error code constants, unified across all CLI commands. Declaration
// problems use the compiler's E1xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No declaration files found
	ErrCodeLoadFailed  = "E004" // Declaration file unreadable
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeEnvFailed   = "E008" // .env file unreadable
)

// LoadError represents a problem locating or reading declarations. It is
// not a malformed configuration.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the code carried by err, or ErrCodeGeneric.
func ErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var ve compiler.ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ErrCodeGeneric
}

// ErrorPos returns the source position carried by err, if any.
func ErrorPos(err error) token.Pos {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Pos
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Pos
	}
	return token.NoPos
}
