package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/roach88/buildspec/internal/compiler"
	"github.com/roach88/buildspec/internal/loader"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Negative answer (no handler, scenarios failed)
	ExitCommandError = 2 // Command error (malformed configuration, invalid paths)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles text, JSON and YAML output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool

	logger *zerolog.Logger
}

// CLIResponse is the standard response envelope for CLI output.
type CLIResponse struct {
	Status string    `json:"status" yaml:"status"`                   // "ok" or "error"
	Data   any       `json:"data,omitempty" yaml:"data,omitempty"`   // success payload
	Error  *CLIError `json:"error,omitempty" yaml:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code" yaml:"code"`                           // "E001", "E104", etc.
	Message string `json:"message" yaml:"message"`                     // human-readable message
	Details any    `json:"details,omitempty" yaml:"details,omitempty"` // additional context
}

// Structured reports whether output is machine readable.
func (f *OutputFormatter) Structured() bool {
	return f.Format == "json" || f.Format == "yaml"
}

// Encode writes a response envelope in the configured structured format.
func (f *OutputFormatter) Encode(resp CLIResponse) error {
	if f.Format == "yaml" {
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	}
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Structured() {
		return f.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Structured() {
		return f.Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Logger returns the diagnostic logger. It writes console-formatted lines
// to the error writer and is silent unless Verbose is set.
func (f *OutputFormatter) Logger() *zerolog.Logger {
	if f.logger == nil {
		level := zerolog.Disabled
		if f.Verbose {
			level = zerolog.DebugLevel
		}
		logger := zerolog.New(zerolog.ConsoleWriter{
			Out:          f.GetErrWriter(),
			NoColor:      true,
			PartsExclude: []string{zerolog.TimestampFieldName},
		}).Level(level)
		f.logger = &logger
	}
	return f.logger
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Logs go to ErrWriter when set, so JSON and YAML output stay clean.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	f.Logger().Debug().Msgf(format, args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// ErrorDetail is one problem in a structured error response.
type ErrorDetail struct {
	Code    string `json:"code" yaml:"code"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	Message string `json:"message" yaml:"message"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column  int    `json:"column,omitempty" yaml:"column,omitempty"`
}

// describeError extracts code, field, message and position from a loader
// or compiler error.
func describeError(err error) ErrorDetail {
	d := ErrorDetail{Code: loader.ErrorCode(err), Message: err.Error()}

	var ce *compiler.CompileError
	var ve compiler.ValidationError
	var le *loader.LoadError
	switch {
	case errors.As(err, &ce):
		d.Field = ce.Field
		d.Message = ce.Message
	case errors.As(err, &ve):
		d.Field = ve.Field
		d.Message = ve.Message
		d.Line = ve.Line
	case errors.As(err, &le):
		d.Message = le.Message
	}

	if pos := loader.ErrorPos(err); pos.IsValid() {
		d.File = pos.Filename()
		d.Line = pos.Line()
		d.Column = pos.Column()
	}
	return d
}

// outputLoadErrors renders one or more load problems and returns the
// command error. All of them are command-level errors (exit code 2).
func outputLoadErrors(formatter *OutputFormatter, action string, errs []error) error {
	details := make([]ErrorDetail, len(errs))
	for i, err := range errs {
		details[i] = describeError(err)
	}

	if formatter.Structured() {
		first := details[0]
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
				Details: details,
			},
		}); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("%s failed with %d error(s)", action, len(errs)))
	}

	fmt.Fprintf(formatter.Writer, "✗ %s failed\n\n", capitalize(action))
	for _, d := range details {
		if d.File != "" {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", d.File, d.Line, d.Column)
		}
		if d.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", d.Code, d.Field, d.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", d.Code, d.Message)
		}
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("%s failed with %d error(s)", action, len(errs)))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
