package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"

	"github.com/roach88/axiom/internal/config"
	"github.com/roach88/axiom/internal/coord"
	"github.com/roach88/axiom/internal/seed"
	"github.com/roach88/axiom/internal/space"
	"github.com/roach88/axiom/internal/wrapper"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Test/validation failure (scenarios failed, broken chain, etc.)
	ExitCommandError = 2 // Command error (invalid paths, bad seed document, unknown label, etc.)
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeNotFound   = "E002" // Path not found
	ErrCodeInvalidDoc = "E003" // Seed document failed to parse or validate
	ErrCodeUnknownKey = "E004" // Seed references an undeclared key
	ErrCodeConfig     = "E005" // Invalid configuration

	// Space errors
	ErrCodeCoordinate   = "E101" // Malformed or out-of-range coordinate
	ErrCodeDuplicate    = "E102" // Coordinate already taken
	ErrCodeUnknownNode  = "E103" // Node not in space
	ErrCodeRelationKind = "E104" // Unknown relation kind
	ErrCodeFork         = "E105" // No fork, or not a branch

	// Query and decision errors
	ErrCodeNoSuchLabel = "E201" // No node carries the label
	ErrCodeDeriveOp    = "E202" // Unknown derivation
	ErrCodeDecision    = "E203" // Strategy could not be applied
)

// errPathNotFound marks a missing input file or directory.
var errPathNotFound = errors.New("path not found")

// ErrorCode maps an error to its CLI error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, errPathNotFound):
		return ErrCodeNotFound
	case errors.Is(err, seed.ErrUnknownKey):
		return ErrCodeUnknownKey
	case errors.Is(err, seed.ErrInvalidDocument):
		return ErrCodeInvalidDoc
	case errors.Is(err, config.ErrInvalid):
		return ErrCodeConfig
	case errors.Is(err, coord.ErrFormat), errors.Is(err, coord.ErrRange):
		return ErrCodeCoordinate
	case errors.Is(err, space.ErrDuplicateCoordinate):
		return ErrCodeDuplicate
	case errors.Is(err, space.ErrUnknownNode):
		return ErrCodeUnknownNode
	case errors.Is(err, space.ErrUnknownRelationKind):
		return ErrCodeRelationKind
	case errors.Is(err, space.ErrNoFork), errors.Is(err, space.ErrNotABranch):
		return ErrCodeFork
	case errors.Is(err, errUnknownDerive):
		return ErrCodeDeriveOp
	case errors.Is(err, wrapper.ErrNoSuchLabel):
		return ErrCodeNoSuchLabel
	case errors.Is(err, wrapper.ErrUnknownStrategy), errors.Is(err, wrapper.ErrMissingContext), errors.Is(err, wrapper.ErrInvalidInput):
		return ErrCodeDecision
	default:
		return ErrCodeGeneric
	}
}

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	reported bool // already written by OutputFormatter.Fail
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
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail writes err in the configured format and returns an ExitError with
// the given exit code, marked as already reported.
func (f *OutputFormatter) Fail(exit int, message string, err error) error {
	exitErr := &ExitError{Code: exit, Message: message, Err: err, reported: true}
	if outErr := f.Error(ErrorCode(err), exitErr.Error(), nil); outErr != nil {
		return outErr
	}
	return exitErr
}

// Reported reports whether err was already written by Fail.
func Reported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.reported
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
