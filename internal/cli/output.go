package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/kin/internal/api"
	"github.com/roach88/kin/internal/config"
	"github.com/roach88/kin/internal/feed"
	"github.com/roach88/kin/internal/friends"
	"github.com/roach88/kin/internal/session"
)

// Process exit codes.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The service refused or failed the operation
	ExitCommandError = 2 // Command error (bad input, config, store, not logged in)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeConfig     = "E002" // Config load or validation error
	ErrCodeStore      = "E003" // Credential store error
	ErrCodeUsage      = "E004" // Invalid arguments or local precondition
	ErrCodeTransport  = "E101" // Service unreachable
	ErrCodeAuth       = "E102" // Not logged in or session expired
	ErrCodeValidation = "E103" // Service rejected the input
	ErrCodeNotFound   = "E104" // Resource gone
	ErrCodeServer     = "E105" // Service failure
)

// ExitError carries the process exit code out of a command's RunE.
type ExitError struct {
	Code    int
	Message string
	Err     error // may be nil
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

// NewExitError returns an ExitError with no cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches code and message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain,
// or ExitFailure when there is none.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the envelope every --format json result is written in.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error half of CLIResponse.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E101", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs data in the configured format. In text mode text renders
// it; a nil text prints data with fmt.
func (f *OutputFormatter) Success(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if text != nil {
		return text(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes one error. Text mode drops details.
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

	_, err := fmt.Fprintf(f.Writer, "✗ %s\n", message)
	return err
}

// Fail reports err inline and returns the ExitError the command should
// return.
func (f *OutputFormatter) Fail(err error) error {
	code, exit, message := classifyError(err)
	_ = f.Error(code, message, nil)
	return WrapExitError(exit, message, err)
}

// classifyError maps a command failure to an output code, exit code and
// user-facing message.
func classifyError(err error) (code string, exit int, message string) {
	var (
		cfgErr   *config.ValidationError
		usageErr *usageError
	)
	switch {
	case errors.As(err, &usageErr):
		return ErrCodeUsage, ExitCommandError, usageErr.Error()
	case errors.As(err, &cfgErr):
		return ErrCodeConfig, ExitCommandError, cfgErr.Error()
	case errors.Is(err, session.ErrNotAuthenticated):
		return ErrCodeAuth, ExitCommandError, "not logged in; run `kin login` first"
	case errors.Is(err, session.ErrMissingCredentials),
		errors.Is(err, session.ErrMissingFields),
		errors.Is(err, feed.ErrEmptyContent),
		errors.Is(err, feed.ErrNotOwner),
		errors.Is(err, feed.ErrPostNotFound),
		errors.Is(err, friends.ErrNotStranger),
		errors.Is(err, friends.ErrSelfRequest),
		errors.Is(err, friends.ErrInvalidAction):
		return ErrCodeUsage, ExitCommandError, err.Error()
	}

	message = api.Message(err)
	switch api.KindOf(err) {
	case api.KindTransport:
		return ErrCodeTransport, ExitFailure, message
	case api.KindAuth:
		return ErrCodeAuth, ExitFailure, message
	case api.KindValidation:
		return ErrCodeValidation, ExitFailure, message
	case api.KindNotFound:
		return ErrCodeNotFound, ExitFailure, message
	case api.KindServer:
		return ErrCodeServer, ExitFailure, message
	}
	return ErrCodeGeneric, ExitFailure, message
}
