package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bekosirs/bekoctl/internal/apierrors"
)

// Exit codes for different error scenarios
const (
	ExitSuccess          = 0 // Success
	ExitGeneralError     = 1 // General error (network failure, server 500, storage fault)
	ExitInvalidArguments = 2 // Invalid arguments/usage or client-side validation
	ExitNotFound         = 3 // Resource not found (404)
	ExitConflict         = 4 // Conflict (409)
	ExitAuthError        = 5 // Authentication error (401) or no stored session
	ExitPermissionDenied = 6 // Permission denied (403)
)

// AuthHint is appended to authentication failures
const AuthHint = "Try running 'bekoctl login' to authenticate"

// ExitError pins an exit code to an error
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WithCode wraps err so ExitCodeFor returns code
func WithCode(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}

// Silent sets the exit code for a failure the command has already reported
func Silent(code int) error {
	return &ExitError{Code: code}
}

// IsSilent reports whether err was already reported to the user
func IsSilent(err error) bool {
	var exitErr *ExitError
	return stderrors.As(err, &exitErr) && exitErr.Err == nil
}

// InvalidArguments builds a usage error
func InvalidArguments(format string, args ...any) error {
	return WithCode(ExitInvalidArguments, fmt.Errorf(format, args...))
}

// ExitCodeFor maps an error returned by a command to the process exit code
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.Code
	}

	var apiErr *apierrors.Error
	if !stderrors.As(err, &apiErr) {
		return ExitGeneralError
	}
	switch apiErr.Kind {
	case apierrors.KindValidation:
		return ExitInvalidArguments
	case apierrors.KindAuthRejected:
		return ExitAuthError
	case apierrors.KindServer:
		return MapHTTPStatusToExitCode(apiErr.StatusCode)
	default:
		return ExitGeneralError
	}
}

// MapHTTPStatusToExitCode maps HTTP status codes to exit codes
func MapHTTPStatusToExitCode(statusCode int) int {
	switch statusCode {
	case http.StatusUnauthorized:
		return ExitAuthError
	case http.StatusForbidden:
		return ExitPermissionDenied
	case http.StatusNotFound:
		return ExitNotFound
	case http.StatusConflict:
		return ExitConflict
	case http.StatusBadRequest:
		return ExitInvalidArguments
	default:
		if statusCode >= 400 && statusCode < 500 {
			return ExitInvalidArguments
		}
		return ExitGeneralError
	}
}

// Message returns the line printed for err
func Message(err error) string {
	msg := apierrors.UserMessage(err)
	if ExitCodeFor(err) == ExitAuthError {
		msg += ". " + AuthHint
	}
	return msg
}

// Report prints err to w and returns its exit code
func Report(w io.Writer, err error) int {
	code := ExitCodeFor(err)
	if code != ExitSuccess && !IsSilent(err) {
		fmt.Fprintf(w, "Error: %s\n", Message(err))
	}
	return code
}
