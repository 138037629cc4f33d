package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// MsgInternalServerError is the only message a client ever sees for an unclassified failure.
const MsgInternalServerError = "We're sorry, an internal server error has occurred."

// Reusable messages
const (
	MsgIDRequired      = "'id' is required."
	MsgInvalidJSONBody = "Invalid JSON body provided."
	MsgBodyTooLarge    = "Request body too large."
	MsgInvalidProduct  = "Invalid product."
	MsgTooManyRequests = "Too many requests, please try again later."
)

// ErrorCategory tells the error logger whether a failure was anticipated.
type ErrorCategory string

const (
	CategoryKnown   ErrorCategory = "KNOWN"
	CategoryUnknown ErrorCategory = "UNKNOWN"
)

// AppError is the one classified failure the API understands.
// Message and Details are client-visible; Cause and the stack are log-only.
type AppError struct {
	StatusCode         int
	Message            string
	Details            string
	ShouldIncludeStack bool
	Cause              error
	stack              *stack
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// StackTrace returns the construction stack when WithStackTrace was used.
func (e *AppError) StackTrace() string {
	if e.stack == nil {
		return ""
	}
	return e.stack.String()
}

// ErrorOption customises an AppError at construction time.
type ErrorOption func(*AppError)

// WithDetails attaches a diagnostic string that is returned to the client as `details`.
func WithDetails(details string) ErrorOption {
	return func(e *AppError) { e.Details = details }
}

// WithCause records the internal error that triggered this one.
func WithCause(cause error) ErrorOption {
	return func(e *AppError) { e.Cause = cause }
}

// WithStackTrace captures the current stack and asks the error logger to emit it.
func WithStackTrace() ErrorOption {
	return func(e *AppError) {
		e.ShouldIncludeStack = true
		e.stack = callers(4)
	}
}

// NewAppError builds an AppError. Status 500 is reserved for unclassified failures
// and should not be constructed by business code.
func NewAppError(statusCode int, message string, opts ...ErrorOption) *AppError {
	e := &AppError{StatusCode: statusCode, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func NewBadRequest(message string, opts ...ErrorOption) *AppError {
	return NewAppError(http.StatusBadRequest, message, opts...)
}

func NewNotFound(message string, opts ...ErrorOption) *AppError {
	return NewAppError(http.StatusNotFound, message, opts...)
}

// NewNotFoundWithID renders the standard "No <resource> found with ID" message.
func NewNotFoundWithID(resource, id string, opts ...ErrorOption) *AppError {
	return NewNotFound(fmt.Sprintf("No %s found with ID: '%s'.", resource, id), opts...)
}

// Classify finds the AppError in err's chain. Errors without one, or with a zero
// status code, are UNKNOWN.
func Classify(err error) (*AppError, ErrorCategory) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr, CategoryKnown
	}
	return nil, CategoryUnknown
}

// ToErrorResponse converts an error into the status code and body sent to the client.
// If the error is not an AppError, it is converted to a generic 500 error.
func ToErrorResponse(err error) (int, ErrorResponse) {
	appErr, category := Classify(err)
	if category == CategoryKnown {
		return appErr.StatusCode, ErrorResponse{
			Success: false,
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}
	// Unknown error : 500
	return http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Message: MsgInternalServerError,
	}
}

// stackError attaches a call stack to an error that has none.
type stackError struct {
	err   error
	stack *stack
}

func (e *stackError) Error() string      { return e.err.Error() }
func (e *stackError) Unwrap() error      { return e.err }
func (e *stackError) StackTrace() string { return e.stack.String() }

// WithStack annotates err with the caller's stack. Errors that already carry one are returned as is.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	if StackTrace(err) != "" {
		return err
	}
	return &stackError{err: err, stack: callers(3)}
}

// WithStackString annotates err with an already formatted stack, such as one from debug.Stack.
func WithStackString(err error, trace string) error {
	if err == nil {
		return nil
	}
	return &recoveredError{err: err, trace: trace}
}

type recoveredError struct {
	err   error
	trace string
}

func (e *recoveredError) Error() string      { return e.err.Error() }
func (e *recoveredError) Unwrap() error      { return e.err }
func (e *recoveredError) StackTrace() string { return e.trace }

// StackTrace returns the first non-empty stack found in err's chain.
func StackTrace(err error) string {
	for err != nil {
		if st, ok := err.(interface{ StackTrace() string }); ok {
			if trace := st.StackTrace(); trace != "" {
				return trace
			}
		}
		err = errors.Unwrap(err)
	}
	return ""
}

type stack []uintptr

func callers(skip int) *stack {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	s := stack(pcs[:n])
	return &s
}

func (s *stack) String() string {
	var b strings.Builder
	frames := runtime.CallersFrames(*s)
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}
