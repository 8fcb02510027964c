// Package errors provides structured error handling for viswalis.
//
// Every failure surfaced by the dataset, transform and pipeline packages is an
// *Error whose Type names the error kind. Callers branch on the kind with
// IsType or TypeOf rather than matching message text:
//
//	if errors.IsType(err, errors.ErrorTypeUnknownColumn) {
//	    // ask the user to pick another column
//	}
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeParse represents malformed or unreadable input
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeInvalidStrategy represents an unrecognized strategy or case name
	ErrorTypeInvalidStrategy ErrorType = "invalid_strategy"
	// ErrorTypeTypeMismatch represents a column of the wrong type for an operation
	ErrorTypeTypeMismatch ErrorType = "type_mismatch"
	// ErrorTypeUnknownColumn represents a reference to an absent column
	ErrorTypeUnknownColumn ErrorType = "unknown_column"
	// ErrorTypeCoercionFallback represents cells replaced with zero during numeric coercion
	ErrorTypeCoercionFallback ErrorType = "coercion_fallback"
	// ErrorTypeMissingParameter represents an operation called without a required parameter
	ErrorTypeMissingParameter ErrorType = "missing_parameter"
	// ErrorTypeDuplicateColumn represents a transform that would produce two columns with one name
	ErrorTypeDuplicateColumn ErrorType = "duplicate_column"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps err with a kind and message, keeping the stack of the
// innermost structured error. Returns nil if err is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	stack := captureStack(2)
	var inner *Error
	if errors.As(err, &inner) {
		stack = inner.Stack
	}
	return &Error{Type: errType, Message: message, Cause: err, Stack: stack}
}

// Wrapf is Wrap with a formatted message
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}

	e := &Error{Type: errType, Message: fmt.Sprintf(format, args...), Cause: err}
	var inner *Error
	if errors.As(err, &inner) {
		e.Stack = inner.Stack
	} else {
		e.Stack = captureStack(2)
	}
	return e
}

// DetailsOf collects the details of every structured error in the chain.
// Outer errors win when two levels set the same key.
func DetailsOf(err error) map[string]interface{} {
	var out map[string]interface{}
	for err != nil {
		if e, ok := err.(*Error); ok {
			for k, v := range e.Details {
				if out == nil {
					out = make(map[string]interface{})
				}
				if _, set := out[k]; !set {
					out[k] = v
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return out
}

// Format implements fmt.Formatter. %+v adds details and the stack trace.
func (e *Error) Format(f fmt.State, verb rune) {
	switch {
	case verb == 'v' && f.Flag('+'):
		fmt.Fprint(f, e.Error())
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f, "\n  %s=%v", k, e.Details[k])
		}
		for _, fr := range e.Stack {
			fmt.Fprintf(f, "\n    %s\n        %s:%d", fr.Function, fr.File, fr.Line)
		}
	case verb == 'q':
		fmt.Fprintf(f, "%q", e.Error())
	default:
		fmt.Fprint(f, e.Error())
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of the outermost structured error in the chain,
// or ErrorTypeInternal for plain errors.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// As is a passthrough to the standard library for callers that import this
// package under the errors name.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is a passthrough to the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// captureStack records up to 32 frames, skipping skip callers
func captureStack(skip int) []StackFrame {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]StackFrame, 0, n)
	for {
		fr, more := frames.Next()
		stack = append(stack, StackFrame{Function: fr.Function, File: fr.File, Line: fr.Line})
		if !more {
			break
		}
	}
	return stack
}
