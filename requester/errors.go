package requester

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a request building failure.
type ErrorKind string

const (
	KindSerialization  ErrorKind = "serialization"
	KindHeader         ErrorKind = "header"
	KindURL            ErrorKind = "url"
	KindIO             ErrorKind = "io"
	KindInvalidRequest ErrorKind = "invalid_request"
)

// Error is the single error type returned by the strict builders.
// Key, Value and Source are only set for KindHeader.
type Error struct {
	Kind    ErrorKind
	Message string
	Key     string
	Value   string
	Source  string
	Err     error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrSerialization  = &Error{Kind: KindSerialization}
	ErrHeader         = &Error{Kind: KindHeader}
	ErrURL            = &Error{Kind: KindURL}
	ErrIO             = &Error{Kind: KindIO}
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindSerialization:
		return fmt.Sprintf("serialization error: %s", e.Message)
	case KindHeader:
		return fmt.Sprintf("header error for '%s': '%s' - %s", e.Key, e.Value, e.Source)
	case KindURL:
		return fmt.Sprintf("URL error: %s", e.Message)
	case KindIO:
		return fmt.Sprintf("I/O error: %s", e.Message)
	case KindInvalidRequest:
		return fmt.Sprintf("invalid request: %s", e.Message)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// NewSerializationError creates a serialization error with a formatted message.
func NewSerializationError(format string, args ...any) *Error {
	return &Error{Kind: KindSerialization, Message: fmt.Sprintf(format, args...)}
}

// NewHeaderError reports a header name or value that violates wire syntax.
func NewHeaderError(key, value, source string) *Error {
	return &Error{Kind: KindHeader, Key: key, Value: value, Source: source}
}

// NewURLError creates a URL error with a formatted message.
func NewURLError(format string, args ...any) *Error {
	return &Error{Kind: KindURL, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidRequestError creates an invalid request error with a formatted message.
func NewInvalidRequestError(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func wrapJSONError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &Error{Kind: KindSerialization, Message: fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, err), Err: err}
	}
	return &Error{Kind: KindSerialization, Message: err.Error(), Err: err}
}

func wrapURLError(err error) *Error {
	return &Error{Kind: KindURL, Message: err.Error(), Err: err}
}

func wrapIOError(err error) *Error {
	return &Error{Kind: KindIO, Message: err.Error(), Err: err}
}
