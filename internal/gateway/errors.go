package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies gateway errors so that callers decide between retrying and
// aborting without parsing error text.
type Kind int

const (
	// KindConfiguration means the request can never succeed as configured:
	// missing or rejected token, invalid or unknown organization.
	KindConfiguration Kind = iota + 1

	// KindTransient is a temporary failure: network error, unexpected status
	// code, or a malformed response envelope. These are retried.
	KindTransient

	// KindDataShape means a well-formed page carried a repository node that
	// does not match the expected contract. Retrying will not help.
	KindDataShape

	// KindExhaustedRetries means transient failures exceeded the retry budget.
	KindExhaustedRetries
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransient:
		return "transient"
	case KindDataShape:
		return "data shape"
	case KindExhaustedRetries:
		return "exhausted retries"
	}
	return "unknown"
}

// Error is a classified gateway error. It wraps the underlying cause so the
// full chain stays available to errors.Is and errors.As.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether any error in err's chain is a gateway Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var gerr *Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Kind == kind
}

func configurationError(op string, status int, format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Op: op, StatusCode: status, Err: fmt.Errorf(format, args...)}
}

func transientError(op string, status int, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, StatusCode: status, Err: err}
}

func dataShapeError(op string, format string, args ...any) *Error {
	return &Error{Kind: KindDataShape, Op: op, Err: fmt.Errorf(format, args...)}
}
