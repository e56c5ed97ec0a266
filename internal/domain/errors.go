package domain

import "fmt"

// ErrorKind is the stable machine-readable code attached to every
// caller-recoverable validation error of the ledger engine.
type ErrorKind string

const (
	ErrStatementSettled     ErrorKind = "StatementSettled"
	ErrInvalidAmount        ErrorKind = "InvalidAmount"
	ErrInvalidReason        ErrorKind = "InvalidReason"
	ErrAlreadyReversed      ErrorKind = "AlreadyReversed"
	ErrCannotReverseSettled ErrorKind = "CannotReverseSettledDay"
	ErrStatementNotFound    ErrorKind = "StatementNotFound"
	ErrStatementHasActivity ErrorKind = "StatementHasActivity"
)

// LedgerError is a validation failure the caller can act on. Unexpected
// store failures are never wrapped in one; they propagate as-is.
type LedgerError struct {
	Kind    ErrorKind
	Message string
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewLedgerError builds a LedgerError with a formatted message
func NewLedgerError(kind ErrorKind, format string, args ...interface{}) *LedgerError {
	return &LedgerError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, or "" for non-ledger errors
func KindOf(err error) ErrorKind {
	if lerr, ok := err.(*LedgerError); ok {
		return lerr.Kind
	}
	return ""
}
