package mapping

import (
	"errors"
	"fmt"
)

// Repository errors for rejected inserts.
var (
	ErrDuplicateLegacyID = errors.New("duplicate legacy visit id")
	ErrDuplicateNewID    = errors.New("duplicate new visit id")
	ErrDuplicateMapping  = errors.New("duplicate visit mapping")
)

// Kind classifies service failures for the transport layer.
type Kind int

const (
	// KindStorage is an unexpected persistence failure.
	KindStorage Kind = iota
	// KindValidation is malformed input rejected before touching storage.
	KindValidation
	// KindConflict is a uniqueness violation on create.
	KindConflict
	// KindNotFound is a lookup miss.
	KindNotFound
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "storage"
	}
}

// Error is returned by every Service operation.
type Error struct {
	Kind    Kind
	Message string // Human-readable, stable text naming the offending field and value.
	Err     error  // Underlying cause, if any.
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err, or KindStorage for foreign errors.
func KindOf(err error) Kind {
	var mappingErr *Error
	if errors.As(err, &mappingErr) {
		return mappingErr.Kind
	}
	return KindStorage
}

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failure: " + fmt.Sprintf(format, args...)}
}

func conflictError(err error, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: "Validation failure: " + fmt.Sprintf(format, args...), Err: err}
}

func notFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: "Not Found: " + fmt.Sprintf(format, args...)}
}

func storageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: op + " failed", Err: err}
}
