package ordkv

import (
	"errors"
	"fmt"

	"github.com/ordkv/ordkv/internal/engine"
)

// Error is a classified engine failure: the entry point that produced it,
// the status code, and the code's description. Every Error carries its own
// message string, so errors from concurrent operations never share state.
type Error struct {
	Op      string
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("ordkv: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("ordkv: %s", e.Message)
}

// Is matches two classified errors by code, so errors.Is works against the
// exported sentinel values below.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// ErrorCode represents MDBX-compatible error codes. Positive values are
// passed-through OS errno values.
type ErrorCode int

// Error codes - matching MDBX for compatibility
const (
	// Success indicates the operation completed successfully
	Success = ErrorCode(engine.OK)

	// ErrKeyExist indicates the key/data pair already exists
	ErrKeyExist = ErrorCode(engine.KeyExist)

	// ErrNotFound indicates the key/data pair was not found
	ErrNotFound = ErrorCode(engine.NotFound)

	// ErrCorrupted indicates the database is corrupted
	ErrCorrupted = ErrorCode(engine.Corrupted)

	// ErrPanic indicates a fatal environment error
	ErrPanic = ErrorCode(engine.Panic)

	// ErrVersionMismatch indicates DB version doesn't match library
	ErrVersionMismatch = ErrorCode(engine.VersionMismatch)

	// ErrInvalid indicates the file is not a valid database, or a handle
	// was used in the wrong state
	ErrInvalid = ErrorCode(engine.Invalid)

	// ErrMapFull indicates the environment mapsize was reached
	ErrMapFull = ErrorCode(engine.MapFull)

	// ErrDBsFull indicates the environment maxdbs was reached
	ErrDBsFull = ErrorCode(engine.DBsFull)

	// ErrReadersFull indicates the environment maxreaders was reached
	ErrReadersFull = ErrorCode(engine.ReadersFull)

	// ErrTxnFull indicates the transaction has too many dirty pages
	ErrTxnFull = ErrorCode(engine.TxnFull)

	// ErrBadTxn indicates the transaction is invalid
	ErrBadTxn = ErrorCode(engine.BadTxn)

	// ErrProblem indicates an unexpected internal error
	ErrProblem = ErrorCode(engine.Problem)

	// ErrBusy indicates another write transaction is running
	ErrBusy = ErrorCode(engine.Busy)
)

// NewError creates a classified error for a code, with no operation context.
func NewError(code ErrorCode) *Error {
	return &Error{Code: code, Message: Strerror(code)}
}

// Strerror returns the textual description of an error code. The returned
// string is owned by the caller.
func Strerror(code ErrorCode) string {
	return engine.Strerror(engine.Status(code))
}

// classify turns a non-OK engine status into a classified *Error tagged with
// the entry point that failed. OK maps to nil.
func classify(op string, st engine.Status) error {
	if st == engine.OK {
		return nil
	}
	return &Error{Op: op, Code: ErrorCode(st), Message: engine.Strerror(st)}
}

// Common error variables for convenience
var (
	ErrKeyExistError        = NewError(ErrKeyExist)
	ErrNotFoundError        = NewError(ErrNotFound)
	ErrCorruptedError       = NewError(ErrCorrupted)
	ErrVersionMismatchError = NewError(ErrVersionMismatch)
	ErrInvalidError         = NewError(ErrInvalid)
	ErrMapFullError         = NewError(ErrMapFull)
	ErrReadersFullError     = NewError(ErrReadersFull)
	ErrBadTxnError          = NewError(ErrBadTxn)
	ErrBusyError            = NewError(ErrBusy)
)

// IsNotFound returns true if the error is ErrNotFound
func IsNotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrNotFound
	}
	return false
}

// IsKeyExist returns true if the error is ErrKeyExist
func IsKeyExist(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrKeyExist
	}
	return false
}

// IsKeyExists is an alias for IsKeyExist (mdbx-go compatibility)
func IsKeyExists(err error) bool {
	return IsKeyExist(err)
}

// IsCorrupted returns true if the error indicates database corruption
func IsCorrupted(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCorrupted
	}
	return false
}

// IsMapFull returns true if the error is ErrMapFull
func IsMapFull(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrMapFull
	}
	return false
}

// IsErrno returns true if the error carries the given OS errno as a
// passed-through positive code.
func IsErrno(err error, errno int) bool {
	var e *Error
	if errors.As(err, &e) {
		return int(e.Code) == errno
	}
	return false
}

// Code returns the error code from an error, or ErrProblem if not an ordkv
// error. A nil error maps to Success.
func Code(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrProblem
}
