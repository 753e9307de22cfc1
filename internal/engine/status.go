package engine

import (
	"errors"
	"fmt"
	"syscall"
)

// Status is the integer result of an engine entry point. OK means success;
// negative values are engine-defined conditions (MDBX-compatible numbering),
// positive values are passed-through OS errno values.
type Status int

const (
	// OK indicates the operation completed successfully.
	OK Status = 0

	// KeyExist indicates the key/data pair already exists.
	KeyExist Status = -30799

	// NotFound indicates the key/data pair was not found.
	NotFound Status = -30798

	// Corrupted indicates the data file failed validation.
	Corrupted Status = -30796

	// Panic indicates a fatal environment error.
	Panic Status = -30795

	// VersionMismatch indicates the data file version doesn't match the engine.
	VersionMismatch Status = -30794

	// Invalid indicates the file is not a valid data file, or an entry point
	// was called on a handle in the wrong state.
	Invalid Status = -30793

	// MapFull indicates the environment map-size limit was reached.
	MapFull Status = -30792

	// DBsFull indicates the environment max-dbs limit was reached.
	DBsFull Status = -30791

	// ReadersFull indicates the environment max-readers limit was reached.
	ReadersFull Status = -30790

	// TxnFull indicates the transaction write set grew too large.
	TxnFull Status = -30788

	// BadTxn indicates the transaction handle is invalid for the operation.
	BadTxn Status = -30782

	// Problem indicates an unexpected internal error.
	Problem Status = -30779

	// Busy indicates another write transaction is running.
	Busy Status = -30778
)

// statusMessages holds the textual descriptions for engine-defined codes.
var statusMessages = map[Status]string{
	OK:              "success",
	KeyExist:        "key/data pair already exists",
	NotFound:        "key/data pair not found",
	Corrupted:       "data file is corrupted",
	Panic:           "fatal environment error",
	VersionMismatch: "data file version mismatch",
	Invalid:         "file is not a valid database or handle is in wrong state",
	MapFull:         "environment mapsize limit reached",
	DBsFull:         "environment maxdbs limit reached",
	ReadersFull:     "environment maxreaders limit reached",
	TxnFull:         "transaction write set too large",
	BadTxn:          "transaction is invalid",
	Problem:         "unexpected internal error",
	Busy:            "another write transaction is running",
}

// Strerror returns the textual description of a status code. Positive codes
// are OS errno values and use the platform's description. The returned string
// is freshly owned by the caller; no shared buffer is involved.
func Strerror(code Status) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	if code > 0 {
		return syscall.Errno(code).Error()
	}
	return fmt.Sprintf("unknown error code %d", int(code))
}

// errnoStatus converts an OS error into a passed-through errno status.
// Errors with no recoverable errno map to Problem.
func errnoStatus(err error) Status {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return Status(errno)
	}
	return Problem
}
