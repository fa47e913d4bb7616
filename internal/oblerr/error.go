// Package oblerr defines ObjectLite's stable error taxonomy and the
// last-error-per-database channel described by the persistence kernel's
// failure semantics.
package oblerr

import (
	"errors"
	"fmt"
)

// Code is a stable ordinal error code. Values must never be renumbered;
// callers may persist or compare them across process restarts.
type Code int

const (
	OK Code = iota
	OutOfMemory
	UnableToReadFile
	UnableToOpenFile
	ConversionError
	WrongStorage
	ArgumentSize
	MissingSystemObject
	DatabaseNotOpen
	InvalidIndex
	InvalidAddress
	AlreadyInTransaction
)

// defaultMessages are looked up when a caller sets an error by code alone.
var defaultMessages = map[Code]string{
	OK:                   "ok",
	OutOfMemory:          "out of memory",
	UnableToReadFile:     "unable to read file",
	UnableToOpenFile:     "unable to open file",
	ConversionError:      "conversion error",
	WrongStorage:         "wrong storage variant for this operation",
	ArgumentSize:         "argument size out of bounds",
	MissingSystemObject:  "missing system object",
	DatabaseNotOpen:      "database not open",
	InvalidIndex:         "invalid index",
	InvalidAddress:       "invalid address",
	AlreadyInTransaction: "session already has an open transaction",
}

func (c Code) String() string {
	if s, ok := defaultMessages[c]; ok {
		return s
	}
	return fmt.Sprintf("error(%d)", int(c))
}

// Error is the concrete {code, message} pair every failing ObjectLite call
// reports. It satisfies the standard error interface so it composes with
// idiomatic Go error handling, while its Code field remains the contract
// the last-error channel (Database.LastError) exposes directly.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an Error using the default message for code.
func New(code Code) *Error {
	return &Error{Code: code, Message: defaultMessages[code]}
}

// Newf builds an Error with a caller-supplied, printf-style message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error, returning
// OK otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return OK
}
