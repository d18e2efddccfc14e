// Package errs defines the failure taxonomy surfaced by the playback core.
//
// Every failure is either a FileError (a precondition on the file itself, never
// retried) or a PlayerError (an engine failure, retried when Recoverable).
package errs

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// Kind separates file precondition failures from engine failures.
type Kind int

const (
	KindFile Kind = iota + 1
	KindPlayer
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "FileError"
	case KindPlayer:
		return "PlayerError"
	default:
		return "UnknownError"
	}
}

// Code is the machine readable failure identifier.
type Code string

// File precondition codes.
const (
	CodeFileMissing    Code = "file_missing"
	CodeFileNotLocal   Code = "file_not_local"
	CodeFileNotRegular Code = "file_not_regular"
	CodeFileEmpty      Code = "file_empty"
	CodeFileTooLarge   Code = "file_too_large"
	CodeFileUnreadable Code = "file_unreadable"
)

// Player failure codes.
const (
	CodeAborted            Code = "aborted"
	CodeNetwork            Code = "network"
	CodeDecode             Code = "decode"
	CodeUnsupportedFormat  Code = "unsupported_format"
	CodeLibrary            Code = "library"
	CodeInit               Code = "init"
	CodeUnsupportedBackend Code = "unsupported_backend"
)

// Error is a classified playback failure.
type Error struct {
	Kind        Kind
	Code        Code
	Message     string
	Recoverable bool
	Suggestions []string
	Err         error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// NewFile returns a FileError. File errors are never recoverable.
func NewFile(code Code, message string) *Error {
	return &Error{
		Kind:        KindFile,
		Code:        code,
		Message:     message,
		Suggestions: slices.Clone(suggestions[code]),
	}
}

// NewPlayer returns a PlayerError wrapping cause.
func NewPlayer(code Code, message string, recoverable bool, cause error) *Error {
	return &Error{
		Kind:        KindPlayer,
		Code:        code,
		Message:     message,
		Recoverable: recoverable,
		Suggestions: slices.Clone(suggestions[code]),
		Err:         cause,
	}
}

// ErrUnsupportedBackend is returned for a backend kind outside the known set.
var ErrUnsupportedBackend = NewPlayer(CodeUnsupportedBackend, "unsupported backend kind", false, nil)

// As extracts the classified error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsFile reports whether err is a FileError.
func IsFile(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindFile
}

// IsPlayer reports whether err is a PlayerError.
func IsPlayer(err error) bool {
	e, ok := As(err)
	return ok && e.Kind == KindPlayer
}

// Classify returns err as a classified error, turning unknown errors into a
// recoverable PlayerError so they enter the retry path.
func Classify(err error) *Error {
	if e, ok := As(err); ok {
		return e
	}
	return NewPlayer(CodeInit, fmt.Sprintf("Player error: %v", err), true, err)
}
