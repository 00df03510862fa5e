package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per ErrorCode. Use errors.Is against these to classify
// an *Error returned by the catalog or batch packages.
var (
	// ErrFileSystem indicates a missing or unreadable path, or a failed write.
	ErrFileSystem = errors.New("filesystem error")

	// ErrSerialization indicates a cache artifact that cannot be decoded.
	ErrSerialization = errors.New("serialization error")

	// ErrDataIntegrity indicates a waveform containing NaN or Inf samples.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrUnsupportedFormat indicates a file the codec cannot parse.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrEmptyInput indicates that no audio file matched.
	ErrEmptyInput = errors.New("no audio files found")
)

// ErrorCode identifies the failure class of an *Error.
type ErrorCode string

const (
	ErrorCodeFileSystem        ErrorCode = "FILESYSTEM"
	ErrorCodeSerialization     ErrorCode = "SERIALIZATION"
	ErrorCodeDataIntegrity     ErrorCode = "DATA_INTEGRITY"
	ErrorCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrorCodeEmptyInput        ErrorCode = "EMPTY_INPUT"
)

var sentinels = map[ErrorCode]error{
	ErrorCodeFileSystem:        ErrFileSystem,
	ErrorCodeSerialization:     ErrSerialization,
	ErrorCodeDataIntegrity:     ErrDataIntegrity,
	ErrorCodeUnsupportedFormat: ErrUnsupportedFormat,
	ErrorCodeEmptyInput:        ErrEmptyInput,
}

// Error is the error type returned by dataset operations. Path names the file
// or directory the failure is about, when there is one.
type Error struct {
	Code    ErrorCode
	Path    string
	Message string
	Cause   error
}

// NewError creates a new *Error.
func NewError(code ErrorCode, path, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (file path: %s)", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// FileSystemError wraps cause as an ErrorCodeFileSystem error.
func FileSystemError(path, message string, cause error) *Error {
	return NewError(ErrorCodeFileSystem, path, message, cause)
}

// SerializationError wraps cause as an ErrorCodeSerialization error.
func SerializationError(path, message string, cause error) *Error {
	return NewError(ErrorCodeSerialization, path, message, cause)
}

// DataIntegrityError reports a waveform with invalid samples.
func DataIntegrityError(path, message string) *Error {
	return NewError(ErrorCodeDataIntegrity, path, message, nil)
}

// UnsupportedFormatError wraps a codec failure.
func UnsupportedFormatError(path string, cause error) *Error {
	return NewError(ErrorCodeUnsupportedFormat, path, "unable to read audio container", cause)
}

// EmptyInputError reports a directory with no matching audio files.
func EmptyInputError(dir string) *Error {
	return NewError(ErrorCodeEmptyInput, dir, "no files matched any audio extension", nil)
}
