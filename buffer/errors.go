package buffer

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/amonks/scrawl/internal/editor"
	"github.com/amonks/scrawl/internal/tempfile"
)

var (
	// ErrConfiguration matches any *ConfigurationError.
	ErrConfiguration = errors.New("invalid edit configuration")

	// ErrEditorNotFound matches any *EditorNotFoundError.
	ErrEditorNotFound = errors.New("editor not found")

	// ErrEditorExit matches any *EditorExitError.
	ErrEditorExit = errors.New("editor exited unsuccessfully")

	// ErrIO matches any *IOError.
	ErrIO = errors.New("file operation failed")

	// ErrEncoding matches any *EncodingError.
	ErrEncoding = errors.New("file is not valid text")

	// ErrSessionUsed is returned by a second call to Execute on one session.
	ErrSessionUsed = errors.New("session already executed")

	errIsDirectory = errors.New("is a directory")
)

// ConfigurationError reports an invalid combination of session settings.
// It is always returned before any editor is launched.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrConfiguration, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
func (e *ConfigurationError) Unwrap() error        { return e.Err }

// EditorNotFoundError reports an editor command that could not be launched.
type EditorNotFoundError struct {
	Command Command
	Err     error
}

func (e *EditorNotFoundError) Error() string {
	return fmt.Sprintf("editor %q could not be launched: %v", e.Command.Program, e.Err)
}

func (e *EditorNotFoundError) Is(target error) bool { return target == ErrEditorNotFound }
func (e *EditorNotFoundError) Unwrap() error        { return e.Err }

// EditorExitError reports an editor that exited with a non-zero status or was
// terminated abnormally, in which case Code is -1.
type EditorExitError struct {
	Command Command
	Code    int
}

func (e *EditorExitError) Error() string {
	return fmt.Sprintf("editor exited with status %d", e.Code)
}

// ExitCode returns the editor's exit status.
func (e *EditorExitError) ExitCode() int { return e.Code }

func (e *EditorExitError) Is(target error) bool { return target == ErrEditorExit }

// IOError reports a failure creating, reading, writing or deleting a file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }
func (e *IOError) Unwrap() error        { return e.Err }

// EncodingError reports file contents that are not valid UTF-8.
type EncodingError struct {
	Path string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("read %s: contents are not valid UTF-8", e.Path)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// ErrorKind classifies errors returned by a session.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfiguration
	KindEditorNotFound
	KindEditorExit
	KindIO
	KindEncoding
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindEditorNotFound:
		return "editor-not-found"
	case KindEditorExit:
		return "editor-exit"
	case KindIO:
		return "io"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Kind returns the classification of err, or KindUnknown.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrEditorNotFound):
		return KindEditorNotFound
	case errors.Is(err, ErrEditorExit):
		return KindEditorExit
	case errors.Is(err, ErrEncoding):
		return KindEncoding
	case errors.Is(err, ErrIO):
		return KindIO
	default:
		return KindUnknown
	}
}

// runnerError converts a Runner failure into a session error. Failures that
// are not an exit status mean the editor never ran.
func runnerError(cmd Command, err error) error {
	if Kind(err) != KindUnknown {
		return err
	}

	var exitErr *editor.ExitError
	if errors.As(err, &exitErr) {
		return &EditorExitError{Command: exitErr.Command, Code: exitErr.Code}
	}
	var notFound *editor.NotFoundError
	if errors.As(err, &notFound) {
		return &EditorNotFoundError{Command: notFound.Command, Err: notFound.Err}
	}
	return &EditorNotFoundError{Command: cmd, Err: err}
}

// fileError converts a scratch or source file failure into a session error.
func fileError(op, path string, err error) error {
	var pathErr *tempfile.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, tempfile.ErrInvalidText) {
			return &EncodingError{Path: pathErr.Path}
		}
		return &IOError{Op: pathErr.Op, Path: pathErr.Path, Err: pathErr.Err}
	}
	var fsErr *fs.PathError
	if errors.As(err, &fsErr) {
		err = fsErr.Err
	}
	return &IOError{Op: op, Path: path, Err: err}
}
