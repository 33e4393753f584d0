// Package tempfile manages the scratch files that editors are pointed at.
package tempfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/amonks/scrawl/internal/ids"
)

// DefaultPrefix is the file name prefix used when Options.Prefix is empty.
const DefaultPrefix = "scrawl"

const maxCreateAttempts = 16

// ErrInvalidText is returned when file contents are not valid UTF-8.
var ErrInvalidText = errors.New("file contents are not valid UTF-8")

// PathError records a filesystem failure on a scratch or source file.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// pathError records op on path. The os package already names the path in
// its own errors, so only their cause is kept.
func pathError(op, path string, err error) *PathError {
	var fsErr *fs.PathError
	if errors.As(err, &fsErr) {
		err = fsErr.Err
	}
	return &PathError{Op: op, Path: path, Err: err}
}

// Options controls where scratch files are created and how they are named.
type Options struct {
	// Dir is the scratch directory. Empty means os.TempDir().
	Dir string
	// Extension is appended to the file name, e.g. ".md". A missing
	// leading dot is added.
	Extension string
	// Prefix starts the file name. Empty means DefaultPrefix.
	Prefix string
}

// File is a scratch file owned by one edit session.
type File struct {
	path     string
	disposed bool
}

// Create allocates a new scratch file. When initial is non-nil its contents
// are written to the file; otherwise the file is left empty.
func Create(opts Options, initial *string) (*File, error) {
	f, handle, err := create(opts)
	if err != nil {
		return nil, err
	}

	if initial != nil {
		if _, err := io.WriteString(handle, *initial); err != nil {
			_ = handle.Close()
			return nil, f.discard(pathError("write", f.path, err))
		}
	}
	if err := handle.Close(); err != nil {
		return nil, f.discard(pathError("close", f.path, err))
	}

	return f, nil
}

// CreateFromFile allocates a new scratch file holding a copy of source.
// The source file is only ever opened for reading.
func CreateFromFile(opts Options, source string) (*File, error) {
	src, err := os.Open(source)
	if err != nil {
		return nil, pathError("open", source, err)
	}
	defer src.Close()

	f, handle, err := create(opts)
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(handle, src); err != nil {
		_ = handle.Close()
		return nil, f.discard(pathError("copy", source, err))
	}
	if err := handle.Close(); err != nil {
		return nil, f.discard(pathError("close", f.path, err))
	}

	return f, nil
}

func create(opts Options) (*File, *os.File, error) {
	dir := opts.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	ext := opts.Extension
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	pid := os.Getpid()
	var lastErr error
	for range maxCreateAttempts {
		name := fmt.Sprintf("%s-%d-%s%s", prefix, pid, ids.Scratch(pid, time.Now()), ext)
		path := filepath.Join(dir, name)

		handle, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return &File{path: path}, handle, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, nil, pathError("create", path, err)
		}
		lastErr = pathError("create", path, err)
	}

	return nil, nil, lastErr
}

// Path returns the scratch file's location.
func (f *File) Path() string {
	return f.path
}

// Read returns the full contents of the scratch file.
func (f *File) Read() (string, error) {
	return ReadText(f.path)
}

// Dispose removes the scratch file. It is safe to call more than once, and a
// file that has already disappeared is not an error.
func (f *File) Dispose() error {
	if f == nil || f.disposed {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return pathError("remove", f.path, err)
	}
	f.disposed = true
	return nil
}

// discard removes a scratch file that could not be filled. A failed removal
// is reported alongside err so the leftover file is not lost.
func (f *File) discard(err error) error {
	if disposeErr := f.Dispose(); disposeErr != nil {
		return errors.Join(err, disposeErr)
	}
	return err
}

// ReadText reads the file at path and checks that it holds valid UTF-8.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", pathError("read", path, err)
	}
	if !utf8.Valid(data) {
		return "", &PathError{Op: "decode", Path: path, Err: ErrInvalidText}
	}
	return string(data), nil
}
