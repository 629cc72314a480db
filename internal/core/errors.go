// Package core implements the in-memory filesystem engine: the inode
// tree, block-based file storage, path resolution, and one entry
// point per filesystem operation. The FUSE bridge in internal/fs
// delivers requests here sequentially and translates the returned
// errors into numeric status codes with ToErrno.
package core

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrNoSuchEntry indicates a missing path component, or a
	// dentry name absent from its directory
	ErrNoSuchEntry = errors.New("no such file or directory")

	// ErrPathnameUsed indicates a name already taken in a directory
	ErrPathnameUsed = errors.New("pathname already used in directory")

	// ErrArgumentParse indicates bad command line arguments
	ErrArgumentParse = errors.New("cannot parse argument")

	// ErrExternalLib indicates the FUSE library reported an error
	ErrExternalLib = errors.New("external library error")

	// ErrIsDirectory indicates unlink aimed at the root directory
	ErrIsDirectory = errors.New("is a directory")

	// ErrBusy indicates rmdir aimed at the root directory
	ErrBusy = errors.New("device or resource busy")

	// ErrNotDirectory indicates a directory operation on a non-directory
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotEmpty indicates rmdir of a directory that still has entries
	ErrNotEmpty = errors.New("directory not empty")

	// ErrExists indicates xattr creation over an existing attribute
	ErrExists = errors.New("attribute already exists")

	// ErrNoData indicates a missing extended attribute
	ErrNoData = errors.New("no data available")

	// ErrRange indicates a caller-supplied buffer too small for the result
	ErrRange = errors.New("result not representable in buffer")
)

// Error wraps an engine error with the operation and path it came
// from, the way every entry point reports failure.
type Error struct {
	Op   string // Operation that failed (e.g., "mkdir", "rename")
	Path string // Affected path
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %s on %s failed: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op, path string, err error) error {
	return &Error{Op: op, Path: path, Err: err}
}

// ToErrno translates an engine error into the numeric POSIX code the
// FUSE calling convention expects. Unrecognized errors surface as EIO.
func ToErrno(err error) unix.Errno {
	switch {
	case errors.Is(err, ErrNoSuchEntry):
		return unix.ENOENT
	case errors.Is(err, ErrPathnameUsed):
		return unix.EEXIST
	case errors.Is(err, ErrIsDirectory):
		return unix.EISDIR
	case errors.Is(err, ErrBusy):
		return unix.EBUSY
	case errors.Is(err, ErrNotDirectory):
		return unix.ENOTDIR
	case errors.Is(err, ErrNotEmpty):
		return unix.ENOTEMPTY
	case errors.Is(err, ErrExists):
		return unix.EEXIST
	case errors.Is(err, ErrNoData):
		return unix.ENODATA
	case errors.Is(err, ErrRange):
		return unix.ERANGE
	case errors.Is(err, ErrArgumentParse):
		return unix.EINVAL
	default:
		var errno unix.Errno
		if errors.As(err, &errno) {
			return errno
		}
		return unix.EIO
	}
}
