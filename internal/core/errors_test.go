package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestToErrno(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected unix.Errno
	}{
		{name: "no such entry", err: ErrNoSuchEntry, expected: unix.ENOENT},
		{name: "pathname used", err: ErrPathnameUsed, expected: unix.EEXIST},
		{name: "is a directory", err: ErrIsDirectory, expected: unix.EISDIR},
		{name: "busy", err: ErrBusy, expected: unix.EBUSY},
		{name: "not a directory", err: ErrNotDirectory, expected: unix.ENOTDIR},
		{name: "not empty", err: ErrNotEmpty, expected: unix.ENOTEMPTY},
		{name: "attribute exists", err: ErrExists, expected: unix.EEXIST},
		{name: "no data", err: ErrNoData, expected: unix.ENODATA},
		{name: "range", err: ErrRange, expected: unix.ERANGE},
		{name: "argument parse", err: ErrArgumentParse, expected: unix.EINVAL},
		{name: "unknown error", err: errors.New("mystery"), expected: unix.EIO},
		{name: "raw errno passes through", err: unix.EACCES, expected: unix.EACCES},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ToErrno(tt.err))
		})
	}
}

func TestToErrnoUnwrapsOpError(t *testing.T) {
	err := opError("mkdir", "/a/b", ErrNoSuchEntry)
	require.Equal(t, unix.ENOENT, ToErrno(err))

	var opErr *Error
	require.True(t, errors.As(err, &opErr))
	require.Equal(t, "mkdir", opErr.Op)
	require.Equal(t, "/a/b", opErr.Path)
	require.Contains(t, err.Error(), "mkdir")
	require.Contains(t, err.Error(), "/a/b")
}
