package fs

import (
	"os"

	"golang.org/x/sys/unix"
)

func safeInt64ToUint64(n int64) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// fileModeFromUnix converts raw stat mode bits into the os.FileMode
// the FUSE library traffics in.
func fileModeFromUnix(mode uint32) os.FileMode {
	fm := os.FileMode(mode & 0o777)

	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		fm |= os.ModeDir
	case unix.S_IFLNK:
		fm |= os.ModeSymlink
	case unix.S_IFCHR:
		fm |= os.ModeDevice | os.ModeCharDevice
	case unix.S_IFBLK:
		fm |= os.ModeDevice
	case unix.S_IFIFO:
		fm |= os.ModeNamedPipe
	case unix.S_IFSOCK:
		fm |= os.ModeSocket
	}

	if mode&unix.S_ISUID != 0 {
		fm |= os.ModeSetuid
	}
	if mode&unix.S_ISGID != 0 {
		fm |= os.ModeSetgid
	}
	if mode&unix.S_ISVTX != 0 {
		fm |= os.ModeSticky
	}

	return fm
}

// unixModeFromFileMode is the inverse conversion, for requests that
// carry an os.FileMode toward the engine.
func unixModeFromFileMode(fm os.FileMode) uint32 {
	mode := uint32(fm.Perm())

	switch {
	case fm.IsDir():
		mode |= unix.S_IFDIR
	case fm&os.ModeSymlink != 0:
		mode |= unix.S_IFLNK
	case fm&os.ModeCharDevice != 0:
		mode |= unix.S_IFCHR
	case fm&os.ModeDevice != 0:
		mode |= unix.S_IFBLK
	case fm&os.ModeNamedPipe != 0:
		mode |= unix.S_IFIFO
	case fm&os.ModeSocket != 0:
		mode |= unix.S_IFSOCK
	default:
		mode |= unix.S_IFREG
	}

	if fm&os.ModeSetuid != 0 {
		mode |= unix.S_ISUID
	}
	if fm&os.ModeSetgid != 0 {
		mode |= unix.S_ISGID
	}
	if fm&os.ModeSticky != 0 {
		mode |= unix.S_ISVTX
	}

	return mode
}
