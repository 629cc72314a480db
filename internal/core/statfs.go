package core

import "golang.org/x/sys/unix"

// statfsBlockSize is the block size reported to statfs callers. It is
// unrelated to the 1024-byte file storage blocks.
const statfsBlockSize = 4096

// Statfs carries the statvfs fields the engine reports.
type Statfs struct {
	Bsize   uint32
	Frsize  uint32
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Fsid    uint64
	Namemax uint32
}

// Statfs reports capacity derived from host memory: total blocks from
// total RAM, free and available from the RAM currently in use, and
// the file count from a walk of the inode tree. The path argument is
// accepted for the calling convention and ignored.
func (m *MemFS) Statfs(pathname string) (Statfs, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return Statfs{}, opError("statfs", pathname, err)
	}

	unit := uint64(info.Unit)
	total := uint64(info.Totalram) * unit
	free := uint64(info.Freeram) * unit

	return Statfs{
		Bsize:   statfsBlockSize,
		Frsize:  statfsBlockSize,
		Blocks:  total / statfsBlockSize,
		Bfree:   (total - free) / statfsBlockSize,
		Bavail:  (total - free) / statfsBlockSize,
		Files:   uint64(m.root.CountInodes()),
		Ffree:   4096,
		Fsid:    1,
		Namemax: 128,
	}, nil
}
