package core

import (
	"sort"
	"time"

	"golang.org/x/sys/unix"

	"memfs/internal/logging"
)

var coreLogger = logging.GetLogger().WithPrefix("core")

// MemFS is the in-memory filesystem engine. It owns the root inode
// and exposes one entry point per filesystem operation. The engine
// runs single-threaded: the bridge delivers operations one at a time,
// so no locking happens here.
type MemFS struct {
	root      *Inode
	now       func() time.Time
	hashCheck bool
}

// NewMemFS creates an engine with an empty root directory owned by
// uid/gid, mode 0755, all timestamps set to the current time.
func NewMemFS(uid, gid uint32) *MemFS {
	m := &MemFS{
		root: NewInode(),
		now:  time.Now,
	}

	now := m.now()
	m.root.Stat.Mode = unix.S_IFDIR | 0o755
	m.root.Stat.UID = uid
	m.root.Stat.GID = gid
	m.root.Stat.Atime = now
	m.root.Stat.Mtime = now
	m.root.Stat.Ctime = now

	coreLogger.Info("Filesystem engine created (uid=%d gid=%d)", uid, gid)
	return m
}

// EnableHashCheck turns on the content-hash self-check on every read
// and write path. The digests go to the debug log.
func (m *MemFS) EnableHashCheck() {
	m.hashCheck = true
	coreLogger.Info("Content hash self-check enabled")
}

// Root returns the root inode.
func (m *MemFS) Root() *Inode {
	return m.root
}

func (m *MemFS) resolve(op, pathname string) (*Inode, error) {
	node, err := Resolve(ParsePath(pathname), m.root)
	if err != nil {
		return nil, opError(op, pathname, err)
	}
	return node, nil
}

// resolveParent splits pathname into its final component and the
// directory holding it, resolving the latter.
func (m *MemFS) resolveParent(op, pathname string) (*Inode, string, error) {
	dir, name := ParsePath(pathname).Base()
	if name == "" {
		return nil, "", opError(op, pathname, ErrNoSuchEntry)
	}

	parent, err := Resolve(dir, m.root)
	if err != nil {
		return nil, "", opError(op, pathname, err)
	}
	return parent, name, nil
}

// emplaceNew constructs a template inode via fill and emplaces it
// under the final component of pathname. All four creation
// operations (mkdir, create, mknod, symlink) funnel through here.
func (m *MemFS) emplaceNew(op, pathname string, fill func(template *Inode, now time.Time)) error {
	parent, name, err := m.resolveParent(op, pathname)
	if err != nil {
		return err
	}
	if !parent.Stat.IsDir() {
		return opError(op, pathname, ErrNotDirectory)
	}

	template := NewInode()
	fill(template, m.now())
	parent.EmplaceDentry(name, template)

	coreLogger.Debug("%s %q (mode=%o)", op, pathname, template.Stat.Mode)
	return nil
}

// Getattr returns a copy of the inode's stat record.
func (m *MemFS) Getattr(pathname string) (Stat, error) {
	node, err := m.resolve("getattr", pathname)
	if err != nil {
		return Stat{}, err
	}
	return node.Stat, nil
}

// Readdir emits ".", "..", then every child name in sorted order, and
// touches the directory's atime.
func (m *MemFS) Readdir(pathname string, emit func(name string)) error {
	emit(".")
	emit("..")

	node, err := m.resolve("readdir", pathname)
	if err != nil {
		return err
	}
	node.Stat.Atime = m.now()

	node.EachDentry(func(name string, _ *Inode) bool {
		emit(name)
		return true
	})
	return nil
}

// Mkdir creates a directory with the given permission bits.
func (m *MemFS) Mkdir(pathname string, mode uint32) error {
	return m.emplaceNew("mkdir", pathname, func(template *Inode, now time.Time) {
		template.Stat.Mode = mode | unix.S_IFDIR
		template.Stat.Atime = now
		template.Stat.Ctime = now
		template.Stat.Mtime = now
	})
}

// Create creates a file inode with mode as given and a link count of
// one.
func (m *MemFS) Create(pathname string, mode uint32) error {
	return m.emplaceNew("create", pathname, func(template *Inode, now time.Time) {
		template.Stat.Mode = mode
		template.Stat.Nlink = 1
		template.Stat.Atime = now
		template.Stat.Ctime = now
		template.Stat.Mtime = now
	})
}

// Mknod creates a node like Create and records the device number.
func (m *MemFS) Mknod(pathname string, mode uint32, dev uint64) error {
	return m.emplaceNew("mknod", pathname, func(template *Inode, now time.Time) {
		template.Stat.Mode = mode
		template.Stat.Nlink = 1
		template.Stat.Atime = now
		template.Stat.Ctime = now
		template.Stat.Mtime = now
		template.Stat.Dev = dev
	})
}

// Symlink creates a symlink at linkPath whose payload is target.
func (m *MemFS) Symlink(target, linkPath string) error {
	return m.emplaceNew("symlink", linkPath, func(template *Inode, now time.Time) {
		template.Stat.Mode = unix.S_IFLNK | 0o755
		template.Stat.Nlink = 1
		template.Stat.Atime = now
		template.Stat.Ctime = now
		template.Stat.Mtime = now
		template.Write([]byte(target), 0)
	})
}

// Readlink copies up to len(buf) bytes of the link payload into buf.
func (m *MemFS) Readlink(pathname string, buf []byte) (int, error) {
	node, err := m.resolve("readlink", pathname)
	if err != nil {
		return 0, err
	}
	node.Stat.Atime = m.now()
	return node.Read(buf, 0), nil
}

// Open resolves the inode and touches its atime. The engine keeps no
// per-open state; directory opens take this same path.
func (m *MemFS) Open(pathname string) error {
	node, err := m.resolve("open", pathname)
	if err != nil {
		return err
	}
	node.Stat.Atime = m.now()
	return nil
}

// Read copies file content into buf starting at off and returns the
// byte count.
func (m *MemFS) Read(pathname string, buf []byte, off int64) (int, error) {
	node, err := m.resolve("read", pathname)
	if err != nil {
		return 0, err
	}

	if m.hashCheck {
		coreLogger.Debug("Content hash of %q: %s", pathname, node.data.contentHash())
	}

	node.Stat.Atime = m.now()
	return node.Read(buf, off), nil
}

// Write copies buf into the file at off, extending it as needed, and
// returns the byte count.
func (m *MemFS) Write(pathname string, buf []byte, off int64) (int, error) {
	node, err := m.resolve("write", pathname)
	if err != nil {
		return 0, err
	}

	if m.hashCheck {
		coreLogger.Debug("Content hash of %q before write: %s", pathname, node.data.contentHash())
	}

	node.Stat.Ctime = m.now()
	written := node.Write(buf, off)

	if m.hashCheck {
		coreLogger.Debug("Content hash of %q after write: %s", pathname, node.data.contentHash())
	}

	return written, nil
}

// Truncate resizes the file to size bytes.
func (m *MemFS) Truncate(pathname string, size int64) error {
	node, err := m.resolve("truncate", pathname)
	if err != nil {
		return err
	}
	node.Truncate(size)
	return nil
}

// Fallocate pre-allocates storage for offset+length bytes and
// normalizes the inode as a regular file. Allocation flag semantics
// are ignored.
func (m *MemFS) Fallocate(pathname string, mode uint32, off, length int64) error {
	node, err := m.resolve("fallocate", pathname)
	if err != nil {
		return err
	}

	node.Stat.Mode = mode | unix.S_IFREG
	node.Stat.Nlink = 1
	node.Stat.Ctime = m.now()
	node.Truncate(off + length)
	return nil
}

// Chmod replaces the permission bits, preserving the type bits.
func (m *MemFS) Chmod(pathname string, mode uint32) error {
	node, err := m.resolve("chmod", pathname)
	if err != nil {
		return err
	}
	node.Stat.Mode = node.Stat.Mode&unix.S_IFMT | mode&^uint32(unix.S_IFMT)
	return nil
}

// Chown sets the owner and group.
func (m *MemFS) Chown(pathname string, uid, gid uint32) error {
	node, err := m.resolve("chown", pathname)
	if err != nil {
		return err
	}
	node.Stat.UID = uid
	node.Stat.GID = gid
	return nil
}

// Utimens sets the access and modification times.
func (m *MemFS) Utimens(pathname string, atime, mtime time.Time) error {
	node, err := m.resolve("utimens", pathname)
	if err != nil {
		return err
	}
	node.Stat.Atime = atime
	node.Stat.Mtime = mtime
	return nil
}

// Unlink removes the named entry and destroys its inode. Aimed at the
// root it fails with ErrIsDirectory. Link counts are not consulted:
// removal always destroys.
func (m *MemFS) Unlink(pathname string) error {
	if len(ParsePath(pathname)) == 0 {
		return opError("unlink", pathname, ErrIsDirectory)
	}

	parent, name, err := m.resolveParent("unlink", pathname)
	if err != nil {
		return err
	}

	if err := parent.DelDentry(name, false); err != nil {
		return opError("unlink", pathname, err)
	}

	coreLogger.Debug("unlink %q", pathname)
	return nil
}

// Rmdir removes an empty directory. The root fails with ErrBusy, a
// non-directory with ErrNotDirectory, a non-empty directory with
// ErrNotEmpty.
func (m *MemFS) Rmdir(pathname string) error {
	if len(ParsePath(pathname)) == 0 {
		return opError("rmdir", pathname, ErrBusy)
	}

	parent, name, err := m.resolveParent("rmdir", pathname)
	if err != nil {
		return err
	}

	target, err := parent.FindDentry(name)
	if err != nil {
		return opError("rmdir", pathname, err)
	}

	if !target.Stat.IsDir() {
		return opError("rmdir", pathname, ErrNotDirectory)
	}
	if target.DentryCount() != 0 {
		return opError("rmdir", pathname, ErrNotEmpty)
	}

	if err := parent.DelDentry(name, false); err != nil {
		return opError("rmdir", pathname, err)
	}

	coreLogger.Debug("rmdir %q", pathname)
	return nil
}

// Rename moves the inode named by src under the parent and name given
// by dst. The child is detached from its source parent intact, then
// linked owned under the destination; a previous occupant of the
// destination name is destroyed by the replacement. Between the two
// steps the inode briefly has no parent link.
func (m *MemFS) Rename(src, dst string) error {
	srcParent, srcName, err := m.resolveParent("rename", src)
	if err != nil {
		return err
	}
	dstParent, dstName, err := m.resolveParent("rename", dst)
	if err != nil {
		return err
	}

	child, err := srcParent.FindDentry(srcName)
	if err != nil {
		return opError("rename", src, err)
	}

	if err := srcParent.DelDentry(srcName, true); err != nil {
		return opError("rename", src, err)
	}
	dstParent.AddDentry(dstName, child, true)
	child.Stat.Ctime = m.now()

	coreLogger.Debug("rename %q -> %q", src, dst)
	return nil
}

// Setxattr inserts or overwrites an extended attribute. With
// XATTR_CREATE an existing name fails with ErrExists; with
// XATTR_REPLACE a missing name fails with ErrNoData.
func (m *MemFS) Setxattr(pathname, name string, value []byte, flags int) error {
	node, err := m.resolve("setxattr", pathname)
	if err != nil {
		return err
	}

	_, present := node.Xattr[name]
	switch flags {
	case unix.XATTR_CREATE:
		if present {
			return opError("setxattr", pathname, ErrExists)
		}
	case unix.XATTR_REPLACE:
		if !present {
			return opError("setxattr", pathname, ErrNoData)
		}
	}

	node.Xattr[name] = append([]byte(nil), value...)
	return nil
}

// Getxattr copies the named attribute value into buf and returns the
// value's length. An empty buf queries the required length; a buf too
// small for the value fails with ErrRange without writing anything.
func (m *MemFS) Getxattr(pathname, name string, buf []byte) (int, error) {
	node, err := m.resolve("getxattr", pathname)
	if err != nil {
		return 0, err
	}

	value, present := node.Xattr[name]
	if !present {
		return 0, opError("getxattr", pathname, ErrNoData)
	}

	if len(buf) == 0 {
		return len(value), nil
	}
	if len(buf) < len(value) {
		return 0, opError("getxattr", pathname, ErrRange)
	}

	copy(buf, value)
	return len(value), nil
}

// Listxattr writes every attribute name, each NUL-terminated, into
// buf in sorted order and returns the total length. An empty buf
// queries the required length; a buf too small fails with ErrRange.
func (m *MemFS) Listxattr(pathname string, buf []byte) (int, error) {
	node, err := m.resolve("listxattr", pathname)
	if err != nil {
		return 0, err
	}

	total := 0
	for name := range node.Xattr {
		total += len(name) + 1
	}

	if len(buf) == 0 {
		return total, nil
	}
	if len(buf) < total {
		return 0, opError("listxattr", pathname, ErrRange)
	}

	off := 0
	for _, name := range sortedXattrNames(node.Xattr) {
		off += copy(buf[off:], name)
		buf[off] = 0
		off++
	}
	return total, nil
}

// sortedXattrNames returns the attribute names in ascending order,
// matching the sorted iteration of the dentry table.
func sortedXattrNames(xattr map[string][]byte) []string {
	names := make([]string, 0, len(xattr))
	for name := range xattr {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Removexattr erases the named attribute, failing with ErrNoData when
// it is absent.
func (m *MemFS) Removexattr(pathname, name string) error {
	node, err := m.resolve("removexattr", pathname)
	if err != nil {
		return err
	}

	if _, present := node.Xattr[name]; !present {
		return opError("removexattr", pathname, ErrNoData)
	}

	delete(node.Xattr, name)
	return nil
}

// Flush is a no-op; the engine holds no dirty state outside the tree.
func (m *MemFS) Flush(pathname string) error { return nil }

// Release is a no-op; opens carry no engine-side handle.
func (m *MemFS) Release(pathname string) error { return nil }

// Fsync is a no-op; there is no backing store to sync.
func (m *MemFS) Fsync(pathname string) error { return nil }

// Releasedir is a no-op, like Release.
func (m *MemFS) Releasedir(pathname string) error { return nil }

// Fsyncdir is a no-op, like Fsync.
func (m *MemFS) Fsyncdir(pathname string) error { return nil }
