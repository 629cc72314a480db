package fs

import (
	"context"

	"memfs/internal/logging"

	"bazil.org/fuse"
)

var nodeLogger = logging.GetLogger().WithPrefix("node")

// node is the state shared by every FUSE node: the filesystem and the
// path the node was reached by. Attribute, setattr and xattr handling
// are identical for files and directories and live here.
type node struct {
	fs   *FS
	path string
}

func (n *node) childPath(name string) string {
	if n.path == "/" {
		return "/" + name
	}
	return n.path + "/" + name
}

// Attr implements the Node interface, filling attributes from the
// engine's stat record.
func (n *node) Attr(_ context.Context, a *fuse.Attr) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	st, err := n.fs.core.Getattr(n.path)
	if err != nil {
		nodeLogger.Trace("Attr failed for %q: %v", n.path, err)
		return toFuseErr(err)
	}

	a.Mode = fileModeFromUnix(st.Mode)
	a.Size = safeInt64ToUint64(st.Size)
	a.Nlink = st.Nlink
	a.Uid = st.UID
	a.Gid = st.GID
	a.Rdev = uint32(st.Dev)
	a.Atime = st.Atime
	a.Mtime = st.Mtime
	a.Ctime = st.Ctime
	a.BlockSize = 4096
	a.Blocks = safeInt64ToUint64((st.Size + 511) / 512)
	return nil
}

// Setattr implements the NodeSetattrer interface, decomposing the
// request into the engine's truncate, chmod, chown and utimens
// operations.
func (n *node) Setattr(_ context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	nodeLogger.Debug("Setattr %q (valid=%v)", n.path, req.Valid)

	if req.Valid.Size() {
		if err := n.fs.core.Truncate(n.path, int64(req.Size)); err != nil {
			return toFuseErr(err)
		}
	}

	if req.Valid.Mode() {
		if err := n.fs.core.Chmod(n.path, unixModeFromFileMode(req.Mode)); err != nil {
			return toFuseErr(err)
		}
	}

	if req.Valid.Uid() || req.Valid.Gid() {
		st, err := n.fs.core.Getattr(n.path)
		if err != nil {
			return toFuseErr(err)
		}
		uid, gid := st.UID, st.GID
		if req.Valid.Uid() {
			uid = req.Uid
		}
		if req.Valid.Gid() {
			gid = req.Gid
		}
		if err := n.fs.core.Chown(n.path, uid, gid); err != nil {
			return toFuseErr(err)
		}
	}

	if req.Valid.Atime() || req.Valid.Mtime() {
		st, err := n.fs.core.Getattr(n.path)
		if err != nil {
			return toFuseErr(err)
		}
		atime, mtime := st.Atime, st.Mtime
		if req.Valid.Atime() {
			atime = req.Atime
		}
		if req.Valid.Mtime() {
			mtime = req.Mtime
		}
		if err := n.fs.core.Utimens(n.path, atime, mtime); err != nil {
			return toFuseErr(err)
		}
	}

	st, err := n.fs.core.Getattr(n.path)
	if err != nil {
		return toFuseErr(err)
	}
	resp.Attr.Mode = fileModeFromUnix(st.Mode)
	resp.Attr.Size = safeInt64ToUint64(st.Size)
	resp.Attr.Uid = st.UID
	resp.Attr.Gid = st.GID
	resp.Attr.Atime = st.Atime
	resp.Attr.Mtime = st.Mtime
	resp.Attr.Ctime = st.Ctime
	return nil
}

// Fsync implements the NodeFsyncer interface; nothing to sync.
func (n *node) Fsync(_ context.Context, req *fuse.FsyncRequest) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	if req.Dir {
		return toFuseErr(n.fs.core.Fsyncdir(n.path))
	}
	return toFuseErr(n.fs.core.Fsync(n.path))
}

// Getxattr implements the NodeGetxattrer interface.
func (n *node) Getxattr(_ context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	nodeLogger.Debug("Getxattr %q on %q (size=%d)", req.Name, n.path, req.Size)

	length, err := n.fs.core.Getxattr(n.path, req.Name, nil)
	if err != nil {
		return toFuseErr(err)
	}

	if req.Size == 0 {
		// Kernel is probing for the value length.
		resp.Xattr = make([]byte, length)
		return nil
	}

	buf := make([]byte, req.Size)
	got, err := n.fs.core.Getxattr(n.path, req.Name, buf)
	if err != nil {
		return toFuseErr(err)
	}
	resp.Xattr = buf[:got]
	return nil
}

// Setxattr implements the NodeSetxattrer interface.
func (n *node) Setxattr(_ context.Context, req *fuse.SetxattrRequest) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	nodeLogger.Debug("Setxattr %q on %q (%d bytes, flags=%#x)",
		req.Name, n.path, len(req.Xattr), req.Flags)
	return toFuseErr(n.fs.core.Setxattr(n.path, req.Name, req.Xattr, int(req.Flags)))
}

// Listxattr implements the NodeListxattrer interface.
func (n *node) Listxattr(_ context.Context, req *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	total, err := n.fs.core.Listxattr(n.path, nil)
	if err != nil {
		return toFuseErr(err)
	}

	buf := make([]byte, total)
	if _, err := n.fs.core.Listxattr(n.path, buf); err != nil {
		return toFuseErr(err)
	}
	resp.Xattr = buf
	return nil
}

// Removexattr implements the NodeRemovexattrer interface.
func (n *node) Removexattr(_ context.Context, req *fuse.RemovexattrRequest) error {
	n.fs.mu.Lock()
	defer n.fs.mu.Unlock()

	nodeLogger.Debug("Removexattr %q on %q", req.Name, n.path)
	return toFuseErr(n.fs.core.Removexattr(n.path, req.Name))
}
