package fs

import (
	"context"
	"syscall"

	"memfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var dirLogger = logging.GetLogger().WithPrefix("dir")

// Dir is a directory node. Namespace-changing requests resolve
// against the engine under this directory's path.
type Dir struct {
	node
}

// Lookup implements the NodeStringLookuper interface, finding a child
// node and typing it by the engine's stat record.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	childPath := d.childPath(name)
	dirLogger.Trace("Looking up %q in %q", name, d.path)

	st, err := d.fs.core.Getattr(childPath)
	if err != nil {
		return nil, toFuseErr(err)
	}

	if st.IsDir() {
		return &Dir{node{fs: d.fs, path: childPath}}, nil
	}
	return &File{node{fs: d.fs, path: childPath}}, nil
}

// Open implements the NodeOpener interface for opendir; the engine
// records the access time. The directory serves as its own handle.
func (d *Dir) Open(_ context.Context, _ *fuse.OpenRequest, _ *fuse.OpenResponse) (fusefs.Handle, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if err := d.fs.core.Open(d.path); err != nil {
		return nil, toFuseErr(err)
	}
	return d, nil
}

// ReadDirAll implements the HandleReadDirAller interface, listing
// directory contents in the engine's sorted order.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	dirLogger.Debug("Reading directory contents: %q", d.path)

	var names []string
	err := d.fs.core.Readdir(d.path, func(name string) {
		names = append(names, name)
	})
	if err != nil {
		return nil, toFuseErr(err)
	}

	entries := make([]fuse.Dirent, 0, len(names))
	for _, name := range names {
		entries = append(entries, fuse.Dirent{Name: name, Type: d.direntType(name)})
	}

	dirLogger.Debug("Directory %q contains %d entries", d.path, len(entries))
	return entries, nil
}

// direntType looks up the child's type bits; "." and ".." are
// directories by synthesis.
func (d *Dir) direntType(name string) fuse.DirentType {
	if name == "." || name == ".." {
		return fuse.DT_Dir
	}

	st, err := d.fs.core.Getattr(d.childPath(name))
	if err != nil {
		return fuse.DT_Unknown
	}
	switch {
	case st.IsDir():
		return fuse.DT_Dir
	case st.IsSymlink():
		return fuse.DT_Link
	default:
		return fuse.DT_File
	}
}

// Mkdir implements the NodeMkdirer interface.
func (d *Dir) Mkdir(_ context.Context, req *fuse.MkdirRequest) (fusefs.Node, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	childPath := d.childPath(req.Name)
	dirLogger.Info("Creating directory %q", childPath)

	if err := d.fs.core.Mkdir(childPath, unixModeFromFileMode(req.Mode)); err != nil {
		return nil, toFuseErr(err)
	}
	return &Dir{node{fs: d.fs, path: childPath}}, nil
}

// Create implements the NodeCreater interface, creating a regular
// file and opening it.
func (d *Dir) Create(_ context.Context, req *fuse.CreateRequest, _ *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	childPath := d.childPath(req.Name)
	dirLogger.Info("Creating file %q (mode=%v)", childPath, req.Mode)

	if err := d.fs.core.Create(childPath, unixModeFromFileMode(req.Mode)); err != nil {
		return nil, nil, toFuseErr(err)
	}

	file := &File{node{fs: d.fs, path: childPath}}
	return file, &FileHandle{fs: d.fs, path: childPath}, nil
}

// Mknod implements the NodeMknoder interface.
func (d *Dir) Mknod(_ context.Context, req *fuse.MknodRequest) (fusefs.Node, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	childPath := d.childPath(req.Name)
	dirLogger.Info("Creating node %q (mode=%v rdev=%d)", childPath, req.Mode, req.Rdev)

	if err := d.fs.core.Mknod(childPath, unixModeFromFileMode(req.Mode), uint64(req.Rdev)); err != nil {
		return nil, toFuseErr(err)
	}

	if req.Mode.IsDir() {
		return &Dir{node{fs: d.fs, path: childPath}}, nil
	}
	return &File{node{fs: d.fs, path: childPath}}, nil
}

// Symlink implements the NodeSymlinker interface.
func (d *Dir) Symlink(_ context.Context, req *fuse.SymlinkRequest) (fusefs.Node, error) {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	childPath := d.childPath(req.NewName)
	dirLogger.Info("Creating symlink %q -> %q", childPath, req.Target)

	if err := d.fs.core.Symlink(req.Target, childPath); err != nil {
		return nil, toFuseErr(err)
	}
	return &File{node{fs: d.fs, path: childPath}}, nil
}

// Remove implements the NodeRemover interface, removing a file or
// directory.
func (d *Dir) Remove(_ context.Context, req *fuse.RemoveRequest) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	childPath := d.childPath(req.Name)
	dirLogger.Info("Removing %q (isDir=%v)", childPath, req.Dir)

	if req.Dir {
		return toFuseErr(d.fs.core.Rmdir(childPath))
	}
	return toFuseErr(d.fs.core.Unlink(childPath))
}

// Rename implements the NodeRenamer interface, moving an entry into
// the directory node newDir.
func (d *Dir) Rename(_ context.Context, req *fuse.RenameRequest, newDir fusefs.Node) error {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	target, ok := newDir.(*Dir)
	if !ok {
		dirLogger.Error("Rename target is not a directory node")
		return syscall.EINVAL
	}

	src := d.childPath(req.OldName)
	dst := target.childPath(req.NewName)
	dirLogger.Info("Renaming %q to %q", src, dst)

	return toFuseErr(d.fs.core.Rename(src, dst))
}
