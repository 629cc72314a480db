package fs

import (
	"context"

	"memfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var fileLogger = logging.GetLogger().WithPrefix("file")

// File is a non-directory node: a regular file, symlink or device
// node. Content requests go through a FileHandle.
type File struct {
	node
}

// Open implements the NodeOpener interface; the engine records the
// access time and the handle carries the path for later requests.
func (f *File) Open(_ context.Context, _ *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	fileLogger.Debug("Opening file %q", f.path)

	if err := f.fs.core.Open(f.path); err != nil {
		return nil, toFuseErr(err)
	}

	// Direct IO keeps the page cache out of the way; content lives
	// in process memory already.
	resp.Flags |= fuse.OpenDirectIO
	return &FileHandle{fs: f.fs, path: f.path}, nil
}

// Readlink implements the NodeReadlinker interface, returning the
// symlink payload.
func (f *File) Readlink(_ context.Context, _ *fuse.ReadlinkRequest) (string, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	st, err := f.fs.core.Getattr(f.path)
	if err != nil {
		return "", toFuseErr(err)
	}

	buf := make([]byte, st.Size)
	n, err := f.fs.core.Readlink(f.path, buf)
	if err != nil {
		return "", toFuseErr(err)
	}

	fileLogger.Trace("Readlink %q -> %q", f.path, string(buf[:n]))
	return string(buf[:n]), nil
}

// FileHandle is an open file handle. The engine keeps no per-open
// state, so the handle only remembers the path it was opened by.
type FileHandle struct {
	fs   *FS
	path string
}

// Read implements the HandleReader interface.
func (fh *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fh.fs.mu.Lock()
	defer fh.fs.mu.Unlock()

	fileLogger.Trace("Reading %d bytes from %q at offset %d", req.Size, fh.path, req.Offset)

	buf := make([]byte, req.Size)
	n, err := fh.fs.core.Read(fh.path, buf, req.Offset)
	if err != nil {
		return toFuseErr(err)
	}

	resp.Data = buf[:n]
	return nil
}

// Write implements the HandleWriter interface.
func (fh *FileHandle) Write(_ context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	fh.fs.mu.Lock()
	defer fh.fs.mu.Unlock()

	fileLogger.Trace("Writing %d bytes to %q at offset %d", len(req.Data), fh.path, req.Offset)

	n, err := fh.fs.core.Write(fh.path, req.Data, req.Offset)
	if err != nil {
		return toFuseErr(err)
	}

	resp.Size = n
	return nil
}

// Flush implements the HandleFlusher interface.
func (fh *FileHandle) Flush(_ context.Context, _ *fuse.FlushRequest) error {
	fh.fs.mu.Lock()
	defer fh.fs.mu.Unlock()

	return toFuseErr(fh.fs.core.Flush(fh.path))
}

// Release implements the HandleReleaser interface.
func (fh *FileHandle) Release(_ context.Context, req *fuse.ReleaseRequest) error {
	fh.fs.mu.Lock()
	defer fh.fs.mu.Unlock()

	fileLogger.Debug("Closing handle for %q", fh.path)

	if req.Dir {
		return toFuseErr(fh.fs.core.Releasedir(fh.path))
	}
	return toFuseErr(fh.fs.core.Release(fh.path))
}
