// Package fs adapts the path-based engine in internal/core to the
// bazil FUSE node API. Every node records the path it was reached by;
// requests call the matching engine entry point and translate errors
// into numeric status codes.
package fs

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"memfs/internal/core"
	"memfs/internal/logging"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var fsLogger = logging.GetLogger().WithPrefix("fuse")

// FS is the FUSE-facing filesystem. It owns the engine and the mutex
// that serializes request dispatch: the engine is single-threaded by
// design, so every operation takes mu for its full duration.
type FS struct {
	core *core.MemFS
	conn *fuse.Conn
	mu   sync.Mutex
}

// NewFS wraps an engine for serving over FUSE.
func NewFS(engine *core.MemFS) *FS {
	return &FS{core: engine}
}

// Root implements the fusefs.FS interface, returning the root
// directory node.
func (f *FS) Root() (fusefs.Node, error) {
	fsLogger.Trace("Getting root directory node")
	return &Dir{node{fs: f, path: "/"}}, nil
}

// Statfs implements the fusefs.FSStatfser interface.
func (f *FS) Statfs(_ context.Context, req *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.core.Statfs("/")
	if err != nil {
		fsLogger.Error("statfs failed: %v", err)
		return toFuseErr(err)
	}

	resp.Blocks = s.Blocks
	resp.Bfree = s.Bfree
	resp.Bavail = s.Bavail
	resp.Files = s.Files
	resp.Ffree = s.Ffree
	resp.Bsize = s.Bsize
	resp.Namelen = s.Namemax
	resp.Frsize = s.Frsize
	return nil
}

func waitForMount(mountpoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountpoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Mount attaches the filesystem at mountpoint and starts serving.
// Serving runs on a separate goroutine; errors from it are delivered
// on the returned channel.
func (f *FS) Mount(mountpoint string, allowOther bool) (<-chan error, error) {
	fsLogger.Info("Mounting filesystem at %s", mountpoint)

	opts := []fuse.MountOption{
		fuse.FSName("memfs"),
		fuse.Subtype("memfs"),
	}
	if allowOther {
		opts = append(opts, fuse.AllowOther())
	}

	c, err := fuse.Mount(mountpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("mount failed: %w", err)
	}
	f.conn = c

	errc := make(chan error, 1)
	go func() {
		errc <- fusefs.Serve(c, f)
	}()

	if err := waitForMount(mountpoint); err != nil {
		c.Close()
		fsLogger.Error("Mount point not ready: %v", err)
		return nil, fmt.Errorf("mount point failed to initialize: %w", err)
	}

	fsLogger.Info("Filesystem mounted successfully")
	return errc, nil
}

// Unmount cleanly unmounts the filesystem.
func (f *FS) Unmount(mountpoint string) error {
	fsLogger.Info("Unmounting filesystem from: %s", mountpoint)
	if f.conn == nil {
		return nil
	}

	if err := fuse.Unmount(mountpoint); err != nil {
		fsLogger.Error("Unmount failed: %v", err)
		return err
	}

	fsLogger.Info("Unmount completed successfully")
	return nil
}

// Close releases the FUSE connection.
func (f *FS) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}
