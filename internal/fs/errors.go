package fs

import "memfs/internal/core"

// toFuseErr translates an engine error into the errno the kernel
// expects. The engine owns the mapping; this keeps the calling
// convention (nil stays nil) at the bridge boundary.
func toFuseErr(err error) error {
	if err == nil {
		return nil
	}
	return core.ToErrno(err)
}
