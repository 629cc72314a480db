package fs

import (
	fusefs "bazil.org/fuse/fs"
)

// Compile-time checks that each node type implements the FUSE
// interfaces its requests arrive through.
var (
	_ fusefs.FS         = (*FS)(nil)
	_ fusefs.FSStatfser = (*FS)(nil)

	_ fusefs.Node               = (*Dir)(nil)
	_ fusefs.NodeStringLookuper = (*Dir)(nil)
	_ fusefs.NodeOpener         = (*Dir)(nil)
	_ fusefs.HandleReadDirAller = (*Dir)(nil)
	_ fusefs.NodeMkdirer        = (*Dir)(nil)
	_ fusefs.NodeCreater        = (*Dir)(nil)
	_ fusefs.NodeMknoder        = (*Dir)(nil)
	_ fusefs.NodeSymlinker      = (*Dir)(nil)
	_ fusefs.NodeRemover        = (*Dir)(nil)
	_ fusefs.NodeRenamer        = (*Dir)(nil)
	_ fusefs.NodeSetattrer      = (*Dir)(nil)
	_ fusefs.NodeGetxattrer     = (*Dir)(nil)
	_ fusefs.NodeSetxattrer     = (*Dir)(nil)
	_ fusefs.NodeListxattrer    = (*Dir)(nil)
	_ fusefs.NodeRemovexattrer  = (*Dir)(nil)

	_ fusefs.Node           = (*File)(nil)
	_ fusefs.NodeOpener     = (*File)(nil)
	_ fusefs.NodeReadlinker = (*File)(nil)
	_ fusefs.NodeSetattrer  = (*File)(nil)
	_ fusefs.NodeFsyncer    = (*File)(nil)

	_ fusefs.Handle         = (*FileHandle)(nil)
	_ fusefs.HandleReader   = (*FileHandle)(nil)
	_ fusefs.HandleWriter   = (*FileHandle)(nil)
	_ fusefs.HandleFlusher  = (*FileHandle)(nil)
	_ fusefs.HandleReleaser = (*FileHandle)(nil)
)
