package core

import (
	"time"

	"github.com/google/btree"
	"golang.org/x/sys/unix"
)

// dentryDegree sizes the B-tree backing a directory's child table.
const dentryDegree = 32

// Stat is the subset of the stat record the engine maintains for
// every inode. Mode carries the POSIX type bits that discriminate
// files, directories, symlinks and device nodes.
type Stat struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	Size  int64
	Nlink uint32
	Dev   uint64
	Atime time.Time
	Mtime time.Time
	Ctime time.Time
}

// IsDir reports whether the type bits name a directory.
func (s *Stat) IsDir() bool {
	return s.Mode&unix.S_IFMT == unix.S_IFDIR
}

// IsRegular reports whether the type bits name a regular file.
func (s *Stat) IsRegular() bool {
	return s.Mode&unix.S_IFMT == unix.S_IFREG
}

// IsSymlink reports whether the type bits name a symbolic link.
func (s *Stat) IsSymlink() bool {
	return s.Mode&unix.S_IFMT == unix.S_IFLNK
}

// dentry is one named child link in a directory. owned records
// whether this directory is responsible for the child's lifetime;
// rename detaches a child without releasing it by protecting the
// link on removal.
type dentry struct {
	name  string
	owned bool
	inode *Inode
}

// Less orders dentries by name, which is what gives readdir its
// sorted output.
func (d *dentry) Less(than btree.Item) bool {
	return d.name < than.(*dentry).name
}

// Inode is the single node type of the tree. The mode bits in Stat
// discriminate what it is; data serves file content, the dentry table
// serves directories. Either may be empty.
type Inode struct {
	// Stat is the publicly mutable stat record.
	Stat Stat

	// Xattr maps extended attribute names to opaque values.
	Xattr map[string][]byte

	data   BlockBuffer
	dentry *btree.BTree
}

// NewInode returns an inode with zeroed stat, no data blocks, no
// children and no extended attributes.
func NewInode() *Inode {
	return &Inode{
		Xattr:  make(map[string][]byte),
		dentry: btree.New(dentryDegree),
	}
}

// Read copies file content into buf starting at off and returns the
// byte count. See BlockBuffer.ReadAt for the boundary rules.
func (n *Inode) Read(buf []byte, off int64) int {
	return n.data.ReadAt(buf, off)
}

// Write copies buf into the file content at off, extending block
// storage as needed, and keeps Stat.Size in step with the logical
// length.
func (n *Inode) Write(buf []byte, off int64) int {
	written := n.data.WriteAt(buf, off)
	n.Stat.Size = n.data.Size()
	return written
}

// Truncate resizes the file content to size bytes and updates
// Stat.Size to match.
func (n *Inode) Truncate(size int64) {
	n.data.Truncate(size)
	n.Stat.Size = size
}

// Size returns the logical byte length of the file content.
func (n *Inode) Size() int64 {
	return n.data.Size()
}

// BlockCount returns the number of storage blocks backing the content.
func (n *Inode) BlockCount() int {
	return n.data.BlockCount()
}

// Clear releases the inode's blocks and, recursively, every owned
// child. Non-owned links are dropped without touching their inode.
func (n *Inode) Clear() {
	n.data.Clear()

	n.dentry.Ascend(func(item btree.Item) bool {
		d := item.(*dentry)
		if d.owned {
			d.inode.Clear()
		}
		return true
	})
	n.dentry.Clear(false)

	for name := range n.Xattr {
		delete(n.Xattr, name)
	}
}

// AddDentry links child under name. An existing link under the same
// name is destroyed first, respecting its owned flag.
func (n *Inode) AddDentry(name string, child *Inode, owned bool) {
	if prev := n.dentry.Delete(&dentry{name: name}); prev != nil {
		if d := prev.(*dentry); d.owned {
			d.inode.Clear()
		}
	}

	n.dentry.ReplaceOrInsert(&dentry{name: name, owned: owned, inode: child})
}

// EmplaceDentry inserts a new owned child under name whose stat and
// xattrs are copied from template and whose data blocks are deep
// copied. A prior child under the same name is replaced. The child is
// fully constructed before the table changes, so a failure cannot
// leave a half-built entry behind.
func (n *Inode) EmplaceDentry(name string, template *Inode) {
	child := NewInode()
	child.Stat = template.Stat
	for k, v := range template.Xattr {
		child.Xattr[k] = append([]byte(nil), v...)
	}
	child.data = template.data.Clone()

	n.AddDentry(name, child, true)
}

// DelDentry removes the named child link. An owned child is destroyed
// along with its subtree unless protectChild detaches it intact,
// which is how rename moves an inode between parents. Fails with
// ErrNoSuchEntry if the name is absent.
func (n *Inode) DelDentry(name string, protectChild bool) error {
	item := n.dentry.Delete(&dentry{name: name})
	if item == nil {
		return ErrNoSuchEntry
	}

	if d := item.(*dentry); d.owned && !protectChild {
		d.inode.Clear()
	}
	return nil
}

// FindDentry returns the child inode linked under name, or
// ErrNoSuchEntry.
func (n *Inode) FindDentry(name string) (*Inode, error) {
	item := n.dentry.Get(&dentry{name: name})
	if item == nil {
		return nil, ErrNoSuchEntry
	}
	return item.(*dentry).inode, nil
}

// EachDentry calls fn for every child in ascending name order until
// fn returns false.
func (n *Inode) EachDentry(fn func(name string, child *Inode) bool) {
	n.dentry.Ascend(func(item btree.Item) bool {
		d := item.(*dentry)
		return fn(d.name, d.inode)
	})
}

// DentryCount returns the number of child links.
func (n *Inode) DentryCount() int {
	return n.dentry.Len()
}

// CountInodes returns the size of the tree rooted at this inode,
// itself included.
func (n *Inode) CountInodes() int {
	count := 1
	n.dentry.Ascend(func(item btree.Item) bool {
		count += item.(*dentry).inode.CountInodes()
		return true
	})
	return count
}
