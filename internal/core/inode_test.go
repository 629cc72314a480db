package core

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestInodeDentryBasics(t *testing.T) {
	dir := NewInode()
	child := NewInode()

	dir.AddDentry("file", child, true)

	found, err := dir.FindDentry("file")
	require.NoError(t, err)
	require.Same(t, child, found)

	_, err = dir.FindDentry("missing")
	require.ErrorIs(t, err, ErrNoSuchEntry)

	require.Equal(t, 1, dir.DentryCount())
}

func TestInodeDentrySortedIteration(t *testing.T) {
	dir := NewInode()
	for _, name := range []string{"zeta", "alpha", "mike", "bravo"} {
		dir.AddDentry(name, NewInode(), true)
	}

	var names []string
	dir.EachDentry(func(name string, _ *Inode) bool {
		names = append(names, name)
		return true
	})
	require.Equal(t, []string{"alpha", "bravo", "mike", "zeta"}, names)
}

func TestInodeAddDentryReplaces(t *testing.T) {
	dir := NewInode()
	first := NewInode()
	first.Write([]byte("first"), 0)
	dir.AddDentry("name", first, true)

	second := NewInode()
	dir.AddDentry("name", second, true)

	require.Equal(t, 1, dir.DentryCount())
	found, err := dir.FindDentry("name")
	require.NoError(t, err)
	require.Same(t, second, found)

	// The replaced owned child was destroyed.
	require.Equal(t, 0, first.BlockCount())
}

func TestInodeEmplaceDentryDeepCopies(t *testing.T) {
	dir := NewInode()

	template := NewInode()
	template.Stat.Mode = unix.S_IFREG | 0o644
	template.Xattr["user.k"] = []byte("v")
	template.Write([]byte("payload"), 0)

	dir.EmplaceDentry("copy", template)

	child, err := dir.FindDentry("copy")
	require.NoError(t, err)
	require.NotSame(t, template, child)
	require.Equal(t, template.Stat, child.Stat)
	require.Equal(t, []byte("v"), child.Xattr["user.k"])

	// Mutating the template after emplacement must not leak through.
	template.Write([]byte("CLOBBER"), 0)
	template.Xattr["user.k"] = []byte("changed")

	out := make([]byte, child.Size())
	child.Read(out, 0)
	require.Equal(t, "payload", string(out))
	require.Equal(t, []byte("v"), child.Xattr["user.k"])
}

func TestInodeDelDentry(t *testing.T) {
	dir := NewInode()
	child := NewInode()
	grandchild := NewInode()
	grandchild.Write([]byte("deep"), 0)
	child.AddDentry("inner", grandchild, true)
	child.Write([]byte("data"), 0)
	dir.AddDentry("victim", child, true)

	require.ErrorIs(t, dir.DelDentry("absent", false), ErrNoSuchEntry)

	require.NoError(t, dir.DelDentry("victim", false))
	_, err := dir.FindDentry("victim")
	require.ErrorIs(t, err, ErrNoSuchEntry)

	// Owned destruction cascades through the subtree.
	require.Equal(t, 0, child.BlockCount())
	require.Equal(t, 0, child.DentryCount())
	require.Equal(t, 0, grandchild.BlockCount())
}

func TestInodeDelDentryProtectChild(t *testing.T) {
	dir := NewInode()
	child := NewInode()
	child.Write([]byte("keep me"), 0)
	dir.AddDentry("moving", child, true)

	require.NoError(t, dir.DelDentry("moving", true))

	// Detached intact: content survives for re-linking elsewhere.
	out := make([]byte, child.Size())
	child.Read(out, 0)
	require.Equal(t, "keep me", string(out))
}

func TestInodeCountInodes(t *testing.T) {
	root := NewInode()
	require.Equal(t, 1, root.CountInodes())

	a := NewInode()
	b := NewInode()
	c := NewInode()
	root.AddDentry("a", a, true)
	a.AddDentry("b", b, true)
	root.AddDentry("c", c, true)

	require.Equal(t, 4, root.CountInodes())
	require.Equal(t, 2, a.CountInodes())
}

func TestStatTypeBits(t *testing.T) {
	tests := []struct {
		name    string
		mode    uint32
		dir     bool
		regular bool
		symlink bool
	}{
		{name: "directory", mode: unix.S_IFDIR | 0o755, dir: true},
		{name: "regular file", mode: unix.S_IFREG | 0o644, regular: true},
		{name: "symlink", mode: unix.S_IFLNK | 0o755, symlink: true},
		{name: "char device", mode: unix.S_IFCHR | 0o600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stat{Mode: tt.mode}
			require.Equal(t, tt.dir, s.IsDir())
			require.Equal(t, tt.regular, s.IsRegular())
			require.Equal(t, tt.symlink, s.IsSymlink())
		})
	}
}
