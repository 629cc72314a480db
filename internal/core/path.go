package core

import "strings"

// Path is the ordered sequence of name components taken from a POSIX
// path string. The root path "/" parses to the empty sequence.
type Path []string

// ParsePath splits a POSIX path string into its name components. One
// leading and one trailing slash are stripped; the remainder splits
// on every slash. Consecutive slashes produce empty components, which
// never resolve. No "." or ".." normalization happens here.
func ParsePath(pathname string) Path {
	if pathname == "/" {
		return nil
	}

	pathname = strings.TrimPrefix(pathname, "/")
	pathname = strings.TrimSuffix(pathname, "/")

	return Path(strings.Split(pathname, "/"))
}

// Base returns the final component and the path leading up to it.
func (p Path) Base() (Path, string) {
	if len(p) == 0 {
		return nil, ""
	}
	return p[:len(p)-1], p[len(p)-1]
}

// Resolve walks path from root one component at a time and returns
// the inode it names. A missing component fails with ErrNoSuchEntry.
func Resolve(path Path, root *Inode) (*Inode, error) {
	cur := root
	for _, name := range path {
		next, err := cur.FindDentry(name)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
