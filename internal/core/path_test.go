package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Path
	}{
		{
			name:     "root is the empty sequence",
			input:    "/",
			expected: nil,
		},
		{
			name:     "single component",
			input:    "/tmp",
			expected: Path{"tmp"},
		},
		{
			name:     "nested components",
			input:    "/tmp/tmp/tmp",
			expected: Path{"tmp", "tmp", "tmp"},
		},
		{
			name:     "trailing slash stripped",
			input:    "/a/b/",
			expected: Path{"a", "b"},
		},
		{
			name:     "relative path",
			input:    "a/b",
			expected: Path{"a", "b"},
		},
		{
			name:     "consecutive slashes keep an empty component",
			input:    "/a//b",
			expected: Path{"a", "", "b"},
		},
		{
			name:     "dot components are not normalized",
			input:    "/a/./b",
			expected: Path{"a", ".", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePath(tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("ParsePath(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestPathBase(t *testing.T) {
	dir, name := ParsePath("/a/b/c").Base()
	if diff := cmp.Diff(Path{"a", "b"}, dir); diff != "" {
		t.Errorf("Base() parent mismatch (-want +got):\n%s", diff)
	}
	if name != "c" {
		t.Errorf("Expected final component %q, got %q", "c", name)
	}

	dir, name = ParsePath("/").Base()
	if dir != nil || name != "" {
		t.Errorf("Expected empty split for root, got %v, %q", dir, name)
	}
}

func TestResolve(t *testing.T) {
	root := NewInode()
	a := NewInode()
	b := NewInode()
	root.AddDentry("a", a, true)
	a.AddDentry("b", b, true)

	tests := []struct {
		name     string
		path     string
		expected *Inode
		wantErr  bool
	}{
		{name: "root", path: "/", expected: root},
		{name: "first level", path: "/a", expected: a},
		{name: "second level", path: "/a/b", expected: b},
		{name: "missing component", path: "/a/x", wantErr: true},
		{name: "empty component never resolves", path: "/a//b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(ParsePath(tt.path), root)
			if tt.wantErr {
				if !errors.Is(err, ErrNoSuchEntry) {
					t.Errorf("Expected ErrNoSuchEntry, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) failed: %v", tt.path, err)
			}
			if got != tt.expected {
				t.Errorf("Resolve(%q) returned wrong inode", tt.path)
			}
		})
	}
}
