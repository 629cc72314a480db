package core

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBlockBufferRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		offset int64
	}{
		{
			name:   "small write at zero",
			data:   []byte("hello world"),
			offset: 0,
		},
		{
			name:   "write within one block",
			data:   bytes.Repeat([]byte{0xAB}, 100),
			offset: 37,
		},
		{
			name:   "write crossing one block boundary",
			data:   bytes.Repeat([]byte{0xCD}, 600),
			offset: BlockSize - 300,
		},
		{
			name:   "write spanning full middle blocks",
			data:   bytes.Repeat([]byte{0xEF}, 3*BlockSize),
			offset: 500,
		},
		{
			name:   "write exactly one block",
			data:   bytes.Repeat([]byte{0x11}, BlockSize),
			offset: 0,
		},
		{
			name:   "write starting past the end",
			data:   []byte("X"),
			offset: 2000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b BlockBuffer
			if n := b.WriteAt(tt.data, tt.offset); n != len(tt.data) {
				t.Fatalf("WriteAt returned %d, want %d", n, len(tt.data))
			}

			if want := tt.offset + int64(len(tt.data)); b.Size() != want {
				t.Errorf("Size() = %d, want %d", b.Size(), want)
			}
			if want := int(blocksFor(b.Size())); b.BlockCount() != want {
				t.Errorf("BlockCount() = %d, want %d", b.BlockCount(), want)
			}

			out := make([]byte, len(tt.data))
			if n := b.ReadAt(out, tt.offset); n != len(tt.data) {
				t.Fatalf("ReadAt returned %d, want %d", n, len(tt.data))
			}
			if diff := cmp.Diff(tt.data, out); diff != "" {
				t.Errorf("Read back mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBlockBufferReadBounds(t *testing.T) {
	var b BlockBuffer
	out := make([]byte, 10)

	if n := b.ReadAt(out, 0); n != 0 {
		t.Errorf("Read of empty buffer returned %d, want 0", n)
	}

	b.WriteAt([]byte("content"), 0)

	if n := b.ReadAt(out, b.Size()); n != 0 {
		t.Errorf("Read at logical end returned %d, want 0", n)
	}
	if n := b.ReadAt(out, b.Size()+100); n != 0 {
		t.Errorf("Read past logical end returned %d, want 0", n)
	}

	// Reads crossing the end are clamped.
	if n := b.ReadAt(out, 5); n != 2 {
		t.Errorf("Clamped read returned %d, want 2", n)
	}
	if string(out[:2]) != "nt" {
		t.Errorf("Clamped read got %q, want %q", out[:2], "nt")
	}
}

func TestBlockBufferHoleReadsZero(t *testing.T) {
	var b BlockBuffer
	b.WriteAt([]byte("X"), 2000)

	if b.Size() != 2001 {
		t.Fatalf("Size() = %d, want 2001", b.Size())
	}
	if b.BlockCount() != 2 {
		t.Fatalf("BlockCount() = %d, want 2", b.BlockCount())
	}

	out := make([]byte, 1)
	if n := b.ReadAt(out, 2000); n != 1 || out[0] != 'X' {
		t.Errorf("Read at 2000 = %d bytes %q, want the written byte", n, out)
	}
	if n := b.ReadAt(out, 5); n != 1 || out[0] != 0 {
		t.Errorf("Hole read = %d bytes %v, want one zero byte", n, out)
	}
}

func TestBlockBufferTruncate(t *testing.T) {
	var b BlockBuffer
	b.WriteAt(bytes.Repeat([]byte{0x7F}, 3000), 0)

	b.Truncate(1500)
	if b.Size() != 1500 {
		t.Errorf("Size() = %d, want 1500", b.Size())
	}
	if b.BlockCount() != 2 {
		t.Errorf("BlockCount() = %d, want 2", b.BlockCount())
	}

	// Truncate is idempotent.
	b.Truncate(1500)
	if b.Size() != 1500 || b.BlockCount() != 2 {
		t.Errorf("Repeated truncate changed state: size=%d blocks=%d", b.Size(), b.BlockCount())
	}

	// Growth appends zeroed blocks; the tail zeroed by the earlier
	// shrink reads as zero.
	b.Truncate(4000)
	if b.Size() != 4000 {
		t.Errorf("Size() = %d, want 4000", b.Size())
	}
	if b.BlockCount() != 4 {
		t.Errorf("BlockCount() = %d, want 4", b.BlockCount())
	}
	out := make([]byte, 1)
	if n := b.ReadAt(out, 1600); n != 1 || out[0] != 0 {
		t.Errorf("Byte re-exposed by growth = %v, want zero", out)
	}

	b.Truncate(0)
	if b.Size() != 0 || b.BlockCount() != 0 {
		t.Errorf("Truncate(0) left size=%d blocks=%d", b.Size(), b.BlockCount())
	}
}

func TestBlockBufferClear(t *testing.T) {
	var b BlockBuffer
	b.WriteAt(bytes.Repeat([]byte{1}, 5000), 0)

	b.Clear()
	if b.Size() != 0 || b.BlockCount() != 0 {
		t.Errorf("Clear left size=%d blocks=%d", b.Size(), b.BlockCount())
	}
}

func TestBlockBufferClone(t *testing.T) {
	var b BlockBuffer
	b.WriteAt([]byte("original content"), 0)

	dup := b.Clone()
	b.WriteAt([]byte("CLOBBERED"), 0)

	out := make([]byte, dup.Size())
	dup.ReadAt(out, 0)
	if string(out) != "original content" {
		t.Errorf("Clone shares blocks with source: %q", out)
	}
}
