package core

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// contentHash digests the logical file content, ignoring the padding
// of the final partial block. Used by the optional read/write
// self-check.
func (b *BlockBuffer) contentHash() string {
	h := blake3.New()

	var done int64
	for _, blk := range b.blocks {
		rest := b.size - done
		if rest > BlockSize {
			rest = BlockSize
		}
		h.Write(blk[:rest])
		done += rest
	}

	return hex.EncodeToString(h.Sum(nil))
}
