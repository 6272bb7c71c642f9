package trieutil

import (
	"github.com/prysmaticlabs/gohashtree"
)

// MerkleizePadded computes the root of a binary Merkle tree with the given
// chunks as leaves, padded with zero chunks up to limit leaves. It hashes
// whole layers at a time and is used as the reference implementation that
// MerkleStream is checked against, and for batch-merkleizing the fixed-size
// vectors inside consensus containers.
//
// A limit of 0 or 1 returns the sole chunk (or the zero chunk).
func MerkleizePadded(chunks [][32]byte, limit uint64) [32]byte {
	if limit <= 1 {
		if len(chunks) == 0 {
			return [32]byte{}
		}
		return chunks[0]
	}

	limit = nextPowerOfTwo(limit)
	depth := nodeDepth(limit)

	layer := make([][32]byte, len(chunks))
	copy(layer, chunks)

	for height := uint64(0); height < depth; height++ {
		if len(layer) == 0 {
			return zeroHashes[depth]
		}
		if len(layer)%2 == 1 {
			layer = append(layer, zeroHashes[height])
		}
		next := make([][32]byte, len(layer)/2)
		if err := gohashtree.Hash(next, layer); err != nil {
			// Only reachable on mismatched buffer lengths, which the
			// padding above rules out.
			panic(err)
		}
		layer = next
	}
	return layer[0]
}
