package trieutil

import (
	"github.com/adaszko/lighthouse/shared/hashutil"
)

// MaxTreeDepth is the maximum tree depth supported by the precomputed
// zero-hash table. Mainnet merkleization never exceeds depth 40.
const MaxTreeDepth = 64

// zeroHashes[i] is the root of a subtree of depth i whose leaves are all
// `[32]byte{}`. zeroHashes[0] is the zero leaf itself.
var zeroHashes [MaxTreeDepth + 1][32]byte

func init() {
	for i := 1; i <= MaxTreeDepth; i++ {
		zeroHashes[i] = hashutil.HashConcat(zeroHashes[i-1][:], zeroHashes[i-1][:])
	}
}

// ZeroHash returns the root of a fully zero-leafed subtree of the given depth.
func ZeroHash(depth uint64) [32]byte {
	return zeroHashes[depth]
}
