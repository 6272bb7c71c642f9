package trieutil

import (
	"testing"
	"unsafe"

	"github.com/adaszko/lighthouse/shared/bytesutil"
	"github.com/adaszko/lighthouse/shared/hashutil"
	"github.com/adaszko/lighthouse/shared/testutil/assert"
	"github.com/adaszko/lighthouse/shared/testutil/require"
)

// The half-node stack is sized so realistic tree depths never grow the
// backing array. Keep an eye on the struct size so that stays cheap.
func TestHalfNodeSize(t *testing.T) {
	assert.Equal(t, uintptr(40), unsafe.Sizeof(halfNode{}), "halfNode size changed")
}

func TestNodeDepth(t *testing.T) {
	assert.Equal(t, uint64(0), nodeDepth(1))
	assert.Equal(t, uint64(1), nodeDepth(2))
	assert.Equal(t, uint64(1), nodeDepth(3))
	assert.Equal(t, uint64(2), nodeDepth(4))
	assert.Equal(t, uint64(2), nodeDepth(7))
	assert.Equal(t, uint64(3), nodeDepth(8))
}

func leavesOf(n uint64) [][32]byte {
	leaves := make([][32]byte, n)
	for i := uint64(0); i < n; i++ {
		// Big-endian so each leaf is distinct in its trailing bytes.
		var leaf [32]byte
		copy(leaf[24:], reverse8(bytesutil.Bytes8(i)))
		leaves[i] = leaf
	}
	return leaves
}

func reverse8(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func streamRoot(t *testing.T, leaves [][32]byte, depth uint64) [32]byte {
	m := NewMerkleStream(depth)
	for _, leaf := range leaves {
		require.NoError(t, m.ProcessLeaf(leaf))
	}
	return m.Finish()
}

func compareWithReference(t *testing.T, numLeaves, depth uint64) {
	leaves := leavesOf(numLeaves)
	want := MerkleizePadded(leaves, 1<<(depth-1))
	got := streamRoot(t, leaves, depth)
	assert.Equal(t, want, got, "mismatch with reference root, %d leaves depth %d", numLeaves, depth)
}

func TestFullTrees(t *testing.T) {
	compareWithReference(t, 1, 1)
	compareWithReference(t, 2, 2)
	compareWithReference(t, 4, 3)
	compareWithReference(t, 8, 4)
	compareWithReference(t, 16, 5)
	compareWithReference(t, 32, 6)
	compareWithReference(t, 64, 7)
	compareWithReference(t, 128, 8)
	compareWithReference(t, 256, 9)
	compareWithReference(t, 8192, 14)
}

func TestIncompleteTrees(t *testing.T) {
	compareWithReference(t, 0, 1)
	compareWithReference(t, 0, 2)
	compareWithReference(t, 1, 2)
	for i := uint64(0); i <= 4; i++ {
		compareWithReference(t, i, 3)
	}
	for i := uint64(0); i <= 7; i++ {
		compareWithReference(t, i, 4)
	}
	for i := uint64(0); i <= 15; i++ {
		compareWithReference(t, i, 5)
	}
	for i := uint64(0); i <= 32; i++ {
		compareWithReference(t, i, 6)
	}
	compareWithReference(t, 0, 14)
	compareWithReference(t, 13, 14)
	compareWithReference(t, 8191, 14)
}

// Depth 3 over the four distinct leaves 0x..01 through 0x..04 is small enough
// to write out the expected hash composition by hand.
func TestDepthThreeComposition(t *testing.T) {
	var l1, l2, l3, l4 [32]byte
	l1[31], l2[31], l3[31], l4[31] = 1, 2, 3, 4

	left := hashutil.HashConcat(l1[:], l2[:])
	right := hashutil.HashConcat(l3[:], l4[:])
	want := hashutil.HashConcat(left[:], right[:])

	got := streamRoot(t, [][32]byte{l1, l2, l3, l4}, 3)
	assert.Equal(t, want, got)
}

// A partial depth-4 tree with 3 leaves must equal the full tree with the
// remaining five leaves all zero.
func TestPartialEqualsZeroPadded(t *testing.T) {
	leaves := leavesOf(3)
	padded := make([][32]byte, 8)
	copy(padded, leaves)

	full := streamRoot(t, padded, 4)
	partial := streamRoot(t, leaves, 4)
	assert.Equal(t, full, partial)
}

func TestNewForLeafCount(t *testing.T) {
	expectedDepths := map[uint64]uint64{
		0: 1, 1: 1, 2: 2, 3: 3, 4: 3, 5: 4, 6: 4, 7: 4, 8: 4,
		9: 5, 10: 5, 11: 5, 12: 5, 13: 5, 14: 5, 15: 5, 16: 5,
	}
	for numLeaves, depth := range expectedDepths {
		m := NewMerkleStreamForLeafCount(numLeaves)
		require.Equal(t, depth, m.depth, "wrong depth for %d leaves", numLeaves)

		leaves := leavesOf(numLeaves)
		fromCount := NewMerkleStreamForLeafCount(numLeaves)
		fromDepth := NewMerkleStream(depth)
		for _, leaf := range leaves {
			require.NoError(t, fromCount.ProcessLeaf(leaf))
			require.NoError(t, fromDepth.ProcessLeaf(leaf))
		}
		assert.Equal(t, fromDepth.Finish(), fromCount.Finish(), "roots diverge at %d leaves", numLeaves)
	}
}

func TestEmptyDepthOne(t *testing.T) {
	m := NewMerkleStream(1)
	assert.Equal(t, [32]byte{}, m.Finish())
}

func TestMaximumLeavesExceeded(t *testing.T) {
	for _, depth := range []uint64{1, 2, 3, 4} {
		m := NewMerkleStream(depth)
		allowed := uint64(1) << depth
		for i := uint64(0); i < allowed; i++ {
			require.NoError(t, m.ProcessLeaf([32]byte{byte(i)}), "depth %d leaf %d", depth, i)
		}
		err := m.ProcessLeaf([32]byte{0xff})
		require.NotNil(t, err, "depth %d accepted too many leaves", depth)
		exceeded, ok := err.(MaximumLeavesExceededError)
		require.Equal(t, true, ok)
		assert.Equal(t, uint64(1)<<(depth+1), exceeded.MaxLeaves)
	}
}

func TestZeroHashChain(t *testing.T) {
	assert.Equal(t, [32]byte{}, ZeroHash(0))
	z0 := ZeroHash(0)
	assert.Equal(t, hashutil.HashConcat(z0[:], z0[:]), ZeroHash(1))
	z1 := ZeroHash(1)
	assert.Equal(t, hashutil.HashConcat(z1[:], z1[:]), ZeroHash(2))
}
