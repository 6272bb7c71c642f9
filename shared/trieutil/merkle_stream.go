// Package trieutil defines utilities for computing Merkle roots the way the
// beacon chain expects them: binary trees over 32-byte chunks, padded with
// precomputed zero-subtree hashes.
package trieutil

import (
	"fmt"
	"hash"
	"math/bits"

	"github.com/minio/sha256-simd"
)

// minHalfNodeStack is the smallest preallocated half-node stack. A stack of 8
// lets a tree with 128 leaves hash without growing the backing array.
const minHalfNodeStack = 8

// MaximumLeavesExceededError is returned by ProcessLeaf once a stream has
// already absorbed 1 << depth leaves, for the depth chosen at construction.
type MaximumLeavesExceededError struct {
	MaxLeaves uint64
}

func (e MaximumLeavesExceededError) Error() string {
	return fmt.Sprintf("maximum leaves exceeded, max leaves %d", e.MaxLeaves)
}

// halfNode is a node that has had a left child supplied, but not a right
// child. The root node has an id of 1 and ids increase moving down the tree
// from left to right, so the left child of node i is 2i and the right child
// is 2i+1.
type halfNode struct {
	left [32]byte
	id   uint64
}

// MerkleStream is a Merkle-root hasher that accepts leaves one at a time and
// treats all leaves that were never supplied as [32]byte{}, using the
// precomputed zero-hash table instead of hashing zeros at runtime.
//
// The hasher folds the tree up as leaves arrive, so it only ever holds one
// half-complete node per tree level. A stream is single use: create, absorb
// leaves left to right, then Finish.
type MerkleStream struct {
	// halfNodes stores nodes awaiting a right child, ordered bottom-to-top
	// by ascending depth (descending id). At most one entry per level.
	halfNodes []halfNode
	depth     uint64
	// nextLeaf is the id of the next leaf to absorb. Leaves of a tree with
	// depth d occupy ids [1<<(d-1), 1<<d).
	nextLeaf uint64
	root     *[32]byte
	hasher   hash.Hash
}

// parent returns the id of the parent of node i.
func parent(i uint64) uint64 {
	return i / 2
}

// nodeDepth returns the depth of the node with id i. The root (id 1) has
// depth 0. It is a logic error to provide i == 0.
func nodeDepth(i uint64) uint64 {
	return uint64(bits.Len64(i) - 1)
}

// NewMerkleStream instantiates an empty hasher for a tree with the given
// number of layers, which has capacity for 1 << (depth - 1) leaves. A depth
// of 0 is treated as 1. The depth of the tree cannot grow after
// instantiation.
func NewMerkleStream(depth uint64) *MerkleStream {
	if depth == 0 {
		depth = 1
	}
	stackSize := depth
	if stackSize < minHalfNodeStack {
		stackSize = minHalfNodeStack
	}
	return &MerkleStream{
		halfNodes: make([]halfNode, 0, stackSize),
		depth:     depth,
		nextLeaf:  1 << (depth - 1),
		hasher:    sha256.New(),
	}
}

// NewMerkleStreamForLeafCount determines the smallest tree that can
// accommodate the given number of leaves and instantiates a hasher for it.
// If numLeaves == 0 a tree of depth 1 is created, which yields a root of
// [32]byte{} when no leaves are supplied.
func NewMerkleStreamForLeafCount(numLeaves uint64) *MerkleStream {
	return NewMerkleStream(nodeDepth(nextPowerOfTwo(numLeaves)) + 1)
}

func nextPowerOfTwo(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	return 1 << uint(bits.Len64(v-1))
}

// ProcessLeaf absorbs the next leaf in the tree. The check admits up to
// 1 << depth leaves, twice the tree's 1 << (depth - 1) capacity; the leaf
// after that returns MaximumLeavesExceededError with MaxLeaves set to
// 1 << (depth + 1).
func (m *MerkleStream) ProcessLeaf(leaf [32]byte) error {
	if m.nextLeaf-(1<<(m.depth-1)) >= 1<<m.depth {
		return MaximumLeavesExceededError{MaxLeaves: 1 << (m.depth + 1)}
	}

	switch {
	case m.nextLeaf == 1:
		// A tree of depth one has a root equal to the first given leaf.
		root := leaf
		m.root = &root
	case m.nextLeaf%2 == 0:
		m.processLeftNode(m.nextLeaf, leaf)
	default:
		m.processRightNode(m.nextLeaf, leaf)
	}

	m.nextLeaf++
	return nil
}

// Finish returns the root of the Merkle tree. If not all leaves have been
// provided, the tree is completed under the assumption that every
// not-yet-provided leaf equals [32]byte{}.
func (m *MerkleStream) Finish() [32]byte {
	for {
		if m.root != nil {
			return *m.root
		}
		if n := len(m.halfNodes); n > 0 {
			rightChild := m.halfNodes[n-1].id*2 + 1
			m.processRightNode(rightChild, m.zeroHash(rightChild))
		} else if m.nextLeaf == 1 {
			// nextLeaf can only be 1 for a tree of depth one. No leaf was
			// supplied, so the root is zero.
			return [32]byte{}
		} else {
			// No half-nodes and a depth of two or more means no leaves were
			// supplied at all. Feeding one zero leaf here routes every
			// further step through the right-node branch above.
			m.processLeftNode(m.nextLeaf, m.zeroHash(m.nextLeaf))
		}
	}
}

// processLeftNode handles a node that will become the left child of its
// parent: the only option is to push a new half-node.
func (m *MerkleStream) processLeftNode(id uint64, preimage [32]byte) {
	m.halfNodes = append(m.halfNodes, halfNode{id: parent(id), left: preimage})
}

// processRightNode handles a node that will become the right child of its
// parent. Completing the parent may in turn complete the parent's parent, so
// this walks up the tree collapsing half-nodes until it either records the
// root or finds a level with no waiting half-node.
func (m *MerkleStream) processRightNode(id uint64, preimage [32]byte) {
	p := parent(id)
	for {
		n := len(m.halfNodes)
		if n == 0 || m.halfNodes[n-1].id != p {
			m.halfNodes = append(m.halfNodes, halfNode{id: p, left: preimage})
			return
		}
		top := m.halfNodes[n-1]
		m.halfNodes = m.halfNodes[:n-1]
		preimage = m.hashPair(top.left, preimage)
		if p == 1 {
			root := preimage
			m.root = &root
			return
		}
		p = parent(p)
	}
}

func (m *MerkleStream) hashPair(left, right [32]byte) [32]byte {
	var out [32]byte
	m.hasher.Reset()
	m.hasher.Write(left[:])
	m.hasher.Write(right[:])
	m.hasher.Sum(out[:0])
	return out
}

// zeroHash returns the precomputed hash of a fully-zeroed subtree rooted at
// the given node id. For a leaf id this is the zero leaf itself.
func (m *MerkleStream) zeroHash(id uint64) [32]byte {
	return zeroHashes[m.depth-(nodeDepth(id)+1)]
}
