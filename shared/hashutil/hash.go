// Package hashutil includes all hash-function related helpers for the beacon node.
package hashutil

import (
	"hash"
	"sync"

	"github.com/minio/sha256-simd"
)

// Hash defines a function that returns the sha256 checksum of the data passed in.
// https://github.com/ethereum/eth2.0-specs/blob/master/specs/core/0_beacon-chain.md#hash
func Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

var sha256Pool = sync.Pool{New: func() interface{} {
	return sha256.New()
}}

// HashConcat hashes the concatenation of `a || b` without building the
// intermediate 64-byte buffer on the heap.
func HashConcat(a []byte, b []byte) [32]byte {
	h, ok := sha256Pool.Get().(hash.Hash)
	if !ok {
		h = sha256.New()
	}
	defer sha256Pool.Put(h)
	h.Reset()

	var res [32]byte
	h.Write(a)
	h.Write(b)
	h.Sum(res[:0])
	return res
}

// CustomSHA256Hasher returns a hash function that uses
// an enclosed hasher. This is not safe for concurrent
// use as the same hasher is being called throughout.
//
// Note: that this method is only more performant over
// hashutil.Hash if the callback is used more than 5 times.
func CustomSHA256Hasher() func([]byte) [32]byte {
	hasher, ok := sha256Pool.Get().(hash.Hash)
	if !ok {
		hasher = sha256.New()
	} else {
		hasher.Reset()
	}
	var h [32]byte

	return func(data []byte) [32]byte {
		hasher.Write(data)
		hasher.Sum(h[:0])
		hasher.Reset()

		return h
	}
}
