package helpers

import (
	"encoding/binary"

	"github.com/adaszko/lighthouse/shared/bytesutil"
	"github.com/adaszko/lighthouse/shared/hashutil"
	"github.com/adaszko/lighthouse/shared/params"
	"github.com/pkg/errors"
)

const seedSize = int8(32)
const roundSize = int8(1)
const positionWindowSize = int8(4)
const pivotViewSize = seedSize + roundSize
const totalSize = seedSize + roundSize + positionWindowSize

// ShuffledIndex returns the shuffled validator index corresponding to seed
// and index count, using the swap-or-not algorithm.
func ShuffledIndex(index uint64, indexCount uint64, seed [32]byte) (uint64, error) {
	return computeShuffledIndex(index, indexCount, seed, true)
}

// UnShuffledIndex returns the inverse of ShuffledIndex, ie. the original
// index for the given shuffled position.
func UnShuffledIndex(index uint64, indexCount uint64, seed [32]byte) (uint64, error) {
	return computeShuffledIndex(index, indexCount, seed, false)
}

// computeShuffledIndex walks the swap-or-not rounds for a single index. The
// spec shuffles forwards; walking the rounds in reverse order inverts the
// permutation.
func computeShuffledIndex(index uint64, indexCount uint64, seed [32]byte, shuffle bool) (uint64, error) {
	if params.BeaconConfig().ShuffleRoundCount == 0 {
		return index, nil
	}
	if index >= indexCount {
		return 0, errors.Errorf("input index %d out of bounds: %d", index, indexCount)
	}
	if indexCount > 1<<40 {
		return 0, errors.Errorf("list size %d out of bounds", indexCount)
	}
	rounds := uint8(params.BeaconConfig().ShuffleRoundCount)
	round := uint8(0)
	if !shuffle {
		// Starting last round and iterating through the rounds in reverse,
		// un-swaps everything, effectively un-shuffling the list.
		round = rounds - 1
	}
	buf := make([]byte, totalSize)
	copy(buf[:32], seed[:])
	for {
		buf[pivotViewSize-1] = round
		ph := hashutil.Hash(buf[:pivotViewSize])
		pivot := binary.LittleEndian.Uint64(ph[:8]) % indexCount
		flip := (pivot + indexCount - index) % indexCount
		// Consider every pair only once by picking the highest pair index.
		position := index
		if flip > position {
			position = flip
		}
		binary.LittleEndian.PutUint32(buf[pivotViewSize:], uint32(position>>8))
		source := hashutil.Hash(buf)
		byteV := source[(position&0xff)>>3]
		bitV := (byteV >> (position & 0x7)) & 0x1
		if bitV == 1 {
			index = flip
		}
		if shuffle {
			round++
			if round == rounds {
				break
			}
		} else {
			if round == 0 {
				break
			}
			round--
		}
	}
	return index, nil
}

// SplitOffset returns (listsize * index) / chunks, the start of a committee
// slice within the shuffled list.
func SplitOffset(listSize, chunks, index uint64) uint64 {
	return (listSize * index) / chunks
}

// ShuffleList shuffles an entire list of indices into a new list, leaving
// the input untouched.
func ShuffleList(input []uint64, seed [32]byte) ([]uint64, error) {
	shuffled := make([]uint64, len(input))
	for i := range input {
		permuted, err := ShuffledIndex(uint64(i), uint64(len(input)), seed)
		if err != nil {
			return nil, err
		}
		shuffled[i] = input[permuted]
	}
	return shuffled, nil
}

// randomByte computes hash(seed || bytes8(n / 32)) and extracts the byte at
// position n % 32, as used by proposer sampling.
func randomByte(seed [32]byte, n uint64) byte {
	buf := append(seed[:], bytesutil.Bytes8(n/32)...)
	h := hashutil.Hash(buf)
	return h[n%32]
}
