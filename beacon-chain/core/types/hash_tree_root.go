package types

import (
	"encoding/binary"

	"github.com/adaszko/lighthouse/shared/hashutil"
	"github.com/adaszko/lighthouse/shared/trieutil"
	"github.com/prysmaticlabs/go-bitfield"
)

// Roots of containers fold the roots of their fields through a streaming
// Merkle hasher; vectors and lists stream their chunks the same way, with
// lists additionally mixing in their length.

func uint64Chunk(v uint64) [32]byte {
	var chunk [32]byte
	binary.LittleEndian.PutUint64(chunk[:8], v)
	return chunk
}

func boolChunk(v bool) [32]byte {
	var chunk [32]byte
	if v {
		chunk[0] = 1
	}
	return chunk
}

func bytes4Chunk(b [4]byte) [32]byte {
	var chunk [32]byte
	copy(chunk[:4], b[:])
	return chunk
}

func bytes48Root(b [48]byte) [32]byte {
	var c0, c1 [32]byte
	copy(c0[:], b[:32])
	copy(c1[:16], b[32:])
	return hashutil.HashConcat(c0[:], c1[:])
}

func bytes96Root(b [96]byte) [32]byte {
	var c0, c1, c2 [32]byte
	copy(c0[:], b[:32])
	copy(c1[:], b[32:64])
	copy(c2[:], b[64:])
	return trieutil.MerkleizePadded([][32]byte{c0, c1, c2}, 4)
}

func mixInLength(root [32]byte, length uint64) [32]byte {
	chunk := uint64Chunk(length)
	return hashutil.HashConcat(root[:], chunk[:])
}

// containerRoot streams the given field roots through a MerkleStream sized
// for the field count.
func containerRoot(fieldRoots ...[32]byte) [32]byte {
	m := trieutil.NewMerkleStreamForLeafCount(uint64(len(fieldRoots)))
	for _, root := range fieldRoots {
		if err := m.ProcessLeaf(root); err != nil {
			// The stream was sized for exactly this leaf count.
			panic(err)
		}
	}
	return m.Finish()
}

func rootsVectorRoot(roots [][32]byte) [32]byte {
	m := trieutil.NewMerkleStreamForLeafCount(uint64(len(roots)))
	for _, root := range roots {
		if err := m.ProcessLeaf(root); err != nil {
			panic(err)
		}
	}
	return m.Finish()
}

func uint64ListRoot(values []uint64) [32]byte {
	chunks := make([][32]byte, 0, len(values)/4+1)
	for i := 0; i < len(values); i += 4 {
		var chunk [32]byte
		for j := 0; j < 4 && i+j < len(values); j++ {
			binary.LittleEndian.PutUint64(chunk[j*8:(j+1)*8], values[i+j])
		}
		chunks = append(chunks, chunk)
	}
	return mixInLength(rootsVectorRoot(chunks), uint64(len(values)))
}

func bitlistRoot(bits bitfield.Bitlist) [32]byte {
	raw := bits.Bytes()
	chunks := make([][32]byte, 0, len(raw)/32+1)
	for i := 0; i < len(raw); i += 32 {
		var chunk [32]byte
		copy(chunk[:], raw[i:])
		chunks = append(chunks, chunk)
	}
	return mixInLength(rootsVectorRoot(chunks), bits.Len())
}

// HashTreeRoot of the fork container.
func (f *Fork) HashTreeRoot() [32]byte {
	if f == nil {
		f = &Fork{}
	}
	return containerRoot(
		bytes4Chunk(f.PreviousVersion),
		bytes4Chunk(f.CurrentVersion),
		uint64Chunk(f.Epoch),
	)
}

// HashTreeRoot of the checkpoint container.
func (c *Checkpoint) HashTreeRoot() [32]byte {
	if c == nil {
		c = &Checkpoint{}
	}
	return containerRoot(uint64Chunk(c.Epoch), c.Root)
}

// HashTreeRoot of a validator registry entry.
func (v *Validator) HashTreeRoot() [32]byte {
	if v == nil {
		v = &Validator{}
	}
	return containerRoot(
		bytes48Root(v.PublicKey),
		uint64Chunk(v.EffectiveBalance),
		boolChunk(v.Slashed),
		uint64Chunk(v.ActivationEpoch),
		uint64Chunk(v.ExitEpoch),
	)
}

// HashTreeRoot of the attestation data container.
func (a *AttestationData) HashTreeRoot() [32]byte {
	if a == nil {
		a = &AttestationData{}
	}
	return containerRoot(
		uint64Chunk(a.Slot),
		uint64Chunk(a.CommitteeIndex),
		a.BeaconBlockRoot,
		a.Source.HashTreeRoot(),
		a.Target.HashTreeRoot(),
	)
}

// HashTreeRoot of an attestation.
func (a *Attestation) HashTreeRoot() [32]byte {
	if a == nil {
		a = &Attestation{}
	}
	return containerRoot(
		bitlistRoot(a.AggregationBits),
		a.Data.HashTreeRoot(),
		bytes96Root(a.Signature),
	)
}

// HashTreeRoot of an indexed attestation.
func (a *IndexedAttestation) HashTreeRoot() [32]byte {
	if a == nil {
		a = &IndexedAttestation{}
	}
	return containerRoot(
		uint64ListRoot(a.AttestingIndices),
		a.Data.HashTreeRoot(),
		bytes96Root(a.Signature),
	)
}

// HashTreeRoot of the block body.
func (b *BeaconBlockBody) HashTreeRoot() [32]byte {
	if b == nil {
		b = &BeaconBlockBody{}
	}
	attRoots := make([][32]byte, len(b.Attestations))
	for i, att := range b.Attestations {
		attRoots[i] = att.HashTreeRoot()
	}
	return containerRoot(
		bytes96Root(b.RandaoReveal),
		b.Graffiti,
		mixInLength(rootsVectorRoot(attRoots), uint64(len(attRoots))),
	)
}

// HashTreeRoot of the block, including its signature. This is the root
// blocks are keyed by in the store.
func (b *BeaconBlock) HashTreeRoot() [32]byte {
	if b == nil {
		b = &BeaconBlock{}
	}
	return containerRoot(
		uint64Chunk(b.Slot),
		b.ParentRoot,
		b.StateRoot,
		b.Body.HashTreeRoot(),
		bytes96Root(b.Signature),
	)
}

// SigningRoot of the block: the root over every field except the signature.
// This is the message the proposer signs.
func (b *BeaconBlock) SigningRoot() [32]byte {
	if b == nil {
		b = &BeaconBlock{}
	}
	return containerRoot(
		uint64Chunk(b.Slot),
		b.ParentRoot,
		b.StateRoot,
		b.Body.HashTreeRoot(),
	)
}

// HashTreeRoot of the beacon state.
func (b *BeaconState) HashTreeRoot() [32]byte {
	if b == nil {
		b = &BeaconState{}
	}
	validatorRoots := make([][32]byte, len(b.Validators))
	for i, v := range b.Validators {
		validatorRoots[i] = v.HashTreeRoot()
	}
	return containerRoot(
		uint64Chunk(b.GenesisTime),
		uint64Chunk(b.Slot),
		b.Fork.HashTreeRoot(),
		rootsVectorRoot(b.BlockRoots),
		rootsVectorRoot(b.StateRoots),
		rootsVectorRoot(b.RandaoMixes),
		mixInLength(rootsVectorRoot(validatorRoots), uint64(len(validatorRoots))),
		uint64ListRoot(b.Balances),
		b.CurrentJustifiedCheckpoint.HashTreeRoot(),
		b.FinalizedCheckpoint.HashTreeRoot(),
	)
}
