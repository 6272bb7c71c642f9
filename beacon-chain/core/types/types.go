// Package types defines the consensus containers handled by the beacon node:
// blocks, attestations, and the beacon state, together with their
// serialization and Merkle-root computations.
package types

import (
	"github.com/prysmaticlabs/go-bitfield"
)

// Fork versioning data for the current and previous hard fork.
type Fork struct {
	PreviousVersion [4]byte `json:"previous_version"`
	CurrentVersion  [4]byte `json:"current_version"`
	Epoch           uint64  `json:"epoch"`
}

// Checkpoint is an (epoch, root) pair used by justification and finality.
type Checkpoint struct {
	Epoch uint64   `json:"epoch"`
	Root  [32]byte `json:"root"`
}

// Validator is the registry entry for a single staked validator.
type Validator struct {
	PublicKey        [48]byte `json:"pubkey"`
	EffectiveBalance uint64   `json:"effective_balance"`
	Slashed          bool     `json:"slashed"`
	ActivationEpoch  uint64   `json:"activation_epoch"`
	ExitEpoch        uint64   `json:"exit_epoch"`
}

// AttestationData is the slot/committee/vote content of an attestation.
type AttestationData struct {
	Slot            uint64     `json:"slot"`
	CommitteeIndex  uint64     `json:"committee_index"`
	BeaconBlockRoot [32]byte   `json:"beacon_block_root"`
	Source          Checkpoint `json:"source"`
	Target          Checkpoint `json:"target"`
}

// Attestation with aggregated participation bits and signature.
type Attestation struct {
	AggregationBits bitfield.Bitlist `json:"aggregation_bits"`
	Data            *AttestationData `json:"data"`
	Signature       [96]byte         `json:"signature"`
}

// IndexedAttestation substitutes explicit, sorted validator indices for the
// aggregation bitfield, which is the form aggregate signatures are verified
// in.
type IndexedAttestation struct {
	AttestingIndices []uint64         `json:"attesting_indices"`
	Data             *AttestationData `json:"data"`
	Signature        [96]byte         `json:"signature"`
}

// BeaconBlockBody carries the operations included in a block.
type BeaconBlockBody struct {
	RandaoReveal [96]byte       `json:"randao_reveal"`
	Graffiti     [32]byte       `json:"graffiti"`
	Attestations []*Attestation `json:"attestations"`
}

// BeaconBlock is a consensus block, including its proposer signature.
type BeaconBlock struct {
	Slot       uint64           `json:"slot"`
	ParentRoot [32]byte         `json:"parent_root"`
	StateRoot  [32]byte         `json:"state_root"`
	Body       *BeaconBlockBody `json:"body"`
	Signature  [96]byte         `json:"signature"`
}

// BeaconState holds the subset of the eth2 state machine this node tracks:
// registry, randomness, historical roots and finality checkpoints.
type BeaconState struct {
	GenesisTime                uint64       `json:"genesis_time"`
	Slot                       uint64       `json:"slot"`
	Fork                       *Fork        `json:"fork"`
	BlockRoots                 [][32]byte   `json:"block_roots"`
	StateRoots                 [][32]byte   `json:"state_roots"`
	RandaoMixes                [][32]byte   `json:"randao_mixes"`
	Validators                 []*Validator `json:"validators"`
	Balances                   []uint64     `json:"balances"`
	CurrentJustifiedCheckpoint *Checkpoint  `json:"current_justified_checkpoint"`
	FinalizedCheckpoint        *Checkpoint  `json:"finalized_checkpoint"`
}

// Copy returns a deep copy of the beacon state. Per-slot processing mutates
// the state in place, so any state fetched from the canonical head must be
// copied before advancing.
func (b *BeaconState) Copy() *BeaconState {
	if b == nil {
		return nil
	}
	dst := &BeaconState{
		GenesisTime: b.GenesisTime,
		Slot:        b.Slot,
		BlockRoots:  make([][32]byte, len(b.BlockRoots)),
		StateRoots:  make([][32]byte, len(b.StateRoots)),
		RandaoMixes: make([][32]byte, len(b.RandaoMixes)),
		Validators:  make([]*Validator, len(b.Validators)),
		Balances:    make([]uint64, len(b.Balances)),
	}
	copy(dst.BlockRoots, b.BlockRoots)
	copy(dst.StateRoots, b.StateRoots)
	copy(dst.RandaoMixes, b.RandaoMixes)
	copy(dst.Balances, b.Balances)
	for i, v := range b.Validators {
		val := *v
		dst.Validators[i] = &val
	}
	if b.Fork != nil {
		fork := *b.Fork
		dst.Fork = &fork
	}
	if b.CurrentJustifiedCheckpoint != nil {
		cp := *b.CurrentJustifiedCheckpoint
		dst.CurrentJustifiedCheckpoint = &cp
	}
	if b.FinalizedCheckpoint != nil {
		cp := *b.FinalizedCheckpoint
		dst.FinalizedCheckpoint = &cp
	}
	return dst
}

// Copy returns a deep copy of the block.
func (b *BeaconBlock) Copy() *BeaconBlock {
	if b == nil {
		return nil
	}
	dst := *b
	if b.Body != nil {
		body := BeaconBlockBody{
			RandaoReveal: b.Body.RandaoReveal,
			Graffiti:     b.Body.Graffiti,
		}
		if b.Body.Attestations != nil {
			body.Attestations = make([]*Attestation, len(b.Body.Attestations))
			for i, att := range b.Body.Attestations {
				body.Attestations[i] = att.Copy()
			}
		}
		dst.Body = &body
	}
	return &dst
}

// Copy returns a deep copy of the attestation.
func (a *Attestation) Copy() *Attestation {
	if a == nil {
		return nil
	}
	dst := *a
	if a.AggregationBits != nil {
		dst.AggregationBits = make(bitfield.Bitlist, len(a.AggregationBits))
		copy(dst.AggregationBits, a.AggregationBits)
	}
	if a.Data != nil {
		data := *a.Data
		dst.Data = &data
	}
	return &dst
}
