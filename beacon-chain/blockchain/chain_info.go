// Package blockchain defines the contract the peer-sync core consumes from
// the chain engine: head access, slot clock, canonical root lookups, and the
// block/attestation processing entry points with their classified outcomes.
package blockchain

import (
	"context"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
)

// HeadInfo is a snapshot of the canonical chain head.
type HeadInfo struct {
	BeaconState     *types.BeaconState
	BeaconStateRoot [32]byte
	BeaconBlockRoot [32]byte
}

// RootAndSlot pairs a canonical block root with its slot.
type RootAndSlot struct {
	Root [32]byte
	Slot uint64
}

// BlockOutcomeKind classifies what the chain engine did with a block.
type BlockOutcomeKind int

const (
	// BlockProcessed means the block was applied to the chain.
	BlockProcessed BlockOutcomeKind = iota
	// BlockParentUnknown means the block's parent is not known locally;
	// the block should be routed to the sync manager, not propagated.
	BlockParentUnknown
	// BlockInvalid covers every other validation failure.
	BlockInvalid
)

// BlockProcessingOutcome is the classified result of ProcessBlock.
type BlockProcessingOutcome struct {
	Kind BlockOutcomeKind
	// ParentRoot is set for BlockParentUnknown.
	ParentRoot [32]byte
	// Reason is set for BlockInvalid.
	Reason string
}

// AttestationOutcomeKind classifies what the chain engine did with an
// attestation.
type AttestationOutcomeKind int

const (
	// AttestationProcessed means the attestation was applied.
	AttestationProcessed AttestationOutcomeKind = iota
	// AttestationUnknownHeadBlock means the attested head block is not known
	// locally; the root should be routed to the sync manager.
	AttestationUnknownHeadBlock
	// AttestationAttestsToFutureState is dropped silently.
	AttestationAttestsToFutureState
	// AttestationFinalizedSlot is dropped silently.
	AttestationFinalizedSlot
	// AttestationInvalid is a protocol fault by the sending peer.
	AttestationInvalid
	// AttestationEmptyAggregationBitfield is a protocol fault by the sending peer.
	AttestationEmptyAggregationBitfield
)

// AttestationProcessingOutcome is the classified result of ProcessAttestation.
type AttestationProcessingOutcome struct {
	Kind AttestationOutcomeKind
	// BeaconBlockRoot is set for AttestationUnknownHeadBlock.
	BeaconBlockRoot [32]byte
	// Reason is set for AttestationInvalid.
	Reason string
}

// HeadFetcher defines read access to the canonical head.
type HeadFetcher interface {
	Head() *HeadInfo
}

// SlotFetcher reads the wall-clock slot. An error means the slot clock could
// not be read; callers treat the local slot as zero in that case.
type SlotFetcher interface {
	Slot() (uint64, error)
}

// CanonicalRootFetcher resolves canonical block roots by slot and iterates
// the canonical chain backwards from the head.
type CanonicalRootFetcher interface {
	// RootAtSlot returns the canonical block root at the given slot, with
	// found=false when the slot is empty or ahead of the chain.
	RootAtSlot(slot uint64) (root [32]byte, found bool, err error)
	// RevIterBlockRoots returns (root, slot) pairs walking the canonical
	// chain from the head down to genesis.
	RevIterBlockRoots(ctx context.Context) []RootAndSlot
}

// BlockReceiver hands blocks to the chain engine.
type BlockReceiver interface {
	ProcessBlock(ctx context.Context, block *types.BeaconBlock) (*BlockProcessingOutcome, error)
}

// AttestationReceiver hands attestations to the chain engine.
type AttestationReceiver interface {
	ProcessAttestation(ctx context.Context, att *types.Attestation) (*AttestationProcessingOutcome, error)
}

// ChainService bundles everything the peer-sync core consumes from the chain
// engine.
type ChainService interface {
	HeadFetcher
	SlotFetcher
	CanonicalRootFetcher
	BlockReceiver
	AttestationReceiver
}
