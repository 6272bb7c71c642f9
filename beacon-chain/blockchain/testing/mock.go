// Package testing includes useful mocks for writing unit
// tests which depend on logic from the blockchain package.
package testing

import (
	"context"

	"github.com/adaszko/lighthouse/beacon-chain/blockchain"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/pkg/errors"
)

// ChainService defines the mock interaction with the chain engine. Every
// field is settable so tests can steer classification and processing
// outcomes.
type ChainService struct {
	State     *types.BeaconState
	StateRoot [32]byte
	Root      [32]byte

	CurrentSlot uint64
	SlotErr     error

	Roots       map[uint64][32]byte
	RootErr     error
	BlockRoots  []blockchain.RootAndSlot
	BlockOut    *blockchain.BlockProcessingOutcome
	BlockErr    error
	AttOut      *blockchain.AttestationProcessingOutcome
	AttErr      error

	ProcessedBlocks       []*types.BeaconBlock
	ProcessedAttestations []*types.Attestation
}

var _ blockchain.ChainService = (*ChainService)(nil)

// Head mocks HeadFetcher.
func (s *ChainService) Head() *blockchain.HeadInfo {
	return &blockchain.HeadInfo{
		BeaconState:     s.State,
		BeaconStateRoot: s.StateRoot,
		BeaconBlockRoot: s.Root,
	}
}

// Slot mocks SlotFetcher.
func (s *ChainService) Slot() (uint64, error) {
	if s.SlotErr != nil {
		return 0, s.SlotErr
	}
	return s.CurrentSlot, nil
}

// RootAtSlot mocks CanonicalRootFetcher.
func (s *ChainService) RootAtSlot(slot uint64) ([32]byte, bool, error) {
	if s.RootErr != nil {
		return [32]byte{}, false, s.RootErr
	}
	root, ok := s.Roots[slot]
	return root, ok, nil
}

// RevIterBlockRoots mocks CanonicalRootFetcher.
func (s *ChainService) RevIterBlockRoots(_ context.Context) []blockchain.RootAndSlot {
	return s.BlockRoots
}

// ProcessBlock mocks BlockReceiver and records the received block.
func (s *ChainService) ProcessBlock(_ context.Context, block *types.BeaconBlock) (*blockchain.BlockProcessingOutcome, error) {
	if s.BlockErr != nil {
		return nil, s.BlockErr
	}
	s.ProcessedBlocks = append(s.ProcessedBlocks, block)
	if s.BlockOut == nil {
		return &blockchain.BlockProcessingOutcome{Kind: blockchain.BlockProcessed}, nil
	}
	return s.BlockOut, nil
}

// ProcessAttestation mocks AttestationReceiver and records the received
// attestation.
func (s *ChainService) ProcessAttestation(_ context.Context, att *types.Attestation) (*blockchain.AttestationProcessingOutcome, error) {
	if s.AttErr != nil {
		return nil, s.AttErr
	}
	s.ProcessedAttestations = append(s.ProcessedAttestations, att)
	if s.AttOut == nil {
		return &blockchain.AttestationProcessingOutcome{Kind: blockchain.AttestationProcessed}, nil
	}
	return s.AttOut, nil
}

// ErrSlotClockUnavailable is a reusable slot clock failure for tests.
var ErrSlotClockUnavailable = errors.New("slot clock unavailable")
