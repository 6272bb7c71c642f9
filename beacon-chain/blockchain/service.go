package blockchain

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/beacon-chain/db"
	"github.com/adaszko/lighthouse/beacon-chain/events"
	"github.com/adaszko/lighthouse/shared/params"
)

var log = logrus.WithField("prefix", "blockchain")

// Service is a thin chain facade over the store: it tracks the canonical
// head, answers the read-only queries the sync core needs, and accepts
// blocks and attestations on behalf of the external validation engine. Full
// state-transition validation and fork choice live in that engine; this
// facade only classifies what the peer-sync pipeline needs classified
// (known/unknown parents and head blocks) and keeps head bookkeeping
// consistent with the store.
type Service struct {
	ctx          context.Context
	beaconDB     db.Database
	eventHandler events.EventHandler
	genesisTime  time.Time

	mu        sync.RWMutex
	headState *types.BeaconState
	headRoot  [32]byte
	headBlock *types.BeaconBlock
}

var _ ChainService = (*Service)(nil)

// NewService sets the chain facade up over the given store, seeded with a
// genesis state.
func NewService(ctx context.Context, beaconDB db.Database, eventHandler events.EventHandler, genesisState *types.BeaconState, genesisBlock *types.BeaconBlock) (*Service, error) {
	if eventHandler == nil {
		eventHandler = events.NullEventHandler{}
	}
	stateRoot := genesisState.HashTreeRoot()
	if err := beaconDB.SaveBlock(ctx, genesisBlock); err != nil {
		return nil, err
	}
	if err := beaconDB.SaveState(ctx, genesisState, stateRoot); err != nil {
		return nil, err
	}
	return &Service{
		ctx:          ctx,
		beaconDB:     beaconDB,
		eventHandler: eventHandler,
		genesisTime:  time.Unix(int64(genesisState.GenesisTime), 0),
		headState:    genesisState,
		headRoot:     genesisBlock.HashTreeRoot(),
		headBlock:    genesisBlock,
	}, nil
}

// Head implements HeadFetcher.
func (s *Service) Head() *HeadInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &HeadInfo{
		BeaconState:     s.headState,
		BeaconStateRoot: s.headState.HashTreeRoot(),
		BeaconBlockRoot: s.headRoot,
	}
}

// Slot implements SlotFetcher using the wall clock against genesis time.
func (s *Service) Slot() (uint64, error) {
	now := time.Now()
	if now.Before(s.genesisTime) {
		return 0, nil
	}
	return uint64(now.Sub(s.genesisTime).Seconds()) / params.BeaconConfig().SecondsPerSlot, nil
}

// RootAtSlot implements CanonicalRootFetcher via the store's slot index.
func (s *Service) RootAtSlot(slot uint64) ([32]byte, bool, error) {
	return s.beaconDB.BlockRootAtSlot(s.ctx, slot)
}

// RevIterBlockRoots walks parent links from the head down to genesis.
func (s *Service) RevIterBlockRoots(ctx context.Context) []RootAndSlot {
	s.mu.RLock()
	root, block := s.headRoot, s.headBlock
	s.mu.RUnlock()

	var out []RootAndSlot
	for block != nil {
		out = append(out, RootAndSlot{Root: root, Slot: block.Slot})
		if block.Slot == 0 {
			break
		}
		parentRoot := block.ParentRoot
		parent, err := s.beaconDB.Block(ctx, parentRoot)
		if err != nil || parent == nil {
			break
		}
		root, block = parentRoot, parent
	}
	return out
}

// ProcessBlock accepts a block on behalf of the validation engine: unknown
// parents are classified for the sync manager, known blocks are persisted
// and promoted to head when they extend it.
func (s *Service) ProcessBlock(ctx context.Context, block *types.BeaconBlock) (*BlockProcessingOutcome, error) {
	if !s.beaconDB.HasBlock(ctx, block.ParentRoot) {
		return &BlockProcessingOutcome{
			Kind:       BlockParentUnknown,
			ParentRoot: block.ParentRoot,
		}, nil
	}
	if err := s.beaconDB.SaveBlock(ctx, block); err != nil {
		return nil, err
	}
	blockRoot := block.HashTreeRoot()

	s.mu.Lock()
	promoted := block.Slot > s.headBlock.Slot
	var previousHead [32]byte
	var reorg bool
	if promoted {
		previousHead = s.headRoot
		reorg = block.ParentRoot != s.headRoot
		s.headRoot = blockRoot
		s.headBlock = block
	}
	s.mu.Unlock()

	if promoted {
		if err := s.eventHandler.Register(&events.BeaconHeadChanged{
			Reorg:                       reorg,
			CurrentHeadBeaconBlockRoot:  blockRoot,
			PreviousHeadBeaconBlockRoot: previousHead,
		}); err != nil {
			log.WithError(err).Error("Could not register head change event")
		}
	}
	return &BlockProcessingOutcome{Kind: BlockProcessed}, nil
}

// ProcessAttestation accepts an attestation on behalf of the validation
// engine, classifying attestations to unknown or finalized blocks.
func (s *Service) ProcessAttestation(ctx context.Context, att *types.Attestation) (*AttestationProcessingOutcome, error) {
	if att.AggregationBits.Count() == 0 {
		return &AttestationProcessingOutcome{
			Kind:   AttestationEmptyAggregationBitfield,
			Reason: "empty aggregation bitfield",
		}, nil
	}
	if att.Data == nil {
		return &AttestationProcessingOutcome{
			Kind:   AttestationInvalid,
			Reason: "attestation carries no data",
		}, nil
	}
	if !s.beaconDB.HasBlock(ctx, att.Data.BeaconBlockRoot) {
		return &AttestationProcessingOutcome{
			Kind:            AttestationUnknownHeadBlock,
			BeaconBlockRoot: att.Data.BeaconBlockRoot,
		}, nil
	}
	s.mu.RLock()
	finalizedEpoch := uint64(0)
	if s.headState.FinalizedCheckpoint != nil {
		finalizedEpoch = s.headState.FinalizedCheckpoint.Epoch
	}
	s.mu.RUnlock()
	if att.Data.Slot < finalizedEpoch*params.BeaconConfig().SlotsPerEpoch {
		return &AttestationProcessingOutcome{Kind: AttestationFinalizedSlot}, nil
	}
	return &AttestationProcessingOutcome{Kind: AttestationProcessed}, nil
}
