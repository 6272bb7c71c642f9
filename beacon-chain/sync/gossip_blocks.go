package sync

import (
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"

	"github.com/adaszko/lighthouse/beacon-chain/blockchain"
	"github.com/adaszko/lighthouse/beacon-chain/core/helpers"
	corestate "github.com/adaszko/lighthouse/beacon-chain/core/state"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/beacon-chain/events"
	"github.com/adaszko/lighthouse/shared/bls"
	"github.com/adaszko/lighthouse/shared/params"
)

// OnBlockGossip attempts to apply a gossiped block to the beacon chain.
// Blocks with unknown parents are routed to the sync manager for ancestry
// lookup instead of being propagated; any other rejection drops the block.
func (s *Service) OnBlockGossip(pid peer.ID, block *types.BeaconBlock) {
	outcome, err := s.chain.ProcessBlock(s.ctx, block)
	if err != nil {
		log.WithError(err).WithField("blockSlot", block.Slot).Error("Error processing gossip beacon block")
		return
	}
	switch outcome.Kind {
	case blockchain.BlockProcessed:
		log.WithField("peer", pid.String()).Debug("Gossipsub block processed")
		gossipBlocksProcessed.Inc()
		s.registerEvent(&events.BeaconBlockImported{
			BlockRoot: block.HashTreeRoot(),
			Block:     block,
		})
	case blockchain.BlockParentUnknown:
		// Inform the sync manager to find parents for this block.
		log.WithField("peer", pid.String()).Debug("Block with unknown parent received")
		s.sendToSync(UnknownBlockMsg{Peer: pid, Block: block})
	default:
		log.WithFields(logrus.Fields{
			"reason":    outcome.Reason,
			"blockRoot": block.SigningRoot(),
			"blockSlot": block.Slot,
		}).Warn("Invalid gossip beacon block")
		gossipBlocksRejected.Inc()
		s.registerEvent(&events.BeaconBlockRejected{
			Reason: outcome.Reason,
			Block:  block,
		})
	}
}

// ShouldForwardBlock determines whether a gossiped block is
// signature-valid enough to relay to other peers. Any missing artifact or
// processing failure yields false.
func (s *Service) ShouldForwardBlock(block *types.BeaconBlock) bool {
	_, span := trace.StartSpan(s.ctx, "sync.ShouldForwardBlock")
	defer span.End()

	// Retrieve the parent block used to generate the signature.
	parentBlock, err := s.db.Block(s.ctx, block.ParentRoot)
	if err != nil || parentBlock == nil {
		return false
	}

	// If the parent block's state root matches the current head state, the
	// signature can be checked against the head state, saving a database
	// read. Otherwise load the state at the parent's state root.
	head := s.chain.Head()
	var state *types.BeaconState
	if head.BeaconState != nil && head.BeaconStateRoot == parentBlock.StateRoot {
		state = head.BeaconState.Copy()
	} else {
		state, err = s.db.State(s.ctx, parentBlock.StateRoot, block.Slot)
		if err != nil || state == nil {
			return false
		}
	}

	// Unless the block's epoch is behind the parent's (never the case for a
	// child block), fast-forward the state one slot at a time and rebuild the
	// current-epoch committees before deriving the proposer.
	if helpers.SlotToEpoch(block.Slot)+1 > helpers.SlotToEpoch(parentBlock.Slot) {
		if _, err := corestate.ProcessSlots(s.ctx, state, block.Slot); err != nil {
			return false
		}
		if err := helpers.UpdateCommitteeCache(state, helpers.CurrentEpoch(state)); err != nil {
			return false
		}
	}

	// Compute the proposer for the block's slot from the (possibly
	// advanced) state.
	proposerIdx, err := helpers.BeaconProposerIndexAtSlot(state, block.Slot)
	if err != nil || proposerIdx >= uint64(len(state.Validators)) {
		return false
	}
	proposer := state.Validators[proposerIdx]

	// Generate the domain that should have been used to create the
	// signature and verify it against the proposer's key.
	domain := helpers.Domain(state.Fork, helpers.SlotToEpoch(block.Slot), params.BeaconConfig().DomainBeaconProposer)
	pub, err := bls.PublicKeyFromBytes(proposer.PublicKey[:])
	if err != nil {
		return false
	}
	sig, err := bls.SignatureFromBytes(block.Signature[:])
	if err != nil {
		return false
	}
	signingRoot := block.SigningRoot()
	return sig.Verify(signingRoot[:], pub, domain)
}
