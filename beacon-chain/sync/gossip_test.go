package sync

import (
	"testing"

	logTest "github.com/sirupsen/logrus/hooks/test"

	"github.com/adaszko/lighthouse/beacon-chain/blockchain"
	mockChain "github.com/adaszko/lighthouse/beacon-chain/blockchain/testing"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	dbtest "github.com/adaszko/lighthouse/beacon-chain/db/testing"
	"github.com/adaszko/lighthouse/beacon-chain/events"
	p2ptest "github.com/adaszko/lighthouse/beacon-chain/p2p/testing"
	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
	"github.com/adaszko/lighthouse/shared/testutil/assert"
	"github.com/adaszko/lighthouse/shared/testutil/require"
)

func TestOnBlockGossip_Processed(t *testing.T) {
	chain := &mockChain.ChainService{}
	s := newTestService(t, chain, dbtest.SetupDB(t), &p2ptest.MockSender{})
	blk := blockAtSlot(3)

	s.OnBlockGossip("peer1", blk)

	require.Equal(t, 1, len(chain.ProcessedBlocks))
	recorder := s.eventHandler.(*recordingEventHandler)
	require.Equal(t, 1, len(recorder.events))
	imported, ok := recorder.events[0].(*events.BeaconBlockImported)
	require.Equal(t, true, ok)
	assert.Equal(t, blk.HashTreeRoot(), imported.BlockRoot)
}

func TestOnBlockGossip_ParentUnknownRoutedToSync(t *testing.T) {
	chain := &mockChain.ChainService{
		BlockOut: &blockchain.BlockProcessingOutcome{
			Kind:       blockchain.BlockParentUnknown,
			ParentRoot: [32]byte{'p'},
		},
	}
	sender := &p2ptest.MockSender{}
	s := newTestService(t, chain, dbtest.SetupDB(t), sender)
	blk := blockAtSlot(3)
	blk.ParentRoot = [32]byte{'p'}

	s.OnBlockGossip("peer1", blk)

	msgs := drainSyncMessages(s)
	require.Equal(t, 1, len(msgs))
	unknown, ok := msgs[0].(UnknownBlockMsg)
	require.Equal(t, true, ok)
	assert.Equal(t, [32]byte{'p'}, unknown.Block.ParentRoot)
	assert.Equal(t, 0, len(sender.Disconnects), "unknown parents are not a peer fault")
}

func TestOnBlockGossip_OtherRejectionDropped(t *testing.T) {
	hook := logTest.NewGlobal()
	chain := &mockChain.ChainService{
		BlockOut: &blockchain.BlockProcessingOutcome{
			Kind:   blockchain.BlockInvalid,
			Reason: "state root mismatch",
		},
	}
	sender := &p2ptest.MockSender{}
	s := newTestService(t, chain, dbtest.SetupDB(t), sender)

	s.OnBlockGossip("peer1", blockAtSlot(3))

	assert.Equal(t, 0, len(drainSyncMessages(s)))
	assert.Equal(t, 0, len(sender.Disconnects))
	require.LogsContain(t, hook, "Invalid gossip beacon block")
	recorder := s.eventHandler.(*recordingEventHandler)
	require.Equal(t, 1, len(recorder.events))
	rejected, ok := recorder.events[0].(*events.BeaconBlockRejected)
	require.Equal(t, true, ok)
	assert.Equal(t, "state root mismatch", rejected.Reason)
}

func TestOnBlockGossip_EngineErrorLoggedAndDropped(t *testing.T) {
	hook := logTest.NewGlobal()
	chain := &mockChain.ChainService{BlockErr: mockChain.ErrSlotClockUnavailable}
	sender := &p2ptest.MockSender{}
	s := newTestService(t, chain, dbtest.SetupDB(t), sender)

	s.OnBlockGossip("peer1", blockAtSlot(3))

	assert.Equal(t, 0, len(drainSyncMessages(s)))
	assert.Equal(t, 0, len(sender.Disconnects), "engine errors do not penalize the peer")
	require.LogsContain(t, hook, "Error processing gossip beacon block")
}

func testAttestation() *types.Attestation {
	return &types.Attestation{Data: &types.AttestationData{Slot: 1}}
}

func TestOnAttestationGossip_Processed(t *testing.T) {
	chain := &mockChain.ChainService{}
	s := newTestService(t, chain, dbtest.SetupDB(t), &p2ptest.MockSender{})

	s.OnAttestationGossip("peer1", testAttestation())

	require.Equal(t, 1, len(chain.ProcessedAttestations))
	recorder := s.eventHandler.(*recordingEventHandler)
	require.Equal(t, 1, len(recorder.events))
	_, ok := recorder.events[0].(*events.BeaconAttestationImported)
	require.Equal(t, true, ok)
}

func TestOnAttestationGossip_UnknownHeadBlock(t *testing.T) {
	chain := &mockChain.ChainService{
		AttOut: &blockchain.AttestationProcessingOutcome{
			Kind:            blockchain.AttestationUnknownHeadBlock,
			BeaconBlockRoot: [32]byte{'b'},
		},
	}
	sender := &p2ptest.MockSender{}
	s := newTestService(t, chain, dbtest.SetupDB(t), sender)

	s.OnAttestationGossip("peer1", testAttestation())

	msgs := drainSyncMessages(s)
	require.Equal(t, 1, len(msgs))
	unknown, ok := msgs[0].(UnknownBlockHashMsg)
	require.Equal(t, true, ok)
	assert.Equal(t, [32]byte{'b'}, unknown.Root)
	assert.Equal(t, 0, len(sender.Disconnects))
}

func TestOnAttestationGossip_SilentlyIgnoredOutcomes(t *testing.T) {
	for _, kind := range []blockchain.AttestationOutcomeKind{
		blockchain.AttestationAttestsToFutureState,
		blockchain.AttestationFinalizedSlot,
	} {
		chain := &mockChain.ChainService{
			AttOut: &blockchain.AttestationProcessingOutcome{Kind: kind},
		}
		sender := &p2ptest.MockSender{}
		s := newTestService(t, chain, dbtest.SetupDB(t), sender)

		s.OnAttestationGossip("peer1", testAttestation())

		assert.Equal(t, 0, len(drainSyncMessages(s)), "outcome %v must be ignored", kind)
		assert.Equal(t, 0, len(sender.Disconnects), "outcome %v must not disconnect", kind)
	}
}

func TestOnAttestationGossip_FaultDisconnects(t *testing.T) {
	for _, kind := range []blockchain.AttestationOutcomeKind{
		blockchain.AttestationInvalid,
		blockchain.AttestationEmptyAggregationBitfield,
	} {
		chain := &mockChain.ChainService{
			AttOut: &blockchain.AttestationProcessingOutcome{Kind: kind, Reason: "bad attestation"},
		}
		sender := &p2ptest.MockSender{}
		s := newTestService(t, chain, dbtest.SetupDB(t), sender)

		s.OnAttestationGossip("peer1", testAttestation())

		require.Equal(t, 1, len(sender.Disconnects), "outcome %v must disconnect", kind)
		assert.Equal(t, p2ptypes.GoodbyeReasonFault, sender.Disconnects[0].Reason)
	}
}
