package sync

import (
	"context"
	"testing"

	"github.com/adaszko/lighthouse/beacon-chain/blockchain"
	mockChain "github.com/adaszko/lighthouse/beacon-chain/blockchain/testing"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	dbtest "github.com/adaszko/lighthouse/beacon-chain/db/testing"
	"github.com/adaszko/lighthouse/beacon-chain/p2p"
	p2ptest "github.com/adaszko/lighthouse/beacon-chain/p2p/testing"
	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
	"github.com/adaszko/lighthouse/shared/testutil/assert"
	"github.com/adaszko/lighthouse/shared/testutil/require"
)

func blockAtSlot(slot uint64) *types.BeaconBlock {
	return &types.BeaconBlock{
		Slot:      slot,
		StateRoot: [32]byte{byte(slot)},
		Body:      &types.BeaconBlockBody{},
	}
}

func decodeRangeChunk(t *testing.T, resp p2p.Response) *types.BeaconBlock {
	t.Helper()
	chunk, ok := resp.(*p2p.BlocksByRangeResponse)
	require.Equal(t, true, ok, "expected a BlocksByRange chunk")
	block := &types.BeaconBlock{}
	require.NoError(t, block.UnmarshalSSZ(chunk.BlockBytes))
	return block
}

// A range request over a chain with blocks at slots 10, 11 and 13 returns
// exactly those three blocks in ascending order, then the termination.
func TestBlocksByRange_SkippedSlots(t *testing.T) {
	ctx := context.Background()
	beaconDB := dbtest.SetupDB(t)
	b10, b11, b13 := blockAtSlot(10), blockAtSlot(11), blockAtSlot(13)
	for _, b := range []*types.BeaconBlock{b10, b11, b13} {
		require.NoError(t, beaconDB.SaveBlock(ctx, b))
	}
	r10, r11, r13 := b10.HashTreeRoot(), b11.HashTreeRoot(), b13.HashTreeRoot()

	chain := &mockChain.ChainService{
		// Canonical iteration runs head-to-genesis; the skipped slot 12
		// repeats the root of block 11.
		BlockRoots: []blockchain.RootAndSlot{
			{Root: r13, Slot: 13},
			{Root: r11, Slot: 12},
			{Root: r11, Slot: 11},
			{Root: r10, Slot: 10},
		},
	}
	sender := &p2ptest.MockSender{}
	s := newTestService(t, chain, beaconDB, sender)

	s.OnBlocksByRangeRequest("peer1", 3, &p2ptypes.BlocksByRangeRequest{StartSlot: 10, Count: 4})

	require.Equal(t, 3, len(sender.Responses), "expected three blocks")
	wantSlots := []uint64{10, 11, 13}
	for i, resp := range sender.Responses {
		assert.Equal(t, uint64(3), resp.RequestID)
		assert.Equal(t, wantSlots[i], decodeRangeChunk(t, resp.Response).Slot)
	}
	require.Equal(t, 1, len(sender.ErrorResponses))
	term, ok := sender.ErrorResponses[0].Response.(*p2p.StreamTermination)
	require.Equal(t, true, ok)
	assert.Equal(t, p2ptypes.TerminationBlocksByRange, term.Kind)
	assert.Equal(t, uint64(3), sender.ErrorResponses[0].RequestID)
}

func TestBlocksByRange_EmptyChainStillTerminates(t *testing.T) {
	chain := &mockChain.ChainService{}
	sender := &p2ptest.MockSender{}
	s := newTestService(t, chain, dbtest.SetupDB(t), sender)

	s.OnBlocksByRangeRequest("peer1", 1, &p2ptypes.BlocksByRangeRequest{StartSlot: 0, Count: 10})

	assert.Equal(t, 0, len(sender.Responses))
	require.Equal(t, 1, len(sender.ErrorResponses))
}

func TestBlocksByRoot_SkipsMissingAndTerminates(t *testing.T) {
	ctx := context.Background()
	beaconDB := dbtest.SetupDB(t)
	known := blockAtSlot(4)
	require.NoError(t, beaconDB.SaveBlock(ctx, known))
	knownRoot := known.HashTreeRoot()

	sender := &p2ptest.MockSender{}
	s := newTestService(t, &mockChain.ChainService{}, beaconDB, sender)

	s.OnBlocksByRootRequest("peer1", 9, &p2ptypes.BlocksByRootRequest{
		BlockRoots: [][32]byte{{0xde, 0xad}, knownRoot},
	})

	require.Equal(t, 1, len(sender.Responses), "only the known block is returned")
	chunk, ok := sender.Responses[0].Response.(*p2p.BlocksByRootResponse)
	require.Equal(t, true, ok)
	decoded := &types.BeaconBlock{}
	require.NoError(t, decoded.UnmarshalSSZ(chunk.BlockBytes))
	assert.Equal(t, uint64(4), decoded.Slot)

	require.Equal(t, 1, len(sender.ErrorResponses))
	term, ok := sender.ErrorResponses[0].Response.(*p2p.StreamTermination)
	require.Equal(t, true, ok)
	assert.Equal(t, p2ptypes.TerminationBlocksByRoot, term.Kind)
}

func TestBlocksByRoot_ZeroFoundStillTerminates(t *testing.T) {
	sender := &p2ptest.MockSender{}
	s := newTestService(t, &mockChain.ChainService{}, dbtest.SetupDB(t), sender)

	s.OnBlocksByRootRequest("peer1", 2, &p2ptypes.BlocksByRootRequest{
		BlockRoots: [][32]byte{{1}, {2}},
	})

	assert.Equal(t, 0, len(sender.Responses))
	require.Equal(t, 1, len(sender.ErrorResponses))
}

// Inbound response chunks are forwarded to the sync manager, with nil
// signalling termination.
func TestInboundResponsesForwardedToSync(t *testing.T) {
	s := newTestService(t, &mockChain.ChainService{}, dbtest.SetupDB(t), &p2ptest.MockSender{})

	blk := blockAtSlot(8)
	s.OnBlocksByRangeResponse("peer1", 4, blk)
	s.OnBlocksByRangeResponse("peer1", 4, nil)
	s.OnBlocksByRootResponse("peer1", 5, blk)
	s.OnBlocksByRootResponse("peer1", 5, nil)

	msgs := drainSyncMessages(s)
	require.Equal(t, 4, len(msgs))
	rangeChunk, ok := msgs[0].(BlocksByRangeResponseMsg)
	require.Equal(t, true, ok)
	assert.Equal(t, uint64(8), rangeChunk.Block.Slot)
	rangeTerm, ok := msgs[1].(BlocksByRangeResponseMsg)
	require.Equal(t, true, ok)
	assert.Equal(t, (*types.BeaconBlock)(nil), rangeTerm.Block)
	rootChunk, ok := msgs[2].(BlocksByRootResponseMsg)
	require.Equal(t, true, ok)
	assert.Equal(t, uint64(8), rootChunk.Block.Slot)
	rootTerm, ok := msgs[3].(BlocksByRootResponseMsg)
	require.Equal(t, true, ok)
	assert.Equal(t, (*types.BeaconBlock)(nil), rootTerm.Block)
}
