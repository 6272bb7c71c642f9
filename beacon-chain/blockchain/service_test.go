package blockchain

import (
	"context"
	"testing"

	"github.com/prysmaticlabs/go-bitfield"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	dbtest "github.com/adaszko/lighthouse/beacon-chain/db/testing"
	"github.com/adaszko/lighthouse/beacon-chain/events"
	"github.com/adaszko/lighthouse/shared/testutil/assert"
	"github.com/adaszko/lighthouse/shared/testutil/require"
)

type recordingHandler struct {
	events []events.EventKind
}

func (r *recordingHandler) Register(kind events.EventKind) error {
	r.events = append(r.events, kind)
	return nil
}

func genesis() (*types.BeaconState, *types.BeaconBlock) {
	state := &types.BeaconState{
		Fork:                       &types.Fork{},
		BlockRoots:                 make([][32]byte, 8),
		StateRoots:                 make([][32]byte, 8),
		RandaoMixes:                make([][32]byte, 8),
		CurrentJustifiedCheckpoint: &types.Checkpoint{},
		FinalizedCheckpoint:        &types.Checkpoint{},
	}
	block := &types.BeaconBlock{StateRoot: state.HashTreeRoot(), Body: &types.BeaconBlockBody{}}
	return state, block
}

func setupChain(t *testing.T) (*Service, *recordingHandler, *types.BeaconBlock) {
	handler := &recordingHandler{}
	state, genesisBlock := genesis()
	svc, err := NewService(context.Background(), dbtest.SetupDB(t), handler, state, genesisBlock)
	require.NoError(t, err)
	return svc, handler, genesisBlock
}

func TestProcessBlock_UnknownParentClassified(t *testing.T) {
	svc, _, _ := setupChain(t)
	outcome, err := svc.ProcessBlock(context.Background(), &types.BeaconBlock{
		Slot:       1,
		ParentRoot: [32]byte{'m', 'i', 's', 's'},
		Body:       &types.BeaconBlockBody{},
	})
	require.NoError(t, err)
	assert.Equal(t, BlockParentUnknown, outcome.Kind)
	assert.Equal(t, [32]byte{'m', 'i', 's', 's'}, outcome.ParentRoot)
}

func TestProcessBlock_PromotesHeadAndEmitsEvent(t *testing.T) {
	svc, handler, genesisBlock := setupChain(t)
	genesisRoot := genesisBlock.HashTreeRoot()

	child := &types.BeaconBlock{Slot: 1, ParentRoot: genesisRoot, Body: &types.BeaconBlockBody{}}
	outcome, err := svc.ProcessBlock(context.Background(), child)
	require.NoError(t, err)
	assert.Equal(t, BlockProcessed, outcome.Kind)
	assert.Equal(t, child.HashTreeRoot(), svc.Head().BeaconBlockRoot)

	require.Equal(t, 1, len(handler.events))
	headChanged, ok := handler.events[0].(*events.BeaconHeadChanged)
	require.Equal(t, true, ok)
	assert.Equal(t, false, headChanged.Reorg)
	assert.Equal(t, genesisRoot, headChanged.PreviousHeadBeaconBlockRoot)
	assert.Equal(t, child.HashTreeRoot(), headChanged.CurrentHeadBeaconBlockRoot)
}

func TestProcessBlock_ReorgFlagged(t *testing.T) {
	svc, handler, genesisBlock := setupChain(t)
	genesisRoot := genesisBlock.HashTreeRoot()

	a := &types.BeaconBlock{Slot: 1, ParentRoot: genesisRoot, StateRoot: [32]byte{'a'}, Body: &types.BeaconBlockBody{}}
	b := &types.BeaconBlock{Slot: 2, ParentRoot: genesisRoot, StateRoot: [32]byte{'b'}, Body: &types.BeaconBlockBody{}}
	_, err := svc.ProcessBlock(context.Background(), a)
	require.NoError(t, err)
	_, err = svc.ProcessBlock(context.Background(), b)
	require.NoError(t, err)

	require.Equal(t, 2, len(handler.events))
	headChanged, ok := handler.events[1].(*events.BeaconHeadChanged)
	require.Equal(t, true, ok)
	assert.Equal(t, true, headChanged.Reorg, "head moved to a sibling chain, reorg must be flagged")
}

func TestRevIterBlockRoots_WalksHeadToGenesis(t *testing.T) {
	svc, _, genesisBlock := setupChain(t)
	genesisRoot := genesisBlock.HashTreeRoot()
	a := &types.BeaconBlock{Slot: 1, ParentRoot: genesisRoot, Body: &types.BeaconBlockBody{}}
	_, err := svc.ProcessBlock(context.Background(), a)
	require.NoError(t, err)
	b := &types.BeaconBlock{Slot: 2, ParentRoot: a.HashTreeRoot(), Body: &types.BeaconBlockBody{}}
	_, err = svc.ProcessBlock(context.Background(), b)
	require.NoError(t, err)

	roots := svc.RevIterBlockRoots(context.Background())
	require.Equal(t, 3, len(roots))
	assert.Equal(t, uint64(2), roots[0].Slot)
	assert.Equal(t, uint64(1), roots[1].Slot)
	assert.Equal(t, uint64(0), roots[2].Slot)
	assert.Equal(t, b.HashTreeRoot(), roots[0].Root)
	assert.Equal(t, genesisRoot, roots[2].Root)
}

func TestProcessAttestation_Classification(t *testing.T) {
	svc, _, genesisBlock := setupChain(t)
	genesisRoot := genesisBlock.HashTreeRoot()

	empty := &types.Attestation{AggregationBits: bitfield.NewBitlist(4)}
	outcome, err := svc.ProcessAttestation(context.Background(), empty)
	require.NoError(t, err)
	assert.Equal(t, AttestationEmptyAggregationBitfield, outcome.Kind)

	bits := bitfield.NewBitlist(4)
	bits.SetBitAt(0, true)

	unknown := &types.Attestation{
		AggregationBits: bits,
		Data:            &types.AttestationData{BeaconBlockRoot: [32]byte{'u'}},
	}
	outcome, err = svc.ProcessAttestation(context.Background(), unknown)
	require.NoError(t, err)
	assert.Equal(t, AttestationUnknownHeadBlock, outcome.Kind)
	assert.Equal(t, [32]byte{'u'}, outcome.BeaconBlockRoot)

	known := &types.Attestation{
		AggregationBits: bits,
		Data:            &types.AttestationData{BeaconBlockRoot: genesisRoot},
	}
	outcome, err = svc.ProcessAttestation(context.Background(), known)
	require.NoError(t, err)
	assert.Equal(t, AttestationProcessed, outcome.Kind)
}
