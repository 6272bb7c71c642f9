package sync

import (
	"context"
	"testing"

	mockChain "github.com/adaszko/lighthouse/beacon-chain/blockchain/testing"
	"github.com/adaszko/lighthouse/beacon-chain/core/helpers"
	corestate "github.com/adaszko/lighthouse/beacon-chain/core/state"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	dbtest "github.com/adaszko/lighthouse/beacon-chain/db/testing"
	p2ptest "github.com/adaszko/lighthouse/beacon-chain/p2p/testing"
	"github.com/adaszko/lighthouse/shared/bls"
	"github.com/adaszko/lighthouse/shared/bytesutil"
	"github.com/adaszko/lighthouse/shared/params"
	"github.com/adaszko/lighthouse/shared/testutil/assert"
	"github.com/adaszko/lighthouse/shared/testutil/require"
)

// testRegistry builds a state with a real BLS validator registry, sized so
// every committee of an epoch is non-empty.
func testRegistry(t *testing.T, slot uint64) (*types.BeaconState, []*bls.SecretKey) {
	t.Helper()
	helpers.ClearCache()

	count := 2 * params.BeaconConfig().SlotsPerEpoch
	keys := make([]*bls.SecretKey, count)
	validators := make([]*types.Validator, count)
	balances := make([]uint64, count)
	for i := range keys {
		keys[i] = bls.RandKey()
		validators[i] = &types.Validator{
			PublicKey:        bytesutil.ToBytes48(keys[i].PublicKey().Marshal()),
			EffectiveBalance: params.BeaconConfig().MaxEffectiveBalance,
			ExitEpoch:        params.BeaconConfig().FarFutureEpoch,
		}
		balances[i] = params.BeaconConfig().MaxEffectiveBalance
	}

	mixes := make([][32]byte, 64)
	for i := range mixes {
		mixes[i] = [32]byte{byte(i + 1)}
	}
	return &types.BeaconState{
		Slot:                       slot,
		Fork:                       &types.Fork{},
		BlockRoots:                 make([][32]byte, 64),
		StateRoots:                 make([][32]byte, 64),
		RandaoMixes:                mixes,
		Validators:                 validators,
		Balances:                   balances,
		CurrentJustifiedCheckpoint: &types.Checkpoint{},
		FinalizedCheckpoint:        &types.Checkpoint{},
	}, keys
}

// signedChildBlock builds a block at the given slot, correctly signed by the
// proposer the advanced parent state derives.
func signedChildBlock(t *testing.T, parentState *types.BeaconState, parentRoot [32]byte, slot uint64, keys []*bls.SecretKey) *types.BeaconBlock {
	t.Helper()
	advanced, err := corestate.ProcessSlots(context.Background(), parentState.Copy(), slot)
	require.NoError(t, err)
	proposerIdx, err := helpers.BeaconProposerIndexAtSlot(advanced, slot)
	require.NoError(t, err)

	blk := &types.BeaconBlock{
		Slot:       slot,
		ParentRoot: parentRoot,
		StateRoot:  [32]byte{'s'},
		Body:       &types.BeaconBlockBody{},
	}
	domain := helpers.Domain(advanced.Fork, helpers.SlotToEpoch(slot), params.BeaconConfig().DomainBeaconProposer)
	signingRoot := blk.SigningRoot()
	sig := keys[proposerIdx].Sign(signingRoot[:], domain)
	copy(blk.Signature[:], sig.Marshal())
	return blk
}

func TestShouldForwardBlock_ValidSignatureFastPath(t *testing.T) {
	ctx := context.Background()
	beaconDB := dbtest.SetupDB(t)
	state, keys := testRegistry(t, 0)
	stateRoot := state.HashTreeRoot()

	parent := &types.BeaconBlock{Slot: 0, StateRoot: stateRoot, Body: &types.BeaconBlockBody{}}
	require.NoError(t, beaconDB.SaveBlock(ctx, parent))

	// The chain head state matches the parent's state root, so validation
	// reuses the head state without a database read.
	chain := &mockChain.ChainService{State: state, StateRoot: stateRoot}
	s := newTestService(t, chain, beaconDB, &p2ptest.MockSender{})

	blk := signedChildBlock(t, state, parent.HashTreeRoot(), 1, keys)
	assert.Equal(t, true, s.ShouldForwardBlock(blk))
}

func TestShouldForwardBlock_ValidSignatureFromStoredState(t *testing.T) {
	ctx := context.Background()
	beaconDB := dbtest.SetupDB(t)
	state, keys := testRegistry(t, 0)
	stateRoot := state.HashTreeRoot()

	parent := &types.BeaconBlock{Slot: 0, StateRoot: stateRoot, Body: &types.BeaconBlockBody{}}
	require.NoError(t, beaconDB.SaveBlock(ctx, parent))
	require.NoError(t, beaconDB.SaveState(ctx, state, stateRoot))

	// Head state root differs, forcing the database branch.
	chain := &mockChain.ChainService{State: state, StateRoot: [32]byte{'x'}}
	s := newTestService(t, chain, beaconDB, &p2ptest.MockSender{})

	blk := signedChildBlock(t, state, parent.HashTreeRoot(), 1, keys)
	assert.Equal(t, true, s.ShouldForwardBlock(blk))
}

func TestShouldForwardBlock_AcrossEpochBoundary(t *testing.T) {
	ctx := context.Background()
	beaconDB := dbtest.SetupDB(t)
	state, keys := testRegistry(t, 0)
	stateRoot := state.HashTreeRoot()

	parent := &types.BeaconBlock{Slot: 0, StateRoot: stateRoot, Body: &types.BeaconBlockBody{}}
	require.NoError(t, beaconDB.SaveBlock(ctx, parent))

	chain := &mockChain.ChainService{State: state, StateRoot: stateRoot}
	s := newTestService(t, chain, beaconDB, &p2ptest.MockSender{})

	// A block one full epoch ahead requires the slot fast-forward.
	slot := params.BeaconConfig().SlotsPerEpoch + 1
	blk := signedChildBlock(t, state, parent.HashTreeRoot(), slot, keys)
	assert.Equal(t, true, s.ShouldForwardBlock(blk))
}

func TestShouldForwardBlock_WrongProposerSignature(t *testing.T) {
	ctx := context.Background()
	beaconDB := dbtest.SetupDB(t)
	state, keys := testRegistry(t, 0)
	stateRoot := state.HashTreeRoot()

	parent := &types.BeaconBlock{Slot: 0, StateRoot: stateRoot, Body: &types.BeaconBlockBody{}}
	require.NoError(t, beaconDB.SaveBlock(ctx, parent))

	chain := &mockChain.ChainService{State: state, StateRoot: stateRoot}
	s := newTestService(t, chain, beaconDB, &p2ptest.MockSender{})

	blk := signedChildBlock(t, state, parent.HashTreeRoot(), 1, keys)
	// Re-sign with a key that is certainly not the derived proposer's.
	wrongKey := bls.RandKey()
	domain := helpers.Domain(state.Fork, 0, params.BeaconConfig().DomainBeaconProposer)
	signingRoot := blk.SigningRoot()
	copy(blk.Signature[:], wrongKey.Sign(signingRoot[:], domain).Marshal())

	assert.Equal(t, false, s.ShouldForwardBlock(blk))
}

func TestShouldForwardBlock_MissingParent(t *testing.T) {
	state, keys := testRegistry(t, 0)
	chain := &mockChain.ChainService{State: state, StateRoot: state.HashTreeRoot()}
	s := newTestService(t, chain, dbtest.SetupDB(t), &p2ptest.MockSender{})

	blk := signedChildBlock(t, state, [32]byte{'m', 'i', 's', 's'}, 1, keys)
	assert.Equal(t, false, s.ShouldForwardBlock(blk))
}

func TestShouldForwardBlock_MissingState(t *testing.T) {
	ctx := context.Background()
	beaconDB := dbtest.SetupDB(t)
	state, keys := testRegistry(t, 0)
	stateRoot := state.HashTreeRoot()

	parent := &types.BeaconBlock{Slot: 0, StateRoot: stateRoot, Body: &types.BeaconBlockBody{}}
	require.NoError(t, beaconDB.SaveBlock(ctx, parent))

	// Neither the head state nor the store can supply the parent state.
	chain := &mockChain.ChainService{State: state, StateRoot: [32]byte{'x'}}
	s := newTestService(t, chain, beaconDB, &p2ptest.MockSender{})

	blk := signedChildBlock(t, state, parent.HashTreeRoot(), 1, keys)
	assert.Equal(t, false, s.ShouldForwardBlock(blk))
}
