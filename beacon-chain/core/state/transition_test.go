package state

import (
	"context"
	"testing"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/shared/testutil/assert"
	"github.com/adaszko/lighthouse/shared/testutil/require"
)

func freshState(slot uint64) *types.BeaconState {
	mixes := make([][32]byte, 8)
	for i := range mixes {
		mixes[i] = [32]byte{byte(0xa0 + i)}
	}
	return &types.BeaconState{
		Slot:                       slot,
		Fork:                       &types.Fork{},
		BlockRoots:                 make([][32]byte, 16),
		StateRoots:                 make([][32]byte, 16),
		RandaoMixes:                mixes,
		CurrentJustifiedCheckpoint: &types.Checkpoint{},
		FinalizedCheckpoint:        &types.Checkpoint{},
	}
}

func TestProcessSlots_AdvancesToTarget(t *testing.T) {
	st := freshState(3)
	advanced, err := ProcessSlots(context.Background(), st, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), advanced.Slot)
}

func TestProcessSlots_RefusesRewind(t *testing.T) {
	st := freshState(9)
	_, err := ProcessSlots(context.Background(), st, 4)
	assert.ErrorContains(t, "expected state.slot", err)
}

func TestProcessSlots_NoopAtTarget(t *testing.T) {
	st := freshState(5)
	before := st.HashTreeRoot()
	advanced, err := ProcessSlots(context.Background(), st, 5)
	require.NoError(t, err)
	assert.Equal(t, before, advanced.HashTreeRoot())
}

func TestProcessSlot_CachesStateRoot(t *testing.T) {
	st := freshState(3)
	want := st.HashTreeRoot()
	_, err := ProcessSlots(context.Background(), st, 4)
	require.NoError(t, err)
	assert.Equal(t, want, st.StateRoots[3], "slot 3 state root must be cached during its transition")
}

func TestProcessSlot_CarriesBlockRootThroughSkippedSlots(t *testing.T) {
	st := freshState(3)
	st.BlockRoots[3] = [32]byte{'b'}
	_, err := ProcessSlots(context.Background(), st, 6)
	require.NoError(t, err)
	assert.Equal(t, [32]byte{'b'}, st.BlockRoots[4])
	assert.Equal(t, [32]byte{'b'}, st.BlockRoots[5])
	assert.Equal(t, [32]byte{'b'}, st.BlockRoots[6])
}

func TestProcessSlots_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ProcessSlots(ctx, freshState(0), 5)
	assert.ErrorIs(t, err, context.Canceled)
}
