// Package state implements the whole state transition
// function which consists of per slot, per-epoch transitions.
package state

import (
	"context"

	"github.com/adaszko/lighthouse/beacon-chain/core/helpers"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/pkg/errors"
)

// ProcessSlots advances the state one slot at a time up to the given slot.
// Signature admission uses this to fast-forward a parent state across empty
// slots (and epoch boundaries) before deriving the proposer.
//
// The state is mutated in place; callers holding a shared state must Copy
// first.
func ProcessSlots(ctx context.Context, state *types.BeaconState, slot uint64) (*types.BeaconState, error) {
	if state == nil {
		return nil, errors.New("nil state")
	}
	if state.Slot > slot {
		return nil, errors.Errorf("expected state.slot %d < slot %d", state.Slot, slot)
	}
	for state.Slot < slot {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := ProcessSlot(ctx, state); err != nil {
			return nil, errors.Wrap(err, "could not process slot")
		}
		if helpers.IsEpochEnd(state.Slot) {
			processEpochBoundary(state)
		}
		state.Slot++
	}
	return state, nil
}

// ProcessSlot happens every slot and focuses on caching the state root and
// carrying the last block root forward through skipped slots. The slot
// counter itself is advanced by ProcessSlots.
//
// Spec pseudocode definition:
//  def process_slot(state: BeaconState) -> None:
//    # Cache state root
//    previous_state_root = hash_tree_root(state)
//    state.state_roots[state.slot % SLOTS_PER_HISTORICAL_ROOT] = previous_state_root
//    # Cache block root
//    state.block_roots[state.slot % SLOTS_PER_HISTORICAL_ROOT] = previous_block_root
func ProcessSlot(_ context.Context, state *types.BeaconState) error {
	if len(state.StateRoots) > 0 {
		prevStateRoot := state.HashTreeRoot()
		state.StateRoots[state.Slot%uint64(len(state.StateRoots))] = prevStateRoot
	}
	if n := uint64(len(state.BlockRoots)); n > 0 {
		// A skipped slot repeats the last block root.
		state.BlockRoots[(state.Slot+1)%n] = state.BlockRoots[state.Slot%n]
	}
	return nil
}

// processEpochBoundary carries the randao mix of the closing epoch into the
// next one, so seeds derived after a fast-forward match the ones the rest of
// the network computes.
func processEpochBoundary(state *types.BeaconState) {
	if n := uint64(len(state.RandaoMixes)); n > 0 {
		currentEpoch := helpers.CurrentEpoch(state)
		state.RandaoMixes[(currentEpoch+1)%n] = state.RandaoMixes[currentEpoch%n]
	}
}
