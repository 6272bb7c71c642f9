// Package helpers contains helper functions outlined in the eth2 beacon chain
// spec, such as committee computation, proposer derivation, and attestation
// conversion.
package helpers

import (
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/shared/params"
)

// SlotToEpoch returns the epoch number of the input slot.
func SlotToEpoch(slot uint64) uint64 {
	return slot / params.BeaconConfig().SlotsPerEpoch
}

// CurrentEpoch returns the current epoch number calculated from
// the slot number stored in beacon state.
func CurrentEpoch(state *types.BeaconState) uint64 {
	return SlotToEpoch(state.Slot)
}

// PrevEpoch returns the previous epoch number calculated from
// the slot number stored in beacon state. It also checks for
// underflow condition.
func PrevEpoch(state *types.BeaconState) uint64 {
	if CurrentEpoch(state) > 0 {
		return CurrentEpoch(state) - 1
	}
	return 0
}

// StartSlot returns the first slot number of the
// given epoch.
func StartSlot(epoch uint64) uint64 {
	return epoch * params.BeaconConfig().SlotsPerEpoch
}

// IsEpochStart returns true if the given slot number is an epoch starting slot.
func IsEpochStart(slot uint64) bool {
	return slot%params.BeaconConfig().SlotsPerEpoch == 0
}

// IsEpochEnd returns true if the given slot number is an epoch ending slot.
func IsEpochEnd(slot uint64) bool {
	return IsEpochStart(slot + 1)
}
