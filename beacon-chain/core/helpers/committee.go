package helpers

import (
	"sort"

	"github.com/adaszko/lighthouse/beacon-chain/cache"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/shared/bytesutil"
	"github.com/adaszko/lighthouse/shared/hashutil"
	"github.com/adaszko/lighthouse/shared/params"
	"github.com/pkg/errors"
)

var committeeCache = cache.NewCommitteesCache()

// IsActiveValidator returns the boolean value on whether the validator
// is active or not.
func IsActiveValidator(validator *types.Validator, epoch uint64) bool {
	return validator.ActivationEpoch <= epoch && epoch < validator.ExitEpoch
}

// ActiveValidatorIndices filters out the list of active validator indices at
// the given epoch.
func ActiveValidatorIndices(state *types.BeaconState, epoch uint64) ([]uint64, error) {
	indices := make([]uint64, 0, len(state.Validators))
	for i, v := range state.Validators {
		if IsActiveValidator(v, epoch) {
			indices = append(indices, uint64(i))
		}
	}
	if len(indices) == 0 {
		return nil, errors.New("no active validator indices")
	}
	return indices, nil
}

// CommitteeCountAtSlot returns the number of beacon committees of a slot. The
// committee count is bounded to [1, MaxCommitteesPerSlot].
func CommitteeCountAtSlot(state *types.BeaconState, slot uint64) (uint64, error) {
	epoch := SlotToEpoch(slot)
	indices, err := ActiveValidatorIndices(state, epoch)
	if err != nil {
		return 0, err
	}
	return committeeCountPerSlot(uint64(len(indices))), nil
}

func committeeCountPerSlot(activeValidatorCount uint64) uint64 {
	cfg := params.BeaconConfig()
	count := activeValidatorCount / cfg.SlotsPerEpoch / cfg.TargetCommitteeSize
	if count > cfg.MaxCommitteesPerSlot {
		count = cfg.MaxCommitteesPerSlot
	}
	if count == 0 {
		count = 1
	}
	return count
}

// ComputeCommittee returns the requested shuffled committee out of the total
// committees, given the shared seed.
func ComputeCommittee(indices []uint64, seed [32]byte, index, count uint64) ([]uint64, error) {
	validatorCount := uint64(len(indices))
	start := SplitOffset(validatorCount, count, index)
	end := SplitOffset(validatorCount, count, index+1)
	if start > validatorCount || end > validatorCount {
		return nil, errors.New("index out of range")
	}
	committee := make([]uint64, 0, end-start)
	for i := start; i < end; i++ {
		permuted, err := ShuffledIndex(i, validatorCount, seed)
		if err != nil {
			return nil, errors.Wrap(err, "could not get shuffled index")
		}
		committee = append(committee, indices[permuted])
	}
	return committee, nil
}

// BeaconCommitteeFromState returns the beacon committee of a given slot and
// committee index, consulting the committee cache first.
func BeaconCommitteeFromState(state *types.BeaconState, slot uint64, committeeIndex uint64) ([]uint64, error) {
	epoch := SlotToEpoch(slot)
	seed, err := Seed(state, epoch, params.BeaconConfig().DomainBeaconAttester)
	if err != nil {
		return nil, errors.Wrap(err, "could not get seed")
	}

	committee, err := committeeCache.Committee(slot, seed, committeeIndex, params.BeaconConfig().SlotsPerEpoch)
	if err != nil {
		return nil, errors.Wrap(err, "could not interface with committee cache")
	}
	if committee != nil {
		return committee, nil
	}

	indices, err := ActiveValidatorIndices(state, epoch)
	if err != nil {
		return nil, err
	}
	committeesPerSlot := committeeCountPerSlot(uint64(len(indices)))
	count := committeesPerSlot * params.BeaconConfig().SlotsPerEpoch
	offset := committeeIndex + (slot%params.BeaconConfig().SlotsPerEpoch)*committeesPerSlot
	return ComputeCommittee(indices, seed, offset, count)
}

// UpdateCommitteeCache builds and caches the shuffled indices of the given
// epoch. Gossip admission rebuilds this after fast-forwarding a state across
// epoch boundaries.
func UpdateCommitteeCache(state *types.BeaconState, epoch uint64) error {
	seed, err := Seed(state, epoch, params.BeaconConfig().DomainBeaconAttester)
	if err != nil {
		return err
	}
	if committeeCache.HasEntry(seed) {
		return nil
	}
	indices, err := ActiveValidatorIndices(state, epoch)
	if err != nil {
		return err
	}
	shuffled, err := ShuffleList(indices, seed)
	if err != nil {
		return err
	}
	sorted := make([]uint64, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	committeeCache.AddCommitteeShuffledList(&cache.Committees{
		CommitteeCount:  params.BeaconConfig().SlotsPerEpoch * committeeCountPerSlot(uint64(len(indices))),
		Seed:            seed,
		ShuffledIndices: shuffled,
		SortedIndices:   sorted,
	})
	return nil
}

// ClearCache clears the committee cache. Tests that mutate the validator
// registry between cases must clear it.
func ClearCache() {
	committeeCache.Clear()
}

// BeaconProposerIndex returns the proposer index for the slot recorded in the
// state.
func BeaconProposerIndex(state *types.BeaconState) (uint64, error) {
	return BeaconProposerIndexAtSlot(state, state.Slot)
}

// BeaconProposerIndexAtSlot returns the validator index that proposes the
// block at the given slot, sampled from the active set weighted by effective
// balance.
//
// Spec pseudocode definition:
//  def get_beacon_proposer_index(state: BeaconState) -> ValidatorIndex:
//    epoch = get_current_epoch(state)
//    seed = hash(get_seed(state, epoch, DOMAIN_BEACON_PROPOSER) + int_to_bytes(state.slot, length=8))
//    indices = get_active_validator_indices(state, epoch)
//    return compute_proposer_index(state, indices, seed)
func BeaconProposerIndexAtSlot(state *types.BeaconState, slot uint64) (uint64, error) {
	epoch := SlotToEpoch(slot)
	seed, err := Seed(state, epoch, params.BeaconConfig().DomainBeaconProposer)
	if err != nil {
		return 0, errors.Wrap(err, "could not generate seed")
	}
	seedWithSlot := append(seed[:], bytesutil.Bytes8(slot)...)
	seedWithSlotHash := hashutil.Hash(seedWithSlot)
	indices, err := ActiveValidatorIndices(state, epoch)
	if err != nil {
		return 0, errors.Wrap(err, "could not get active indices")
	}
	return ComputeProposerIndex(state, indices, seedWithSlotHash)
}

// ComputeProposerIndex samples a proposer from the active indices, weighted
// by effective balance.
//
// Spec pseudocode definition:
//  def compute_proposer_index(state: BeaconState, indices: Sequence[ValidatorIndex], seed: Hash) -> ValidatorIndex:
//    assert len(indices) > 0
//    MAX_RANDOM_BYTE = 2**8 - 1
//    i = 0
//    while True:
//        candidate_index = indices[compute_shuffled_index(i % len(indices), len(indices), seed)]
//        random_byte = hash(seed + int_to_bytes(i // 32, length=8))[i % 32]
//        effective_balance = state.validators[candidate_index].effective_balance
//        if effective_balance * MAX_RANDOM_BYTE >= MAX_EFFECTIVE_BALANCE * random_byte:
//            return ValidatorIndex(candidate_index)
//        i += 1
func ComputeProposerIndex(state *types.BeaconState, indices []uint64, seed [32]byte) (uint64, error) {
	length := uint64(len(indices))
	if length == 0 {
		return 0, errors.New("empty active indices list")
	}
	maxRandomByte := uint64(1<<8 - 1)

	for i := uint64(0); ; i++ {
		candidateIndex, err := ShuffledIndex(i%length, length, seed)
		if err != nil {
			return 0, err
		}
		candidateIndex = indices[candidateIndex]
		if candidateIndex >= uint64(len(state.Validators)) {
			return 0, errors.New("active index out of range")
		}
		randomByte := randomByte(seed, i)
		effectiveBalance := state.Validators[candidateIndex].EffectiveBalance
		if effectiveBalance*maxRandomByte >= params.BeaconConfig().MaxEffectiveBalance*uint64(randomByte) {
			return candidateIndex, nil
		}
	}
}
