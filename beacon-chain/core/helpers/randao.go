package helpers

import (
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/shared/bytesutil"
	"github.com/adaszko/lighthouse/shared/hashutil"
	"github.com/adaszko/lighthouse/shared/params"
	"github.com/pkg/errors"
)

// RandaoMix returns the randao mix of a given epoch.
func RandaoMix(state *types.BeaconState, epoch uint64) ([32]byte, error) {
	if len(state.RandaoMixes) == 0 {
		return [32]byte{}, errors.New("state has no randao mixes")
	}
	return state.RandaoMixes[epoch%uint64(len(state.RandaoMixes))], nil
}

// Seed returns the randao seed used for shuffling of a given epoch under the
// given domain.
//
// Spec pseudocode definition:
//  def get_seed(state: BeaconState, epoch: Epoch, domain_type: DomainType) -> Bytes32:
//    mix = get_randao_mix(state, Epoch(epoch + EPOCHS_PER_HISTORICAL_VECTOR - MIN_SEED_LOOKAHEAD - 1))
//    return hash(domain_type + int_to_bytes(epoch, length=8) + mix)
func Seed(state *types.BeaconState, epoch uint64, domainType [4]byte) ([32]byte, error) {
	lookAheadEpoch := epoch + params.BeaconConfig().EpochsPerHistoricalVector - params.BeaconConfig().MinSeedLookahead - 1
	mix, err := RandaoMix(state, lookAheadEpoch)
	if err != nil {
		return [32]byte{}, err
	}
	seed := append(domainType[:], bytesutil.Bytes8(epoch)...)
	seed = append(seed, mix[:]...)
	return hashutil.Hash(seed), nil
}
