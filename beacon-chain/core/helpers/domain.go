package helpers

import (
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/shared/bls"
)

// Domain returns the domain version for BLS private key to sign and verify,
// picking the fork version active at the given epoch.
//
// Spec pseudocode definition:
//  def get_domain(state: BeaconState, domain_type: DomainType, message_epoch: Epoch=None) -> Domain:
//    epoch = get_current_epoch(state) if message_epoch is None else message_epoch
//    fork_version = state.fork.previous_version if epoch < state.fork.epoch else state.fork.current_version
//    return compute_domain(domain_type, fork_version)
func Domain(fork *types.Fork, epoch uint64, domainType [4]byte) uint64 {
	if fork == nil {
		fork = &types.Fork{}
	}
	version := fork.CurrentVersion
	if epoch < fork.Epoch {
		version = fork.PreviousVersion
	}
	return bls.Domain(domainType, version)
}
