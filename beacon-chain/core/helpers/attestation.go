package helpers

import (
	"sort"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/shared/bls"
	"github.com/adaszko/lighthouse/shared/params"
	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
)

// ErrAttestationAggregationBitsEmpty is returned when an attestation's
// aggregation bitfield has no bits set.
var ErrAttestationAggregationBitsEmpty = errors.New("attestation aggregation bits are empty")

// AttestingIndices returns the attesting participants indices from the
// attestation data.
//
// Spec pseudocode definition:
//  def get_attesting_indices(state: BeaconState,
//                            data: AttestationData,
//                            bits: Bitlist[MAX_VALIDATORS_PER_COMMITTEE]) -> Set[ValidatorIndex]:
//    committee = get_beacon_committee(state, data.slot, data.index)
//    return set(index for i, index in enumerate(committee) if bits[i])
func AttestingIndices(bits bitfield.Bitlist, committee []uint64) ([]uint64, error) {
	if bits.Len() != uint64(len(committee)) {
		return nil, errors.Errorf("bitfield length %d is not equal to committee length %d", bits.Len(), len(committee))
	}
	indices := make([]uint64, 0, len(committee))
	for i, idx := range committee {
		if bits.BitAt(uint64(i)) {
			indices = append(indices, idx)
		}
	}
	return indices, nil
}

// ConvertToIndexed converts an attestation to its indexed form, with the
// attesting validator indices spelled out in sorted order.
func ConvertToIndexed(state *types.BeaconState, attestation *types.Attestation) (*types.IndexedAttestation, error) {
	if attestation.Data == nil {
		return nil, errors.New("attestation data is nil")
	}
	committee, err := BeaconCommitteeFromState(state, attestation.Data.Slot, attestation.Data.CommitteeIndex)
	if err != nil {
		return nil, err
	}
	attIndices, err := AttestingIndices(attestation.AggregationBits, committee)
	if err != nil {
		return nil, errors.Wrap(err, "could not get attesting indices")
	}
	sort.Slice(attIndices, func(i, j int) bool { return attIndices[i] < attIndices[j] })
	return &types.IndexedAttestation{
		AttestingIndices: attIndices,
		Data:             attestation.Data,
		Signature:        attestation.Signature,
	}, nil
}

// VerifyIndexedAttestation verifies the aggregate signature of an indexed
// attestation against the validator registry of the given state.
func VerifyIndexedAttestation(state *types.BeaconState, indexed *types.IndexedAttestation) error {
	if len(indexed.AttestingIndices) == 0 {
		return ErrAttestationAggregationBitsEmpty
	}
	if uint64(len(indexed.AttestingIndices)) > params.BeaconConfig().MaxValidatorsPerCommittee {
		return errors.New("validator indices count exceeds MAX_VALIDATORS_PER_COMMITTEE")
	}
	for i := 1; i < len(indexed.AttestingIndices); i++ {
		if indexed.AttestingIndices[i-1] >= indexed.AttestingIndices[i] {
			return errors.New("attesting indices are not uniquely sorted")
		}
	}

	pubkeys := make([]*bls.PublicKey, 0, len(indexed.AttestingIndices))
	for _, idx := range indexed.AttestingIndices {
		if idx >= uint64(len(state.Validators)) {
			return errors.Errorf("validator index %d out of range", idx)
		}
		pub, err := bls.PublicKeyFromBytes(state.Validators[idx].PublicKey[:])
		if err != nil {
			return errors.Wrap(err, "could not deserialize validator public key")
		}
		pubkeys = append(pubkeys, pub)
	}

	domain := Domain(state.Fork, indexed.Data.Target.Epoch, params.BeaconConfig().DomainBeaconAttester)
	sig, err := bls.SignatureFromBytes(indexed.Signature[:])
	if err != nil {
		return errors.Wrap(err, "could not convert bytes to signature")
	}
	root := indexed.Data.HashTreeRoot()
	if !sig.VerifyAggregateCommon(pubkeys, root[:], domain) {
		return errors.New("attestation aggregation signature did not verify")
	}
	return nil
}
