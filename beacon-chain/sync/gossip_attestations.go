package sync

import (
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"

	"github.com/adaszko/lighthouse/beacon-chain/blockchain"
	"github.com/adaszko/lighthouse/beacon-chain/core/helpers"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/beacon-chain/events"
	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
)

// OnAttestationGossip attempts to apply a gossiped attestation to the beacon
// chain. Attestations to unknown head blocks trigger a sync-manager lookup;
// invalid or empty-bitfield attestations fault the sending peer.
func (s *Service) OnAttestationGossip(pid peer.ID, att *types.Attestation) {
	outcome, err := s.chain.ProcessAttestation(s.ctx, att)
	if err != nil {
		log.WithError(err).Error("Invalid gossip attestation")
		return
	}
	switch outcome.Kind {
	case blockchain.AttestationProcessed:
		log.WithFields(logrus.Fields{
			"source": "gossip",
		}).Info("Processed attestation")
		gossipAttestationsProcessed.Inc()
		s.registerEvent(&events.BeaconAttestationImported{Attestation: att})
	case blockchain.AttestationUnknownHeadBlock:
		// We don't know the attested block; get the sync manager to handle
		// the block lookup.
		log.WithFields(logrus.Fields{
			"peer":  pid.String(),
			"block": outcome.BeaconBlockRoot,
		}).Debug("Attestation for unknown block")
		s.sendToSync(UnknownBlockHashMsg{Peer: pid, Root: outcome.BeaconBlockRoot})
	case blockchain.AttestationAttestsToFutureState, blockchain.AttestationFinalizedSlot:
		// Ignore the attestation.
	case blockchain.AttestationInvalid, blockchain.AttestationEmptyAggregationBitfield:
		// The peer has sent a bad attestation. Remove them.
		gossipAttestationsRejected.Inc()
		s.registerEvent(&events.BeaconAttestationRejected{
			Reason:      outcome.Reason,
			Attestation: att,
		})
		s.disconnect(pid, p2ptypes.GoodbyeReasonFault)
	}
}

// ShouldForwardAttestation determines whether a gossiped attestation is fit
// to relay to other peers.
//
// The fast path verifies against the current head state without touching the
// database, which works for most attestations on the network. A failure
// there is not proof of invalidity (our head may carry a different validator
// registry across a fork), so the slow path re-derives the indexed
// attestation against the state of the attested block.
func (s *Service) ShouldForwardAttestation(att *types.Attestation) bool {
	_, span := trace.StartSpan(s.ctx, "sync.ShouldForwardAttestation")
	defer span.End()

	headState := s.chain.Head().BeaconState
	if headState != nil {
		if indexed, err := helpers.ConvertToIndexed(headState, att); err == nil {
			if err := helpers.VerifyIndexedAttestation(headState, indexed); err == nil {
				return true
			}
		}
	}

	if att.Data == nil {
		return false
	}
	block, err := s.db.Block(s.ctx, att.Data.BeaconBlockRoot)
	if err != nil || block == nil {
		return false
	}
	state, err := s.db.State(s.ctx, block.StateRoot, block.Slot)
	if err != nil || state == nil {
		return false
	}
	indexed, err := helpers.ConvertToIndexed(state, att)
	if err != nil {
		return false
	}
	return helpers.VerifyIndexedAttestation(state, indexed) == nil
}
