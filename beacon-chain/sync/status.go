package sync

import (
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/sirupsen/logrus"

	"github.com/adaszko/lighthouse/beacon-chain/core/helpers"
	"github.com/adaszko/lighthouse/beacon-chain/p2p"
	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
)

// futureSlotTolerance is how many slots ahead of our own clock a peer's head
// may claim to be before we treat the handshake as evidence of a different
// genesis time or a broken clock.
const futureSlotTolerance = 1

// PeerSyncInfo tracks the syncing snapshot of a connected peer, or of our
// own chain head at the moment of comparison.
type PeerSyncInfo struct {
	ForkVersion    [4]byte
	FinalizedRoot  [32]byte
	FinalizedEpoch uint64
	HeadRoot       [32]byte
	HeadSlot       uint64
}

// peerSyncInfoFromStatus converts a wire status message.
func peerSyncInfoFromStatus(status *p2ptypes.StatusMessage) *PeerSyncInfo {
	return &PeerSyncInfo{
		ForkVersion:    status.ForkVersion,
		FinalizedRoot:  status.FinalizedRoot,
		FinalizedEpoch: status.FinalizedEpoch,
		HeadRoot:       status.HeadRoot,
		HeadSlot:       status.HeadSlot,
	}
}

// statusMessage builds a StatusMessage representing the current chain head.
// The snapshot is taken fresh on every call so classification never compares
// against a stale head.
func (s *Service) statusMessage() *p2ptypes.StatusMessage {
	head := s.chain.Head()
	state := head.BeaconState
	msg := &p2ptypes.StatusMessage{
		HeadRoot: head.BeaconBlockRoot,
	}
	if state != nil {
		if state.Fork != nil {
			msg.ForkVersion = state.Fork.CurrentVersion
		}
		if state.FinalizedCheckpoint != nil {
			msg.FinalizedRoot = state.FinalizedCheckpoint.Root
			msg.FinalizedEpoch = state.FinalizedCheckpoint.Epoch
		}
		msg.HeadSlot = state.Slot
	}
	return msg
}

// OnConnect handles the connection of a new peer by sending our status.
func (s *Service) OnConnect(pid peer.ID) {
	s.p2p.SendRPCRequest(0, pid, &p2p.StatusRequest{Message: s.statusMessage()})
}

// OnStatusRequest processes the status from the remote peer and sends back
// our own before classifying.
func (s *Service) OnStatusRequest(pid peer.ID, requestID uint64, status *p2ptypes.StatusMessage) {
	log.WithField("peer", pid.String()).Debug("Status request received")
	s.p2p.SendRPCResponse(pid, requestID, &p2p.StatusResponse{Message: s.statusMessage()})
	s.processStatus(pid, status)
}

// OnStatusResponse classifies the peer; no further reply is owed.
func (s *Service) OnStatusResponse(pid peer.ID, status *p2ptypes.StatusMessage) {
	log.WithField("peer", pid.String()).Debug("Status response received")
	s.processStatus(pid, status)
}

// processStatus applies the peer-classification rules in order; the first
// match wins. Incompatible peers are disconnected, usable ones are handed to
// the sync manager.
func (s *Service) processStatus(pid peer.ID, status *p2ptypes.StatusMessage) {
	remote := peerSyncInfoFromStatus(status)
	local := peerSyncInfoFromStatus(s.statusMessage())

	// When the slot clock cannot be read, treat the local slot as zero.
	// Other system components deal with an invalid slot clock.
	localSlot, err := s.chain.Slot()
	if err != nil {
		localSlot = 0
	}

	switch {
	case remote.ForkVersion != local.ForkVersion:
		// The node is on a different network/fork, disconnect them.
		log.WithFields(logrus.Fields{
			"peer":   pid.String(),
			"reason": "network_id",
		}).Debug("Handshake failure")
		s.disconnect(pid, p2ptypes.GoodbyeReasonIrrelevantNetwork)

	case remote.HeadSlot > localSlot+futureSlotTolerance:
		// The remote's head is on a slot that is significantly ahead of
		// ours. This could be because they are using a different genesis
		// time, or that their or our system clock is incorrect.
		log.WithFields(logrus.Fields{
			"peer":   pid.String(),
			"reason": "different system clocks or genesis time",
		}).Debug("Handshake failure")
		s.disconnect(pid, p2ptypes.GoodbyeReasonIrrelevantNetwork)

	case remote.FinalizedEpoch <= local.FinalizedEpoch &&
		remote.FinalizedRoot != [32]byte{} &&
		local.FinalizedRoot != [32]byte{} &&
		!s.rootAtSlotMatches(helpers.StartSlot(remote.FinalizedEpoch), remote.FinalizedRoot):
		// The remote's finalized epoch is within ours, but the block root
		// differs from the one in our chain at that slot. The node is on a
		// different chain and we should not communicate with them.
		log.WithFields(logrus.Fields{
			"peer":   pid.String(),
			"reason": "different finalized chain",
		}).Debug("Handshake failure")
		s.disconnect(pid, p2ptypes.GoodbyeReasonIrrelevantNetwork)

	case remote.FinalizedEpoch < local.FinalizedEpoch:
		// The node has a lower finalized epoch. Either their head is behind
		// ours on the same chain, or they are on a fork whose adoption would
		// rewind our finalized history. Nothing to request either way.
		log.WithFields(logrus.Fields{
			"peer":   pid.String(),
			"reason": "lower finalized epoch",
		}).Debug("NaivePeer")

	case s.db.HasBlock(s.ctx, remote.HeadRoot):
		// The peer's best block is already known to us: treat them as fully
		// synced.
		log.WithFields(logrus.Fields{
			"peer":           pid.String(),
			"remoteHeadSlot": remote.HeadSlot,
		}).Debug("Peer with known chain found")
		s.sendToSync(AddPeerMsg{Peer: pid, Info: remote})

	default:
		// Equal or greater finalized epoch and an unknown head: there are
		// blocks between our finalized epoch and their head worth
		// downloading.
		log.WithFields(logrus.Fields{
			"peer":                 pid.String(),
			"localFinalizedEpoch":  local.FinalizedEpoch,
			"remoteFinalizedEpoch": remote.FinalizedEpoch,
		}).Debug("UsefulPeer")
		s.sendToSync(AddPeerMsg{Peer: pid, Info: remote})
	}
}

// rootAtSlotMatches reports whether our canonical chain has the given root
// at the given slot. Lookup failures count as a mismatch: a peer we cannot
// verify against finalized history is treated as divergent.
func (s *Service) rootAtSlotMatches(slot uint64, root [32]byte) bool {
	localRoot, found, err := s.chain.RootAtSlot(slot)
	if err != nil {
		log.WithError(err).WithField("slot", slot).Warn("Could not read canonical root for handshake")
		return false
	}
	return found && localRoot == root
}

// disconnect sends a goodbye with the given reason and drops the peer.
func (s *Service) disconnect(pid peer.ID, reason p2ptypes.GoodbyeReason) {
	log.WithFields(logrus.Fields{
		"peer":   pid.String(),
		"reason": reason.String(),
	}).Warn("Disconnecting peer")
	peersDisconnected.Inc()
	s.p2p.SendRPCRequest(0, pid, &p2p.GoodbyeRequest{Reason: reason})
	s.p2p.Disconnect(pid, reason)
}
