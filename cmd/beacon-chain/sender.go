package main

import (
	"github.com/libp2p/go-libp2p-core/peer"

	"github.com/adaszko/lighthouse/beacon-chain/p2p"
	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
)

// noopSender stands in for the libp2p transport until it is wired into this
// binary. Outbound traffic is logged and discarded.
type noopSender struct{}

var _ p2p.Sender = (*noopSender)(nil)

func (*noopSender) SendRPCRequest(requestID uint64, peerID peer.ID, _ p2p.Request) {
	log.WithField("peer", peerID.String()).Debug("Dropping outbound RPC request, no transport")
}

func (*noopSender) SendRPCResponse(peerID peer.ID, _ uint64, _ p2p.Response) {
	log.WithField("peer", peerID.String()).Debug("Dropping outbound RPC response, no transport")
}

func (*noopSender) SendRPCErrorResponse(peerID peer.ID, _ uint64, _ p2p.ErrorResponse) {
	log.WithField("peer", peerID.String()).Debug("Dropping outbound RPC error response, no transport")
}

func (*noopSender) Disconnect(peerID peer.ID, reason p2ptypes.GoodbyeReason) {
	log.WithField("peer", peerID.String()).WithField("reason", reason.String()).Debug("Dropping disconnect, no transport")
}
