package sync

import (
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/beacon-chain/p2p"
	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
)

// OnBlocksByRootRequest serves a BlocksByRoot request: one response chunk
// per root found in the store, in request order, closed by a stream
// termination sentinel on the same request id. Unknown roots are logged and
// skipped.
func (s *Service) OnBlocksByRootRequest(pid peer.ID, requestID uint64, req *p2ptypes.BlocksByRootRequest) {
	_, span := trace.StartSpan(s.ctx, "sync.BlocksByRootHandler")
	defer span.End()

	sentBlockCount := 0
	for _, root := range req.BlockRoots {
		block, err := s.db.Block(s.ctx, root)
		if err != nil || block == nil {
			log.WithFields(logrus.Fields{
				"peer":        pid.String(),
				"requestRoot": root,
			}).Debug("Peer requested unknown block")
			continue
		}
		enc, err := block.MarshalSSZ()
		if err != nil {
			log.WithError(err).WithField("slot", block.Slot).Error("Could not serialize block for response")
			continue
		}
		s.p2p.SendRPCResponse(pid, requestID, &p2p.BlocksByRootResponse{BlockBytes: enc})
		sentBlockCount++
	}
	log.WithFields(logrus.Fields{
		"peer":      pid.String(),
		"requested": len(req.BlockRoots),
		"returned":  sentBlockCount,
	}).Debug("Received BlocksByRoot request")

	s.p2p.SendRPCErrorResponse(pid, requestID, &p2p.StreamTermination{
		Kind: p2ptypes.TerminationBlocksByRoot,
	})
}

// OnBlocksByRootResponse forwards a single-block chunk of a root query we
// issued into the sync manager. A nil block is the stream termination.
func (s *Service) OnBlocksByRootResponse(pid peer.ID, requestID uint64, block *types.BeaconBlock) {
	s.sendToSync(BlocksByRootResponseMsg{Peer: pid, RequestID: requestID, Block: block})
}
