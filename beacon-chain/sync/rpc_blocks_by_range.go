package sync

import (
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/beacon-chain/p2p"
	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
)

// OnBlocksByRangeRequest serves a BlocksByRange request: every canonical
// block whose slot lies in [start_slot, start_slot+count), one per slot, in
// ascending slot order, closed by a stream termination sentinel. Skipped
// slots legitimately shrink the response below count.
func (s *Service) OnBlocksByRangeRequest(pid peer.ID, requestID uint64, req *p2ptypes.BlocksByRangeRequest) {
	ctx, span := trace.StartSpan(s.ctx, "sync.BlocksByRangeHandler")
	defer span.End()
	span.AddAttributes(
		trace.Int64Attribute("start", int64(req.StartSlot)),
		trace.Int64Attribute("count", int64(req.Count)),
	)
	log.WithFields(logrus.Fields{
		"peer":      pid.String(),
		"startSlot": req.StartSlot,
		"count":     req.Count,
	}).Debug("Received BlocksByRange request")

	endSlot := req.StartSlot + req.Count

	// The canonical iterator walks the chain from the head downwards, so
	// collect the in-range blocks first, then reverse and de-duplicate by
	// slot before emitting in ascending order. Skipped slots repeat the
	// previous root, which the de-duplication collapses to one block.
	var blocks []*types.BeaconBlock
	for _, rs := range s.chain.RevIterBlockRoots(ctx) {
		if rs.Slot < req.StartSlot {
			break
		}
		if rs.Slot >= endSlot {
			continue
		}
		block, err := s.db.Block(ctx, rs.Root)
		if err != nil || block == nil {
			log.WithFields(logrus.Fields{
				"requestRoot": rs.Root,
				"slot":        rs.Slot,
			}).Warn("Block in the chain is not in the store")
			continue
		}
		if block.Slot < req.StartSlot {
			// A skipped slot at the start of the range repeats an older
			// block; it does not belong to the response.
			continue
		}
		blocks = append(blocks, block)
	}

	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	deduped := blocks[:0]
	for _, block := range blocks {
		if len(deduped) > 0 && deduped[len(deduped)-1].Slot == block.Slot {
			continue
		}
		deduped = append(deduped, block)
	}

	if uint64(len(deduped)) < req.Count {
		log.WithFields(logrus.Fields{
			"peer":      pid.String(),
			"startSlot": req.StartSlot,
			"requested": req.Count,
			"returned":  len(deduped),
		}).Debug("Sending partial BlocksByRange response")
	}

	for _, block := range deduped {
		enc, err := block.MarshalSSZ()
		if err != nil {
			log.WithError(err).WithField("slot", block.Slot).Error("Could not serialize block for response")
			continue
		}
		s.p2p.SendRPCResponse(pid, requestID, &p2p.BlocksByRangeResponse{BlockBytes: enc})
	}
	s.p2p.SendRPCErrorResponse(pid, requestID, &p2p.StreamTermination{
		Kind: p2ptypes.TerminationBlocksByRange,
	})
}

// OnBlocksByRangeResponse forwards a single-block chunk of a range query we
// issued into the sync manager. A nil block is the stream termination.
func (s *Service) OnBlocksByRangeResponse(pid peer.ID, requestID uint64, block *types.BeaconBlock) {
	s.sendToSync(BlocksByRangeResponseMsg{Peer: pid, RequestID: requestID, Block: block})
}
