package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gossipBlocksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gossip_blocks_processed_total",
		Help: "Total number of gossip blocks accepted by the chain engine.",
	})
	gossipBlocksRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gossip_blocks_rejected_total",
		Help: "Total number of gossip blocks dropped as invalid.",
	})
	gossipAttestationsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gossip_attestations_processed_total",
		Help: "Total number of gossip attestations accepted by the chain engine.",
	})
	gossipAttestationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gossip_attestations_rejected_total",
		Help: "Total number of gossip attestations rejected as invalid, faulting the sender.",
	})
	peersDisconnected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "handshake_disconnects_total",
		Help: "Total number of peers disconnected by status classification or for a gossip fault.",
	})
)
