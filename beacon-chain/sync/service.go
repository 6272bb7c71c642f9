// Package sync is the peer-sync protocol core of the beacon node. It ingests
// peer status handshakes, serves historical block queries, admits gossip
// blocks and attestations for forwarding, and routes verified artifacts into
// chain processing while informing the sync manager of gaps.
package sync

import (
	"context"

	"github.com/libp2p/go-libp2p-core/peer"

	"github.com/adaszko/lighthouse/beacon-chain/blockchain"
	"github.com/adaszko/lighthouse/beacon-chain/db"
	"github.com/adaszko/lighthouse/beacon-chain/events"
	"github.com/adaszko/lighthouse/beacon-chain/p2p"
)

// Config to set up the sync processor service.
type Config struct {
	Chain        blockchain.ChainService
	DB           db.ReadOnlyDatabase
	P2P          p2p.Sender
	EventHandler events.EventHandler
}

// Service processes validated messages from the network. It relays necessary
// data to the sync manager and processes blocks and attestations from the
// pubsub network.
type Service struct {
	ctx          context.Context
	cancel       context.CancelFunc
	chain        blockchain.ChainService
	db           db.ReadOnlyDatabase
	p2p          p2p.Sender
	eventHandler events.EventHandler
	weakChain    *WeakChainRef
	syncSend     chan SyncMessage
	syncExit     <-chan struct{}
}

// NewService configures the sync processor and spawns the sync manager task
// behind a non-owning chain handle.
func NewService(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	eventHandler := cfg.EventHandler
	if eventHandler == nil {
		eventHandler = events.NullEventHandler{}
	}
	weakChain := NewWeakChainRef(cfg.Chain)
	syncSend, syncExit := spawnSyncManager(weakChain, cfg.P2P)
	return &Service{
		ctx:          ctx,
		cancel:       cancel,
		chain:        cfg.Chain,
		db:           cfg.DB,
		p2p:          cfg.P2P,
		eventHandler: eventHandler,
		weakChain:    weakChain,
		syncSend:     syncSend,
		syncExit:     syncExit,
	}
}

// Start the sync service.
func (s *Service) Start() {
	log.Info("Starting sync processor")
}

// Stop the sync service. Releases the chain handle and severs the manager
// channel, which terminates the sync task.
func (s *Service) Stop() error {
	s.cancel()
	s.weakChain.Clear()
	close(s.syncSend)
	<-s.syncExit
	return nil
}

// Status always returns nil.
func (s *Service) Status() error {
	return nil
}

// sendToSync relays a message to the sync manager without blocking the
// processor. Overload drops the message with a warning.
func (s *Service) sendToSync(msg SyncMessage) {
	select {
	case s.syncSend <- msg:
	default:
		log.Warn("Could not send message to the sync service")
	}
}

// OnDisconnect handles a peer disconnect by removing the peer from the
// manager.
func (s *Service) OnDisconnect(pid peer.ID) {
	s.sendToSync(DisconnectMsg{Peer: pid})
}

// OnRPCError notifies the sync manager that an in-flight request errored;
// request state lives in the manager.
func (s *Service) OnRPCError(pid peer.ID, requestID uint64) {
	s.sendToSync(RPCErrorMsg{Peer: pid, RequestID: requestID})
}

// registerEvent forwards a classified chain event into the event fabric.
func (s *Service) registerEvent(kind events.EventKind) {
	if err := s.eventHandler.Register(kind); err != nil {
		log.WithError(err).Error("Could not register chain event")
	}
}
