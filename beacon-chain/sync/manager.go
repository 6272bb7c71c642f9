package sync

import (
	"sync"

	"github.com/libp2p/go-libp2p-core/peer"

	"github.com/adaszko/lighthouse/beacon-chain/blockchain"
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/beacon-chain/p2p"
	p2ptypes "github.com/adaszko/lighthouse/beacon-chain/p2p/types"
	"github.com/sirupsen/logrus"
)

// syncQueueSize bounds the processor->manager channel. Sends never block;
// messages are dropped with a warning when the manager falls this far behind.
const syncQueueSize = 256

// SyncMessage is the processor-to-manager protocol: peer lifecycle, inbound
// response chunks, and lookups for unknown artifacts.
type SyncMessage interface {
	isSyncMessage()
}

// DisconnectMsg notifies the manager a peer went away.
type DisconnectMsg struct {
	Peer peer.ID
}

// RPCErrorMsg notifies the manager an in-flight request failed.
type RPCErrorMsg struct {
	Peer      peer.ID
	RequestID uint64
}

// AddPeerMsg hands the manager a classified, usable peer.
type AddPeerMsg struct {
	Peer peer.ID
	Info *PeerSyncInfo
}

// BlocksByRangeResponseMsg carries one chunk of a range response. A nil
// block signals stream termination.
type BlocksByRangeResponseMsg struct {
	Peer      peer.ID
	RequestID uint64
	Block     *types.BeaconBlock
}

// BlocksByRootResponseMsg carries one chunk of a root response. A nil block
// signals stream termination.
type BlocksByRootResponseMsg struct {
	Peer      peer.ID
	RequestID uint64
	Block     *types.BeaconBlock
}

// UnknownBlockMsg asks the manager to find ancestry for a block whose parent
// is unknown.
type UnknownBlockMsg struct {
	Peer  peer.ID
	Block *types.BeaconBlock
}

// UnknownBlockHashMsg asks the manager to fetch a block that was attested to
// but never seen.
type UnknownBlockHashMsg struct {
	Peer peer.ID
	Root [32]byte
}

func (DisconnectMsg) isSyncMessage()           {}
func (RPCErrorMsg) isSyncMessage()             {}
func (AddPeerMsg) isSyncMessage()              {}
func (BlocksByRangeResponseMsg) isSyncMessage() {}
func (BlocksByRootResponseMsg) isSyncMessage()  {}
func (UnknownBlockMsg) isSyncMessage()         {}
func (UnknownBlockHashMsg) isSyncMessage()     {}

// WeakChainRef is a non-owning handle to the chain engine. The sync task
// must not keep the chain alive: the owner clears the reference on shutdown
// and the task terminates on the next failed upgrade.
type WeakChainRef struct {
	mu    sync.RWMutex
	chain blockchain.ChainService
}

// NewWeakChainRef wraps the chain in a clearable handle.
func NewWeakChainRef(chain blockchain.ChainService) *WeakChainRef {
	return &WeakChainRef{chain: chain}
}

// Upgrade returns the chain if the owner has not released it.
func (w *WeakChainRef) Upgrade() (blockchain.ChainService, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chain, w.chain != nil
}

// Clear releases the reference. Subsequent upgrades fail.
func (w *WeakChainRef) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chain = nil
}

// syncManager tracks usable peers and drives block lookups for unknown
// artifacts. It owns nothing: a weak chain handle, a transport sender, and
// an inbound message channel that doubles as its lifetime.
type syncManager struct {
	chain *WeakChainRef
	p2p   p2p.Sender
	peers map[peer.ID]*PeerSyncInfo
}

// spawnSyncManager starts the manager task. Closing the returned channel
// terminates it, and so does clearing the chain handle, once the next
// message arrives; the exit channel is closed
// once the task has fully wound down.
func spawnSyncManager(chain *WeakChainRef, sender p2p.Sender) (chan SyncMessage, <-chan struct{}) {
	messages := make(chan SyncMessage, syncQueueSize)
	exit := make(chan struct{})
	m := &syncManager{
		chain: chain,
		p2p:   sender,
		peers: make(map[peer.ID]*PeerSyncInfo),
	}
	go func() {
		defer close(exit)
		for msg := range messages {
			if _, ok := m.chain.Upgrade(); !ok {
				log.Debug("Chain reference released, exiting sync manager")
				return
			}
			m.handle(msg)
		}
	}()
	return messages, exit
}

func (m *syncManager) handle(msg SyncMessage) {
	switch msg := msg.(type) {
	case DisconnectMsg:
		delete(m.peers, msg.Peer)
	case RPCErrorMsg:
		log.WithFields(logrus.Fields{
			"peer":      msg.Peer.String(),
			"requestId": msg.RequestID,
		}).Debug("RPC error relayed to sync")
	case AddPeerMsg:
		m.peers[msg.Peer] = msg.Info
		log.WithFields(logrus.Fields{
			"peer":     msg.Peer.String(),
			"headSlot": msg.Info.HeadSlot,
		}).Debug("Sync peer added")
	case BlocksByRangeResponseMsg:
		logBlockChunk("range", msg.Peer, msg.RequestID, msg.Block)
	case BlocksByRootResponseMsg:
		logBlockChunk("root", msg.Peer, msg.RequestID, msg.Block)
	case UnknownBlockMsg:
		// Ask the advertising peer for the missing ancestry.
		root := msg.Block.ParentRoot
		m.p2p.SendRPCRequest(0, msg.Peer, &p2p.BlocksByRootRequest{
			Request: &p2ptypes.BlocksByRootRequest{BlockRoots: [][32]byte{root}},
		})
	case UnknownBlockHashMsg:
		m.p2p.SendRPCRequest(0, msg.Peer, &p2p.BlocksByRootRequest{
			Request: &p2ptypes.BlocksByRootRequest{BlockRoots: [][32]byte{msg.Root}},
		})
	}
}

func logBlockChunk(kind string, pid peer.ID, requestID uint64, block *types.BeaconBlock) {
	fields := logrus.Fields{
		"peer":      pid.String(),
		"requestId": requestID,
	}
	if block == nil {
		log.WithFields(fields).Debug("Blocks by " + kind + " stream terminated")
		return
	}
	fields["slot"] = block.Slot
	log.WithFields(fields).Debug("Blocks by " + kind + " chunk received")
}
