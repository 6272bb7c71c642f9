package events

import (
	"sync"

	"github.com/adaszko/lighthouse/shared/params"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "events")

// ServerSentEvents fans the head-change subset of chain events into a
// bounded broadcast queue. Head changes are replaceable observations, not
// transactional state: when the queue is full the change is dropped with a
// warning and receivers are not told.
type ServerSentEvents struct {
	// The enqueue itself is a single non-blocking channel send; the mutex
	// only serializes concurrent producers.
	mu    sync.Mutex
	queue chan [32]byte
}

// NewServerSentEvents creates the handler and the receive side of its queue.
// The queue capacity is one epoch worth of slots and lives for the node's
// lifetime.
func NewServerSentEvents() (*ServerSentEvents, <-chan [32]byte) {
	queue := make(chan [32]byte, params.BeaconConfig().SlotsPerEpoch)
	return &ServerSentEvents{queue: queue}, queue
}

// Register implements EventHandler. Only BeaconHeadChanged events are
// queued; every other kind is dropped silently.
func (s *ServerSentEvents) Register(kind EventKind) error {
	headChanged, ok := kind.(*BeaconHeadChanged)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case s.queue <- headChanged.CurrentHeadBeaconBlockRoot:
	default:
		log.WithField("root", headChanged.CurrentHeadBeaconBlockRoot).Warn(
			"Head change streaming queue full; dropping change")
	}
	return nil
}
