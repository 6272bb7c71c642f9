package sync

import (
	"context"
	"io/ioutil"
	"testing"

	"github.com/sirupsen/logrus"

	mockChain "github.com/adaszko/lighthouse/beacon-chain/blockchain/testing"
	"github.com/adaszko/lighthouse/beacon-chain/db"
	dbtest "github.com/adaszko/lighthouse/beacon-chain/db/testing"
	"github.com/adaszko/lighthouse/beacon-chain/events"
	p2ptest "github.com/adaszko/lighthouse/beacon-chain/p2p/testing"
	"github.com/adaszko/lighthouse/shared/testutil/require"
)

func init() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetOutput(ioutil.Discard)
}

// recordingEventHandler collects every registered event for inspection.
type recordingEventHandler struct {
	events []events.EventKind
}

func (r *recordingEventHandler) Register(kind events.EventKind) error {
	r.events = append(r.events, kind)
	return nil
}

// newTestService wires a Service whose sync-manager channel is left
// unconsumed, so tests can observe the exact messages the processor sends.
func newTestService(t *testing.T, chain *mockChain.ChainService, beaconDB db.ReadOnlyDatabase, sender *p2ptest.MockSender) *Service {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &Service{
		ctx:          ctx,
		cancel:       cancel,
		chain:        chain,
		db:           beaconDB,
		p2p:          sender,
		eventHandler: &recordingEventHandler{},
		weakChain:    NewWeakChainRef(chain),
		syncSend:     make(chan SyncMessage, syncQueueSize),
	}
}

func drainSyncMessages(s *Service) []SyncMessage {
	var msgs []SyncMessage
	for {
		select {
		case msg := <-s.syncSend:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func TestStopSeversManagerChannel(t *testing.T) {
	chain := &mockChain.ChainService{}
	sender := &p2ptest.MockSender{}
	svc := NewService(context.Background(), &Config{
		Chain: chain,
		DB:    dbtest.SetupDB(t),
		P2P:   sender,
	})
	svc.Start()
	require.NoError(t, svc.Stop())
	// The manager exit channel must be closed after Stop returns.
	select {
	case <-svc.syncExit:
	default:
		t.Fatal("sync manager did not exit")
	}
}
