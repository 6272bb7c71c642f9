package events

import (
	"testing"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/shared/params"
	"github.com/adaszko/lighthouse/shared/testutil/assert"
	"github.com/adaszko/lighthouse/shared/testutil/require"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func TestEventJSONRoundTrip(t *testing.T) {
	tests := []EventKind{
		&BeaconHeadChanged{
			Reorg:                       true,
			CurrentHeadBeaconBlockRoot:  [32]byte{1},
			PreviousHeadBeaconBlockRoot: [32]byte{2},
		},
		&BeaconFinalization{Epoch: 3, Root: [32]byte{4}},
		&BeaconBlockImported{
			BlockRoot: [32]byte{5},
			Block:     &types.BeaconBlock{Slot: 9, Body: &types.BeaconBlockBody{}},
		},
		&BeaconBlockRejected{
			Reason: "bad signature",
			Block:  &types.BeaconBlock{Slot: 10, Body: &types.BeaconBlockBody{}},
		},
		&BeaconAttestationImported{
			Attestation: &types.Attestation{Data: &types.AttestationData{Slot: 2}},
		},
		&BeaconAttestationRejected{
			Reason:      "unknown block",
			Attestation: &types.Attestation{Data: &types.AttestationData{Slot: 3}},
		},
	}
	for _, event := range tests {
		enc, err := MarshalEvent(event)
		require.NoError(t, err, "could not marshal %T", event)
		decoded, err := UnmarshalEvent(enc)
		require.NoError(t, err, "could not unmarshal %T", event)
		assert.DeepEqual(t, event, decoded)
	}
}

func TestUnmarshalUnknownEvent(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"event":"beacon_exploded","data":{}}`))
	assert.ErrorContains(t, "unknown event kind", err)
}

func TestNullHandlerAcceptsEverything(t *testing.T) {
	var h NullEventHandler
	require.NoError(t, h.Register(&BeaconFinalization{}))
	require.NoError(t, h.Register(&BeaconHeadChanged{}))
}

func TestHeadChangeFanoutOrder(t *testing.T) {
	handler, recv := NewServerSentEvents()
	roots := [][32]byte{{1}, {2}, {3}}
	for _, root := range roots {
		require.NoError(t, handler.Register(&BeaconHeadChanged{CurrentHeadBeaconBlockRoot: root}))
	}
	for _, want := range roots {
		assert.Equal(t, want, <-recv)
	}
}

func TestHeadChangeFanoutIgnoresOtherKinds(t *testing.T) {
	handler, recv := NewServerSentEvents()
	require.NoError(t, handler.Register(&BeaconFinalization{Epoch: 1}))
	require.NoError(t, handler.Register(&BeaconBlockImported{}))
	assert.Equal(t, 0, len(recv))
}

// Feeding a full epoch of head changes plus one more to a slow receiver must
// deliver exactly SlotsPerEpoch of them, log one drop, and not panic.
func TestHeadChangeFanoutOverflowDrops(t *testing.T) {
	hook := logTest.NewGlobal()
	handler, recv := NewServerSentEvents()

	n := params.BeaconConfig().SlotsPerEpoch
	for i := uint64(0); i < n+1; i++ {
		require.NoError(t, handler.Register(&BeaconHeadChanged{
			CurrentHeadBeaconBlockRoot: [32]byte{byte(i)},
		}))
	}
	require.LogsContain(t, hook, "Head change streaming queue full")

	delivered := uint64(0)
	for {
		select {
		case root := <-recv:
			assert.Equal(t, [32]byte{byte(delivered)}, root, "head changes out of order")
			delivered++
		default:
			assert.Equal(t, n, delivered, "wrong number of deliveries")
			return
		}
	}
}
