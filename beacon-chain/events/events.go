// Package events distributes classified chain events to downstream
// consumers: a null sink, a websocket broadcast sink, and a bounded
// head-change fan-out queue.
package events

import (
	"encoding/json"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/pkg/errors"
)

// EventKind is one classified chain event. Concrete kinds serialize to the
// canonical {"event": <snake_case_name>, "data": <fields>} JSON form.
type EventKind interface {
	eventName() string
}

// BeaconHeadChanged fires whenever the canonical head moves.
type BeaconHeadChanged struct {
	Reorg                       bool     `json:"reorg"`
	CurrentHeadBeaconBlockRoot  [32]byte `json:"current_head_beacon_block_root"`
	PreviousHeadBeaconBlockRoot [32]byte `json:"previous_head_beacon_block_root"`
}

// BeaconFinalization fires when a checkpoint is finalized.
type BeaconFinalization struct {
	Epoch uint64   `json:"epoch"`
	Root  [32]byte `json:"root"`
}

// BeaconBlockImported fires when a block is applied to the chain.
type BeaconBlockImported struct {
	BlockRoot [32]byte           `json:"block_root"`
	Block     *types.BeaconBlock `json:"block"`
}

// BeaconBlockRejected fires when a block fails validation.
type BeaconBlockRejected struct {
	Reason string             `json:"reason"`
	Block  *types.BeaconBlock `json:"block"`
}

// BeaconAttestationImported fires when an attestation is applied.
type BeaconAttestationImported struct {
	Attestation *types.Attestation `json:"attestation"`
}

// BeaconAttestationRejected fires when an attestation fails validation.
type BeaconAttestationRejected struct {
	Reason      string             `json:"reason"`
	Attestation *types.Attestation `json:"attestation"`
}

func (*BeaconHeadChanged) eventName() string         { return "beacon_head_changed" }
func (*BeaconFinalization) eventName() string        { return "beacon_finalization" }
func (*BeaconBlockImported) eventName() string       { return "beacon_block_imported" }
func (*BeaconBlockRejected) eventName() string       { return "beacon_block_rejected" }
func (*BeaconAttestationImported) eventName() string { return "beacon_attestation_imported" }
func (*BeaconAttestationRejected) eventName() string { return "beacon_attestation_rejected" }

type taggedEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MarshalEvent serializes an event into the canonical tag/data JSON form.
func MarshalEvent(kind EventKind) ([]byte, error) {
	data, err := json.Marshal(kind)
	if err != nil {
		return nil, errors.Wrap(err, "unable to serialize event data")
	}
	return json.Marshal(&taggedEvent{Event: kind.eventName(), Data: data})
}

// UnmarshalEvent decodes an event from the canonical tag/data JSON form.
func UnmarshalEvent(b []byte) (EventKind, error) {
	var tagged taggedEvent
	if err := json.Unmarshal(b, &tagged); err != nil {
		return nil, errors.Wrap(err, "unable to parse event envelope")
	}
	var kind EventKind
	switch tagged.Event {
	case "beacon_head_changed":
		kind = &BeaconHeadChanged{}
	case "beacon_finalization":
		kind = &BeaconFinalization{}
	case "beacon_block_imported":
		kind = &BeaconBlockImported{}
	case "beacon_block_rejected":
		kind = &BeaconBlockRejected{}
	case "beacon_attestation_imported":
		kind = &BeaconAttestationImported{}
	case "beacon_attestation_rejected":
		kind = &BeaconAttestationRejected{}
	default:
		return nil, errors.Errorf("unknown event kind %q", tagged.Event)
	}
	if err := json.Unmarshal(tagged.Data, kind); err != nil {
		return nil, errors.Wrapf(err, "unable to parse %q event data", tagged.Event)
	}
	return kind, nil
}

// EventHandler consumes classified chain events. NullEventHandler and
// ServerSentEvents return from Register without blocking beyond a
// non-blocking enqueue; WebsocketHandler writes the event to every subscriber
// before Register returns.
type EventHandler interface {
	Register(kind EventKind) error
}

// NullEventHandler accepts and discards every event.
type NullEventHandler struct{}

// Register implements EventHandler.
func (NullEventHandler) Register(_ EventKind) error {
	return nil
}
