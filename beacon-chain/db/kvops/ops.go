// Package kvops defines the operation types accepted by the store's atomic
// batch interface.
package kvops

import (
	"github.com/adaszko/lighthouse/beacon-chain/core/types"
)

// OpKind enumerates the operations an atomic batch can carry.
type OpKind int

const (
	// PutBlock stores a block under its root.
	PutBlock OpKind = iota
	// PutState stores a state (and its summary) under its root.
	PutState
	// DeleteBlock removes a block.
	DeleteBlock
	// DeleteState removes a state summary, and the full state body only when
	// the op's slot is epoch aligned; for any other slot the body is left in
	// place.
	DeleteState
)

// StoreOp is one entry of an atomic batch.
type StoreOp struct {
	Kind  OpKind
	Root  [32]byte
	Slot  uint64
	Block *types.BeaconBlock
	State *types.BeaconState
}

// StateSummary is the lightweight per-state record (slot and root) the store
// writes next to every full state body it saves.
type StateSummary struct {
	Slot uint64
	Root [32]byte
}
