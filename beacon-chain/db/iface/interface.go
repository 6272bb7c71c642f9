// Package iface exists to prevent circular dependencies when implementing the
// database interface.
package iface

import (
	"context"
	"io"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/beacon-chain/db/kvops"
)

// ReadOnlyDatabase defines a struct which only has read access to database methods.
type ReadOnlyDatabase interface {
	// Raw column/key access.
	GetBytes(ctx context.Context, col string, key []byte) ([]byte, error)
	KeyExists(ctx context.Context, col string, key []byte) (bool, error)

	// Blocks.
	Block(ctx context.Context, blockRoot [32]byte) (*types.BeaconBlock, error)
	HasBlock(ctx context.Context, blockRoot [32]byte) bool
	BlockRootAtSlot(ctx context.Context, slot uint64) (root [32]byte, found bool, err error)

	// States.
	State(ctx context.Context, stateRoot [32]byte, slot uint64) (*types.BeaconState, error)
	HasState(ctx context.Context, stateRoot [32]byte) bool
	StateSummary(ctx context.Context, stateRoot [32]byte) (*kvops.StateSummary, error)
}

// NoHeadAccessDatabase defines a struct without access to chain head data.
type NoHeadAccessDatabase interface {
	ReadOnlyDatabase

	// Raw column/key access.
	PutBytes(ctx context.Context, col string, key []byte, value []byte) error
	KeyDelete(ctx context.Context, col string, key []byte) error

	// Blocks.
	SaveBlock(ctx context.Context, block *types.BeaconBlock) error
	DeleteBlock(ctx context.Context, blockRoot [32]byte) error

	// States.
	SaveState(ctx context.Context, state *types.BeaconState, stateRoot [32]byte) error

	// DoAtomically applies the batch of store operations in a single
	// transaction: either all of them become visible, or none.
	DoAtomically(ctx context.Context, ops []kvops.StoreOp) error
}

// Database defines the necessary methods for the beacon node which may be implemented by any
// key-value or relational database in practice.
type Database interface {
	io.Closer
	NoHeadAccessDatabase

	DatabasePath() string
	ClearDB() error
}
