package kv

import (
	"context"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/beacon-chain/db/kvops"
	"github.com/adaszko/lighthouse/shared/bytesutil"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// State retrieval by state root. The slot hint is accepted for interface
// parity with stores that shard states by slot; this store keys full states
// by root alone. A miss returns a nil state and no error.
func (s *Store) State(_ context.Context, stateRoot [32]byte, _ uint64) (*types.BeaconState, error) {
	var st *types.BeaconState
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(stateBucket).Get(stateRoot[:])
		if enc == nil {
			return nil
		}
		dbReadCount.Inc()
		st = &types.BeaconState{}
		return decode(enc, st)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// HasState checks if a state by root exists in the db.
func (s *Store) HasState(_ context.Context, stateRoot [32]byte) bool {
	exists := false
	if err := s.db.View(func(tx *bolt.Tx) error {
		exists = tx.Bucket(stateBucket).Get(stateRoot[:]) != nil
		return nil
	}); err != nil {
		return false
	}
	return exists
}

// SaveState stores the full state body and its summary record under the
// given root.
func (s *Store) SaveState(_ context.Context, state *types.BeaconState, stateRoot [32]byte) error {
	if state == nil {
		return errors.New("nil state")
	}
	enc, err := encode(state)
	if err != nil {
		return err
	}
	dbWriteCount.Inc()
	dbWriteBytes.Add(float64(len(enc)))
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(stateBucket).Put(stateRoot[:], enc); err != nil {
			return err
		}
		return putStateSummary(tx, stateRoot, state.Slot)
	})
}

// StateSummary returns the lightweight summary record stored for a state
// root. A DeleteState op always removes it, even when the full state body is
// kept. A miss returns a nil summary and no error.
func (s *Store) StateSummary(_ context.Context, stateRoot [32]byte) (*kvops.StateSummary, error) {
	var summary *kvops.StateSummary
	err := s.db.View(func(tx *bolt.Tx) error {
		enc := tx.Bucket(stateSummaryBucket).Get(stateRoot[:])
		if enc == nil {
			return nil
		}
		if len(enc) != 8 {
			return errors.New("malformed state summary entry")
		}
		summary = &kvops.StateSummary{
			Slot: bytesutil.FromBytes8(enc),
			Root: stateRoot,
		}
		return nil
	})
	return summary, err
}

func putStateSummary(tx *bolt.Tx, stateRoot [32]byte, slot uint64) error {
	return tx.Bucket(stateSummaryBucket).Put(stateRoot[:], bytesutil.Bytes8(slot))
}
