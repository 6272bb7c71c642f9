package kv

import (
	"context"

	"github.com/adaszko/lighthouse/beacon-chain/db/kvops"
	"github.com/adaszko/lighthouse/shared/params"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// DoAtomically applies the batch of store operations inside one BoltDB
// write transaction, so either every operation becomes visible or none.
func (s *Store) DoAtomically(_ context.Context, ops []kvops.StoreOp) error {
	dbBatchCount.Inc()
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, op := range ops {
			switch op.Kind {
			case kvops.PutBlock:
				if op.Block == nil {
					return errors.New("put block op carries no block")
				}
				enc, err := encode(op.Block)
				if err != nil {
					return err
				}
				if err := tx.Bucket(blocksBucket).Put(op.Root[:], enc); err != nil {
					return err
				}
			case kvops.PutState:
				if op.State == nil {
					return errors.New("put state op carries no state")
				}
				enc, err := encode(op.State)
				if err != nil {
					return err
				}
				if err := tx.Bucket(stateBucket).Put(op.Root[:], enc); err != nil {
					return err
				}
				if err := putStateSummary(tx, op.Root, op.State.Slot); err != nil {
					return err
				}
			case kvops.DeleteBlock:
				if err := tx.Bucket(blocksBucket).Delete(op.Root[:]); err != nil {
					return err
				}
			case kvops.DeleteState:
				// The state summary always goes. The full state body is
				// removed only for epoch-boundary slots; a body saved at any
				// other slot stays in the state bucket.
				if err := tx.Bucket(stateSummaryBucket).Delete(op.Root[:]); err != nil {
					return err
				}
				if op.Slot%params.BeaconConfig().SlotsPerEpoch == 0 {
					if err := tx.Bucket(stateBucket).Delete(op.Root[:]); err != nil {
						return err
					}
				}
			default:
				return errors.Errorf("unknown store op kind %d", op.Kind)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	dbBatchCount.Inc()
	// Only invalidate cached blocks once the transaction has committed.
	for _, op := range ops {
		if op.Kind == kvops.DeleteBlock {
			s.blockCache.Del(string(op.Root[:]))
		}
	}
	return nil
}
