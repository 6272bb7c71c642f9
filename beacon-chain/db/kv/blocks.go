package kv

import (
	"context"

	"github.com/adaszko/lighthouse/beacon-chain/core/types"
	"github.com/adaszko/lighthouse/shared/bytesutil"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// Block retrieval by root. A miss returns a nil block and no error.
func (s *Store) Block(_ context.Context, blockRoot [32]byte) (*types.BeaconBlock, error) {
	if v, ok := s.blockCache.Get(string(blockRoot[:])); v != nil && ok {
		return v.(*types.BeaconBlock).Copy(), nil
	}
	var block *types.BeaconBlock
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(blocksBucket)
		enc := bkt.Get(blockRoot[:])
		if enc == nil {
			return nil
		}
		dbReadCount.Inc()
		block = &types.BeaconBlock{}
		return decode(enc, block)
	})
	if err != nil {
		return nil, err
	}
	if block != nil {
		s.blockCache.Set(string(blockRoot[:]), block.Copy(), int64(block.SizeSSZ()))
	}
	return block, nil
}

// HasBlock checks if a block by root exists in the db.
func (s *Store) HasBlock(_ context.Context, blockRoot [32]byte) bool {
	if v, ok := s.blockCache.Get(string(blockRoot[:])); v != nil && ok {
		return true
	}
	exists := false
	if err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(blocksBucket)
		exists = bkt.Get(blockRoot[:]) != nil
		return nil
	}); err != nil {
		return false
	}
	return exists
}

// SaveBlock to the db, keyed by its hash tree root, with a slot index entry
// so canonical iteration can resolve roots by slot.
func (s *Store) SaveBlock(_ context.Context, block *types.BeaconBlock) error {
	if block == nil {
		return errors.New("nil block")
	}
	blockRoot := block.HashTreeRoot()
	enc, err := encode(block)
	if err != nil {
		return err
	}
	dbWriteCount.Inc()
	dbWriteBytes.Add(float64(len(enc)))
	err = s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(blocksBucket)
		if err := bkt.Put(blockRoot[:], enc); err != nil {
			return err
		}
		idx := tx.Bucket(blockSlotIndicesBucket)
		return idx.Put(bytesutil.Bytes8(block.Slot), blockRoot[:])
	})
	if err != nil {
		return err
	}
	s.blockCache.Set(string(blockRoot[:]), block.Copy(), int64(block.SizeSSZ()))
	return nil
}

// DeleteBlock by root.
func (s *Store) DeleteBlock(_ context.Context, blockRoot [32]byte) error {
	s.blockCache.Del(string(blockRoot[:]))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).Delete(blockRoot[:])
	})
}

// BlockRootAtSlot returns the root of the block saved at the given slot, if
// one exists.
func (s *Store) BlockRootAtSlot(_ context.Context, slot uint64) ([32]byte, bool, error) {
	var root [32]byte
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		idx := tx.Bucket(blockSlotIndicesBucket)
		if v := idx.Get(bytesutil.Bytes8(slot)); v != nil {
			copy(root[:], v)
			found = true
		}
		return nil
	})
	return root, found, err
}
