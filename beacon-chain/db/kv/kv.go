// Package kv defines a bolt-db, key-value store implementation
// of the Database interface defined by the beacon node.
package kv

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/adaszko/lighthouse/beacon-chain/db/iface"
	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var _ iface.Database = (*Store)(nil)

const (
	databaseFileName = "beaconchain.db"
	boltAllocSize    = 8 * 1024 * 1024
)

// BlockCacheSize specifies 1000 slots worth of blocks cached, which
// would be approximately 2MB.
var BlockCacheSize = int64(1 << 21)

// Store defines an implementation of the Database interface using BoltDB as
// the underlying persistent kv-store for the beacon node.
type Store struct {
	db           *bolt.DB
	databasePath string
	blockCache   *ristretto.Cache
}

// NewKVStore initializes a new boltDB key-value store at the directory
// path specified, creates the kv-buckets based on the schema, and stores
// an open connection db object as a property of the Store struct.
func NewKVStore(dirPath string) (*Store, error) {
	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return nil, err
	}
	datafile := path.Join(dirPath, databaseFileName)
	boltDB, err := bolt.Open(datafile, 0600, &bolt.Options{Timeout: 1 * time.Second, InitialMmapSize: 10e6})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errors.New("cannot obtain database lock, database may be in use by another process")
		}
		return nil, err
	}
	boltDB.AllocSize = boltAllocSize

	blockCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,           // number of keys to track frequency of (1000).
		MaxCost:     BlockCacheSize, // maximum cost of cache (1000 blocks).
		BufferItems: 64,             // number of keys per Get buffer.
	})
	if err != nil {
		return nil, err
	}

	kv := &Store{
		db:           boltDB,
		databasePath: dirPath,
		blockCache:   blockCache,
	}

	if err := kv.db.Update(func(tx *bolt.Tx) error {
		return createBuckets(
			tx,
			blocksBucket,
			stateBucket,
			stateSummaryBucket,
			chainMetadataBucket,
			blockSlotIndicesBucket,
		)
	}); err != nil {
		return nil, err
	}

	return kv, nil
}

// ClearDB removes the previously stored database in the data directory.
func (s *Store) ClearDB() error {
	if _, err := os.Stat(s.databasePath); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(path.Join(s.databasePath, databaseFileName)); err != nil {
		return errors.Wrap(err, "could not remove database file")
	}
	return nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DatabasePath at which this database writes files.
func (s *Store) DatabasePath() string {
	return s.databasePath
}

func createBuckets(tx *bolt.Tx, buckets ...[]byte) error {
	for _, bucket := range buckets {
		if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
			return err
		}
	}
	return nil
}

// GetBytes retrieves the value in the given column at the given key.
// A missing key yields a nil value and no error.
func (s *Store) GetBytes(_ context.Context, col string, key []byte) ([]byte, error) {
	dbReadCount.Inc()
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(col))
		if bkt == nil {
			return nil
		}
		if v := bkt.Get(key); v != nil {
			value = make([]byte, len(v))
			copy(value, v)
			dbReadBytes.Add(float64(len(v)))
		}
		return nil
	})
	return value, err
}

// PutBytes stores the value in the given column at the given key, creating
// the column on first use.
func (s *Store) PutBytes(_ context.Context, col string, key []byte, value []byte) error {
	dbWriteCount.Inc()
	dbWriteBytes.Add(float64(len(value)))
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(col))
		if err != nil {
			return err
		}
		return bkt.Put(key, value)
	})
}

// KeyExists returns true if the key exists in the column.
func (s *Store) KeyExists(_ context.Context, col string, key []byte) (bool, error) {
	exists := false
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(col))
		if bkt == nil {
			return nil
		}
		exists = bkt.Get(key) != nil
		return nil
	})
	return exists, err
}

// KeyDelete removes the key from the column, if it exists.
func (s *Store) KeyDelete(_ context.Context, col string, key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(col))
		if bkt == nil {
			return nil
		}
		return bkt.Delete(key)
	})
}
