// Package testing allows for spinning up a real bolt-db
// instance for unit tests throughout the beacon node.
package testing

import (
	"testing"

	"github.com/adaszko/lighthouse/beacon-chain/db"
	"github.com/adaszko/lighthouse/beacon-chain/db/kv"
)

// SetupDB instantiates and returns database backed by key value store.
func SetupDB(t testing.TB) db.Database {
	s, err := kv.NewKVStore(t.TempDir())
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("could not close database: %v", err)
		}
	})
	return s
}
