// Package db defines the ability to create a new database
// for an eth2 beacon node.
package db

import "github.com/adaszko/lighthouse/beacon-chain/db/iface"

// ReadOnlyDatabase exposes the read-only methods of the database.
type ReadOnlyDatabase = iface.ReadOnlyDatabase

// NoHeadAccessDatabase exposes the database without chain head related methods.
type NoHeadAccessDatabase = iface.NoHeadAccessDatabase

// Database defines the full database interface of the beacon node.
type Database = iface.Database
