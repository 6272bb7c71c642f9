package kv

// The schema will define how to store and retrieve data from the db. Each
// column of the store maps onto its own BoltDB bucket, so values of one kind
// can be scanned without touching the others.
var (
	blocksBucket           = []byte("blocks")
	stateBucket            = []byte("state")
	stateSummaryBucket     = []byte("state-summary")
	chainMetadataBucket    = []byte("chain-metadata")
	blockSlotIndicesBucket = []byte("block-slot-indices")
)

// Column names accepted by the raw byte accessors.
const (
	BlocksColumn        = "blocks"
	StateColumn         = "state"
	StateSummaryColumn  = "state-summary"
	ChainMetadataColumn = "chain-metadata"
)
