// Package params defines important constants that are essential to the
// beacon chain.
package params

// BeaconChainConfig contains constants for configuring the beacon chain.
type BeaconChainConfig struct {
	// Constants (non-configurable).
	FarFutureEpoch uint64 `yaml:"FAR_FUTURE_EPOCH"` // FarFutureEpoch represents a epoch extremely far away in the future used as the default penalization slot for validators.
	ZeroHash       [32]byte

	// Time parameters.
	SecondsPerSlot            uint64 `yaml:"SECONDS_PER_SLOT"`              // SecondsPerSlot is how many seconds are in a single slot.
	SlotsPerEpoch             uint64 `yaml:"SLOTS_PER_EPOCH"`               // SlotsPerEpoch is the number of slots in an epoch.
	MinSeedLookahead          uint64 `yaml:"MIN_SEED_LOOKAHEAD"`            // MinSeedLookahead is the duration of randao look ahead seed.
	SlotsPerHistoricalRoot    uint64 `yaml:"SLOTS_PER_HISTORICAL_ROOT"`     // SlotsPerHistoricalRoot defines how often the historical root is saved.
	EpochsPerHistoricalVector uint64 `yaml:"EPOCHS_PER_HISTORICAL_VECTOR"`  // EpochsPerHistoricalVector defines how long to keep randao mixes.

	// Misc.
	ShuffleRoundCount         uint64 `yaml:"SHUFFLE_ROUND_COUNT"`          // ShuffleRoundCount is used for retrieving the permuted index.
	TargetCommitteeSize       uint64 `yaml:"TARGET_COMMITTEE_SIZE"`        // TargetCommitteeSize is the number of validators in a committee when the chain is healthy.
	MaxCommitteesPerSlot      uint64 `yaml:"MAX_COMMITTEES_PER_SLOT"`      // MaxCommitteesPerSlot defines the max amount of committee in a single slot.
	MaxValidatorsPerCommittee uint64 `yaml:"MAX_VALIDATORS_PER_COMMITTEE"` // MaxValidatorsPerCommittee defines the upper bound of the size of a committee.

	// Gwei values.
	EffectiveBalanceIncrement uint64 `yaml:"EFFECTIVE_BALANCE_INCREMENT"` // EffectiveBalanceIncrement is used for converting the high balance into the low balance for validators.
	MaxEffectiveBalance       uint64 `yaml:"MAX_EFFECTIVE_BALANCE"`       // MaxEffectiveBalance is the maximal amount of Gwei that is effective for staking.

	// Fork and domain values.
	GenesisForkVersion   []byte  `yaml:"GENESIS_FORK_VERSION"` // GenesisForkVersion is used to track fork version between state transitions.
	DomainBeaconProposer [4]byte `yaml:"DOMAIN_BEACON_PROPOSER"`
	DomainBeaconAttester [4]byte `yaml:"DOMAIN_BEACON_ATTESTER"`
	DomainRandao         [4]byte `yaml:"DOMAIN_RANDAO"`

	// Networking.
	MaxRequestBlocks uint64 `yaml:"MAX_REQUEST_BLOCKS"` // MaxRequestBlocks is the maximum number of blocks in a single request.
}

var mainnetBeaconConfig = &BeaconChainConfig{
	// Constants (non-configurable).
	FarFutureEpoch: 1<<64 - 1,
	ZeroHash:       [32]byte{},

	// Time parameters.
	SecondsPerSlot:            12,
	SlotsPerEpoch:             32,
	MinSeedLookahead:          1,
	SlotsPerHistoricalRoot:    8192,
	EpochsPerHistoricalVector: 65536,

	// Misc.
	ShuffleRoundCount:         90,
	TargetCommitteeSize:       128,
	MaxCommitteesPerSlot:      64,
	MaxValidatorsPerCommittee: 2048,

	// Gwei values.
	EffectiveBalanceIncrement: 1 * 1e9,
	MaxEffectiveBalance:       32 * 1e9,

	// Fork and domain values.
	GenesisForkVersion:   []byte{0, 0, 0, 0},
	DomainBeaconProposer: [4]byte{0, 0, 0, 0},
	DomainBeaconAttester: [4]byte{1, 0, 0, 0},
	DomainRandao:         [4]byte{2, 0, 0, 0},

	// Networking.
	MaxRequestBlocks: 1024,
}

var beaconConfig = mainnetBeaconConfig

// BeaconConfig retrieves beacon chain config.
func BeaconConfig() *BeaconChainConfig {
	return beaconConfig
}

// MainnetConfig returns the default config to
// be used in the mainnet.
func MainnetConfig() *BeaconChainConfig {
	return mainnetBeaconConfig
}

// MinimalSpecConfig retrieves the minimal config used in spec tests.
func MinimalSpecConfig() *BeaconChainConfig {
	minimalConfig := *mainnetBeaconConfig
	minimalConfig.SlotsPerEpoch = 8
	minimalConfig.SlotsPerHistoricalRoot = 64
	minimalConfig.EpochsPerHistoricalVector = 64
	minimalConfig.ShuffleRoundCount = 10
	minimalConfig.TargetCommitteeSize = 4
	minimalConfig.MaxCommitteesPerSlot = 4
	return &minimalConfig
}

// OverrideBeaconConfig by replacing the config. The preferred pattern is to
// call BeaconConfig(), change the specific parameters, and then call
// OverrideBeaconConfig(c). Any subsequent calls to params.BeaconConfig() will
// return this new configuration.
func OverrideBeaconConfig(c *BeaconChainConfig) {
	beaconConfig = c
}

// UseMinimalConfig for beacon chain services.
func UseMinimalConfig() {
	beaconConfig = MinimalSpecConfig()
}

// UseMainnetConfig for beacon chain services.
func UseMainnetConfig() {
	beaconConfig = MainnetConfig()
}
