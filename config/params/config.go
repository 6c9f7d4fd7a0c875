// Package params defines important constants that are essential to the
// beacon chain fork choice services.
package params

import (
	types "github.com/sextantlabs/sextant/consensus-types/primitives"
)

// BeaconChainConfig contains constant configs for node to participate in beacon chain.
type BeaconChainConfig struct {
	// Constants (non-configurable)
	FarFutureEpoch types.Epoch `yaml:"FAR_FUTURE_EPOCH"` // FarFutureEpoch represents a epoch that can never be attained, defined as 2**64-1.
	FarFutureSlot  types.Slot  `yaml:"FAR_FUTURE_SLOT"`  // FarFutureSlot represents a slot that can never be attained.
	GenesisSlot    types.Slot  `yaml:"GENESIS_SLOT"`     // GenesisSlot represents the first canonical slot number of the beacon chain.
	GenesisEpoch   types.Epoch `yaml:"GENESIS_EPOCH"`    // GenesisEpoch represents the first canonical epoch number of the beacon chain.
	ZeroHash       [32]byte    // ZeroHash is used to represent a zeroed out 32 byte array.
	GweiPerEth     uint64      // GweiPerEth is the amount of gwei corresponding to 1 eth.

	// Misc constants.
	PresetBase string `yaml:"PRESET_BASE" spec:"true"` // PresetBase represents the underlying spec preset this config is based on.
	ConfigName string `yaml:"CONFIG_NAME" spec:"true"` // ConfigName for allowing an easy identification of the chain.

	// Time parameters constants.
	SecondsPerSlot       uint64     `yaml:"SECONDS_PER_SLOT" spec:"true"`   // SecondsPerSlot is how many seconds are in a single slot.
	SlotsPerEpoch        types.Slot `yaml:"SLOTS_PER_EPOCH" spec:"true"`    // SlotsPerEpoch is the number of slots in an epoch.
	SqrRootSlotsPerEpoch types.Slot // SqrRootSlotsPerEpoch is a hard coded value where we take the square root of `SlotsPerEpoch` and round down.
	IntervalsPerSlot     uint64     `yaml:"INTERVALS_PER_SLOT" spec:"true"` // IntervalsPerSlot defines the number of fork choice intervals in a slot defined in the fork choice spec.

	// Validator params.
	MinDepositAmount          uint64 `yaml:"MIN_DEPOSIT_AMOUNT" spec:"true"`          // MinDepositAmount is the minimum amount of Gwei a validator can send to the deposit contract at once (lower amounts will be reverted).
	MaxEffectiveBalance       uint64 `yaml:"MAX_EFFECTIVE_BALANCE" spec:"true"`       // MaxEffectiveBalance is the maximal amount of Gwei that is effective for staking.
	EjectionBalance           uint64 `yaml:"EJECTION_BALANCE" spec:"true"`            // EjectionBalance is the minimal GWei a validator needs to have before ejected.
	EffectiveBalanceIncrement uint64 `yaml:"EFFECTIVE_BALANCE_INCREMENT" spec:"true"` // EffectiveBalanceIncrement is used for converting the high balance into the low balance for validators.

	// Fork choice algorithm constants.
	ProposerScoreBoost              uint64      `yaml:"PROPOSER_SCORE_BOOST" spec:"true"`                // ProposerScoreBoost defines a value that is a % of the committee weight for fork-choice boosting.
	ReorgWeightThreshold            uint64      `yaml:"REORG_WEIGHT_THRESHOLD" spec:"true"`              // ReorgWeightThreshold is a percentage if a head block is weak it may be reorged.
	ReorgMaxEpochsSinceFinalization types.Epoch `yaml:"REORG_MAX_EPOCHS_SINCE_FINALIZATION" spec:"true"` // ReorgMaxEpochsSinceFinalization is the maximum number of epochs since finalization where head reorgs are allowed.
}
