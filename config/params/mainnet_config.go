package params

// mainnetBeaconConfig is the configuration used on the main network.
var mainnetBeaconConfig = &BeaconChainConfig{
	// Constants (non-configurable)
	FarFutureEpoch: 1<<64 - 1,
	FarFutureSlot:  1<<64 - 1,
	GenesisSlot:    0,
	GenesisEpoch:   0,
	ZeroHash:       [32]byte{},
	GweiPerEth:     1000000000,

	// Misc constants.
	PresetBase: "mainnet",
	ConfigName: ConfigNames[Mainnet],

	// Time parameter constants.
	SecondsPerSlot:       12,
	SlotsPerEpoch:        32,
	SqrRootSlotsPerEpoch: 5,
	IntervalsPerSlot:     3,

	// Validator params.
	MinDepositAmount:          1 * 1e9,
	MaxEffectiveBalance:       32 * 1e9,
	EjectionBalance:           16 * 1e9,
	EffectiveBalanceIncrement: 1 * 1e9,

	// Fork choice algorithm constants.
	ProposerScoreBoost:              40,
	ReorgWeightThreshold:            20,
	ReorgMaxEpochsSinceFinalization: 2,
}

// MainnetConfig returns the configuration to be used in the main network.
func MainnetConfig() *BeaconChainConfig {
	return mainnetBeaconConfig
}

// UseMainnetConfig for beacon chain services.
func UseMainnetConfig() {
	OverrideBeaconConfig(MainnetConfig())
}
