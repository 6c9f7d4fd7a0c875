package params

// MinimalSpecConfig retrieves minimal config used in spec tests.
func MinimalSpecConfig() *BeaconChainConfig {
	minimalConfig := mainnetBeaconConfig.Copy()

	// Misc
	minimalConfig.PresetBase = "minimal"
	minimalConfig.ConfigName = ConfigNames[Minimal]

	// Time parameters
	minimalConfig.SecondsPerSlot = 6
	minimalConfig.SlotsPerEpoch = 8
	minimalConfig.SqrRootSlotsPerEpoch = 2

	// Validator params
	minimalConfig.MinDepositAmount = 1e9
	minimalConfig.MaxEffectiveBalance = 32e9
	minimalConfig.EjectionBalance = 16e9
	minimalConfig.EffectiveBalanceIncrement = 1e9

	// Fork choice
	minimalConfig.ProposerScoreBoost = 40
	minimalConfig.ReorgWeightThreshold = 20
	minimalConfig.ReorgMaxEpochsSinceFinalization = 2

	return minimalConfig
}

// UseMinimalConfig for beacon chain services.
func UseMinimalConfig() {
	OverrideBeaconConfig(MinimalSpecConfig())
}
