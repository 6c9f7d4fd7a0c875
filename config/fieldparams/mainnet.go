//go:build !minimal

package field_params

const (
	Preset                 = "mainnet"
	RootLength             = 32            // RootLength defines the byte length of a Merkle root.
	PayloadHashLength      = 32            // PayloadHashLength defines the byte length of an execution payload block hash.
	VersionLength          = 4             // VersionLength defines the byte length of a fork version number.
	SlotsPerEpoch          = 32            // SlotsPerEpoch defines the number of slots per epoch.
	ValidatorRegistryLimit = 1099511627776 // VALIDATOR_REGISTRY_LIMIT
)
