package params

const (
	Mainnet ConfigName = iota
	Minimal
)

// ConfigNames provides network configuration names.
var ConfigNames = map[ConfigName]string{
	Mainnet: "mainnet",
	Minimal: "minimal",
}

// ConfigName enum describes the type of known network in use.
type ConfigName int

func (n ConfigName) String() string {
	s, ok := ConfigNames[n]
	if !ok {
		return "undefined"
	}
	return s
}

// AllConfigs returns a fresh copy of every known chain configuration, keyed by name.
func AllConfigs() map[ConfigName]*BeaconChainConfig {
	all := make(map[ConfigName]*BeaconChainConfig)
	for name := range ConfigNames {
		var cfg *BeaconChainConfig
		switch name {
		case Mainnet:
			cfg = MainnetConfig()
		case Minimal:
			cfg = MinimalSpecConfig()
		}
		all[name] = cfg.Copy()
	}
	return all
}
