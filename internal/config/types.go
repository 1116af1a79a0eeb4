package config

// Config holds all w3canvas configuration.
type Config struct {
	DefaultNetwork string            `json:"default_network"`
	DefaultWallet  string            `json:"default_wallet"`
	NetworkMode    string            `json:"network_mode"`  // "mainnet" | "testnet"
	CustomRPCs     map[string]string `json:"custom_rpcs"`   // network -> RPC URL override
	RPCAlgorithm   string            `json:"rpc_algorithm"` // "fastest" | "round-robin" | "failover"
	DeployGasLimit uint64            `json:"deploy_gas_limit"`
	ConfirmTimeout string            `json:"confirm_timeout"` // time.ParseDuration format
	LogLevel       string            `json:"log_level"`       // "debug" | "info" | "warn" | "error"

	// internal: config dir path used for Save()
	configDir string
}
