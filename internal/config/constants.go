package config

import "time"

// DefaultDeployGasLimit is used when the node cannot estimate a deployment.
const DefaultDeployGasLimit = uint64(3_000_000)

// Timeouts.
const (
	DefaultConfirmTimeout = 5 * time.Minute // deployment confirmation wait
	RPCRequestTimeout     = 15 * time.Second
)

// File and directory names inside the config dir.
const (
	configFile  = "config.json"
	walletsFile = "wallets.json"
	storageFile = "storage.json"
	codesDir    = "codes"
	logsDir     = "logs"
)
