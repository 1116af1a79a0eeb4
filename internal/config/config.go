package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	defaultNetwork  = "local"
	defaultMode     = "testnet"
	defaultLogLevel = "info"
	defaultRPCAlgo  = "fastest"
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.w3canvas.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3canvas")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string]string)
	}
	if cfg.DeployGasLimit == 0 {
		cfg.DeployGasLimit = DefaultDeployGasLimit
	}

	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Set updates a single setting by its JSON key. Used by `config set`.
func (c *Config) Set(key, value string) error {
	switch key {
	case "default_network":
		c.DefaultNetwork = value
	case "default_wallet":
		c.DefaultWallet = value
	case "network_mode":
		if value != "mainnet" && value != "testnet" {
			return fmt.Errorf("network_mode must be mainnet or testnet, got %q", value)
		}
		c.NetworkMode = value
	case "rpc_algorithm":
		switch value {
		case "fastest", "round-robin", "failover":
			c.RPCAlgorithm = value
		default:
			return fmt.Errorf("rpc_algorithm must be one of fastest, round-robin, failover, got %q", value)
		}
	case "deploy_gas_limit":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("deploy_gas_limit must be a positive integer, got %q", value)
		}
		c.DeployGasLimit = n
	case "confirm_timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("confirm_timeout: %w", err)
		}
		c.ConfirmTimeout = value
	case "log_level":
		switch value {
		case "debug", "info", "warn", "error":
			c.LogLevel = value
		default:
			return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", value)
		}
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// SetRPC overrides the RPC URL used for a network.
func (c *Config) SetRPC(network, url string) {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string]string)
	}
	c.CustomRPCs[network] = url
}

// GetRPC returns the custom RPC for a network, or "".
func (c *Config) GetRPC(network string) string {
	return c.CustomRPCs[network]
}

// Timeout returns the parsed confirmation timeout, falling back to the default
// when unset or invalid.
func (c *Config) Timeout() time.Duration {
	if c.ConfirmTimeout == "" {
		return DefaultConfirmTimeout
	}
	d, err := time.ParseDuration(c.ConfirmTimeout)
	if err != nil || d <= 0 {
		return DefaultConfirmTimeout
	}
	return d
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the JSON file holding wallet metadata.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// StoragePath is the local key/value storage file (contracts live under "contracts").
func (c *Config) StoragePath() string { return filepath.Join(c.configDir, storageFile) }

// CodesDir is the directory of uploaded code artifacts.
func (c *Config) CodesDir() string { return filepath.Join(c.configDir, codesDir) }

// LogsDir is the directory of rotated log files.
func (c *Config) LogsDir() string { return filepath.Join(c.configDir, logsDir) }

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		DefaultNetwork: defaultNetwork,
		NetworkMode:    defaultMode,
		CustomRPCs:     make(map[string]string),
		RPCAlgorithm:   defaultRPCAlgo,
		DeployGasLimit: DefaultDeployGasLimit,
		LogLevel:       defaultLogLevel,
		configDir:      dir,
	}
}
