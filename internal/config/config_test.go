package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.DefaultNetwork)
	assert.Equal(t, "testnet", cfg.NetworkMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, config.DefaultDeployGasLimit, cfg.DeployGasLimit)
	assert.Equal(t, config.DefaultConfirmTimeout, cfg.Timeout())
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	cfg.DefaultNetwork = "base"
	cfg.DefaultWallet = "deployer"
	cfg.SetRPC("base", "https://custom.base.rpc")

	require.NoError(t, cfg.Save())

	reloaded, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "base", reloaded.DefaultNetwork)
	assert.Equal(t, "deployer", reloaded.DefaultWallet)
	assert.Equal(t, "https://custom.base.rpc", reloaded.GetRPC("base"))
}

func TestConfigFileCreatedOnSave(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)
	require.NoError(t, cfg.Save())

	_, err := os.Stat(filepath.Join(dir, "config.json"))
	assert.NoError(t, err, "config.json should be created on save")
}

func TestLoadFromNonExistentDir(t *testing.T) {
	dir := t.TempDir() + "/subdir"
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir())
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := config.Load(dir)

	assert.Equal(t, filepath.Join(dir, "storage.json"), cfg.StoragePath())
	assert.Equal(t, filepath.Join(dir, "wallets.json"), cfg.WalletsPath())
	assert.Equal(t, filepath.Join(dir, "codes"), cfg.CodesDir())
	assert.Equal(t, filepath.Join(dir, "logs"), cfg.LogsDir())
}

func TestSetKnownKeys(t *testing.T) {
	cfg, _ := config.Load(t.TempDir())

	require.NoError(t, cfg.Set("network_mode", "mainnet"))
	require.NoError(t, cfg.Set("deploy_gas_limit", "5000000"))
	require.NoError(t, cfg.Set("confirm_timeout", "90s"))
	require.NoError(t, cfg.Set("log_level", "debug"))
	require.NoError(t, cfg.Set("rpc_algorithm", "failover"))

	assert.Equal(t, "mainnet", cfg.NetworkMode)
	assert.Equal(t, uint64(5_000_000), cfg.DeployGasLimit)
	assert.Equal(t, 90*time.Second, cfg.Timeout())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "failover", cfg.RPCAlgorithm)
}

func TestSetRejectsBadValues(t *testing.T) {
	cfg, _ := config.Load(t.TempDir())

	assert.Error(t, cfg.Set("network_mode", "devnet"))
	assert.Error(t, cfg.Set("deploy_gas_limit", "0"))
	assert.Error(t, cfg.Set("confirm_timeout", "soon"))
	assert.Error(t, cfg.Set("log_level", "trace"))
	assert.Error(t, cfg.Set("rpc_algorithm", "random"))
	assert.Error(t, cfg.Set("nope", "x"))
}

func TestTimeoutFallsBackOnGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"confirm_timeout":"later"}`), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfirmTimeout, cfg.Timeout())
}
