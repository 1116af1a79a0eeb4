package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryHasLocal(t *testing.T) {
	c, err := NewRegistry().GetByName("local")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", c.RPC("testnet"))
	assert.Equal(t, "http://127.0.0.1:8545", c.RPC("mainnet"))
}

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	c, err := NewRegistry().GetByName("BASE")
	require.NoError(t, err)
	assert.Equal(t, int64(8453), c.ChainID)
}

func TestRegistryUnknown(t *testing.T) {
	_, err := NewRegistry().GetByName("nowhere")
	assert.ErrorIs(t, err, ErrChainNotFound)
}

func TestRPCByMode(t *testing.T) {
	c, err := NewRegistry().GetByName("ethereum")
	require.NoError(t, err)
	assert.Equal(t, "https://eth.llamarpc.com", c.RPC("mainnet"))
	assert.Equal(t, "https://ethereum-sepolia-rpc.publicnode.com", c.RPC("testnet"))
	assert.Equal(t, "https://sepolia.etherscan.io", c.Explorer("testnet"))
	assert.Len(t, c.RPCs("mainnet"), 2)
}

func TestAllNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range NewRegistry().All() {
		assert.False(t, seen[c.Name], "duplicate chain %s", c.Name)
		seen[c.Name] = true
		assert.NotEmpty(t, c.MainnetRPCs, c.Name)
	}
}
