package contract

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/w3canvas/internal/localstore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	addrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	addrC = "0xcccccccccccccccccccccccccccccccccccccccc"
)

// checksummed returns addr the way the registry stores it.
func checksummed(addr string) string { return common.HexToAddress(addr).Hex() }

func newTestRegistry(t *testing.T) (*Registry, *localstore.Store) {
	t.Helper()
	store := localstore.New(filepath.Join(t.TempDir(), "storage.json"))
	return NewRegistry(store), store
}

func ref(addr, name string) Reference {
	return Reference{
		Address: addr,
		Name:    name,
		Network: "local",
		ChainID: 31337,
		ABI:     json.RawMessage(counterABI),
	}
}

// addresses returns the stored addresses lowercased for comparison.
func addresses(refs []Reference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = strings.ToLower(r.Address)
	}
	return out
}

func TestRegistryEmpty(t *testing.T) {
	reg, _ := newTestRegistry(t)
	refs, err := reg.All()
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestRegistrySaveAppendsInOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.NoError(t, reg.Save(ref(addrA, "A")))
	require.NoError(t, reg.Save(ref(addrB, "B")))

	refs, err := reg.All()
	require.NoError(t, err)
	assert.Equal(t, []string{addrA, addrB}, addresses(refs))
}

func TestRegistrySaveSameAddressUpserts(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.NoError(t, reg.Save(ref(addrA, "A")))
	require.NoError(t, reg.Save(ref(addrB, "B")))
	require.NoError(t, reg.Save(ref(addrA, "A-v2")))

	refs, err := reg.All()
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, []string{addrA, addrB}, addresses(refs), "existing entry keeps its position")
	assert.Equal(t, "A-v2", refs[0].Name)
}

func TestRegistrySaveUpsertIgnoresCase(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.NoError(t, reg.Save(ref(checksummed(addrA), "A")))
	require.NoError(t, reg.Save(ref(addrA, "lower")))

	refs, err := reg.All()
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, checksummed(addrA), refs[0].Address, "address is stored checksummed")
	assert.Equal(t, "lower", refs[0].Name)
}

func TestRegistrySaveInvalidAddress(t *testing.T) {
	reg, _ := newTestRegistry(t)
	err := reg.Save(ref("0x123", "bad"))
	assert.ErrorIs(t, err, ErrContractConstruction)
}

func TestRegistryStoresUnderContractsKey(t *testing.T) {
	reg, store := newTestRegistry(t)
	require.NoError(t, reg.Save(ref(addrA, "A")))

	raw, err := store.Get(StorageKey)
	require.NoError(t, err)
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, checksummed(addrA), decoded[0]["address"])
}

func TestRegistryPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, NewRegistry(localstore.New(path)).Save(ref(addrA, "A")))

	got, err := NewRegistry(localstore.New(path)).Get(addrA)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
}

func TestRegistryGetNotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Get(addrA)
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestRegistryRemoveOnlyTargeted(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Save(ref(addrA, "A")))
	require.NoError(t, reg.Save(ref(addrB, "B")))
	require.NoError(t, reg.Save(ref(addrC, "C")))

	require.NoError(t, reg.Remove(addrB))

	refs, err := reg.All()
	require.NoError(t, err)
	assert.Equal(t, []string{addrA, addrC}, addresses(refs))
}

func TestRegistryRemoveNotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Save(ref(addrA, "A")))
	assert.ErrorIs(t, reg.Remove(addrB), ErrContractNotFound)
}

func TestRegistryInstance(t *testing.T) {
	reg, _ := newTestRegistry(t)
	require.NoError(t, reg.Save(ref(addrA, "Counter")))

	inst, err := reg.Instance(addrA)
	require.NoError(t, err)
	assert.Equal(t, checksummed(addrA), inst.Address.Hex())
	assert.Equal(t, "Counter", inst.Name())

	data, err := inst.Pack("increment")
	require.NoError(t, err)
	assert.Len(t, data, 4)
}

func TestRegistryInstanceBadABI(t *testing.T) {
	reg, store := newTestRegistry(t)
	// Written directly so the bad record skips Save's validation.
	require.NoError(t, store.Set(StorageKey, []Reference{{Address: addrA, Name: "Broken", ABI: json.RawMessage(`{"oops":1}`)}}))

	_, err := reg.Instance(addrA)
	assert.ErrorIs(t, err, ErrContractConstruction)
}

func TestNewInstanceErrors(t *testing.T) {
	_, err := NewInstance(Reference{Address: "nope", ABI: json.RawMessage(counterABI)})
	assert.ErrorIs(t, err, ErrContractConstruction)

	_, err = NewInstance(Reference{Address: addrA})
	assert.ErrorIs(t, err, ErrContractConstruction)
}
