package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3canvas/internal/localstore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// StorageKey is the local storage key the contract list lives under.
const StorageKey = "contracts"

var (
	// ErrContractNotFound is returned when no stored contract has the address.
	ErrContractNotFound = errors.New("contract not found")
	// ErrContractConstruction is returned when a stored reference cannot be
	// turned into a contract instance.
	ErrContractConstruction = errors.New("cannot construct contract")
)

// Reference is the persisted record of a contract this tool created.
type Reference struct {
	Address    string          `json:"address"`
	Name       string          `json:"name"`
	Network    string          `json:"network"`
	ChainID    int64           `json:"chain_id"`
	CodeHash   string          `json:"code_hash,omitempty"`
	ABI        json.RawMessage `json:"abi"`
	Deployer   string          `json:"deployer,omitempty"`
	TxHash     string          `json:"tx_hash,omitempty"`
	DeployedAt string          `json:"deployed_at,omitempty"`
}

// Registry is the list of known contracts, stored as one JSON array under
// StorageKey. Entries are keyed by address: saving an address that is already
// present replaces it in place, new addresses are appended.
type Registry struct {
	store *localstore.Store
}

// NewRegistry creates a Registry over store.
func NewRegistry(store *localstore.Store) *Registry {
	return &Registry{store: store}
}

// All returns every stored reference in insertion order.
func (r *Registry) All() ([]Reference, error) {
	var refs []Reference
	if _, err := r.store.GetInto(StorageKey, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// Save upserts ref by address.
func (r *Registry) Save(ref Reference) error {
	if !common.IsHexAddress(ref.Address) {
		return fmt.Errorf("%w: invalid address %q", ErrContractConstruction, ref.Address)
	}
	ref.Address = common.HexToAddress(ref.Address).Hex()

	refs, err := r.All()
	if err != nil {
		return err
	}
	_, idx, found := lo.FindIndexOf(refs, func(e Reference) bool { return sameAddress(e.Address, ref.Address) })
	if found {
		refs[idx] = ref
	} else {
		refs = append(refs, ref)
	}
	return r.store.Set(StorageKey, refs)
}

// Get returns the reference stored for address.
func (r *Registry) Get(address string) (*Reference, error) {
	refs, err := r.All()
	if err != nil {
		return nil, err
	}
	ref, ok := lo.Find(refs, func(e Reference) bool { return sameAddress(e.Address, address) })
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContractNotFound, address)
	}
	return &ref, nil
}

// Remove deletes the reference for address.
func (r *Registry) Remove(address string) error {
	refs, err := r.All()
	if err != nil {
		return err
	}
	kept := lo.Reject(refs, func(e Reference, _ int) bool { return sameAddress(e.Address, address) })
	if len(kept) == len(refs) {
		return fmt.Errorf("%w: %s", ErrContractNotFound, address)
	}
	return r.store.Set(StorageKey, kept)
}

// Instance builds the contract object for a stored address.
func (r *Registry) Instance(address string) (*Instance, error) {
	ref, err := r.Get(address)
	if err != nil {
		return nil, err
	}
	return NewInstance(*ref)
}

func sameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
