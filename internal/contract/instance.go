package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Instance is a deployed contract: an address bound to its metadata.
type Instance struct {
	Address  common.Address
	Network  string
	ChainID  int64
	Metadata *Metadata
	Ref      Reference
}

// NewInstance binds ref's ABI to its address. Bad addresses or ABIs are
// reported as ErrContractConstruction.
func NewInstance(ref Reference) (*Instance, error) {
	if !common.IsHexAddress(ref.Address) {
		return nil, fmt.Errorf("%w: invalid address %q", ErrContractConstruction, ref.Address)
	}
	if len(ref.ABI) == 0 {
		return nil, fmt.Errorf("%w: %s has no ABI", ErrContractConstruction, ref.Address)
	}
	meta, err := ParseMetadata(ref.Name, ref.ABI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContractConstruction, err)
	}
	return &Instance{
		Address:  common.HexToAddress(ref.Address),
		Network:  ref.Network,
		ChainID:  ref.ChainID,
		Metadata: meta,
		Ref:      ref,
	}, nil
}

// Name returns the contract name.
func (i *Instance) Name() string { return i.Metadata.Name }

// Pack encodes a call to method on this contract.
func (i *Instance) Pack(method string, args ...interface{}) ([]byte, error) {
	return i.Metadata.ABI.Pack(method, args...)
}
