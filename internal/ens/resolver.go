// Package ens resolves ENS names so wallets can be added by name.
package ens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Network is the chain whose registry is queried; the registry lives at the
// same address on Ethereum mainnet and Sepolia.
const Network = "ethereum"

var registryAddr = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var (
	selResolver = selector("resolver(bytes32)")
	selAddr     = selector("addr(bytes32)")
)

// ErrNotFound is returned when a name has no resolver or no address record.
var ErrNotFound = errors.New("ens name not found")

// Caller runs read-only calls; chain.EVMClient satisfies it.
type Caller interface {
	CallContract(ctx context.Context, to string, data []byte) ([]byte, error)
}

// Resolver looks names up through the ENS registry.
type Resolver struct {
	client Caller
}

// NewResolver creates a Resolver over client.
func NewResolver(client Caller) *Resolver {
	return &Resolver{client: client}
}

// IsName reports whether s looks like an ENS name rather than an address.
func IsName(s string) bool {
	return strings.Contains(s, ".") && !common.IsHexAddress(s)
}

// Resolve returns the address record of name: the registry gives the
// resolver, the resolver gives addr(node).
func (r *Resolver) Resolve(ctx context.Context, name string) (common.Address, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	node := Namehash(name)

	resolver, err := r.word(ctx, registryAddr, selResolver, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS registry: %w", err)
	}
	if resolver == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: no resolver for %q", ErrNotFound, name)
	}

	addr, err := r.word(ctx, resolver, selAddr, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("querying ENS resolver: %w", err)
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: no address record for %q", ErrNotFound, name)
	}
	return addr, nil
}

// word calls sel(node) on to and reads the result as an address.
func (r *Resolver) word(ctx context.Context, to common.Address, sel []byte, node common.Hash) (common.Address, error) {
	out, err := r.client.CallContract(ctx, to.Hex(), append(append([]byte{}, sel...), node.Bytes()...))
	if err != nil {
		return common.Address{}, err
	}
	if len(out) < 32 {
		return common.Address{}, nil
	}
	return common.BytesToAddress(out[12:32]), nil
}

// Namehash implements the EIP-137 namehash: labels are hashed right to left
// into a zero-initialised node.
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		node = common.BytesToHash(keccak256(node.Bytes(), keccak256([]byte(labels[i]))))
	}
	return node
}

func selector(sig string) []byte {
	return keccak256([]byte(sig))[:4]
}

func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
