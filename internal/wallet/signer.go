package wallet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrKeyMismatch is returned when the key stored for a wallet signs as a
	// different address than the wallet records.
	ErrKeyMismatch = errors.New("stored key does not match wallet address")
	// ErrChainMismatch is returned when a typed transaction names another
	// chain than the one it is signed for.
	ErrChainMismatch = errors.New("transaction chain id mismatch")
)

// Signer signs deployments for one signing wallet.
type Signer struct {
	wallet *Wallet
	ks     KeystoreBackend
}

// NewSigner creates a signer for w.
func NewSigner(w *Wallet, ks KeystoreBackend) *Signer {
	return &Signer{wallet: w, ks: ks}
}

// Address returns the wallet's address.
func (s *Signer) Address() string {
	return s.wallet.Address
}

// Sign signs tx for chainID, normally the id the node reported, and returns
// the encoded transaction with the sender recovered from the signature.
func (s *Signer) Sign(tx *types.Transaction, chainID *big.Int) ([]byte, common.Address, error) {
	if !s.wallet.CanSign() {
		return nil, common.Address{}, fmt.Errorf("wallet %q is watch-only and cannot sign", s.wallet.Name)
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, common.Address{}, fmt.Errorf("invalid chain id %v", chainID)
	}
	if tx.Type() != types.LegacyTxType && tx.ChainId().Cmp(chainID) != 0 {
		return nil, common.Address{}, fmt.Errorf("%w: transaction for chain %s, signing for %s", ErrChainMismatch, tx.ChainId(), chainID)
	}

	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("retrieving key for %q: %w", s.wallet.Name, err)
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("parsing key for %q: %w", s.wallet.Name, err)
	}

	signer := types.LatestSignerForChainID(chainID)
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("signing transaction: %w", err)
	}
	from, err := types.Sender(signer, signed)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("recovering sender: %w", err)
	}
	if from != common.HexToAddress(s.wallet.Address) {
		return nil, common.Address{}, fmt.Errorf("%w: wallet %q is %s, key signs as %s", ErrKeyMismatch, s.wallet.Name, s.wallet.Address, from.Hex())
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("encoding signed transaction: %w", err)
	}
	return raw, from, nil
}
