package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ErrNoBytecode is returned when instantiating code that has no init bytecode.
var ErrNoBytecode = errors.New("code has no bytecode to instantiate")

// Instantiation defaults.
const (
	DefaultGasLimit       = uint64(3_000_000)
	DefaultConfirmTimeout = 5 * time.Minute
	gasBufferPercent      = 120
)

var oneGwei = big.NewInt(1_000_000_000)

// TxSigner signs transactions for one account. Sign returns the encoded
// transaction and the sender recovered from its signature.
type TxSigner interface {
	Address() string
	Sign(tx *types.Transaction, chainID *big.Int) ([]byte, common.Address, error)
}

// Request is everything needed to instantiate a contract.
type Request struct {
	CodeHash        string
	Bytecode        []byte
	Metadata        *Metadata
	ConstructorName string
	ArgValues       map[string]string
	Value           *big.Int
}

// Result is the outcome of a finalized instantiation.
type Result struct {
	TxHash  string
	ChainID *big.Int
	From    string
	Receipt *chain.TxReceipt
	Events  []chain.Event
}

// Instantiator builds, signs and submits contract deployments and waits for
// them to be mined.
type Instantiator struct {
	client   *chain.EVMClient
	signer   TxSigner
	gasLimit uint64
	timeout  time.Duration
	log      *zap.Logger
}

// InstantiatorOption configures an Instantiator.
type InstantiatorOption func(*Instantiator)

// WithGasLimit sets the gas limit used when the node cannot estimate.
func WithGasLimit(limit uint64) InstantiatorOption {
	return func(in *Instantiator) {
		if limit > 0 {
			in.gasLimit = limit
		}
	}
}

// WithConfirmTimeout bounds the wait for the deployment receipt.
func WithConfirmTimeout(d time.Duration) InstantiatorOption {
	return func(in *Instantiator) {
		if d > 0 {
			in.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) InstantiatorOption {
	return func(in *Instantiator) {
		if log != nil {
			in.log = log
		}
	}
}

// NewInstantiator creates an Instantiator that deploys through client and
// signs with signer.
func NewInstantiator(client *chain.EVMClient, signer TxSigner, opts ...InstantiatorOption) *Instantiator {
	in := &Instantiator{
		client:   client,
		signer:   signer,
		gasLimit: DefaultGasLimit,
		timeout:  DefaultConfirmTimeout,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// From returns the deploying account.
func (in *Instantiator) From() string { return in.signer.Address() }

// Instantiate deploys req and waits for the receipt. When the transaction is
// mined but reverted, the Result carries the events and the error is a
// *chain.DispatchError wrapping chain.ErrTxReverted.
func (in *Instantiator) Instantiate(ctx context.Context, req Request) (*Result, error) {
	if len(req.Bytecode) == 0 {
		return nil, ErrNoBytecode
	}
	args, err := EncodeConstructorArgs(req.Metadata, req.ConstructorName, req.ArgValues)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(req.Bytecode)+len(args))
	data = append(data, req.Bytecode...)
	data = append(data, args...)

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	from := in.signer.Address()
	log := in.log.With(zap.String("from", from), zap.String("code_hash", req.CodeHash))

	chainID, err := in.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting chain id: %w", err)
	}
	gasPrice, err := in.client.GasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}
	nonce, err := in.client.GetPendingNonce(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	gas, err := in.client.EstimateDeployGas(ctx, from, data, value)
	switch {
	case err != nil && revertData(err):
		return nil, chain.DecodeDispatchError(err, &req.Metadata.ABI)
	case err != nil:
		log.Warn("gas estimation failed, using configured limit", zap.Error(err), zap.Uint64("gas", in.gasLimit))
		gas = in.gasLimit
	default:
		gas = gas * gasBufferPercent / 100
	}

	tip, feeCap := dynamicFees(gasPrice)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        nil,
		Value:     value,
		Data:      data,
	})

	raw, sender, err := in.signer.Sign(tx, chainID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(sender.Hex(), from) {
		return nil, fmt.Errorf("signer for %s signed as %s", from, sender.Hex())
	}
	from = sender.Hex()

	hash, err := in.client.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, chain.DecodeDispatchError(err, &req.Metadata.ABI)
	}
	log.Info("deployment submitted",
		zap.String("tx", hash),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
		zap.String("chain_id", chainID.String()),
	)

	receipt, err := in.client.WaitForReceipt(ctx, hash, in.timeout)
	res := &Result{TxHash: hash, ChainID: chainID, From: from, Receipt: receipt}
	if receipt != nil {
		res.Events = chain.EventsFromReceipt(receipt)
	}
	if err != nil {
		log.Warn("deployment not finalized", zap.String("tx", hash), zap.Error(err))
		if receipt == nil {
			return nil, err
		}
		return res, chain.DecodeDispatchError(err, &req.Metadata.ABI)
	}

	log.Info("deployment finalized",
		zap.String("tx", hash),
		zap.Uint64("block", receipt.BlockNumber),
		zap.Uint64("gas_used", receipt.GasUsed),
		zap.String("contract", receipt.ContractAddress),
	)
	return res, nil
}

func revertData(err error) bool {
	var rpcErr *chain.RPCError
	return errors.As(err, &rpcErr) && rpcErr.DataHex() != ""
}

// dynamicFees picks a tip of at most 1 gwei and a fee cap with room for one
// doubling of the base fee.
func dynamicFees(gasPrice *big.Int) (tip, feeCap *big.Int) {
	tip = new(big.Int).Set(oneGwei)
	if gasPrice.Cmp(tip) < 0 {
		tip.Set(gasPrice)
	}
	feeCap = new(big.Int).Mul(gasPrice, big.NewInt(2))
	feeCap.Add(feeCap, tip)
	return tip, feeCap
}
