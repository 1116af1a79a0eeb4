package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/Mohsinsiddi/w3canvas/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
)

var (
	// ErrEmptyResult is returned when a read call comes back without data,
	// usually because nothing is deployed at the address on this network.
	ErrEmptyResult = errors.New("empty call result")
	// ErrNoSender is returned when a state-changing method is dry-run
	// without a sender.
	ErrNoSender = errors.New("dry-run needs a sender")
)

// CallRequest is one method invocation with arguments in their text form.
type CallRequest struct {
	Method string
	Args   []string
	// From is the sender. Optional for view and pure methods.
	From string
	// Value is the wei attached. Only payable methods accept it.
	Value *big.Int
}

// CallResult holds the formatted outputs of a call.
type CallResult struct {
	Outputs []string
	// DryRun is set when the method changes state: the node simulated it
	// and nothing was sent.
	DryRun bool
}

// Caller runs methods of created contracts with eth_call. View and pure
// methods are plain reads; other methods are dry-run as the sender.
type Caller struct {
	client *chain.EVMClient
}

// NewCaller creates a Caller.
func NewCaller(client *chain.EVMClient) *Caller {
	return &Caller{client: client}
}

// Call invokes req.Method on inst and returns the outputs formatted for
// display. Reverts are decoded against the contract ABI.
func (c *Caller) Call(ctx context.Context, inst *Instance, req CallRequest) (*CallResult, error) {
	m, ok := inst.Metadata.ABI.Methods[req.Method]
	if !ok {
		return nil, fmt.Errorf("method %q not found in %s ABI", req.Method, inst.Name())
	}
	if len(req.Args) != len(m.Inputs) {
		return nil, fmt.Errorf("method %q takes %d arguments, got %d", req.Method, len(m.Inputs), len(req.Args))
	}
	if req.Value != nil && req.Value.Sign() > 0 && !m.IsPayable() {
		return nil, fmt.Errorf("method %q is not payable (stateMutability: %s)", req.Method, m.StateMutability)
	}
	dryRun := !m.IsConstant()
	if dryRun && req.From == "" {
		return nil, fmt.Errorf("%s: %w", req.Method, ErrNoSender)
	}
	if req.From != "" && !common.IsHexAddress(req.From) {
		return nil, fmt.Errorf("invalid sender address %q", req.From)
	}

	values := make([]interface{}, len(req.Args))
	for i, in := range m.Inputs {
		v, err := ParseArgValue(in.Type, req.Args[i])
		if err != nil {
			return nil, fmt.Errorf("argument %s (%s): %w", ArgKey(i, in), in.Type, err)
		}
		values[i] = v
	}
	data, err := inst.Pack(req.Method, values...)
	if err != nil {
		return nil, fmt.Errorf("encoding call: %w", err)
	}

	out, err := c.client.CallContractFrom(ctx, req.From, inst.Address.Hex(), req.Value, data)
	if err != nil {
		return nil, chain.DecodeDispatchError(err, &inst.Metadata.ABI)
	}
	if len(out) == 0 && len(m.Outputs) > 0 {
		return nil, fmt.Errorf("%s at %s: %w", req.Method, inst.Address.Hex(), ErrEmptyResult)
	}

	decoded, err := m.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &CallResult{
		Outputs: lo.Map(decoded, func(v interface{}, _ int) string { return formatValue(v) }),
		DryRun:  dryRun,
	}, nil
}

// formatValue renders a decoded ABI value.
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case *big.Int:
		return x.String()
	case []byte:
		return hexutil.Encode(x)
	case string:
		return x
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return hexutil.Encode(b)
	}
	return fmt.Sprint(v)
}
