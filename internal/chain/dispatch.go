package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DispatchError is a failed submission decoded as far as the node and the
// contract ABI allow.
type DispatchError struct {
	Module bool   // true when decoded through the contract's own error registry
	Name   string // custom error name, "Error" or "Panic" for builtin reverts
	Args   []interface{}
	Reason string // human-readable reason for builtin reverts
	Err    error  // the underlying transport or RPC error
}

func (e *DispatchError) Error() string {
	if e.Module {
		parts := make([]string, len(e.Args))
		for i, a := range e.Args {
			parts[i] = fmt.Sprint(a)
		}
		return fmt.Sprintf("%s(%s)", e.Name, strings.Join(parts, ", "))
	}
	if e.Reason != "" {
		return "execution reverted: " + e.Reason
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "dispatch failed"
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Reverted reports whether the node executed the call and it reverted, as
// opposed to the request failing on the way.
func (e *DispatchError) Reverted() bool {
	if e.Name != "" {
		return true
	}
	var rpcErr *RPCError
	return errors.As(e.Err, &rpcErr) && strings.Contains(strings.ToLower(rpcErr.Message), "revert")
}

// DecodeDispatchError turns a submission error into a DispatchError. Revert
// data is decoded as Error(string)/Panic(uint256) first, then against the
// errors declared in contractABI (which may be nil). Errors without revert
// data are stringified.
func DecodeDispatchError(err error, contractABI *abi.ABI) *DispatchError {
	if err == nil {
		return nil
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return de
	}

	out := &DispatchError{Err: err}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		return out
	}
	dataHex := rpcErr.DataHex()
	if dataHex == "" {
		return out
	}
	data := common.FromHex(dataHex)
	if len(data) < 4 {
		return out
	}

	if reason, uerr := abi.UnpackRevert(data); uerr == nil {
		out.Name = "Error"
		if common.Bytes2Hex(data[:4]) == "4e487b71" {
			out.Name = "Panic"
		}
		out.Reason = reason
		return out
	}

	if contractABI == nil {
		return out
	}
	var sel [4]byte
	copy(sel[:], data[:4])
	abiErr, lerr := contractABI.ErrorByID(sel)
	if lerr != nil {
		return out
	}
	out.Module = true
	out.Name = abiErr.Name
	if vals, uerr := abiErr.Inputs.Unpack(data[4:]); uerr == nil {
		out.Args = vals
	}
	return out
}
