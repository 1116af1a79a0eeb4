package chain

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func revertData(t *testing.T, reason string) string {
	t.Helper()
	strTy, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: strTy}}.Pack(reason)
	require.NoError(t, err)
	return "0x08c379a0" + common.Bytes2Hex(packed)
}

func TestDecodeDispatchErrorNil(t *testing.T) {
	assert.Nil(t, DecodeDispatchError(nil, nil))
}

func TestDecodeDispatchErrorPlain(t *testing.T) {
	de := DecodeDispatchError(errors.New("connection refused"), nil)
	require.NotNil(t, de)
	assert.False(t, de.Module)
	assert.Equal(t, "connection refused", de.Error())
}

func TestDecodeDispatchErrorRevertReason(t *testing.T) {
	err := &RPCError{Code: 3, Message: "execution reverted", Data: []byte(`"` + revertData(t, "not owner") + `"`)}

	de := DecodeDispatchError(err, nil)
	require.NotNil(t, de)
	assert.False(t, de.Module)
	assert.Equal(t, "Error", de.Name)
	assert.Equal(t, "not owner", de.Reason)
	assert.Equal(t, "execution reverted: not owner", de.Error())
	assert.ErrorIs(t, de, err)
}

func TestDecodeDispatchErrorCustomError(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(`[
		{"type":"error","name":"Unauthorized","inputs":[{"name":"caller","type":"address"}]}
	]`))
	require.NoError(t, err)

	caller := common.HexToAddress("0x1111111111111111111111111111111111111111")
	abiErr := parsed.Errors["Unauthorized"]
	args, err := abiErr.Inputs.Pack(caller)
	require.NoError(t, err)
	data := append(append([]byte{}, abiErr.ID[:4]...), args...)

	rpcErr := &RPCError{Code: 3, Message: "execution reverted", Data: []byte(`"` + hexutil.Encode(data) + `"`)}

	de := DecodeDispatchError(rpcErr, &parsed)
	require.NotNil(t, de)
	assert.True(t, de.Module)
	assert.Equal(t, "Unauthorized", de.Name)
	require.Len(t, de.Args, 1)
	assert.Equal(t, caller, de.Args[0])
	assert.Contains(t, de.Error(), "Unauthorized(")
}

func TestDecodeDispatchErrorUnknownSelector(t *testing.T) {
	rpcErr := &RPCError{Code: 3, Message: "execution reverted", Data: []byte(`"0xdeadbeef"`)}

	de := DecodeDispatchError(rpcErr, nil)
	require.NotNil(t, de)
	assert.False(t, de.Module)
	assert.Equal(t, "RPC error 3: execution reverted", de.Error())
}

func TestDecodeDispatchErrorPassesThroughDecoded(t *testing.T) {
	orig := &DispatchError{Module: true, Name: "Paused"}
	assert.Same(t, orig, DecodeDispatchError(orig, nil))
}

func TestDispatchErrorReverted(t *testing.T) {
	withReason := DecodeDispatchError(&RPCError{Code: 3, Message: "execution reverted", Data: []byte(`"` + revertData(t, "paused") + `"`)}, nil)
	assert.True(t, withReason.Reverted())

	bare := DecodeDispatchError(&RPCError{Code: -32000, Message: "execution reverted"}, nil)
	assert.True(t, bare.Reverted(), "revert without data")

	assert.False(t, DecodeDispatchError(errors.New("connection refused"), nil).Reverted())
	assert.False(t, DecodeDispatchError(&RPCError{Code: -32601, Message: "method not found"}, nil).Reverted())
}
