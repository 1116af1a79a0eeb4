package contract

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// ArgKey is the key an argument's value is stored under. Unnamed parameters
// are keyed by position.
func ArgKey(i int, arg abi.Argument) string {
	if arg.Name != "" {
		return arg.Name
	}
	return fmt.Sprintf("arg%d", i)
}

// EmptyArgValues returns a blank input for every parameter.
func EmptyArgValues(params abi.Arguments) map[string]string {
	out := make(map[string]string, len(params))
	for i, p := range params {
		out[ArgKey(i, p)] = ""
	}
	return out
}

// EncodeConstructorArgs converts the string inputs for constructorName into
// ABI values and packs them. The result is appended to the init bytecode.
func EncodeConstructorArgs(meta *Metadata, constructorName string, argValues map[string]string) ([]byte, error) {
	if meta == nil {
		return nil, fmt.Errorf("no contract metadata")
	}
	c, err := meta.Constructor(constructorName)
	if err != nil {
		return nil, err
	}
	if len(c.Inputs) == 0 {
		return nil, nil
	}

	vals := make([]interface{}, len(c.Inputs))
	for i, in := range c.Inputs {
		key := ArgKey(i, in)
		raw, ok := argValues[key]
		if !ok {
			return nil, fmt.Errorf("missing value for %s (%s)", key, in.Type)
		}
		v, err := ParseArgValue(in.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("argument %s (%s): %w", key, in.Type, err)
		}
		vals[i] = v
	}

	packed, err := c.Inputs.Pack(vals...)
	if err != nil {
		return nil, fmt.Errorf("packing constructor arguments: %w", err)
	}
	return packed, nil
}

// ParseArgValue converts user input into the Go value go-ethereum packs for
// typ. Arrays are written as "[a,b,c]" or "a,b,c"; tuples are not supported.
func ParseArgValue(typ abi.Type, input string) (interface{}, error) {
	s := strings.TrimSpace(input)

	switch typ.T {
	case abi.IntTy, abi.UintTy:
		return parseInteger(typ, s)

	case abi.BoolTy:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid bool: %q", input)
		}
		return b, nil

	case abi.StringTy:
		return input, nil

	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address: %q", input)
		}
		return common.HexToAddress(s), nil

	case abi.BytesTy:
		return decodeHexInput(s)

	case abi.FixedBytesTy:
		b, err := decodeHexInput(s)
		if err != nil {
			return nil, err
		}
		if len(b) > typ.Size {
			return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(b), typ.Size)
		}
		rv := reflect.New(typ.GetType()).Elem()
		reflect.Copy(rv, reflect.ValueOf(b))
		return rv.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		return parseList(typ, s)

	default:
		return nil, fmt.Errorf("type %s is not supported", typ.String())
	}
}

// parseBig reads decimal, or hex with a 0x prefix. Leading zeros stay decimal
// and digit separators are rejected.
func parseBig(s string) (*big.Int, bool) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base, digits = 16, digits[2:]
	}
	if digits == "" || strings.ContainsAny(digits, "_+-") {
		return nil, false
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, false
	}
	if neg {
		n.Neg(n)
	}
	return n, true
}

// ParseWei reads an amount of wei attached to a call. Empty input is zero.
func ParseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := parseBig(s)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount: %q", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative wei amount: %s", s)
	}
	return n, nil
}

func parseInteger(typ abi.Type, s string) (interface{}, error) {
	n, ok := parseBig(s)
	if !ok {
		return nil, fmt.Errorf("invalid integer: %q", s)
	}
	if typ.T == abi.UintTy {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("negative value for %s", typ.String())
		}
		if n.BitLen() > typ.Size {
			return nil, fmt.Errorf("%s overflows %s", s, typ.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
		if n.Cmp(limit) >= 0 || n.Cmp(new(big.Int).Neg(limit)) < 0 {
			return nil, fmt.Errorf("%s overflows %s", s, typ.String())
		}
	}

	goType := typ.GetType()
	if goType == bigIntType {
		return n, nil
	}
	rv := reflect.New(goType).Elem()
	if typ.T == abi.UintTy {
		rv.SetUint(n.Uint64())
	} else {
		rv.SetInt(n.Int64())
	}
	return rv.Interface(), nil
}

func parseList(typ abi.Type, s string) (interface{}, error) {
	switch typ.Elem.T {
	case abi.SliceTy, abi.ArrayTy, abi.TupleTy:
		return nil, fmt.Errorf("nested type %s is not supported", typ.String())
	}

	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
	var parts []string
	if s != "" {
		parts = strings.Split(s, ",")
	}

	if typ.T == abi.ArrayTy && len(parts) != typ.Size {
		return nil, fmt.Errorf("%s expects %d elements, got %d", typ.String(), typ.Size, len(parts))
	}

	var rv reflect.Value
	if typ.T == abi.ArrayTy {
		rv = reflect.New(typ.GetType()).Elem()
	} else {
		rv = reflect.MakeSlice(typ.GetType(), len(parts), len(parts))
	}
	for i, part := range parts {
		v, err := ParseArgValue(*typ.Elem, strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		rv.Index(i).Set(reflect.ValueOf(v))
	}
	return rv.Interface(), nil
}

func decodeHexInput(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return []byte{}, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}
