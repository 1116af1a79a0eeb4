package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// DefaultConstructor is the name under which an ABI's constructor is listed.
// EVM contracts have at most one; a contract without one still gets an
// implicit no-argument constructor.
const DefaultConstructor = "constructor"

// ErrUnknownConstructor is returned when a constructor name is not in the
// metadata.
var ErrUnknownConstructor = errors.New("unknown constructor")

// Constructor is one way of instantiating a contract.
type Constructor struct {
	Name    string
	Inputs  abi.Arguments
	Payable bool
}

// Metadata describes a contract: its name, its ABI and the constructors it
// can be instantiated with.
type Metadata struct {
	Name         string
	ABIJSON      json.RawMessage
	ABI          abi.ABI
	Constructors []Constructor
}

// ParseMetadata parses abiJSON into Metadata.
func ParseMetadata(name string, abiJSON []byte) (*Metadata, error) {
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing ABI for %s: %w", name, err)
	}
	raw := make(json.RawMessage, len(abiJSON))
	copy(raw, abiJSON)

	return &Metadata{
		Name:    name,
		ABIJSON: raw,
		ABI:     parsed,
		Constructors: []Constructor{{
			Name:    DefaultConstructor,
			Inputs:  parsed.Constructor.Inputs,
			Payable: parsed.Constructor.IsPayable(),
		}},
	}, nil
}

// Constructor returns the constructor called name.
func (m *Metadata) Constructor(name string) (*Constructor, error) {
	for i := range m.Constructors {
		if m.Constructors[i].Name == name {
			return &m.Constructors[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownConstructor, name)
}

// Methods splits the ABI's functions into read (view/pure) and write methods,
// each sorted by name.
func (m *Metadata) Methods() (reads, writes []abi.Method) {
	for _, method := range m.ABI.Methods {
		if method.IsConstant() {
			reads = append(reads, method)
		} else {
			writes = append(writes, method)
		}
	}
	byName := func(ms []abi.Method) {
		sort.Slice(ms, func(i, j int) bool { return ms[i].Name < ms[j].Name })
	}
	byName(reads)
	byName(writes)
	return reads, writes
}

type metadataJSON struct {
	Name string          `json:"name"`
	ABI  json.RawMessage `json:"abi"`
}

// MarshalJSON stores only the name and the raw ABI; everything else is
// derived on load.
func (m *Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(metadataJSON{Name: m.Name, ABI: m.ABIJSON})
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var j metadataJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	parsed, err := ParseMetadata(j.Name, j.ABI)
	if err != nil {
		return err
	}
	*m = *parsed
	return nil
}
