package contract

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact is a compiled contract read from disk. Bytecode is nil for raw ABI
// files, interfaces and abstract contracts.
type Artifact struct {
	Name     string
	ABI      json.RawMessage
	Entries  []ABIEntry
	Bytecode []byte
}

// HasBytecode reports whether the artifact can be deployed.
func (a *Artifact) HasBytecode() bool { return len(a.Bytecode) > 0 }

// LoadArtifact reads a local file that is either:
//   - a raw ABI JSON array: [{"type":"function",...}, ...]
//   - a Hardhat artifact: {"contractName":"X","abi":[...],"bytecode":"0x..."}
//   - a Foundry artifact: {"abi":[...],"bytecode":{"object":"0x..."}}
//
// The name comes from "contractName" when present, otherwise the file name.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("artifact file is empty: %s", path)
	}

	art := &Artifact{Name: nameFromPath(path)}

	var raw struct {
		ContractName string          `json:"contractName"`
		ABI          json.RawMessage `json:"abi"`
		Bytecode     json.RawMessage `json:"bytecode"`
	}
	if json.Unmarshal(data, &raw) == nil && len(raw.ABI) > 1 && raw.ABI[0] == '[' {
		art.ABI = raw.ABI
		if raw.ContractName != "" {
			art.Name = raw.ContractName
		}
		if len(raw.Bytecode) > 0 && string(raw.Bytecode) != "null" {
			bc, err := decodeBytecode(raw.Bytecode)
			if err != nil {
				return nil, fmt.Errorf("extracting bytecode from artifact: %w", err)
			}
			art.Bytecode = bc
		}
	} else {
		art.ABI = json.RawMessage(data)
	}

	entries, err := parseABI(art.ABI)
	if err != nil {
		return nil, err
	}
	if err := validateABI(entries, path); err != nil {
		return nil, err
	}
	art.Entries = entries
	return art, nil
}

func nameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, ".abi")
}

// decodeBytecode returns nil for an empty "0x" so abstract contracts read as
// ABI-only.
func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	bcHex, err := extractBytecodeHex(raw)
	if err != nil {
		return nil, err
	}
	bcHex = strings.TrimPrefix(bcHex, "0x")
	if bcHex == "" {
		return nil, nil
	}
	bc, err := hex.DecodeString(bcHex)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode hex: %w", err)
	}
	return bc, nil
}

// extractBytecodeHex handles the two common artifact formats:
//   - Hardhat:  "bytecode": "0x608060..."
//   - Foundry:  "bytecode": {"object": "0x608060..."}
func extractBytecodeHex(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str), nil
	}

	var obj struct {
		Object *string `json:"object"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Object != nil {
		return strings.TrimSpace(*obj.Object), nil
	}

	return "", fmt.Errorf("bytecode field is neither a hex string nor a {\"object\":\"0x...\"} object")
}
