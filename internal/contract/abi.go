package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ABIEntry is one ABI entry (function, event, etc.).
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs"`
	StateMutability string     `json:"stateMutability"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// IsReadFunction returns true if the function is read-only (view/pure).
func (e ABIEntry) IsReadFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "view" || e.StateMutability == "pure")
}

// IsWriteFunction returns true if the function modifies state.
func (e ABIEntry) IsWriteFunction() bool {
	return e.Type == "function" &&
		(e.StateMutability == "nonpayable" || e.StateMutability == "payable")
}

func parseABI(data []byte) ([]ABIEntry, error) {
	var entries []ABIEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '{' {
			return nil, fmt.Errorf("file is a JSON object, not an ABI array; a Hardhat/Foundry artifact must have an \"abi\" key")
		}
		return nil, fmt.Errorf("invalid ABI JSON: expected an array of function/event definitions, got parse error: %w", err)
	}
	return entries, nil
}

// validateABI checks that the parsed ABI has at least one function, event or
// constructor.
func validateABI(entries []ABIEntry, path string) error {
	if len(entries) == 0 {
		return fmt.Errorf("ABI is empty (no functions or events found): %s", path)
	}
	for _, e := range entries {
		if e.Type == "function" || e.Type == "event" || e.Type == "constructor" {
			return nil
		}
	}
	return fmt.Errorf("ABI has %d entries but none are functions, events or constructors: %s", len(entries), path)
}
