package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind names a chain event observed after finalization.
type EventKind string

const (
	EventInstantiated EventKind = "ContractInstantiated"
	EventLog          EventKind = "Log"
	EventTxSuccess    EventKind = "TxSuccess"
	EventTxFailed     EventKind = "TxFailed"
)

// Event is one entry of the raw event list a finalized deployment produces.
type Event struct {
	Kind     EventKind `json:"kind"`
	Address  string    `json:"address,omitempty"`  // emitting contract, or the new contract for EventInstantiated
	Deployer string    `json:"deployer,omitempty"` // EventInstantiated only
	Topics   []string  `json:"topics,omitempty"`
	Data     string    `json:"data,omitempty"`
}

// EventsFromReceipt flattens a receipt into the event list: the logs in order,
// an EventInstantiated when the receipt created a contract, then the outcome.
func EventsFromReceipt(r *TxReceipt) []Event {
	if r == nil {
		return nil
	}
	events := make([]Event, 0, len(r.Logs)+2)
	for _, l := range r.Logs {
		events = append(events, Event{
			Kind:    EventLog,
			Address: l.Address,
			Topics:  l.Topics,
			Data:    l.Data,
		})
	}
	if r.Status == 1 && r.ContractAddress != "" {
		events = append(events, Event{
			Kind:     EventInstantiated,
			Address:  r.ContractAddress,
			Deployer: r.From,
		})
	}
	if r.Status == 1 {
		events = append(events, Event{Kind: EventTxSuccess})
	} else {
		events = append(events, Event{Kind: EventTxFailed})
	}
	return events
}

// ContractAddressFromEvents returns the address carried by the first
// instantiation event. ok is false when there is none.
func ContractAddressFromEvents(events []Event) (addr common.Address, ok bool) {
	for _, e := range events {
		if e.Kind != EventInstantiated {
			continue
		}
		if !common.IsHexAddress(e.Address) {
			continue
		}
		return common.HexToAddress(strings.TrimSpace(e.Address)), true
	}
	return common.Address{}, false
}
