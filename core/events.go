package core

import (
	"strings"
	"time"
)

const (
	EventInterfaceImplementerSet = "InterfaceImplementerSet"

	EventRoleAdded   = "RoleAdded"
	EventRoleRemoved = "RoleRemoved"

	EventMinted         = "Minted"
	EventBurned         = "Burned"
	EventSent           = "Sent"
	EventSeizeFrom      = "SeizeFrom"
	EventFeeCollected   = "FeeCollected"
	EventStakeIncreased = "StakeIncreased"
	EventStakeDecreased = "StakeDecreased"

	EventPublicAccountLinked           = "PublicAccountLinked"
	EventPublicAccountUnlinked         = "PublicAccountUnlinked"
	EventTransferredToPublicNetwork    = "TransferredToPublicNetwork"
	EventTransferredFromPublicNetwork  = "TransferredFromPublicNetwork"
	EventTransferToPublicNetworkFeeSet = "TransferToPublicNetworkFeeSet"
	EventTreasuryAccountSet            = "TreasuryAccountSet"

	EventTransferAccepted = "TransferAccepted"
	EventTransferRejected = "TransferRejected"

	EventCustomerRegistered = "CustomerRegistered"
	EventCustomerUpdated    = "CustomerUpdated"
)

// LedgerEvent is a notification emitted by a component during an operation.
// Events of an aborted operation are never observed.
type LedgerEvent struct {
	ID         string
	Name       string
	Contract   Account
	Operation  string
	TxID       string
	Index      int
	Payload    map[string]any
	Metadata   map[string]any
	OccurredAt time.Time
}

type EventFilter struct {
	Contract Account
	Name     string
	TxID     string
	Limit    int
}

func (f EventFilter) Matches(event LedgerEvent) bool {
	if !IsZeroAccount(f.Contract) && event.Contract != f.Contract {
		return false
	}
	if name := strings.TrimSpace(f.Name); name != "" && event.Name != name {
		return false
	}
	if txID := strings.TrimSpace(f.TxID); txID != "" && event.TxID != txID {
		return false
	}
	return true
}

func cloneEvent(event LedgerEvent) LedgerEvent {
	cloned := event
	cloned.Payload = copyMap(event.Payload)
	cloned.Metadata = copyMap(event.Metadata)
	return cloned
}

func copyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
