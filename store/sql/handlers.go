package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// stateKeyNamespace derives stable repository ids for state rows, which are
// keyed by their namespaced state key rather than a uuid.
var stateKeyNamespace = uuid.MustParse("5b0f6a52-1f1e-4cf4-9d8e-3f6b1c7a2d10")

func ledgerStateHandlers() repository.ModelHandlers[*ledgerStateRecord] {
	return repository.ModelHandlers[*ledgerStateRecord]{
		NewRecord: func() *ledgerStateRecord {
			return &ledgerStateRecord{}
		},
		GetID: func(record *ledgerStateRecord) uuid.UUID {
			if record == nil || record.StateKey == "" {
				return uuid.Nil
			}
			return uuid.NewSHA1(stateKeyNamespace, []byte(record.StateKey))
		},
		SetID: func(*ledgerStateRecord, uuid.UUID) {},
		GetIdentifier: func() string {
			return "state_key"
		},
		GetIdentifierValue: func(record *ledgerStateRecord) string {
			if record == nil {
				return ""
			}
			return record.StateKey
		},
	}
}

func ledgerEventHandlers() repository.ModelHandlers[*ledgerEventRecord] {
	return repository.ModelHandlers[*ledgerEventRecord]{
		NewRecord: func() *ledgerEventRecord {
			return &ledgerEventRecord{}
		},
		GetID: func(record *ledgerEventRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *ledgerEventRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "event_id"
		},
		GetIdentifierValue: func(record *ledgerEventRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.EventID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
