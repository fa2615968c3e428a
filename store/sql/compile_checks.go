package sqlstore

import "github.com/goliatone/go-ledger/core"

var (
	_ core.StateStore     = (*StateStore)(nil)
	_ core.StateStore     = (*CachedStateStore)(nil)
	_ core.OutboxStore    = (*EventStore)(nil)
	_ core.OutboxReleaser = (*EventStore)(nil)
	_ core.EventReader    = (*EventStore)(nil)
)
