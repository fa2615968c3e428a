// Package core contains the ledger domain: the sequential host that executes
// operations atomically, and the components deployed on it (role registry,
// token ledger, bridge gateway, redeem gateways and customer registry).
// Storage, command and job adapters depend on this package; core does not
// depend on them.
package core
