package core

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account identifies a ledger holder, an external network account, or a
// deployed component.
type Account = common.Address

var ZeroAccount = Account{}

func IsZeroAccount(account Account) bool {
	return account == ZeroAccount
}

// ParseAccount accepts a hex encoded 20 byte address, with or without 0x.
func ParseAccount(raw string) (Account, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return ZeroAccount, errBadInput("core: invalid account address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

// DeriveAccount returns a stable component address for a label.
func DeriveAccount(label string) Account {
	return common.BytesToAddress(crypto.Keccak256([]byte(strings.TrimSpace(label))))
}

func stateKey(contract Account, parts ...string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(contract.Hex()))
	for _, part := range parts {
		b.WriteByte('/')
		b.WriteString(part)
	}
	return b.String()
}

func accountPart(account Account) string {
	return strings.ToLower(account.Hex())
}

func namePart(name string) string {
	return hex.EncodeToString([]byte(name))
}
