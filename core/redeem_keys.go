package core

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	KeyKindOpaque      = "opaque"
	KeyKindCampaign    = "campaign"
	KeyKindHospitality = "hospitality"
)

// CorrelationKey identifies a redemption transfer. Every gateway variant
// decodes its key from the transfer data and re-encodes it for lookups, so
// equal keys always share one digest.
type CorrelationKey interface {
	Kind() string
	Fields() map[string]any
	Validate() error
}

// KeyCodec converts between the transfer data payload and a key.
type KeyCodec interface {
	Kind() string
	Decode(data []byte) (CorrelationKey, error)
	Encode(key CorrelationKey) ([]byte, error)
}

func keyDigest(codec KeyCodec, key CorrelationKey) (string, error) {
	if key == nil {
		return "", errBadInput("redeem: internal transfer id is empty")
	}
	if key.Kind() != codec.Kind() {
		return "", errBadInput("redeem: %s key can not be used with %s gateway", key.Kind(), codec.Kind())
	}
	if err := key.Validate(); err != nil {
		return "", err
	}
	encoded, err := codec.Encode(key)
	if err != nil {
		return "", err
	}
	return crypto.Keccak256Hash(encoded).Hex(), nil
}

// OpaqueKey is an arbitrary non-empty byte string.
type OpaqueKey []byte

func (k OpaqueKey) Kind() string { return KeyKindOpaque }

func (k OpaqueKey) Fields() map[string]any {
	return map[string]any{"internalTransferId": encodeData(k)}
}

func (k OpaqueKey) Validate() error {
	if len(k) == 0 {
		return errBadInput("redeem: internal transfer id is empty")
	}
	return nil
}

type opaqueCodec struct{}

func OpaqueKeyCodec() KeyCodec { return opaqueCodec{} }

func (opaqueCodec) Kind() string { return KeyKindOpaque }

func (opaqueCodec) Decode(data []byte) (CorrelationKey, error) {
	key := OpaqueKey(append([]byte(nil), data...))
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return key, nil
}

func (opaqueCodec) Encode(key CorrelationKey) ([]byte, error) {
	typed, ok := key.(OpaqueKey)
	if !ok {
		return nil, errBadInput("redeem: expected opaque key")
	}
	return append([]byte(nil), typed...), nil
}

type CampaignKey struct {
	CampaignID string
	InvoiceID  string
	TransferID string
}

func (k CampaignKey) Kind() string { return KeyKindCampaign }

func (k CampaignKey) Fields() map[string]any {
	return map[string]any{
		"campaignId": k.CampaignID,
		"invoiceId":  k.InvoiceID,
		"transferId": k.TransferID,
	}
}

// Validate requires every id. A blank component would let two different
// redemptions collapse onto one digest.
func (k CampaignKey) Validate() error {
	return requireKeyFields(KeyKindCampaign,
		"campaignId", k.CampaignID,
		"invoiceId", k.InvoiceID,
		"transferId", k.TransferID,
	)
}

type HospitalityKey struct {
	PartnerID  string
	LocationID string
	Timestamp  int64
	CustomerID string
	TransferID string
}

func (k HospitalityKey) Kind() string { return KeyKindHospitality }

func (k HospitalityKey) Fields() map[string]any {
	return map[string]any{
		"partnerId":  k.PartnerID,
		"locationId": k.LocationID,
		"timestamp":  k.Timestamp,
		"customerId": k.CustomerID,
		"transferId": k.TransferID,
	}
}

// Validate requires every id. Timestamp is free-form, zero and negative
// values included.
func (k HospitalityKey) Validate() error {
	return requireKeyFields(KeyKindHospitality,
		"partnerId", k.PartnerID,
		"locationId", k.LocationID,
		"customerId", k.CustomerID,
		"transferId", k.TransferID,
	)
}

// requireKeyFields takes name/value pairs and rejects the first blank value.
func requireKeyFields(kind string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) != "" {
			continue
		}
		if pairs[i] == "transferId" {
			return errBadInput("redeem: internal transfer id is empty")
		}
		return errBadInput("redeem: %s key field %s is empty", kind, pairs[i])
	}
	return nil
}

var (
	abiString = mustABIType("string")
	abiInt64  = mustABIType("int64")

	campaignArguments = abi.Arguments{
		{Name: "campaignId", Type: abiString},
		{Name: "invoiceId", Type: abiString},
		{Name: "transferId", Type: abiString},
	}
	hospitalityArguments = abi.Arguments{
		{Name: "partnerId", Type: abiString},
		{Name: "locationId", Type: abiString},
		{Name: "timestamp", Type: abiInt64},
		{Name: "customerId", Type: abiString},
		{Name: "transferId", Type: abiString},
	}
)

func mustABIType(name string) abi.Type {
	typ, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

type campaignCodec struct{}

// CampaignKeyCodec reads ABI encoded (string campaignId, string invoiceId,
// string transferId) payloads.
func CampaignKeyCodec() KeyCodec { return campaignCodec{} }

func (campaignCodec) Kind() string { return KeyKindCampaign }

func (campaignCodec) Decode(data []byte) (CorrelationKey, error) {
	values, err := unpackKey(campaignArguments, data)
	if err != nil {
		return nil, err
	}
	key := CampaignKey{}
	var ok [3]bool
	key.CampaignID, ok[0] = values[0].(string)
	key.InvoiceID, ok[1] = values[1].(string)
	key.TransferID, ok[2] = values[2].(string)
	if !ok[0] || !ok[1] || !ok[2] {
		return nil, errBadInput("redeem: transfer data is not a campaign key")
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return key, nil
}

func (campaignCodec) Encode(key CorrelationKey) ([]byte, error) {
	typed, ok := key.(CampaignKey)
	if !ok {
		return nil, errBadInput("redeem: expected campaign key")
	}
	encoded, err := campaignArguments.Pack(typed.CampaignID, typed.InvoiceID, typed.TransferID)
	if err != nil {
		return nil, errBadInput("redeem: encode campaign key: %v", err)
	}
	return encoded, nil
}

type hospitalityCodec struct{}

// HospitalityKeyCodec reads ABI encoded (string partnerId, string locationId,
// int64 timestamp, string customerId, string transferId) payloads.
func HospitalityKeyCodec() KeyCodec { return hospitalityCodec{} }

func (hospitalityCodec) Kind() string { return KeyKindHospitality }

func (hospitalityCodec) Decode(data []byte) (CorrelationKey, error) {
	values, err := unpackKey(hospitalityArguments, data)
	if err != nil {
		return nil, err
	}
	key := HospitalityKey{}
	var ok [5]bool
	key.PartnerID, ok[0] = values[0].(string)
	key.LocationID, ok[1] = values[1].(string)
	key.Timestamp, ok[2] = values[2].(int64)
	key.CustomerID, ok[3] = values[3].(string)
	key.TransferID, ok[4] = values[4].(string)
	for _, valid := range ok {
		if !valid {
			return nil, errBadInput("redeem: transfer data is not a hospitality key")
		}
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return key, nil
}

func (hospitalityCodec) Encode(key CorrelationKey) ([]byte, error) {
	typed, ok := key.(HospitalityKey)
	if !ok {
		return nil, errBadInput("redeem: expected hospitality key")
	}
	encoded, err := hospitalityArguments.Pack(
		typed.PartnerID,
		typed.LocationID,
		typed.Timestamp,
		typed.CustomerID,
		typed.TransferID,
	)
	if err != nil {
		return nil, errBadInput("redeem: encode hospitality key: %v", err)
	}
	return encoded, nil
}

func unpackKey(args abi.Arguments, data []byte) ([]any, error) {
	if len(data) == 0 {
		return nil, errBadInput("redeem: internal transfer id is empty")
	}
	values, err := args.Unpack(data)
	if err != nil {
		return nil, errBadInput("redeem: decode transfer data: %v", err)
	}
	if len(values) != len(args) {
		return nil, errBadInput("redeem: transfer data has %d fields, expected %d", len(values), len(args))
	}
	return values, nil
}
