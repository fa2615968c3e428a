package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Contract      = (*RoleRegistry)(nil)
	_ Contract      = (*HookRegistry)(nil)
	_ Contract      = (*TokenLedger)(nil)
	_ Contract      = (*CustomerRegistry)(nil)
	_ ValueReceiver = (*BridgeGateway)(nil)
	_ ValueReceiver = (*RedeemGateway)(nil)
	_ StateStore    = (*MemoryStateStore)(nil)
	_ EventReader   = (*MemoryStateStore)(nil)

	_ KeyCodec       = opaqueCodec{}
	_ KeyCodec       = campaignCodec{}
	_ KeyCodec       = hospitalityCodec{}
	_ CorrelationKey = OpaqueKey(nil)
	_ CorrelationKey = CampaignKey{}
	_ CorrelationKey = HospitalityKey{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
