package types

// SettlementMethod identifies which payment path discharged an invoice
type SettlementMethod string

const (
	// SettlementMethodDirect pays the invoice amount in the stable asset
	SettlementMethodDirect SettlementMethod = "direct"
	// SettlementMethodConverted pays in the volatile asset at the oracle rate
	SettlementMethodConverted SettlementMethod = "converted"
)

func (m SettlementMethod) String() string {
	return string(m)
}

// AssetKind returns the asset kind charged by the method
func (m SettlementMethod) AssetKind() AssetKind {
	if m == SettlementMethodConverted {
		return AssetKindVolatile
	}
	return AssetKindStable
}
