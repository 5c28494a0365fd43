package dto

import (
	"time"

	"github.com/flexprice/invoicer/internal/domain/ledger"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/flexprice/invoicer/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// MintRequest credits an account with freshly issued base units
type MintRequest struct {
	To     string          `json:"to" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

func (r *MintRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return types.ValidateBaseUnits("amount", r.Amount)
}

// ApproveRequest sets the caller's allowance for a spender. An amount of zero
// revokes it.
type ApproveRequest struct {
	Spender string          `json:"spender" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
}

func (r *ApproveRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type BalanceResponse struct {
	Asset     string          `json:"asset"`
	Account   string          `json:"account"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func NewBalanceResponse(b *ledger.Balance) *BalanceResponse {
	resp := &BalanceResponse{
		Asset:   b.Asset,
		Account: b.Account,
		Amount:  b.Amount,
	}
	if !b.UpdatedAt.IsZero() {
		resp.UpdatedAt = lo.ToPtr(b.UpdatedAt)
	}
	return resp
}

type AllowanceResponse struct {
	Asset     string          `json:"asset"`
	Holder    string          `json:"holder"`
	Spender   string          `json:"spender"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

func NewAllowanceResponse(a *ledger.Allowance) *AllowanceResponse {
	resp := &AllowanceResponse{
		Asset:   a.Asset,
		Holder:  a.Holder,
		Spender: a.Spender,
		Amount:  a.Amount,
	}
	if !a.UpdatedAt.IsZero() {
		resp.UpdatedAt = lo.ToPtr(a.UpdatedAt)
	}
	return resp
}

// AssetResponse lists a supported token
type AssetResponse struct {
	Symbol   string          `json:"symbol"`
	Kind     types.AssetKind `json:"kind"`
	Decimals int32           `json:"decimals"`
}

type ListAssetsResponse struct {
	Items []*AssetResponse `json:"items"`
}

func NewListAssetsResponse(assets []types.Asset) *ListAssetsResponse {
	return &ListAssetsResponse{
		Items: lo.Map(assets, func(a types.Asset, _ int) *AssetResponse {
			return &AssetResponse{Symbol: a.Symbol, Kind: a.Kind, Decimals: a.Decimals}
		}),
	}
}
