package service

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/domain/asset"
	"github.com/flexprice/invoicer/internal/domain/ledger"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// TokenService manages the ledger balances and allowances the asset adapters
// move. Only the owner may mint; every caller may approve spenders on its own
// balance.
type TokenService interface {
	Assets() []types.Asset
	Mint(ctx context.Context, symbol, to string, amount decimal.Decimal) (*ledger.Balance, error)
	Approve(ctx context.Context, symbol, spender string, amount decimal.Decimal) (*ledger.Allowance, error)
	BalanceOf(ctx context.Context, symbol, account string) (*ledger.Balance, error)
	Allowance(ctx context.Context, symbol, holder, spender string) (*ledger.Allowance, error)
}

type tokenService struct {
	ServiceParams
}

func NewTokenService(params ServiceParams) TokenService {
	return &tokenService{
		ServiceParams: params,
	}
}

func (s *tokenService) Assets() []types.Asset {
	return lo.Map(s.adapters(), func(a asset.Adapter, _ int) types.Asset {
		return a.Asset()
	})
}

func (s *tokenService) adapters() []asset.Adapter {
	return []asset.Adapter{s.StableAdapter, s.VolatileAdapter}
}

func (s *tokenService) resolve(symbol string) (types.Asset, error) {
	normalized := types.NormalizeSymbol(symbol)
	a, ok := lo.Find(s.Assets(), func(a types.Asset) bool {
		return a.Symbol == normalized
	})
	if !ok {
		return types.Asset{}, ierr.NewError("asset not supported").
			WithHintf("Asset %s is not supported", symbol).
			WithReportableDetails(map[string]any{
				"symbol":    symbol,
				"supported": lo.Map(s.Assets(), func(a types.Asset, _ int) string { return a.Symbol }),
			}).
			Mark(ierr.ErrNotFound)
	}
	return a, nil
}

func requireAccount(field, account string) error {
	if account == "" {
		return ierr.NewError(field + " is required").
			WithHintf("%s is required", field).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (s *tokenService) Mint(ctx context.Context, symbol, to string, amount decimal.Decimal) (*ledger.Balance, error) {
	caller := types.GetUserID(ctx)
	if caller != s.Config.Settlement.Owner {
		return nil, ierr.NewError("caller is not the owner").
			WithHint("Only the owner can mint tokens").
			WithReportableDetails(map[string]any{
				"caller": caller,
			}).
			Mark(ierr.ErrPermissionDenied)
	}

	a, err := s.resolve(symbol)
	if err != nil {
		return nil, err
	}
	if err := requireAccount("account", to); err != nil {
		return nil, err
	}
	if err := types.ValidateBaseUnits("amount", amount); err != nil {
		return nil, err
	}

	var balance decimal.Decimal
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		if err := s.LedgerRepo.AddBalance(ctx, a.Symbol, to, amount); err != nil {
			return err
		}
		balance, err = s.LedgerRepo.GetBalance(ctx, a.Symbol, to)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("minted tokens",
		"asset", a.Symbol,
		"account", to,
		"amount", amount,
	)

	return &ledger.Balance{
		Asset:     a.Symbol,
		Account:   to,
		Amount:    balance,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (s *tokenService) Approve(ctx context.Context, symbol, spender string, amount decimal.Decimal) (*ledger.Allowance, error) {
	holder := types.GetUserID(ctx)
	if err := requireAccount("holder", holder); err != nil {
		return nil, err
	}
	if err := requireAccount("spender", spender); err != nil {
		return nil, err
	}

	a, err := s.resolve(symbol)
	if err != nil {
		return nil, err
	}

	// zero revokes the allowance
	if amount.IsNegative() || !amount.IsInteger() {
		return nil, ierr.NewError("invalid allowance").
			WithHint("Allowance must be a non negative integer in the asset's smallest unit").
			WithReportableDetails(map[string]any{
				"amount": amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if err := s.LedgerRepo.SetAllowance(ctx, a.Symbol, holder, spender, amount); err != nil {
		return nil, err
	}

	s.Logger.Infow("allowance updated",
		"asset", a.Symbol,
		"holder", holder,
		"spender", spender,
		"amount", amount,
	)

	return &ledger.Allowance{
		Asset:     a.Symbol,
		Holder:    holder,
		Spender:   spender,
		Amount:    amount,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (s *tokenService) BalanceOf(ctx context.Context, symbol, account string) (*ledger.Balance, error) {
	a, err := s.resolve(symbol)
	if err != nil {
		return nil, err
	}

	balance, err := s.LedgerRepo.GetBalance(ctx, a.Symbol, account)
	if err != nil {
		return nil, err
	}

	return &ledger.Balance{
		Asset:   a.Symbol,
		Account: account,
		Amount:  balance,
	}, nil
}

func (s *tokenService) Allowance(ctx context.Context, symbol, holder, spender string) (*ledger.Allowance, error) {
	a, err := s.resolve(symbol)
	if err != nil {
		return nil, err
	}

	allowance, err := s.LedgerRepo.GetAllowance(ctx, a.Symbol, holder, spender)
	if err != nil {
		return nil, err
	}

	return &ledger.Allowance{
		Asset:   a.Symbol,
		Holder:  holder,
		Spender: spender,
		Amount:  allowance,
	}, nil
}
