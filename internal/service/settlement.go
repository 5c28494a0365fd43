package service

import (
	"context"
	"time"

	"github.com/flexprice/invoicer/internal/domain/asset"
	"github.com/flexprice/invoicer/internal/domain/invoice"
	"github.com/flexprice/invoicer/internal/domain/oracle"
	"github.com/flexprice/invoicer/internal/domain/settlement"
	ierr "github.com/flexprice/invoicer/internal/errors"
	"github.com/flexprice/invoicer/internal/metrics"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// SettlementService pays open invoices. Payment is permissionless, the payer
// is the caller carried by the context and funds always go to the owner.
type SettlementService interface {
	// PayDirect pays the invoice in the stable asset, at face value
	PayDirect(ctx context.Context, id uint64) (*settlement.Receipt, error)

	// PayViaConvertedAsset pays the invoice in the volatile asset, converted at
	// the current oracle rate and rounded down
	PayViaConvertedAsset(ctx context.Context, id uint64) (*settlement.Receipt, error)

	// Quote returns what PayViaConvertedAsset would charge right now
	Quote(ctx context.Context, id uint64) (*settlement.Quote, error)
}

type settlementService struct {
	ServiceParams
}

func NewSettlementService(params ServiceParams) SettlementService {
	return &settlementService{
		ServiceParams: params,
	}
}

func (s *settlementService) PayDirect(ctx context.Context, id uint64) (*settlement.Receipt, error) {
	return s.settle(ctx, id, types.SettlementMethodDirect)
}

func (s *settlementService) PayViaConvertedAsset(ctx context.Context, id uint64) (*settlement.Receipt, error) {
	return s.settle(ctx, id, types.SettlementMethodConverted)
}

func (s *settlementService) Quote(ctx context.Context, id uint64) (*settlement.Quote, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsOpen() {
		return nil, invoice.NewNotFoundError(id)
	}

	rate, err := s.currentRate(ctx)
	if err != nil {
		return nil, err
	}
	amount, err := s.price(inv, rate)
	if err != nil {
		return nil, err
	}

	return &settlement.Quote{
		InvoiceID:     inv.ID,
		InvoiceAmount: inv.Amount,
		Asset:         s.VolatileAdapter.Asset(),
		Amount:        amount,
		Rate:          rate,
		QuotedAt:      time.Now().UTC(),
	}, nil
}

func (s *settlementService) adapterFor(method types.SettlementMethod) asset.Adapter {
	if method == types.SettlementMethodConverted {
		return s.VolatileAdapter
	}
	return s.StableAdapter
}

// settle runs lookup, pricing, transfer and clear as one transaction under
// the invoice lock. Any failure rolls the whole payment back. The oracle is
// consulted before the lock is taken so a slow feed never holds it.
func (s *settlementService) settle(ctx context.Context, id uint64, method types.SettlementMethod) (receipt *settlement.Receipt, err error) {
	start := time.Now()
	defer func() {
		outcome := "settled"
		if err != nil {
			outcome = ierr.CodeFromErr(err)
		}
		metrics.RecordSettlement(method.String(), outcome, time.Since(start))
	}()

	payer := types.GetUserID(ctx)
	if payer == "" {
		return nil, ierr.NewError("payer is required").
			WithHint("Payments must be made by an authenticated caller").
			Mark(ierr.ErrValidation)
	}
	payee := s.Config.Settlement.Owner
	adapter := s.adapterFor(method)

	var rate *oracle.Rate
	if method == types.SettlementMethodConverted {
		inv, err := s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !inv.IsOpen() {
			return nil, invoice.NewNotFoundError(id)
		}
		if rate, err = s.currentRate(ctx); err != nil {
			return nil, err
		}
	}

	unlock := s.Locker.Lock(id)
	defer unlock()

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !inv.IsOpen() {
			return invoice.NewNotFoundError(id)
		}

		charged := inv.Amount
		if rate != nil {
			charged, err = s.price(inv, rate)
			if err != nil {
				return err
			}
		}

		if err := s.pull(ctx, adapter, payer, payee, charged, id); err != nil {
			return err
		}

		if err := s.InvoiceRepo.Clear(ctx, id, inv.Amount); err != nil {
			return err
		}

		receipt = &settlement.Receipt{
			ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SETTLEMENT),
			Reference:     types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_RECEIPT),
			InvoiceID:     id,
			Method:        method,
			Asset:         adapter.Asset(),
			InvoiceAmount: inv.Amount,
			ChargedAmount: charged,
			Payer:         payer,
			Payee:         payee,
			Rate:          rate,
			SettledAt:     time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		s.Logger.Infow("settlement failed",
			"invoice_id", id,
			"method", method,
			"payer", payer,
			"error", err,
		)
		return nil, err
	}

	s.Logger.Infow("invoice settled",
		"invoice_id", id,
		"method", method,
		"payer", payer,
		"asset", receipt.Asset.Symbol,
		"charged_amount", receipt.ChargedAmount,
		"receipt_id", receipt.ID,
	)
	s.publishEvent(ctx, types.EventInvoiceSettled, receipt)

	return receipt, nil
}

// pull maps every adapter failure, a refusal or an error, to ErrTransferFailed
func (s *settlementService) pull(ctx context.Context, adapter asset.Adapter, from, to string, amount decimal.Decimal, id uint64) error {
	a := adapter.Asset()
	details := map[string]any{
		"invoice_id": id,
		"asset":      a.Symbol,
		"amount":     amount.String(),
		"payer":      from,
	}

	ok, err := adapter.Pull(ctx, from, to, amount)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Transfer of %s could not be completed", a.Symbol).
			WithReportableDetails(details).
			Mark(ierr.ErrTransferFailed)
	}
	if !ok {
		return ierr.NewError("transfer rejected").
			WithHintf("Transfer of %s was rejected, check the payer's balance and allowance", a.Symbol).
			WithReportableDetails(details).
			Mark(ierr.ErrTransferFailed)
	}
	return nil
}

// price converts an invoice amount into the volatile asset at rate
func (s *settlementService) price(inv *invoice.Invoice, rate *oracle.Rate) (decimal.Decimal, error) {
	stable := s.StableAdapter.Asset()
	volatile := s.VolatileAdapter.Asset()

	amount, err := types.ConvertAmount(inv.Amount, rate.Value, rate.Decimals, stable.Decimals, volatile.Decimals)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Exchange rate is currently unavailable").
			WithReportableDetails(map[string]any{
				"rate":     rate.Value.String(),
				"decimals": rate.Decimals,
			}).
			Mark(ierr.ErrOracleUnavailable)
	}

	if amount.IsZero() {
		return decimal.Zero, ierr.NewError("converted amount is zero").
			WithHintf("Invoice amount is too small to be paid in %s", volatile.Symbol).
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"amount":     inv.Amount.String(),
				"rate":       rate.Value.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return amount, nil
}

func (s *settlementService) currentRate(ctx context.Context) (*oracle.Rate, error) {
	span, ctx := s.Sentry.StartOracleSpan(ctx, "price_feed")
	if span != nil {
		defer span.Finish()
	}

	start := time.Now()
	rate, err := s.PriceFeed.CurrentRate(ctx)
	metrics.RecordOracleLookup(time.Since(start), err == nil)

	if err != nil {
		if ierr.IsOracleUnavailable(err) {
			return nil, err
		}
		return nil, ierr.WithError(err).
			WithHint("Exchange rate is currently unavailable").
			Mark(ierr.ErrOracleUnavailable)
	}
	if rate == nil {
		return nil, ierr.NewError("oracle returned no rate").
			WithHint("Exchange rate is currently unavailable").
			Mark(ierr.ErrOracleUnavailable)
	}
	return rate, nil
}
