package dto

import (
	"time"

	"github.com/flexprice/invoicer/internal/domain/oracle"
	"github.com/flexprice/invoicer/internal/domain/settlement"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/shopspring/decimal"
)

// RateResponse is the oracle rate a conversion was priced at
type RateResponse struct {
	Value    decimal.Decimal `json:"value"`
	Decimals int32           `json:"decimals"`
	Source   string          `json:"source,omitempty"`
	AsOf     time.Time       `json:"as_of"`
}

func newRateResponse(rate *oracle.Rate) *RateResponse {
	if rate == nil {
		return nil
	}
	return &RateResponse{
		Value:    rate.Value,
		Decimals: rate.Decimals,
		Source:   rate.Source,
		AsOf:     rate.UpdatedAt,
	}
}

// ReceiptResponse is returned by both pay endpoints
type ReceiptResponse struct {
	ID            string                 `json:"id"`
	Reference     string                 `json:"reference"`
	InvoiceID     uint64                 `json:"invoice_id"`
	Method        types.SettlementMethod `json:"method"`
	Asset         string                 `json:"asset"`
	InvoiceAmount decimal.Decimal        `json:"invoice_amount"`
	ChargedAmount decimal.Decimal        `json:"charged_amount"`
	Payer         string                 `json:"payer"`
	Payee         string                 `json:"payee"`
	Rate          *RateResponse          `json:"rate,omitempty"`
	SettledAt     time.Time              `json:"settled_at"`
}

func NewReceiptResponse(r *settlement.Receipt) *ReceiptResponse {
	return &ReceiptResponse{
		ID:            r.ID,
		Reference:     r.Reference,
		InvoiceID:     r.InvoiceID,
		Method:        r.Method,
		Asset:         r.Asset.Symbol,
		InvoiceAmount: r.InvoiceAmount,
		ChargedAmount: r.ChargedAmount,
		Payer:         r.Payer,
		Payee:         r.Payee,
		Rate:          newRateResponse(r.Rate),
		SettledAt:     r.SettledAt,
	}
}

// QuoteResponse previews a converted payment
type QuoteResponse struct {
	InvoiceID     uint64          `json:"invoice_id"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	Asset         string          `json:"asset"`
	Amount        decimal.Decimal `json:"amount"`
	Rate          *RateResponse   `json:"rate"`
	QuotedAt      time.Time       `json:"quoted_at"`
}

func NewQuoteResponse(q *settlement.Quote) *QuoteResponse {
	return &QuoteResponse{
		InvoiceID:     q.InvoiceID,
		InvoiceAmount: q.InvoiceAmount,
		Asset:         q.Asset.Symbol,
		Amount:        q.Amount,
		Rate:          newRateResponse(q.Rate),
		QuotedAt:      q.QuotedAt,
	}
}
